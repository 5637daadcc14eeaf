package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/momentum/internal/browser"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/external/sectorpage"
	"github.com/wonny/momentum/internal/external/statementdog"
	"github.com/wonny/momentum/internal/external/tpex"
	"github.com/wonny/momentum/internal/external/twse"
	"github.com/wonny/momentum/internal/pricecatalog"
	"github.com/wonny/momentum/internal/reconcile"
	"github.com/wonny/momentum/internal/store"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/database"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// app holds the wired dependencies of one command invocation.
// Close releases the browser, database and cache on every exit path.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *httputil.Client
	redis      *redis.Client
	db         *database.DB
	session    *browser.Session
	fetcher    *pricecatalog.Fetcher
	store      contracts.ReportStore
}

// newApp wires the price feeds, the cache and the optional report store
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{
		cfg:        cfg,
		log:        log,
		httpClient: httputil.New(cfg, log),
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = redisClient

	a.fetcher = pricecatalog.NewFetcher(
		twse.NewClient(a.httpClient, log, cfg.Quotes.ListedURL),
		tpex.NewClient(a.httpClient, log, cfg.Quotes.OTCURL),
		redis.NewCache(redisClient, "momentum"),
		cfg.Redis.PriceCacheTTL,
		log,
	)

	db, err := database.New(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Debug("DATABASE_URL not set, reports will not be persisted")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
		repo := store.NewReportRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.store = repo
	}

	return a, nil
}

// rankingSource builds the configured ranking source. The browser source
// starts a session owned by the app and resolves groups one at a time.
func (a *app) rankingSource() (contracts.RankingSource, reconcile.Options, error) {
	opts := reconcile.Options{
		Limit:   a.cfg.Resolver.Limit,
		Workers: a.cfg.Resolver.Workers,
	}
	filter := contracts.TickerFilter{Lenient: a.cfg.Resolver.Lenient}

	switch a.cfg.Ranking.Source {
	case "browser":
		if a.session == nil {
			session, err := browser.NewSession(a.cfg.Browser, a.cfg.HTTP.UserAgent, a.log)
			if err != nil {
				return nil, opts, err
			}
			a.session = session
		}
		opts.Workers = 1
		return sectorpage.NewSource(a.session, a.cfg.Sector, a.cfg.Ranking.TopN, filter, a.log), opts, nil
	default:
		return statementdog.NewSource(a.httpClient, a.log, a.cfg.StatementDog, a.cfg.Ranking.TopN, filter), opts, nil
	}
}

// runner wires the full report pipeline
func (a *app) runner() (*reconcile.Runner, error) {
	src, opts, err := a.rankingSource()
	if err != nil {
		return nil, err
	}
	return reconcile.NewRunner(src, a.fetcher, a.store, opts, a.log), nil
}

// Close releases everything the app opened
func (a *app) Close() {
	a.session.Close()
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
