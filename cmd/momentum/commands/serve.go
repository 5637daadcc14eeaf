package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/api"
	"github.com/wonny/momentum/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `읽기 전용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                   - Health check
  GET  /api/reports/{period}     - 최근 저장 리포트 (저장소가 없으면 즉시 실행)
  POST /api/reports/{period}/run - 리포트 즉시 실행
  GET  /api/quotes/{code}        - 당일 시세
  GET  /api/jobs                 - 스케줄 실행 통계 (--schedule)

Example:
  go run ./cmd/momentum serve
  go run ./cmd/momentum serve --port 8080
  go run ./cmd/momentum serve --schedule`,
	RunE: runServe,
}

var (
	servePort     string
	serveSchedule bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "run the report scheduler in-process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	var jobHandler *handlers.JobHandler
	if serveSchedule {
		s, _, err := newReportScheduler(cfg, log, runner, scheduleTimeout)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop()
		jobHandler = handlers.NewJobHandler(s)
	}

	router := api.NewRouter(
		handlers.NewReportHandler(a.store, runner, log),
		handlers.NewQuoteHandler(a.fetcher, log),
		jobHandler,
		a.db,
		log,
	)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
