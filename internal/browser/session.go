package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

// Page loads a script-rendered page and returns its HTML once marker is visible
type Page interface {
	Load(ctx context.Context, url, marker string) (string, error)
}

// Session owns one headless browser for the lifetime of a run.
// Navigations are serialized; Close must be called on every exit path.
// ⭐ SSOT: 브라우저 프로세스는 이 세션에서만 생성/종료
type Session struct {
	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	waitTimeout   time.Duration
	logger        *logger.Logger
	closed        bool
}

// NewSession starts a browser and verifies it responds
func NewSession(cfg config.BrowserConfig, userAgent string, log *logger.Logger) (*Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = 10 * time.Second
	}

	s := &Session{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		waitTimeout:   waitTimeout,
		logger:        log.Module("browser"),
	}

	startCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser startup failed: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"headless":     cfg.Headless,
		"wait_timeout": waitTimeout.String(),
	}).Info("Browser session started")

	return s, nil
}

// Load navigates to url, waits up to the session wait timeout for marker
// (a CSS selector) to become visible and returns the rendered document.
// A marker that never appears yields contracts.ErrTimeout.
func (s *Session) Load(ctx context.Context, url, marker string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", errors.New("browser session closed")
	}

	// tab work must derive from the browser context; the caller's ctx still cancels it
	runCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	waitCtx, waitCancel := context.WithTimeout(runCtx, s.waitTimeout)
	defer waitCancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(marker, chromedp.ByQuery)); err != nil {
		return "", waitError(url, marker, s.waitTimeout, err)
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document %s: %w", url, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"url":      url,
		"marker":   marker,
		"duration": time.Since(start),
	}).Debug("Page rendered")

	return html, nil
}

// waitError maps an expired marker wait onto contracts.ErrTimeout
func waitError(url, marker string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("marker %q not visible on %s within %s: %w", marker, url, timeout, contracts.ErrTimeout)
	}
	return fmt.Errorf("wait for %q on %s: %w", marker, url, err)
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.logger.Info("Browser session closed")
}
