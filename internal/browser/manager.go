package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

var _ schemas.PageOpener = (*Manager)(nil)
var _ schemas.HealthReporter = (*Manager)(nil)

// startupProbeTimeout bounds the liveness check after launching the
// browser process.
const startupProbeTimeout = 30 * time.Second

// Manager owns the lifetime of the headless browser process and the one
// shared browsing context all requests draw pages from. It is a
// process-wide singleton: Initialize is called once before traffic is
// accepted and Cleanup once on shutdown.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// allocatorCtx manages the browser process; browserCtx is the shared
	// browsing context all per-request tabs are derived from.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	// sem bounds the number of simultaneously open tabs.
	sem *semaphore.Weighted

	// wg tracks open pages for a graceful shutdown.
	wg sync.WaitGroup

	mu          sync.Mutex
	initialized bool
	startedAt   time.Time
}

// NewManager creates an uninitialized manager. Initialize must be called
// before pages can be issued.
func NewManager(logger *zap.Logger, cfg *config.Config) *Manager {
	return &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.Browser.MaxPages),
	}
}

// Initialize launches the browser process with a deterministic argument
// set, opens the shared browsing context, and verifies the browser is
// responsive. A failure here is fatal for the service: the caller must
// refuse to serve capture and interaction traffic.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return fmt.Errorf("browser session already initialized")
	}

	m.logger.Info("Initializing browser allocator")
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the browser bound to browserCtx. Probe with
	// a bounded timeout so a broken install fails fast.
	probeCtx, cancelProbe := context.WithTimeout(browserCtx, startupProbeTimeout)
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.allocatorCtx = allocCtx
	m.allocatorCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.initialized = true
	m.startedAt = time.Now()

	m.logger.Info("Browser launched and responsive",
		zap.Bool("headless", m.cfg.Browser.Headless),
		zap.Int64("max_pages", m.cfg.Browser.MaxPages))
	return nil
}

// buildAllocatorOptions assembles the fixed launch flags: sandboxing off
// for headless automation stability, automation detection suppressed, and
// the default viewport and user agent applied at the process level.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption

	// Start from the defaults, dropping the flag that advertises
	// automation to the page. Options are opaque funcs, so the default
	// cannot be filtered out of the list; overriding the flag with a
	// false bool makes chromedp omit it from the command line, which is
	// equivalent to removing it.
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("enable-automation", false))

	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
		chromedp.Flag("disable-features", "TranslateUI"),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.UserAgent(m.cfg.Browser.UserAgent),
		chromedp.WindowSize(m.cfg.Browser.ViewportWidth, m.cfg.Browser.ViewportHeight),
	)

	// Flags required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	// Custom arguments from the config file.
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	return opts
}

// NewPage returns an isolated page (tab) from the shared browsing
// context. Pages share cookies and storage scoped to the context but do
// not interfere with each other's navigation state. The call blocks while
// the configured page limit is saturated.
func (m *Manager) NewPage(ctx context.Context) (schemas.Page, error) {
	m.mu.Lock()
	initialized := m.initialized
	browserCtx := m.browserCtx
	m.mu.Unlock()

	if !initialized {
		return nil, fmt.Errorf("browser session not initialized")
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a free page slot: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	m.wg.Add(1)

	page := newPage(tabCtx, tabCancel, m.cfg, m.logger, func() {
		m.sem.Release(1)
		m.wg.Done()
	})
	return page, nil
}

// HealthStatus reports whether the browser connection is alive and how
// long the session has been up.
func (m *Manager) HealthStatus() schemas.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	ready := m.initialized && m.browserCtx.Err() == nil
	if ready {
		if c := chromedp.FromContext(m.browserCtx); c == nil || c.Browser == nil {
			ready = false
		}
	}

	status := schemas.HealthStatus{BrowserReady: ready}
	if m.initialized {
		status.UptimeSeconds = time.Since(m.startedAt).Seconds()
	}
	return status
}

// Cleanup tears the session down in order: shared context, then browser
// process, then allocator. Each step tolerates failure so a partially
// initialized session can still be released; errors are logged, never
// propagated.
func (m *Manager) Cleanup(ctx context.Context) {
	m.mu.Lock()
	browserCancel := m.browserCancel
	allocatorCancel := m.allocatorCancel
	allocatorCtx := m.allocatorCtx
	m.initialized = false
	m.mu.Unlock()

	// Wait for in-flight pages, respecting the caller's deadline.
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Cleanup deadline exceeded waiting for open pages", zap.Error(ctx.Err()))
	}

	if browserCancel != nil {
		browserCancel()
	}
	if allocatorCancel != nil {
		allocatorCancel()
		select {
		case <-allocatorCtx.Done():
			m.logger.Info("Browser process terminated")
		case <-ctx.Done():
			m.logger.Warn("Cleanup deadline exceeded waiting for browser termination", zap.Error(ctx.Err()))
		}
	}
}
