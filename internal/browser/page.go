package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

var _ schemas.Page = (*Page)(nil)

// closeGraceTimeout bounds how long Close waits for the tab to go away.
const closeGraceTimeout = 10 * time.Second

// Page is one isolated browser tab derived from the shared browsing
// context. All driver calls honor the caller's context deadline on top of
// the tab's own lifetime.
type Page struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	release func()

	mu     sync.Mutex
	closed bool

	consoleMu sync.Mutex
	console   []string
}

func newPage(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger, release func()) *Page {
	id := uuid.New().String()
	return &Page{
		id:      id,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger.Named("page").With(zap.String("page_id", id[:8])),
		release: release,
		console: []string{},
	}
}

// ID returns the unique identifier of this page.
func (p *Page) ID() string { return p.id }

// run executes driver actions against the tab while honoring the caller's
// deadline and cancellation.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("page %s is closed", p.id[:8])
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL and waits for the document to settle. The
// configured navigation timeout bounds the whole operation.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.Capture.NavigationTimeout)
	defer cancel()

	p.logger.Debug("Navigating", zap.String("url", url))
	err := p.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Allow async requests to settle before the page is analyzed.
		chromedp.Sleep(p.cfg.Capture.PostLoadWait),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// SetViewport resizes the page's viewport via device metrics emulation.
func (p *Page) SetViewport(ctx context.Context, width, height int) error {
	return p.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// Title returns the document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, chromedp.Title(&title))
	return title, err
}

// Location returns the resolved URL after redirects.
func (p *Page) Location(ctx context.Context) (string, error) {
	var location string
	err := p.run(ctx, chromedp.Location(&location))
	return location, err
}

// HTML returns the rendered document's outer HTML.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Screenshot captures the full page.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.FullScreenshot(&buf, p.cfg.Capture.ScreenshotQuality))
	return buf, err
}

// Evaluate runs a JavaScript expression against the live document and
// unmarshals the result into out.
func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	return p.run(ctx, chromedp.Evaluate(expression, out))
}

// Click waits for the selector to become visible and clicks it.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// ClickAt clicks at absolute page coordinates.
func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	return p.run(ctx, chromedp.MouseClickXY(x, y))
}

// Fill sets the value of the form field matching the selector.
func (p *Page) Fill(ctx context.Context, selector, value string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

// ScrollBy dispatches a mouse-wheel scroll with the given deltas.
func (p *Page) ScrollBy(ctx context.Context, deltaX, deltaY float64) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, 10, 10).
			WithDeltaX(deltaX).
			WithDeltaY(deltaY).
			Do(ctx)
	}))
}

// PressPageDown simulates a PageDown key press.
func (p *Page) PressPageDown(ctx context.Context) error {
	return p.run(ctx, chromedp.KeyEvent(kb.PageDown))
}

// CaptureConsole starts recording console messages. Attach before
// navigation so no early messages are lost.
func (p *Page) CaptureConsole() {
	chromedp.ListenTarget(p.ctx, func(ev any) {
		if e, ok := ev.(*cdpruntime.EventConsoleAPICalled); ok {
			line := string(e.Type) + ":"
			for _, arg := range e.Args {
				line += " " + formatRemoteObject(arg)
			}
			p.consoleMu.Lock()
			p.console = append(p.console, line)
			p.consoleMu.Unlock()
		}
	})
}

// ConsoleLogs returns a snapshot of recorded console messages.
func (p *Page) ConsoleLogs() []string {
	p.consoleMu.Lock()
	defer p.consoleMu.Unlock()
	logs := make([]string, len(p.console))
	copy(logs, p.console)
	return logs
}

// Close releases the tab and its page slot. Idempotent; errors during
// teardown are logged, never returned, since cleanup is best-effort.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	select {
	case <-p.ctx.Done():
		p.logger.Debug("Page closed")
	case <-time.After(closeGraceTimeout):
		p.logger.Warn("Timed out waiting for page to close")
	}

	p.release()
	return nil
}

// formatRemoteObject renders one console argument the way the browser's
// console would: unquoted strings, raw JSON for everything else.
func formatRemoteObject(obj *cdpruntime.RemoteObject) string {
	if obj == nil {
		return ""
	}
	if obj.Value != nil {
		raw := string(obj.Value)
		if unquoted, err := strconv.Unquote(raw); err == nil {
			return unquoted
		}
		return raw
	}
	return obj.Description
}
