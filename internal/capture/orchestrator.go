package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

var _ schemas.Capturer = (*Orchestrator)(nil)

// Orchestrator composes the analysis stages into one aggregate snapshot
// per request. It holds no per-request state; the page issued by the
// session manager is the unit of isolation.
type Orchestrator struct {
	pages  schemas.PageOpener
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a capture orchestrator backed by the given page source.
func New(pages schemas.PageOpener, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		pages:  pages,
		cfg:    cfg,
		logger: logger.Named("capture"),
	}
}

// Capture navigates a fresh page to the URL and runs the enabled analysis
// stages in a fixed order: screenshot, DOM, performance, accessibility,
// responsive, then the always-on interaction summary. Only a navigation
// failure fails the whole capture; each stage's failure is absorbed and
// leaves its field at the empty default. The page is always closed.
func (o *Orchestrator) Capture(ctx context.Context, url string, opts schemas.CaptureOptions, viewport *schemas.Viewport) (*schemas.FrontendContext, error) {
	log := o.logger.With(
		zap.String("capture_id", uuid.New().String()[:8]),
		zap.String("url", url),
	)

	page, err := o.pages.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Failed to close page", zap.Error(err))
		}
	}()

	if viewport != nil {
		if err := page.SetViewport(ctx, viewport.Width, viewport.Height); err != nil {
			log.Warn("Failed to apply requested viewport", zap.Error(err))
		}
	}

	// The listener must be attached before navigation so early messages
	// are not lost.
	if opts.ConsoleLogs {
		page.CaptureConsole()
	}

	start := time.Now()
	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	fc := schemas.NewFrontendContext()
	fc.URL = url
	fc.Viewport = o.resolvedViewport(viewport)
	o.collectPageInfo(ctx, page, fc, log)

	if opts.Screenshot {
		o.captureScreenshot(ctx, page, fc, log)
	}
	if opts.DOMAnalysis {
		o.analyzeDOM(ctx, page, fc, log)
	}
	if opts.Performance {
		fc.Performance = o.probePerformance(ctx, page, loadTime, log)
	}
	if opts.Accessibility {
		fc.Accessibility = o.auditAccessibility(ctx, page, log)
	}
	if opts.Responsive {
		fc.Responsive = o.testResponsive(ctx, page, log)
	}

	// Cheap and always useful, independent of the option set.
	fc.Interactions = o.summarizeInteractions(ctx, page, len(fc.Forms), log)

	if opts.ConsoleLogs {
		fc.ConsoleLogs = page.ConsoleLogs()
	}

	log.Info("Capture complete",
		zap.Int("elements", len(fc.Elements)),
		zap.Int("forms", len(fc.Forms)),
		zap.Int("buttons", len(fc.Buttons)),
		zap.Duration("load_time", loadTime),
	)
	return fc, nil
}

// collectPageInfo fills in the resolved URL and title. Failures here are
// absorbed: navigation already succeeded, so the snapshot is still valid.
func (o *Orchestrator) collectPageInfo(ctx context.Context, page schemas.Page, fc *schemas.FrontendContext, log *zap.Logger) {
	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	if location, err := page.Location(sctx); err == nil && location != "" {
		fc.URL = location
	} else if err != nil {
		log.Warn("Could not resolve page location", zap.Error(err))
	}
	if title, err := page.Title(sctx); err == nil {
		fc.Title = title
	} else {
		log.Warn("Could not read page title", zap.Error(err))
	}
}

func (o *Orchestrator) captureScreenshot(ctx context.Context, page schemas.Page, fc *schemas.FrontendContext, log *zap.Logger) {
	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	shot, err := page.Screenshot(sctx)
	if err != nil {
		log.Warn("Screenshot capture failed", zap.Error(err))
		return
	}
	fc.Screenshot = base64.StdEncoding.EncodeToString(shot)
}

func (o *Orchestrator) resolvedViewport(requested *schemas.Viewport) schemas.Viewport {
	if requested != nil {
		return *requested
	}
	return schemas.Viewport{
		Width:  o.cfg.Browser.ViewportWidth,
		Height: o.cfg.Browser.ViewportHeight,
	}
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.Capture.StageTimeout)
}

// sleepCtx pauses for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
