package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

var _ schemas.Interactor = (*Engine)(nil)

// Engine replays a scripted action sequence against one page. Actions
// execute strictly sequentially: later actions depend on the page state
// produced by earlier ones.
type Engine struct {
	pages  schemas.PageOpener
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an interaction engine backed by the given page source.
func New(pages schemas.PageOpener, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		pages:  pages,
		cfg:    cfg,
		logger: logger.Named("interact"),
	}
}

// Interact opens a page, navigates once, and executes each action in
// order, producing exactly one result per input action. A failing action
// is recorded in its result and never aborts the sequence; only a
// navigation failure fails the whole session. The page is always closed.
func (e *Engine) Interact(ctx context.Context, url string, actions []schemas.InteractionAction) ([]schemas.InteractionResult, error) {
	log := e.logger.With(
		zap.String("session_id", uuid.New().String()[:8]),
		zap.String("url", url),
	)

	page, err := e.pages.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Failed to close page", zap.Error(err))
		}
	}()

	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}

	results := make([]schemas.InteractionResult, 0, len(actions))
	for i, action := range actions {
		result := e.execute(ctx, page, action)
		if result.Error != "" {
			log.Warn("Action failed",
				zap.Int("index", i),
				zap.String("action", string(action.Type)),
				zap.String("error", result.Error))
		}
		results = append(results, result)

		// Fixed settle delay after every action, successful or not, so the
		// page has time to render before the next step.
		if err := sleepCtx(ctx, e.cfg.Interaction.ActionDelay); err != nil {
			// The caller has gone away; remaining actions still get results
			// so the count invariant holds.
			for _, remaining := range actions[i+1:] {
				results = append(results, schemas.InteractionResult{
					Action:    remaining.Type,
					Success:   false,
					Error:     "interaction session cancelled",
					Timestamp: time.Now(),
				})
			}
			break
		}
	}

	return results, nil
}

// execute runs one action and converts any failure into the result's
// error field rather than letting it escape.
func (e *Engine) execute(ctx context.Context, page schemas.Page, action schemas.InteractionAction) schemas.InteractionResult {
	result := schemas.InteractionResult{
		Action:    action.Type,
		Timestamp: time.Now(),
	}

	var err error
	switch action.Type {
	case schemas.ActionClick:
		err = e.click(ctx, page, action)
	case schemas.ActionFill:
		err = e.fill(ctx, page, action)
	case schemas.ActionWait:
		err = e.wait(ctx, action)
	case schemas.ActionScroll:
		err = e.scroll(ctx, page, action)
	case schemas.ActionNavigate:
		err = e.navigate(ctx, page, action)
	default:
		err = fmt.Errorf("unknown action type: %s", action.Type)
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}

// click targets a selector with a bounded wait, or absolute coordinates
// when no selector is given.
func (e *Engine) click(ctx context.Context, page schemas.Page, action schemas.InteractionAction) error {
	switch {
	case action.Selector != "":
		actx, cancel := e.actionContext(ctx)
		defer cancel()
		return page.Click(actx, action.Selector)
	case action.Coordinates != nil:
		return page.ClickAt(ctx, float64(action.Coordinates.X), float64(action.Coordinates.Y))
	default:
		return fmt.Errorf("click action requires a selector or coordinates")
	}
}

func (e *Engine) fill(ctx context.Context, page schemas.Page, action schemas.InteractionAction) error {
	if action.Selector == "" || action.Value == "" {
		return fmt.Errorf("fill action requires both a selector and a value")
	}
	actx, cancel := e.actionContext(ctx)
	defer cancel()
	return page.Fill(actx, action.Selector, action.Value)
}

func (e *Engine) wait(ctx context.Context, action schemas.InteractionAction) error {
	duration := e.cfg.Interaction.DefaultWait
	if action.Duration > 0 {
		duration = time.Duration(action.Duration) * time.Millisecond
	}
	return sleepCtx(ctx, duration)
}

// scroll wheel-scrolls to the given coordinates, or simulates a PageDown
// key press when none are given.
func (e *Engine) scroll(ctx context.Context, page schemas.Page, action schemas.InteractionAction) error {
	if action.Coordinates != nil {
		return page.ScrollBy(ctx, float64(action.Coordinates.X), float64(action.Coordinates.Y))
	}
	return page.PressPageDown(ctx)
}

func (e *Engine) navigate(ctx context.Context, page schemas.Page, action schemas.InteractionAction) error {
	if action.URL == "" {
		return fmt.Errorf("navigate action requires a url")
	}
	return page.Navigate(ctx, action.URL)
}

func (e *Engine) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.Interaction.ActionTimeout)
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
