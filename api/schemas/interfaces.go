package schemas

import "context"

// Page is one isolated browser tab issued by the session manager. Pages
// are the unit of request isolation: each capture or interaction session
// drives exactly one Page and must Close it on every exit path.
type Page interface {
	// ID returns the unique identifier of this page, used in logs.
	ID() string
	// Navigate loads a URL and waits for the document to settle. The
	// bounded navigation timeout is applied internally.
	Navigate(ctx context.Context, url string) error
	// SetViewport resizes the page's viewport.
	SetViewport(ctx context.Context, width, height int) error
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// Location returns the resolved URL after redirects.
	Location(ctx context.Context) (string, error)
	// HTML returns the rendered document's outer HTML.
	HTML(ctx context.Context) (string, error)
	// Screenshot captures a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Evaluate runs a JavaScript expression against the live document and
	// unmarshals the result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// Click waits for the selector to become visible and clicks it.
	Click(ctx context.Context, selector string) error
	// ClickAt clicks at absolute page coordinates.
	ClickAt(ctx context.Context, x, y float64) error
	// Fill sets the value of the form field matching the selector.
	Fill(ctx context.Context, selector, value string) error
	// ScrollBy dispatches a mouse-wheel scroll with the given deltas.
	ScrollBy(ctx context.Context, deltaX, deltaY float64) error
	// PressPageDown simulates a PageDown key press.
	PressPageDown(ctx context.Context) error
	// CaptureConsole starts recording console messages. Must be called
	// before navigation so early messages are not lost.
	CaptureConsole()
	// ConsoleLogs returns a snapshot of recorded console messages.
	ConsoleLogs() []string
	// Close releases the tab. Idempotent and safe on every exit path.
	Close() error
}

// PageOpener issues isolated pages from the shared browsing context.
type PageOpener interface {
	NewPage(ctx context.Context) (Page, error)
}

// Capturer produces aggregate snapshots of a live page.
type Capturer interface {
	Capture(ctx context.Context, url string, opts CaptureOptions, viewport *Viewport) (*FrontendContext, error)
}

// Interactor replays a scripted action sequence against a page.
type Interactor interface {
	Interact(ctx context.Context, url string, actions []InteractionAction) ([]InteractionResult, error)
}

// HealthReporter surfaces browser-session liveness to the service layer.
type HealthReporter interface {
	HealthStatus() HealthStatus
}
