package schemas

import "time"

// Collection caps bound the payload size of a capture. Extraction stops
// once a cap is reached; first-found document order wins.
const (
	MaxElements        = 100
	MaxButtons         = 20
	MaxLinks           = 30
	MaxInteractive     = 30
	MaxPerSelector     = 10
	MaxNavigationLinks = 10
	MaxTextLength      = 200
)

// Viewport describes a page viewport in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DOMElement is one structured element record extracted from the rendered
// markup. Immutable once produced.
type DOMElement struct {
	Tag           string            `json:"tag"`
	ID            string            `json:"id,omitempty"`
	Classes       []string          `json:"classes"`
	Text          string            `json:"text,omitempty"`
	Attributes    map[string]string `json:"attributes"`
	ChildrenCount int               `json:"children_count"`
	Selector      string            `json:"selector,omitempty"`
}

// FormElement groups a form's controls with its submission metadata.
// Method is always upper-cased and defaults to "GET".
type FormElement struct {
	Action        string       `json:"action,omitempty"`
	Method        string       `json:"method"`
	Inputs        []DOMElement `json:"inputs"`
	SubmitButtons []DOMElement `json:"submit_buttons"`
}

// InteractiveElement is the result of a live-page probe, recording runtime
// visibility rather than static markup state.
type InteractiveElement struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Selector  string `json:"selector"`
	Clickable bool   `json:"clickable"`
	Focusable bool   `json:"focusable"`
	Visible   bool   `json:"visible"`
}

// PerformanceMetrics combines wall-clock navigation duration with the
// browser's own navigation/paint timing entries. LoadTime is always
// present; the timing deltas are optional.
type PerformanceMetrics struct {
	LoadTime             float64  `json:"load_time"`
	FirstContentfulPaint *float64 `json:"first_contentful_paint,omitempty"`
	DOMContentLoaded     *float64 `json:"dom_content_loaded,omitempty"`
	Errors               []string `json:"errors"`
	Warnings             []string `json:"warnings"`
}

// AccessibilityIssue is one finding from the accessibility audit.
type AccessibilityIssue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Element     string `json:"element"`
}

// AccessibilityResult carries the audit's issues plus the derived score.
type AccessibilityResult struct {
	Issues []AccessibilityIssue `json:"issues"`
	Score  int                  `json:"score"`
}

// Breakpoint records the overflow posture of the page at one named
// viewport size.
type Breakpoint struct {
	Name                string `json:"name"`
	Width               int    `json:"width"`
	Height              int    `json:"height"`
	HasHorizontalScroll bool   `json:"has_horizontal_scroll"`
}

// ResponsiveIssue flags a regression observed at a breakpoint.
type ResponsiveIssue struct {
	Breakpoint  string `json:"breakpoint"`
	Issue       string `json:"issue"`
	Description string `json:"description"`
}

// ResponsiveResult aggregates the breakpoint sweep.
type ResponsiveResult struct {
	Breakpoints []Breakpoint      `json:"breakpoints"`
	Issues      []ResponsiveIssue `json:"issues"`
}

// NavigationLink is one link discovered inside a navigation container.
type NavigationLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// InteractionSummary is the always-on capability summary of a page.
type InteractionSummary struct {
	ClickableCount  int              `json:"clickable_count"`
	FocusableCount  int              `json:"focusable_count"`
	FormCount       int              `json:"form_count"`
	NavigationLinks []NavigationLink `json:"navigation_links"`
	CanScroll       bool             `json:"can_scroll"`
}

// FrontendContext is the aggregate snapshot of one capture. It is
// well-formed even when every optional sub-analysis failed: disabled or
// failed stages leave their fields at the empty defaults below, never at
// null.
type FrontendContext struct {
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Viewport  Viewport  `json:"viewport"`

	Screenshot string `json:"screenshot,omitempty"`

	Elements    []DOMElement         `json:"elements"`
	Forms       []FormElement        `json:"forms"`
	Buttons     []DOMElement         `json:"buttons"`
	Links       []DOMElement         `json:"links"`
	Inputs      []DOMElement         `json:"inputs"`
	Interactive []InteractiveElement `json:"interactive"`

	Interactions InteractionSummary `json:"interactions"`

	Performance   *PerformanceMetrics `json:"performance,omitempty"`
	Accessibility AccessibilityResult `json:"accessibility"`
	Responsive    ResponsiveResult    `json:"responsive"`

	ConsoleLogs []string `json:"console_logs"`
}

// NewFrontendContext returns a context with every collection initialized
// to an empty, non-nil value so that absent analyses serialize as empty
// lists rather than null.
func NewFrontendContext() *FrontendContext {
	return &FrontendContext{
		Timestamp:   time.Now(),
		Elements:    []DOMElement{},
		Forms:       []FormElement{},
		Buttons:     []DOMElement{},
		Links:       []DOMElement{},
		Inputs:      []DOMElement{},
		Interactive: []InteractiveElement{},
		Interactions: InteractionSummary{
			NavigationLinks: []NavigationLink{},
		},
		Accessibility: AccessibilityResult{Issues: []AccessibilityIssue{}},
		Responsive: ResponsiveResult{
			Breakpoints: []Breakpoint{},
			Issues:      []ResponsiveIssue{},
		},
		ConsoleLogs: []string{},
	}
}

// CaptureOptions toggles the individually priced stages of a capture.
type CaptureOptions struct {
	Screenshot    bool `json:"screenshot"`
	DOMAnalysis   bool `json:"dom_analysis"`
	Performance   bool `json:"performance"`
	Accessibility bool `json:"accessibility"`
	Responsive    bool `json:"responsive"`
	ConsoleLogs   bool `json:"console_logs"`
}

// DefaultCaptureOptions enables everything except the responsive sweep,
// which resizes the viewport three times and is comparatively expensive.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		Screenshot:    true,
		DOMAnalysis:   true,
		Performance:   true,
		Accessibility: true,
		Responsive:    false,
		ConsoleLogs:   true,
	}
}
