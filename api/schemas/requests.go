package schemas

import "time"

// CaptureRequest is the wire payload for POST /capture. Options and
// Viewport are optional; nil Options means DefaultCaptureOptions.
type CaptureRequest struct {
	URL      string          `json:"url"`
	Options  *CaptureOptions `json:"options,omitempty"`
	Viewport *Viewport       `json:"viewport,omitempty"`
}

// InteractRequest is the wire payload for POST /interact. CaptureAfter
// defaults to true when omitted.
type InteractRequest struct {
	URL          string              `json:"url"`
	Actions      []InteractionAction `json:"actions"`
	CaptureAfter *bool               `json:"capture_after,omitempty"`
}

// InteractResponse wraps the per-action results plus the optional
// follow-up snapshot taken after the session completed.
type InteractResponse struct {
	Success               bool                `json:"success"`
	InteractionsPerformed int                 `json:"interactions_performed"`
	Results               []InteractionResult `json:"results"`
	UpdatedContext        *FrontendContext    `json:"updated_context,omitempty"`
}

// QuickAnalyzeRequest selects a focus area for a reduced-cost capture.
type QuickAnalyzeRequest struct {
	URL   string `json:"url"`
	Focus string `json:"focus,omitempty"`
}

// QuickAnalyzeSummary condenses a capture into headline numbers.
type QuickAnalyzeSummary struct {
	URL                 string    `json:"url"`
	Title               string    `json:"title"`
	ElementsFound       int       `json:"elements_found"`
	InteractiveElements int       `json:"interactive_elements"`
	Forms               int       `json:"forms"`
	Buttons             int       `json:"buttons"`
	Links               int       `json:"links"`
	ConsoleErrors       int       `json:"console_errors"`
	HasScreenshot       bool      `json:"has_screenshot"`
	AnalysisFocus       string    `json:"analysis_focus"`
	Timestamp           time.Time `json:"timestamp"`

	AccessibilityScore  *int     `json:"accessibility_score,omitempty"`
	AccessibilityIssues *int     `json:"accessibility_issues,omitempty"`
	LoadTime            *float64 `json:"load_time,omitempty"`
	PerformanceErrors   *int     `json:"performance_errors,omitempty"`
}

// QuickAnalyzeResponse pairs the summary with the full snapshot.
type QuickAnalyzeResponse struct {
	Summary     QuickAnalyzeSummary `json:"summary"`
	FullContext *FrontendContext    `json:"full_context"`
}

// HealthResponse reports service and browser liveness.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	BrowserReady  bool      `json:"browser_ready"`
	Version       string    `json:"version"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// HealthStatus is the session manager's view of browser liveness.
type HealthStatus struct {
	BrowserReady  bool    `json:"browser_ready"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
