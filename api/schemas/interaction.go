package schemas

import "time"

// ActionType enumerates the supported interaction action variants.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionFill     ActionType = "fill"
	ActionWait     ActionType = "wait"
	ActionScroll   ActionType = "scroll"
	ActionNavigate ActionType = "navigate"
)

// Coordinates is an absolute page position, used by click and scroll
// actions that do not target a selector.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InteractionAction is one step of a scripted interaction session. The
// fields that apply depend on Type: click uses Selector or Coordinates,
// fill uses Selector and Value, wait uses Duration (milliseconds),
// scroll uses Coordinates, navigate uses URL.
type InteractionAction struct {
	Type        ActionType   `json:"type"`
	Selector    string       `json:"selector,omitempty"`
	Value       string       `json:"value,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Duration    int          `json:"duration,omitempty"`
	URL         string       `json:"url,omitempty"`
}

// InteractionResult is the per-action outcome. The i-th result always
// corresponds to the i-th requested action; the engine never reorders or
// drops actions.
type InteractionResult struct {
	Action     ActionType     `json:"action"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	ResultData map[string]any `json:"result_data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
