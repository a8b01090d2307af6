package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrontendContext(t *testing.T) {
	fc := NewFrontendContext()

	assert.NotNil(t, fc.Elements)
	assert.NotNil(t, fc.Forms)
	assert.NotNil(t, fc.Buttons)
	assert.NotNil(t, fc.Links)
	assert.NotNil(t, fc.Inputs)
	assert.NotNil(t, fc.Interactive)
	assert.NotNil(t, fc.Interactions.NavigationLinks)
	assert.NotNil(t, fc.Accessibility.Issues)
	assert.NotNil(t, fc.Responsive.Breakpoints)
	assert.NotNil(t, fc.Responsive.Issues)
	assert.NotNil(t, fc.ConsoleLogs)
	assert.False(t, fc.Timestamp.IsZero())
}

// Empty collections must serialize as [] rather than null so consumers
// never have to null-check list fields.
func TestFrontendContextSerializesEmptyCollections(t *testing.T) {
	fc := NewFrontendContext()

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, field := range []string{"elements", "forms", "buttons", "links", "inputs", "interactive", "console_logs"} {
		value, ok := decoded[field]
		require.True(t, ok, "field %q should be present", field)
		assert.IsType(t, []any{}, value, "field %q should serialize as a list", field)
	}

	// A disabled performance probe leaves the field out entirely.
	_, ok := decoded["performance"]
	assert.False(t, ok)
}

func TestDefaultCaptureOptions(t *testing.T) {
	opts := DefaultCaptureOptions()

	assert.True(t, opts.Screenshot)
	assert.True(t, opts.DOMAnalysis)
	assert.True(t, opts.Performance)
	assert.True(t, opts.Accessibility)
	assert.True(t, opts.ConsoleLogs)
	assert.False(t, opts.Responsive, "the responsive sweep is opt-in")
}

func TestInteractionResultSerialization(t *testing.T) {
	result := InteractionResult{
		Action:  ActionClick,
		Success: true,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"click"`)
	assert.Contains(t, string(data), `"success":true`)
}
