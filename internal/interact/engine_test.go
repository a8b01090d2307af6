package interact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

// -- Mock Implementations for Testing --

// recordedCall is one page operation observed by the mock.
type recordedCall struct {
	op       string
	selector string
	value    string
	x, y     float64
	url      string
}

// mockPage records every driver call so tests can assert the exact
// sequence the engine produced.
type mockPage struct {
	mu     sync.Mutex
	calls  []recordedCall
	closed bool

	navigateErr error
	clickErr    error
	fillErr     error
}

func (m *mockPage) record(c recordedCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockPage) ID() string { return "mock-page" }

func (m *mockPage) Navigate(ctx context.Context, url string) error {
	m.record(recordedCall{op: "navigate", url: url})
	return m.navigateErr
}

func (m *mockPage) SetViewport(ctx context.Context, w, h int) error       { return nil }
func (m *mockPage) Title(ctx context.Context) (string, error)             { return "", nil }
func (m *mockPage) Location(ctx context.Context) (string, error)          { return "", nil }
func (m *mockPage) HTML(ctx context.Context) (string, error)              { return "", nil }
func (m *mockPage) Screenshot(ctx context.Context) ([]byte, error)        { return nil, nil }
func (m *mockPage) Evaluate(ctx context.Context, e string, out any) error { return nil }

func (m *mockPage) Click(ctx context.Context, selector string) error {
	m.record(recordedCall{op: "click", selector: selector})
	return m.clickErr
}

func (m *mockPage) ClickAt(ctx context.Context, x, y float64) error {
	m.record(recordedCall{op: "click_at", x: x, y: y})
	return nil
}

func (m *mockPage) Fill(ctx context.Context, selector, value string) error {
	m.record(recordedCall{op: "fill", selector: selector, value: value})
	return m.fillErr
}

func (m *mockPage) ScrollBy(ctx context.Context, dx, dy float64) error {
	m.record(recordedCall{op: "scroll_by", x: dx, y: dy})
	return nil
}

func (m *mockPage) PressPageDown(ctx context.Context) error {
	m.record(recordedCall{op: "page_down"})
	return nil
}

func (m *mockPage) CaptureConsole()       {}
func (m *mockPage) ConsoleLogs() []string { return nil }

func (m *mockPage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type mockOpener struct {
	page *mockPage
	err  error
}

func (m *mockOpener) NewPage(ctx context.Context) (schemas.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

// fastConfig keeps the fixed inter-action delay negligible.
func fastConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Interaction.ActionDelay = time.Millisecond
	cfg.Interaction.DefaultWait = time.Millisecond
	return cfg
}

// -- Test Cases --

func TestInteract_OneResultPerAction(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	actions := []schemas.InteractionAction{
		{Type: schemas.ActionClick, Selector: "#submit"},
		{Type: schemas.ActionFill, Selector: "#email", Value: "a@b.test"},
		{Type: schemas.ActionWait, Duration: 1},
		{Type: schemas.ActionScroll},
		{Type: schemas.ActionNavigate, URL: "http://app.test/next"},
	}

	results, err := e.Interact(context.Background(), "http://app.test", actions)
	require.NoError(t, err)
	require.Len(t, results, len(actions))

	for i, result := range results {
		assert.Equal(t, actions[i].Type, result.Action, "result %d must mirror its action", i)
		assert.True(t, result.Success, "result %d should succeed", i)
		assert.Empty(t, result.Error)
		assert.False(t, result.Timestamp.IsZero())
	}

	require.Len(t, page.calls, 5, "initial navigation plus the four page-touching actions")
	assert.Equal(t, "navigate", page.calls[0].op)
	assert.Equal(t, "http://app.test", page.calls[0].url)
	assert.Equal(t, "click", page.calls[1].op)
	assert.Equal(t, "#submit", page.calls[1].selector)
	assert.Equal(t, "fill", page.calls[2].op)
	assert.Equal(t, "a@b.test", page.calls[2].value)
	assert.Equal(t, "page_down", page.calls[3].op)
	assert.Equal(t, "navigate", page.calls[4].op)
	assert.Equal(t, "http://app.test/next", page.calls[4].url)

	assert.True(t, page.closed)
}

func TestInteract_NavigationFailureIsFatal(t *testing.T) {
	page := &mockPage{navigateErr: errors.New("connection refused")}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://down.test",
		[]schemas.InteractionAction{{Type: schemas.ActionClick, Selector: "#x"}})
	require.Error(t, err)
	assert.Nil(t, results, "no partial results on a failed navigation")
	assert.True(t, page.closed)
}

func TestInteract_ActionFailuresDoNotAbort(t *testing.T) {
	page := &mockPage{clickErr: errors.New("node not visible")}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	actions := []schemas.InteractionAction{
		{Type: schemas.ActionClick, Selector: "#hidden"},
		{Type: schemas.ActionScroll, Coordinates: &schemas.Coordinates{X: 0, Y: 400}},
	}

	results, err := e.Interact(context.Background(), "http://app.test", actions)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "node not visible")
	assert.True(t, results[1].Success, "the sequence continues past a failed action")
}

func TestInteract_ClickVariants(t *testing.T) {
	t.Run("coordinates when no selector", func(t *testing.T) {
		page := &mockPage{}
		e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

		results, err := e.Interact(context.Background(), "http://app.test",
			[]schemas.InteractionAction{{Type: schemas.ActionClick, Coordinates: &schemas.Coordinates{X: 120, Y: 80}}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Success)

		require.Len(t, page.calls, 2)
		assert.Equal(t, "click_at", page.calls[1].op)
		assert.Equal(t, 120.0, page.calls[1].x)
		assert.Equal(t, 80.0, page.calls[1].y)
	})

	t.Run("neither selector nor coordinates fails the action", func(t *testing.T) {
		page := &mockPage{}
		e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

		results, err := e.Interact(context.Background(), "http://app.test",
			[]schemas.InteractionAction{{Type: schemas.ActionClick}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Success)
		assert.Contains(t, results[0].Error, "selector or coordinates")
	})
}

func TestInteract_FillRequiresSelectorAndValue(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://app.test",
		[]schemas.InteractionAction{
			{Type: schemas.ActionFill, Selector: "#email"},
			{Type: schemas.ActionFill, Value: "orphan"},
		})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.False(t, results[1].Success)
	require.Len(t, page.calls, 1, "no fill reaches the page without both fields")
}

func TestInteract_WaitUsesDefaultDuration(t *testing.T) {
	cfg := fastConfig()
	cfg.Interaction.DefaultWait = 30 * time.Millisecond
	page := &mockPage{}
	e := New(&mockOpener{page: page}, cfg, zap.NewNop())

	start := time.Now()
	results, err := e.Interact(context.Background(), "http://app.test",
		[]schemas.InteractionAction{{Type: schemas.ActionWait}})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestInteract_ScrollVariants(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://app.test",
		[]schemas.InteractionAction{
			{Type: schemas.ActionScroll, Coordinates: &schemas.Coordinates{X: 0, Y: 600}},
			{Type: schemas.ActionScroll},
		})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "scroll_by", page.calls[1].op)
	assert.Equal(t, 600.0, page.calls[1].y)
	assert.Equal(t, "page_down", page.calls[2].op)
}

func TestInteract_NavigateActionRequiresURL(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://app.test",
		[]schemas.InteractionAction{{Type: schemas.ActionNavigate}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "requires a url")
}

func TestInteract_UnknownActionType(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://app.test",
		[]schemas.InteractionAction{
			{Type: schemas.ActionType("hover")},
			{Type: schemas.ActionWait, Duration: 1},
		})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unknown action type")
	assert.True(t, results[1].Success, "unknown types do not abort the sequence")
}

func TestInteract_EmptyActionList(t *testing.T) {
	page := &mockPage{}
	e := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	results, err := e.Interact(context.Background(), "http://app.test", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, page.closed)
}

// A caller giving up mid-sequence must still get one result per action
// and must not leave goroutines behind.
func TestInteract_CancellationStillYieldsAllResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := fastConfig()
	cfg.Interaction.ActionDelay = 100 * time.Millisecond
	page := &mockPage{}
	e := New(&mockOpener{page: page}, cfg, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	actions := []schemas.InteractionAction{
		{Type: schemas.ActionClick, Selector: "#a"},
		{Type: schemas.ActionClick, Selector: "#b"},
		{Type: schemas.ActionClick, Selector: "#c"},
	}

	results, err := e.Interact(ctx, "http://app.test", actions)
	require.NoError(t, err)
	require.Len(t, results, len(actions))

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "cancelled")
	assert.False(t, results[2].Success)
	assert.True(t, page.closed)
}

func TestInteract_OpenerFailure(t *testing.T) {
	e := New(&mockOpener{err: errors.New("page limit reached")}, fastConfig(), zap.NewNop())

	_, err := e.Interact(context.Background(), "http://app.test", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquiring page")
}
