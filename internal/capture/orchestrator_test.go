package capture

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
	"github.com/locallook/context-bridge/internal/config"
)

// -- Mock Implementations for Testing --

// mockPage is a scripted stand-in for a live browser tab. Behaviors not
// overridden succeed with zero values.
type mockPage struct {
	mu     sync.Mutex
	closed bool

	navigateErr   error
	navigated     []string
	viewports     []schemas.Viewport
	viewportErr   error
	title         string
	location      string
	html          string
	htmlErr       error
	screenshot    []byte
	screenshotErr error
	console       []string
	consoleOn     bool

	// evaluate lets each test script the JS probe responses, keyed on the
	// expression text.
	evaluate func(expr string, out any) error
}

func (m *mockPage) ID() string { return "mock-page" }

func (m *mockPage) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigated = append(m.navigated, url)
	return m.navigateErr
}

func (m *mockPage) SetViewport(ctx context.Context, width, height int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewports = append(m.viewports, schemas.Viewport{Width: width, Height: height})
	return m.viewportErr
}

func (m *mockPage) Title(ctx context.Context) (string, error)    { return m.title, nil }
func (m *mockPage) Location(ctx context.Context) (string, error) { return m.location, nil }
func (m *mockPage) HTML(ctx context.Context) (string, error)     { return m.html, m.htmlErr }

func (m *mockPage) Screenshot(ctx context.Context) ([]byte, error) {
	return m.screenshot, m.screenshotErr
}

func (m *mockPage) Evaluate(ctx context.Context, expr string, out any) error {
	if m.evaluate != nil {
		return m.evaluate(expr, out)
	}
	return nil
}

func (m *mockPage) Click(ctx context.Context, selector string) error     { return nil }
func (m *mockPage) ClickAt(ctx context.Context, x, y float64) error      { return nil }
func (m *mockPage) Fill(ctx context.Context, selector, val string) error { return nil }
func (m *mockPage) ScrollBy(ctx context.Context, dx, dy float64) error   { return nil }
func (m *mockPage) PressPageDown(ctx context.Context) error              { return nil }

func (m *mockPage) CaptureConsole() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consoleOn = true
}

func (m *mockPage) ConsoleLogs() []string { return m.console }

func (m *mockPage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockOpener hands out a fixed page, or fails.
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

// jsonInto round-trips a scripted value into an Evaluate out parameter.
func jsonInto(t *testing.T, value, out any) {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// fastConfig keeps every test-visible delay negligible.
func fastConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Capture.PostLoadWait = time.Millisecond
	cfg.Capture.ResponsiveSettle = time.Millisecond
	cfg.Interaction.ActionDelay = time.Millisecond
	cfg.Interaction.DefaultWait = time.Millisecond
	return cfg
}

// -- Test Cases --

func TestCapture_NavigationFailureIsFatal(t *testing.T) {
	page := &mockPage{navigateErr: errors.New("dns lookup failed")}
	o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	fc, err := o.Capture(context.Background(), "http://unreachable.test", schemas.DefaultCaptureOptions(), nil)
	require.Error(t, err)
	assert.Nil(t, fc)
	assert.True(t, page.closed, "the page must be released even on failure")
}

func TestCapture_OpenerFailure(t *testing.T) {
	o := New(&mockOpener{err: errors.New("page limit reached")}, fastConfig(), zap.NewNop())

	_, err := o.Capture(context.Background(), "http://example.test", schemas.DefaultCaptureOptions(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquiring page")
}

func TestCapture_FullSnapshot(t *testing.T) {
	page := &mockPage{
		title:      "Demo App",
		location:   "http://app.test/home",
		html:       `<html><body><h1>Demo</h1><form method="post"><input id="q"></form><button>Go</button></body></html>`,
		screenshot: []byte{0x89, 0x50, 0x4e, 0x47},
		console:    []string{"log: booted", "error: asset missing"},
		evaluate: func(expr string, out any) error {
			switch {
			case strings.Contains(expr, "missing_alt_text"):
				jsonInto(t, []schemas.AccessibilityIssue{
					{Type: "missing_alt_text", Severity: "medium", Description: "Image missing alternative text", Element: "img:nth-child(1)"},
					{Type: "missing_form_label", Severity: "high", Description: "Form input missing label", Element: "input#q"},
				}, out)
			case strings.Contains(expr, "getEntriesByType"):
				jsonInto(t, map[string]any{"dom_content_loaded": 12.5, "first_contentful_paint": 101.0}, out)
			case strings.Contains(expr, "clickable_count"):
				jsonInto(t, map[string]any{
					"clickable_count": 3,
					"focusable_count": 5,
					"can_scroll":      true,
					"navigation_links": []map[string]string{
						{"text": "Home", "href": "/"},
					},
				}, out)
			case strings.Contains(expr, "querySelectorAll"):
				jsonInto(t, []map[string]any{{"text": "Go", "visible": true}}, out)
			}
			return nil
		},
	}
	o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	fc, err := o.Capture(context.Background(), "http://app.test", schemas.DefaultCaptureOptions(), nil)
	require.NoError(t, err)
	require.NotNil(t, fc)

	assert.True(t, page.consoleOn, "console capture must be armed before navigation")
	assert.Equal(t, []string{"http://app.test"}, page.navigated)
	assert.Equal(t, "http://app.test/home", fc.URL, "the resolved location wins over the requested URL")
	assert.Equal(t, "Demo App", fc.Title)

	assert.Equal(t, "iVBORw==", fc.Screenshot, "screenshot is base64 encoded")
	assert.NotEmpty(t, fc.Elements)
	require.Len(t, fc.Forms, 1)
	assert.Equal(t, "POST", fc.Forms[0].Method)

	require.NotNil(t, fc.Performance)
	assert.GreaterOrEqual(t, fc.Performance.LoadTime, 0.0)
	require.NotNil(t, fc.Performance.DOMContentLoaded)
	assert.Equal(t, 12.5, *fc.Performance.DOMContentLoaded)

	assert.Len(t, fc.Accessibility.Issues, 2)
	assert.Equal(t, 80, fc.Accessibility.Score)

	assert.Equal(t, 3, fc.Interactions.ClickableCount)
	assert.Equal(t, 1, fc.Interactions.FormCount)
	assert.True(t, fc.Interactions.CanScroll)

	assert.Equal(t, []string{"log: booted", "error: asset missing"}, fc.ConsoleLogs)
	assert.True(t, page.closed)
}

func TestCapture_OptionsGateStages(t *testing.T) {
	page := &mockPage{html: `<html><body><p>hi</p></body></html>`, screenshot: []byte{1}}
	o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	fc, err := o.Capture(context.Background(), "http://app.test", schemas.CaptureOptions{}, nil)
	require.NoError(t, err)

	assert.False(t, page.consoleOn)
	assert.Empty(t, fc.Screenshot)
	assert.Empty(t, fc.Elements)
	assert.Nil(t, fc.Performance)
	assert.Equal(t, 0, fc.Accessibility.Score)
	assert.Empty(t, fc.Responsive.Breakpoints)
	assert.Empty(t, fc.ConsoleLogs)
	// The capability summary is unconditional.
	assert.NotNil(t, fc.Interactions.NavigationLinks)
}

func TestCapture_StageFailuresAreAbsorbed(t *testing.T) {
	page := &mockPage{
		htmlErr:      errors.New("target crashed"),
		screenshotErr: errors.New("no surface"),
		evaluate: func(expr string, out any) error {
			return errors.New("execution context destroyed")
		},
	}
	o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

	fc, err := o.Capture(context.Background(), "http://flaky.test", schemas.DefaultCaptureOptions(), nil)
	require.NoError(t, err, "stage failures must not fail the capture")

	assert.Empty(t, fc.Screenshot)
	assert.Empty(t, fc.Elements)
	require.NotNil(t, fc.Performance, "performance carries the load time even when the probe fails")
	assert.Empty(t, fc.Accessibility.Issues)
	assert.Equal(t, 0, fc.Accessibility.Score)
	assert.NotNil(t, fc.Interactions.NavigationLinks)
}

func TestCapture_ViewportHandling(t *testing.T) {
	t.Run("requested viewport is applied and recorded", func(t *testing.T) {
		page := &mockPage{}
		o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

		fc, err := o.Capture(context.Background(), "http://app.test",
			schemas.CaptureOptions{}, &schemas.Viewport{Width: 414, Height: 896})
		require.NoError(t, err)

		assert.Equal(t, schemas.Viewport{Width: 414, Height: 896}, fc.Viewport)
		require.Len(t, page.viewports, 1)
		assert.Equal(t, 414, page.viewports[0].Width)
	})

	t.Run("default viewport comes from config", func(t *testing.T) {
		cfg := fastConfig()
		page := &mockPage{}
		o := New(&mockOpener{page: page}, cfg, zap.NewNop())

		fc, err := o.Capture(context.Background(), "http://app.test", schemas.CaptureOptions{}, nil)
		require.NoError(t, err)

		assert.Equal(t, cfg.Browser.ViewportWidth, fc.Viewport.Width)
		assert.Empty(t, page.viewports, "no resize without an explicit request")
	})

	t.Run("viewport failure is absorbed", func(t *testing.T) {
		page := &mockPage{viewportErr: errors.New("target detached")}
		o := New(&mockOpener{page: page}, fastConfig(), zap.NewNop())

		_, err := o.Capture(context.Background(), "http://app.test",
			schemas.CaptureOptions{}, &schemas.Viewport{Width: 375, Height: 667})
		assert.NoError(t, err)
	})
}
