package server

import (
	"net/http"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// errorBody is the uniform error envelope for non-2xx responses.
type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) writeError(resp *restful.Response, status int, detail string) {
	if err := resp.WriteHeaderAndJson(status, errorBody{Detail: detail}, restful.MIME_JSON); err != nil {
		s.logger.Warn("Failed to write error response", zap.Error(err))
	}
}

func (s *Server) writeJSON(resp *restful.Response, body any) {
	if err := resp.WriteHeaderAndJson(http.StatusOK, body, restful.MIME_JSON); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// browserReady gates the capture endpoints on session-manager liveness.
func (s *Server) browserReady(resp *restful.Response) bool {
	if !s.health.HealthStatus().BrowserReady {
		s.writeError(resp, http.StatusServiceUnavailable, "browser session not ready")
		return false
	}
	return true
}

// handleRoot serves the service identity document.
func (s *Server) handleRoot(req *restful.Request, resp *restful.Response) {
	s.writeJSON(resp, map[string]any{
		"service":        "LocalLook Context Bridge",
		"version":        s.version,
		"description":    "Provides rich frontend context and browser automation",
		"status":         "running",
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"endpoints": map[string]string{
			"capture":       "POST /capture - Capture frontend context",
			"interact":      "POST /interact - Perform browser interactions",
			"quick-analyze": "POST /quick-analyze - Fast focused analysis",
			"health":        "GET /health - Health check",
		},
	})
}

// handleHealth reports liveness. A dead browser degrades the status but
// still answers 200; the service itself is up.
func (s *Server) handleHealth(req *restful.Request, resp *restful.Response) {
	health := s.health.HealthStatus()
	status := "healthy"
	if !health.BrowserReady {
		status = "degraded"
	}
	s.writeJSON(resp, schemas.HealthResponse{
		Status:        status,
		Timestamp:     time.Now(),
		BrowserReady:  health.BrowserReady,
		Version:       s.version,
		UptimeSeconds: health.UptimeSeconds,
	})
}

// handleCapture runs a full capture and returns the snapshot.
func (s *Server) handleCapture(req *restful.Request, resp *restful.Response) {
	var body schemas.CaptureRequest
	if err := req.ReadEntity(&body); err != nil {
		s.writeError(resp, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if body.URL == "" {
		s.writeError(resp, http.StatusBadRequest, "url is required")
		return
	}
	if !s.browserReady(resp) {
		return
	}

	opts := schemas.DefaultCaptureOptions()
	if body.Options != nil {
		opts = *body.Options
	}

	fc, err := s.capturer.Capture(req.Request.Context(), body.URL, opts, body.Viewport)
	if err != nil {
		s.logger.Error("Capture failed", zap.String("url", body.URL), zap.Error(err))
		s.writeError(resp, http.StatusInternalServerError, "capture failed: "+err.Error())
		return
	}
	s.writeJSON(resp, fc)
}

// handleInteract replays an action sequence, then by default recaptures
// a lightweight snapshot so the caller sees the page state the actions
// produced.
func (s *Server) handleInteract(req *restful.Request, resp *restful.Response) {
	var body schemas.InteractRequest
	if err := req.ReadEntity(&body); err != nil {
		s.writeError(resp, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if body.URL == "" {
		s.writeError(resp, http.StatusBadRequest, "url is required")
		return
	}
	if !s.browserReady(resp) {
		return
	}

	results, err := s.interactor.Interact(req.Request.Context(), body.URL, body.Actions)
	if err != nil {
		s.logger.Error("Interaction session failed", zap.String("url", body.URL), zap.Error(err))
		s.writeError(resp, http.StatusInternalServerError, "interaction failed: "+err.Error())
		return
	}

	response := schemas.InteractResponse{
		Success:               true,
		InteractionsPerformed: len(results),
		Results:               results,
	}

	captureAfter := body.CaptureAfter == nil || *body.CaptureAfter
	if captureAfter {
		// Skip the heavy analyses on the follow-up snapshot.
		opts := schemas.CaptureOptions{
			Screenshot:  true,
			DOMAnalysis: true,
			ConsoleLogs: true,
		}
		fc, err := s.capturer.Capture(req.Request.Context(), body.URL, opts, nil)
		if err != nil {
			s.logger.Error("Post-interaction capture failed", zap.String("url", body.URL), zap.Error(err))
			s.writeError(resp, http.StatusInternalServerError, "interaction failed: "+err.Error())
			return
		}
		response.UpdatedContext = fc
	}

	s.writeJSON(resp, response)
}

// handleQuickAnalyze runs a reduced capture where only the stage named by
// the focus preset is enabled, then condenses the snapshot into headline
// numbers.
func (s *Server) handleQuickAnalyze(req *restful.Request, resp *restful.Response) {
	var body schemas.QuickAnalyzeRequest
	if err := req.ReadEntity(&body); err != nil {
		s.writeError(resp, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if body.URL == "" {
		s.writeError(resp, http.StatusBadRequest, "url is required")
		return
	}
	if !s.browserReady(resp) {
		return
	}

	focus := body.Focus
	if focus == "" {
		focus = "general"
	}

	opts := schemas.CaptureOptions{
		Screenshot:    true,
		DOMAnalysis:   true,
		ConsoleLogs:   true,
		Performance:   focus == "performance",
		Accessibility: focus == "accessibility",
		Responsive:    focus == "responsive",
	}

	fc, err := s.capturer.Capture(req.Request.Context(), body.URL, opts, nil)
	if err != nil {
		s.logger.Error("Quick analysis failed", zap.String("url", body.URL), zap.Error(err))
		s.writeError(resp, http.StatusInternalServerError, "quick analysis failed: "+err.Error())
		return
	}

	s.writeJSON(resp, schemas.QuickAnalyzeResponse{
		Summary:     summarizeContext(fc, focus),
		FullContext: fc,
	})
}

// summarizeContext condenses a snapshot into the quick-analyze headline
// numbers, surfacing the focused stage's results when present.
func summarizeContext(fc *schemas.FrontendContext, focus string) schemas.QuickAnalyzeSummary {
	summary := schemas.QuickAnalyzeSummary{
		URL:                 fc.URL,
		Title:               fc.Title,
		ElementsFound:       len(fc.Elements),
		InteractiveElements: len(fc.Interactive),
		Forms:               len(fc.Forms),
		Buttons:             len(fc.Buttons),
		Links:               len(fc.Links),
		ConsoleErrors:       countConsoleErrors(fc.ConsoleLogs),
		HasScreenshot:       fc.Screenshot != "",
		AnalysisFocus:       focus,
		Timestamp:           fc.Timestamp,
	}

	if focus == "accessibility" {
		score := fc.Accessibility.Score
		issues := len(fc.Accessibility.Issues)
		summary.AccessibilityScore = &score
		summary.AccessibilityIssues = &issues
	}
	if focus == "performance" && fc.Performance != nil {
		loadTime := fc.Performance.LoadTime
		perfErrors := len(fc.Performance.Errors)
		summary.LoadTime = &loadTime
		summary.PerformanceErrors = &perfErrors
	}
	return summary
}

func countConsoleErrors(logs []string) int {
	count := 0
	for _, line := range logs {
		if strings.Contains(strings.ToLower(line), "error") {
			count++
		}
	}
	return count
}
