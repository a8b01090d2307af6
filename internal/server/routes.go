package server

import (
	restful "github.com/emicklei/go-restful/v3"

	"github.com/locallook/context-bridge/api/schemas"
)

// registerRoutes wires every endpoint onto the web service.
func (s *Server) registerRoutes(ws *restful.WebService) {
	ws.Route(ws.GET("/").To(s.handleRoot).
		Doc("service identity and endpoint listing").
		Returns(200, "OK", nil))

	ws.Route(ws.GET("/health").To(s.handleHealth).
		Doc("service and browser liveness").
		Returns(200, "OK", schemas.HealthResponse{}))

	ws.Route(ws.POST("/capture").To(s.handleCapture).
		Doc("capture a full frontend context snapshot of a page").
		Reads(schemas.CaptureRequest{}).
		Returns(200, "OK", schemas.FrontendContext{}).
		Returns(400, "Bad Request", nil).
		Returns(500, "Internal Server Error", nil).
		Returns(503, "Service Unavailable", nil))

	ws.Route(ws.POST("/interact").To(s.handleInteract).
		Doc("replay an action sequence against a page").
		Reads(schemas.InteractRequest{}).
		Returns(200, "OK", schemas.InteractResponse{}).
		Returns(400, "Bad Request", nil).
		Returns(500, "Internal Server Error", nil).
		Returns(503, "Service Unavailable", nil))

	ws.Route(ws.POST("/quick-analyze").To(s.handleQuickAnalyze).
		Doc("capture with a focus preset and return a condensed summary").
		Reads(schemas.QuickAnalyzeRequest{}).
		Returns(200, "OK", schemas.QuickAnalyzeResponse{}).
		Returns(400, "Bad Request", nil).
		Returns(500, "Internal Server Error", nil).
		Returns(503, "Service Unavailable", nil))
}
