package capture

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// performanceTimingJS reads the browser's navigation and paint entries.
// Both deltas are nullable: not every document exposes them.
const performanceTimingJS = `(() => {
	const nav = performance.getEntriesByType('navigation')[0];
	const paint = performance.getEntriesByType('paint');
	const fcp = paint.find((p) => p.name === 'first-contentful-paint');
	return {
		dom_content_loaded: nav ? nav.domContentLoadedEventEnd - nav.domContentLoadedEventStart : null,
		first_contentful_paint: fcp ? fcp.startTime : null
	};
})()`

// probePerformance combines the externally measured wall-clock load
// duration with the page's own timing entries. A data-retrieval failure
// yields a metrics record with only the load time populated, never a
// missing object.
func (o *Orchestrator) probePerformance(ctx context.Context, page schemas.Page, loadTime time.Duration, log *zap.Logger) *schemas.PerformanceMetrics {
	metrics := &schemas.PerformanceMetrics{
		LoadTime: loadTime.Seconds(),
		Errors:   []string{},
		Warnings: []string{},
	}

	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	var timing struct {
		DOMContentLoaded     *float64 `json:"dom_content_loaded"`
		FirstContentfulPaint *float64 `json:"first_contentful_paint"`
	}
	if err := page.Evaluate(sctx, performanceTimingJS, &timing); err != nil {
		log.Warn("Performance probe failed", zap.Error(err))
		return metrics
	}

	metrics.DOMContentLoaded = timing.DOMContentLoaded
	metrics.FirstContentfulPaint = timing.FirstContentfulPaint
	return metrics
}
