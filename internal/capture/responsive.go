package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// breakpointSpec is one named viewport size in the responsive sweep.
type breakpointSpec struct {
	name   string
	width  int
	height int
}

// breakpoints is the fixed ordered list the sweep iterates.
var breakpoints = []breakpointSpec{
	{name: "mobile", width: 375, height: 667},
	{name: "tablet", width: 768, height: 1024},
	{name: "desktop", width: 1280, height: 720},
}

const horizontalOverflowJS = `document.documentElement.scrollWidth > document.documentElement.clientWidth`

// testResponsive resizes the viewport across the fixed breakpoints,
// waiting for reflow before checking for horizontal overflow. A failure
// mid-sweep keeps whatever breakpoints completed; partial results are
// expected.
func (o *Orchestrator) testResponsive(ctx context.Context, page schemas.Page, log *zap.Logger) schemas.ResponsiveResult {
	result := schemas.ResponsiveResult{
		Breakpoints: []schemas.Breakpoint{},
		Issues:      []schemas.ResponsiveIssue{},
	}

	for _, bp := range breakpoints {
		if err := page.SetViewport(ctx, bp.width, bp.height); err != nil {
			log.Warn("Responsive sweep aborted: viewport resize failed",
				zap.String("breakpoint", bp.name), zap.Error(err))
			break
		}
		if err := sleepCtx(ctx, o.cfg.Capture.ResponsiveSettle); err != nil {
			break
		}

		var overflow bool
		if err := page.Evaluate(ctx, horizontalOverflowJS, &overflow); err != nil {
			log.Warn("Responsive sweep aborted: overflow check failed",
				zap.String("breakpoint", bp.name), zap.Error(err))
			break
		}

		result.Breakpoints = append(result.Breakpoints, schemas.Breakpoint{
			Name:                bp.name,
			Width:               bp.width,
			Height:              bp.height,
			HasHorizontalScroll: overflow,
		})
		if overflow {
			result.Issues = append(result.Issues, schemas.ResponsiveIssue{
				Breakpoint:  bp.name,
				Issue:       "horizontal_overflow",
				Description: fmt.Sprintf("Page has horizontal overflow at %s viewport", bp.name),
			})
		}
	}

	return result
}
