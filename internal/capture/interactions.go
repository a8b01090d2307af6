package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// summarizeInteractions probes the page's interaction capabilities:
// clickable and focusable element counts, scrollability, and the links
// found inside navigation containers. This summary always runs; it is
// cheap and feeds every downstream consumer.
func (o *Orchestrator) summarizeInteractions(ctx context.Context, page schemas.Page, formCount int, log *zap.Logger) schemas.InteractionSummary {
	summary := schemas.InteractionSummary{
		FormCount:       formCount,
		NavigationLinks: []schemas.NavigationLink{},
	}

	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	expr := fmt.Sprintf(`(() => {
		const clickable = document.querySelectorAll('button, a[href], input[type="button"], input[type="submit"], [onclick], [role="button"]');
		const focusable = document.querySelectorAll('input, textarea, select, button, a[href], [tabindex]:not([tabindex="-1"])');
		const doc = document.documentElement;
		const navLinks = Array.from(document.querySelectorAll('nav a[href], header a[href], .nav a[href], .navigation a[href]'))
			.slice(0, %d)
			.map((a) => ({ text: (a.textContent || '').trim(), href: a.getAttribute('href') || '' }))
			.filter((l) => l.text && l.href);
		return {
			clickable_count: clickable.length,
			focusable_count: focusable.length,
			can_scroll: doc.scrollHeight > doc.clientHeight,
			navigation_links: navLinks
		};
	})()`, schemas.MaxNavigationLinks)

	var probe struct {
		ClickableCount  int                      `json:"clickable_count"`
		FocusableCount  int                      `json:"focusable_count"`
		CanScroll       bool                     `json:"can_scroll"`
		NavigationLinks []schemas.NavigationLink `json:"navigation_links"`
	}
	if err := page.Evaluate(sctx, expr, &probe); err != nil {
		log.Warn("Interaction summary failed", zap.Error(err))
		return summary
	}

	summary.ClickableCount = probe.ClickableCount
	summary.FocusableCount = probe.FocusableCount
	summary.CanScroll = probe.CanScroll
	if probe.NavigationLinks != nil {
		summary.NavigationLinks = probe.NavigationLinks
	}
	return summary
}
