package capture

import (
	"context"

	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// scorePenalty is deducted from 100 per accessibility issue, floored at 0.
const scorePenalty = 10

// accessibilityAuditJS runs the three rule checks against the rendered
// document so dynamically injected content is included: images without
// alternative text, form controls without labels, and heading level
// skips tracked in strict document order.
const accessibilityAuditJS = `(() => {
	const issues = [];

	document.querySelectorAll('img').forEach((img, index) => {
		if (!img.alt && !img.getAttribute('aria-label')) {
			issues.push({
				type: 'missing_alt_text',
				severity: 'medium',
				description: 'Image missing alternative text',
				element: 'img:nth-child(' + (index + 1) + ')'
			});
		}
	});

	document.querySelectorAll('input, textarea, select').forEach((input, index) => {
		const id = input.id;
		const hasLabel = id && document.querySelector('label[for="' + id + '"]');
		const hasAriaLabel = input.getAttribute('aria-label');
		if (!hasLabel && !hasAriaLabel) {
			issues.push({
				type: 'missing_form_label',
				severity: 'high',
				description: 'Form input missing label',
				element: input.tagName.toLowerCase() + (id ? '#' + id : ':nth-child(' + (index + 1) + ')')
			});
		}
	});

	let lastLevel = 0;
	document.querySelectorAll('h1, h2, h3, h4, h5, h6').forEach((heading) => {
		const level = parseInt(heading.tagName.substring(1), 10);
		if (level > lastLevel + 1) {
			issues.push({
				type: 'heading_hierarchy',
				severity: 'medium',
				description: 'Improper heading hierarchy',
				element: heading.tagName.toLowerCase()
			});
		}
		lastLevel = level;
	});

	return issues;
})()`

// auditAccessibility evaluates the rule checks and derives the score. A
// rule-evaluation failure yields an empty issue list and score 0 rather
// than an error.
func (o *Orchestrator) auditAccessibility(ctx context.Context, page schemas.Page, log *zap.Logger) schemas.AccessibilityResult {
	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	var issues []schemas.AccessibilityIssue
	if err := page.Evaluate(sctx, accessibilityAuditJS, &issues); err != nil {
		log.Warn("Accessibility audit failed", zap.Error(err))
		return schemas.AccessibilityResult{Issues: []schemas.AccessibilityIssue{}}
	}
	if issues == nil {
		issues = []schemas.AccessibilityIssue{}
	}
	return schemas.AccessibilityResult{
		Issues: issues,
		Score:  accessibilityScore(len(issues)),
	}
}

// accessibilityScore maps an issue count to the 0-100 audit score.
func accessibilityScore(issueCount int) int {
	score := 100 - scorePenalty*issueCount
	if score < 0 {
		return 0
	}
	return score
}
