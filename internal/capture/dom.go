package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/api/schemas"
)

// importantTags is the closed list of tag names the structural extraction
// pass scans, covering semantic structure, interactive elements, lists,
// tables, and inline content.
var importantTags = []string{
	// Semantic structure
	"h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "span", "section",
	"article", "nav", "header", "footer", "main", "aside",
	// Interactive elements
	"button", "input", "textarea", "select", "option", "label", "form",
	"a", "img", "video", "audio", "canvas", "svg",
	// Lists and tables
	"ul", "ol", "li", "table", "thead", "tbody", "tr", "td", "th",
	// Content elements
	"blockquote", "pre", "code", "strong", "em", "small", "mark", "del",
	"ins", "sub", "sup",
}

// clickableSelectors is the fixed set of live queries used to probe
// interactive elements on the rendered page.
var clickableSelectors = []string{
	"button",
	"a[href]",
	`input[type="button"]`,
	`input[type="submit"]`,
	"[onclick]",
	`[role="button"]`,
}

// analyzeDOM runs both extraction strategies: a static structural pass
// over the rendered markup, and a live probe of interactive elements.
// They answer different questions and are deliberately kept separate.
func (o *Orchestrator) analyzeDOM(ctx context.Context, page schemas.Page, fc *schemas.FrontendContext, log *zap.Logger) {
	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	html, err := page.HTML(sctx)
	if err != nil {
		log.Warn("DOM analysis failed: could not read page HTML", zap.Error(err))
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Warn("DOM analysis failed: could not parse page HTML", zap.Error(err))
		return
	}

	fc.Elements = extractElements(doc)
	fc.Forms = extractForms(doc)
	fc.Buttons = extractButtons(doc)
	fc.Links = extractLinks(doc)
	fc.Inputs = extractInputs(doc)
	fc.Interactive = o.probeInteractive(sctx, page, log)
}

// extractElements scans the important tag list in order, building one
// DOMElement per match until the element cap is reached.
func extractElements(doc *goquery.Document) []schemas.DOMElement {
	elements := []schemas.DOMElement{}
	for _, tag := range importantTags {
		if len(elements) >= schemas.MaxElements {
			break
		}
		doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if len(elements) >= schemas.MaxElements {
				return false
			}
			elements = append(elements, buildElement(tag, sel))
			return true
		})
	}
	return elements
}

// extractForms collects each form's controls and submit buttons. The
// method defaults to "GET" and is always upper-cased.
func extractForms(doc *goquery.Document) []schemas.FormElement {
	forms := []schemas.FormElement{}
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		inputs := []schemas.DOMElement{}
		form.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
			elem := schemas.DOMElement{
				Tag:        goquery.NodeName(sel),
				Classes:    []string{},
				Attributes: attributeMap(sel, false),
			}
			if id, ok := sel.Attr("id"); ok && id != "" {
				elem.ID = id
				elem.Selector = "#" + id
			}
			inputs = append(inputs, elem)
		})

		submits := []schemas.DOMElement{}
		form.Find("button, input").Each(func(_ int, sel *goquery.Selection) {
			tag := goquery.NodeName(sel)
			inputType, _ := sel.Attr("type")
			if tag != "button" && inputType != "submit" && inputType != "button" {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if text == "" {
				text, _ = sel.Attr("value")
			}
			submits = append(submits, schemas.DOMElement{
				Tag:        tag,
				Text:       truncateText(text),
				Classes:    []string{},
				Attributes: attributeMap(sel, false),
			})
		})

		method, ok := form.Attr("method")
		if !ok || method == "" {
			method = "GET"
		}
		action, _ := form.Attr("action")

		forms = append(forms, schemas.FormElement{
			Action:        action,
			Method:        strings.ToUpper(method),
			Inputs:        inputs,
			SubmitButtons: submits,
		})
	})
	return forms
}

// extractButtons matches native buttons plus input elements whose type is
// button or submit.
func extractButtons(doc *goquery.Document) []schemas.DOMElement {
	buttons := []schemas.DOMElement{}
	doc.Find("button, input").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(buttons) >= schemas.MaxButtons {
			return false
		}
		tag := goquery.NodeName(sel)
		if tag == "input" {
			inputType, _ := sel.Attr("type")
			if inputType != "button" && inputType != "submit" {
				return true
			}
		}
		elem := buildElement(tag, sel)
		if elem.Text == "" {
			value, _ := sel.Attr("value")
			elem.Text = truncateText(value)
		}
		buttons = append(buttons, elem)
		return true
	})
	return buttons
}

// extractLinks collects anchors that carry an href.
func extractLinks(doc *goquery.Document) []schemas.DOMElement {
	links := []schemas.DOMElement{}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(links) >= schemas.MaxLinks {
			return false
		}
		href, _ := sel.Attr("href")
		elem := schemas.DOMElement{
			Tag:        "a",
			Classes:    classList(sel),
			Text:       truncateText(strings.TrimSpace(sel.Text())),
			Attributes: map[string]string{"href": href},
		}
		if id, ok := sel.Attr("id"); ok && id != "" {
			elem.ID = id
			elem.Selector = "#" + id
		}
		links = append(links, elem)
		return true
	})
	return links
}

// extractInputs collects all form controls regardless of form membership.
func extractInputs(doc *goquery.Document) []schemas.DOMElement {
	inputs := []schemas.DOMElement{}
	doc.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
		elem := schemas.DOMElement{
			Tag:        goquery.NodeName(sel),
			Classes:    classList(sel),
			Attributes: attributeMap(sel, false),
		}
		if id, ok := sel.Attr("id"); ok && id != "" {
			elem.ID = id
			elem.Selector = "#" + id
		}
		inputs = append(inputs, elem)
	})
	return inputs
}

// probeInteractive queries the live page for clickable elements, selector
// by selector, recording runtime visibility. Static parsing cannot answer
// this; the rendered state can.
func (o *Orchestrator) probeInteractive(ctx context.Context, page schemas.Page, log *zap.Logger) []schemas.InteractiveElement {
	interactive := []schemas.InteractiveElement{}

	for _, selector := range clickableSelectors {
		if len(interactive) >= schemas.MaxInteractive {
			break
		}

		expr := fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).slice(0, %d).map((el) => ({
				text: (el.textContent || '').trim().slice(0, %d),
				visible: !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length)
			}))`,
			selector, schemas.MaxPerSelector, schemas.MaxTextLength,
		)

		var probed []struct {
			Text    string `json:"text"`
			Visible bool   `json:"visible"`
		}
		if err := page.Evaluate(ctx, expr, &probed); err != nil {
			log.Debug("Interactive element probe failed",
				zap.String("selector", selector), zap.Error(err))
			continue
		}

		for _, p := range probed {
			if len(interactive) >= schemas.MaxInteractive {
				break
			}
			interactive = append(interactive, schemas.InteractiveElement{
				Type:      "clickable",
				Text:      p.Text,
				Selector:  selector,
				Clickable: true,
				Visible:   p.Visible,
			})
		}
	}
	return interactive
}

// buildElement produces a DOMElement from a parsed node: trimmed and
// truncated text, the attribute map minus class, a descendant count, and
// a synthesized selector preferring #id over tag.class chains.
func buildElement(tag string, sel *goquery.Selection) schemas.DOMElement {
	elem := schemas.DOMElement{
		Tag:           tag,
		Classes:       classList(sel),
		Text:          truncateText(strings.TrimSpace(sel.Text())),
		Attributes:    attributeMap(sel, true),
		ChildrenCount: sel.Find("*").Length(),
	}
	if id, ok := sel.Attr("id"); ok && id != "" {
		elem.ID = id
	}
	switch {
	case elem.ID != "":
		elem.Selector = "#" + elem.ID
	case len(elem.Classes) > 0:
		elem.Selector = tag + "." + strings.Join(elem.Classes, ".")
	}
	return elem
}

func classList(sel *goquery.Selection) []string {
	class, ok := sel.Attr("class")
	if !ok {
		return []string{}
	}
	classes := strings.Fields(class)
	if classes == nil {
		return []string{}
	}
	return classes
}

// attributeMap flattens a node's attributes, optionally excluding class
// since it is carried separately.
func attributeMap(sel *goquery.Selection, excludeClass bool) map[string]string {
	attrs := map[string]string{}
	if len(sel.Nodes) == 0 {
		return attrs
	}
	for _, attr := range sel.Nodes[0].Attr {
		if excludeClass && attr.Key == "class" {
			continue
		}
		attrs[attr.Key] = attr.Val
	}
	return attrs
}

func truncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= schemas.MaxTextLength {
		return text
	}
	return string(runes[:schemas.MaxTextLength])
}
