package audit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// WCAG AA requires a contrast ratio of at least 4.5:1 for normal text.
const minContrastRatio = 4.5

// maxContrastElements bounds how many inline-styled elements the static
// contrast check examines per page.
const maxContrastElements = 20

// Accessibility impact levels.
const (
	impactCritical = "critical"
	impactSerious  = "serious"
	impactModerate = "moderate"
	impactMinor    = "minor"
)

// AccessibilityAuditor runs the static accessibility checks.
// The checks operate on the served HTML only; issues that require
// script execution or layout are out of reach of a static audit.
type AccessibilityAuditor struct {
	client *fetch.Client
}

// NewAccessibilityAuditor creates an auditor using the given client.
func NewAccessibilityAuditor(client *fetch.Client) *AccessibilityAuditor {
	return &AccessibilityAuditor{client: client}
}

// checkOutcome is the result of one sub-check.
type checkOutcome struct {
	violations []model.AccessibilityViolation
	passes     int
}

// Audit fetches a page and runs the alt-text, contrast, and ARIA
// sub-checks concurrently against the parsed document.
func (a *AccessibilityAuditor) Audit(ctx context.Context, rawURL string) *model.AccessibilityResult {
	result := &model.AccessibilityResult{
		URL:             rawURL,
		Violations:      []model.AccessibilityViolation{},
		ViolationCounts: map[string]int{},
	}

	_, parsed, err := fetchParsed(ctx, a.client, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var mu sync.Mutex
	outcomes := make([]checkOutcome, 0, 3)
	collect := func(outcome checkOutcome) {
		mu.Lock()
		outcomes = append(outcomes, outcome)
		mu.Unlock()
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		collect(checkAltText(parsed))
		return nil
	})
	g.Go(func() error {
		collect(checkContrast(parsed))
		return nil
	})
	g.Go(func() error {
		collect(checkARIAAndStructure(parsed))
		return nil
	})
	_ = g.Wait() // sub-checks cannot fail; they only report findings

	for _, outcome := range outcomes {
		result.Violations = append(result.Violations, outcome.violations...)
		result.Passes += outcome.passes
	}
	for _, v := range result.Violations {
		result.ViolationCounts[v.Impact]++
	}

	total := result.Passes + len(result.Violations)
	if total == 0 {
		result.Score = 100
	} else {
		result.Score = result.Passes * 100 / total
	}
	result.Recommendations = accessibilityRecommendations(result)
	return result
}

// checkAltText flags images without useful alternative text.
func checkAltText(parsed *crawler.ParseResult) checkOutcome {
	var outcome checkOutcome
	for _, img := range parsed.Images {
		switch {
		case !img.HasAlt:
			outcome.violations = append(outcome.violations, model.AccessibilityViolation{
				Rule:        "image-alt",
				Impact:      impactCritical,
				Description: "Image has no alt attribute",
				Element:     img.Source,
			})
		case img.Alt == "":
			// Empty alt marks a decorative image; that is a deliberate
			// and valid choice.
			outcome.passes++
		case len(img.Alt) > 125:
			outcome.violations = append(outcome.violations, model.AccessibilityViolation{
				Rule:        "image-alt-length",
				Impact:      impactMinor,
				Description: "Alt text longer than 125 characters; screen readers may truncate it",
				Element:     img.Source,
			})
		default:
			lower := strings.ToLower(img.Alt)
			redundant := false
			for _, phrase := range redundantAltPhrases {
				if strings.HasPrefix(lower, phrase) {
					redundant = true
					break
				}
			}
			if redundant {
				outcome.violations = append(outcome.violations, model.AccessibilityViolation{
					Rule:        "image-alt-redundant",
					Impact:      impactMinor,
					Description: "Alt text starts with a redundant phrase such as \"image of\"",
					Element:     img.Source,
				})
			} else {
				outcome.passes++
			}
		}
	}
	return outcome
}

// checkContrast evaluates inline-styled text elements against the
// WCAG AA contrast ratio. Only elements declaring both a text color and
// a background color can be checked statically.
func checkContrast(parsed *crawler.ParseResult) checkOutcome {
	var outcome checkOutcome
	checked := 0
	for _, el := range parsed.Styled {
		if checked >= maxContrastElements {
			break
		}
		fg, fgOK := parseCSSColor(styleValue(el.Style, "color"))
		bg, bgOK := parseCSSColor(styleValue(el.Style, "background-color"))
		if !fgOK || !bgOK {
			continue
		}
		checked++

		ratio := contrastRatio(fg, bg)
		if ratio < minContrastRatio {
			outcome.violations = append(outcome.violations, model.AccessibilityViolation{
				Rule:   "color-contrast",
				Impact: impactSerious,
				Description: fmt.Sprintf("Text contrast ratio %.2f:1 is below the WCAG AA minimum of %.1f:1",
					ratio, minContrastRatio),
				Element: "<" + el.Tag + "> " + truncateElement(el.Text),
			})
		} else {
			outcome.passes++
		}
	}
	return outcome
}

// checkARIAAndStructure verifies form control labeling, heading
// structure, and the presence of skip links.
func checkARIAAndStructure(parsed *crawler.ParseResult) checkOutcome {
	var outcome checkOutcome

	labeled := make(map[string]struct{}, len(parsed.LabelFor))
	for _, id := range parsed.LabelFor {
		labeled[id] = struct{}{}
	}

	for _, control := range parsed.Controls {
		if control.Type == "hidden" || control.Type == "submit" || control.Tag == "button" {
			// Buttons and submits are named by their value or content.
			outcome.passes++
			continue
		}
		_, hasLabel := labeled[control.ID]
		if control.AriaLabel != "" || control.AriaLabelledBy != "" || control.Title != "" || (control.ID != "" && hasLabel) {
			outcome.passes++
			continue
		}
		outcome.violations = append(outcome.violations, model.AccessibilityViolation{
			Rule:        "label",
			Impact:      impactSerious,
			Description: "Form control has no accessible label",
			Element:     "<" + control.Tag + " name=\"" + control.Name + "\">",
		})
	}

	outcome = checkHeadings(parsed.Headings, outcome)

	// Skip link: an in-page anchor whose text mentions skipping.
	hasSkipLink := false
	for _, anchor := range parsed.Anchors {
		if strings.HasPrefix(anchor.RawHref, "#") && strings.Contains(strings.ToLower(anchor.Text), "skip") {
			hasSkipLink = true
			break
		}
	}
	if hasSkipLink {
		outcome.passes++
	} else if len(parsed.Anchors) > 0 {
		outcome.violations = append(outcome.violations, model.AccessibilityViolation{
			Rule:        "skip-link",
			Impact:      impactModerate,
			Description: "No skip navigation link found",
		})
	}

	return outcome
}

// checkHeadings validates the heading outline.
func checkHeadings(headings []crawler.Heading, outcome checkOutcome) checkOutcome {
	if len(headings) == 0 {
		outcome.violations = append(outcome.violations, model.AccessibilityViolation{
			Rule:        "heading-structure",
			Impact:      impactModerate,
			Description: "Page has no headings",
		})
		return outcome
	}

	h1Count := 0
	prevLevel := 0
	structureOK := true
	for _, h := range headings {
		if h.Level == 1 {
			h1Count++
		}
		if h.Text == "" {
			structureOK = false
			outcome.violations = append(outcome.violations, model.AccessibilityViolation{
				Rule:        "empty-heading",
				Impact:      impactMinor,
				Description: fmt.Sprintf("Empty h%d element", h.Level),
			})
		}
		if prevLevel > 0 && h.Level > prevLevel+1 {
			structureOK = false
			outcome.violations = append(outcome.violations, model.AccessibilityViolation{
				Rule:        "heading-order",
				Impact:      impactModerate,
				Description: fmt.Sprintf("Heading level skips from h%d to h%d", prevLevel, h.Level),
			})
		}
		prevLevel = h.Level
	}

	switch h1Count {
	case 1:
		outcome.passes++
	case 0:
		structureOK = false
		outcome.violations = append(outcome.violations, model.AccessibilityViolation{
			Rule:        "page-has-heading-one",
			Impact:      impactModerate,
			Description: "Page has no h1 element",
		})
	default:
		structureOK = false
		outcome.violations = append(outcome.violations, model.AccessibilityViolation{
			Rule:        "page-has-heading-one",
			Impact:      impactModerate,
			Description: fmt.Sprintf("Page has %d h1 elements; exactly one is expected", h1Count),
		})
	}

	if structureOK {
		outcome.passes++
	}
	return outcome
}

// accessibilityRecommendations summarizes the violations into advice.
func accessibilityRecommendations(result *model.AccessibilityResult) []string {
	recs := make([]string, 0)
	rules := make(map[string]bool)
	for _, v := range result.Violations {
		rules[v.Rule] = true
	}
	if rules["image-alt"] {
		recs = append(recs, "Add alt attributes to all informative images.")
	}
	if rules["color-contrast"] {
		recs = append(recs, "Increase text contrast to at least 4.5:1 for normal text.")
	}
	if rules["label"] {
		recs = append(recs, "Associate every form control with a label or aria-label.")
	}
	if rules["heading-structure"] || rules["page-has-heading-one"] || rules["heading-order"] {
		recs = append(recs, "Use a single h1 and do not skip heading levels.")
	}
	if rules["skip-link"] {
		recs = append(recs, "Add a skip navigation link as the first focusable element.")
	}
	if len(recs) == 0 && result.Error == "" {
		recs = append(recs, "No static accessibility issues detected. Verify with assistive technology.")
	}
	return recs
}

// styleValue extracts one property value from an inline style string.
func styleValue(style, property string) string {
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), property) {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// rgb is a color with 8-bit channels.
type rgb struct {
	r, g, b uint8
}

// namedColors covers the values that appear in inline styles often
// enough to matter for a static check.
var namedColors = map[string]rgb{
	"black":  {0, 0, 0},
	"white":  {255, 255, 255},
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"yellow": {255, 255, 0},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
	"silver": {192, 192, 192},
	"orange": {255, 165, 0},
	"purple": {128, 0, 128},
}

// parseCSSColor parses #rgb, #rrggbb, rgb(...), and common named colors.
func parseCSSColor(value string) (rgb, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return rgb{}, false
	}

	if color, ok := namedColors[value]; ok {
		return color, true
	}

	if strings.HasPrefix(value, "#") {
		hex := value[1:]
		switch len(hex) {
		case 3:
			r, errR := strconv.ParseUint(strings.Repeat(string(hex[0]), 2), 16, 8)
			g, errG := strconv.ParseUint(strings.Repeat(string(hex[1]), 2), 16, 8)
			b, errB := strconv.ParseUint(strings.Repeat(string(hex[2]), 2), 16, 8)
			if errR != nil || errG != nil || errB != nil {
				return rgb{}, false
			}
			return rgb{uint8(r), uint8(g), uint8(b)}, true
		case 6:
			r, errR := strconv.ParseUint(hex[0:2], 16, 8)
			g, errG := strconv.ParseUint(hex[2:4], 16, 8)
			b, errB := strconv.ParseUint(hex[4:6], 16, 8)
			if errR != nil || errG != nil || errB != nil {
				return rgb{}, false
			}
			return rgb{uint8(r), uint8(g), uint8(b)}, true
		default:
			return rgb{}, false
		}
	}

	if strings.HasPrefix(value, "rgb(") && strings.HasSuffix(value, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "rgb("), ")")
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return rgb{}, false
		}
		channels := [3]uint8{}
		for i, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || n > 255 {
				return rgb{}, false
			}
			channels[i] = uint8(n)
		}
		return rgb{channels[0], channels[1], channels[2]}, true
	}

	return rgb{}, false
}

// relativeLuminance implements the WCAG luminance formula.
func relativeLuminance(c rgb) float64 {
	linear := func(channel uint8) float64 {
		v := float64(channel) / 255
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(c.r) + 0.7152*linear(c.g) + 0.0722*linear(c.b)
}

// contrastRatio computes the WCAG contrast ratio between two colors.
func contrastRatio(a, b rgb) float64 {
	la := relativeLuminance(a)
	lb := relativeLuminance(b)
	lighter := math.Max(la, lb)
	darker := math.Min(la, lb)
	return (lighter + 0.05) / (darker + 0.05)
}

// truncateElement shortens element text for violation reports.
func truncateElement(text string) string {
	const limit = 60
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
