package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// genericAnchorTexts carry no information about the link target.
var genericAnchorTexts = map[string]bool{
	"click here": true,
	"read more":  true,
	"here":       true,
	"more":       true,
	"link":       true,
}

// InternalLinking analyzes a page's internal link structure, validates
// a sample of the targets, and produces a weighted quality score.
func (a *LinkAuditor) InternalLinking(ctx context.Context, rawURL string) *model.InternalLinkingResult {
	result := &model.InternalLinkingResult{
		URL:    rawURL,
		Links:  []model.InternalLink{},
		Checks: []model.LinkCheck{},
	}

	base, err := fetch.ValidateURL(rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	_, parsed, err := fetchParsed(ctx, a.client, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	targets := make(map[string]struct{})
	for _, anchor := range parsed.Anchors {
		if anchor.Href == "" {
			continue
		}
		if categorizeLink(base.Host, anchor.Href) != model.LinkCategoryInternal {
			continue
		}

		generic := genericAnchorTexts[strings.ToLower(strings.TrimSpace(anchor.Text))]
		linkContext := "content"
		switch {
		case anchor.InBreadcrumb:
			linkContext = "breadcrumb"
		case anchor.InNav:
			linkContext = "navigation"
		case anchor.InFooter:
			linkContext = "footer"
		}

		result.Links = append(result.Links, model.InternalLink{
			URL:        anchor.Href,
			Text:       anchor.Text,
			Context:    linkContext,
			Generic:    generic,
			InNav:      anchor.InNav,
			InFooter:   anchor.InFooter,
			Breadcrumb: anchor.InBreadcrumb,
		})

		targets[anchor.Href] = struct{}{}
		if generic {
			result.GenericAnchors++
		}
		if anchor.InNav {
			result.NavLinks++
		}
		if anchor.InFooter {
			result.FooterLinks++
		}
		if anchor.InBreadcrumb {
			result.HasBreadcrumbs = true
		}
	}
	result.UniqueTargets = len(targets)

	// Validate a sample of the unique targets.
	unique := make([]string, 0, len(targets))
	for _, link := range result.Links {
		if _, ok := targets[link.URL]; ok {
			unique = append(unique, link.URL)
			delete(targets, link.URL)
		}
	}
	result.Checks = a.checkSequentially(ctx, unique)

	var broken, redirected int
	var totalTime float64
	for _, check := range result.Checks {
		if check.Status != model.LinkStatusWorking {
			broken++
		}
		if check.Redirected {
			redirected++
		}
		totalTime += check.ResponseTime
	}
	if len(result.Checks) > 0 {
		result.BrokenPercent = float64(broken) * 100 / float64(len(result.Checks))
		result.RedirectPercent = float64(redirected) * 100 / float64(len(result.Checks))
		result.AvgResponseTime = totalTime / float64(len(result.Checks))
	}

	result.Score = scoreInternalLinking(result)
	result.Recommendations = internalLinkingRecommendations(result)
	return result
}

// scoreInternalLinking computes the weighted 0-100 linking score.
// Pure: operates only on the collected result fields.
func scoreInternalLinking(result *model.InternalLinkingResult) int {
	score := 0

	if len(result.Links) > 0 {
		score += 20
	}
	switch {
	case result.UniqueTargets > 10:
		score += 15
	case result.UniqueTargets > 5:
		score += 10
	}
	if result.NavLinks > 0 {
		score += 15
		// A focused primary navigation helps users and crawlers alike.
		if result.NavLinks >= 3 && result.NavLinks <= 7 {
			score += 5
		}
	}
	if result.HasBreadcrumbs {
		score += 5
	}
	if len(result.Checks) > 0 {
		switch {
		case result.BrokenPercent == 0:
			score += 25
		case result.BrokenPercent < 5:
			score += 20
		case result.BrokenPercent < 15:
			score += 10
		}
		if result.RedirectPercent < 10 {
			score += 5
		}
		if result.AvgResponseTime < 1 {
			score += 5
		}
	}
	if len(result.Links) > 0 {
		descriptive := len(result.Links) - result.GenericAnchors
		if float64(descriptive)/float64(len(result.Links)) > 0.8 {
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// internalLinkingRecommendations derives advice from the structure and
// validation outcomes.
func internalLinkingRecommendations(result *model.InternalLinkingResult) []string {
	recs := make([]string, 0)

	if len(result.Links) == 0 {
		recs = append(recs, "Add internal links so visitors and crawlers can discover related pages.")
	}
	if result.NavLinks == 0 {
		recs = append(recs, "Add a navigation menu with links to the main sections.")
	}
	if !result.HasBreadcrumbs {
		recs = append(recs, "Consider breadcrumb navigation for deep page hierarchies.")
	}
	if result.BrokenPercent > 0 {
		recs = append(recs, fmt.Sprintf("Fix the %.0f%% of internal links that are broken.", result.BrokenPercent))
	}
	if result.GenericAnchors > 0 {
		recs = append(recs, "Replace generic anchor texts like \"click here\" with descriptive ones.")
	}

	switch {
	case result.Score >= 85:
		recs = append(recs, "Internal linking is excellent.")
	case result.Score >= 70:
		recs = append(recs, "Internal linking is good; a few refinements remain.")
	case result.Score >= 50:
		recs = append(recs, "Internal linking is adequate but leaves discoverability on the table.")
	default:
		recs = append(recs, "Internal linking needs a rework; see the items above.")
	}
	return recs
}
