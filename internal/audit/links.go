package audit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// Link check limits. External links are probed sequentially with a
// politeness delay so the audit does not hammer third-party servers.
const (
	DefaultMaxLinkChecks = 50
	MaxLinkChecks        = 100
	linkCheckDelay       = 500 * time.Millisecond
)

// LinkAuditor checks the outbound links of a page.
type LinkAuditor struct {
	client   *fetch.Client
	maxLinks int
	delay    time.Duration
}

// LinkOption configures a LinkAuditor.
type LinkOption func(*LinkAuditor)

// WithMaxLinkChecks caps how many links are probed per audit.
func WithMaxLinkChecks(limit int) LinkOption {
	return func(a *LinkAuditor) {
		a.maxLinks = limit
	}
}

// WithLinkCheckDelay sets the politeness delay between probes.
func WithLinkCheckDelay(delay time.Duration) LinkOption {
	return func(a *LinkAuditor) {
		a.delay = delay
	}
}

// NewLinkAuditor creates a LinkAuditor using the given client.
func NewLinkAuditor(client *fetch.Client, opts ...LinkOption) *LinkAuditor {
	a := &LinkAuditor{
		client:   client,
		maxLinks: DefaultMaxLinkChecks,
		delay:    linkCheckDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxLinks < 1 {
		a.maxLinks = DefaultMaxLinkChecks
	}
	if a.maxLinks > MaxLinkChecks {
		a.maxLinks = MaxLinkChecks
	}
	return a
}

// categorizeLink buckets a resolved link relative to the base host.
// A host counts as internal when it equals the base host or is a
// subdomain of it; www variants fall out of the subdomain rule. This is
// deliberately looser than the crawler's exact-host policy: for link
// reporting, blog.example.com is still "your site".
func categorizeLink(baseHost, link string) string {
	switch {
	case strings.HasPrefix(link, "mailto:"):
		return model.LinkCategoryEmail
	case strings.HasPrefix(link, "tel:"):
		return model.LinkCategoryPhone
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return model.LinkCategoryOther
	}

	// Compare the full host including any port: a different port is a
	// different origin.
	host := strings.ToLower(u.Host)
	base := strings.ToLower(baseHost)
	base = strings.TrimPrefix(base, "www.")
	host = strings.TrimPrefix(host, "www.")

	if host == base || strings.HasSuffix(host, "."+base) {
		return model.LinkCategoryInternal
	}
	return model.LinkCategoryExternal
}

// ExternalLinks categorizes a page's links and probes the external ones.
func (a *LinkAuditor) ExternalLinks(ctx context.Context, rawURL string) *model.ExternalLinksResult {
	result := &model.ExternalLinksResult{
		URL:         rawURL,
		Internal:    []string{},
		External:    []string{},
		Email:       []string{},
		Phone:       []string{},
		Other:       []string{},
		Checks:      []model.LinkCheck{},
		StatusCodes: map[string]int{},
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

	for _, link := range parsed.Links {
		switch categorizeLink(base.Host, link) {
		case model.LinkCategoryInternal:
			result.Internal = append(result.Internal, link)
		case model.LinkCategoryExternal:
			result.External = append(result.External, link)
		case model.LinkCategoryEmail:
			result.Email = append(result.Email, link)
		case model.LinkCategoryPhone:
			result.Phone = append(result.Phone, link)
		default:
			result.Other = append(result.Other, link)
		}
	}

	result.Checks = a.checkSequentially(ctx, result.External)
	result.CheckedCount = len(result.Checks)

	for _, check := range result.Checks {
		switch check.Status {
		case model.LinkStatusWorking:
			result.Working++
		case model.LinkStatusBroken:
			result.Broken++
		case model.LinkStatusTimeout:
			result.Timeouts++
		default:
			result.Errors++
		}
		if check.Redirected {
			result.Redirected++
		}
		if check.StatusCode > 0 {
			result.StatusCodes[strconv.Itoa(check.StatusCode)]++
		}
	}

	result.Recommendations = externalLinkRecommendations(result)
	return result
}

// checkSequentially probes links one at a time with the politeness
// delay, stopping at the configured cap or on context cancellation.
func (a *LinkAuditor) checkSequentially(ctx context.Context, links []string) []model.LinkCheck {
	checks := make([]model.LinkCheck, 0, min(len(links), a.maxLinks))
	for i, link := range links {
		if i >= a.maxLinks {
			break
		}
		if i > 0 && a.delay > 0 {
			select {
			case <-ctx.Done():
				return checks
			case <-time.After(a.delay):
			}
		}
		checks = append(checks, a.client.CheckURL(ctx, link))
	}
	return checks
}

// externalLinkRecommendations derives advice from the check outcomes.
func externalLinkRecommendations(result *model.ExternalLinksResult) []string {
	recs := make([]string, 0)

	if result.Broken > 0 {
		recs = append(recs, fmt.Sprintf("Fix or remove %d broken external links.", result.Broken))
	}
	if result.Timeouts > 3 {
		recs = append(recs, "Several external links time out; check whether the destinations still exist.")
	}
	if result.CheckedCount > 0 {
		redirectShare := float64(result.Redirected) / float64(result.CheckedCount)
		if redirectShare > 0.3 {
			recs = append(recs, "Over 30% of external links redirect; update them to their final destinations.")
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "External links are healthy.")
	}
	return recs
}
