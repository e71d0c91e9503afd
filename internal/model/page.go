package model

import (
	"net/url"
	"strings"
	"time"
)

// MaxTextContent is the maximum number of characters of visible page text
// kept on a PageResult. Keeping only a prefix bounds memory usage while
// still giving downstream analysis enough material to work with.
const MaxTextContent = 1000

// PageResources groups the static resources referenced by a page,
// categorized by type.
type PageResources struct {
	// CSS contains stylesheet URLs (link elements with rel="stylesheet").
	CSS []string `json:"css"`

	// JS contains external script URLs.
	JS []string `json:"js"`

	// Images contains image source URLs.
	Images []string `json:"images"`

	// Media contains video and audio source URLs.
	Media []string `json:"media"`
}

// Count returns the total number of resources across all categories.
func (r PageResources) Count() int {
	return len(r.CSS) + len(r.JS) + len(r.Images) + len(r.Media)
}

// PageResult holds everything extracted from a single crawled page.
//
// Design decision: Failed fetches still produce a PageResult rather than
// being dropped, because:
// 1. The caller can see exactly which URLs failed and why
// 2. The invariant "one result per visited URL" makes totals trustworthy
// 3. Error pages are cheap: all extraction fields stay empty
type PageResult struct {
	// URL is the normalized URL of the page.
	URL string `json:"url"`

	// Title is the page title, or "Error" for failed fetches.
	Title string `json:"title"`

	// StatusCode is the HTTP status code. Zero means the request itself failed.
	StatusCode int `json:"status_code"`

	// ContentType is the Content-Type response header value.
	ContentType string `json:"content_type,omitempty"`

	// Links contains all unique same-page anchor targets, resolved to
	// absolute URLs. Empty for error pages.
	Links []string `json:"links"`

	// Resources contains categorized static resources.
	Resources PageResources `json:"resources"`

	// MetaDescription is the content of the description meta tag.
	MetaDescription string `json:"meta_description,omitempty"`

	// MetaKeywords is the content of the keywords meta tag.
	MetaKeywords string `json:"meta_keywords,omitempty"`

	// TextContent is the visible page text, truncated to MaxTextContent runes.
	TextContent string `json:"text_content,omitempty"`

	// ResponseTime is how long the fetch took.
	ResponseTime time.Duration `json:"response_time_ms"`

	// Error describes the fetch or parse failure, empty on success.
	Error string `json:"error,omitempty"`
}

// NewErrorPage returns a PageResult for a URL that could not be fetched.
// Extraction fields are left empty so error pages never contribute links
// or resources to crawl totals.
func NewErrorPage(url string, err error) *PageResult {
	return &PageResult{
		URL:   url,
		Title: "Error",
		Links: []string{},
		Error: err.Error(),
	}
}

// Succeeded reports whether the page was fetched without error.
func (p *PageResult) Succeeded() bool {
	return p.Error == ""
}

// TruncateText trims TextContent to MaxTextContent runes.
// Truncation operates on runes, not bytes, so multi-byte characters
// are never split.
func (p *PageResult) TruncateText() {
	runes := []rune(p.TextContent)
	if len(runes) > MaxTextContent {
		p.TextContent = string(runes[:MaxTextContent])
	}
}

// CrawlSummary aggregates statistics over a whole crawl.
type CrawlSummary struct {
	// TotalPages is the number of pages visited, including error pages.
	TotalPages int `json:"total_pages"`

	// SuccessfulPages is the number of pages fetched without error.
	SuccessfulPages int `json:"successful_pages"`

	// TotalLinks is the sum of per-page link counts. A URL linked from
	// three pages counts three times.
	TotalLinks int `json:"total_links"`

	// TotalResources is the sum of per-page resource counts.
	TotalResources int `json:"total_resources"`

	// UniqueDomains is the number of distinct hosts among successfully
	// visited pages.
	UniqueDomains int `json:"unique_domains"`

	// Elapsed is the wall-clock duration of the crawl.
	Elapsed time.Duration `json:"elapsed_ms"`

	// Errors collects per-page failure descriptions.
	Errors []string `json:"errors,omitempty"`
}

// CrawlResult is the full output of a site crawl: per-page results in
// visit order plus the aggregate summary.
type CrawlResult struct {
	// StartURL is the URL the crawl began from.
	StartURL string `json:"start_url"`

	// Pages contains one entry per visited URL, in breadth-first order.
	Pages []*PageResult `json:"pages"`

	// Summary aggregates the crawl statistics.
	Summary CrawlSummary `json:"summary"`

	// Error is set only for catastrophic failures that prevented the
	// crawl from starting. In that case Pages is empty.
	Error string `json:"error,omitempty"`
}

// Summarize recomputes the Summary from Pages.
// Call after the page list is final.
func (c *CrawlResult) Summarize(elapsed time.Duration) {
	summary := CrawlSummary{
		TotalPages: len(c.Pages),
		Elapsed:    elapsed,
	}
	domains := make(map[string]struct{})
	for _, page := range c.Pages {
		if !page.Succeeded() {
			summary.Errors = append(summary.Errors, page.URL+": "+page.Error)
			continue
		}
		summary.SuccessfulPages++
		summary.TotalLinks += len(page.Links)
		summary.TotalResources += page.Resources.Count()
		if host := hostOf(page.URL); host != "" {
			domains[host] = struct{}{}
		}
	}
	summary.UniqueDomains = len(domains)
	c.Summary = summary
}

// hostOf extracts the lowercase hostname from a URL string.
// Returns "" for unparseable URLs.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
