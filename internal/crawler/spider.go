package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// Crawl limits. MaxPageBudget is a hard cap: callers asking for more
// are clamped, not rejected, so a generous request still succeeds.
const (
	DefaultMaxPages = 10
	MaxPageBudget   = 100
	DefaultDelay    = 2 * time.Second
)

// Spider crawls a site breadth-first within a page budget.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client performs all HTTP requests.
	client *fetch.Client

	// maxPages limits the total number of pages visited.
	maxPages int

	// delay is the time to wait after each fetch.
	// This is a politeness setting to avoid overwhelming servers.
	delay time.Duration

	// logger records per-page progress and failures.
	logger *slog.Logger

	// ignorePatterns lists path globs that are never crawled.
	ignorePatterns []string

	// followPatterns, when set, restricts the crawl to matching paths.
	followPatterns []string
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the page budget. Values above MaxPageBudget are
// clamped; values below one fall back to the default.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the politeness delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithLogger sets the logger used for crawl progress.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// URLs matching any of these patterns will not be crawled.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// Patterns use glob syntax (e.g., "/blog/*", "/docs/*").
// If set, only URLs matching at least one pattern are crawled.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// NewSpider creates a new Spider using the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeouts, body limits, and headers are configured in one place
//  2. Consistent with the auditors, which share the same client
//  3. Allows tests to point the spider at an httptest server
func NewSpider(client *fetch.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:   client,
		maxPages: DefaultMaxPages,
		delay:    DefaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxPages < 1 {
		s.maxPages = DefaultMaxPages
	}
	if s.maxPages > MaxPageBudget {
		s.maxPages = MaxPageBudget
	}
	return s
}

// Crawl visits pages breadth-first from startURL and returns one
// PageResult per visited URL, plus the aggregate summary.
//
// Per-page failures never abort the crawl: a failed fetch produces an
// error page and the crawl moves on. Only an unusable start URL returns
// a CrawlResult with the top-level error set and no pages.
func (s *Spider) Crawl(ctx context.Context, startURL string) *model.CrawlResult {
	result := &model.CrawlResult{StartURL: startURL, Pages: []*model.PageResult{}}

	start, err := fetch.ValidateURL(startURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	began := time.Now()
	startHost := strings.ToLower(start.Host)

	// visited holds every URL ever enqueued. Membership is checked at
	// enqueue time, so the queue never contains duplicates and
	// len(visited) == pages visited when the queue drains.
	visited := make(map[string]struct{})
	first := normalizeURL(start.String())
	queue := []string{first}
	visited[first] = struct{}{}

	for len(queue) > 0 && len(result.Pages) < s.maxPages {
		select {
		case <-ctx.Done():
			result.Summarize(time.Since(began))
			return result
		default:
		}

		current := queue[0]
		queue = queue[1:]

		page := s.fetchPage(ctx, current)
		result.Pages = append(result.Pages, page)

		for _, link := range page.Links {
			normalized := normalizeURL(link)
			if _, seen := visited[normalized]; seen {
				continue
			}
			if !sameHost(startHost, normalized) {
				continue
			}
			if !s.shouldCrawl(normalized) {
				continue
			}
			visited[normalized] = struct{}{}
			queue = append(queue, normalized)
		}

		// Politeness delay between requests.
		if s.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				result.Summarize(time.Since(began))
				return result
			case <-time.After(s.delay):
			}
		}
	}

	result.Summarize(time.Since(began))
	return result
}

// fetchPage fetches and parses a single page.
// Failures are converted into error pages.
func (s *Spider) fetchPage(ctx context.Context, pageURL string) *model.PageResult {
	resp, err := s.client.Get(ctx, pageURL)
	if err != nil {
		s.logger.Debug("page fetch failed", "url", pageURL, "error", err)
		return model.NewErrorPage(pageURL, err)
	}

	page := &model.PageResult{
		URL:          pageURL,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.ContentType(),
		Links:        []string{},
		ResponseTime: resp.ResponseTime,
	}

	if !strings.Contains(page.ContentType, "html") {
		return page
	}

	parser, err := NewParser(pageURL)
	if err != nil {
		return model.NewErrorPage(pageURL, fmt.Errorf("parser setup failed: %w", err))
	}
	parsed, err := parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return model.NewErrorPage(pageURL, fmt.Errorf("parse failed: %w", err))
	}

	page.Title = parsed.Title
	page.Links = parsed.Links
	page.Resources = parsed.Resources
	page.MetaDescription = parsed.MetaTags["description"]
	page.MetaKeywords = parsed.MetaTags["keywords"]
	page.TextContent = parsed.TextContent
	page.TruncateText()

	s.logger.Debug("page crawled",
		"url", pageURL,
		"status", page.StatusCode,
		"links", len(page.Links))
	return page
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. An empty path and "/" address the same page
//
// Normalization is idempotent: applying it twice yields the same string.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// shouldCrawl checks if a URL should be crawled based on ignore/follow
// patterns. A URL matching any ignore pattern is skipped. When follow
// patterns are set, the URL must match at least one of them.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// Prefix patterns like "/admin/*" should match the whole subtree.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.pdf" match anywhere in the tree.
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Match the filename alone for patterns without a path separator.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}

// sameHost reports whether targetURL is an http(s) URL on exactly the
// given host. Subdomains and www variants do not match: the crawl stays
// on the host it was asked to audit.
func sameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}
