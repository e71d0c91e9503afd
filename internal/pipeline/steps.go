package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/webaudit/webaudit/internal/audit"
	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// CrawlStep walks the target site and stores the discovered pages.
//
// Design decision: Crawling runs first because:
// 1. It proves the site is reachable before the per-page audits run
// 2. Its page inventory gives the report its structural backbone
// 3. A failed crawl should stop a default pipeline early
type CrawlStep struct {
	client         *fetch.Client
	maxPages       int
	delay          time.Duration
	logger         *slog.Logger
	ignorePatterns []string
	followPatterns []string
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the politeness delay between page fetches.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// WithCrawlIgnorePatterns sets path globs the crawl skips.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlFollowPatterns restricts the crawl to matching paths.
func WithCrawlFollowPatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.followPatterns = patterns
	}
}

// NewCrawlStep creates a new crawling step.
func NewCrawlStep(client *fetch.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:   client,
		maxPages: crawler.DefaultMaxPages,
		delay:    crawler.DefaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string { return "crawl" }

// Do executes the crawl step. A crawl that could not start at all is a
// critical failure; per-page errors are already folded into the pages.
func (s *CrawlStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	spider := crawler.NewSpider(s.client,
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
		crawler.WithLogger(s.logger),
		crawler.WithIgnorePatterns(s.ignorePatterns),
		crawler.WithFollowPatterns(s.followPatterns),
	)

	result := spider.Crawl(ctx, report.TargetURL)
	report.Crawl = result

	if result.Error != "" && len(result.Pages) == 0 {
		return errors.New(result.Error)
	}

	s.logger.Info("crawl completed",
		"pages", result.Summary.TotalPages,
		"links", result.Summary.TotalLinks,
		"errors", len(result.Summary.Errors),
	)
	return nil
}

// SEOStep runs the combined on-page SEO audit.
type SEOStep struct {
	auditor *audit.SEOAuditor
}

// NewSEOStep creates a new SEO audit step.
func NewSEOStep(client *fetch.Client) *SEOStep {
	return &SEOStep{auditor: audit.NewSEOAuditor(client)}
}

// Name returns the step name.
func (s *SEOStep) Name() string { return "seo" }

// Do executes the SEO audit. Failures are folded into the result.
func (s *SEOStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.SEO = s.auditor.QuickAudit(ctx, report.TargetURL)
	return nil
}

// AccessibilityStep runs the static accessibility audit.
type AccessibilityStep struct {
	auditor *audit.AccessibilityAuditor
}

// NewAccessibilityStep creates a new accessibility audit step.
func NewAccessibilityStep(client *fetch.Client) *AccessibilityStep {
	return &AccessibilityStep{auditor: audit.NewAccessibilityAuditor(client)}
}

// Name returns the step name.
func (s *AccessibilityStep) Name() string { return "accessibility" }

// Do executes the accessibility audit.
func (s *AccessibilityStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.Accessibility = s.auditor.Audit(ctx, report.TargetURL)
	return nil
}

// LinksStep checks the health of the page's external links.
type LinksStep struct {
	auditor *audit.LinkAuditor
}

// NewLinksStep creates a new external-links step.
func NewLinksStep(client *fetch.Client, opts ...audit.LinkOption) *LinksStep {
	return &LinksStep{auditor: audit.NewLinkAuditor(client, opts...)}
}

// Name returns the step name.
func (s *LinksStep) Name() string { return "external_links" }

// Do executes the external link check.
func (s *LinksStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.ExternalLinks = s.auditor.ExternalLinks(ctx, report.TargetURL)
	return nil
}

// InternalLinkingStep analyzes the internal link structure.
type InternalLinkingStep struct {
	auditor *audit.LinkAuditor
}

// NewInternalLinkingStep creates a new internal-linking step.
func NewInternalLinkingStep(client *fetch.Client, opts ...audit.LinkOption) *InternalLinkingStep {
	return &InternalLinkingStep{auditor: audit.NewLinkAuditor(client, opts...)}
}

// Name returns the step name.
func (s *InternalLinkingStep) Name() string { return "internal_linking" }

// Do executes the internal-linking analysis.
func (s *InternalLinkingStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.InternalLinking = s.auditor.InternalLinking(ctx, report.TargetURL)
	return nil
}

// SchemaStep extracts structured data from the page.
type SchemaStep struct {
	auditor *audit.SchemaAuditor
}

// NewSchemaStep creates a new structured-data step.
func NewSchemaStep(client *fetch.Client) *SchemaStep {
	return &SchemaStep{auditor: audit.NewSchemaAuditor(client)}
}

// Name returns the step name.
func (s *SchemaStep) Name() string { return "schema" }

// Do executes the structured-data extraction.
func (s *SchemaStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.Schema = s.auditor.Check(ctx, report.TargetURL)
	return nil
}

// RobotsStep fetches and analyzes robots.txt.
type RobotsStep struct {
	auditor *audit.RobotsAuditor
}

// NewRobotsStep creates a new robots.txt step.
func NewRobotsStep(client *fetch.Client) *RobotsStep {
	return &RobotsStep{auditor: audit.NewRobotsAuditor(client)}
}

// Name returns the step name.
func (s *RobotsStep) Name() string { return "robots" }

// Do executes the robots.txt check.
func (s *RobotsStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.Robots = s.auditor.Check(ctx, report.TargetURL)
	return nil
}

// HTTPSStep checks the site's transport security.
type HTTPSStep struct {
	auditor *audit.HTTPSAuditor
}

// NewHTTPSStep creates a new transport-security step.
func NewHTTPSStep(client *fetch.Client) *HTTPSStep {
	return &HTTPSStep{auditor: audit.NewHTTPSAuditor(client)}
}

// Name returns the step name.
func (s *HTTPSStep) Name() string { return "https" }

// Do executes the transport-security check.
func (s *HTTPSStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.HTTPS = s.auditor.Check(ctx, report.TargetURL)
	return nil
}

// SpeedStep measures page performance with Lighthouse.
type SpeedStep struct {
	auditor *audit.SpeedAuditor
}

// NewSpeedStep creates a new performance step.
func NewSpeedStep(opts ...audit.SpeedOption) *SpeedStep {
	return &SpeedStep{auditor: audit.NewSpeedAuditor(opts...)}
}

// Name returns the step name.
func (s *SpeedStep) Name() string { return "speed" }

// Do executes the performance audit. A missing Lighthouse binary is
// reported in the result, not returned as an error, so the rest of the
// pipeline still runs.
func (s *SpeedStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	report.Speed = s.auditor.Audit(ctx, report.TargetURL)
	return nil
}

// ImageMetadataStep flags privacy-sensitive metadata in the page's
// images.
type ImageMetadataStep struct {
	auditor *audit.ImageMetadataAuditor
	logger  *slog.Logger
}

// NewImageMetadataStep creates a new image metadata step.
func NewImageMetadataStep(client *fetch.Client, opts ...audit.ImageMetadataOption) *ImageMetadataStep {
	return &ImageMetadataStep{
		auditor: audit.NewImageMetadataAuditor(client, opts...),
		logger:  slog.Default(),
	}
}

// Name returns the step name.
func (s *ImageMetadataStep) Name() string { return "image_metadata" }

// Do executes the image metadata audit.
func (s *ImageMetadataStep) Do(ctx context.Context, report *model.SiteAuditReport) error {
	findings, err := s.auditor.Audit(ctx, report.TargetURL)
	if err != nil {
		// Partial findings are still worth keeping.
		s.logger.Warn("image metadata audit incomplete", "error", err)
	}
	report.ImageFindings = append(report.ImageFindings, findings...)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CrawlMaxPages is the maximum number of pages to crawl.
	CrawlMaxPages int

	// CrawlDelay is the politeness delay between page fetches.
	CrawlDelay time.Duration

	// MaxLinkChecks caps the links probed per link audit.
	MaxLinkChecks int

	// SkipSpeed disables the Lighthouse step, which needs a local
	// Chrome install.
	SkipSpeed bool

	// IgnorePatterns lists path globs the crawl skips.
	IgnorePatterns []string

	// FollowPatterns, when set, restricts the crawl to matching paths.
	FollowPatterns []string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCrawlMaxPages sets the maximum pages to crawl.
func WithPipelineCrawlMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlMaxPages = maxPages
	}
}

// WithPipelineCrawlDelay sets the politeness delay between fetches.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineMaxLinkChecks caps the links probed per link audit.
func WithPipelineMaxLinkChecks(limit int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxLinkChecks = limit
	}
}

// WithPipelineSkipSpeed disables the Lighthouse performance step.
func WithPipelineSkipSpeed(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipSpeed = skip
	}
}

// WithPipelineIgnorePatterns sets path globs the crawl skips.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns restricts the crawl to matching paths.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// DefaultPipeline creates a pipeline with all audit steps configured.
// This is the standard pipeline for a comprehensive site audit.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want all checks
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering
func DefaultPipeline(client *fetch.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		CrawlMaxPages: crawler.DefaultMaxPages,
		CrawlDelay:    crawler.DefaultDelay,
		MaxLinkChecks: audit.DefaultMaxLinkChecks,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewCrawlStep(client,
			WithCrawlMaxPages(cfg.CrawlMaxPages),
			WithCrawlDelay(cfg.CrawlDelay),
			WithCrawlIgnorePatterns(cfg.IgnorePatterns),
			WithCrawlFollowPatterns(cfg.FollowPatterns),
		),
		NewSEOStep(client),
		NewAccessibilityStep(client),
		NewLinksStep(client, audit.WithMaxLinkChecks(cfg.MaxLinkChecks)),
		NewInternalLinkingStep(client, audit.WithMaxLinkChecks(cfg.MaxLinkChecks)),
		NewSchemaStep(client),
		NewRobotsStep(client),
		NewHTTPSStep(client),
	)
	if !cfg.SkipSpeed {
		p.AddStep(NewSpeedStep())
	}
	p.AddStep(NewImageMetadataStep(client))

	return p
}
