package model

import (
	"time"

	"github.com/google/uuid"
)

// SiteAuditReport is the main audit result structure. It contains the
// output of every audit step performed against a target site.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage. Each audit populates its
// own optional sub-result, so a report is meaningful even when only some
// steps ran.
type SiteAuditReport struct {
	// ID uniquely identifies this audit run.
	ID string `json:"id"`

	// TargetURL is the site the audit was run against.
	TargetURL string `json:"target_url"`

	// StartedAt is when the audit began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the audit completed.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Crawl holds the crawl pages and summary, when the crawl step ran.
	Crawl *CrawlResult `json:"crawl,omitempty"`

	// SEO holds the combined on-page SEO audit.
	SEO *SEOAuditResult `json:"seo,omitempty"`

	// Accessibility holds the static accessibility audit.
	Accessibility *AccessibilityResult `json:"accessibility,omitempty"`

	// ExternalLinks holds the outbound link health report.
	ExternalLinks *ExternalLinksResult `json:"external_links,omitempty"`

	// InternalLinking holds the internal link structure report.
	InternalLinking *InternalLinkingResult `json:"internal_linking,omitempty"`

	// Schema holds the structured-data extraction report.
	Schema *SchemaResult `json:"schema,omitempty"`

	// Robots holds the robots.txt report.
	Robots *RobotsResult `json:"robots,omitempty"`

	// HTTPS holds the transport-security report.
	HTTPS *HTTPSResult `json:"https,omitempty"`

	// Speed holds the Lighthouse performance report.
	Speed *SpeedResult `json:"speed,omitempty"`

	// ImageFindings holds privacy findings from image metadata.
	ImageFindings []Finding `json:"image_findings,omitempty"`

	// PerformedAudits lists the audit steps that actually ran.
	PerformedAudits []string `json:"performed_audits,omitempty"`

	// TimedOut is true if the audit was terminated by its deadline.
	TimedOut bool `json:"timed_out"`

	// Error contains any error that occurred during the audit.
	// Only set if the audit failed or partially failed.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewSiteAuditReport creates a new report for the given target URL.
func NewSiteAuditReport(targetURL string) *SiteAuditReport {
	return &SiteAuditReport{
		ID:        uuid.NewString(),
		TargetURL: targetURL,
		StartedAt: time.Now(),
	}
}

// RecordAudit appends a step name to PerformedAudits.
func (r *SiteAuditReport) RecordAudit(name string) {
	r.PerformedAudits = append(r.PerformedAudits, name)
}

// OverallScore averages the scores of the audits that produced one.
// Returns 0 and false when no scored audit ran.
func (r *SiteAuditReport) OverallScore() (int, bool) {
	var total, count int
	if r.SEO != nil && r.SEO.Error == "" {
		total += r.SEO.OverallScore
		count++
	}
	if r.Accessibility != nil && r.Accessibility.Error == "" {
		total += r.Accessibility.Score
		count++
	}
	if r.InternalLinking != nil && r.InternalLinking.Error == "" {
		total += r.InternalLinking.Score
		count++
	}
	if r.HTTPS != nil && r.HTTPS.Error == "" {
		total += r.HTTPS.Score
		count++
	}
	if r.Speed != nil && r.Speed.Error == "" {
		total += r.Speed.Score
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / count, true
}

// FindingCounts buckets image findings by severity text.
func (r *SiteAuditReport) FindingCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.ImageFindings {
		counts[f.SeverityText]++
	}
	return counts
}
