package model

import "time"

// CategoryScore is one scored audit category in a summary.
type CategoryScore struct {
	// Name is the audit category, such as "seo" or "https".
	Name string `json:"name"`

	// Score is the category score in [0, 100].
	Score int `json:"score"`
}

// AuditSummary condenses a SiteAuditReport into the facts a reader wants
// first: the scores, the finding counts, and the recommendations.
//
// Design decision: We keep the summary as a separate struct generated from
// the full report rather than computing it in each report writer. This way
// every output format (text, markdown, JSON) presents the same numbers.
type AuditSummary struct {
	// TargetURL is the audited site.
	TargetURL string `json:"target_url"`

	// DateAudited is when the audit began.
	DateAudited time.Time `json:"date_audited"`

	// PagesCrawled is the number of pages visited during the crawl step.
	PagesCrawled int `json:"pages_crawled"`

	// TimedOut is true if the audit was terminated by its deadline.
	TimedOut bool `json:"timed_out"`

	// Error holds the audit-level error message, if any.
	Error string `json:"error,omitempty"`

	// OverallScore averages the scored categories. Only meaningful
	// when Scored is true.
	OverallScore int `json:"overall_score"`

	// Scored is false when no category produced a score.
	Scored bool `json:"scored"`

	// CategoryScores lists the per-category scores in audit order.
	CategoryScores []CategoryScore `json:"category_scores,omitempty"`

	// Finding counts by severity.
	CriticalCount int `json:"critical_count"`
	SeriousCount  int `json:"serious_count"`
	ModerateCount int `json:"moderate_count"`
	MinorCount    int `json:"minor_count"`

	// Findings lists the individual findings, most severe first.
	Findings []Finding `json:"findings,omitempty"`

	// Recommendations aggregates the advice from every audit that ran.
	Recommendations []string `json:"recommendations,omitempty"`
}

// NewAuditSummary builds an AuditSummary from a full report.
func NewAuditSummary(r *SiteAuditReport) *AuditSummary {
	s := &AuditSummary{
		TargetURL:   r.TargetURL,
		DateAudited: r.StartedAt,
		TimedOut:    r.TimedOut,
		Error:       r.ErrorMessage,
	}

	if r.Crawl != nil {
		s.PagesCrawled = r.Crawl.Summary.TotalPages
	}

	s.OverallScore, s.Scored = r.OverallScore()

	// Collect category scores in the order the audits run.
	if r.SEO != nil && r.SEO.Error == "" {
		s.CategoryScores = append(s.CategoryScores, CategoryScore{Name: "seo", Score: r.SEO.OverallScore})
		s.Recommendations = append(s.Recommendations, r.SEO.Recommendations...)
	}
	if r.Accessibility != nil && r.Accessibility.Error == "" {
		s.CategoryScores = append(s.CategoryScores, CategoryScore{Name: "accessibility", Score: r.Accessibility.Score})
		s.Recommendations = append(s.Recommendations, r.Accessibility.Recommendations...)
	}
	if r.ExternalLinks != nil && r.ExternalLinks.Error == "" {
		s.Recommendations = append(s.Recommendations, r.ExternalLinks.Recommendations...)
	}
	if r.InternalLinking != nil && r.InternalLinking.Error == "" {
		s.CategoryScores = append(s.CategoryScores, CategoryScore{Name: "internal_linking", Score: r.InternalLinking.Score})
		s.Recommendations = append(s.Recommendations, r.InternalLinking.Recommendations...)
	}
	if r.Schema != nil && r.Schema.Error == "" {
		s.Recommendations = append(s.Recommendations, r.Schema.Recommendations...)
	}
	if r.Robots != nil && r.Robots.Error == "" {
		s.Recommendations = append(s.Recommendations, r.Robots.Recommendations...)
	}
	if r.HTTPS != nil && r.HTTPS.Error == "" {
		s.CategoryScores = append(s.CategoryScores, CategoryScore{Name: "https", Score: r.HTTPS.Score})
		s.Recommendations = append(s.Recommendations, r.HTTPS.Recommendations...)
	}
	if r.Speed != nil && r.Speed.Error == "" {
		s.CategoryScores = append(s.CategoryScores, CategoryScore{Name: "speed", Score: r.Speed.Score})
		s.Recommendations = append(s.Recommendations, r.Speed.Recommendations...)
	}

	// Findings ordered most severe first.
	for _, severity := range []Severity{SeverityCritical, SeveritySerious, SeverityModerate, SeverityMinor} {
		for _, f := range r.ImageFindings {
			if f.Severity == severity {
				s.Findings = append(s.Findings, f)
			}
		}
	}
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeveritySerious:
			s.SeriousCount++
		case SeverityModerate:
			s.ModerateCount++
		case SeverityMinor:
			s.MinorCount++
		}
	}

	return s
}

// TotalFindings returns the number of findings across all severities.
func (s *AuditSummary) TotalFindings() int {
	return s.CriticalCount + s.SeriousCount + s.ModerateCount + s.MinorCount
}

// HasFindings reports whether any finding was recorded.
func (s *AuditSummary) HasFindings() bool {
	return s.TotalFindings() > 0
}

// GetFindingsBySeverity returns the findings with the given severity.
func (s *AuditSummary) GetFindingsBySeverity(severity Severity) []Finding {
	var out []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}
