package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/webaudit/webaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// It generates an AuditSummary from the SiteAuditReport.
func (w *SimpleWriter) Write(report *model.SiteAuditReport) (int, error) {
	return w.WriteSummary(model.NewAuditSummary(report))
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.AuditSummary) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, summary)

	// Scores
	w.writeScores(&sb, summary)

	// Findings by severity
	w.writeFindings(&sb, summary)

	// Recommendations
	w.writeRecommendations(&sb, summary)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.AuditSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        WEBSITE AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target Site:    %s\n", summary.TargetURL))
	sb.WriteString(fmt.Sprintf("Audit Date:     %s\n", summary.DateAudited.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", summary.PagesCrawled))

	if summary.TimedOut {
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	} else if summary.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", summary.Error))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeScores writes the category score section.
func (w *SimpleWriter) writeScores(sb *strings.Builder, summary *model.AuditSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !summary.Scored {
		sb.WriteString("  No scored audits ran.\n\n")
		return
	}

	for _, category := range summary.CategoryScores {
		sb.WriteString(fmt.Sprintf("  %-18s %3d / 100\n", category.Name+":", category.Score))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %-18s %3d / 100\n", "OVERALL:", summary.OverallScore))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, summary *model.AuditSummary) {
	if !summary.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", summary.CriticalCount))
	sb.WriteString(fmt.Sprintf("  SERIOUS:  %d\n", summary.SeriousCount))
	sb.WriteString(fmt.Sprintf("  MODERATE: %d\n", summary.ModerateCount))
	sb.WriteString(fmt.Sprintf("  MINOR:    %d\n", summary.MinorCount))
	sb.WriteString("\n")

	// Write findings in order of severity (critical first)
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeveritySerious,
		model.SeverityModerate,
		model.SeverityMinor,
	}

	for _, severity := range severities {
		findings := summary.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	// Severity header with visual indicator
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, strings.ToUpper(severity.String())))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if finding.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Location))
		}
		if w.verbose && finding.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeveritySerious:
		return "!!"
	case model.SeverityModerate:
		return "!"
	case model.SeverityMinor:
		return "-"
	default:
		return "?"
	}
}

// writeRecommendations writes the aggregated recommendation list.
func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, summary *model.AuditSummary) {
	if len(summary.Recommendations) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECOMMENDATIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Recommendations) == 0 {
		sb.WriteString("  No recommendations.\n")
	} else {
		for _, rec := range summary.Recommendations {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", rec))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by webaudit\n")
	sb.WriteString("https://github.com/webaudit/webaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
