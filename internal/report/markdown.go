package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/webaudit/webaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SiteAuditReport) (int, error) {
	return w.WriteSummary(model.NewAuditSummary(report))
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.AuditSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, summary)

	// Scores
	w.writeScores(md, summary)

	// Findings by severity
	w.writeFindings(md, summary)

	// Recommendations
	w.writeRecommendations(md, summary)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.AuditSummary) {
	md.H1("Website Audit Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target Site", "`" + summary.TargetURL + "`"},
			{"Audit Date", summary.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(summary.PagesCrawled)},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.AuditSummary) string {
	if summary.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if summary.Error != "" {
		return "❌ Error - " + summary.Error
	}
	return "✅ Complete"
}

// writeScores writes the category score section.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, summary *model.AuditSummary) {
	md.H2("Scores")
	md.PlainText("")

	if !summary.Scored {
		md.PlainText("No scored audits ran.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.CategoryScores)+1)
	for _, category := range summary.CategoryScores {
		rows = append(rows, []string{category.Name, strconv.Itoa(category.Score)})
	}
	rows = append(rows, []string{"**overall**", "**" + strconv.Itoa(summary.OverallScore) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add alert based on the overall score
	w.writeScoreAlert(md, summary)
}

// writeScoreAlert writes an appropriate alert based on the overall score.
func (w *MarkdownWriter) writeScoreAlert(md *markdown.Markdown, summary *model.AuditSummary) {
	switch {
	case summary.CriticalCount > 0:
		md.Cautionf(
			"Critical issues detected! %d critical finding(s) require immediate attention.",
			summary.CriticalCount,
		)
	case summary.OverallScore < 50:
		md.Warningf(
			"Overall score %d/100. The site needs significant improvement.",
			summary.OverallScore,
		)
	case summary.OverallScore < 80:
		md.Importantf(
			"Overall score %d/100. Several audits found room for improvement.",
			summary.OverallScore,
		)
	default:
		md.Tip(fmt.Sprintf("Overall score %d/100. The site is in good shape.", summary.OverallScore))
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, summary *model.AuditSummary) {
	md.H2("Findings")
	md.PlainText("")

	if !summary.HasFindings() {
		md.PlainText("No findings detected.")
		md.PlainText("")
		return
	}

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(summary.CriticalCount)},
			{"🟠 Serious", strconv.Itoa(summary.SeriousCount)},
			{"🟡 Moderate", strconv.Itoa(summary.ModerateCount)},
			{"🔵 Minor", strconv.Itoa(summary.MinorCount)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	w.writePieChart(md, summary)

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeveritySerious, "### 🟠 Serious"},
		{model.SeverityModerate, "### 🟡 Moderate"},
		{model.SeverityMinor, "### 🔵 Minor"},
	}

	for _, sev := range severities {
		findings := summary.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.AuditSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if summary.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(summary.CriticalCount))
	}
	if summary.SeriousCount > 0 {
		chart.LabelAndIntValue("Serious", uint64(summary.SeriousCount))
	}
	if summary.ModerateCount > 0 {
		chart.LabelAndIntValue("Moderate", uint64(summary.ModerateCount))
	}
	if summary.MinorCount > 0 {
		chart.LabelAndIntValue("Minor", uint64(summary.MinorCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "Value", "Location"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		location := f.Location
		if location == "" {
			location = "-"
		}

		rows[i] = []string{
			escapePipes(f.Title),
			escapePipes(truncateString(value, 50)),
			escapePipes(truncateString(location, 40)),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add detailed descriptions for all findings
	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeRecommendations writes the aggregated recommendation list.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, summary *model.AuditSummary) {
	md.H2("Recommendations")
	md.PlainText("")

	if len(summary.Recommendations) == 0 {
		md.PlainText("No recommendations.")
		md.PlainText("")
		return
	}

	md.BulletList(summary.Recommendations...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webaudit](https://github.com/webaudit/webaudit)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// escapePipes makes a string safe for use inside a markdown table cell.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
