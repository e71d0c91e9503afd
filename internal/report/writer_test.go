package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/webaudit/webaudit/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.SiteAuditReport {
	report := model.NewSiteAuditReport("https://example.com")
	report.Crawl = &model.CrawlResult{
		StartURL: "https://example.com",
		Summary:  model.CrawlSummary{TotalPages: 5},
	}
	report.SEO = &model.SEOAuditResult{
		URL:          "https://example.com",
		OverallScore: 72,
		Recommendations: []string{
			"Add a meta description to the home page",
		},
	}
	report.Accessibility = &model.AccessibilityResult{
		URL:   "https://example.com",
		Score: 88,
		Recommendations: []string{
			"Label the search input",
		},
	}
	report.HTTPS = &model.HTTPSResult{
		URL:   "https://example.com",
		Score: 95,
	}

	// Add some findings
	gps := model.NewFinding("exif_gps", "GPS Coordinates in Image",
		"The image embeds GPS coordinates that reveal where it was taken.",
		model.SeverityCritical)
	gps.Value = "48.8584, 2.2945"
	gps.Location = "https://example.com/photo.jpg"
	report.ImageFindings = append(report.ImageFindings, gps)

	camera := model.NewFinding("exif_camera", "Camera Model in Image",
		"The image embeds the camera make and model.",
		model.SeverityModerate)
	camera.Value = "Canon EOS R5"
	camera.Location = "https://example.com/photo.jpg"
	report.ImageFindings = append(report.ImageFindings, camera)

	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "WEBSITE AUDIT REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain target site")
		}
		if !strings.Contains(output, "Pages Crawled:  5") {
			t.Error("expected output to contain page count")
		}
	})

	t.Run("writes scores", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SCORES") {
			t.Error("expected output to contain scores section")
		}
		if !strings.Contains(output, "seo:") {
			t.Error("expected output to contain seo category")
		}
		if !strings.Contains(output, "OVERALL:") {
			t.Error("expected output to contain overall score")
		}
	})

	t.Run("writes findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FINDINGS") {
			t.Error("expected output to contain findings section")
		}
		if !strings.Contains(output, "CRITICAL: 1") {
			t.Error("expected output to contain critical count")
		}
		if !strings.Contains(output, "GPS Coordinates in Image") {
			t.Error("expected output to contain GPS finding")
		}
	})

	t.Run("writes recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "RECOMMENDATIONS") {
			t.Error("expected output to contain recommendations section")
		}
		if !strings.Contains(output, "Add a meta description to the home page") {
			t.Error("expected output to contain SEO recommendation")
		}
	})

	t.Run("verbose mode includes descriptions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Description:") {
			t.Error("expected verbose output to contain descriptions")
		}
	})

	t.Run("handles timed out report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := createTestReport()
		report.TimedOut = true

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "TIMED OUT") {
			t.Error("expected output to indicate timeout")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify it's valid JSON
		var parsed model.SiteAuditReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.TargetURL != "https://example.com" {
			t.Errorf("expected target %q, got %q",
				"https://example.com", parsed.TargetURL)
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Compact JSON should be on fewer lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Pretty printed JSON should have multiple lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("WriteSummary outputs summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		summary := &model.AuditSummary{
			TargetURL:     "https://example.com",
			DateAudited:   time.Now(),
			CriticalCount: 1,
		}

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.AuditSummary
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.CriticalCount != 1 {
			t.Errorf("expected critical count 1, got %d", parsed.CriticalCount)
		}
	})
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes version in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.0.0", WithPrettyPrint())
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Version != "1.0.0" {
			t.Errorf("expected version %q, got %q", "1.0.0", parsed.Version)
		}
		if parsed.Summary == nil {
			t.Fatal("expected summary in wrapped output")
		}
		if parsed.Summary.CriticalCount != 1 {
			t.Errorf("expected critical count 1, got %d", parsed.Summary.CriticalCount)
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		w1 := NewSimpleWriter(&buf1)
		w2 := NewJSONWriter(&buf2)

		multi := NewMultiWriter(w1, w2)
		report := createTestReport()

		_, err := multi.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Check both buffers have content
		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()
		summary := &model.AuditSummary{
			TargetURL: "https://example.com",
		}

		n, err := multi.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestSimpleWriterSeverityIndicators tests severity indicators for all levels.
func TestSimpleWriterSeverityIndicators(t *testing.T) {
	t.Parallel()

	t.Run("shows all severity levels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		report := model.NewSiteAuditReport("https://example.com")

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// With showEmpty, all severity levels should be shown
		if !strings.Contains(output, "[!!!]") {
			t.Error("expected critical indicator [!!!]")
		}
		if !strings.Contains(output, "[!!]") {
			t.Error("expected serious indicator [!!]")
		}
		if !strings.Contains(output, "[!]") {
			t.Error("expected moderate indicator [!]")
		}
		if !strings.Contains(output, "[-]") {
			t.Error("expected minor indicator [-]")
		}
	})
}

// TestSimpleWriterWithError tests report with error status.
func TestSimpleWriterWithError(t *testing.T) {
	t.Parallel()

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := model.NewSiteAuditReport("https://broken.example.com")
		report.ErrorMessage = "connection timeout"

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ERROR") {
			t.Error("expected ERROR in status")
		}
		if !strings.Contains(output, "connection timeout") {
			t.Error("expected error message in output")
		}
	})
}

// TestSimpleWriterNoScores tests a report where no scored audit ran.
func TestSimpleWriterNoScores(t *testing.T) {
	t.Parallel()

	t.Run("notes when no scored audits ran", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := model.NewSiteAuditReport("https://example.com")

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No scored audits ran") {
			t.Error("expected note about missing scores")
		}
	})
}

// TestWithIndent tests the WithIndent JSON option.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should have multiple lines with custom formatting
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
		// Check that prefix is used
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		// Check that tab indent is used
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})

	t.Run("uses empty prefix with space indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent("", "    "))
		summary := &model.AuditSummary{
			TargetURL:   "https://example.com",
			DateAudited: time.Now(),
		}

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should have 4-space indentation
		if !strings.Contains(output, "    ") {
			t.Error("expected 4-space indentation in output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Website Audit Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain target site")
		}
	})

	t.Run("writes scores table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Scores") {
			t.Error("expected output to contain scores header")
		}
		if !strings.Contains(output, "accessibility") {
			t.Error("expected output to contain accessibility category")
		}
		if !strings.Contains(output, "**overall**") {
			t.Error("expected output to contain overall score row")
		}
	})

	t.Run("writes findings table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Findings") {
			t.Error("expected output to contain findings header")
		}
		if !strings.Contains(output, "🔴 Critical") {
			t.Error("expected output to contain critical severity indicator")
		}
		if !strings.Contains(output, "GPS Coordinates in Image") {
			t.Error("expected output to contain GPS finding")
		}
	})

	t.Run("handles timed out report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()
		report.TimedOut = true

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Timed Out") {
			t.Error("expected output to indicate timeout")
		}
	})

	t.Run("includes GitHub alert for critical findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected output to contain CAUTION alert for critical findings")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("includes recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Recommendations") {
			t.Error("expected recommendations header in output")
		}
		if !strings.Contains(output, "Label the search input") {
			t.Error("expected accessibility recommendation in output")
		}
	})

	t.Run("includes details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should include <details> tags
		if !strings.Contains(output, "<details>") {
			t.Error("expected output to contain details tags")
		}
	})

	t.Run("WriteSummary outputs summary directly", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		summary := &model.AuditSummary{
			TargetURL:   "https://direct.example.com",
			DateAudited: time.Now(),
		}

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://direct.example.com") {
			t.Error("expected target site in output")
		}
	})

	t.Run("handles report with no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewSiteAuditReport("https://clean.example.com")

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No findings detected") {
			t.Error("expected message about no findings")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://github.com/webaudit/webaudit") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestMarkdownWriterWithError tests report with error status.
func TestMarkdownWriterWithError(t *testing.T) {
	t.Parallel()

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewSiteAuditReport("https://broken.example.com")
		report.ErrorMessage = "connection failed"

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Error") {
			t.Error("expected Error in status")
		}
		if !strings.Contains(output, "connection failed") {
			t.Error("expected error message in output")
		}
	})
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
