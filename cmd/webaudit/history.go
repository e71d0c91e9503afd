package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/webaudit/webaudit/internal/config"
	"github.com/webaudit/webaudit/internal/database"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
	"github.com/webaudit/webaudit/internal/report"
)

// Constants for score trend direction.
const (
	trendImproved  = "improved"
	trendWorsened  = "worsened"
	trendUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command inspects audit results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-url]",
		Short: "Inspect and compare stored audit results",
		Long: `History lists past audits for a site and compares runs over time.

Audit reports are saved automatically by 'webaudit audit'. This command
shows the stored history and can compare the two most recent audits to
highlight score changes and new or resolved findings.

Examples:
  # List audit history for a site
  webaudit history --list https://example.com

  # Compare the latest two audits for a site
  webaudit history https://example.com

  # Show a stored audit report by ID
  webaudit history --show-id 5 https://example.com

  # List all audited sites in the database
  webaudit history --list-sites

  # Output the comparison in JSON format
  webaudit history --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all audited sites in the database")

	// Report retrieval flags
	cmd.Flags().Int64P("show-id", "i", 0,
		"Show a stored audit report by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-sites flag first (requires database but no site)
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-sites)
	var site string
	if !listSites {
		if len(args) == 0 {
			return errors.New("site URL is required (use --list-sites to see audited sites)")
		}

		u, err := fetch.ValidateURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid site URL: %w", err)
		}
		site = u.String()
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return listAuditedSites(ctx, db)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Handle --show-id flag
	showID, err := cmd.Flags().GetInt64("show-id")
	if err != nil {
		return err
	}
	if showID > 0 {
		return showAuditReport(ctx, db, site, showID, jsonOutput)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listAuditHistory(ctx, db, site)
	}

	// Default: compare the latest two audits
	return runComparison(ctx, db, site, jsonOutput)
}

// listAuditedSites lists all sites that have audit records in the database.
func listAuditedSites(ctx context.Context, db *database.AuditDB) error {
	sites, err := db.ListAuditedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No audited sites found in the database.")
		fmt.Println("\nUse 'webaudit audit <site-url>' to audit a site.")
		return nil
	}

	fmt.Printf("Audited sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'webaudit history --list <site-url>' to see audit history for a site.")

	return nil
}

// listAuditHistory lists all audit records for a specific site.
func listAuditHistory(ctx context.Context, db *database.AuditDB, site string) error {
	reports, err := db.GetAuditHistoryWithMetadata(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No audit history found for %s\n", site)
		fmt.Println("\nUse 'webaudit audit' to audit this site.")
		return nil
	}

	fmt.Printf("Audit history for %s (%d audits):\n\n", site, len(reports))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range reports {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatScoreSummary(meta.ScoreSummary),
		)
	}

	fmt.Println("\nUse 'webaudit history <site-url>' to compare the latest two audits.")
	fmt.Println("Use 'webaudit history --show-id <id> <site-url>' to display a stored report.")

	return nil
}

// formatScoreSummary formats the stored score summary map for display.
func formatScoreSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v, ok := summary["overall_score"]; ok {
		parts = append(parts, fmt.Sprintf("score:%d", v))
	}
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["serious"]; v > 0 {
		parts = append(parts, fmt.Sprintf("S:%d", v))
	}
	if v := summary["moderate"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["minor"]; v > 0 {
		parts = append(parts, fmt.Sprintf("m:%d", v))
	}

	if len(parts) == 0 {
		return "No findings"
	}
	return strings.Join(parts, " ")
}

// showAuditReport prints a stored audit report.
func showAuditReport(ctx context.Context, db *database.AuditDB, site string, id int64, jsonOutput bool) error {
	stored, err := db.GetAuditReportByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get audit with ID %d: %w", id, err)
	}
	if stored == nil {
		return fmt.Errorf("audit with ID %d not found", id)
	}
	if stored.TargetURL != site {
		return fmt.Errorf("audit ID %d belongs to %s, not %s", id, stored.TargetURL, site)
	}

	var w report.Writer
	if jsonOutput {
		w = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(os.Stdout)
	}
	_, err = w.Write(stored)
	return err
}

// runComparison compares the two most recent audits for a site.
func runComparison(ctx context.Context, db *database.AuditDB, site string, jsonOutput bool) error {
	reports, err := db.GetAuditHistory(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no audit history found for %s", site)
	}
	if len(reports) < 2 {
		return fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(reports))
	}

	// History is sorted newest first.
	comparison := compareReports(reports[1], reports[0])

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two audit reports.
type ComparisonResult struct {
	// Site is the audited site.
	Site string `json:"site"`

	// PreviousAudit contains metadata about the previous audit.
	PreviousAudit AuditMetadata `json:"previous_audit"`

	// CurrentAudit contains metadata about the current audit.
	CurrentAudit AuditMetadata `json:"current_audit"`

	// ScoreChanges lists per-category score deltas.
	ScoreChanges []ScoreChange `json:"score_changes,omitempty"`

	// NewFindings contains findings that are new in the current audit.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings from the previous audit that are gone.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings present in both audits.
	UnchangedCount int `json:"unchanged_count"`

	// Trend is "improved", "worsened", or "unchanged".
	Trend string `json:"trend"`
}

// AuditMetadata contains metadata about one audit for comparison display.
type AuditMetadata struct {
	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// OverallScore is the averaged category score, when available.
	OverallScore int `json:"overall_score"`

	// Scored is false when no category produced a score.
	Scored bool `json:"scored"`

	// TotalFindings is the total number of findings in this audit.
	TotalFindings int `json:"total_findings"`
}

// ScoreChange describes how one category score moved between audits.
type ScoreChange struct {
	// Category is the audit category, such as "seo" or "https".
	Category string `json:"category"`

	// Previous is the category score in the previous audit, -1 if absent.
	Previous int `json:"previous"`

	// Current is the category score in the current audit, -1 if absent.
	Current int `json:"current"`
}

// compareReports compares two audit reports and generates a comparison result.
func compareReports(previous, current *model.SiteAuditReport) *ComparisonResult {
	prevSummary := model.NewAuditSummary(previous)
	currSummary := model.NewAuditSummary(current)

	result := &ComparisonResult{
		Site: current.TargetURL,
		PreviousAudit: AuditMetadata{
			DateAudited:   previous.StartedAt,
			OverallScore:  prevSummary.OverallScore,
			Scored:        prevSummary.Scored,
			TotalFindings: prevSummary.TotalFindings(),
		},
		CurrentAudit: AuditMetadata{
			DateAudited:   current.StartedAt,
			OverallScore:  currSummary.OverallScore,
			Scored:        currSummary.Scored,
			TotalFindings: currSummary.TotalFindings(),
		},
	}

	result.ScoreChanges = compareScores(prevSummary, currSummary)

	// Build finding maps for comparison
	previousFindings := make(map[string]model.Finding)
	for _, f := range prevSummary.Findings {
		previousFindings[findingKey(f)] = f
	}
	currentFindings := make(map[string]model.Finding)
	for _, f := range currSummary.Findings {
		currentFindings[findingKey(f)] = f
	}

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	result.Trend = scoreTrend(prevSummary, currSummary)

	return result
}

// compareScores pairs up category scores from both summaries.
// Categories absent from one side are reported with a -1 score.
func compareScores(previous, current *model.AuditSummary) []ScoreChange {
	prevScores := make(map[string]int, len(previous.CategoryScores))
	for _, cs := range previous.CategoryScores {
		prevScores[cs.Name] = cs.Score
	}

	var changes []ScoreChange
	seen := make(map[string]struct{})
	for _, cs := range current.CategoryScores {
		prev, ok := prevScores[cs.Name]
		if !ok {
			prev = -1
		}
		changes = append(changes, ScoreChange{Category: cs.Name, Previous: prev, Current: cs.Score})
		seen[cs.Name] = struct{}{}
	}
	for _, cs := range previous.CategoryScores {
		if _, ok := seen[cs.Name]; ok {
			continue
		}
		changes = append(changes, ScoreChange{Category: cs.Name, Previous: cs.Score, Current: -1})
	}
	return changes
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// scoreTrend determines the overall trend between two audits.
// The overall score decides when both audits are scored; otherwise the
// weighted finding counts decide.
func scoreTrend(previous, current *model.AuditSummary) string {
	if previous.Scored && current.Scored {
		switch {
		case current.OverallScore > previous.OverallScore:
			return trendImproved
		case current.OverallScore < previous.OverallScore:
			return trendWorsened
		}
	}

	previousWeight := previous.CriticalCount*100 + previous.SeriousCount*50 +
		previous.ModerateCount*10 + previous.MinorCount
	currentWeight := current.CriticalCount*100 + current.SeriousCount*50 +
		current.ModerateCount*10 + current.MinorCount

	switch {
	case currentWeight < previousWeight:
		return trendImproved
	case currentWeight > previousWeight:
		return trendWorsened
	default:
		return trendUnchanged
	}
}

// outputComparisonText outputs the comparison in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Audit Comparison: %s\n", result.Site)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nTrend: %s\n", formatTrend(result.Trend))

	fmt.Printf("\nPrevious audit: %s\n", result.PreviousAudit.DateAudited.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current audit:  %s\n", result.CurrentAudit.DateAudited.Format("2006-01-02 15:04:05"))

	if len(result.ScoreChanges) > 0 {
		fmt.Println("\nScores:")
		fmt.Printf("  %-18s  %-10s  %-10s  %-10s\n", "Category", "Previous", "Current", "Change")
		fmt.Println("  " + strings.Repeat("-", 52))
		for _, sc := range result.ScoreChanges {
			fmt.Printf("  %-18s  %-10s  %-10s  %-10s\n",
				sc.Category,
				formatScore(sc.Previous),
				formatScore(sc.Current),
				formatScoreDelta(sc),
			)
		}
		if result.PreviousAudit.Scored && result.CurrentAudit.Scored {
			fmt.Println("  " + strings.Repeat("-", 52))
			fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "OVERALL",
				result.PreviousAudit.OverallScore,
				result.CurrentAudit.OverallScore,
				formatDelta(result.CurrentAudit.OverallScore-result.PreviousAudit.OverallScore))
		}
	}

	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("      Location: %s\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatTrend formats the trend direction for display.
func formatTrend(trend string) string {
	switch trend {
	case trendImproved:
		return "IMPROVED (score increased or findings decreased)"
	case trendWorsened:
		return "WORSENED (score decreased or findings increased)"
	default:
		return "UNCHANGED"
	}
}

// formatScore formats a category score, showing "-" for absent categories.
func formatScore(score int) string {
	if score < 0 {
		return "-"
	}
	return strconv.Itoa(score)
}

// formatScoreDelta formats the delta for a score change row.
func formatScoreDelta(sc ScoreChange) string {
	if sc.Previous < 0 || sc.Current < 0 {
		return "-"
	}
	return formatDelta(sc.Current - sc.Previous)
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
