package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/webaudit/webaudit/internal/model"
)

// Lighthouse invocation settings. Performance runs load the page in a
// headless browser, so the timeout is generous.
const (
	lighthouseBinary  = "lighthouse"
	lighthouseTimeout = 120 * time.Second
)

// speedMetricIDs are the Lighthouse audit IDs extracted into the report.
var speedMetricIDs = []string{
	"first-contentful-paint",
	"largest-contentful-paint",
	"interactive",
	"speed-index",
	"total-blocking-time",
	"cumulative-layout-shift",
}

// lighthouseRunner abstracts the CLI invocation so tests can substitute
// canned output for a real browser run.
type lighthouseRunner interface {
	Run(ctx context.Context, url, outputPath string) error
}

// cliRunner shells out to the lighthouse binary.
type cliRunner struct{}

func (cliRunner) Run(ctx context.Context, url, outputPath string) error {
	cmd := exec.CommandContext(ctx, lighthouseBinary, url,
		"--output=json",
		"--output-path="+outputPath,
		"--only-categories=performance",
		"--chrome-flags=--headless",
		"--quiet",
	)
	return cmd.Run()
}

// SpeedAuditor measures page performance with the Lighthouse CLI.
//
// Design decision: We shell out to Lighthouse rather than approximating
// its metrics because:
//  1. Core web vitals require a real browser rendering the page
//  2. Lighthouse's scoring model is the industry reference
//  3. A missing binary degrades to a clear, reported error
type SpeedAuditor struct {
	runner  lighthouseRunner
	timeout time.Duration
}

// SpeedOption configures a SpeedAuditor.
type SpeedOption func(*SpeedAuditor)

// WithSpeedTimeout overrides the Lighthouse run timeout.
func WithSpeedTimeout(timeout time.Duration) SpeedOption {
	return func(a *SpeedAuditor) {
		a.timeout = timeout
	}
}

// withRunner substitutes the CLI invocation, for tests.
func withRunner(runner lighthouseRunner) SpeedOption {
	return func(a *SpeedAuditor) {
		a.runner = runner
	}
}

// NewSpeedAuditor creates a SpeedAuditor.
func NewSpeedAuditor(opts ...SpeedOption) *SpeedAuditor {
	a := &SpeedAuditor{
		runner:  cliRunner{},
		timeout: lighthouseTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// lighthouseReport mirrors the parts of Lighthouse's JSON output we read.
type lighthouseReport struct {
	Categories struct {
		Performance struct {
			Score float64 `json:"score"`
		} `json:"performance"`
	} `json:"categories"`
	Audits map[string]struct {
		Title        string  `json:"title"`
		DisplayValue string  `json:"displayValue"`
		NumericValue float64 `json:"numericValue"`
		Score        float64 `json:"score"`
	} `json:"audits"`
}

// Audit runs Lighthouse against a URL and extracts the core metrics.
func (a *SpeedAuditor) Audit(ctx context.Context, rawURL string) *model.SpeedResult {
	result := &model.SpeedResult{URL: rawURL, Metrics: []model.SpeedMetric{}}

	if _, err := exec.LookPath(lighthouseBinary); err != nil {
		if _, isCLI := a.runner.(cliRunner); isCLI {
			result.Error = "Lighthouse CLI not found. Install it with: npm install -g lighthouse"
			return result
		}
	}

	outputPath := filepath.Join(os.TempDir(), fmt.Sprintf("lighthouse-%d.json", time.Now().UnixNano()))
	defer os.Remove(outputPath) //nolint:errcheck // best-effort cleanup

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.runner.Run(runCtx, rawURL, outputPath); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("Lighthouse timed out after %s", a.timeout)
		} else {
			result.Error = fmt.Sprintf("Lighthouse run failed: %v", err)
		}
		return result
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read Lighthouse output: %v", err)
		return result
	}

	var report lighthouseReport
	if err := json.Unmarshal(data, &report); err != nil {
		result.Error = fmt.Sprintf("failed to parse Lighthouse output: %v", err)
		return result
	}

	for _, id := range speedMetricIDs {
		auditEntry, ok := report.Audits[id]
		if !ok {
			continue
		}
		result.Metrics = append(result.Metrics, model.SpeedMetric{
			Name:         id,
			DisplayValue: auditEntry.DisplayValue,
			NumericValue: auditEntry.NumericValue,
			Score:        auditEntry.Score,
			Rating:       speedRating(auditEntry.Score),
		})
	}

	result.Score = int(report.Categories.Performance.Score * 100)
	result.Recommendations = speedRecommendations(result)
	return result
}

// speedRating buckets a normalized Lighthouse score.
func speedRating(score float64) string {
	switch {
	case score >= 0.9:
		return model.SpeedRatingGood
	case score >= 0.5:
		return model.SpeedRatingNeedsImprovement
	default:
		return model.SpeedRatingPoor
	}
}

// speedRecommendations derives advice from the metric ratings.
func speedRecommendations(result *model.SpeedResult) []string {
	recs := make([]string, 0)
	for _, metric := range result.Metrics {
		if metric.Rating == model.SpeedRatingPoor {
			recs = append(recs, fmt.Sprintf("Improve %s (currently %s).", metric.Name, metric.DisplayValue))
		}
	}
	switch {
	case result.Score >= 90:
		recs = append(recs, "Performance is excellent.")
	case result.Score >= 50:
		recs = append(recs, "Performance needs improvement; focus on the slowest metrics.")
	default:
		recs = append(recs, "Performance is poor; the page is likely frustrating on mobile connections.")
	}
	return recs
}
