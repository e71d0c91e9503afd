package audit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/webaudit/webaudit/internal/model"
)

// fakeRunner writes canned Lighthouse JSON instead of launching a browser.
type fakeRunner struct {
	output string
	err    error
	block  bool
}

func (r fakeRunner) Run(ctx context.Context, _, outputPath string) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(outputPath, []byte(r.output), 0o600)
}

const fakeLighthouseOutput = `{
  "categories": {"performance": {"score": 0.92}},
  "audits": {
    "first-contentful-paint": {"title": "First Contentful Paint", "displayValue": "1.2 s", "numericValue": 1200, "score": 0.95},
    "largest-contentful-paint": {"title": "Largest Contentful Paint", "displayValue": "2.1 s", "numericValue": 2100, "score": 0.88},
    "interactive": {"title": "Time to Interactive", "displayValue": "3.0 s", "numericValue": 3000, "score": 0.75},
    "speed-index": {"title": "Speed Index", "displayValue": "2.5 s", "numericValue": 2500, "score": 0.9},
    "total-blocking-time": {"title": "Total Blocking Time", "displayValue": "150 ms", "numericValue": 150, "score": 0.85},
    "cumulative-layout-shift": {"title": "Cumulative Layout Shift", "displayValue": "0.4", "numericValue": 0.4, "score": 0.3},
    "unrelated-audit": {"title": "Unrelated", "displayValue": "", "numericValue": 0, "score": 1}
  }
}`

func TestSpeedRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{1.0, model.SpeedRatingGood},
		{0.9, model.SpeedRatingGood},
		{0.89, model.SpeedRatingNeedsImprovement},
		{0.5, model.SpeedRatingNeedsImprovement},
		{0.49, model.SpeedRatingPoor},
		{0, model.SpeedRatingPoor},
	}

	for _, tt := range tests {
		if got := speedRating(tt.score); got != tt.want {
			t.Errorf("speedRating(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSpeedAuditorAudit(t *testing.T) {
	t.Parallel()

	t.Run("parses lighthouse output", func(t *testing.T) {
		t.Parallel()

		auditor := NewSpeedAuditor(withRunner(fakeRunner{output: fakeLighthouseOutput}))
		result := auditor.Audit(context.Background(), "https://example.com")

		if result.Error != "" {
			t.Fatalf("unexpected error: %s", result.Error)
		}
		if result.Score != 92 {
			t.Errorf("expected score 92, got %d", result.Score)
		}
		if len(result.Metrics) != 6 {
			t.Fatalf("expected 6 metrics, got %d", len(result.Metrics))
		}

		byName := make(map[string]model.SpeedMetric)
		for _, m := range result.Metrics {
			byName[m.Name] = m
		}
		if _, ok := byName["unrelated-audit"]; ok {
			t.Error("unrelated audits must not be included")
		}
		if byName["first-contentful-paint"].Rating != model.SpeedRatingGood {
			t.Errorf("unexpected FCP rating: %+v", byName["first-contentful-paint"])
		}
		if byName["cumulative-layout-shift"].Rating != model.SpeedRatingPoor {
			t.Errorf("unexpected CLS rating: %+v", byName["cumulative-layout-shift"])
		}

		foundCLSRec := false
		for _, rec := range result.Recommendations {
			if rec == "Improve cumulative-layout-shift (currently 0.4)." {
				foundCLSRec = true
			}
		}
		if !foundCLSRec {
			t.Errorf("expected poor-metric recommendation, got %v", result.Recommendations)
		}
	})

	t.Run("run failure is reported", func(t *testing.T) {
		t.Parallel()

		auditor := NewSpeedAuditor(withRunner(fakeRunner{err: errors.New("chrome crashed")}))
		result := auditor.Audit(context.Background(), "https://example.com")

		if result.Error == "" {
			t.Fatal("expected an error")
		}
	})

	t.Run("timeout is reported", func(t *testing.T) {
		t.Parallel()

		auditor := NewSpeedAuditor(withRunner(fakeRunner{block: true}), WithSpeedTimeout(10*time.Millisecond))
		result := auditor.Audit(context.Background(), "https://example.com")

		if result.Error != "Lighthouse timed out after 10ms" {
			t.Errorf("unexpected error: %q", result.Error)
		}
	})

	t.Run("malformed output is reported", func(t *testing.T) {
		t.Parallel()

		auditor := NewSpeedAuditor(withRunner(fakeRunner{output: "not json"}))
		result := auditor.Audit(context.Background(), "https://example.com")

		if result.Error == "" {
			t.Fatal("expected a parse error")
		}
	})
}
