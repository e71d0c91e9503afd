package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/webaudit/webaudit/internal/model"
)

// recordingStep records its execution and optionally fails.
type recordingStep struct {
	name string
	err  error

	mu       sync.Mutex
	executed bool
}

func (s *recordingStep) Do(_ context.Context, _ *model.SiteAuditReport) error {
	s.mu.Lock()
	s.executed = true
	s.mu.Unlock()
	return s.err
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) wasExecuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"first", "second", "third"} {
			p.AddStep(&funcStep{name: name, fn: func(name string) func() {
				return func() { order = append(order, name) }
			}(name)})
		}

		report := model.NewSiteAuditReport("https://example.com")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 3 || order[0] != "first" || order[2] != "third" {
			t.Errorf("unexpected execution order: %v", order)
		}
		if len(report.PerformedAudits) != 3 {
			t.Errorf("expected 3 performed audits, got %v", report.PerformedAudits)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		failing := &recordingStep{name: "failing", err: errors.New("boom")}
		after := &recordingStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		report := model.NewSiteAuditReport("https://example.com")
		if err := p.Execute(context.Background(), report); err == nil {
			t.Fatal("expected an error")
		}
		if after.wasExecuted() {
			t.Error("steps after a failure must not run by default")
		}
		if report.ErrorMessage != "boom" {
			t.Errorf("expected error recorded in report, got %q", report.ErrorMessage)
		}
	})

	t.Run("continue on error runs all steps", func(t *testing.T) {
		t.Parallel()

		failing := &recordingStep{name: "failing", err: errors.New("boom")}
		after := &recordingStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		report := model.NewSiteAuditReport("https://example.com")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error with continueOnError: %v", err)
		}
		if !after.wasExecuted() {
			t.Error("expected the second step to run")
		}
		if len(report.PerformedAudits) != 2 {
			t.Errorf("expected both audits recorded, got %v", report.PerformedAudits)
		}
	})

	t.Run("cancelled context marks report timed out", func(t *testing.T) {
		t.Parallel()

		step := &recordingStep{name: "never"}
		p := New()
		p.AddStep(step)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := model.NewSiteAuditReport("https://example.com")
		if err := p.Execute(ctx, report); err == nil {
			t.Fatal("expected a cancellation error")
		}
		if !report.TimedOut {
			t.Error("expected TimedOut to be set")
		}
		if step.wasExecuted() {
			t.Error("steps must not run after cancellation")
		}
	})

	t.Run("step names", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&recordingStep{name: "a"}, &recordingStep{name: "b"})
		if p.StepCount() != 2 {
			t.Errorf("expected 2 steps, got %d", p.StepCount())
		}
		names := p.StepNames()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("unexpected names: %v", names)
		}
	})
}

// funcStep adapts a closure to the Step interface.
type funcStep struct {
	name string
	fn   func()
}

func (s *funcStep) Do(context.Context, *model.SiteAuditReport) error {
	s.fn()
	return nil
}

func (s *funcStep) Name() string { return s.name }

func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("preserves input order", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&recordingStep{name: "noop"})
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2))
		targets := []string{"https://a.test", "https://b.test", "https://c.test"}
		reports, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(reports))
		}
		for i, report := range reports {
			if report.TargetURL != targets[i] {
				t.Errorf("report %d: expected %q, got %q", i, targets[i], report.TargetURL)
			}
			if report.FinishedAt.IsZero() {
				t.Errorf("report %d: expected FinishedAt to be set", i)
			}
		}
	})

	t.Run("failed audits still produce reports", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&recordingStep{name: "failing", err: errors.New("down")})
			return p
		}

		bp := NewBatchProcessor(factory)
		reports, err := bp.ProcessBatch(context.Background(), []string{"https://a.test"})
		if err != nil {
			t.Fatalf("unexpected batch error: %v", err)
		}
		if len(reports) != 1 || reports[0].ErrorMessage != "down" {
			t.Errorf("expected the failure recorded in the report, got %+v", reports[0])
		}
	})

	t.Run("callback receives every report", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&recordingStep{name: "noop"})
			return p
		}

		var mu sync.Mutex
		seen := make(map[int]string)

		bp := NewBatchProcessor(factory, WithConcurrency(3))
		targets := []string{"https://a.test", "https://b.test"}
		err := bp.ProcessBatchWithCallback(context.Background(), targets,
			func(report *model.SiteAuditReport, index int) {
				mu.Lock()
				seen[index] = report.TargetURL
				mu.Unlock()
			})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 2 || seen[0] != targets[0] || seen[1] != targets[1] {
			t.Errorf("unexpected callback results: %v", seen)
		}
	})
}
