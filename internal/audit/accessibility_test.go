package audit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/fetch"
)

func TestParseCSSColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want rgb
		ok   bool
	}{
		{"#000000", rgb{0, 0, 0}, true},
		{"#FFFFFF", rgb{255, 255, 255}, true},
		{"#abc", rgb{0xaa, 0xbb, 0xcc}, true},
		{"rgb(12, 34, 56)", rgb{12, 34, 56}, true},
		{"white", rgb{255, 255, 255}, true},
		{"Black", rgb{0, 0, 0}, true},
		{"rgb(300,0,0)", rgb{}, false},
		{"#12345", rgb{}, false},
		{"transparent", rgb{}, false},
		{"", rgb{}, false},
	}

	for _, tt := range tests {
		got, ok := parseCSSColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseCSSColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestContrastRatio(t *testing.T) {
	t.Parallel()

	// Black on white is the maximum possible contrast, 21:1.
	ratio := contrastRatio(rgb{0, 0, 0}, rgb{255, 255, 255})
	if math.Abs(ratio-21) > 0.1 {
		t.Errorf("expected black/white ratio near 21, got %.2f", ratio)
	}

	// Identical colors have the minimum ratio, 1:1.
	same := contrastRatio(rgb{100, 100, 100}, rgb{100, 100, 100})
	if math.Abs(same-1) > 0.01 {
		t.Errorf("expected identical-color ratio 1, got %.2f", same)
	}

	// Order must not matter.
	a := contrastRatio(rgb{10, 20, 30}, rgb{200, 200, 200})
	b := contrastRatio(rgb{200, 200, 200}, rgb{10, 20, 30})
	if math.Abs(a-b) > 0.0001 {
		t.Errorf("contrast ratio not symmetric: %.4f vs %.4f", a, b)
	}
}

func TestStyleValue(t *testing.T) {
	t.Parallel()

	style := "color: #333; background-color: rgb(255,255,255); font-size: 12px"
	if got := styleValue(style, "color"); got != "#333" {
		t.Errorf("expected #333, got %q", got)
	}
	if got := styleValue(style, "background-color"); got != "rgb(255,255,255)" {
		t.Errorf("unexpected background-color: %q", got)
	}
	if got := styleValue(style, "margin"); got != "" {
		t.Errorf("expected empty for absent property, got %q", got)
	}
}

func TestAccessibilityAudit(t *testing.T) {
	t.Parallel()

	t.Run("flags common violations", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>T</title></head><body>
<h1>First</h1>
<h1>Second</h1>
<h4>Skipped level</h4>
<img src="/no-alt.png">
<p style="color:#777;background-color:#888">Low contrast text</p>
<input type="text" name="unlabeled">
<a href="/somewhere">Go</a>
</body></html>`)
		}))
		t.Cleanup(server.Close)

		auditor := NewAccessibilityAuditor(fetch.New())
		result := auditor.Audit(context.Background(), server.URL)

		if result.Error != "" {
			t.Fatalf("unexpected error: %s", result.Error)
		}

		rules := make(map[string]bool)
		for _, v := range result.Violations {
			rules[v.Rule] = true
		}
		for _, want := range []string{"image-alt", "color-contrast", "label", "page-has-heading-one", "heading-order", "skip-link"} {
			if !rules[want] {
				t.Errorf("expected violation %q, got rules %v", want, rules)
			}
		}

		if result.ViolationCounts["critical"] == 0 {
			t.Error("expected at least one critical violation")
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("score out of bounds: %d", result.Score)
		}
	})

	t.Run("clean page scores well", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>T</title></head><body>
<a href="#main" >Skip to content</a>
<h1>Only heading</h1>
<h2>Sub</h2>
<img src="/pic.png" alt="A chart of results">
<p style="color:#000;background-color:#fff">Readable</p>
<label for="q">Query</label><input type="text" id="q" name="q">
</body></html>`)
		}))
		t.Cleanup(server.Close)

		auditor := NewAccessibilityAuditor(fetch.New())
		result := auditor.Audit(context.Background(), server.URL)

		if len(result.Violations) != 0 {
			t.Errorf("expected no violations, got %+v", result.Violations)
		}
		if result.Score != 100 {
			t.Errorf("expected score 100, got %d", result.Score)
		}
	})

	t.Run("unreachable page reports error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		addr := server.URL
		server.Close()

		auditor := NewAccessibilityAuditor(fetch.New())
		result := auditor.Audit(context.Background(), addr)
		if result.Error == "" {
			t.Error("expected an error")
		}
	})
}

func TestCheckHeadings(t *testing.T) {
	t.Parallel()

	t.Run("no headings is a violation", func(t *testing.T) {
		t.Parallel()

		outcome := checkHeadings(nil, checkOutcome{})
		if len(outcome.violations) != 1 || outcome.violations[0].Rule != "heading-structure" {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
	})

	t.Run("single h1 with ordered levels passes", func(t *testing.T) {
		t.Parallel()

		input := []crawler.Heading{
			{Level: 1, Text: "A"},
			{Level: 2, Text: "B"},
			{Level: 3, Text: "C"},
			{Level: 2, Text: "D"},
		}
		outcome := checkHeadings(input, checkOutcome{})
		if len(outcome.violations) != 0 {
			t.Errorf("expected no violations, got %+v", outcome.violations)
		}
		if outcome.passes != 2 {
			t.Errorf("expected 2 passes (h1 and structure), got %d", outcome.passes)
		}
	})
}
