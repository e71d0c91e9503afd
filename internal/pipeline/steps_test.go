package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// newAuditTestSite serves a small site with a robots.txt.
func newAuditTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/about" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
<title>A Small Test Site For Step Level Integration Checks</title>
<meta name="description" content="A description that exists purely so the page audits have something meaningful to measure against their thresholds here.">
</head><body>
<h1>Welcome</h1>
<nav><a href="/about">About this site</a></nav>
<img src="/pic.png" alt="A picture">
</body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\nSitemap: https://example.com/sitemap.xml\n")
	})
	return server
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("stores crawl result", func(t *testing.T) {
		t.Parallel()

		server := newAuditTestSite(t)
		step := NewCrawlStep(fetch.New(), WithCrawlMaxPages(5), WithCrawlDelay(0))

		report := model.NewSiteAuditReport(server.URL)
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Crawl == nil || report.Crawl.Summary.TotalPages == 0 {
			t.Errorf("expected pages in the crawl result, got %+v", report.Crawl)
		}
	})

	t.Run("invalid start url is a critical failure", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(fetch.New(), WithCrawlDelay(0))
		report := model.NewSiteAuditReport("::not-a-url::")
		if err := step.Do(context.Background(), report); err == nil {
			t.Error("expected an error for an unusable start URL")
		}
	})
}

func TestAuditSteps(t *testing.T) {
	t.Parallel()

	server := newAuditTestSite(t)
	client := fetch.New()

	steps := []Step{
		NewSEOStep(client),
		NewAccessibilityStep(client),
		NewLinksStep(client),
		NewInternalLinkingStep(client),
		NewSchemaStep(client),
		NewRobotsStep(client),
	}

	report := model.NewSiteAuditReport(server.URL)
	for _, step := range steps {
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("step %s: unexpected error: %v", step.Name(), err)
		}
	}

	if report.SEO == nil || report.SEO.Error != "" {
		t.Errorf("expected a successful SEO result, got %+v", report.SEO)
	}
	if report.Accessibility == nil || report.Accessibility.Error != "" {
		t.Errorf("expected a successful accessibility result, got %+v", report.Accessibility)
	}
	if report.ExternalLinks == nil || report.InternalLinking == nil {
		t.Error("expected both link results to be populated")
	}
	if report.Schema == nil {
		t.Error("expected a schema result")
	}
	if report.Robots == nil || !report.Robots.Found {
		t.Errorf("expected robots.txt to be found, got %+v", report.Robots)
	}
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	p := DefaultPipeline(fetch.New(), nil,
		WithPipelineCrawlMaxPages(3),
		WithPipelineSkipSpeed(true),
	)

	names := p.StepNames()
	want := []string{
		"crawl", "seo", "accessibility", "external_links",
		"internal_linking", "schema", "robots", "https", "image_metadata",
	}
	if len(names) != len(want) {
		t.Fatalf("expected %d steps, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("step %d: expected %q, got %q", i, name, names[i])
		}
	}

	withSpeed := DefaultPipeline(fetch.New(), nil)
	found := false
	for _, name := range withSpeed.StepNames() {
		if name == "speed" {
			found = true
		}
	}
	if !found {
		t.Error("expected the speed step in the full default pipeline")
	}
}
