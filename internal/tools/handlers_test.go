package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/social"
)

// newToolTestSite serves a two page site used by the URL based tools.
func newToolTestSite(t *testing.T) *httptest.Server {
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
<title>A Tool Dispatch Test Page With A Reasonable Title Length</title>
<meta name="description" content="A page served from a local fixture so the tool handlers have real markup to parse when the dispatch layer is under test.">
</head><body>
<h1>Fixture</h1>
<nav><a href="/about">About the fixture</a></nav>
<img src="/pic.png" alt="A picture of the fixture">
</body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	return server
}

func callTool(t *testing.T, r *Registry, name, params string) map[string]any {
	t.Helper()

	raw := r.Call(context.Background(), name, json.RawMessage(params))
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("tool %s returned invalid JSON: %v", name, err)
	}
	return result
}

func TestDefaultRegistryNames(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(Deps{})
	registered := make(map[string]bool)
	for _, name := range r.Names() {
		registered[name] = true
	}

	want := []string{
		"crawl_site", "audit_speed", "check_schema", "check_external_links",
		"audit_accessibility", "check_robots_txt", "check_https_usage",
		"check_internal_linking", "get_page_info", "check_meta_tags",
		"get_images_without_alt", "quick_seo_audit", "audit_image_metadata",
		"get_profile_info", "get_social_posts", "analyze_engagement_score",
		"get_hashtag_analysis", "compare_profiles",
		"get_channel_stats", "get_recent_videos", "evaluate_video_metadata",
		"analyze_channel_performance", "get_video_seo_score", "compare_channels",
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("tool %q is not registered", name)
		}
	}
}

func TestURLToolHandlers(t *testing.T) {
	t.Parallel()

	server := newToolTestSite(t)
	r := DefaultRegistry(Deps{Client: fetch.New()})

	t.Run("crawl_site returns pages", func(t *testing.T) {
		t.Parallel()

		params := fmt.Sprintf(`{"url":%q,"max_pages":5,"wait_time":0}`, server.URL)
		result := callTool(t, r, "crawl_site", params)
		if result["error"] != nil {
			t.Fatalf("unexpected error: %v", result["error"])
		}
		summary, ok := result["summary"].(map[string]any)
		if !ok {
			t.Fatalf("expected a summary object, got %v", result)
		}
		if total, _ := summary["total_pages"].(float64); total < 2 {
			t.Errorf("expected at least 2 crawled pages, got %v", summary["total_pages"])
		}
	})

	t.Run("quick_seo_audit scores the page", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "quick_seo_audit", fmt.Sprintf(`{"url":%q}`, server.URL))
		if result["error"] != nil {
			t.Fatalf("unexpected error: %v", result["error"])
		}
		if score, _ := result["overall_score"].(float64); score <= 0 {
			t.Errorf("expected a positive overall score, got %v", result["overall_score"])
		}
	})

	t.Run("check_robots_txt finds the file", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "check_robots_txt", fmt.Sprintf(`{"url":%q}`, server.URL))
		if found, _ := result["found"].(bool); !found {
			t.Errorf("expected robots.txt to be found, got %v", result)
		}
	})

	t.Run("missing url parameter is a tool error", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "get_page_info", `{}`)
		msg, _ := result["error"].(string)
		if !strings.Contains(msg, "url parameter is required") {
			t.Errorf("unexpected error: %v", result)
		}
	})

	t.Run("syntactically invalid url is rejected before any request", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "check_schema", `{"url":"not a url"}`)
		if result["error"] == nil {
			t.Errorf("expected an error result, got %v", result)
		}
	})

	t.Run("malformed parameters are a tool error", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "crawl_site", `{"url":12}`)
		msg, _ := result["error"].(string)
		if !strings.Contains(msg, "invalid parameters") {
			t.Errorf("unexpected error: %v", result)
		}
	})
}

func TestInstagramToolHandlers(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/acme/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
<meta property="og:description" content="1,200 Followers, 300 Following, 45 Posts - See photos and videos">
</head><body>
<script>{"biography":"Audits, all day.","is_private":false,"profile_pic_url":"https://cdn.test/acme.jpg"}</script>
<a href="/p/Post0001/">one</a>
</body></html>`)
	})

	r := DefaultRegistry(Deps{
		Client:           fetch.New(),
		InstagramOptions: []social.InstagramOption{social.WithInstagramBaseURL(server.URL)},
	})

	t.Run("get_profile_info extracts counts", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "get_profile_info", `{"username":"@acme"}`)
		if result["error"] != nil {
			t.Fatalf("unexpected error: %v", result["error"])
		}
		if followers, _ := result["followers"].(float64); followers != 1200 {
			t.Errorf("expected 1200 followers, got %v", result["followers"])
		}
	})

	t.Run("get_social_posts lists the grid", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "get_social_posts", `{"username":"acme"}`)
		if count, _ := result["count"].(float64); count != 1 {
			t.Errorf("expected 1 post, got %v", result)
		}
	})

	t.Run("empty username is a tool error", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "analyze_engagement_score", `{"username":""}`)
		if result["error"] == nil {
			t.Errorf("expected an error result, got %v", result)
		}
	})

	t.Run("compare_profiles requires usernames", func(t *testing.T) {
		t.Parallel()

		result := callTool(t, r, "compare_profiles", `{"usernames":[]}`)
		if result["error"] == nil {
			t.Errorf("expected an error result, got %v", result)
		}
	})
}

func TestYouTubeToolHandlers(t *testing.T) {
	const channelID = "UC0123456789abcdefABCDEF"

	t.Run("missing api key is a tool error", func(t *testing.T) {
		t.Setenv("YOUTUBE_API_KEY", "")

		r := DefaultRegistry(Deps{Client: fetch.New()})
		result := callTool(t, r, "get_channel_stats", fmt.Sprintf(`{"channel":%q}`, channelID))
		msg, _ := result["error"].(string)
		if !strings.Contains(msg, "API key") {
			t.Errorf("expected a missing key error, got %v", result)
		}
	})

	t.Run("get_channel_stats with a fixture endpoint", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test-key" {
				http.Error(w, "missing key", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"items":[{"id":%q,
"snippet":{"title":"Acme Channel","publishedAt":"2020-01-15T00:00:00Z"},
"statistics":{"subscriberCount":"1000","viewCount":"50000","videoCount":"20"}}]}`, channelID)
		})

		r := DefaultRegistry(Deps{
			Client: fetch.New(),
			YouTubeOptions: []social.YouTubeOption{
				social.WithAPIKey("test-key"),
				social.WithYouTubeBaseURL(server.URL),
			},
		})

		result := callTool(t, r, "get_channel_stats", fmt.Sprintf(`{"channel":%q}`, channelID))
		if result["error"] != nil {
			t.Fatalf("unexpected error: %v", result["error"])
		}
		if result["title"] != "Acme Channel" {
			t.Errorf("unexpected title: %v", result["title"])
		}
		if subs, _ := result["subscribers"].(float64); subs != 1000 {
			t.Errorf("expected 1000 subscribers, got %v", result["subscribers"])
		}
	})

	t.Run("channel parameter is required", func(t *testing.T) {
		t.Parallel()

		r := DefaultRegistry(Deps{
			Client:         fetch.New(),
			YouTubeOptions: []social.YouTubeOption{social.WithAPIKey("test-key")},
		})
		result := callTool(t, r, "get_channel_stats", `{}`)
		if result["error"] == nil {
			t.Errorf("expected an error result, got %v", result)
		}
	})
}
