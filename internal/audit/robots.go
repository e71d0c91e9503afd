package audit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// knownRobotsDirectives are the directives the parser understands.
// Anything else produces a warning, not an error, because crawlers
// ignore unknown directives.
var knownRobotsDirectives = map[string]bool{
	"user-agent":  true,
	"allow":       true,
	"disallow":    true,
	"crawl-delay": true,
	"sitemap":     true,
	"host":        true,
}

// RobotsAuditor fetches and analyzes robots.txt files.
type RobotsAuditor struct {
	client *fetch.Client
}

// NewRobotsAuditor creates a RobotsAuditor using the given client.
func NewRobotsAuditor(client *fetch.Client) *RobotsAuditor {
	return &RobotsAuditor{client: client}
}

// Check fetches the site's robots.txt and parses it.
// A 404 is not an error: the server is reachable, the file just does
// not exist.
func (a *RobotsAuditor) Check(ctx context.Context, rawURL string) *model.RobotsResult {
	result := &model.RobotsResult{
		URL:      rawURL,
		Groups:   []model.RobotsGroup{},
		Sitemaps: []string{},
	}

	base, err := fetch.ValidateURL(rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.RobotsURL = base.Scheme + "://" + base.Host + "/robots.txt"

	resp, err := a.client.Get(ctx, result.RobotsURL)
	if err != nil {
		result.Error = err.Error()
		result.Recommendations = []string{"The site could not be reached to check robots.txt."}
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Accessible = true

	if resp.StatusCode == http.StatusNotFound {
		result.Recommendations = []string{
			"No robots.txt found. Add one to guide search engine crawlers.",
		}
		return result
	}
	if resp.StatusCode != http.StatusOK {
		result.Recommendations = []string{
			fmt.Sprintf("robots.txt returned status %d; crawlers may treat the site as unrestricted.", resp.StatusCode),
		}
		return result
	}

	result.Found = true
	result.Content = string(resp.Body)
	parseRobots(result)
	analyzeRobots(result)
	return result
}

// parseRobots parses the robots.txt content line by line, recording
// syntax errors and warnings with their line numbers.
func parseRobots(result *model.RobotsResult) {
	var current *model.RobotsGroup
	sawUserAgent := false

	for lineNo, line := range strings.Split(result.Content, "\n") {
		lineNum := lineNo + 1
		line = strings.TrimSpace(line)

		// Strip comments.
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		directive, value, found := strings.Cut(line, ":")
		if !found {
			result.ParseErrors = append(result.ParseErrors, model.RobotsIssue{
				Line:    lineNum,
				Message: "Invalid syntax: missing colon",
			})
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		if !knownRobotsDirectives[directive] {
			result.ParseWarnings = append(result.ParseWarnings, model.RobotsIssue{
				Line:    lineNum,
				Message: "Unknown directive: " + directive,
			})
			continue
		}
		if value == "" && directive != "disallow" && directive != "allow" {
			result.ParseWarnings = append(result.ParseWarnings, model.RobotsIssue{
				Line:    lineNum,
				Message: "Empty value for directive: " + directive,
			})
			continue
		}

		switch directive {
		case "user-agent":
			sawUserAgent = true
			// Consecutive user-agent lines share one group.
			if current != nil && len(current.Rules) == 0 && current.CrawlDelay == 0 {
				current.UserAgents = append(current.UserAgents, value)
				continue
			}
			result.Groups = append(result.Groups, model.RobotsGroup{UserAgents: []string{value}})
			current = &result.Groups[len(result.Groups)-1]

		case "allow", "disallow":
			if !sawUserAgent {
				result.ParseErrors = append(result.ParseErrors, model.RobotsIssue{
					Line:    lineNum,
					Message: directive + " directive without a preceding User-agent",
				})
				continue
			}
			current.Rules = append(current.Rules, model.RobotsRule{Directive: directive, Path: value})

		case "crawl-delay":
			if !sawUserAgent {
				result.ParseErrors = append(result.ParseErrors, model.RobotsIssue{
					Line:    lineNum,
					Message: "crawl-delay directive without a preceding User-agent",
				})
				continue
			}
			delay, err := strconv.ParseFloat(value, 64)
			if err != nil {
				result.ParseErrors = append(result.ParseErrors, model.RobotsIssue{
					Line:    lineNum,
					Message: "Invalid crawl-delay value: " + value,
				})
				continue
			}
			current.CrawlDelay = delay

		case "sitemap":
			if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
				result.ParseWarnings = append(result.ParseWarnings, model.RobotsIssue{
					Line:    lineNum,
					Message: "Sitemap URL should be absolute: " + value,
				})
			}
			result.Sitemaps = append(result.Sitemaps, value)

		case "host":
			result.Host = value
		}
	}
}

// analyzeRobots derives the blocking analysis and recommendations.
func analyzeRobots(result *model.RobotsResult) {
	recs := make([]string, 0)

	for _, group := range result.Groups {
		wildcard := false
		for _, agent := range group.UserAgents {
			if agent == "*" {
				wildcard = true
				break
			}
		}
		if !wildcard {
			continue
		}
		blocksRoot := false
		hasAllow := false
		for _, rule := range group.Rules {
			if rule.Directive == "disallow" && rule.Path == "/" {
				blocksRoot = true
			}
			if rule.Directive == "allow" && rule.Path != "" {
				hasAllow = true
			}
		}
		if blocksRoot && !hasAllow {
			result.BlocksAllCrawlers = true
		}
	}

	if result.BlocksAllCrawlers {
		recs = append(recs, "robots.txt blocks all crawlers from the entire site. Search engines cannot index it.")
	}
	if len(result.Sitemaps) == 0 {
		recs = append(recs, "Add a Sitemap directive so crawlers can find your sitemap.")
	}
	for _, group := range result.Groups {
		if group.CrawlDelay > 10 {
			recs = append(recs, fmt.Sprintf("Crawl-delay of %.0f seconds is very high and slows indexing.", group.CrawlDelay))
			break
		}
	}
	specificBots := 0
	for _, group := range result.Groups {
		for _, agent := range group.UserAgents {
			if agent != "*" {
				specificBots++
			}
		}
	}
	if specificBots > 0 {
		recs = append(recs, fmt.Sprintf("Rules target %d specific crawlers; confirm the differences are intentional.", specificBots))
	}
	if len(result.ParseErrors) > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d syntax errors in robots.txt.", len(result.ParseErrors)))
	}
	if len(recs) == 0 {
		recs = append(recs, "robots.txt is well formed.")
	}
	result.Recommendations = recs
}
