package audit

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// Title and meta description length targets. Search engines truncate
// titles around 60 characters and descriptions around 160.
const (
	titleOptimalMin = 50
	titleOptimalMax = 60
	titleGoodMin    = 30
	titleGoodMax    = 70

	descOptimalMin = 150
	descOptimalMax = 160
	descGoodMin    = 120
	descGoodMax    = 180
)

// metaTagNames are the eleven tags checked for completeness.
var metaTagNames = []string{
	"title",
	"description",
	"keywords",
	"og:title",
	"og:description",
	"og:image",
	"twitter:card",
	"canonical",
	"viewport",
	"charset",
	"robots",
}

// redundantAltPhrases add no information for screen reader users
// because the element is already announced as an image.
var redundantAltPhrases = []string{"image of", "picture of", "photo of", "graphic of"}

// SEOAuditor runs the on-page SEO checks.
type SEOAuditor struct {
	client *fetch.Client
}

// NewSEOAuditor creates an SEOAuditor using the given client.
func NewSEOAuditor(client *fetch.Client) *SEOAuditor {
	return &SEOAuditor{client: client}
}

// fetchParsed fetches a URL and parses its HTML.
func fetchParsed(ctx context.Context, client *fetch.Client, rawURL string) (*fetch.Response, *crawler.ParseResult, error) {
	resp, err := client.Get(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	parser, err := crawler.NewParser(rawURL)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, nil, err
	}
	return resp, parsed, nil
}

// PageInfo collects the basic on-page facts for a URL.
func (a *SEOAuditor) PageInfo(ctx context.Context, rawURL string) *model.PageInfo {
	info := &model.PageInfo{URL: rawURL}

	resp, parsed, err := fetchParsed(ctx, a.client, rawURL)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	info.StatusCode = resp.StatusCode
	info.Title = parsed.Title
	info.TitleLength = len(parsed.Title)
	info.MetaDescription = parsed.MetaTags["description"]
	info.MetaDescLength = len(info.MetaDescription)
	for _, h := range parsed.Headings {
		switch h.Level {
		case 1:
			info.H1Count++
		case 2:
			info.H2Count++
		}
	}
	info.ImageCount = len(parsed.Images)
	info.LinkCount = len(parsed.Links)
	return info
}

// MetaTags checks the completeness of a page's meta tags.
func (a *SEOAuditor) MetaTags(ctx context.Context, rawURL string) *model.MetaTagsResult {
	result := &model.MetaTagsResult{URL: rawURL}

	_, parsed, err := fetchParsed(ctx, a.client, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	*result = *evaluateMetaTags(rawURL, parsed)
	return result
}

// evaluateMetaTags builds a MetaTagsResult from a parsed page.
// Pure: no I/O, deterministic for a given parse result.
func evaluateMetaTags(rawURL string, parsed *crawler.ParseResult) *model.MetaTagsResult {
	result := &model.MetaTagsResult{URL: rawURL}

	present := func(name string) (bool, string) {
		switch name {
		case "title":
			return parsed.Title != "", parsed.Title
		case "canonical":
			return parsed.Canonical != "", parsed.Canonical
		case "charset":
			return parsed.HasCharset, ""
		default:
			content, ok := parsed.MetaTags[name]
			return ok && content != "", content
		}
	}

	found := 0
	for _, name := range metaTagNames {
		ok, content := present(name)
		result.Tags = append(result.Tags, model.MetaTagCheck{Name: name, Present: ok, Content: content})
		if ok {
			found++
		} else {
			result.Missing = append(result.Missing, name)
		}
	}
	result.Score = found * 100 / len(metaTagNames)
	return result
}

// ImageAlt reports alternative-text coverage for a page.
func (a *SEOAuditor) ImageAlt(ctx context.Context, rawURL string) *model.ImageAltResult {
	result := &model.ImageAltResult{URL: rawURL}

	_, parsed, err := fetchParsed(ctx, a.client, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	*result = *evaluateImageAlt(rawURL, parsed.Images)
	return result
}

// evaluateImageAlt scores alt-text coverage. Pure.
func evaluateImageAlt(rawURL string, images []crawler.Image) *model.ImageAltResult {
	result := &model.ImageAltResult{URL: rawURL, TotalImages: len(images)}

	for _, img := range images {
		switch {
		case !img.HasAlt:
			result.MissingAlt++
			result.Issues = append(result.Issues, model.ImageAltIssue{
				Source: img.Source,
				Issue:  "missing alt attribute",
			})
		case img.Alt == "":
			result.EmptyAlt++
			result.WithAlt++
		default:
			result.WithAlt++
			lower := strings.ToLower(img.Alt)
			for _, phrase := range redundantAltPhrases {
				if strings.HasPrefix(lower, phrase) {
					result.Issues = append(result.Issues, model.ImageAltIssue{
						Source: img.Source,
						Alt:    img.Alt,
						Issue:  "redundant phrase in alt text",
					})
					break
				}
			}
			if len(img.Alt) > 125 {
				result.Issues = append(result.Issues, model.ImageAltIssue{
					Source: img.Source,
					Alt:    img.Alt,
					Issue:  "alt text longer than 125 characters",
				})
			}
		}
	}

	if result.TotalImages == 0 {
		result.Score = 100
	} else {
		result.Score = result.WithAlt * 100 / result.TotalImages
	}
	return result
}

// scoreTitle rates a title length: 100 in the optimal band, 80 in the
// acceptable band, 50 otherwise (including missing).
func scoreTitle(length int) int {
	switch {
	case length >= titleOptimalMin && length <= titleOptimalMax:
		return 100
	case length >= titleGoodMin && length <= titleGoodMax:
		return 80
	default:
		return 50
	}
}

// scoreDescription rates a meta description length.
// A missing description scores zero.
func scoreDescription(length int) int {
	switch {
	case length == 0:
		return 0
	case length >= descOptimalMin && length <= descOptimalMax:
		return 100
	case length >= descGoodMin && length <= descGoodMax:
		return 80
	default:
		return 50
	}
}

// scoreLoadTime rates a page load time in seconds.
func scoreLoadTime(seconds float64) int {
	switch {
	case seconds < 1:
		return 100
	case seconds < 3:
		return 80
	case seconds < 5:
		return 60
	default:
		return 40
	}
}

// QuickAudit runs the page-info, meta-tag, and image checks
// concurrently and combines them into a single scored report.
func (a *SEOAuditor) QuickAudit(ctx context.Context, rawURL string) *model.SEOAuditResult {
	result := &model.SEOAuditResult{URL: rawURL}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		info := a.PageInfo(gctx, rawURL)
		mu.Lock()
		result.PageInfo = info
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		tags := a.MetaTags(gctx, rawURL)
		mu.Lock()
		result.MetaTags = tags
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		images := a.ImageAlt(gctx, rawURL)
		mu.Lock()
		result.Images = images
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		check := a.client.CheckURL(gctx, rawURL)
		mu.Lock()
		result.LoadTime = check.ResponseTime
		mu.Unlock()
		return nil
	})
	_ = g.Wait() // sub-checks report errors through their results

	if result.PageInfo != nil && result.PageInfo.Error != "" {
		result.Error = result.PageInfo.Error
		return result
	}

	result.TitleScore = scoreTitle(result.PageInfo.TitleLength)
	result.DescScore = scoreDescription(result.PageInfo.MetaDescLength)
	result.LoadTimeScore = scoreLoadTime(result.LoadTime)

	scores := []int{result.TitleScore, result.DescScore, result.LoadTimeScore}
	if result.MetaTags != nil && result.MetaTags.Error == "" {
		scores = append(scores, result.MetaTags.Score)
	}
	if result.Images != nil && result.Images.Error == "" {
		scores = append(scores, result.Images.Score)
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	result.OverallScore = total / len(scores)
	result.Recommendations = seoRecommendations(result)
	return result
}

// seoRecommendations derives actionable advice from the audit scores.
func seoRecommendations(result *model.SEOAuditResult) []string {
	recs := make([]string, 0)

	info := result.PageInfo
	if info.TitleLength == 0 {
		recs = append(recs, "Add a page title (50-60 characters).")
	} else if info.TitleLength < titleOptimalMin || info.TitleLength > titleOptimalMax {
		recs = append(recs, "Adjust the title length to 50-60 characters.")
	}

	if info.MetaDescLength == 0 {
		recs = append(recs, "Add a meta description (150-160 characters).")
	} else if info.MetaDescLength < descOptimalMin || info.MetaDescLength > descOptimalMax {
		recs = append(recs, "Adjust the meta description to 150-160 characters.")
	}

	if info.H1Count == 0 {
		recs = append(recs, "Add exactly one H1 heading to the page.")
	} else if info.H1Count > 1 {
		recs = append(recs, "Use only one H1 heading per page.")
	}

	if result.MetaTags != nil && len(result.MetaTags.Missing) > 0 {
		recs = append(recs, "Add the missing meta tags: "+strings.Join(result.MetaTags.Missing, ", ")+".")
	}

	if result.Images != nil && result.Images.MissingAlt > 0 {
		recs = append(recs, "Add alt text to all images for accessibility and SEO.")
	}

	if result.LoadTimeScore < 80 {
		recs = append(recs, "Improve page load time (target under 3 seconds).")
	}

	if len(recs) == 0 {
		recs = append(recs, "The page follows on-page SEO fundamentals. Keep content fresh.")
	}
	return recs
}
