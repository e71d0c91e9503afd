package social

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// Instagram scraping limits.
const (
	instagramBaseURL   = "https://www.instagram.com"
	maxPostsPerProfile = 24
	maxCompareProfiles = 5
)

// Patterns matched against the public profile page. Instagram embeds
// profile facts both in OpenGraph meta tags and in an inline JSON blob.
var (
	followerPattern  = regexp.MustCompile(`([\d,.]+[KkMmBb]?)\s+Followers`)
	followingPattern = regexp.MustCompile(`([\d,.]+[KkMmBb]?)\s+Following`)
	postCountPattern = regexp.MustCompile(`([\d,.]+[KkMmBb]?)\s+Posts`)
	biographyPattern = regexp.MustCompile(`"biography":"((?:[^"\\]|\\.)*)"`)
	externalPattern  = regexp.MustCompile(`"external_url":"((?:[^"\\]|\\.)*)"`)
	fullNamePattern  = regexp.MustCompile(`"full_name":"((?:[^"\\]|\\.)*)"`)
	shortcodePattern = regexp.MustCompile(`/p/([A-Za-z0-9_-]+)/`)
	hashtagPattern   = regexp.MustCompile(`#(\w+)`)
	contactPattern   = regexp.MustCompile(`(?i)[\w.+-]+@[\w-]+\.[\w.]+|\+?\d[\d\s().-]{7,}\d|\bDM\b|\bcontact\b`)
)

// InstagramClient scrapes public Instagram profile pages.
type InstagramClient struct {
	client  *fetch.Client
	baseURL string
}

// InstagramOption configures an InstagramClient.
type InstagramOption func(*InstagramClient)

// WithInstagramBaseURL overrides the profile host, for tests.
func WithInstagramBaseURL(baseURL string) InstagramOption {
	return func(c *InstagramClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewInstagramClient creates a client using the given fetcher.
func NewInstagramClient(client *fetch.Client, opts ...InstagramOption) *InstagramClient {
	c := &InstagramClient{
		client:  client,
		baseURL: instagramBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CleanUsername normalizes the accepted username forms: a bare name,
// an @name, or a full profile URL.
func CleanUsername(input string) string {
	name := strings.TrimSpace(input)
	name = strings.TrimPrefix(name, "@")

	if strings.Contains(name, "instagram.com/") {
		_, after, _ := strings.Cut(name, "instagram.com/")
		name = after
	}
	if idx := strings.IndexAny(name, "/?"); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// ProfileInfo fetches a profile page and extracts its public facts.
func (c *InstagramClient) ProfileInfo(ctx context.Context, username string) *model.InstagramProfile {
	name := CleanUsername(username)
	profile := &model.InstagramProfile{
		Username:   name,
		ProfileURL: c.baseURL + "/" + name + "/",
	}
	if name == "" {
		profile.Error = "username is empty"
		return profile
	}

	resp, err := c.client.Get(ctx, profile.ProfileURL)
	if err != nil {
		profile.Error = err.Error()
		return profile
	}
	if resp.StatusCode == 404 {
		profile.Error = fmt.Sprintf("profile %q not found", name)
		return profile
	}
	if resp.StatusCode != 200 {
		profile.Error = fmt.Sprintf("profile page returned status %d", resp.StatusCode)
		return profile
	}

	body := string(resp.Body)
	profile.Followers = extractCount(followerPattern, body)
	profile.Following = extractCount(followingPattern, body)
	profile.Posts = extractCount(postCountPattern, body)
	profile.Biography = extractEscaped(biographyPattern, body)
	profile.ExternalURL = extractEscaped(externalPattern, body)
	profile.FullName = extractEscaped(fullNamePattern, body)
	profile.IsPrivate = strings.Contains(body, `"is_private":true`) ||
		strings.Contains(body, "This account is private")
	profile.IsVerified = strings.Contains(body, `"is_verified":true`)
	profile.HasProfilePicture = strings.Contains(body, `"profile_pic_url"`) ||
		strings.Contains(body, "profile_pic")

	if profile.Following > 0 {
		profile.FollowerRatio = float64(profile.Followers) / float64(profile.Following)
	}
	return profile
}

// Posts lists the post shortcodes visible on the public profile grid.
func (c *InstagramClient) Posts(ctx context.Context, username string) *model.InstagramPostsResult {
	name := CleanUsername(username)
	result := &model.InstagramPostsResult{Username: name, Posts: []model.InstagramPost{}}

	profile := c.ProfileInfo(ctx, name)
	if profile.Error != "" {
		result.Error = profile.Error
		return result
	}
	if profile.IsPrivate {
		result.Error = fmt.Sprintf("profile %q is private", name)
		return result
	}

	resp, err := c.client.Get(ctx, profile.ProfileURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	seen := make(map[string]struct{})
	for _, match := range shortcodePattern.FindAllStringSubmatch(string(resp.Body), -1) {
		shortcode := match[1]
		if _, dup := seen[shortcode]; dup {
			continue
		}
		seen[shortcode] = struct{}{}
		result.Posts = append(result.Posts, model.InstagramPost{
			Shortcode: shortcode,
			URL:       c.baseURL + "/p/" + shortcode + "/",
		})
		if len(result.Posts) >= maxPostsPerProfile {
			break
		}
	}
	result.Count = len(result.Posts)
	return result
}

// EngagementScore rates how well a profile is set up for engagement.
func (c *InstagramClient) EngagementScore(ctx context.Context, username string) *model.EngagementResult {
	name := CleanUsername(username)
	result := &model.EngagementResult{Username: name, Breakdown: map[string]int{}}

	profile := c.ProfileInfo(ctx, name)
	if profile.Error != "" {
		result.Error = profile.Error
		return result
	}

	result.ProfileScore = scoreProfile(profile, result.Breakdown)
	result.BioScore = scoreBio(profile.Biography, profile.ExternalURL, result.Breakdown)
	result.PostingFrequency = postingFrequency(profile.Posts)
	result.Recommendations = engagementRecommendations(profile, result)
	return result
}

// scoreProfile computes the 0-100 profile completeness score.
func scoreProfile(profile *model.InstagramProfile, breakdown map[string]int) int {
	score := 0

	if profile.HasProfilePicture {
		score += 10
		breakdown["profile_picture"] = 10
	}
	if profile.Biography != "" {
		points := 10
		if len(profile.Biography) > 50 {
			points += 10
		}
		score += points
		breakdown["biography"] = points
	}
	if profile.IsVerified {
		score += 15
		breakdown["verified"] = 15
	}

	var postPoints int
	switch {
	case profile.Posts >= 100:
		postPoints = 20
	case profile.Posts >= 50:
		postPoints = 15
	case profile.Posts >= 20:
		postPoints = 10
	case profile.Posts >= 5:
		postPoints = 5
	}
	score += postPoints
	if postPoints > 0 {
		breakdown["posts"] = postPoints
	}

	var ratioPoints int
	switch {
	case profile.FollowerRatio >= 10:
		ratioPoints = 20
	case profile.FollowerRatio >= 5:
		ratioPoints = 15
	case profile.FollowerRatio >= 2:
		ratioPoints = 10
	case profile.FollowerRatio >= 1:
		ratioPoints = 5
	}
	score += ratioPoints
	if ratioPoints > 0 {
		breakdown["follower_ratio"] = ratioPoints
	}

	if profile.FullName != "" {
		score += 15
		breakdown["full_name"] = 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// scoreBio computes the 0-100 biography quality score.
func scoreBio(bio, externalURL string, breakdown map[string]int) int {
	score := 0

	bioLen := len(bio)
	switch {
	case bioLen >= 50 && bioLen <= 150:
		score += 30
		breakdown["bio_length"] = 30
	case bioLen > 0:
		score += 15
		breakdown["bio_length"] = 15
	}
	if hashtagPattern.MatchString(bio) {
		score += 25
		breakdown["bio_hashtags"] = 25
	}
	if externalURL != "" || strings.Contains(bio, "http") {
		score += 25
		breakdown["bio_link"] = 25
	}
	if contactPattern.MatchString(bio) {
		score += 20
		breakdown["bio_contact"] = 20
	}

	if score > 100 {
		score = 100
	}
	return score
}

// postingFrequency buckets total post count into an activity rating.
func postingFrequency(posts int64) string {
	switch {
	case posts >= 1000:
		return "Very High"
	case posts >= 500:
		return "High"
	case posts >= 100:
		return "Moderate"
	case posts >= 50:
		return "Low"
	default:
		return "Very Low"
	}
}

// engagementRecommendations derives advice from the score components.
func engagementRecommendations(profile *model.InstagramProfile, result *model.EngagementResult) []string {
	recs := make([]string, 0)

	if !profile.HasProfilePicture {
		recs = append(recs, "Add a profile picture; faceless accounts convert poorly.")
	}
	if profile.Biography == "" {
		recs = append(recs, "Write a biography that says who you are and what you post.")
	} else if len(profile.Biography) < 50 {
		recs = append(recs, "Expand the biography; 50-150 characters performs best.")
	}
	if result.Breakdown["bio_link"] == 0 {
		recs = append(recs, "Add a link to your website or landing page.")
	}
	if result.Breakdown["bio_hashtags"] == 0 {
		recs = append(recs, "Add a branded hashtag to the biography.")
	}
	if profile.Posts < 20 {
		recs = append(recs, "Post more consistently; accounts under 20 posts look inactive.")
	}
	if len(recs) == 0 {
		recs = append(recs, "The profile is well optimized for engagement.")
	}
	return recs
}

// HashtagAnalysis reports hashtag usage in the profile biography.
func (c *InstagramClient) HashtagAnalysis(ctx context.Context, username string) *model.HashtagAnalysis {
	name := CleanUsername(username)
	result := &model.HashtagAnalysis{Username: name, Hashtags: []string{}}

	profile := c.ProfileInfo(ctx, name)
	if profile.Error != "" {
		result.Error = profile.Error
		return result
	}

	for _, match := range hashtagPattern.FindAllStringSubmatch(profile.Biography, -1) {
		result.Hashtags = append(result.Hashtags, match[1])
	}
	result.Count = len(result.Hashtags)
	result.BioLength = len(profile.Biography)
	result.HasLink = profile.ExternalURL != "" || strings.Contains(profile.Biography, "http")

	recs := make([]string, 0)
	switch {
	case result.Count == 0:
		recs = append(recs, "Add one or two hashtags to the biography for discoverability.")
	case result.Count > 5:
		recs = append(recs, "Over 5 hashtags in the biography reads as spam; keep the strongest ones.")
	}
	if !result.HasLink {
		recs = append(recs, "Add a link to the biography.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Hashtag usage looks healthy.")
	}
	result.Recommendations = recs
	return result
}

// CompareProfiles fetches up to five profiles concurrently and ranks
// them by follower count.
func (c *InstagramClient) CompareProfiles(ctx context.Context, usernames []string) *model.ProfileComparison {
	result := &model.ProfileComparison{Profiles: []*model.InstagramProfile{}, Ranking: []string{}}

	if len(usernames) == 0 {
		result.Error = "no usernames given"
		return result
	}
	if len(usernames) > maxCompareProfiles {
		result.Error = fmt.Sprintf("at most %d profiles can be compared", maxCompareProfiles)
		return result
	}

	profiles := make([]*model.InstagramProfile, len(usernames))
	g, gctx := errgroup.WithContext(ctx)
	for i, username := range usernames {
		g.Go(func() error {
			profiles[i] = c.ProfileInfo(gctx, username)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines fold errors into the profiles

	result.Profiles = profiles

	ranked := make([]*model.InstagramProfile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.Error == "" {
			ranked = append(ranked, profile)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Followers > ranked[j].Followers
	})
	for _, profile := range ranked {
		result.Ranking = append(result.Ranking, profile.Username)
	}
	return result
}

// extractCount applies a pattern and parses the first captured count.
func extractCount(pattern *regexp.Regexp, body string) int64 {
	match := pattern.FindStringSubmatch(body)
	if match == nil {
		return 0
	}
	return parseCount(match[1])
}

// parseCount parses counts in the display forms Instagram uses:
// "1,234", "10.5K", "2M".
func parseCount(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}

	multiplier := float64(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1_000
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case 'B', 'b':
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(value * multiplier)
}

// extractEscaped applies a pattern capturing a JSON string body and
// unescapes it.
func extractEscaped(pattern *regexp.Regexp, body string) string {
	match := pattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	// JSON escapes slashes; Go's unquoting does not know that escape.
	escaped := strings.ReplaceAll(match[1], `\/`, "/")
	unquoted, err := strconv.Unquote(`"` + escaped + `"`)
	if err != nil {
		return escaped
	}
	return unquoted
}
