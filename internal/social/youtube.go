package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// YouTube Data API settings.
const (
	youtubeAPIBaseURL  = "https://www.googleapis.com/youtube/v3"
	youtubeAPIKeyEnv   = "YOUTUBE_API_KEY"
	maxCompareChannels = 5
	defaultRecentCount = 10
)

// ErrMissingAPIKey is returned when no YouTube API key is configured.
// The check happens at construction, before any network I/O.
var ErrMissingAPIKey = errors.New("social: YOUTUBE_API_KEY is not set")

// ID extraction patterns. Channel IDs are "UC" plus 22 characters;
// video IDs are 11 characters.
var (
	channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)
	videoIDPattern   = regexp.MustCompile(`^[\w-]{11}$`)
	timestampPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	titleKeywords    = regexp.MustCompile(`(?i)\b(how to|tutorial|review|vs|best)\b`)
	durationPattern  = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// YouTubeClient talks to the YouTube Data API v3.
type YouTubeClient struct {
	client  *fetch.Client
	apiKey  string
	baseURL string
}

// YouTubeOption configures a YouTubeClient.
type YouTubeOption func(*YouTubeClient)

// WithAPIKey sets the API key explicitly instead of reading the
// environment.
func WithAPIKey(key string) YouTubeOption {
	return func(c *YouTubeClient) {
		c.apiKey = key
	}
}

// WithYouTubeBaseURL overrides the API endpoint, for tests.
func WithYouTubeBaseURL(baseURL string) YouTubeOption {
	return func(c *YouTubeClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewYouTubeClient creates a client. The API key comes from the
// YOUTUBE_API_KEY environment variable unless WithAPIKey is given;
// a missing key fails here so callers get one clear error instead of
// a failure on every request.
func NewYouTubeClient(client *fetch.Client, opts ...YouTubeOption) (*YouTubeClient, error) {
	c := &YouTubeClient{
		client:  client,
		baseURL: youtubeAPIBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv(youtubeAPIKeyEnv)
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return c, nil
}

// API response shapes, limited to the fields we read.

type youtubeListResponse struct {
	Items []youtubeItem `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type youtubeItem struct {
	ID      json.RawMessage `json:"id"`
	Snippet struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
		ChannelID   string    `json:"channelId"`
		Country     string    `json:"country"`
		Tags        []string  `json:"tags"`
		Thumbnails  struct {
			High struct {
				URL string `json:"url"`
			} `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount       string `json:"viewCount"`
		SubscriberCount string `json:"subscriberCount"`
		VideoCount      string `json:"videoCount"`
		LikeCount       string `json:"likeCount"`
		CommentCount    string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// itemID handles both the string IDs of channels/videos responses and
// the object IDs of search responses.
func (i youtubeItem) itemID() string {
	var s string
	if err := json.Unmarshal(i.ID, &s); err == nil {
		return s
	}
	var obj struct {
		ChannelID string `json:"channelId"`
		VideoID   string `json:"videoId"`
	}
	if err := json.Unmarshal(i.ID, &obj); err == nil {
		if obj.ChannelID != "" {
			return obj.ChannelID
		}
		return obj.VideoID
	}
	return ""
}

// get performs one API request and decodes the list response.
func (c *YouTubeClient) get(ctx context.Context, endpoint string, params url.Values) (*youtubeListResponse, error) {
	params.Set("key", c.apiKey)
	requestURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	resp, err := c.client.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("youtube api request failed: %w", err)
	}

	var decoded youtubeListResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("youtube api returned malformed JSON: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("youtube api error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	return &decoded, nil
}

// ResolveChannelID turns the accepted channel forms into a channel ID:
// a raw UC... ID, a /channel/ URL, or a handle/name resolved through
// the search endpoint.
func (c *YouTubeClient) ResolveChannelID(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if channelIDPattern.MatchString(input) {
		return input, nil
	}

	if strings.Contains(input, "youtube.com/channel/") {
		_, after, _ := strings.Cut(input, "youtube.com/channel/")
		if idx := strings.IndexAny(after, "/?"); idx >= 0 {
			after = after[:idx]
		}
		if channelIDPattern.MatchString(after) {
			return after, nil
		}
	}

	query := input
	for _, marker := range []string{"youtube.com/@", "youtube.com/user/", "youtube.com/c/"} {
		if strings.Contains(input, marker) {
			_, after, _ := strings.Cut(input, marker)
			if idx := strings.IndexAny(after, "/?"); idx >= 0 {
				after = after[:idx]
			}
			query = after
			break
		}
	}
	query = strings.TrimPrefix(query, "@")

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "channel")
	params.Set("q", query)
	params.Set("maxResults", "1")
	resp, err := c.get(ctx, "search", params)
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("no channel found for %q", input)
	}
	return resp.Items[0].itemID(), nil
}

// ExtractVideoID turns the accepted video forms into a video ID.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if videoIDPattern.MatchString(input) {
		return input, nil
	}

	u, err := url.Parse(input)
	if err == nil {
		if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
			return v, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/"} {
			if strings.HasPrefix(u.Path, prefix) {
				candidate := strings.TrimPrefix(u.Path, prefix)
				if idx := strings.IndexAny(candidate, "/?"); idx >= 0 {
					candidate = candidate[:idx]
				}
				if videoIDPattern.MatchString(candidate) {
					return candidate, nil
				}
			}
		}
	}
	return "", fmt.Errorf("cannot extract a video ID from %q", input)
}

// ChannelStats fetches the headline statistics for a channel.
func (c *YouTubeClient) ChannelStats(ctx context.Context, channel string) *model.ChannelStats {
	stats := &model.ChannelStats{}

	channelID, err := c.ResolveChannelID(ctx, channel)
	if err != nil {
		stats.ChannelID = channel
		stats.Error = err.Error()
		return stats
	}
	stats.ChannelID = channelID

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)
	resp, err := c.get(ctx, "channels", params)
	if err != nil {
		stats.Error = err.Error()
		return stats
	}
	if len(resp.Items) == 0 {
		stats.Error = fmt.Sprintf("channel %q not found", channelID)
		return stats
	}

	item := resp.Items[0]
	stats.Title = item.Snippet.Title
	stats.Description = item.Snippet.Description
	stats.CreatedAt = item.Snippet.PublishedAt
	stats.Country = item.Snippet.Country
	stats.Subscribers = parseAPICount(item.Statistics.SubscriberCount)
	stats.TotalViews = parseAPICount(item.Statistics.ViewCount)
	stats.VideoCount = parseAPICount(item.Statistics.VideoCount)

	if stats.VideoCount > 0 {
		stats.AvgViewsPerVideo = float64(stats.TotalViews) / float64(stats.VideoCount)
	}
	if !stats.CreatedAt.IsZero() {
		stats.DaysActive = int(time.Since(stats.CreatedAt).Hours() / 24)
		if stats.DaysActive > 0 {
			stats.UploadsPerMonth = float64(stats.VideoCount) / (float64(stats.DaysActive) / 30)
		}
	}
	return stats
}

// RecentVideos lists a channel's most recent uploads with statistics.
func (c *YouTubeClient) RecentVideos(ctx context.Context, channel string, maxResults int) *model.RecentVideosResult {
	result := &model.RecentVideosResult{Videos: []model.VideoInfo{}}
	if maxResults <= 0 {
		maxResults = defaultRecentCount
	}

	channelID, err := c.ResolveChannelID(ctx, channel)
	if err != nil {
		result.ChannelID = channel
		result.Error = err.Error()
		return result
	}
	result.ChannelID = channelID

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	searchResp, err := c.get(ctx, "search", params)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	videoIDs := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if id := item.itemID(); id != "" {
			videoIDs = append(videoIDs, id)
		}
	}
	if len(videoIDs) == 0 {
		return result
	}

	videos, err := c.fetchVideos(ctx, videoIDs)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Videos = videos
	result.Count = len(videos)
	return result
}

// fetchVideos loads full metadata and statistics for a batch of IDs.
func (c *YouTubeClient) fetchVideos(ctx context.Context, videoIDs []string) ([]model.VideoInfo, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("id", strings.Join(videoIDs, ","))
	resp, err := c.get(ctx, "videos", params)
	if err != nil {
		return nil, err
	}

	videos := make([]model.VideoInfo, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := item.itemID()
		videos = append(videos, model.VideoInfo{
			VideoID:      id,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
			Duration:     parseISODuration(item.ContentDetails.Duration),
			Views:        parseAPICount(item.Statistics.ViewCount),
			Likes:        parseAPICount(item.Statistics.LikeCount),
			Comments:     parseAPICount(item.Statistics.CommentCount),
			Tags:         item.Snippet.Tags,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
			URL:          "https://www.youtube.com/watch?v=" + id,
		})
	}
	return videos, nil
}

// videoByID fetches one video or explains why it could not be found.
func (c *YouTubeClient) videoByID(ctx context.Context, video string) (*model.VideoInfo, string) {
	videoID, err := ExtractVideoID(video)
	if err != nil {
		return nil, err.Error()
	}
	videos, err := c.fetchVideos(ctx, []string{videoID})
	if err != nil {
		return nil, err.Error()
	}
	if len(videos) == 0 {
		return nil, fmt.Sprintf("video %q not found", videoID)
	}
	return &videos[0], ""
}

// EvaluateVideoMetadata reviews one video's title, description, and tags.
func (c *YouTubeClient) EvaluateVideoMetadata(ctx context.Context, video string) *model.VideoMetadataResult {
	result := &model.VideoMetadataResult{VideoID: video}

	info, errMsg := c.videoByID(ctx, video)
	if errMsg != "" {
		result.Error = errMsg
		return result
	}

	result.VideoID = info.VideoID
	result.Title = info.Title
	result.TitleLength = len(info.Title)
	result.DescriptionLength = len(info.Description)
	result.TagCount = len(info.Tags)
	result.HasTimestamps = timestampPattern.MatchString(info.Description)
	result.HasHashtags = strings.Contains(info.Description, "#")
	result.HasLinks = strings.Contains(info.Description, "http")

	recs := make([]string, 0)
	switch {
	case result.TitleLength < 30:
		recs = append(recs, "The title is short; 60-70 characters gives search snippets more to work with.")
	case result.TitleLength > 70:
		recs = append(recs, "The title exceeds 70 characters and will be truncated in search results.")
	}
	if result.DescriptionLength < 200 {
		recs = append(recs, "Expand the description to at least 200 characters with keywords and context.")
	}
	if result.TagCount == 0 {
		recs = append(recs, "Add tags; they still feed YouTube's recommendation signals.")
	}
	if !result.HasTimestamps && info.Duration > 300 {
		recs = append(recs, "Add chapter timestamps for videos over five minutes.")
	}
	if !result.HasLinks {
		recs = append(recs, "Link your site or socials in the description.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Video metadata is in good shape.")
	}
	result.Recommendations = recs
	return result
}

// VideoSEOScore computes the weighted discoverability score for a video.
func (c *YouTubeClient) VideoSEOScore(ctx context.Context, video string) *model.VideoSEOScore {
	result := &model.VideoSEOScore{VideoID: video, Breakdown: map[string]int{}}

	info, errMsg := c.videoByID(ctx, video)
	if errMsg != "" {
		result.Error = errMsg
		return result
	}

	result.VideoID = info.VideoID
	result.Title = info.Title

	// Title: up to 25 points.
	titlePoints := 0
	if titleLen := len(info.Title); titleLen >= 60 && titleLen <= 70 {
		titlePoints += 10
	}
	if titleKeywords.MatchString(info.Title) {
		titlePoints += 8
	}
	if strings.ContainsAny(info.Title, "0123456789") {
		titlePoints += 4
	}
	if strings.ToLower(info.Title) != info.Title {
		titlePoints += 3
	}
	result.Breakdown["title"] = titlePoints

	// Description: up to 20 points.
	descPoints := 0
	if len(info.Description) >= 200 {
		descPoints += 8
	}
	if strings.Contains(info.Description, "http") {
		descPoints += 4
	}
	if timestampPattern.MatchString(info.Description) {
		descPoints += 4
	}
	if strings.Contains(info.Description, "#") {
		descPoints += 4
	}
	result.Breakdown["description"] = descPoints

	// Tags: up to 15 points.
	tagPoints := 0
	switch {
	case len(info.Tags) >= 5:
		tagPoints = 15
	case len(info.Tags) >= 3:
		tagPoints = 10
	case len(info.Tags) >= 1:
		tagPoints = 5
	}
	result.Breakdown["tags"] = tagPoints

	// Engagement: up to 20 points from the like+comment rate.
	if info.Views > 0 {
		result.EngagementRate = float64(info.Likes+info.Comments) / float64(info.Views) * 100
	}
	engagementPoints := 0
	switch {
	case result.EngagementRate >= 5:
		engagementPoints = 20
	case result.EngagementRate >= 2:
		engagementPoints = 15
	case result.EngagementRate >= 1:
		engagementPoints = 10
	case result.EngagementRate >= 0.5:
		engagementPoints = 5
	}
	result.Breakdown["engagement"] = engagementPoints

	// Duration: up to 10 points, the 5-10 minute sweet spot scores full.
	durationPoints := 2
	switch {
	case info.Duration >= 300 && info.Duration <= 600:
		durationPoints = 10
	case info.Duration >= 180 && info.Duration <= 900:
		durationPoints = 8
	case info.Duration >= 60 && info.Duration <= 1200:
		durationPoints = 5
	}
	result.Breakdown["duration"] = durationPoints

	// Thumbnail: 10 points for a custom high-resolution thumbnail.
	thumbnailPoints := 0
	if info.ThumbnailURL != "" {
		thumbnailPoints = 10
	}
	result.Breakdown["thumbnail"] = thumbnailPoints

	result.Score = titlePoints + descPoints + tagPoints + engagementPoints + durationPoints + thumbnailPoints
	result.Rating = scoreRating(result.Score)
	result.Recommendations = videoSEORecommendations(result)
	return result
}

// videoSEORecommendations derives advice from the score components.
func videoSEORecommendations(result *model.VideoSEOScore) []string {
	recs := make([]string, 0)

	if result.Breakdown["title"] < 15 {
		recs = append(recs, "Rework the title: aim for 60-70 characters with a searchable keyword.")
	}
	if result.Breakdown["description"] < 12 {
		recs = append(recs, "Enrich the description with links, timestamps, and hashtags.")
	}
	if result.Breakdown["tags"] < 15 {
		recs = append(recs, "Add at least five relevant tags.")
	}
	if result.Breakdown["engagement"] < 10 {
		recs = append(recs, "Engagement is low; ask viewers directly to like and comment.")
	}
	if len(recs) == 0 {
		recs = append(recs, "The video is well optimized for search.")
	}
	return recs
}

// ChannelPerformance combines channel stats with the average SEO score
// of the recent uploads.
func (c *YouTubeClient) ChannelPerformance(ctx context.Context, channel string) *model.ChannelPerformance {
	result := &model.ChannelPerformance{ChannelID: channel}

	stats := c.ChannelStats(ctx, channel)
	if stats.Error != "" {
		result.Error = stats.Error
		return result
	}
	result.ChannelID = stats.ChannelID
	result.Stats = stats

	recent := c.RecentVideos(ctx, stats.ChannelID, defaultRecentCount)
	if recent.Error == "" && len(recent.Videos) > 0 {
		total := 0
		for _, video := range recent.Videos {
			score := c.VideoSEOScore(ctx, video.VideoID)
			if score.Error == "" {
				total += score.Score
			}
		}
		result.AvgVideoScore = float64(total) / float64(len(recent.Videos))
	}

	result.Rating = scoreRating(int(result.AvgVideoScore))

	recs := make([]string, 0)
	if stats.UploadsPerMonth < 1 {
		recs = append(recs, "Upload more often; less than one video a month stalls channel growth.")
	}
	if stats.Subscribers > 0 && stats.AvgViewsPerVideo < float64(stats.Subscribers)/10 {
		recs = append(recs, "Average views are under 10% of subscribers; revisit titles and thumbnails.")
	}
	if result.AvgVideoScore < 60 {
		recs = append(recs, "Recent videos score low on discoverability; apply the per-video recommendations.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Channel performance looks strong.")
	}
	result.Recommendations = recs
	return result
}

// CompareChannels fetches up to five channels concurrently and ranks
// them by subscriber count.
func (c *YouTubeClient) CompareChannels(ctx context.Context, channels []string) *model.ChannelComparison {
	result := &model.ChannelComparison{Channels: []*model.ChannelStats{}, Ranking: []string{}}

	if len(channels) == 0 {
		result.Error = "no channels given"
		return result
	}
	if len(channels) > maxCompareChannels {
		result.Error = fmt.Sprintf("at most %d channels can be compared", maxCompareChannels)
		return result
	}

	stats := make([]*model.ChannelStats, len(channels))
	g, gctx := errgroup.WithContext(ctx)
	for i, channel := range channels {
		g.Go(func() error {
			stats[i] = c.ChannelStats(gctx, channel)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines fold errors into the stats

	result.Channels = stats

	ranked := make([]*model.ChannelStats, 0, len(stats))
	for _, channel := range stats {
		if channel.Error == "" {
			ranked = append(ranked, channel)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Subscribers > ranked[j].Subscribers
	})
	for _, channel := range ranked {
		result.Ranking = append(result.Ranking, channel.Title)
	}
	return result
}

// scoreRating buckets a 0-100 score into a display rating. A Caser
// is not safe for concurrent use, so one is built per call.
func scoreRating(score int) string {
	caser := cases.Title(language.English)
	switch {
	case score >= 80:
		return caser.String("excellent")
	case score >= 60:
		return caser.String("good")
	case score >= 40:
		return caser.String("fair")
	default:
		return caser.String("poor")
	}
}

// parseAPICount parses the numeric strings the API uses for counters.
func parseAPICount(s string) int64 {
	if s == "" {
		return 0
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseISODuration converts an ISO-8601 duration like PT5M30S to
// seconds.
func parseISODuration(s string) int {
	match := durationPattern.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	hours, _ := strconv.Atoi(match[1])   //nolint:errcheck // empty group parses to 0
	minutes, _ := strconv.Atoi(match[2]) //nolint:errcheck // empty group parses to 0
	seconds, _ := strconv.Atoi(match[3]) //nolint:errcheck // empty group parses to 0
	return hours*3600 + minutes*60 + seconds
}
