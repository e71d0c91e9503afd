package model

import "time"

// ChannelStats holds the headline statistics for a YouTube channel.
type ChannelStats struct {
	ChannelID        string    `json:"channel_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Subscribers      int64     `json:"subscribers"`
	TotalViews       int64     `json:"total_views"`
	VideoCount       int64     `json:"video_count"`
	AvgViewsPerVideo float64   `json:"avg_views_per_video"`
	UploadsPerMonth  float64   `json:"uploads_per_month"`
	DaysActive       int       `json:"days_active"`
	CreatedAt        time.Time `json:"created_at"`
	Country          string    `json:"country,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// VideoInfo holds the metadata and statistics for a single video.
type VideoInfo struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Duration     int       `json:"duration_seconds"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
	Tags         []string  `json:"tags,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	URL          string    `json:"url"`
}

// RecentVideosResult lists a channel's most recent uploads.
type RecentVideosResult struct {
	ChannelID string      `json:"channel_id"`
	Videos    []VideoInfo `json:"videos"`
	Count     int         `json:"count"`
	Error     string      `json:"error,omitempty"`
}

// VideoMetadataResult is the qualitative review of one video's metadata.
type VideoMetadataResult struct {
	VideoID           string   `json:"video_id"`
	Title             string   `json:"title"`
	TitleLength       int      `json:"title_length"`
	DescriptionLength int      `json:"description_length"`
	TagCount          int      `json:"tag_count"`
	HasTimestamps     bool     `json:"has_timestamps"`
	HasHashtags       bool     `json:"has_hashtags"`
	HasLinks          bool     `json:"has_links"`
	Recommendations   []string `json:"recommendations"`
	Error             string   `json:"error,omitempty"`
}

// VideoSEOScore is the weighted discoverability score for a video.
// The score is normalized to [0, 100] from six weighted components:
// title 25, description 20, tags 15, engagement 20, duration 10 and
// thumbnail 10. Breakdown records the points earned per component.
type VideoSEOScore struct {
	VideoID         string         `json:"video_id"`
	Title           string         `json:"title"`
	Score           int            `json:"score"`
	Breakdown       map[string]int `json:"score_breakdown"`
	EngagementRate  float64        `json:"engagement_rate"`
	Rating          string         `json:"rating"`
	Recommendations []string       `json:"recommendations"`
	Error           string         `json:"error,omitempty"`
}

// ChannelPerformance combines channel statistics with an overall rating.
type ChannelPerformance struct {
	ChannelID       string        `json:"channel_id"`
	Stats           *ChannelStats `json:"stats,omitempty"`
	AvgVideoScore   float64       `json:"avg_video_score"`
	Rating          string        `json:"rating"`
	Recommendations []string      `json:"recommendations"`
	Error           string        `json:"error,omitempty"`
}

// ChannelComparison ranks several channels by subscriber count.
type ChannelComparison struct {
	Channels []*ChannelStats `json:"channels"`
	Ranking  []string        `json:"ranking"`
	Error    string          `json:"error,omitempty"`
}
