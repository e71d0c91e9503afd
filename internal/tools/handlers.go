package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/webaudit/webaudit/internal/audit"
	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/social"
)

// Deps carries the shared capabilities the tool handlers need.
// The fetch client is constructed once and injected everywhere.
type Deps struct {
	Client *fetch.Client
	Logger *slog.Logger

	// Option hooks, used by tests to point clients at fixtures.
	SpeedOptions     []audit.SpeedOption
	InstagramOptions []social.InstagramOption
	YouTubeOptions   []social.YouTubeOption
}

// DefaultRegistry builds a registry with every audit tool registered.
func DefaultRegistry(deps Deps) *Registry {
	if deps.Client == nil {
		deps.Client = fetch.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := NewRegistry(deps.Logger)

	r.Register("crawl_site", deps.crawlSite)
	r.Register("audit_speed", deps.auditSpeed)
	r.Register("check_schema", deps.checkSchema)
	r.Register("check_external_links", deps.checkExternalLinks)
	r.Register("audit_accessibility", deps.auditAccessibility)
	r.Register("check_robots_txt", deps.checkRobotsTxt)
	r.Register("check_https_usage", deps.checkHTTPSUsage)
	r.Register("check_internal_linking", deps.checkInternalLinking)
	r.Register("get_page_info", deps.getPageInfo)
	r.Register("check_meta_tags", deps.checkMetaTags)
	r.Register("get_images_without_alt", deps.getImagesWithoutAlt)
	r.Register("quick_seo_audit", deps.quickSEOAudit)
	r.Register("audit_image_metadata", deps.auditImageMetadata)

	r.Register("get_profile_info", deps.getProfileInfo)
	r.Register("get_social_posts", deps.getSocialPosts)
	r.Register("analyze_engagement_score", deps.analyzeEngagementScore)
	r.Register("get_hashtag_analysis", deps.getHashtagAnalysis)
	r.Register("compare_profiles", deps.compareProfiles)

	r.Register("get_channel_stats", deps.getChannelStats)
	r.Register("get_recent_videos", deps.getRecentVideos)
	r.Register("evaluate_video_metadata", deps.evaluateVideoMetadata)
	r.Register("analyze_channel_performance", deps.analyzeChannelPerformance)
	r.Register("get_video_seo_score", deps.getVideoSEOScore)
	r.Register("compare_channels", deps.compareChannels)

	return r
}

// decodeParams unmarshals the raw parameter object. Absent parameters
// decode to the zero value so each handler applies its own defaults.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// urlParams is the shape shared by the single-URL tools.
type urlParams struct {
	URL     string  `json:"url"`
	Timeout float64 `json:"timeout,omitempty"`
}

// validate runs the syntactic URL check before any I/O happens.
func (p *urlParams) validate() error {
	if p.URL == "" {
		return fmt.Errorf("url parameter is required")
	}
	_, err := fetch.ValidateURL(p.URL)
	return err
}

// callContext applies the optional per-call timeout in seconds.
func (p *urlParams) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(p.Timeout*float64(time.Second)))
	}
	return context.WithCancel(ctx)
}

func (d Deps) crawlSite(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		urlParams
		MaxPages int     `json:"max_pages,omitempty"`
		WaitTime float64 `json:"wait_time,omitempty"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	opts := []crawler.SpiderOption{crawler.WithLogger(d.Logger)}
	if p.MaxPages > 0 {
		opts = append(opts, crawler.WithMaxPages(p.MaxPages))
	}
	if p.WaitTime >= 0 {
		opts = append(opts, crawler.WithDelay(time.Duration(p.WaitTime*float64(time.Second))))
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return crawler.NewSpider(d.Client, opts...).Crawl(callCtx, p.URL), nil
}

func (d Deps) auditSpeed(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	opts := d.SpeedOptions
	if p.Timeout > 0 {
		opts = append(opts, audit.WithSpeedTimeout(time.Duration(p.Timeout*float64(time.Second))))
	}
	return audit.NewSpeedAuditor(opts...).Audit(ctx, p.URL), nil
}

func (d Deps) checkSchema(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewSchemaAuditor(d.Client).Check(callCtx, p.URL), nil
}

// linkParams adds the probe cap shared by the two link tools.
type linkParams struct {
	urlParams
	MaxLinks int `json:"max_links,omitempty"`
}

func (p *linkParams) auditor(client *fetch.Client) *audit.LinkAuditor {
	opts := []audit.LinkOption{}
	if p.MaxLinks > 0 {
		opts = append(opts, audit.WithMaxLinkChecks(p.MaxLinks))
	}
	return audit.NewLinkAuditor(client, opts...)
}

func (d Deps) checkExternalLinks(ctx context.Context, params json.RawMessage) (any, error) {
	var p linkParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return p.auditor(d.Client).ExternalLinks(callCtx, p.URL), nil
}

func (d Deps) checkInternalLinking(ctx context.Context, params json.RawMessage) (any, error) {
	var p linkParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return p.auditor(d.Client).InternalLinking(callCtx, p.URL), nil
}

func (d Deps) auditAccessibility(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewAccessibilityAuditor(d.Client).Audit(callCtx, p.URL), nil
}

func (d Deps) checkRobotsTxt(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewRobotsAuditor(d.Client).Check(callCtx, p.URL), nil
}

func (d Deps) checkHTTPSUsage(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewHTTPSAuditor(d.Client).Check(callCtx, p.URL), nil
}

func (d Deps) getPageInfo(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewSEOAuditor(d.Client).PageInfo(callCtx, p.URL), nil
}

func (d Deps) checkMetaTags(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewSEOAuditor(d.Client).MetaTags(callCtx, p.URL), nil
}

func (d Deps) getImagesWithoutAlt(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewSEOAuditor(d.Client).ImageAlt(callCtx, p.URL), nil
}

func (d Deps) quickSEOAudit(ctx context.Context, params json.RawMessage) (any, error) {
	var p urlParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	return audit.NewSEOAuditor(d.Client).QuickAudit(callCtx, p.URL), nil
}

func (d Deps) auditImageMetadata(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		urlParams
		MaxImages int `json:"max_images,omitempty"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	opts := []audit.ImageMetadataOption{}
	if p.MaxImages > 0 {
		opts = append(opts, audit.WithMaxImageChecks(p.MaxImages))
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	findings, err := audit.NewImageMetadataAuditor(d.Client, opts...).Audit(callCtx, p.URL)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"url":      p.URL,
		"findings": findings,
		"count":    len(findings),
	}, nil
}

// usernameParams is the shape shared by the Instagram tools.
type usernameParams struct {
	Username string `json:"username"`
}

func (p *usernameParams) validate() error {
	if social.CleanUsername(p.Username) == "" {
		return fmt.Errorf("username parameter is required")
	}
	return nil
}

func (d Deps) instagram() *social.InstagramClient {
	return social.NewInstagramClient(d.Client, d.InstagramOptions...)
}

func (d Deps) getProfileInfo(ctx context.Context, params json.RawMessage) (any, error) {
	var p usernameParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return d.instagram().ProfileInfo(ctx, p.Username), nil
}

func (d Deps) getSocialPosts(ctx context.Context, params json.RawMessage) (any, error) {
	var p usernameParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return d.instagram().Posts(ctx, p.Username), nil
}

func (d Deps) analyzeEngagementScore(ctx context.Context, params json.RawMessage) (any, error) {
	var p usernameParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return d.instagram().EngagementScore(ctx, p.Username), nil
}

func (d Deps) getHashtagAnalysis(ctx context.Context, params json.RawMessage) (any, error) {
	var p usernameParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return d.instagram().HashtagAnalysis(ctx, p.Username), nil
}

func (d Deps) compareProfiles(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Usernames []string `json:"usernames"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Usernames) == 0 {
		return nil, fmt.Errorf("usernames parameter is required")
	}
	return d.instagram().CompareProfiles(ctx, p.Usernames), nil
}

// youtube constructs the API client; a missing key surfaces here as the
// tool error before any network I/O.
func (d Deps) youtube() (*social.YouTubeClient, error) {
	return social.NewYouTubeClient(d.Client, d.YouTubeOptions...)
}

func (d Deps) getChannelStats(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Channel string `json:"channel"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Channel == "" {
		return nil, fmt.Errorf("channel parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.ChannelStats(ctx, p.Channel), nil
}

func (d Deps) getRecentVideos(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Channel    string `json:"channel"`
		MaxResults int    `json:"max_results,omitempty"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Channel == "" {
		return nil, fmt.Errorf("channel parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.RecentVideos(ctx, p.Channel, p.MaxResults), nil
}

func (d Deps) evaluateVideoMetadata(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Video string `json:"video"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Video == "" {
		return nil, fmt.Errorf("video parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.EvaluateVideoMetadata(ctx, p.Video), nil
}

func (d Deps) analyzeChannelPerformance(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Channel string `json:"channel"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Channel == "" {
		return nil, fmt.Errorf("channel parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.ChannelPerformance(ctx, p.Channel), nil
}

func (d Deps) getVideoSEOScore(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Video string `json:"video"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Video == "" {
		return nil, fmt.Errorf("video parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.VideoSEOScore(ctx, p.Video), nil
}

func (d Deps) compareChannels(ctx context.Context, params json.RawMessage) (any, error) {
	p := struct {
		Channels []string `json:"channels"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Channels) == 0 {
		return nil, fmt.Errorf("channels parameter is required")
	}
	client, err := d.youtube()
	if err != nil {
		return nil, err
	}
	return client.CompareChannels(ctx, p.Channels), nil
}
