package model

// PageInfo holds the basic on-page SEO facts for a single URL.
type PageInfo struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	TitleLength     int    `json:"title_length"`
	MetaDescription string `json:"meta_description"`
	MetaDescLength  int    `json:"meta_description_length"`
	H1Count         int    `json:"h1_count"`
	H2Count         int    `json:"h2_count"`
	ImageCount      int    `json:"image_count"`
	LinkCount       int    `json:"link_count"`
	StatusCode      int    `json:"status_code"`
	Error           string `json:"error,omitempty"`
}

// MetaTagCheck records the presence and content of one meta tag.
type MetaTagCheck struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Content string `json:"content,omitempty"`
}

// MetaTagsResult reports how complete a page's meta tags are.
// Eleven tags are checked: title, description, keywords, og:title,
// og:description, og:image, twitter:card, canonical, viewport, charset
// and robots. The score is the fraction present, as a percentage.
type MetaTagsResult struct {
	URL     string         `json:"url"`
	Tags    []MetaTagCheck `json:"tags"`
	Missing []string       `json:"missing"`
	Score   int            `json:"score"`
	Error   string         `json:"error,omitempty"`
}

// ImageAltIssue describes one problematic image.
type ImageAltIssue struct {
	Source string `json:"src"`
	Alt    string `json:"alt"`
	Issue  string `json:"issue"`
}

// ImageAltResult reports alternative-text coverage for a page's images.
type ImageAltResult struct {
	URL         string          `json:"url"`
	TotalImages int             `json:"total_images"`
	WithAlt     int             `json:"images_with_alt"`
	MissingAlt  int             `json:"images_missing_alt"`
	EmptyAlt    int             `json:"images_empty_alt"`
	Issues      []ImageAltIssue `json:"issues,omitempty"`
	Score       int             `json:"score"`
	Error       string          `json:"error,omitempty"`
}

// SEOAuditResult combines the quick-audit sub-checks into a single report
// with an overall score. Sub-results that failed carry their own error
// and are excluded from the overall average.
type SEOAuditResult struct {
	URL             string          `json:"url"`
	PageInfo        *PageInfo       `json:"page_info,omitempty"`
	MetaTags        *MetaTagsResult `json:"meta_tags,omitempty"`
	Images          *ImageAltResult `json:"images,omitempty"`
	TitleScore      int             `json:"title_score"`
	DescScore       int             `json:"description_score"`
	LoadTime        float64         `json:"load_time_seconds"`
	LoadTimeScore   int             `json:"load_time_score"`
	OverallScore    int             `json:"overall_score"`
	Recommendations []string        `json:"recommendations"`
	Error           string          `json:"error,omitempty"`
}
