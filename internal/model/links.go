package model

// Link categorization values used by the link auditors.
const (
	LinkCategoryInternal = "internal"
	LinkCategoryExternal = "external"
	LinkCategoryEmail    = "email"
	LinkCategoryPhone    = "phone"
	LinkCategoryOther    = "other"
)

// Link check status values.
const (
	LinkStatusWorking         = "working"
	LinkStatusBroken          = "broken"
	LinkStatusTimeout         = "timeout"
	LinkStatusConnectionError = "connection_error"
	LinkStatusTLSError        = "ssl_error"
	LinkStatusTooManyRedirect = "too_many_redirects"
)

// LinkCheck is the result of probing a single URL.
type LinkCheck struct {
	URL          string  `json:"url"`
	Status       string  `json:"status"`
	StatusCode   int     `json:"status_code,omitempty"`
	FinalURL     string  `json:"final_url,omitempty"`
	Redirected   bool    `json:"redirected"`
	ResponseTime float64 `json:"response_time_seconds"`
	Error        string  `json:"error,omitempty"`
}

// ExternalLinksResult categorizes a page's outbound links and reports
// the health of the external ones.
type ExternalLinksResult struct {
	URL string `json:"url"`

	// Categorized link lists. Internal links are not probed here; see
	// InternalLinkingResult for that.
	Internal []string `json:"internal_links"`
	External []string `json:"external_links"`
	Email    []string `json:"email_links"`
	Phone    []string `json:"phone_links"`
	Other    []string `json:"other_links"`

	// Checks holds the probe result for each checked external link,
	// capped at the configured maximum.
	Checks []LinkCheck `json:"checks"`

	// CheckedCount may be lower than len(External) when the cap applies.
	CheckedCount int `json:"checked_count"`

	Working         int            `json:"working"`
	Broken          int            `json:"broken"`
	Timeouts        int            `json:"timeouts"`
	Errors          int            `json:"errors"`
	Redirected      int            `json:"redirected"`
	StatusCodes     map[string]int `json:"status_codes"`
	Recommendations []string       `json:"recommendations"`
	Error           string         `json:"error,omitempty"`
}

// InternalLink describes one internal anchor with its page context.
type InternalLink struct {
	URL        string `json:"url"`
	Text       string `json:"text"`
	Context    string `json:"context"`
	Generic    bool   `json:"generic_anchor"`
	InNav      bool   `json:"in_nav"`
	InFooter   bool   `json:"in_footer"`
	Breadcrumb bool   `json:"in_breadcrumb"`
}

// InternalLinkingResult reports the internal link structure of a page
// with a weighted quality score.
type InternalLinkingResult struct {
	URL             string         `json:"url"`
	Links           []InternalLink `json:"links"`
	UniqueTargets   int            `json:"unique_targets"`
	NavLinks        int            `json:"nav_links"`
	FooterLinks     int            `json:"footer_links"`
	HasBreadcrumbs  bool           `json:"has_breadcrumbs"`
	Checks          []LinkCheck    `json:"checks"`
	BrokenPercent   float64        `json:"broken_percent"`
	RedirectPercent float64        `json:"redirect_percent"`
	AvgResponseTime float64        `json:"avg_response_time_seconds"`
	GenericAnchors  int            `json:"generic_anchors"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	Error           string         `json:"error,omitempty"`
}
