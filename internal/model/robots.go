package model

// RobotsRule is one allow or disallow rule within a user-agent group.
type RobotsRule struct {
	Directive string `json:"directive"`
	Path      string `json:"path"`
}

// RobotsGroup collects the rules for one or more user agents.
type RobotsGroup struct {
	UserAgents []string     `json:"user_agents"`
	Rules      []RobotsRule `json:"rules"`
	CrawlDelay float64      `json:"crawl_delay,omitempty"`
}

// RobotsIssue is a parse error or warning with its line number.
type RobotsIssue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// RobotsResult is the robots.txt fetch, parse, and analysis report.
//
// Found and Accessible are distinct: a 404 means the server answered
// (accessible) but no robots.txt exists (not found). A connection
// failure leaves both false.
type RobotsResult struct {
	URL        string `json:"url"`
	RobotsURL  string `json:"robots_url"`
	Found      bool   `json:"found"`
	Accessible bool   `json:"accessible"`
	StatusCode int    `json:"status_code,omitempty"`
	Content    string `json:"content,omitempty"`

	Groups   []RobotsGroup `json:"groups"`
	Sitemaps []string      `json:"sitemaps"`
	Host     string        `json:"host,omitempty"`

	ParseErrors   []RobotsIssue `json:"parse_errors,omitempty"`
	ParseWarnings []RobotsIssue `json:"parse_warnings,omitempty"`

	// BlocksAllCrawlers is true when the wildcard group disallows "/"
	// with no counteracting allow rule.
	BlocksAllCrawlers bool `json:"blocks_all_crawlers"`

	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}
