package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for polite crawling of production websites.
const (
	// DefaultTimeout is set to 30 seconds because public websites answer
	// quickly; a longer timeout would only make dead hosts slower to report.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages is the number of pages crawled per site when the
	// caller does not ask for more. Ten pages covers the home page and
	// the primary navigation targets of most sites.
	DefaultMaxPages = 10

	// MaxPageBudget is the hard upper bound on pages per crawl. Requests
	// for more are clamped here to prevent runaway crawls on large or
	// infinitely-generating sites.
	MaxPageBudget = 100

	// DefaultBatchSize of 10 concurrent audits balances throughput with
	// resource usage. Higher values may trigger rate limiting on the
	// audited sites.
	DefaultBatchSize = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "webaudit"

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting; two seconds keeps the crawler well
	// under the request rates most sites tolerate from unknown agents.
	// Can be adjusted via the --crawl-delay CLI flag.
	DefaultCrawlDelay = 2 * time.Second

	// DefaultUserAgent identifies the auditor in HTTP requests.
	// A descriptive User-Agent lets operators identify audit traffic
	// in their logs.
	DefaultUserAgent = "webaudit/1.0 (+https://github.com/webaudit/webaudit)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxLinkChecks is the number of links probed per link audit.
	// Probing every link on a link-heavy page would turn one audit into
	// hundreds of requests; 50 keeps audits fast and still representative.
	DefaultMaxLinkChecks = 50

	// DefaultSpeedTimeout is the maximum time to wait for a Lighthouse
	// run. Lighthouse starts a headless browser, so this must be far
	// more generous than an HTTP timeout.
	DefaultSpeedTimeout = 60 * time.Second
)

// Config holds all configuration options for the auditor.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Timeout is the connection timeout for each HTTP request.
	// This applies to individual connections, not the overall audit duration.
	Timeout time.Duration

	// MaxPages is the maximum number of pages to crawl per site.
	// A value of 0 means use the default (DefaultMaxPages); values above
	// MaxPageBudget are clamped.
	MaxPages int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent audits when processing multiple
	// targets. Higher values increase throughput but may overwhelm system
	// resources or trip rate limits on the audited sites.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webaudit in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config
	// file. This is populated by LoadConfigFile and used during crawling.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. When true, outputs GitHub Flavored Markdown with tables and
	// alerts. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of site URLs to audit.
	// Must contain at least one syntactically valid http(s) URL.
	Targets []string

	// DBDir is the directory path for storing the SQLite database.
	// When set, audit results are saved to the database for historical
	// comparison. When empty, results are not persisted.
	// Defaults to the XDG data directory (~/.local/share/webaudit on Linux).
	DBDir string

	// SaveToDB indicates whether to save audit results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// CrawlDelay is the delay between HTTP requests during crawling.
	// This is a "politeness" setting to avoid overwhelming the audited
	// site. Lower values may cause rate limiting.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps operators identify audit traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// MaxLinkChecks caps the number of links probed per link audit.
	// Set to 0 to use the default (DefaultMaxLinkChecks).
	MaxLinkChecks int

	// SkipSpeed disables the Lighthouse speed audit. Useful on machines
	// without the Lighthouse CLI installed.
	SkipSpeed bool

	// YouTubeAPIKey authenticates YouTube Data API requests made by the
	// social tools. When empty, the YOUTUBE_API_KEY environment variable
	// is consulted instead.
	YouTubeAPIKey string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, delays).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		MaxPages:      DefaultMaxPages,
		BatchSize:     DefaultBatchSize,
		CrawlDelay:    DefaultCrawlDelay,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		MaxLinkChecks: DefaultMaxLinkChecks,
	}
}

// XDGDataDir returns the XDG data directory for the auditor.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webaudit
// On macOS: ~/Library/Application Support/webaudit
// On Windows: %LOCALAPPDATA%\webaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the auditor.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/webaudit
// On macOS: ~/Library/Application Support/webaudit
// On Windows: %APPDATA%\webaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for the auditor.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/webaudit
// On macOS: ~/Library/Caches/webaudit
// On Windows: %LOCALAPPDATA%\webaudit\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any auditing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one target to audit
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no auditing
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// MaxPages must be non-negative; 0 means use the default
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	return nil
}

// EffectiveMaxPages applies the default and the hard budget to MaxPages.
func (c *Config) EffectiveMaxPages() int {
	pages := c.MaxPages
	if pages <= 0 {
		pages = DefaultMaxPages
	}
	if pages > MaxPageBudget {
		pages = MaxPageBudget
	}
	return pages
}
