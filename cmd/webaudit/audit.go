package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/webaudit/webaudit/internal/config"
	"github.com/webaudit/webaudit/internal/database"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/log"
	"github.com/webaudit/webaudit/internal/model"
	"github.com/webaudit/webaudit/internal/pipeline"
	"github.com/webaudit/webaudit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [site-url]",
		Short: "Run a full audit against a website",
		Long: `Audit crawls a website and runs every check against it.

The audit covers:
- On-page SEO (titles, meta descriptions, headings, image alt text)
- Static accessibility checks
- External link health and internal link structure
- Structured data (JSON-LD, Microdata, RDFa)
- robots.txt and sitemap configuration
- HTTPS availability, certificate, and TLS configuration
- Page speed via a local Lighthouse run
- Privacy-sensitive metadata in published images

Examples:
  # Audit a single site
  webaudit audit https://example.com

  # Audit several sites
  webaudit audit https://example.com https://example.org

  # Audit every site listed in a file (one URL per line)
  webaudit audit --list sites.txt

  # Output a JSON report
  webaudit audit --json https://example.com

  # Use a custom configuration file
  webaudit audit -c myconfig.yaml https://example.com

Configuration file (.webaudit) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
    example.org:
      maxPages: 50`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().DurationP("delay", "w", config.DefaultCrawlDelay,
		"Politeness delay between page fetches")
	cmd.Flags().Bool("skip-speed", false,
		"Skip the page speed audit (requires a local Chrome install)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")
	cmd.Flags().StringP("list", "l", "",
		"Read target URLs from a file (one URL per line)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webaudit in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.SkipSpeed, err = cmd.Flags().GetBool("skip-speed")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments are target URLs; --list adds more from a file.
	cfg.Targets = args

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		listed, err := readTargetsFile(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// readTargetsFile reads target URLs from a file, one per line.
// Blank lines and lines starting with # are skipped.
func readTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-supplied by design
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler redacts credentials and API keys from log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"maxPages", cfg.EffectiveMaxPages(),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Validate and normalize all target URLs
	for i, target := range cfg.Targets {
		u, err := fetch.ValidateURL(target)
		if err != nil {
			return fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		cfg.Targets[i] = u.String()
	}

	// Open database connection if saving is enabled
	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Use batch processor for parallel auditing if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, db, logger)
	}

	// Single target or sequential auditing
	return runSequentialAudit(ctx, cfg, db, logger)
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, db *database.AuditDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Get site-specific configuration
		siteConfig := getSiteConfig(cfg, target)

		// Create pipeline with site-specific options
		p := createPipelineForTarget(logger, cfg, siteConfig)

		auditReport := model.NewSiteAuditReport(target)

		fmt.Printf("Auditing %s...\n", target)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, auditReport); err != nil {
			logger.Error("audit failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, db *database.AuditDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (cookies, headers, maxPages) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			var siteConfig config.SiteConfig
			if cfg.SiteConfigs != nil {
				siteConfig = cfg.SiteConfigs.Defaults
			}
			return createPipelineForTarget(logger, cfg, siteConfig)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(auditReport *model.SiteAuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Audit completed: %s\n", index+1, len(cfg.Targets), auditReport.TargetURL)

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", auditReport.TargetURL, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "target", auditReport.TargetURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// getSiteConfig returns the site-specific configuration for a target URL.
// Falls back to defaults if no site-specific config exists.
func getSiteConfig(cfg *config.Config, target string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}

	// Config entries are keyed by hostname, so strip the scheme.
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}

	return cfg.SiteConfigs.GetSiteConfig(host)
}

// newFetchClient creates an HTTP client configured for the audit,
// including any site-specific cookie and headers.
func newFetchClient(cfg *config.Config, siteConfig config.SiteConfig) *fetch.Client {
	headers := make(map[string]string, len(siteConfig.Headers)+1)
	for k, v := range siteConfig.Headers {
		headers[k] = v
	}
	if siteConfig.Cookie != "" {
		headers["Cookie"] = siteConfig.Cookie
	}

	return fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHeaders(headers),
	)
}

// createPipelineForTarget creates a pipeline with the given configuration.
func createPipelineForTarget(logger *slog.Logger, cfg *config.Config, siteConfig config.SiteConfig) *pipeline.Pipeline {
	client := newFetchClient(cfg, siteConfig)

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}

	// Determine page budget (site-specific overrides global)
	maxPages := cfg.EffectiveMaxPages()
	if siteConfig.MaxPages > 0 {
		maxPages = siteConfig.MaxPages
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineCrawlMaxPages(maxPages),
		pipeline.WithPipelineCrawlDelay(cfg.CrawlDelay),
		pipeline.WithPipelineMaxLinkChecks(cfg.MaxLinkChecks),
		pipeline.WithPipelineSkipSpeed(cfg.SkipSpeed),
	}

	// Add URL pattern filtering if configured
	if len(siteConfig.IgnorePatterns) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineIgnorePatterns(siteConfig.IgnorePatterns))
	}
	if len(siteConfig.FollowPatterns) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineFollowPatterns(siteConfig.FollowPatterns))
	}

	return pipeline.DefaultPipeline(client, pipelineOpts, configOpts...)
}

// outputReport outputs the audit report in the requested format.
// When writing to a file, a short summary is also printed to stdout.
func outputReport(cfg *config.Config, auditReport *model.SiteAuditReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		// Full report with version metadata and a condensed summary.
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output)
	}

	// When the report goes to a file, keep the terminal informative too.
	if cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(os.Stdout))
	}

	_, err := w.Write(auditReport)
	return err
}

// saveAuditReport saves the audit report to the database if enabled.
// If db is nil, this function is a no-op.
func saveAuditReport(ctx context.Context, db *database.AuditDB, auditReport *model.SiteAuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveAuditReport(ctx, auditReport); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved to database", "target", auditReport.TargetURL)
	return nil
}
