package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/webaudit/webaudit/internal/config"
	"github.com/webaudit/webaudit/internal/crawler"
	"github.com/webaudit/webaudit/internal/database"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [site-url]",
		Short: "Crawl a website without running audits",
		Long: `Crawl walks a website breadth-first within the page budget and
reports the pages it found, without running any audit checks.

Crawled pages are recorded in the local database so later audits can
reuse them. Use --json for machine-readable output.

Examples:
  # Crawl a site with the default page budget
  webaudit crawl https://example.com

  # Crawl up to 50 pages with no politeness delay
  webaudit crawl -p 50 -w 0 https://example.com

  # Output the full crawl result as JSON
  webaudit crawl --json https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl")
	cmd.Flags().DurationP("delay", "w", config.DefaultCrawlDelay,
		"Politeness delay between page fetches")
	cmd.Flags().BoolP("json", "j", false,
		"Output the crawl result as JSON")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	maxPages, err := cmd.Flags().GetInt("max-pages")
	if err != nil {
		return err
	}
	delay, err := cmd.Flags().GetDuration("delay")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	target, err := fetch.ValidateURL(args[0])
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", args[0], err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := fetch.New(
		fetch.WithTimeout(timeout),
		fetch.WithUserAgent(config.DefaultUserAgent),
		fetch.WithMaxBodySize(config.DefaultMaxBodySize),
	)

	spider := crawler.NewSpider(client,
		crawler.WithMaxPages(maxPages),
		crawler.WithDelay(delay),
		crawler.WithLogger(logger),
	)

	fmt.Fprintf(os.Stderr, "Crawling %s...\n", target.String())
	result := spider.Crawl(ctx, target.String())

	// Record the crawled pages for later audits. A failure here should
	// not discard the crawl output.
	if err := recordCrawl(ctx, target.Host, result, logger); err != nil {
		logger.Warn("failed to record crawl", "error", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printCrawlSummary(result)
	return nil
}

// recordCrawl stores each crawled page in the local database.
func recordCrawl(ctx context.Context, site string, result *model.CrawlResult, logger *slog.Logger) error {
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, page := range result.Pages {
		record := &database.PageRecord{
			URL:         page.URL,
			Site:        site,
			Timestamp:   time.Now(),
			StatusCode:  page.StatusCode,
			ContentType: page.ContentType,
			Title:       page.Title,
			Snapshot:    page.TextContent,
		}
		if _, err := db.InsertPageRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to record page %s: %w", page.URL, err)
		}
	}

	logger.Info("crawl recorded", "site", site, "pages", len(result.Pages))
	return nil
}

// printCrawlSummary prints a human-readable crawl summary.
func printCrawlSummary(result *model.CrawlResult) {
	if result.Error != "" {
		fmt.Printf("Crawl failed: %s\n", result.Error)
		return
	}

	fmt.Printf("\nCrawl of %s\n\n", result.StartURL)
	fmt.Printf("  Pages visited:  %d\n", result.Summary.TotalPages)
	fmt.Printf("  Links found:    %d\n", result.Summary.TotalLinks)
	fmt.Printf("  Errors:         %d\n", len(result.Summary.Errors))
	fmt.Printf("  Duration:       %s\n\n", result.Summary.Elapsed.Round(time.Millisecond))

	for _, page := range result.Pages {
		status := fmt.Sprintf("%d", page.StatusCode)
		if page.Error != "" {
			status = "ERR"
		}
		title := page.Title
		if title == "" {
			title = "-"
		}
		fmt.Printf("  [%s] %s  %s\n", status, page.URL, title)
	}
}
