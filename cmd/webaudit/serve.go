package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/webaudit/webaudit/internal/config"
	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/social"
	"github.com/webaudit/webaudit/internal/tools"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve audit tools over stdin/stdout",
		Long: `Serve exposes every audit and social media tool as a line-oriented
JSON protocol on stdin/stdout, for use by other programs.

Each request is a single JSON line:
  {"id": 1, "tool": "quick_seo_audit", "params": {"url": "https://example.com"}}

Each response is a single JSON line carrying the matching id:
  {"id": 1, "result": {...}}

Failed calls still produce a result object, with the failure in its
"error" field. Requests are processed in order, one at a time.

Examples:
  # Start the tool server
  webaudit serve

  # Run a single tool call
  echo '{"id":1,"tool":"check_robots_txt","params":{"url":"https://example.com"}}' | webaudit serve

  # Provide a YouTube Data API key for the channel tools
  webaudit serve --youtube-api-key AIza...`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("youtube-api-key", "",
		"YouTube Data API key (defaults to the YOUTUBE_API_KEY environment variable)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	userAgent, err := cmd.Flags().GetString("user-agent")
	if err != nil {
		return err
	}
	apiKey, err := cmd.Flags().GetString("youtube-api-key")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping server...")
		cancel()
	}()

	return runServe(ctx, os.Stdin, os.Stdout, timeout, userAgent, apiKey, logger)
}

// runServe builds the tool registry and serves requests until the input
// is exhausted or the context is cancelled.
func runServe(ctx context.Context, in io.Reader, out io.Writer, timeout time.Duration, userAgent, apiKey string, logger *slog.Logger) error {
	client := fetch.New(
		fetch.WithTimeout(timeout),
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(config.DefaultMaxBodySize),
	)

	deps := tools.Deps{
		Client: client,
		Logger: logger,
	}
	if apiKey != "" {
		deps.YouTubeOptions = append(deps.YouTubeOptions, social.WithAPIKey(apiKey))
	}

	registry := tools.DefaultRegistry(deps)
	server := tools.NewServer(registry, logger)

	logger.Info("tool server started", "tools", len(registry.Names()))
	fmt.Fprintf(os.Stderr, "Serving %d tools on stdin/stdout. Press Ctrl+C to stop.\n", len(registry.Names()))

	err := server.Serve(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
