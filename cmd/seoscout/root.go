package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"seoscout/internal/apperr"
	"seoscout/internal/config"
	"seoscout/internal/crawl"
	"seoscout/internal/report"
	"seoscout/pkg/seomodel"
)

// NewRootCmd builds the seoscout CLI, grounded on
// nao1215-onionscan/cmd/onionscan's cobra.Command construction — flags
// registered on one command, values read back in RunE via
// cmd.Flags().Get*, since spec.md's CLI has no subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seoscout <url>",
		Short:         "Crawl a site and report on-page SEO issues",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	defaults := config.Default()
	cmd.Flags().IntP("depth", "d", defaults.Depth, "maximum crawl depth")
	cmd.Flags().IntP("max-pages", "m", defaults.MaxPages, "maximum pages to crawl")
	cmd.Flags().StringP("output", "o", defaults.Output, "report format: text|json")
	cmd.Flags().StringP("save", "s", "", "write report to file instead of stdout")
	cmd.Flags().BoolP("external", "e", defaults.External, "follow external links for crawling")
	cmd.Flags().BoolP("verbose", "v", defaults.Verbose, "emit progress events")
	cmd.Flags().Bool("ignore-redirects", defaults.IgnoreRedirects, "suppress redirect issues from output")
	cmd.Flags().Bool("keep-fragments", defaults.KeepFragments, "include fragment in link-equivalence")
	cmd.Flags().Float64P("rate-limit", "r", defaults.RateLimit, "requests per second cap (0 disables)")
	cmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "in-flight request concurrency")
	cmd.Flags().Bool("respect-robots-txt", defaults.RespectRobotsTxt, "honor robots.txt")
	cmd.Flags().StringSlice("include", nil, "only crawl links matching one of these regexps")
	cmd.Flags().StringSlice("exclude", nil, "never crawl links matching any of these regexps")
	cmd.Flags().Int("queue-size", defaults.QueueSize, "dispatcher job queue capacity")
	cmd.Flags().String("config", "", "configuration file path (default: auto-discover)")

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return &apperr.AppError{Kind: apperr.InvalidInput, Message: "invalid configuration", Cause: err}
	}

	startURL, err := url.Parse(args[0])
	if err != nil {
		return &apperr.AppError{Kind: apperr.InvalidInput, Message: "invalid start URL", Cause: err}
	}
	if startURL.Scheme == "" {
		startURL.Scheme = "https"
	}
	scheme := strings.ToLower(startURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return &apperr.AppError{Kind: apperr.InvalidInput, Message: fmt.Sprintf("unsupported URL scheme %q", startURL.Scheme)}
	}
	if startURL.Host == "" {
		return &apperr.AppError{Kind: apperr.InvalidInput, Message: "start URL has no host"}
	}

	logger := buildLogger(cfg.Verbose).With("run_id", uuid.NewString())

	var sink crawl.ProgressSink = crawl.NopSink{}
	var terminal *report.TerminalProgress
	if cfg.Verbose {
		terminal = report.NewTerminalProgress(os.Stderr)
		sink = terminal
	}

	engine, err := crawl.NewEngine(crawl.Config{
		StartURL:         startURL,
		MaxDepth:         cfg.Depth,
		MaxPages:         cfg.MaxPages,
		Concurrency:      cfg.Concurrency,
		RateLimitRPS:     cfg.RateLimit,
		RespectRobotsTxt: cfg.RespectRobotsTxt,
		FollowExternal:   cfg.External,
		IgnoreRedirects:  cfg.IgnoreRedirects,
		KeepFragments:    cfg.KeepFragments,
		IncludePatterns:  cfg.IncludePatterns,
		ExcludePatterns:  cfg.ExcludePatterns,
		UserAgent:        cfg.UserAgent,
		RequestTimeout:   cfg.RequestTimeout.Duration,
		Headers:          cfg.Headers,
		QueueSize:        cfg.QueueSize,
	}, logger, crawl.WithProgressSink(sink))
	if err != nil {
		return &apperr.AppError{Kind: apperr.ConfigError, Message: "failed to build crawl engine", Cause: err}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, runErr := engine.Run(ctx)
	if terminal != nil {
		terminal.Done()
	}
	if result == nil {
		return &apperr.AppError{Kind: apperr.Unreachable, Message: "crawl produced no report", Cause: runErr}
	}
	if runErr != nil {
		logger.Warn("crawl ended early", "error", runErr)
	}
	stampTimestamp(result)

	out := os.Stdout
	if cfg.Save != "" {
		f, err := os.Create(cfg.Save)
		if err != nil {
			return &apperr.AppError{Kind: apperr.IOError, Message: "failed to open output file", Cause: err}
		}
		defer f.Close()
		out = f
	}

	format := report.FormatText
	if cfg.Output == "json" {
		format = report.FormatJSON
	}
	if err := report.Render(out, result, format); err != nil {
		return &apperr.AppError{Kind: apperr.IOError, Message: "failed to write report", Cause: err}
	}

	return nil
}

func buildConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return config.Config{}, &apperr.AppError{Kind: apperr.ConfigError, Message: "failed to discover config file", Cause: err}
		}
		configPath = discovered
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, &apperr.AppError{Kind: apperr.ConfigError, Message: "failed to load config file", Cause: err}
	}

	f := cmd.Flags()
	applyIntFlag(f, "depth", &cfg.Depth)
	applyIntFlag(f, "max-pages", &cfg.MaxPages)
	applyStringFlag(f, "output", &cfg.Output)
	applyStringFlag(f, "save", &cfg.Save)
	applyBoolFlag(f, "external", &cfg.External)
	applyBoolFlag(f, "verbose", &cfg.Verbose)
	applyBoolFlag(f, "ignore-redirects", &cfg.IgnoreRedirects)
	applyBoolFlag(f, "keep-fragments", &cfg.KeepFragments)
	applyFloat64Flag(f, "rate-limit", &cfg.RateLimit)
	applyIntFlag(f, "concurrency", &cfg.Concurrency)
	applyBoolFlag(f, "respect-robots-txt", &cfg.RespectRobotsTxt)
	applyStringSliceFlag(f, "include", &cfg.IncludePatterns)
	applyStringSliceFlag(f, "exclude", &cfg.ExcludePatterns)
	applyIntFlag(f, "queue-size", &cfg.QueueSize)

	return cfg, nil
}

// applyIntFlag/applyStringFlag/applyBoolFlag/applyFloat64Flag overwrite
// a config field with its flag value only when the user actually passed
// that flag — spec.md §6 requires flags to override file values, not
// the flag's own zero-value default to silently overwrite a configured
// setting.
func applyIntFlag(f *pflag.FlagSet, name string, dst *int) {
	if !f.Changed(name) {
		return
	}
	v, err := f.GetInt(name)
	if err == nil {
		*dst = v
	}
}

func applyStringFlag(f *pflag.FlagSet, name string, dst *string) {
	if !f.Changed(name) {
		return
	}
	v, err := f.GetString(name)
	if err == nil {
		*dst = v
	}
}

func applyBoolFlag(f *pflag.FlagSet, name string, dst *bool) {
	if !f.Changed(name) {
		return
	}
	v, err := f.GetBool(name)
	if err == nil {
		*dst = v
	}
}

func applyFloat64Flag(f *pflag.FlagSet, name string, dst *float64) {
	if !f.Changed(name) {
		return
	}
	v, err := f.GetFloat64(name)
	if err == nil {
		*dst = v
	}
}

func applyStringSliceFlag(f *pflag.FlagSet, name string, dst *[]string) {
	if !f.Changed(name) {
		return
	}
	v, err := f.GetStringSlice(name)
	if err == nil {
		*dst = v
	}
}

func stampTimestamp(result *seomodel.CrawlReport) {
	result.Timestamp = time.Now()
}

func buildLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
