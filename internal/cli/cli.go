// Package cli implements the widetable command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/buildinfo"
	"github.com/matzehuels/widetable/pkg/cache"
	"github.com/matzehuels/widetable/pkg/observability"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "widetable"

	// mongoDatabase holds report snapshots when --mongo-uri is set.
	mongoDatabase = "widetable"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; status lines go to the logger.
	Out io.Writer

	flags   globalFlags
	metrics *observability.Prometheus
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config      string
	source      string
	sheet       string
	firstYear   int
	lastYear    int
	noCache     bool
	refresh     bool
	redisURL    string
	mongoURI    string
	metricsFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Reshape and summarize the UN Canada immigration table",
		Long: `widetable loads the UN "Immigration to Canada 1980-2013" workbook, cleans it
into a country-indexed table and derives the views used by charts and maps:
rankings, continent totals, decade buckets, yearly totals with a trend line,
histograms, choropleth thresholds and bubble weights.

It also prepares the San Francisco police incident sample for map markers.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.flushMetrics()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.config, "config", "", "TOML recipe with pipeline options")
	pf.StringVar(&c.flags.source, "source", "", "workbook path or URL (default: UN download, or $"+pipeline.EnvSource+")")
	pf.StringVar(&c.flags.sheet, "sheet", "", "worksheet name")
	pf.IntVar(&c.flags.firstYear, "first-year", 0, "first year column")
	pf.IntVar(&c.flags.lastYear, "last-year", 0, "last year column")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable caching")
	pf.BoolVar(&c.flags.refresh, "refresh", false, "download the source again and rebuild cached reports")
	pf.StringVar(&c.flags.redisURL, "redis-url", "", "cache in Redis instead of on disk (or $"+pipeline.EnvRedisURL+")")
	pf.StringVar(&c.flags.mongoURI, "mongo-uri", "", "store reports in MongoDB (or $"+pipeline.EnvMongoURI+")")
	pf.StringVar(&c.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	// Register all subcommands
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.seriesCommand())
	root.AddCommand(c.rankCommand("top"))
	root.AddCommand(c.rankCommand("bottom"))
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.continentsCommand())
	root.AddCommand(c.decadesCommand())
	root.AddCommand(c.totalsCommand())
	root.AddCommand(c.histogramCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.thresholdsCommand())
	root.AddCommand(c.incidentsCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup registers the Prometheus hooks when metrics are requested.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.flags.metricsFile != "" && c.metrics == nil {
		c.metrics = observability.NewPrometheus()
		observability.Register(c.metrics)
	}
	return nil
}

func (c *CLI) flushMetrics() error {
	if c.metrics == nil || c.flags.metricsFile == "" {
		return nil
	}
	if err := c.metrics.WriteTextfile(c.flags.metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	c.Logger.Debug("wrote metrics", "path", c.flags.metricsFile)
	return nil
}

// =============================================================================
// Options
// =============================================================================

// options merges the recipe file, the environment and the persistent
// flags, in that order of precedence.
func (c *CLI) options() (pipeline.Options, error) {
	var opts pipeline.Options
	if c.flags.config != "" {
		var err error
		if opts, err = pipeline.LoadConfig(c.flags.config); err != nil {
			return opts, err
		}
	}
	opts.ApplyEnv()
	if c.flags.source != "" {
		opts.Source = c.flags.source
	}
	if c.flags.sheet != "" {
		opts.Sheet = c.flags.sheet
	}
	if c.flags.firstYear != 0 {
		opts.FirstYear = c.flags.firstYear
	}
	if c.flags.lastYear != 0 {
		opts.LastYear = c.flags.lastYear
	}
	opts.Refresh = c.flags.refresh
	opts.Logger = c.Logger
	return opts, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if _, shared := backend.(*cache.RedisCache); shared {
		// Redis may be shared with other tools.
		keyer = cache.NewScopedKeyer(nil, appName+":")
	}
	return pipeline.NewRunner(backend, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.flags.noCache {
		return cache.NewNullCache(), nil
	}
	url := c.flags.redisURL
	if url == "" {
		url = os.Getenv(pipeline.EnvRedisURL)
	}
	if url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// prepare loads and normalizes the source behind a spinner.
func (c *CLI) prepare(ctx context.Context, opts pipeline.Options) (*pipeline.Dataset, error) {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading immigration table...")
	spinner.Start()
	ds, err := runner.Prepare(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return nil, err
	}
	spinner.Stop()
	return ds, nil
}

// dataset is prepare with the options from flags and config.
func (c *CLI) dataset(ctx context.Context) (*pipeline.Dataset, pipeline.Options, error) {
	opts, err := c.options()
	if err != nil {
		return nil, opts, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, opts, err
	}
	ds, err := c.prepare(ctx, opts)
	return ds, opts, err
}

// newStore opens MongoDB when a URI is configured, otherwise the local
// report directory.
func (c *CLI) newStore(ctx context.Context) (storage.Store, error) {
	uri := c.flags.mongoURI
	if uri == "" {
		uri = os.Getenv(pipeline.EnvMongoURI)
	}
	if uri != "" {
		return storage.NewMongoStore(ctx, uri, mongoDatabase)
	}
	return storage.NewFileStore("")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/widetable/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
