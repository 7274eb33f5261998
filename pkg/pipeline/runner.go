package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/widetable/pkg/cache"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/observability"
	"github.com/matzehuels/widetable/pkg/source"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent runs with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Fetcher *source.Fetcher
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a
// nil cache disables caching and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Fetcher: source.NewFetcher(c, keyer, nil),
	}
}

// Dataset is a loaded and normalized table.
type Dataset struct {
	Raw        *frame.Table
	Table      *frame.Table
	Source     string
	SourceHash string
	CacheHit   bool
}

// Result contains the outputs of [Runner.Execute].
type Result struct {
	// RunID identifies this execution.
	RunID string

	Dataset *Dataset
	Report  *Report

	// Encoded is the report as JSON, as cached and stored.
	Encoded []byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information. LoadTime covers loading
// and normalizing.
type Stats struct {
	Countries  int
	LoadTime   time.Duration
	ReportTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	SourceHit bool
	ReportHit bool
}

// Execute runs load → normalize → report. The report is cached under the
// source hash and the report options.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := &Result{RunID: uuid.NewString()}

	loadStart := time.Now()
	ds, err := r.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	res.Dataset = ds
	res.Stats.Countries = ds.Table.Len()
	res.Stats.LoadTime = time.Since(loadStart)
	res.CacheInfo.SourceHit = ds.CacheHit

	reportStart := time.Now()
	key := r.Keyer.ReportKey(ds.SourceHash, opts.ReportKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var rep Report
			if err := json.Unmarshal(data, &rep); err == nil {
				observability.Cache().OnCacheHit(ctx, "report")
				res.Report, res.Encoded = &rep, data
				res.CacheInfo.ReportHit = true
				res.Stats.ReportTime = time.Since(reportStart)
				r.logger(opts).Debug("report from cache", "key", key)
				return res, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "report")
	}

	rep, err := r.Report(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	rep.RunID = res.RunID
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLReport); err == nil {
		observability.Cache().OnCacheSet(ctx, "report", len(data))
	}
	res.Report, res.Encoded = rep, data
	res.Stats.ReportTime = time.Since(reportStart)
	return res, nil
}

// Prepare loads and normalizes the source.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Dataset, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	raw, hash, hit, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	df, err := r.Normalize(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	return &Dataset{Raw: raw, Table: df, Source: opts.Source, SourceHash: hash, CacheHit: hit}, nil
}

// Load fetches the workbook and reads the raw sheet. It returns the hash of
// the source bytes and whether they came from the cache.
func (r *Runner) Load(ctx context.Context, opts Options) (*frame.Table, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, fmt.Errorf("invalid options: %w", err)
	}
	done := r.stage(ctx, "load")

	if opts.Refresh {
		_ = r.Fetcher.Invalidate(ctx, opts.Source)
	}
	data, hit, err := r.Fetcher.Open(ctx, opts.Source)
	if err != nil {
		done(0, err)
		return nil, "", false, fmt.Errorf("load %s: %w", opts.Source, err)
	}
	raw, err := source.ReadCanada(bytes.NewReader(data), opts.SheetOptions())
	if err != nil {
		done(0, err)
		return nil, "", false, fmt.Errorf("load %s: %w", opts.Source, err)
	}
	done(raw.Len(), nil)
	r.logger(opts).Info("loaded source", "source", opts.Source, "rows", raw.Len(), "columns", raw.Width(), "cached", hit)
	return raw, cache.Hash(data), hit, nil
}

// Normalize applies the cleanup recipe from opts to a raw table.
func (r *Runner) Normalize(ctx context.Context, raw *frame.Table, opts Options) (*frame.Table, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	done := r.stage(ctx, "normalize")
	df, err := frame.Normalize(raw, opts.NormalizeSpec())
	if err != nil {
		done(0, err)
		return nil, fmt.Errorf("normalize: %w", err)
	}
	done(df.Len(), nil)
	r.logger(opts).Info("normalized table", "countries", df.Len(), "years", fmt.Sprintf("%d-%d", opts.FirstYear, opts.LastYear))
	return df, nil
}

// Report builds the requested views over a normalized dataset.
func (r *Runner) Report(ctx context.Context, ds *Dataset, opts Options) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	df := ds.Table
	rep := &Report{
		Source:     ds.Source,
		SourceHash: ds.SourceHash,
		FirstYear:  opts.FirstYear,
		LastYear:   opts.LastYear,
		Countries:  df.Len(),
		Views:      opts.Views,
	}
	years := opts.Years()

	for _, view := range opts.Views {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done := r.stage(ctx, view)
		rows, err := r.buildView(rep, view, df, years, opts)
		done(rows, err)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", view, err)
		}
		r.logger(opts).Debug("built view", "view", view, "rows", rows)
	}
	r.logger(opts).Info("built report", "views", len(opts.Views))
	return rep, nil
}

func (r *Runner) buildView(rep *Report, view string, df *frame.Table, years []string, opts Options) (int, error) {
	var err error
	switch view {
	case ViewTop:
		rep.Top, err = TopView(df, opts.TopN)
		return lenOf(rep.Top), err
	case ViewBottom:
		rep.Bottom, err = BottomView(df, opts.TopN)
		return lenOf(rep.Bottom), err
	case ViewContinents:
		rep.Continents, err = ContinentsView(df)
		return lenOf(rep.Continents), err
	case ViewDecades:
		rep.Decades, err = DecadesView(df, opts.DecadeTop, opts.FirstYear, opts.LastYear)
		if err != nil {
			return 0, err
		}
		return rep.Decades.Table.Len(), nil
	case ViewTotals:
		rep.Totals, err = TotalsByYear(df, years)
		if err != nil {
			return 0, err
		}
		return rep.Totals.Series.Len(), nil
	case ViewHistogram:
		rep.Histogram, err = HistogramOf(df, strconv.Itoa(opts.LastYear), opts.Bins)
		if err != nil {
			return 0, err
		}
		return len(rep.Histogram.Hist.Counts), nil
	case ViewThresholds:
		rep.Thresholds, err = ThresholdsOf(df, opts.Thresholds)
		return len(rep.Thresholds), err
	case ViewBubbles:
		rep.Bubbles, err = BubblesOf(df, opts.BubbleCountries, years)
		return len(rep.Bubbles), err
	}
	return 0, fmt.Errorf("unknown view %q", view)
}

// stage reports a stage start to the hooks and returns the matching
// completion callback.
func (r *Runner) stage(ctx context.Context, name string) func(rows int, err error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name)
	start := time.Now()
	return func(rows int, err error) {
		hooks.OnStageComplete(ctx, name, rows, time.Since(start), err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// logger prefers the per-run logger from opts.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func lenOf(t *frame.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
