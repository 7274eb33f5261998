// Package pipeline runs the load → normalize → report sequence shared by
// the CLI and the HTTP server.
//
// # Stages
//
//  1. Load: fetch the workbook (local path or URL, cached) and read the
//     "Canada by Citizenship" sheet into a raw table
//  2. Normalize: check the schema, prune the noise columns, rename, stringify
//     the year labels, index by country and add the Total column
//  3. Report: derive the named views (top and bottom countries, continent
//     totals, decade buckets, yearly totals with a regression line,
//     histogram, choropleth thresholds, bubble weights)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Totals.Fit)
//
// Run stages one by one:
//
//	ds, err := runner.Prepare(ctx, opts)   // load + normalize
//	rep, err := runner.Report(ctx, ds, opts)
package pipeline

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/widetable/pkg/cache"
	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/series"
	"github.com/matzehuels/widetable/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultSourceURL is the published UN workbook.
	DefaultSourceURL = source.CanadaURL

	// DefaultSheet is the worksheet holding the per-country table.
	DefaultSheet = source.CanadaSheet

	// DefaultSkipRows and DefaultSkipFooter trim the banner and footer rows.
	DefaultSkipRows   = source.CanadaSkipRows
	DefaultSkipFooter = source.CanadaSkipFooter

	// DefaultFirstYear and DefaultLastYear bound the year columns.
	DefaultFirstYear = 1980
	DefaultLastYear  = 2013

	// DefaultTopN is the size of the top and bottom views.
	DefaultTopN = 5

	// DefaultDecadeTop is how many leading countries the decade view keeps.
	DefaultDecadeTop = 15

	// DefaultHistBins is the histogram bin count.
	DefaultHistBins = series.DefaultBins

	// DefaultCountryBins is the bin count for histograms over chosen
	// countries' yearly counts.
	DefaultCountryBins = 15

	// MaxHistBins and MaxThresholds cap the requested view sizes.
	MaxHistBins   = 1000
	MaxThresholds = 100

	// DefaultThresholds is the number of choropleth scale stops.
	DefaultThresholds = 6

	// Bubble weights are norm*BubbleScale + BubbleOffset.
	BubbleScale  = 2000.0
	BubbleOffset = 10.0
)

// DefaultBubbleCountries are compared in the bubble view.
var DefaultBubbleCountries = []string{"Brazil", "Argentina"}

// Environment variables read by [ApplyEnv].
const (
	EnvSource   = "WIDETABLE_SOURCE"
	EnvRedisURL = "WIDETABLE_REDIS_URL"
	EnvMongoURI = "WIDETABLE_MONGO_URI"
)

// View names accepted in [Options.Views].
const (
	ViewTop        = "top"
	ViewBottom     = "bottom"
	ViewContinents = "continents"
	ViewDecades    = "decades"
	ViewTotals     = "totals"
	ViewHistogram  = "histogram"
	ViewThresholds = "thresholds"
	ViewBubbles    = "bubbles"
)

// AllViews lists every view in report order.
var AllViews = []string{
	ViewTop, ViewBottom, ViewContinents, ViewDecades,
	ViewTotals, ViewHistogram, ViewThresholds, ViewBubbles,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. The same struct is decoded from a TOML
// recipe file, from JSON request bodies and from CLI flags.
type Options struct {
	// Load options
	Source     string `toml:"source" json:"source,omitempty"`
	Sheet      string `toml:"sheet" json:"sheet,omitempty"`
	SkipRows   *int   `toml:"skip_rows" json:"skip_rows,omitempty"`
	SkipFooter *int   `toml:"skip_footer" json:"skip_footer,omitempty"`
	Refresh    bool   `toml:"-" json:"refresh,omitempty"`

	// Normalize options
	FirstYear  int               `toml:"first_year" json:"first_year,omitempty"`
	LastYear   int               `toml:"last_year" json:"last_year,omitempty"`
	Drop       []string          `toml:"drop" json:"drop,omitempty"`
	Rename     map[string]string `toml:"rename" json:"rename,omitempty"`
	Duplicates string            `toml:"duplicates" json:"duplicates,omitempty"`

	// Report options
	Views           []string `toml:"views" json:"views,omitempty"`
	TopN            int      `toml:"top_n" json:"top_n,omitempty"`
	DecadeTop       int      `toml:"decade_top" json:"decade_top,omitempty"`
	Bins            int      `toml:"bins" json:"bins,omitempty"`
	Thresholds      int      `toml:"thresholds" json:"thresholds,omitempty"`
	BubbleCountries []string `toml:"bubble_countries" json:"bubble_countries,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `toml:"-" json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults fills zero fields with defaults and checks the
// result. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLoadDefaults()
	o.SetNormalizeDefaults()
	o.SetReportDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLoadDefaults sets the source location and sheet layout.
func (o *Options) SetLoadDefaults() {
	if o.Source == "" {
		o.Source = DefaultSourceURL
	}
	if o.Sheet == "" {
		o.Sheet = DefaultSheet
	}
	if o.SkipRows == nil {
		o.SkipRows = intPtr(DefaultSkipRows)
	}
	if o.SkipFooter == nil {
		o.SkipFooter = intPtr(DefaultSkipFooter)
	}
}

func intPtr(n int) *int { return &n }

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// defaultRename maps the raw name columns to their normalized names.
var defaultRename = map[string]string{
	frame.RawCountry:   frame.ColCountry,
	frame.RawContinent: frame.ColContinent,
	frame.RawRegion:    frame.ColRegion,
}

// SetNormalizeDefaults sets the year range and cleanup recipe.
func (o *Options) SetNormalizeDefaults() {
	if o.FirstYear == 0 {
		o.FirstYear = DefaultFirstYear
	}
	if o.LastYear == 0 {
		o.LastYear = DefaultLastYear
	}
	if o.Drop == nil {
		o.Drop = slices.Clone(frame.NoiseColumns)
	}
	rename := maps.Clone(o.Rename)
	if rename == nil {
		rename = make(map[string]string, len(defaultRename))
	}
	for raw, col := range defaultRename {
		if _, ok := rename[raw]; !ok {
			rename[raw] = col
		}
	}
	o.Rename = rename
	if o.Duplicates == "" {
		o.Duplicates = frame.DuplicateLastWins.String()
	}
}

// SetReportDefaults sets the view list and view sizes.
func (o *Options) SetReportDefaults() {
	if len(o.Views) == 0 {
		o.Views = slices.Clone(AllViews)
	}
	if o.TopN == 0 {
		o.TopN = DefaultTopN
	}
	if o.DecadeTop == 0 {
		o.DecadeTop = DefaultDecadeTop
	}
	if o.Bins == 0 {
		o.Bins = DefaultHistBins
	}
	if o.Thresholds == 0 {
		o.Thresholds = DefaultThresholds
	}
	if o.BubbleCountries == nil {
		o.BubbleCountries = slices.Clone(DefaultBubbleCountries)
	}
}

// Validate checks option values without applying defaults.
func (o *Options) Validate() error {
	if err := errs.ValidateSheetName(o.Sheet); err != nil {
		return err
	}
	if intOr(o.SkipRows, 0) < 0 || intOr(o.SkipFooter, 0) < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "skip_rows and skip_footer must be non-negative")
	}
	if o.FirstYear > o.LastYear {
		return errs.New(errs.ErrCodeInvalidInput, "first_year %d is after last_year %d", o.FirstYear, o.LastYear)
	}
	if _, err := frame.ParseDuplicatePolicy(o.Duplicates); err != nil {
		return err
	}
	for _, v := range o.Views {
		if !slices.Contains(AllViews, v) {
			return errs.New(errs.ErrCodeInvalidInput, "unknown view %q (must be one of: %s)",
				v, strings.Join(AllViews, ", "))
		}
	}
	if o.TopN < 0 || o.DecadeTop < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "top_n and decade_top must be non-negative")
	}
	if err := ValidateBins(o.Bins); err != nil {
		return err
	}
	if err := ValidateThresholds(o.Thresholds); err != nil {
		return err
	}
	for from, to := range o.Rename {
		if err := errs.ValidateColumnName(to); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "rename %q", from)
		}
	}
	// The views group and look up by these two names.
	for _, raw := range []string{frame.RawContinent, frame.RawRegion} {
		if to, ok := o.Rename[raw]; ok && to != defaultRename[raw] {
			return errs.New(errs.ErrCodeInvalidInput, "rename %q must stay %q, got %q", raw, defaultRename[raw], to)
		}
	}
	return nil
}

// ValidateBins checks a histogram bin count against 1..MaxHistBins.
func ValidateBins(n int) error {
	if n < 1 || n > MaxHistBins {
		return errs.New(errs.ErrCodeInvalidInput, "bins must be between 1 and %d, got %d", MaxHistBins, n)
	}
	return nil
}

// ValidateThresholds checks a scale size against 2..MaxThresholds.
func ValidateThresholds(n int) error {
	if n < 2 || n > MaxThresholds {
		return errs.New(errs.ErrCodeInvalidInput, "thresholds must be between 2 and %d, got %d", MaxThresholds, n)
	}
	return nil
}

// SheetOptions returns the workbook layout for the loader.
func (o *Options) SheetOptions() source.SheetOptions {
	return source.SheetOptions{
		Sheet:      o.Sheet,
		SkipRows:   intOr(o.SkipRows, DefaultSkipRows),
		SkipFooter: intOr(o.SkipFooter, DefaultSkipFooter),
	}
}

// Years returns the year column labels first..last.
func (o *Options) Years() []string {
	return frame.YearLabels(o.FirstYear, o.LastYear)
}

// NormalizeSpec builds the cleanup recipe. The schema covers the raw
// columns and the year range; the key is whatever OdName is renamed to.
func (o *Options) NormalizeSpec() frame.NormalizeSpec {
	spec := frame.DefaultNormalizeSpec(o.FirstYear, o.LastYear)
	spec.Drop = slices.Clone(o.Drop)
	spec.Rename = maps.Clone(o.Rename)
	if key, ok := o.Rename[frame.RawCountry]; ok {
		spec.Key = key
	}
	spec.Duplicates, _ = frame.ParseDuplicatePolicy(o.Duplicates)
	return spec
}

// HasView reports whether name is among the requested views.
func (o *Options) HasView(name string) bool {
	return slices.Contains(o.Views, name)
}

// ReportKeyOpts returns the cache key options for a report.
func (o *Options) ReportKeyOpts() cache.ReportKeyOpts {
	views := slices.Clone(o.Views)
	slices.Sort(views)
	return cache.ReportKeyOpts{
		Sheet:      o.Sheet,
		SkipRows:   intOr(o.SkipRows, DefaultSkipRows),
		SkipFooter: intOr(o.SkipFooter, DefaultSkipFooter),
		FirstYear:  o.FirstYear,
		LastYear:   o.LastYear,
		TopN:       o.TopN,
		DecadeTop:  o.DecadeTop,
		Bins:       o.Bins,
		Thresholds: o.Thresholds,
		Duplicates: o.Duplicates,
		Countries:  o.BubbleCountries,
		Views:      views,
		Drop:       o.Drop,
		Rename:     o.Rename,
	}
}

// =============================================================================
// Config File
// =============================================================================

// LoadConfig reads a TOML recipe. Unknown keys are rejected so that typos
// do not silently fall back to defaults.
//
//	source = "data/Canada.xlsx"
//	first_year = 1980
//	last_year = 2013
//	top_n = 10
//	bubble_countries = ["China", "India"]
//
//	[rename]
//	OdName = "Country"
func LoadConfig(path string) (Options, error) {
	var o Options
	if err := errs.ValidatePath(path); err != nil {
		return o, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return o, errs.New(errs.ErrCodeFileNotFound, "%s: no such file", path)
	}
	if err != nil {
		return o, errs.Wrap(errs.ErrCodeInvalidPath, err, "read config")
	}
	md, err := toml.Decode(string(data), &o)
	if err != nil {
		return o, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return o, errs.New(errs.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return o, nil
}

// ApplyEnv overrides the source with $WIDETABLE_SOURCE when it is set.
func (o *Options) ApplyEnv() {
	if s := os.Getenv(EnvSource); s != "" {
		o.Source = s
	}
}
