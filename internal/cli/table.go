package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/series"
)

// defaultTableRows limits terminal tables; the full table has ~195 rows.
const defaultTableRows = 25

// normalizeCommand writes the cleaned, country-indexed table.
func (c *CLI) normalizeCommand() *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Load the workbook and write the normalized table",
		Long: `Load the workbook and write the normalized table.

Normalizing drops the code columns (AREA, REG, DEV, Type, Coverage), renames
OdName/AreaName/RegName to Country/Continent/Region, turns the year headers
into text, indexes the rows by country and appends a Total column.`,
		Example: `  widetable normalize -o canada.csv
  widetable normalize --first-year 1990 --last-year 1999 -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			printStats(ds.Table.Len(), fmt.Sprintf("%d-%d", opts.FirstYear, opts.LastYear), ds.CacheHit)
			return out.write(c.Out, ds.Table, "normalized")
		},
	}
	out.register(cmd, defaultTableRows)
	return cmd
}

// showCommand prints one country's metadata and yearly counts.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <country>",
		Short: "Show one country's continent, region, total and yearly counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]
			s, err := frame.RowSeries(ds.Table, name, opts.Years())
			if err != nil {
				return err
			}
			row, _ := ds.Table.Lookup(name)
			fmt.Fprintln(c.Out, StyleTitle.Render(name))
			writeKeyValues(c.Out, [][2]any{
				{"Continent", row.Get(frame.ColContinent).Str()},
				{"Region", row.Get(frame.ColRegion).Str()},
				{"Total", row.Get(frame.ColTotal).Int()},
			})
			fmt.Fprintln(c.Out)
			fmt.Fprint(c.Out, renderBars(s.Labels, s.Values, 40))
			return nil
		},
	}
}

// seriesCommand prints yearly counts for several countries side by side.
func (c *CLI) seriesCommand() *cobra.Command {
	var (
		out        outputFlags
		normalized bool
	)
	cmd := &cobra.Command{
		Use:   "series [country...]",
		Short: "Yearly counts per country, one column per country",
		Long: `Yearly counts per country, one column per country.

Without arguments on a terminal, an interactive picker lists the countries.`,
		Example: `  widetable series India China
  widetable series Brazil Argentina --normalized -o bubbles.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			countries := args
			if len(countries) == 0 {
				if !isTerminal(os.Stdin) {
					return fmt.Errorf("no countries given")
				}
				if countries, err = pickCountries(ds.Table); err != nil {
					return err
				}
				if len(countries) == 0 {
					return nil
				}
			}
			t, err := seriesTable(ds.Table, countries, opts.Years(), normalized)
			if err != nil {
				return err
			}
			return out.write(c.Out, t, "series")
		},
	}
	out.register(cmd, 0)
	cmd.Flags().BoolVar(&normalized, "normalized", false, "min-max normalize each country to [0, 1]")
	return cmd
}

// seriesTable lays the countries' yearly values out as a Year-indexed
// table.
func seriesTable(df *frame.Table, countries, years []string, normalized bool) (*frame.Table, error) {
	cols := make([][]float64, len(countries))
	for i, name := range countries {
		s, err := frame.RowSeries(df, name, years)
		if err != nil {
			return nil, err
		}
		if normalized {
			if s, err = s.Normalized(); err != nil {
				return nil, err
			}
		}
		cols[i] = s.Values
	}
	b := frame.NewBuilder(append([]string{"Year"}, countries...)...)
	for k, y := range years {
		row := []any{frame.ParseValue(y)}
		for i := range countries {
			row = append(row, cols[i][k])
		}
		b.Row(row...)
	}
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	return frame.SetIndex(t, "Year")
}

// rankCommand builds "top" or "bottom".
func (c *CLI) rankCommand(name string) *cobra.Command {
	var (
		out outputFlags
		n   int
		by  string
	)
	top := name == "top"
	short := "Countries with the largest totals"
	if !top {
		short = "Countries with the smallest totals"
	}
	cmd := &cobra.Command{
		Use:     name,
		Short:   short,
		Example: fmt.Sprintf("  widetable %s -n 10\n  widetable %s --by 2013", name, name),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			rank := frame.TopN
			if !top {
				rank = frame.BottomN
			}
			t, err := rank(ds.Table, by, n)
			if err != nil {
				return err
			}
			return out.write(c.Out, t, name)
		},
	}
	out.register(cmd, 0)
	cmd.Flags().IntVarP(&n, "count", "n", pipeline.DefaultTopN, "number of countries")
	cmd.Flags().StringVar(&by, "by", frame.ColTotal, "column to rank by")
	return cmd
}

// filterCommand selects countries by continent, region and total.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		out        outputFlags
		continents []string
		regions    []string
		minTotal   float64
		maxTotal   float64
		columns    []string
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Select countries by continent, region or total",
		Long: `Select countries by continent, region or total.

Repeated values of one flag are alternatives; different flags must all
match.`,
		Example: `  widetable filter --continent Asia --region "Southern Asia"
  widetable filter --min-total 100000 --columns Continent,Total`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			var preds []frame.Predicate
			if len(continents) > 0 {
				preds = append(preds, frame.In(frame.ColContinent, texts(continents)...))
			}
			if len(regions) > 0 {
				preds = append(preds, frame.In(frame.ColRegion, texts(regions)...))
			}
			if cmd.Flags().Changed("min-total") {
				preds = append(preds, frame.Not(frame.Lt(frame.ColTotal, minTotal)))
			}
			if cmd.Flags().Changed("max-total") {
				preds = append(preds, frame.Not(frame.Gt(frame.ColTotal, maxTotal)))
			}
			t := frame.SelectRows(ds.Table, frame.And(preds...))
			if columns != nil {
				if t, err = frame.SliceColumns(t, nil, columns); err != nil {
					return err
				}
			}
			return out.write(c.Out, t, "filter")
		},
	}
	out.register(cmd, defaultTableRows)
	cmd.Flags().StringArrayVar(&continents, "continent", nil, "keep countries on this continent")
	cmd.Flags().StringArrayVar(&regions, "region", nil, "keep countries in this region")
	cmd.Flags().Float64Var(&minTotal, "min-total", 0, "keep countries with at least this total")
	cmd.Flags().Float64Var(&maxTotal, "max-total", 0, "keep countries with at most this total")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to keep (comma-separated)")
	return cmd
}

func texts(values []string) []frame.Value {
	out := make([]frame.Value, len(values))
	for i, v := range values {
		out[i] = frame.Text(v)
	}
	return out
}

// continentsCommand aggregates countries per continent or region.
func (c *CLI) continentsCommand() *cobra.Command {
	var (
		out outputFlags
		by  string
		agg string
	)
	cmd := &cobra.Command{
		Use:     "continents",
		Short:   "Aggregate the yearly counts per continent",
		Example: "  widetable continents\n  widetable continents --by Region --agg mean",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := frame.AggregatorByName(agg)
			if err != nil {
				return err
			}
			ds, _, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			g, err := frame.GroupAndAggregate(ds.Table, by, nil, a)
			if err != nil {
				return err
			}
			if g, err = frame.SortByColumn(g, frame.ColTotal, false); err != nil {
				return err
			}
			return out.write(c.Out, g, "continents")
		},
	}
	out.register(cmd, 0)
	cmd.Flags().StringVar(&by, "by", frame.ColContinent, "grouping column")
	cmd.Flags().StringVar(&agg, "agg", "sum", "aggregation: sum, mean, max, min, count")
	return cmd
}

// decadesCommand buckets the leading countries' years into decades.
func (c *CLI) decadesCommand() *cobra.Command {
	var (
		out outputFlags
		n   int
	)
	cmd := &cobra.Command{
		Use:   "decades",
		Short: "Decade sums for the leading countries, with box-plot outliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			v, err := pipeline.DecadesView(ds.Table, n, opts.FirstYear, opts.LastYear)
			if err != nil {
				return err
			}
			if err := out.write(c.Out, v.Table, "decades"); err != nil {
				return err
			}
			for _, b := range v.Boxes {
				line := fmt.Sprintf("%s  median %s  IQR %s  fences [%s, %s]", b.Decade,
					formatFloat(b.Box.Median), formatFloat(b.Box.IQR),
					formatFloat(b.Box.LowerFence), formatFloat(b.Box.UpperFence))
				if len(b.Outliers) > 0 {
					line += "  outliers: " + strings.Join(b.Outliers, ", ")
				}
				printDetail("%s", line)
			}
			return nil
		},
	}
	out.register(cmd, 0)
	cmd.Flags().IntVarP(&n, "count", "n", pipeline.DefaultDecadeTop, "number of leading countries")
	return cmd
}

// totalsCommand prints the yearly totals and the trend line, over every
// country or the ones given with --country.
func (c *CLI) totalsCommand() *cobra.Command {
	var (
		out       outputFlags
		predict   int
		countries []string
	)
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Yearly totals with a linear trend",
		Long: `Yearly totals with a linear trend.

Every country is summed unless --country narrows the sum to a group.`,
		Example: `  widetable totals --predict 2015
  widetable totals --country Denmark --country Norway --country Sweden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			v, err := pipeline.TotalsOf(ds.Table, countries, opts.Years())
			if err != nil {
				return err
			}
			if out.output != "" || out.format != "" {
				t, err := pipeline.TotalsTable(v)
				if err != nil {
					return err
				}
				if err := out.write(c.Out, t, "totals"); err != nil {
					return err
				}
			} else {
				fmt.Fprint(c.Out, renderBars(v.Series.Labels, v.Series.Values, 40))
			}
			printInfo("Trend: %s", v.Equation)
			if predict != 0 {
				printInfo("Predicted %d: %s", predict, formatFloat(float64(int64(v.Fit.Predict(float64(predict))))))
			}
			return nil
		},
	}
	out.register(cmd, 0)
	cmd.Flags().IntVar(&predict, "predict", 0, "print the trend value for this year")
	cmd.Flags().StringArrayVar(&countries, "country", nil, "sum only this country (repeatable)")
	return cmd
}

// histogramCommand bins one year's per-country counts, or the yearly counts
// of the countries given with --country.
func (c *CLI) histogramCommand() *cobra.Command {
	var (
		out       outputFlags
		year      string
		bins      int
		countries []string
	)
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Histogram of one year's per-country counts",
		Long: `Histogram of one year's per-country counts.

With --country, the yearly counts of those countries are binned on shared
edges instead, one count column per country (15 bins unless --bins is set).`,
		Example: `  widetable histogram --year 2000 --bins 15
  widetable histogram --country Denmark --country Norway --country Sweden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, opts, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			if len(countries) > 0 {
				if !cmd.Flags().Changed("bins") {
					bins = pipeline.DefaultCountryBins
				}
				v, err := pipeline.CountryHistogram(ds.Table, countries, opts.Years(), bins)
				if err != nil {
					return err
				}
				t, err := pipeline.CountryHistogramTable(v)
				if err != nil {
					return err
				}
				return out.write(c.Out, t, "histogram")
			}
			if year == "" {
				year = strconv.Itoa(opts.LastYear)
			}
			v, err := pipeline.HistogramOf(ds.Table, year, bins)
			if err != nil {
				return err
			}
			if out.output != "" || out.format != "" {
				t, err := pipeline.HistogramTable(v)
				if err != nil {
					return err
				}
				return out.write(c.Out, t, "histogram")
			}
			labels := make([]string, len(v.Hist.Counts))
			values := make([]float64, len(v.Hist.Counts))
			for i, n := range v.Hist.Counts {
				labels[i] = fmt.Sprintf("%s to %s", formatFloat(v.Hist.Edges[i]), formatFloat(v.Hist.Edges[i+1]))
				values[i] = float64(n)
			}
			fmt.Fprintln(c.Out, StyleTitle.Render("Immigration in "+year))
			fmt.Fprint(c.Out, renderBars(labels, values, 40))
			return nil
		},
	}
	out.register(cmd, 0)
	cmd.Flags().StringVar(&year, "year", "", "year column (default: last year)")
	cmd.Flags().IntVar(&bins, "bins", series.DefaultBins, "number of bins")
	cmd.Flags().StringArrayVar(&countries, "country", nil, "bin this country's yearly counts (repeatable)")
	return cmd
}

// describeCommand prints summary statistics of one column.
func (c *CLI) describeCommand() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Summary statistics (count, mean, std, quartiles) of one column",
		Example: "  widetable describe\n  widetable describe --column 1980",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			s, err := frame.ColumnSeries(ds.Table, column)
			if err != nil {
				return err
			}
			d, err := series.Describe(s.Values)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, StyleTitle.Render(column))
			writeKeyValues(c.Out, d.Rows())
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", frame.ColTotal, "numeric column")
	return cmd
}

// thresholdsCommand prints the choropleth scale over Total.
func (c *CLI) thresholdsCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Choropleth threshold scale over the country totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := c.dataset(cmd.Context())
			if err != nil {
				return err
			}
			th, err := pipeline.ThresholdsOf(ds.Table, n)
			if err != nil {
				return err
			}
			parts := make([]string, len(th))
			for i, v := range th {
				parts[i] = strconv.FormatInt(v, 10)
			}
			fmt.Fprintln(c.Out, strings.Join(parts, " "))
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", pipeline.DefaultThresholds, "number of scale stops")
	return cmd
}

// isTerminal reports whether f is an interactive terminal. Character
// devices such as /dev/null are not.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
