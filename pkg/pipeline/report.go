package pipeline

import (
	"strconv"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	tableio "github.com/matzehuels/widetable/pkg/io"
	"github.com/matzehuels/widetable/pkg/series"
)

// Report holds the derived views of one normalized table. Views that were
// not requested are nil.
type Report struct {
	RunID      string   `json:"run_id"`
	Source     string   `json:"source"`
	SourceHash string   `json:"source_hash"`
	FirstYear  int      `json:"first_year"`
	LastYear   int      `json:"last_year"`
	Countries  int      `json:"countries"`
	Views      []string `json:"views"`

	Top        *frame.Table   `json:"top,omitempty"`
	Bottom     *frame.Table   `json:"bottom,omitempty"`
	Continents *frame.Table   `json:"continents,omitempty"`
	Decades    *DecadeView    `json:"decades,omitempty"`
	Totals     *TotalsView    `json:"totals,omitempty"`
	Histogram  *HistogramView `json:"histogram,omitempty"`
	Thresholds []int64        `json:"thresholds,omitempty"`
	Bubbles    []Bubble       `json:"bubbles,omitempty"`
}

// DecadeView buckets the leading countries into decade sums and flags the
// countries whose decade sum lies outside the box-plot fences.
type DecadeView struct {
	Table *frame.Table `json:"table"`
	Boxes []DecadeBox  `json:"boxes"`
}

// DecadeBox is the box summary of one decade column.
type DecadeBox struct {
	Decade   string     `json:"decade"`
	Box      series.Box `json:"box"`
	Outliers []string   `json:"outliers"`
}

// TotalsView is the total per year with its regression line. Countries
// lists the rows summed, or is empty when every country is.
type TotalsView struct {
	Countries []string      `json:"countries,omitempty"`
	Series    series.Series `json:"series"`
	Fit       series.Fit    `json:"fit"`
	Equation  string        `json:"equation"`
}

// HistogramView bins one year's per-country counts.
type HistogramView struct {
	Year        string             `json:"year"`
	Hist        series.Hist        `json:"hist"`
	Description series.Description `json:"description"`
}

// CountryHistogramView bins several countries' yearly counts on edges
// spanning all of them. Counts[i] belongs to Countries[i]; Hist covers the
// pooled values.
type CountryHistogramView struct {
	Countries []string    `json:"countries"`
	Years     []string    `json:"years"`
	Hist      series.Hist `json:"hist"`
	Counts    [][]int     `json:"counts"`
}

// Bubble holds bubble-chart weights for one country: the yearly counts
// min-max normalized, then scaled by BubbleScale and shifted by
// BubbleOffset.
type Bubble struct {
	Country string    `json:"country"`
	Years   []string  `json:"years"`
	Values  []float64 `json:"values"`
	Weights []float64 `json:"weights"`
}

// =============================================================================
// View Builders
// =============================================================================

// TopView returns the n countries with the largest Total, largest first.
func TopView(df *frame.Table, n int) (*frame.Table, error) {
	return frame.TopN(df, frame.ColTotal, n)
}

// BottomView returns the n countries with the smallest Total, smallest
// first.
func BottomView(df *frame.Table, n int) (*frame.Table, error) {
	return frame.BottomN(df, frame.ColTotal, n)
}

// ContinentsView sums every numeric column per continent, largest Total
// first.
func ContinentsView(df *frame.Table) (*frame.Table, error) {
	g, err := frame.GroupAndAggregate(df, frame.ColContinent, nil, frame.Sum)
	if err != nil {
		return nil, err
	}
	return frame.SortByColumn(g, frame.ColTotal, false)
}

// DecadesView keeps the top countries by Total, sums their years per decade
// and computes a box summary for each decade.
func DecadesView(df *frame.Table, top, firstYear, lastYear int) (*DecadeView, error) {
	lead, err := frame.TopN(df, frame.ColTotal, top)
	if err != nil {
		return nil, err
	}
	ranges, labels := frame.DecadeRanges(firstYear, lastYear)
	buckets, err := frame.BucketColumnsByRange(lead, ranges, labels)
	if err != nil {
		return nil, err
	}
	view := &DecadeView{Table: buckets}
	if buckets.Len() == 0 {
		return view, nil
	}
	for _, label := range labels {
		s, err := frame.ColumnSeries(buckets, label)
		if err != nil {
			return nil, err
		}
		box, err := series.BoxSummary(s.Values)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(box.Outliers))
		for _, i := range box.Outliers {
			names = append(names, s.Labels[i])
		}
		view.Boxes = append(view.Boxes, DecadeBox{Decade: label, Box: box, Outliers: names})
	}
	return view, nil
}

// TotalsByYear sums all countries per year and fits a line through the
// totals.
func TotalsByYear(df *frame.Table, years []string) (*TotalsView, error) {
	return TotalsOf(df, nil, years)
}

// TotalsOf sums the given countries per year and fits a line through the
// sums. No countries means every country.
func TotalsOf(df *frame.Table, countries, years []string) (*TotalsView, error) {
	if len(countries) > 0 {
		var err error
		if df, err = frame.SliceColumns(df, countries, years); err != nil {
			return nil, err
		}
	}
	s, err := frame.ColumnSums(df, years, frame.ColTotal)
	if err != nil {
		return nil, err
	}
	f, err := s.Fit()
	if err != nil {
		return nil, err
	}
	return &TotalsView{Countries: countries, Series: s, Fit: f, Equation: f.String()}, nil
}

// HistogramOf bins the per-country counts of one year column.
func HistogramOf(df *frame.Table, year string, bins int) (*HistogramView, error) {
	if err := ValidateBins(bins); err != nil {
		return nil, err
	}
	s, err := frame.ColumnSeries(df, year)
	if err != nil {
		return nil, err
	}
	h, err := series.Histogram(s.Values, bins)
	if err != nil {
		return nil, err
	}
	d, err := series.Describe(s.Values)
	if err != nil {
		return nil, err
	}
	return &HistogramView{Year: year, Hist: h, Description: d}, nil
}

// CountryHistogram bins the yearly counts of countries on shared edges.
func CountryHistogram(df *frame.Table, countries, years []string, bins int) (*CountryHistogramView, error) {
	if err := ValidateBins(bins); err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return nil, errs.EmptyInput("country histogram")
	}
	perCountry := make([][]float64, len(countries))
	var pooled []float64
	for i, c := range countries {
		s, err := frame.RowSeries(df, c, years)
		if err != nil {
			return nil, err
		}
		perCountry[i] = s.Values
		pooled = append(pooled, s.Values...)
	}
	h, err := series.Histogram(pooled, bins)
	if err != nil {
		return nil, err
	}
	v := &CountryHistogramView{
		Countries: countries,
		Years:     years,
		Hist:      h,
		Counts:    make([][]int, len(countries)),
	}
	for i, values := range perCountry {
		v.Counts[i] = series.BinCounts(values, h.Edges)
	}
	return v, nil
}

// ThresholdsOf returns the choropleth scale over the Total column.
func ThresholdsOf(df *frame.Table, n int) ([]int64, error) {
	if err := ValidateThresholds(n); err != nil {
		return nil, err
	}
	s, err := frame.ColumnSeries(df, frame.ColTotal)
	if err != nil {
		return nil, err
	}
	return series.ThresholdScale(s.Values, n)
}

// BubblesOf computes bubble weights for each country over years.
func BubblesOf(df *frame.Table, countries, years []string) ([]Bubble, error) {
	out := make([]Bubble, 0, len(countries))
	for _, c := range countries {
		s, err := frame.RowSeries(df, c, years)
		if err != nil {
			return nil, err
		}
		norm, err := series.MinMaxNormalize(s.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, Bubble{
			Country: c,
			Years:   s.Labels,
			Values:  s.Values,
			Weights: series.Scale(norm, BubbleScale, BubbleOffset),
		})
	}
	return out, nil
}

// =============================================================================
// Export
// =============================================================================

// Sheets lays the report out as one worksheet per view.
func (r *Report) Sheets() ([]tableio.Sheet, error) {
	var out []tableio.Sheet
	add := func(name string, t *frame.Table) {
		if t != nil {
			out = append(out, tableio.Sheet{Name: name, Table: t})
		}
	}
	add(ViewTop, r.Top)
	add(ViewBottom, r.Bottom)
	add(ViewContinents, r.Continents)
	if r.Decades != nil {
		add(ViewDecades, r.Decades.Table)
	}
	if r.Totals != nil {
		t, err := TotalsTable(r.Totals)
		if err != nil {
			return nil, err
		}
		add(ViewTotals, t)
	}
	if r.Histogram != nil {
		t, err := HistogramTable(r.Histogram)
		if err != nil {
			return nil, err
		}
		add(ViewHistogram, t)
	}
	if r.Thresholds != nil {
		b := frame.NewBuilder("Stop", "Threshold")
		for i, v := range r.Thresholds {
			b.Row(i, v)
		}
		t, err := b.Build()
		if err != nil {
			return nil, err
		}
		add(ViewThresholds, t)
	}
	if len(r.Bubbles) > 0 {
		b := frame.NewBuilder("Country", "Year", "Value", "Weight")
		for _, bub := range r.Bubbles {
			for i, y := range bub.Years {
				b.Row(bub.Country, frame.ParseValue(y), bub.Values[i], bub.Weights[i])
			}
		}
		t, err := b.Build()
		if err != nil {
			return nil, err
		}
		add(ViewBubbles, t)
	}
	return out, nil
}

// TotalsTable lays a totals view out as Year, Total and Fitted columns.
func TotalsTable(v *TotalsView) (*frame.Table, error) {
	b := frame.NewBuilder("Year", "Total", "Fitted")
	for i, y := range v.Series.Labels {
		x, err := strconv.ParseFloat(y, 64)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "year label %q", y)
		}
		b.Row(frame.ParseValue(y), v.Series.Values[i], v.Fit.Predict(x))
	}
	return b.Build()
}

// CountryHistogramTable lays a country histogram out as From and To edges
// followed by one count column per country.
func CountryHistogramTable(v *CountryHistogramView) (*frame.Table, error) {
	b := frame.NewBuilder(append([]string{"From", "To"}, v.Countries...)...)
	for k := range v.Hist.Counts {
		row := []any{v.Hist.Edges[k], v.Hist.Edges[k+1]}
		for i := range v.Countries {
			row = append(row, v.Counts[i][k])
		}
		b.Row(row...)
	}
	return b.Build()
}

// HistogramTable lays a histogram view out as From, To and Count columns.
func HistogramTable(v *HistogramView) (*frame.Table, error) {
	b := frame.NewBuilder("From", "To", "Count")
	for i, c := range v.Hist.Counts {
		b.Row(v.Hist.Edges[i], v.Hist.Edges[i+1], c)
	}
	return b.Build()
}
