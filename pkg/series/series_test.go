package series

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"ascending", []float64{0, 5, 10}, []float64{0, 0.5, 1}},
		{"shifted", []float64{10, 20, 30, 40}, []float64{0, 1.0 / 3, 2.0 / 3, 1}},
		{"all equal", []float64{7, 7, 7}, []float64{0, 0, 0}},
		{"single", []float64{42}, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinMaxNormalize(tt.in)
			if err != nil {
				t.Fatalf("MinMaxNormalize() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !approx(got[i], tt.want[i], 1e-12) {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
				if got[i] < 0 || got[i] > 1 {
					t.Errorf("got[%d] = %v outside [0, 1]", i, got[i])
				}
			}
		})
	}
}

func TestMinMaxNormalizeEmpty(t *testing.T) {
	_, err := MinMaxNormalize(nil)
	if !errs.Is(err, errs.ErrCodeEmptyInput) {
		t.Errorf("error = %v, want EMPTY_INPUT", err)
	}
}

func TestScale(t *testing.T) {
	got := Scale([]float64{0, 0.5, 1}, 2000, 10)
	want := []float64{10, 1010, 2010}
	if !slices.Equal(got, want) {
		t.Errorf("Scale() = %v, want %v", got, want)
	}
}

func TestLinearFit(t *testing.T) {
	tests := []struct {
		name          string
		xs, ys        []float64
		slope, interc float64
		tol           float64
	}{
		{"unit", []float64{1, 2, 3, 4}, []float64{3, 5, 7, 9}, 2, 1, 1e-9},
		{"years", []float64{1980, 1981, 1982, 1983}, []float64{800, 810, 820, 830}, 10, -19000, 1e-4},
		{"noisy", []float64{0, 1, 2, 3}, []float64{1, 3, 2, 4}, 0.8, 1.3, 1e-9},
		{"survey years", surveyYears(), surveyLine(5567, -10926195), 5567, -10926195, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := LinearFit(tt.xs, tt.ys)
			if err != nil {
				t.Fatalf("LinearFit() error: %v", err)
			}
			if !approx(f.Slope, tt.slope, tt.tol) {
				t.Errorf("Slope = %v, want %v", f.Slope, tt.slope)
			}
			if !approx(f.Intercept, tt.interc, tt.tol*1000) {
				t.Errorf("Intercept = %v, want %v", f.Intercept, tt.interc)
			}
		})
	}
}

func surveyYears() []float64 {
	xs := make([]float64, 0, 34)
	for y := 1980; y <= 2013; y++ {
		xs = append(xs, float64(y))
	}
	return xs
}

func surveyLine(slope, intercept float64) []float64 {
	xs := surveyYears()
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = slope*x + intercept
	}
	return ys
}

func TestLinearFitErrors(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		code   errs.Code
	}{
		{"empty", nil, nil, errs.ErrCodeEmptyInput},
		{"mismatch", []float64{1, 2}, []float64{1}, errs.ErrCodeInvalidInput},
		{"single point", []float64{1}, []float64{1}, errs.ErrCodeInvalidInput},
		{"vertical", []float64{2, 2, 2}, []float64{1, 2, 3}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LinearFit(tt.xs, tt.ys)
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFitString(t *testing.T) {
	f := Fit{Slope: 5567.4, Intercept: -10926195.2}
	if got, want := f.String(), "y = 5567 x + -10926195"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := f.Predict(0); got != f.Intercept {
		t.Errorf("Predict(0) = %v, want %v", got, f.Intercept)
	}
}

func TestSeriesFit(t *testing.T) {
	s := Series{Name: "Total", Labels: []string{"1980", "1981", "1982"}, Values: []float64{100, 110, 120}}
	f, err := s.Fit()
	if err != nil {
		t.Fatalf("Fit() error: %v", err)
	}
	if !approx(f.Slope, 10, 1e-6) {
		t.Errorf("Slope = %v, want 10", f.Slope)
	}

	bad := Series{Labels: []string{"a", "b"}, Values: []float64{1, 2}}
	if _, err := bad.Fit(); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Fit() on text labels error = %v, want INVALID_INPUT", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("x", []string{"a"}, []float64{1, 2}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("New() error = %v, want INVALID_INPUT", err)
	}
	s, err := New("x", []string{"a", "b"}, []float64{1, 2})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.Len() != 2 || s.Sum() != 3 {
		t.Errorf("Len, Sum = %d, %v; want 2, 3", s.Len(), s.Sum())
	}
}

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{4, 1, 3, 2})
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", d.Mean, 2.5},
		{"std", d.Std, math.Sqrt(5.0 / 3)},
		{"min", d.Min, 1},
		{"25%", d.Q1, 1.75},
		{"50%", d.Q2, 2.5},
		{"75%", d.Q3, 3.25},
		{"max", d.Max, 4},
	}
	for _, c := range checks {
		if !approx(c.got, c.want, 1e-9) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if d.Count != 4 {
		t.Errorf("Count = %d, want 4", d.Count)
	}
}

func TestDescribeSingleValue(t *testing.T) {
	d, err := Describe([]float64{9})
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if !math.IsNaN(d.Std) {
		t.Errorf("Std = %v, want NaN", d.Std)
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["std"] != nil {
		t.Errorf("std = %v, want null", m["std"])
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		q, want float64
	}{
		{0, 10}, {0.25, 20}, {0.5, 30}, {0.1, 14}, {1, 50},
	}
	for _, tt := range tests {
		if got := Quantile(sorted, tt.q); !approx(got, tt.want, 1e-9) {
			t.Errorf("Quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("Quantile(nil) should be NaN")
	}
}

func TestBoxSummary(t *testing.T) {
	b, err := BoxSummary([]float64{1, 2, 100, 3, 4})
	if err != nil {
		t.Fatalf("BoxSummary() error: %v", err)
	}
	if b.Q1 != 2 || b.Q3 != 4 || b.IQR != 2 {
		t.Errorf("Q1, Q3, IQR = %v, %v, %v; want 2, 4, 2", b.Q1, b.Q3, b.IQR)
	}
	if b.UpperFence != 7 || b.LowerFence != -1 {
		t.Errorf("fences = %v, %v; want -1, 7", b.LowerFence, b.UpperFence)
	}
	if !slices.Equal(b.Outliers, []int{2}) {
		t.Errorf("Outliers = %v, want [2]", b.Outliers)
	}
	if b.LowerWhisker != 1 || b.UpperWhisker != 4 {
		t.Errorf("whiskers = %v, %v; want 1, 4", b.LowerWhisker, b.UpperWhisker)
	}
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h, err := Histogram(values, DefaultBins)
	if err != nil {
		t.Fatalf("Histogram() error: %v", err)
	}
	want := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 2}
	if !slices.Equal(h.Counts, want) {
		t.Errorf("Counts = %v, want %v", h.Counts, want)
	}
	if len(h.Edges) != 11 || h.Edges[0] != 0 || h.Edges[10] != 10 {
		t.Errorf("Edges = %v", h.Edges)
	}
}

func TestHistogramConstant(t *testing.T) {
	h, err := Histogram([]float64{5, 5, 5}, 2)
	if err != nil {
		t.Fatalf("Histogram() error: %v", err)
	}
	if h.Edges[0] != 4.5 || h.Edges[2] != 5.5 {
		t.Errorf("Edges = %v, want [4.5 5 5.5]", h.Edges)
	}
	if !slices.Equal(h.Counts, []int{0, 3}) {
		t.Errorf("Counts = %v, want [0 3]", h.Counts)
	}
}

func TestBinCounts(t *testing.T) {
	edges := []float64{0, 10, 20, 30}
	got := BinCounts([]float64{-5, 0, 9.9, 10, 25, 30, 40, math.NaN()}, edges)
	want := []int{3, 1, 3}
	if !slices.Equal(got, want) {
		t.Errorf("BinCounts() = %v, want %v", got, want)
	}
}

func TestHistogramErrors(t *testing.T) {
	if _, err := Histogram(nil, 10); !errs.Is(err, errs.ErrCodeEmptyInput) {
		t.Errorf("empty: error = %v", err)
	}
	if _, err := Histogram([]float64{1}, 0); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("zero bins: error = %v", err)
	}
}

func TestThresholdScale(t *testing.T) {
	got, err := ThresholdScale([]float64{100, 0, 50}, 6)
	if err != nil {
		t.Fatalf("ThresholdScale() error: %v", err)
	}
	want := []int64{0, 20, 40, 60, 80, 101}
	if !slices.Equal(got, want) {
		t.Errorf("ThresholdScale() = %v, want %v", got, want)
	}
	if _, err := ThresholdScale([]float64{1}, 1); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("n=1: error = %v, want INVALID_INPUT", err)
	}
}
