package series

import (
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Series is a labelled run of numbers: one country's yearly counts, the
// yearly totals of all countries, a column of weights.
type Series struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// New returns a series, checking that labels and values line up.
func New(name string, labels []string, values []float64) (Series, error) {
	if len(labels) != len(values) {
		return Series{}, errs.New(errs.ErrCodeInvalidInput,
			"series %q: %d labels but %d values", name, len(labels), len(values))
	}
	return Series{Name: name, Labels: labels, Values: values}, nil
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Values) }

// Sum returns the total of all values.
func (s Series) Sum() float64 { return vec.Sum(s.Values) }

// Bounds returns the smallest and largest value. It fails on an empty series.
func (s Series) Bounds() (lo, hi float64, err error) {
	if len(s.Values) == 0 {
		return 0, 0, errs.EmptyInput("bounds")
	}
	lo, hi = stats.Bounds(s.Values)
	return lo, hi, nil
}

// NumericLabels parses every label as a number, as needed when year labels
// become the x axis of a regression.
func (s Series) NumericLabels() ([]float64, error) {
	out := make([]float64, len(s.Labels))
	for i, l := range s.Labels {
		x, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
		if err != nil {
			return nil, errs.New(errs.ErrCodeInvalidInput, "label %q is not numeric", l)
		}
		out[i] = x
	}
	return out, nil
}

// Fit regresses the values on the numeric labels.
func (s Series) Fit() (Fit, error) {
	xs, err := s.NumericLabels()
	if err != nil {
		return Fit{}, err
	}
	return LinearFit(xs, s.Values)
}

// Normalized returns a copy of s with min-max normalized values.
func (s Series) Normalized() (Series, error) {
	vs, err := MinMaxNormalize(s.Values)
	if err != nil {
		return Series{}, err
	}
	return Series{Name: s.Name, Labels: append([]string(nil), s.Labels...), Values: vs}, nil
}

// MinMaxNormalize maps values onto [0, 1] with (x-min)/(max-min). When every
// value is equal the result is all zeros.
func MinMaxNormalize(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, errs.EmptyInput("normalize")
	}
	lo, hi := stats.Bounds(values)
	span := hi - lo
	if span == 0 {
		return make([]float64, len(values)), nil
	}
	return vec.Map(func(x float64) float64 { return (x - lo) / span }, values), nil
}

// Scale returns x*factor + offset for every value. Bubble sizes are
// Scale(normalized, 2000, 10).
func Scale(values []float64, factor, offset float64) []float64 {
	return vec.Map(func(x float64) float64 { return x*factor + offset }, values)
}
