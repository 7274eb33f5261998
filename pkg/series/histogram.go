package series

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// DefaultBins is the bin count used when none is given.
const DefaultBins = 10

// Hist is an equal-width histogram. Edges has len(Counts)+1 entries; every
// bin is half open except the last, which includes its right edge.
type Hist struct {
	Counts []int     `json:"counts"`
	Edges  []float64 `json:"edges"`
}

// Histogram bins values into bins equal-width intervals spanning their
// range. When every value is equal the range is widened by 0.5 each side.
func Histogram(values []float64, bins int) (Hist, error) {
	if len(values) == 0 {
		return Hist{}, errs.EmptyInput("histogram")
	}
	if bins < 1 {
		return Hist{}, errs.New(errs.ErrCodeInvalidInput, "histogram needs at least one bin, got %d", bins)
	}
	lo, hi := stats.Bounds(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := vec.Linspace(lo, hi, bins+1)
	edges[bins] = hi
	return Hist{Counts: BinCounts(values, edges), Edges: edges}, nil
}

// BinCounts counts values into the bins bounded by edges, which must be
// ascending with at least two entries. Bins are half open except the last;
// values outside the edges land in the first or last bin and NaNs are
// skipped.
func BinCounts(values, edges []float64) []int {
	bins := len(edges) - 1
	counts := make([]int, bins)
	for _, x := range values {
		if math.IsNaN(x) {
			continue
		}
		i := sort.Search(len(edges), func(i int) bool { return edges[i] > x }) - 1
		counts[min(max(i, 0), bins-1)]++
	}
	return counts
}

// ThresholdScale returns n evenly spaced integer thresholds from the
// smallest to the largest value, truncated toward zero, with the last one
// bumped by one so that the maximum falls inside the top class.
func ThresholdScale(values []float64, n int) ([]int64, error) {
	if len(values) == 0 {
		return nil, errs.EmptyInput("threshold scale")
	}
	if n < 2 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "threshold scale needs at least 2 steps, got %d", n)
	}
	lo, hi := stats.Bounds(values)
	steps := vec.Linspace(lo, hi, n)
	out := make([]int64, n)
	for i, s := range steps {
		out[i] = int64(s)
	}
	out[n-1] = int64(hi) + 1
	return out, nil
}
