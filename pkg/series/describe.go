package series

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Description is the eight-number summary printed by the describe command.
type Description struct {
	Count int
	Mean  float64
	Std   float64 // sample standard deviation; NaN for fewer than two values
	Min   float64
	Q1    float64
	Q2    float64
	Q3    float64
	Max   float64
}

// Describe summarizes values. Quartiles use linear interpolation between
// the closest ranks.
func Describe(values []float64) (Description, error) {
	if len(values) == 0 {
		return Description{}, errs.EmptyInput("describe")
	}
	sorted := slices.Sorted(slices.Values(values))
	d := Description{
		Count: len(values),
		Mean:  stats.Mean(values),
		Std:   math.NaN(),
		Min:   sorted[0],
		Q1:    Quantile(sorted, 0.25),
		Q2:    Quantile(sorted, 0.5),
		Q3:    Quantile(sorted, 0.75),
		Max:   sorted[len(sorted)-1],
	}
	if len(values) > 1 {
		d.Std = stats.StdDev(values)
	}
	return d, nil
}

// Rows returns the summary as ordered (name, value) pairs for display.
func (d Description) Rows() [][2]any {
	return [][2]any{
		{"count", d.Count},
		{"mean", d.Mean},
		{"std", d.Std},
		{"min", d.Min},
		{"25%", d.Q1},
		{"50%", d.Q2},
		{"75%", d.Q3},
		{"max", d.Max},
	}
}

// MarshalJSON writes an undefined standard deviation as null.
func (d Description) MarshalJSON() ([]byte, error) {
	var std *float64
	if !math.IsNaN(d.Std) {
		std = &d.Std
	}
	return json.Marshal(struct {
		Count int      `json:"count"`
		Mean  float64  `json:"mean"`
		Std   *float64 `json:"std"`
		Min   float64  `json:"min"`
		Q1    float64  `json:"25%"`
		Q2    float64  `json:"50%"`
		Q3    float64  `json:"75%"`
		Max   float64  `json:"max"`
	}{d.Count, d.Mean, std, d.Min, d.Q1, d.Q2, d.Q3, d.Max})
}

// UnmarshalJSON reads the layout written by MarshalJSON.
func (d *Description) UnmarshalJSON(data []byte) error {
	var in struct {
		Count int      `json:"count"`
		Mean  float64  `json:"mean"`
		Std   *float64 `json:"std"`
		Min   float64  `json:"min"`
		Q1    float64  `json:"25%"`
		Q2    float64  `json:"50%"`
		Q3    float64  `json:"75%"`
		Max   float64  `json:"max"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = Description{Count: in.Count, Mean: in.Mean, Std: math.NaN(),
		Min: in.Min, Q1: in.Q1, Q2: in.Q2, Q3: in.Q3, Max: in.Max}
	if in.Std != nil {
		d.Std = *in.Std
	}
	return nil
}

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation: position (n-1)*q between the two nearest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	q = min(max(q, 0), 1)
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Box is a box-plot summary with Tukey fences.
type Box struct {
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
	// LowerWhisker and UpperWhisker are the most extreme values inside the fences.
	LowerWhisker float64 `json:"lower_whisker"`
	UpperWhisker float64 `json:"upper_whisker"`
	// Outliers holds the positions, in input order, of values outside the fences.
	Outliers []int `json:"outliers"`
}

// BoxSummary computes quartiles and the fences Q1-1.5*IQR and Q3+1.5*IQR.
func BoxSummary(values []float64) (Box, error) {
	if len(values) == 0 {
		return Box{}, errs.EmptyInput("box summary")
	}
	sorted := slices.Sorted(slices.Values(values))
	b := Box{
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
	}
	b.IQR = b.Q3 - b.Q1
	b.LowerFence = b.Q1 - 1.5*b.IQR
	b.UpperFence = b.Q3 + 1.5*b.IQR

	b.LowerWhisker, b.UpperWhisker = math.Inf(1), math.Inf(-1)
	for i, x := range values {
		if x < b.LowerFence || x > b.UpperFence {
			b.Outliers = append(b.Outliers, i)
			continue
		}
		b.LowerWhisker = min(b.LowerWhisker, x)
		b.UpperWhisker = max(b.UpperWhisker, x)
	}
	return b, nil
}
