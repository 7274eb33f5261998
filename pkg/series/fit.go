package series

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/fit"
	"github.com/aclements/go-moremath/stats"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Fit is a least-squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// LinearFit computes the least-squares line through (xs[i], ys[i]).
//
// It fails with EMPTY_INPUT for no points, and with INVALID_INPUT when the
// slices differ in length or the xs do not span at least two values.
func LinearFit(xs, ys []float64) (Fit, error) {
	if len(xs) != len(ys) {
		return Fit{}, errs.New(errs.ErrCodeInvalidInput, "linear fit: %d xs but %d ys", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return Fit{}, errs.EmptyInput("linear fit")
	}
	if lo, hi := stats.Bounds(xs); lo == hi {
		return Fit{}, errs.New(errs.ErrCodeInvalidInput, "linear fit: x values must not all be equal")
	}

	// Year-sized xs make the normal equations ill-conditioned; fit on
	// centred xs and shift the intercept back.
	mean := stats.Mean(xs)
	centred := make([]float64, len(xs))
	for i, x := range xs {
		centred[i] = x - mean
	}
	r := fit.PolynomialRegression(centred, ys, nil, 1)
	slope := r.Coefficients[1]
	f := Fit{Slope: slope, Intercept: r.Coefficients[0] - slope*mean}
	if math.IsNaN(f.Slope) || math.IsNaN(f.Intercept) {
		return Fit{}, errs.New(errs.ErrCodeInternal, "linear fit did not converge")
	}
	return f, nil
}

// Predict evaluates the line at x.
func (f Fit) Predict(x float64) float64 { return f.Slope*x + f.Intercept }

// String renders the line the way chart annotations show it, with both
// coefficients rounded to integers: "y = 5567 x + -10926195".
func (f Fit) String() string {
	return fmt.Sprintf("y = %.0f x + %.0f", f.Slope, f.Intercept)
}
