// Package series holds the numeric helpers that turn table columns into
// chart-ready data: normalized bubble weights, regression lines, histogram
// bins, box-plot fences and choropleth thresholds.
//
// The numerics delegate to github.com/aclements/go-moremath: [LinearFit]
// wraps fit.PolynomialRegression with degree one, bounds and means come
// from the stats package and evenly spaced steps from vec.Linspace.
//
//	totals := series.Series{Name: "Total", Labels: years, Values: counts}
//	line, err := totals.Fit()
//	fmt.Println(line) // y = 5567 x + -10926195
package series
