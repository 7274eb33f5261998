// Package incidents prepares police incident rows for a map renderer:
// point markers, a map centre, grid clusters and per-category counts.
package incidents

import (
	"cmp"
	"math"
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/source"
)

// San Francisco city centre, used when there are no markers.
const (
	SFLatitude  = 37.77
	SFLongitude = -122.42
)

// DefaultCellSize is the clustering grid step in degrees, roughly 1 km.
const DefaultCellSize = 0.01

// Marker is one incident on the map.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// Cluster groups the markers that fall into one grid cell.
type Cluster struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
	// Labels counts markers per label within the cell.
	Labels map[string]int `json:"labels"`
}

// Markers converts incident rows to markers labelled by category. Rows
// without coordinates are skipped.
func Markers(t *frame.Table) ([]Marker, error) {
	return MarkersBy(t, source.IncidentCategory)
}

// MarkersBy is [Markers] with a caller-chosen label column.
func MarkersBy(t *frame.Table, labelColumn string) ([]Marker, error) {
	for _, c := range []string{source.IncidentX, source.IncidentY, labelColumn} {
		if !t.HasColumn(c) {
			return nil, errs.ColumnNotFound(c)
		}
	}
	out := make([]Marker, 0, t.Len())
	for _, r := range t.Rows() {
		x, y := r.Get(source.IncidentX), r.Get(source.IncidentY)
		if !x.IsNumeric() || !y.IsNumeric() {
			continue
		}
		out = append(out, Marker{Lat: y.Float(), Lng: x.Float(), Label: r.Get(labelColumn).String()})
	}
	return out, nil
}

// Center returns the mean position of markers, or the SF centre when
// there are none.
func Center(markers []Marker) (lat, lng float64) {
	if len(markers) == 0 {
		return SFLatitude, SFLongitude
	}
	for _, m := range markers {
		lat += m.Lat
		lng += m.Lng
	}
	n := float64(len(markers))
	return lat / n, lng / n
}

type cell struct{ i, j int64 }

// Clusters buckets markers into a square grid of cellSize degrees. Each
// cluster sits at the mean position of its markers. Clusters are ordered
// by descending count, then by position.
func Clusters(markers []Marker, cellSize float64) ([]Cluster, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "cell size must be positive, got %v", cellSize)
	}
	byCell := make(map[cell]*Cluster)
	var order []cell
	for _, m := range markers {
		c := cell{int64(math.Floor(m.Lat / cellSize)), int64(math.Floor(m.Lng / cellSize))}
		cl, ok := byCell[c]
		if !ok {
			cl = &Cluster{Labels: make(map[string]int)}
			byCell[c] = cl
			order = append(order, c)
		}
		cl.Lat += m.Lat
		cl.Lng += m.Lng
		cl.Count++
		cl.Labels[m.Label]++
	}

	out := make([]Cluster, 0, len(order))
	for _, c := range order {
		cl := byCell[c]
		cl.Lat /= float64(cl.Count)
		cl.Lng /= float64(cl.Count)
		out = append(out, *cl)
	}
	slices.SortStableFunc(out, func(a, b Cluster) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Lat, b.Lat),
			cmp.Compare(a.Lng, b.Lng),
		)
	})
	return out, nil
}

// CountBy counts incidents per distinct value of column, most frequent
// first. The result is indexed by column and has a single "Count" column.
func CountBy(t *frame.Table, column string) (*frame.Table, error) {
	if !t.HasColumn(column) {
		return nil, errs.ColumnNotFound(column)
	}
	counted := source.IncidentNumber
	if !t.HasColumn(counted) {
		counted = column
	}
	g, err := frame.GroupAndAggregate(t, column, []string{counted}, frame.Count)
	if err != nil {
		return nil, err
	}
	g, err = frame.Rename(g, map[string]string{counted: "Count"})
	if err != nil {
		return nil, err
	}
	return frame.SortByColumn(g, "Count", false)
}
