package frame

import (
	"fmt"
	"strconv"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// BucketColumnsByRange produces one column per bucket, each holding the
// per-row sum of that bucket's source columns. Row keys are kept and the
// source columns are dropped. Buckets may overlap; a column shared by two
// buckets is counted in both.
func BucketColumnsByRange(t *Table, ranges [][]string, labels []string) (*Table, error) {
	if len(ranges) != len(labels) {
		return nil, errs.New(errs.ErrCodeInvalidInput,
			"%d bucket ranges but %d labels", len(ranges), len(labels))
	}
	idx := make([][]int, len(ranges))
	for b, cols := range ranges {
		idx[b] = make([]int, len(cols))
		for k, c := range cols {
			j, ok := t.colIndex[c]
			if !ok {
				return nil, errs.ColumnNotFound(c)
			}
			idx[b][k] = j
		}
	}

	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(ranges))
		for b := range ranges {
			cells := make([]Value, len(idx[b]))
			for k, j := range idx[b] {
				cells[k] = r[j]
			}
			row[b] = sumValues(cells)
		}
		rows[i] = row
	}
	keys := make([]Label, len(t.keys))
	copy(keys, t.keys)
	return build(Names(labels...), keys, rows, t.indexName, t.columnsName), nil
}

// YearLabels returns the textual year labels first..last inclusive.
func YearLabels(first, last int) []string {
	if last < first {
		return nil
	}
	out := make([]string, 0, last-first+1)
	for y := first; y <= last; y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// DecadeRanges splits first..last into calendar decades, clipping the first
// and last decade to the range. Labels read "1980s", "1990s" and so on.
func DecadeRanges(first, last int) (ranges [][]string, labels []string) {
	for start := first - first%10; start <= last; start += 10 {
		lo, hi := max(start, first), min(start+9, last)
		ranges = append(ranges, YearLabels(lo, hi))
		labels = append(labels, fmt.Sprintf("%ds", start))
	}
	return ranges, labels
}
