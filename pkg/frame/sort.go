package frame

import (
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// SortByColumn orders rows by column. The sort is stable: rows with equal
// values keep their relative order in either direction. Nulls sort last
// regardless of direction.
func SortByColumn(t *Table, column string, ascending bool) (*Table, error) {
	j, ok := t.colIndex[column]
	if !ok {
		return nil, errs.ColumnNotFound(column)
	}
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, vb := t.rows[a][j], t.rows[b][j]
		switch {
		case va.IsNull() && vb.IsNull():
			return 0
		case va.IsNull():
			return 1
		case vb.IsNull():
			return -1
		}
		c := Compare(va, vb)
		if !ascending {
			c = -c
		}
		return c
	})
	return pick(t, order), nil
}

// TopN returns the n rows with the largest values in column, largest first.
// Fewer rows are returned when the table is shorter than n.
func TopN(t *Table, column string, n int) (*Table, error) {
	return firstN(t, column, n, false)
}

// BottomN returns the n rows with the smallest values in column, smallest
// first. Fewer rows are returned when the table is shorter than n.
func BottomN(t *Table, column string, n int) (*Table, error) {
	return firstN(t, column, n, true)
}

func firstN(t *Table, column string, n int, ascending bool) (*Table, error) {
	if n < 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "n must be non-negative, got %d", n)
	}
	sorted, err := SortByColumn(t, column, ascending)
	if err != nil {
		return nil, err
	}
	return Head(sorted, n), nil
}
