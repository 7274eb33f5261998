package frame

import (
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Predicate decides whether a row is kept by [SelectRows].
type Predicate func(Row) bool

// Eq matches rows whose column equals want.
func Eq(column string, want Value) Predicate {
	return func(r Row) bool { return r.Get(column).Equal(want) }
}

// In matches rows whose column equals any of want.
func In(column string, want ...Value) Predicate {
	return func(r Row) bool {
		got := r.Get(column)
		return slices.ContainsFunc(want, got.Equal)
	}
}

// Gt matches rows whose numeric column is greater than x. Non-numeric cells
// never match.
func Gt(column string, x float64) Predicate {
	return func(r Row) bool {
		v := r.Get(column)
		return v.IsNumeric() && v.Float() > x
	}
}

// Lt matches rows whose numeric column is less than x. Non-numeric cells
// never match.
func Lt(column string, x float64) Predicate {
	return func(r Row) bool {
		v := r.Get(column)
		return v.IsNumeric() && v.Float() < x
	}
}

// And matches rows accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Or matches rows accepted by at least one predicate.
func Or(preds ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(r Row) bool { return !p(r) }
}

// SelectRows returns the rows accepted by pred in their original order.
func SelectRows(t *Table, pred Predicate) *Table {
	var order []int
	for i := range t.rows {
		if pred(Row{t: t, i: i}) {
			order = append(order, i)
		}
	}
	return pick(t, order)
}

// SliceColumns restricts t to the rows with the given keys, in the order of
// keys, and to the given columns, in the order of columns. A nil keys slice
// keeps every row; a nil columns slice keeps every column.
func SliceColumns(t *Table, keys, columns []string) (*Table, error) {
	order := make([]int, 0, len(keys))
	if keys == nil {
		for i := range t.rows {
			order = append(order, i)
		}
	}
	for _, k := range keys {
		i, ok := t.keyIndex[k]
		if !ok {
			return nil, errs.RowNotFound(k)
		}
		order = append(order, i)
	}
	rowsOnly := pick(t, order)
	if columns == nil {
		return rowsOnly, nil
	}

	keep := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return nil, errs.ColumnNotFound(c)
		}
		keep[k] = j
	}
	return project(rowsOnly, keep), nil
}
