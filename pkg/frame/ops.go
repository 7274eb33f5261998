package frame

import (
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// DuplicatePolicy decides what [SetIndexWithPolicy] does with repeated keys.
type DuplicatePolicy int

const (
	// DuplicateLastWins keeps the last row for each key at its own position
	// and drops the earlier ones.
	DuplicateLastWins DuplicatePolicy = iota
	// DuplicateReject fails with DUPLICATE_KEY.
	DuplicateReject
)

// String returns the policy name used in config files.
func (p DuplicatePolicy) String() string {
	if p == DuplicateReject {
		return "reject"
	}
	return "last-wins"
}

// ParseDuplicatePolicy parses "last-wins" or "reject".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "last-wins", "last":
		return DuplicateLastWins, nil
	case "reject", "error":
		return DuplicateReject, nil
	}
	return 0, errs.New(errs.ErrCodeInvalidInput, "unknown duplicate policy %q", s)
}

// Prune removes the named columns. It fails with COLUMN_NOT_FOUND if any of
// them is absent.
func Prune(t *Table, columns ...string) (*Table, error) {
	drop := make(map[int]bool, len(columns))
	for _, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return nil, errs.ColumnNotFound(c)
		}
		drop[j] = true
	}
	keep := make([]int, 0, len(t.columns)-len(drop))
	for j := range t.columns {
		if !drop[j] {
			keep = append(keep, j)
		}
	}
	return project(t, keep), nil
}

// project returns a copy of t restricted to the column positions in keep.
func project(t *Table, keep []int) *Table {
	cols := make([]Label, len(keep))
	for k, j := range keep {
		cols[k] = t.columns[j]
	}
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(keep))
		for k, j := range keep {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return build(cols, slices.Clone(t.keys), rows, t.indexName, t.columnsName)
}

// Rename relabels columns one to one. Unmapped columns pass through. A
// mapping whose source is the index name renames the index axis instead.
// Renaming onto an existing label is not guarded: both columns remain and
// name lookups resolve to the later one.
func Rename(t *Table, mapping map[string]string) (*Table, error) {
	out := t.Clone()
	for from, to := range mapping {
		if j, ok := t.colIndex[from]; ok {
			out.columns[j] = Name(to)
			continue
		}
		if from != "" && from == t.indexName {
			out.indexName = to
			continue
		}
		return nil, errs.ColumnNotFound(from)
	}
	out.reindex()
	return out, nil
}

// StringifyColumnLabels converts every numeric column label to its text
// form. Applying it twice is the same as applying it once.
func StringifyColumnLabels(t *Table) *Table {
	out := t.Clone()
	for j, c := range out.columns {
		if c.IsNumeric() {
			out.columns[j] = Name(c.String())
		}
	}
	out.reindex()
	return out
}

// SetIndex promotes column to the row identity using [DuplicateLastWins].
func SetIndex(t *Table, column string) (*Table, error) {
	return SetIndexWithPolicy(t, column, DuplicateLastWins)
}

// SetIndexWithPolicy promotes column to the row identity. The column is
// removed from the ordinary columns; any previous index is discarded. Null
// keys are rejected with INVALID_INPUT.
func SetIndexWithPolicy(t *Table, column string, policy DuplicatePolicy) (*Table, error) {
	kj, ok := t.colIndex[column]
	if !ok {
		return nil, errs.ColumnNotFound(column)
	}

	last := make(map[Label]int, len(t.rows))
	keys := make([]Label, len(t.rows))
	for i, r := range t.rows {
		v := r[kj]
		if v.IsNull() {
			return nil, errs.New(errs.ErrCodeInvalidInput, "row %d has a null %s", i, column)
		}
		k := labelOf(v)
		if _, dup := last[k]; dup && policy == DuplicateReject {
			return nil, errs.New(errs.ErrCodeDuplicateKey, "duplicate %s %q", column, k.String())
		}
		last[k] = i
		keys[i] = k
	}

	cols := make([]Label, 0, len(t.columns)-1)
	for j, c := range t.columns {
		if j != kj {
			cols = append(cols, c)
		}
	}

	var outKeys []Label
	var rows [][]Value
	for i, r := range t.rows {
		if last[keys[i]] != i {
			continue
		}
		row := make([]Value, 0, len(cols))
		row = append(row, r[:kj]...)
		row = append(row, r[kj+1:]...)
		rows = append(rows, row)
		outKeys = append(outKeys, keys[i])
	}
	return build(cols, outKeys, rows, column, t.columnsName), nil
}

// AddRowSum appends a column holding the per-row sum of columns. Null and
// text cells count as zero. The result is an int when every summed cell is
// an int or null, otherwise a float. If name already exists it is
// overwritten in place.
func AddRowSum(t *Table, columns []string, name string) (*Table, error) {
	idx := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return nil, errs.ColumnNotFound(c)
		}
		idx[k] = j
	}
	sums := make([]Value, len(t.rows))
	for i, r := range t.rows {
		cells := make([]Value, len(idx))
		for k, j := range idx {
			cells[k] = r[j]
		}
		sums[i] = sumValues(cells)
	}
	return withColumn(t, name, sums), nil
}

// withColumn returns a copy of t with column name set to cells, replacing an
// existing column of that name or appending a new one.
func withColumn(t *Table, name string, cells []Value) *Table {
	out := t.Clone()
	j, exists := out.colIndex[name]
	if !exists {
		out.columns = append(out.columns, Name(name))
	}
	for i := range out.rows {
		if exists {
			out.rows[i][j] = cells[i]
		} else {
			out.rows[i] = append(out.rows[i], cells[i])
		}
	}
	out.reindex()
	return out
}

func sumValues(cells []Value) Value {
	var isum int64
	var fsum float64
	allInt := true
	for _, c := range cells {
		switch c.Kind() {
		case KindInt:
			isum += c.Int()
			fsum += float64(c.Int())
		case KindFloat:
			allInt = false
			fsum += c.Float()
		}
	}
	if allInt {
		return Int(isum)
	}
	return Float(fsum)
}

// Head returns the first n rows, or all rows if n exceeds the length.
func Head(t *Table, n int) *Table {
	return sliceRows(t, 0, min(max(n, 0), t.Len()))
}

// Tail returns the last n rows, or all rows if n exceeds the length.
func Tail(t *Table, n int) *Table {
	n = min(max(n, 0), t.Len())
	return sliceRows(t, t.Len()-n, t.Len())
}

func sliceRows(t *Table, lo, hi int) *Table {
	rows := make([][]Value, 0, hi-lo)
	for _, r := range t.rows[lo:hi] {
		rows = append(rows, slices.Clone(r))
	}
	return build(slices.Clone(t.columns), slices.Clone(t.keys[lo:hi]), rows, t.indexName, t.columnsName)
}

// pick returns a copy of t restricted to the row positions in order.
func pick(t *Table, order []int) *Table {
	keys := make([]Label, len(order))
	rows := make([][]Value, len(order))
	for k, i := range order {
		keys[k] = t.keys[i]
		rows[k] = slices.Clone(t.rows[i])
	}
	return build(slices.Clone(t.columns), keys, rows, t.indexName, t.columnsName)
}
