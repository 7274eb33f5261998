package frame

import (
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Table is an ordered, row-keyed grid of [Value] cells.
//
// Every table has row keys. A freshly loaded table is keyed by position
// (Num(0), Num(1), ...) until [SetIndex] promotes a column to the row
// identity. Operations never modify their input; each returns a new Table
// that shares no cell storage with it.
type Table struct {
	columns     []Label
	keys        []Label
	rows        [][]Value
	indexName   string
	columnsName string

	colIndex map[string]int
	keyIndex map[string]int
}

// New builds a positionally keyed table. Every row must have exactly one
// cell per column.
func New(columns []Label, rows [][]Value) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, errs.New(errs.ErrCodeInvalidInput,
				"row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	cells := make([][]Value, len(rows))
	for i, r := range rows {
		cells[i] = slices.Clone(r)
	}
	return build(slices.Clone(columns), positionalKeys(len(rows)), cells, "", ""), nil
}

// FromRecords builds a positionally keyed table from string records, such as
// the output of encoding/csv. Cells are interpreted with [ParseValue]; short
// records are padded with nulls and long records are truncated.
func FromRecords(header []string, records [][]string) *Table {
	cells := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(header))
		for j := range header {
			if j < len(rec) {
				row[j] = ParseValue(rec[j])
			}
		}
		cells[i] = row
	}
	return build(Names(header...), positionalKeys(len(records)), cells, "", "")
}

func positionalKeys(n int) []Label {
	keys := make([]Label, n)
	for i := range keys {
		keys[i] = Num(int64(i))
	}
	return keys
}

// build takes ownership of its slices.
func build(columns, keys []Label, rows [][]Value, indexName, columnsName string) *Table {
	t := &Table{
		columns:     columns,
		keys:        keys,
		rows:        rows,
		indexName:   indexName,
		columnsName: columnsName,
	}
	t.reindex()
	return t
}

// reindex rebuilds the lookup maps. Only text column labels are addressable
// by name; on a label collision the last column wins.
func (t *Table) reindex() {
	t.colIndex = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		if !c.IsNumeric() {
			t.colIndex[c.name] = i
		}
	}
	t.keyIndex = make(map[string]int, len(t.keys))
	for i, k := range t.keys {
		t.keyIndex[k.String()] = i
	}
}

// =============================================================================
// Builder
// =============================================================================

// Builder accumulates rows for a new table. The first error sticks and is
// reported by [Builder.Build].
type Builder struct {
	columns []Label
	rows    [][]Value
	err     error
}

// NewBuilder starts a table with the given text column labels.
func NewBuilder(columns ...string) *Builder {
	return &Builder{columns: Names(columns...)}
}

// NewBuilderLabels starts a table with arbitrary column labels.
func NewBuilderLabels(columns ...Label) *Builder {
	return &Builder{columns: slices.Clone(columns)}
}

// Row appends one row. Cells are converted with [ValueOf].
func (b *Builder) Row(cells ...any) *Builder {
	if b.err != nil {
		return b
	}
	if len(cells) != len(b.columns) {
		b.err = errs.New(errs.ErrCodeInvalidInput,
			"row %d has %d cells, want %d", len(b.rows), len(cells), len(b.columns))
		return b
	}
	row := make([]Value, len(cells))
	for i, c := range cells {
		row[i] = ValueOf(c)
	}
	b.rows = append(b.rows, row)
	return b
}

// Build returns the finished table or the first error encountered.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	return build(slices.Clone(b.columns), positionalKeys(len(b.rows)), b.rows, "", ""), nil
}

// =============================================================================
// Accessors
// =============================================================================

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Columns returns a copy of the column labels in order.
func (t *Table) Columns() []Label { return slices.Clone(t.columns) }

// ColumnNames returns the column labels as strings.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.String()
	}
	return out
}

// Keys returns a copy of the row keys in order.
func (t *Table) Keys() []Label { return slices.Clone(t.keys) }

// KeyNames returns the row keys as strings.
func (t *Table) KeyNames() []string {
	out := make([]string, len(t.keys))
	for i, k := range t.keys {
		out[i] = k.String()
	}
	return out
}

// IndexName returns the name of the row-key axis, or "" for positional keys.
func (t *Table) IndexName() string { return t.indexName }

// ColumnsName returns the name of the column axis. It is empty unless the
// table was produced by [Transpose] of an indexed table.
func (t *Table) ColumnsName() string { return t.columnsName }

// HasColumn reports whether a text column called name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIndex[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, error) {
	j, ok := t.colIndex[name]
	if !ok {
		return nil, errs.ColumnNotFound(name)
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Row returns a view of the i-th row.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Rows returns views of every row in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range out {
		out[i] = Row{t: t, i: i}
	}
	return out
}

// Lookup finds the row whose key has the given string form.
func (t *Table) Lookup(key string) (Row, bool) {
	i, ok := t.keyIndex[key]
	if !ok {
		return Row{}, false
	}
	return Row{t: t, i: i}, true
}

// Cell returns the value at (key, column).
func (t *Table) Cell(key, column string) (Value, error) {
	i, ok := t.keyIndex[key]
	if !ok {
		return Value{}, errs.RowNotFound(key)
	}
	j, ok := t.colIndex[column]
	if !ok {
		return Value{}, errs.ColumnNotFound(column)
	}
	return t.rows[i][j], nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		rows[i] = slices.Clone(r)
	}
	return build(slices.Clone(t.columns), slices.Clone(t.keys), rows, t.indexName, t.columnsName)
}

// Equal reports whether t and o have the same labels, keys, axis names and
// cells. Cells compare with [Value.Equal] but must also share a kind.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.indexName != o.indexName || t.columnsName != o.columnsName {
		return false
	}
	if !slices.Equal(t.columns, o.columns) || !slices.Equal(t.keys, o.keys) {
		return false
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			a, b := t.rows[i][j], o.rows[i][j]
			if a.Kind() != b.Kind() || !a.Equal(b) {
				return false
			}
		}
	}
	return true
}

// =============================================================================
// Row
// =============================================================================

// Row is a read-only view of one table row.
type Row struct {
	t *Table
	i int
}

// Key returns the row key.
func (r Row) Key() Label { return r.t.keys[r.i] }

// Index returns the row position within its table.
func (r Row) Index() int { return r.i }

// Get returns the cell in the named column. The index column is addressable
// by its name too. Unknown columns read as null.
func (r Row) Get(column string) Value {
	if j, ok := r.t.colIndex[column]; ok {
		return r.t.rows[r.i][j]
	}
	if column != "" && column == r.t.indexName {
		k := r.t.keys[r.i]
		if k.IsNumeric() {
			return Int(k.num)
		}
		return Text(k.name)
	}
	return Null()
}

// Values returns a copy of the row's cells in column order.
func (r Row) Values() []Value { return slices.Clone(r.t.rows[r.i]) }
