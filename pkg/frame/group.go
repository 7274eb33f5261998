package frame

import (
	"slices"
	"strings"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Aggregator reduces the cells of one column within one group.
type Aggregator interface {
	Name() string
	Aggregate(cells []Value) Value
}

// Built-in aggregators.
var (
	// Sum adds numeric cells; null and text count as zero.
	Sum Aggregator = sumAgg{}
	// Mean averages the numeric cells, ignoring nulls. All-null groups are null.
	Mean Aggregator = meanAgg{}
	// Max keeps the largest numeric cell. All-null groups are null.
	Max Aggregator = extremeAgg{name: "max", sign: 1}
	// Min keeps the smallest numeric cell. All-null groups are null.
	Min Aggregator = extremeAgg{name: "min", sign: -1}
	// Count counts non-null cells.
	Count Aggregator = countAgg{}
)

// AggregatorByName looks up a built-in aggregator by its [Aggregator.Name].
func AggregatorByName(name string) (Aggregator, error) {
	for _, a := range []Aggregator{Sum, Mean, Max, Min, Count} {
		if strings.EqualFold(a.Name(), name) {
			return a, nil
		}
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "unknown aggregator %q", name)
}

type sumAgg struct{}

func (sumAgg) Name() string                  { return "sum" }
func (sumAgg) Aggregate(cells []Value) Value { return sumValues(cells) }

type meanAgg struct{}

func (meanAgg) Name() string { return "mean" }

func (meanAgg) Aggregate(cells []Value) Value {
	var sum float64
	var n int
	for _, c := range cells {
		if c.IsNumeric() {
			sum += c.Float()
			n++
		}
	}
	if n == 0 {
		return Null()
	}
	return Float(sum / float64(n))
}

type extremeAgg struct {
	name string
	sign int
}

func (a extremeAgg) Name() string { return a.name }

func (a extremeAgg) Aggregate(cells []Value) Value {
	best := Null()
	for _, c := range cells {
		if !c.IsNumeric() {
			continue
		}
		if best.IsNull() || Compare(c, best)*a.sign > 0 {
			best = c
		}
	}
	return best
}

type countAgg struct{}

func (countAgg) Name() string { return "count" }

func (countAgg) Aggregate(cells []Value) Value {
	var n int64
	for _, c := range cells {
		if !c.IsNull() {
			n++
		}
	}
	return Int(n)
}

// GroupAndAggregate produces one row per distinct value of key, reducing
// each of columns with agg over the rows sharing that value. Output rows
// follow the first appearance of each group; use [SortIndex] for a sorted
// order. The result is indexed by key.
//
// A nil columns slice selects every numeric column other than key. A nil
// agg means [Sum]. The key may name the index of t.
func GroupAndAggregate(t *Table, key string, columns []string, agg Aggregator) (*Table, error) {
	if agg == nil {
		agg = Sum
	}
	keyCells, err := keyColumn(t, key)
	if err != nil {
		return nil, err
	}
	if columns == nil {
		columns = NumericColumns(t, key)
	}
	idx := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return nil, errs.ColumnNotFound(c)
		}
		idx[k] = j
	}

	var groups []Label
	members := make(map[Label][]int)
	for i, v := range keyCells {
		g := labelOf(v)
		if _, seen := members[g]; !seen {
			groups = append(groups, g)
		}
		members[g] = append(members[g], i)
	}

	rows := make([][]Value, len(groups))
	for gi, g := range groups {
		row := make([]Value, len(idx))
		cells := make([]Value, len(members[g]))
		for k, j := range idx {
			for m, i := range members[g] {
				cells[m] = t.rows[i][j]
			}
			row[k] = agg.Aggregate(cells)
		}
		rows[gi] = row
	}
	return build(Names(columns...), groups, rows, key, t.columnsName), nil
}

func keyColumn(t *Table, key string) ([]Value, error) {
	if t.HasColumn(key) {
		return t.Column(key)
	}
	if key != "" && key == t.indexName {
		out := make([]Value, len(t.keys))
		for i := range t.keys {
			out[i] = Row{t: t, i: i}.Get(key)
		}
		return out, nil
	}
	return nil, errs.ColumnNotFound(key)
}

// NumericColumns returns the text-labelled columns whose cells are all
// numbers or nulls, skipping the named exclusions. Columns with no numeric
// cell at all are skipped.
func NumericColumns(t *Table, exclude ...string) []string {
	var out []string
	for j, c := range t.columns {
		if c.IsNumeric() || slices.Contains(exclude, c.name) || t.colIndex[c.name] != j {
			continue
		}
		numeric, seen := true, false
		for _, r := range t.rows {
			switch r[j].Kind() {
			case KindInt, KindFloat:
				seen = true
			case KindText:
				numeric = false
			}
		}
		if numeric && seen {
			out = append(out, c.name)
		}
	}
	return out
}

// SortIndex orders rows by key, ascending or descending. Integer keys sort
// before text keys.
func SortIndex(t *Table, ascending bool) *Table {
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		c := t.keys[a].Compare(t.keys[b])
		if !ascending {
			c = -c
		}
		return c
	})
	return pick(t, order)
}
