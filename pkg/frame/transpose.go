package frame

import (
	"slices"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// TransposeOptions controls [Transpose].
type TransposeOptions struct {
	// NumericKeys converts the new row keys (the former column labels) to
	// integer labels, failing with INVALID_INPUT if one does not parse.
	NumericKeys bool
}

// Transpose swaps rows and columns: former column labels become row keys
// and former row keys become column labels. The axis names swap as well, so
// Transpose(Transpose(t)) equals t when NumericKeys is unset.
func Transpose(t *Table, opts TransposeOptions) (*Table, error) {
	keys := slices.Clone(t.columns)
	if opts.NumericKeys {
		for i, k := range keys {
			n, ok := k.Int()
			if !ok {
				return nil, errs.New(errs.ErrCodeInvalidInput, "column label %q is not an integer", k.String())
			}
			keys[i] = Num(n)
		}
	}

	rows := make([][]Value, len(t.columns))
	for j := range t.columns {
		row := make([]Value, len(t.rows))
		for i, r := range t.rows {
			row[i] = r[j]
		}
		rows[j] = row
	}
	return build(slices.Clone(t.keys), keys, rows, t.columnsName, t.indexName), nil
}
