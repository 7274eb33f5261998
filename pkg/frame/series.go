package frame

import (
	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/series"
)

// RowSeries returns one row's values across columns as a series named after
// the row key. A nil columns slice means every numeric column.
func RowSeries(t *Table, key string, columns []string) (series.Series, error) {
	i, ok := t.keyIndex[key]
	if !ok {
		return series.Series{}, errs.RowNotFound(key)
	}
	if columns == nil {
		columns = NumericColumns(t)
	}
	values := make([]float64, len(columns))
	for k, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return series.Series{}, errs.ColumnNotFound(c)
		}
		values[k] = t.rows[i][j].Float()
	}
	return series.Series{Name: key, Labels: append([]string(nil), columns...), Values: values}, nil
}

// ColumnSeries returns one column as a series labelled by row key.
func ColumnSeries(t *Table, column string) (series.Series, error) {
	cells, err := t.Column(column)
	if err != nil {
		return series.Series{}, err
	}
	values := make([]float64, len(cells))
	for i, c := range cells {
		values[i] = c.Float()
	}
	return series.Series{Name: column, Labels: t.KeyNames(), Values: values}, nil
}

// ColumnSums totals each of columns over all rows. The result is labelled
// by column, so summing the year columns gives the yearly series for every
// country together.
func ColumnSums(t *Table, columns []string, name string) (series.Series, error) {
	values := make([]float64, len(columns))
	for k, c := range columns {
		j, ok := t.colIndex[c]
		if !ok {
			return series.Series{}, errs.ColumnNotFound(c)
		}
		for _, r := range t.rows {
			values[k] += r[j].Float()
		}
	}
	return series.Series{Name: name, Labels: append([]string(nil), columns...), Values: values}, nil
}
