package frame

import (
	"math"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// Field declares one expected column.
type Field struct {
	// Name matches the column label's string form, so numeric year headers
	// can be declared before they are stringified.
	Name string
	// Kind is the required cell kind. The zero kind only checks presence.
	// Int fields accept integral floats; Float fields accept ints.
	Kind Kind
	// NonNegative rejects numeric cells below zero.
	NonNegative bool
}

// Schema is the set of columns a table must carry. Extra columns are
// allowed.
type Schema []Field

// Check validates t against s once, at ingestion, so that later stages can
// assume well-typed columns. It fails with COLUMN_NOT_FOUND for a missing
// column and SCHEMA_MISMATCH for a cell of the wrong kind or sign. Null
// cells always pass.
func (s Schema) Check(t *Table) error {
	byName := make(map[string]int, len(t.columns))
	for j, c := range t.columns {
		byName[c.String()] = j
	}
	for _, f := range s {
		j, ok := byName[f.Name]
		if !ok {
			return errs.ColumnNotFound(f.Name)
		}
		for i, r := range t.rows {
			if err := f.check(r[j]); err != nil {
				return errs.New(errs.ErrCodeSchemaMismatch, "row %s, column %q: %s",
					t.keys[i].String(), f.Name, err.Error())
			}
		}
	}
	return nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

func (f Field) check(v Value) error {
	if v.IsNull() {
		return nil
	}
	switch f.Kind {
	case KindText:
		if v.Kind() != KindText {
			return fieldError("want text, got " + v.Kind().String())
		}
	case KindInt:
		if v.Kind() == KindFloat && v.Float() != math.Trunc(v.Float()) {
			return fieldError("want int, got fractional " + v.String())
		}
		if !v.IsNumeric() {
			return fieldError("want int, got " + v.Kind().String() + " " + v.String())
		}
	case KindFloat:
		if !v.IsNumeric() {
			return fieldError("want number, got " + v.Kind().String() + " " + v.String())
		}
	}
	if f.NonNegative && v.IsNumeric() && v.Float() < 0 {
		return fieldError("negative value " + v.String())
	}
	return nil
}

// Names returns the declared column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}
