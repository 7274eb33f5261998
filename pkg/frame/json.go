package frame

import (
	"encoding/json"

	errs "github.com/matzehuels/widetable/pkg/errors"
)

// tableJSON is the "split" layout: labels and cells kept apart so that
// numeric labels and null cells survive a round trip.
type tableJSON struct {
	IndexName   string    `json:"index_name,omitempty"`
	ColumnsName string    `json:"columns_name,omitempty"`
	Columns     []Label   `json:"columns"`
	Index       []Label   `json:"index"`
	Data        [][]Value `json:"data"`
}

// MarshalJSON encodes t in split layout.
func (t *Table) MarshalJSON() ([]byte, error) {
	data := t.rows
	if data == nil {
		data = [][]Value{}
	}
	return json.Marshal(tableJSON{
		IndexName:   t.indexName,
		ColumnsName: t.columnsName,
		Columns:     t.columns,
		Index:       t.keys,
		Data:        data,
	})
}

// UnmarshalJSON decodes the layout written by [Table.MarshalJSON]. A
// missing index means positional keys.
func (t *Table) UnmarshalJSON(b []byte) error {
	var in tableJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode table")
	}
	if in.Index == nil {
		in.Index = positionalKeys(len(in.Data))
	}
	if len(in.Index) != len(in.Data) {
		return errs.New(errs.ErrCodeInvalidFormat, "table has %d index labels for %d rows", len(in.Index), len(in.Data))
	}
	for i, r := range in.Data {
		if len(r) != len(in.Columns) {
			return errs.New(errs.ErrCodeInvalidFormat, "row %d has %d cells, want %d", i, len(r), len(in.Columns))
		}
	}
	*t = *build(in.Columns, in.Index, in.Data, in.IndexName, in.ColumnsName)
	return nil
}
