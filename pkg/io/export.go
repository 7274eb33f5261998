package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
)

// WriteJSON encodes t in split layout, indented, and writes it to w. The
// output can be read back with [ReadJSON].
func WriteJSON(t *frame.Table, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes t to a JSON file at path.
func ExportJSON(t *frame.Table, path string) error {
	return createAnd(path, func(w io.Writer) error { return WriteJSON(t, w) })
}

// WriteCSV writes t as CSV. When t has a named index it becomes the first
// column. Nulls are written as empty fields.
func WriteCSV(t *frame.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	withIndex := t.IndexName() != ""

	header := t.ColumnNames()
	if withIndex {
		header = append([]string{t.IndexName()}, header...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows() {
		rec := make([]string, 0, len(header))
		if withIndex {
			rec = append(rec, r.Key().String())
		}
		for _, v := range r.Values() {
			rec = append(rec, cellText(v))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes t to a CSV file at path.
func ExportCSV(t *frame.Table, path string) error {
	return createAnd(path, func(w io.Writer) error { return WriteCSV(t, w) })
}

func cellText(v frame.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func createAnd(path string, write func(io.Writer) error) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
