package io

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
)

// Sheet names a table inside a workbook.
type Sheet struct {
	Name  string
	Table *frame.Table
}

const headerColWidth = 18

// WriteXLSX writes one worksheet per sheet, in order, to w. Each worksheet
// has a bold header row; the index, when named, fills the first column.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportXLSX writes the sheets to an .xlsx file at path.
func ExportXLSX(path string, sheets ...Sheet) error {
	return createAnd(path, func(w io.Writer) error { return WriteXLSX(w, sheets...) })
}

func buildWorkbook(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, errs.EmptyInput("write workbook")
	}
	f := excelize.NewFile()
	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		if err := errs.ValidateSheetName(s.Name); err != nil {
			f.Close()
			return nil, err
		}
		if seen[s.Name] {
			f.Close()
			return nil, errs.New(errs.ErrCodeDuplicateKey, "sheet %q appears twice", s.Name)
		}
		seen[s.Name] = true

		if i == 0 {
			err := f.SetSheetName("Sheet1", s.Name)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	t := s.Table
	withIndex := t.IndexName() != ""

	header := make([]any, 0, t.Width()+1)
	if withIndex {
		header = append(header, t.IndexName())
	}
	for _, c := range t.ColumnNames() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(max(len(header), 1), 1)
	if err := f.SetCellStyle(s.Name, "A1", last, bold); err != nil {
		return err
	}
	lastCol, _, _ := excelize.SplitCellName(last)
	if err := f.SetColWidth(s.Name, "A", lastCol, headerColWidth); err != nil {
		return err
	}

	for i, r := range t.Rows() {
		row := make([]any, 0, len(header))
		if withIndex {
			row = append(row, cellAny(r.Get(t.IndexName())))
		}
		for _, v := range r.Values() {
			row = append(row, cellAny(v))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func cellAny(v frame.Value) any {
	switch v.Kind() {
	case frame.KindInt:
		return v.Int()
	case frame.KindFloat:
		return v.Float()
	case frame.KindText:
		return v.Str()
	default:
		return nil
	}
}
