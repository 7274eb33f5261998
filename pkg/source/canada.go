package source

import (
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
)

// Layout of the published UN workbook.
const (
	CanadaSheet      = "Canada by Citizenship"
	CanadaSkipRows   = 20
	CanadaSkipFooter = 2
)

// SheetOptions locates the table inside a workbook.
type SheetOptions struct {
	// Sheet is the worksheet name.
	Sheet string
	// SkipRows is the number of leading rows before the header row.
	SkipRows int
	// SkipFooter is the number of trailing rows to drop.
	SkipFooter int
}

// CanadaSheetOptions returns the layout of the UN immigration workbook.
func CanadaSheetOptions() SheetOptions {
	return SheetOptions{Sheet: CanadaSheet, SkipRows: CanadaSkipRows, SkipFooter: CanadaSkipFooter}
}

// ReadCanada reads one worksheet of an .xlsx workbook into a positionally
// keyed table. The first row after SkipRows is the header; headers that are
// integers (the year columns) become numeric labels. Cells are read raw and
// interpreted with [frame.ParseValue].
func ReadCanada(r io.Reader, opts SheetOptions) (*frame.Table, error) {
	if err := errs.ValidateSheetName(opts.Sheet); err != nil {
		return nil, err
	}
	if opts.SkipRows < 0 || opts.SkipFooter < 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "skip rows and footer must be non-negative")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(opts.Sheet); err != nil || idx < 0 {
		return nil, errs.New(errs.ErrCodeNotFound, "sheet %q not found (have %s)",
			opts.Sheet, strings.Join(f.GetSheetList(), ", "))
	}
	rows, err := f.GetRows(opts.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "read sheet %q", opts.Sheet)
	}
	return tableFromSheet(rows, opts)
}

func tableFromSheet(rows [][]string, opts SheetOptions) (*frame.Table, error) {
	if len(rows) <= opts.SkipRows {
		return nil, errs.New(errs.ErrCodeEmptyInput, "sheet %q has no header row after skipping %d rows",
			opts.Sheet, opts.SkipRows)
	}
	header := rows[opts.SkipRows]
	body := rows[opts.SkipRows+1:]
	body = body[:max(len(body)-opts.SkipFooter, 0)]

	columns := make([]frame.Label, len(header))
	for j, h := range header {
		columns[j] = headerLabel(h)
	}

	// excelize trims trailing empty cells, so rows may be shorter than
	// the header.
	cells := make([][]frame.Value, len(body))
	for i, rec := range body {
		row := make([]frame.Value, len(header))
		for j := range header {
			if j < len(rec) {
				row[j] = frame.ParseValue(rec[j])
			}
		}
		cells[i] = row
	}
	return frame.New(columns, cells)
}

func headerLabel(raw string) frame.Label {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return frame.Num(n)
	}
	return frame.Name(s)
}
