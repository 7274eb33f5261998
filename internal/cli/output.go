package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/widetable/pkg/frame"
	tableio "github.com/matzehuels/widetable/pkg/io"
)

// Output formats for table commands.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatXLSX  = "xlsx"
)

var allFormats = []string{formatTable, formatCSV, formatJSON, formatXLSX}

// outputFlags select where and how a command writes its table.
type outputFlags struct {
	format  string
	output  string
	maxRows int
}

func (o *outputFlags) register(cmd *cobra.Command, maxRows int) {
	o.maxRows = maxRows
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: table (default), csv, json, xlsx")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (format inferred from extension)")
	cmd.Flags().IntVar(&o.maxRows, "rows", maxRows, "maximum rows in table format (0 for all)")
}

// resolve picks the format: explicit flag, then file extension, then the
// terminal table.
func (o *outputFlags) resolve() (string, error) {
	f := strings.ToLower(o.format)
	if f == "" && o.output != "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.output)), ".")
	}
	if f == "" {
		f = formatTable
	}
	if !slices.Contains(allFormats, f) {
		return "", fmt.Errorf("invalid format %q (must be one of: %s)", f, strings.Join(allFormats, ", "))
	}
	if f == formatXLSX && o.output == "" {
		return "", fmt.Errorf("xlsx output needs --output")
	}
	return f, nil
}

// write emits t to stdout or to the output file. sheet names the xlsx
// worksheet.
func (o *outputFlags) write(w io.Writer, t *frame.Table, sheet string) error {
	format, err := o.resolve()
	if err != nil {
		return err
	}
	if o.output != "" {
		if err := o.export(format, t, sheet); err != nil {
			return err
		}
		printSuccess("Wrote %d rows", t.Len())
		printFile(o.output)
		return nil
	}
	switch format {
	case formatCSV:
		return tableio.WriteCSV(t, w)
	case formatJSON:
		return tableio.WriteJSON(t, w)
	}
	_, err = fmt.Fprintln(w, renderTable(t, o.maxRows))
	return err
}

func (o *outputFlags) export(format string, t *frame.Table, sheet string) error {
	switch format {
	case formatCSV:
		return tableio.ExportCSV(t, o.output)
	case formatJSON:
		return tableio.ExportJSON(t, o.output)
	case formatXLSX:
		return tableio.ExportXLSX(o.output, tableio.Sheet{Name: sheet, Table: t})
	}
	return fmt.Errorf("format %s cannot be written to a file", format)
}
