package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/widetable/pkg/frame"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBar      = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// statusOut receives status lines so that stdout stays clean for data.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints dataset statistics on a single line.
func printStats(countries int, years string, cached bool) {
	parts := []string{fmt.Sprintf("%d countries", countries)}
	if years != "" {
		parts = append(parts, years)
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(statusOut, line+StyleDim.Render(" · ")+statusStyle.Render(status))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(statusOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Data Output
// =============================================================================

// writeKeyValues prints labelled values in two aligned columns.
func writeKeyValues(w io.Writer, pairs [][2]any) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	for _, p := range pairs {
		fmt.Fprintln(w, keyStyle.Render(fmt.Sprint(p[0]))+" "+StyleValue.Render(formatAny(p[1])))
	}
}

// renderTable draws t with its index as the first column. At most maxRows
// rows are drawn when maxRows is positive.
func renderTable(t *frame.Table, maxRows int) string {
	headers := append([]string{t.IndexName()}, t.ColumnNames()...)
	n := t.Len()
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	rows := make([][]string, 0, n)
	for i := range n {
		r := t.Row(i)
		row := make([]string, 0, len(headers))
		row = append(row, r.Key().String())
		for _, v := range r.Values() {
			row = append(row, formatValue(v))
		}
		rows = append(rows, row)
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return base.Inherit(styleHeader)
			case col == 0:
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray).Align(lipgloss.Right)
		})

	out := tbl.Render()
	if n < t.Len() {
		out += "\n" + StyleDim.Render(fmt.Sprintf("  … %d more rows", t.Len()-n))
	}
	return out
}

// renderBars draws one horizontal bar per label, scaled to width cells.
func renderBars(labels []string, values []float64, width int) string {
	var hi float64
	pad := 0
	for i, v := range values {
		hi = max(hi, v)
		pad = max(pad, len(labels[i]))
	}
	var b strings.Builder
	for i, v := range values {
		cells := 0
		if hi > 0 {
			cells = max(int(v/hi*float64(width)), 0)
		}
		fmt.Fprintf(&b, "%-*s %s %s\n", pad, labels[i],
			styleBar.Render(strings.Repeat("█", cells)), StyleDim.Render(formatFloat(v)))
	}
	return b.String()
}

func formatValue(v frame.Value) string {
	switch v.Kind() {
	case frame.KindNull:
		return "—"
	case frame.KindFloat:
		return formatFloat(v.Float())
	}
	return v.String()
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatAny(x any) string {
	if f, ok := x.(float64); ok {
		return formatFloat(f)
	}
	return fmt.Sprint(x)
}
