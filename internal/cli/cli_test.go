package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/incidents"
	"github.com/matzehuels/widetable/pkg/observability"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/source"
)

// =============================================================================
// Fixtures
// =============================================================================

// writeWorkbook saves a four-country copy of the UN workbook for 1980-1981.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := source.CanadaSheet
	require.NoError(t, f.SetSheetName("Sheet1", sheet))

	for i := 1; i <= source.CanadaSkipRows; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i)
		require.NoError(t, f.SetCellValue(sheet, cell, "banner"))
	}
	rows := [][]any{
		{"Type", "Coverage", "OdName", "AREA", "AreaName", "REG", "RegName", "DEV", "DevName", 1980, 1981},
		{"Immigrants", "Foreigners", "Haiti", 904, "Latin America and the Caribbean", 915, "Caribbean", 902, "Developing regions", 1666, 3692},
		{"Immigrants", "Foreigners", "Japan", 935, "Asia", 906, "Eastern Asia", 901, "Developed regions", 701, 756},
		{"Immigrants", "Foreigners", "Iceland", 908, "Europe", 924, "Northern Europe", 901, "Developed regions", 17, 0},
		{"Immigrants", "Foreigners", "Brazil", 904, "Latin America and the Caribbean", 931, "South America", 902, "Developing regions", 211, 220},
		{"Total"},
		{"Source: UN"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, source.CanadaSkipRows+1+i)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "Canada.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

const incidentsCSV = `IncidntNum,Category,Descript,DayOfWeek,Date,Time,PdDistrict,Resolution,Address,X,Y,Location,PdId
120058272,WEAPON LAWS,POSS OF PROHIBITED WEAPON,Friday,01/29/2016 12:00:00 AM,11:00,SOUTHERN,"ARREST, BOOKED",800 Block of BRYANT ST,-122.403404791479,37.7757876218293,"(37.77, -122.40)",12005827212120
120058273,WEAPON LAWS,"FIREARM, LOADED, IN VEHICLE",Friday,01/29/2016 12:00:00 AM,11:00,SOUTHERN,"ARREST, BOOKED",800 Block of BRYANT ST,-122.403404791479,37.7757876218293,"(37.77, -122.40)",12005827212168
141059263,WARRANTS,WARRANT ARREST,Monday,04/25/2016 12:00:00 AM,14:59,BAYVIEW,"ARREST, BOOKED",KEITH ST / SHAFTER AV,-122.388856204292,37.7292705199592,"(37.72, -122.38)",14105926363010
`

func writeIncidents(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, os.WriteFile(path, []byte(incidentsCSV), 0o644))
	return path
}

type cliOutput struct {
	stdout string
	status string
}

// TestMain points the cache and report directories at a scratch
// directory so that tests never touch the user's.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "widetable-cli")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	os.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	os.Unsetenv(pipeline.EnvSource)
	os.Unsetenv(pipeline.EnvRedisURL)
	os.Unsetenv(pipeline.EnvMongoURI)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// execCLI runs the root command with args, capturing data and status
// output separately.
func execCLI(t *testing.T, args ...string) (cliOutput, error) {
	t.Helper()

	var stdout, status bytes.Buffer
	prev := statusOut
	statusOut = &status
	t.Cleanup(func() { statusOut = prev })

	c := New(io.Discard, log.InfoLevel)
	c.Out = &stdout
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&status)
	err := root.ExecuteContext(context.Background())
	return cliOutput{stdout: stdout.String(), status: status.String()}, err
}

func runCLI(t *testing.T, args ...string) cliOutput {
	t.Helper()
	out, err := execCLI(t, args...)
	require.NoError(t, err, "status: %s", out.status)
	return out
}

func csvLines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

// =============================================================================
// Table Commands
// =============================================================================

func TestNormalizeCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "normalize", "--source", book, "--first-year", "1980", "--last-year", "1981", "-f", "csv")

	lines := csvLines(out.stdout)
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Country,Continent,Region,"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], ",1980,1981,Total"), lines[0])
	assert.Contains(t, out.stdout, "Haiti,Latin America and the Caribbean,Caribbean,")
	assert.Contains(t, out.stdout, ",1666,3692,5358")
	assert.Contains(t, out.status, "4 countries")
}

func TestNormalizeToFile(t *testing.T) {
	book := writeWorkbook(t)
	dest := filepath.Join(t.TempDir(), "canada.json")
	out := runCLI(t, "normalize", "--source", book, "--first-year", "1980", "--last-year", "1981", "-o", dest)

	assert.Empty(t, out.stdout)
	assert.Contains(t, out.status, dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var tbl frame.Table
	require.NoError(t, json.Unmarshal(data, &tbl))
	assert.Equal(t, 4, tbl.Len())
}

func TestRankCommands(t *testing.T) {
	book := writeWorkbook(t)
	base := []string{"--source", book, "--first-year", "1980", "--last-year", "1981", "-f", "csv", "-n", "2"}

	top := csvLines(runCLI(t, append([]string{"top"}, base...)...).stdout)
	require.Len(t, top, 3)
	assert.True(t, strings.HasPrefix(top[1], "Haiti,"))
	assert.True(t, strings.HasPrefix(top[2], "Japan,"))

	bottom := csvLines(runCLI(t, append([]string{"bottom"}, base...)...).stdout)
	require.Len(t, bottom, 3)
	assert.True(t, strings.HasPrefix(bottom[1], "Iceland,"))
	assert.True(t, strings.HasPrefix(bottom[2], "Brazil,"))

	_, err := execCLI(t, append([]string{"top", "--by", "1999"}, base...)...)
	assert.True(t, errs.Is(err, errs.ErrCodeColumnNotFound), "got %v", err)
}

func TestFilterCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "filter", "--source", book, "--first-year", "1980", "--last-year", "1981",
		"--continent", "Latin America and the Caribbean", "--min-total", "1000",
		"--columns", "Total", "-f", "csv")

	assert.Equal(t, []string{"Country,Total", "Haiti,5358"}, csvLines(out.stdout))
}

func TestShowCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "show", "Haiti", "--source", book, "--first-year", "1980", "--last-year", "1981")
	for _, want := range []string{"Haiti", "Caribbean", "5358", "1980", "3692"} {
		assert.Contains(t, out.stdout, want)
	}

	_, err := execCLI(t, "show", "Atlantis", "--source", book, "--first-year", "1980", "--last-year", "1981")
	assert.True(t, errs.Is(err, errs.ErrCodeRowNotFound), "got %v", err)
}

func TestSeriesCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "series", "Haiti", "Brazil", "--source", book,
		"--first-year", "1980", "--last-year", "1981", "-f", "csv")
	assert.Equal(t, []string{"Year,Haiti,Brazil", "1980,1666,211", "1981,3692,220"}, csvLines(out.stdout))

	out = runCLI(t, "series", "Haiti", "--normalized", "--source", book,
		"--first-year", "1980", "--last-year", "1981", "-f", "csv")
	assert.Equal(t, []string{"Year,Haiti", "1980,0", "1981,1"}, csvLines(out.stdout))
}

func TestSeriesWithoutCountriesOffTerminal(t *testing.T) {
	book := writeWorkbook(t)
	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer devnull.Close()
	prev := os.Stdin
	os.Stdin = devnull
	t.Cleanup(func() { os.Stdin = prev })

	_, err = execCLI(t, "series", "--source", book, "--first-year", "1980", "--last-year", "1981")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no countries given")
}

func TestContinentsCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "continents", "--source", book, "--first-year", "1980", "--last-year", "1981",
		"--agg", "max", "-f", "csv")
	lines := csvLines(out.stdout)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "Latin America and the Caribbean,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",5358"), lines[1])

	_, err := execCLI(t, "continents", "--source", book, "--agg", "median")
	assert.Error(t, err)
}

func TestThresholdsCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "thresholds", "-n", "3", "--source", book, "--first-year", "1980", "--last-year", "1981")
	assert.Len(t, strings.Fields(out.stdout), 3)
}

func TestThresholdsCommandLimit(t *testing.T) {
	book := writeWorkbook(t)
	_, err := execCLI(t, "thresholds", "-n", "3000000", "--source", book, "--first-year", "1980", "--last-year", "1981")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput), "got %v", err)
}

func TestTotalsCommandCountries(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "totals", "--country", "Haiti", "--country", "Brazil", "--source", book,
		"--first-year", "1980", "--last-year", "1981", "-f", "csv")

	lines := csvLines(out.stdout)
	require.Len(t, lines, 3)
	assert.Equal(t, "Year,Total,Fitted", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1980,1877,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "1981,3912,"), lines[2])
	assert.Contains(t, out.status, "y = 2035 x")

	_, err := execCLI(t, "totals", "--country", "Atlantis", "--source", book,
		"--first-year", "1980", "--last-year", "1981")
	assert.True(t, errs.Is(err, errs.ErrCodeRowNotFound), "got %v", err)
}

func TestHistogramCommand(t *testing.T) {
	book := writeWorkbook(t)
	base := []string{"--source", book, "--first-year", "1980", "--last-year", "1981"}

	out := runCLI(t, append([]string{"histogram", "--year", "1981", "--bins", "2", "-f", "csv"}, base...)...)
	assert.Equal(t, []string{"From,To,Count", "0,1846,3", "1846,3692,1"}, csvLines(out.stdout))

	out = runCLI(t, append([]string{"histogram", "--country", "Haiti", "--country", "Iceland", "--bins", "2", "-f", "csv"}, base...)...)
	assert.Equal(t, []string{"From,To,Haiti,Iceland", "0,1846,1,2", "1846,3692,1,0"}, csvLines(out.stdout))

	out = runCLI(t, append([]string{"histogram", "--country", "Haiti", "-f", "csv"}, base...)...)
	assert.Len(t, csvLines(out.stdout), 1+pipeline.DefaultCountryBins)

	_, err := execCLI(t, append([]string{"histogram", "--bins", "5000000"}, base...)...)
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput), "got %v", err)
}

func TestDescribeCommand(t *testing.T) {
	book := writeWorkbook(t)
	out := runCLI(t, "describe", "--column", "1980", "--source", book, "--first-year", "1980", "--last-year", "1981")
	for _, want := range []string{"count", "4", "max", "1666"} {
		assert.Contains(t, out.stdout, want)
	}
}

// =============================================================================
// Incidents
// =============================================================================

func TestIncidentCounts(t *testing.T) {
	path := writeIncidents(t)
	out := runCLI(t, "incidents", "counts", "--incidents", path, "--by", source.IncidentDistrict, "-f", "csv")
	assert.Equal(t, []string{"PdDistrict,Count", "SOUTHERN,2", "BAYVIEW,1"}, csvLines(out.stdout))
}

func TestIncidentMarkers(t *testing.T) {
	path := writeIncidents(t)
	out := runCLI(t, "incidents", "markers", "--incidents", path, "--limit", "2")

	var body struct {
		Center  [2]float64          `json:"center"`
		Markers []incidents.Marker `json:"markers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.stdout), &body))
	require.Len(t, body.Markers, 2)
	assert.Equal(t, "WEAPON LAWS", body.Markers[0].Label)
	assert.InDelta(t, 37.7757876218293, body.Center[0], 1e-9)
}

func TestClusterTable(t *testing.T) {
	tbl, err := clusterTable([]incidents.Cluster{
		{Lat: 37.7, Lng: -122.4, Count: 3, Labels: map[string]int{"B": 1, "A": 1, "C": 1}},
		{Lat: 37.8, Lng: -122.5, Count: 1, Labels: map[string]int{"Z": 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	top, err := tbl.Cell("1", "Top")
	require.NoError(t, err)
	assert.Equal(t, "A", top.Str())
}

// =============================================================================
// Reports
// =============================================================================

func TestReportSaveListShowDelete(t *testing.T) {
	book := writeWorkbook(t)
	dest := filepath.Join(t.TempDir(), "report.json")
	out := runCLI(t, "report", "--source", book, "--first-year", "1980", "--last-year", "1981",
		"--views", "top,totals", "--top-n", "2", "-o", dest, "--save")
	assert.Contains(t, out.status, "Saved snapshot")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var rep struct {
		Views []string `json:"views"`
	}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.ElementsMatch(t, []string{"top", "totals"}, rep.Views)

	list := runCLI(t, "reports", "list")
	id := idFromStatus(t, out.status)
	assert.Contains(t, list.stdout, id)

	shown := runCLI(t, "reports", "show", id)
	assert.JSONEq(t, string(data), shown.stdout)

	runCLI(t, "reports", "delete", id)
	_, err = execCLI(t, "reports", "show", id)
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound), "got %v", err)
}

func TestReportsShowRejectsBadID(t *testing.T) {
	_, err := execCLI(t, "reports", "show", "../etc/passwd")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput), "got %v", err)
}

func idFromStatus(t *testing.T, status string) string {
	t.Helper()
	for _, line := range strings.Split(status, "\n") {
		if i := strings.Index(line, "Saved snapshot "); i >= 0 {
			return strings.TrimSpace(line[i+len("Saved snapshot "):])
		}
	}
	t.Fatalf("no snapshot id in %q", status)
	return ""
}

func TestMetricsFile(t *testing.T) {
	book := writeWorkbook(t)
	metrics := filepath.Join(t.TempDir(), "widetable.prom")
	t.Cleanup(observability.Reset)
	runCLI(t, "normalize", "--source", book, "--first-year", "1980", "--last-year", "1981",
		"-f", "csv", "--metrics-file", metrics)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "widetable_")
}

// =============================================================================
// Helpers
// =============================================================================

func TestOutputFlagsResolve(t *testing.T) {
	tests := []struct {
		name    string
		flags   outputFlags
		want    string
		wantErr bool
	}{
		{"default", outputFlags{}, formatTable, false},
		{"explicit", outputFlags{format: "CSV"}, formatCSV, false},
		{"from extension", outputFlags{output: "out.json"}, formatJSON, false},
		{"flag beats extension", outputFlags{format: "csv", output: "out.json"}, formatCSV, false},
		{"xlsx file", outputFlags{output: "out.xlsx"}, formatXLSX, false},
		{"xlsx needs file", outputFlags{format: "xlsx"}, "", true},
		{"unknown", outputFlags{format: "yaml"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.resolve()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderBarsClampsNegative(t *testing.T) {
	out := renderBars([]string{"a", "b"}, []float64{-5, 10}, 10)
	lines := csvLines(out)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "█")
	assert.Equal(t, 10, strings.Count(lines[1], "█"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "42", formatFloat(42))
	assert.Equal(t, "0.50", formatFloat(0.5))
	assert.Equal(t, "—", formatValue(frame.Null()))
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "0.0.0.0:9000", displayAddr("0.0.0.0:9000"))
}

func TestCountryPicker(t *testing.T) {
	df, err := frame.NewBuilder(frame.ColCountry, frame.ColContinent, frame.ColTotal).
		Row("India", "Asia", int64(10)).
		Row("Iceland", "Europe", int64(1)).
		Row("Brazil", "Latin America and the Caribbean", int64(5)).
		Build()
	require.NoError(t, err)
	df, err = frame.SetIndex(df, frame.ColCountry)
	require.NoError(t, err)

	var m tea.Model = NewCountryPicker(df)
	send := func(msg tea.Msg) { m, _ = m.Update(msg) }

	send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("br")})
	send(tea.KeyMsg{Type: tea.KeySpace})
	send(tea.KeyMsg{Type: tea.KeyBackspace})
	send(tea.KeyMsg{Type: tea.KeyBackspace})
	send(tea.KeyMsg{Type: tea.KeyDown})
	send(tea.KeyMsg{Type: tea.KeySpace})
	send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"Brazil", "Iceland"}, m.(CountryPicker).Selected())
}

func TestCountryPickerCancel(t *testing.T) {
	df, err := frame.NewBuilder(frame.ColCountry, frame.ColContinent, frame.ColTotal).
		Row("India", "Asia", int64(10)).
		Build()
	require.NoError(t, err)
	df, err = frame.SetIndex(df, frame.ColCountry)
	require.NoError(t, err)

	var m tea.Model = NewCountryPicker(df)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.(CountryPicker).Selected())
}
