package frame

import "fmt"

// Column names of the raw immigration sheet and the normalized table.
const (
	ColCountry   = "Country"
	ColContinent = "Continent"
	ColRegion    = "Region"
	ColTotal     = "Total"

	RawCountry   = "OdName"
	RawContinent = "AreaName"
	RawRegion    = "RegName"
)

// NoiseColumns are the raw sheet's code columns, dropped before anything else.
var NoiseColumns = []string{"AREA", "REG", "DEV", "Type", "Coverage"}

// NormalizeSpec drives [Normalize].
type NormalizeSpec struct {
	// Schema is checked against the raw table before the first stage.
	Schema Schema
	// Drop lists the columns removed by the prune stage.
	Drop []string
	// Rename maps raw column names to their normalized names.
	Rename map[string]string
	// Key is the column promoted to the row identity.
	Key string
	// Duplicates decides what happens to repeated keys.
	Duplicates DuplicatePolicy
	// Sum lists the (textual) columns added up into Total.
	Sum []string
	// Total names the derived sum column.
	Total string
}

// CanadaSchema declares the raw immigration sheet: the three name columns
// as text, the noise columns by presence and one non-negative integer count
// per year.
func CanadaSchema(first, last int) Schema {
	s := Schema{
		{Name: RawCountry, Kind: KindText},
		{Name: RawContinent, Kind: KindText},
		{Name: RawRegion, Kind: KindText},
	}
	for _, c := range NoiseColumns {
		s = append(s, Field{Name: c})
	}
	for _, y := range YearLabels(first, last) {
		s = append(s, Field{Name: y, Kind: KindInt, NonNegative: true})
	}
	return s
}

// DefaultNormalizeSpec returns the canonical recipe for the immigration
// sheet covering years first..last.
func DefaultNormalizeSpec(first, last int) NormalizeSpec {
	return NormalizeSpec{
		Schema: CanadaSchema(first, last),
		Drop:   append([]string(nil), NoiseColumns...),
		Rename: map[string]string{
			RawCountry:   ColCountry,
			RawContinent: ColContinent,
			RawRegion:    ColRegion,
		},
		Key:   ColCountry,
		Sum:   YearLabels(first, last),
		Total: ColTotal,
	}
}

// Normalize runs the five canonical stages in order: prune, rename,
// stringify column labels, set index and add the row total. Each stage
// returns a fresh table; raw is never modified.
func Normalize(raw *Table, spec NormalizeSpec) (*Table, error) {
	if spec.Schema != nil {
		if err := spec.Schema.Check(raw); err != nil {
			return nil, err
		}
	}
	t, err := Prune(raw, spec.Drop...)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	if t, err = Rename(t, spec.Rename); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	t = StringifyColumnLabels(t)
	if spec.Key != "" {
		if t, err = SetIndexWithPolicy(t, spec.Key, spec.Duplicates); err != nil {
			return nil, fmt.Errorf("set index: %w", err)
		}
	}
	if spec.Total != "" {
		if t, err = AddRowSum(t, spec.Sum, spec.Total); err != nil {
			return nil, fmt.Errorf("row sum: %w", err)
		}
	}
	return t, nil
}
