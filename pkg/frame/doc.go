// Package frame provides a small keyed table and the reshape operations
// used to turn a wide spreadsheet into analysis-ready shapes.
//
// # Overview
//
// A [Table] holds one row per entity (a country) and one column per
// observation (a year, a continent name, a derived total). Cells are
// dynamically typed [Value]s; column and row labels are [Label]s, which may
// be text or integers because spreadsheet headers often arrive as numbers.
//
// Every operation is a package function that takes a table and returns a
// new one. Inputs are never modified and results share no cell storage
// with them, so a pipeline is simply a chain of calls:
//
//	t, err := frame.Prune(raw, "AREA", "REG", "DEV", "Type", "Coverage")
//	t, err = frame.Rename(t, map[string]string{"OdName": "Country"})
//	t = frame.StringifyColumnLabels(t)
//	t, err = frame.SetIndex(t, "Country")
//	t, err = frame.AddRowSum(t, frame.YearLabels(1980, 2013), "Total")
//
// [Normalize] runs exactly these five stages from a [NormalizeSpec].
//
// # Addressing
//
// Columns are addressed by name and only text labels are addressable; call
// [StringifyColumnLabels] before referring to year columns. Rows are
// addressed by the string form of their key. Until [SetIndex] runs, keys
// are positions.
//
// # Schema
//
// A [Schema] declares the expected columns and their kinds. It is checked
// once at ingestion; later stages then fail only on structural problems
// (missing columns, duplicate keys) rather than on bad cells.
//
// # Errors
//
// Failures carry codes from pkg/errors: COLUMN_NOT_FOUND, ROW_NOT_FOUND,
// DUPLICATE_KEY, SCHEMA_MISMATCH and INVALID_INPUT.
package frame
