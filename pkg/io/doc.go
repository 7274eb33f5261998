// Package io reads and writes tables in JSON, CSV and XLSX.
//
// # JSON Format
//
// Tables use the "split" layout, which keeps labels apart from cells so
// that numeric year labels, row keys and nulls survive a round trip:
//
//	{
//	  "index_name": "Country",
//	  "columns": ["Continent", "1980", "Total"],
//	  "index": ["Haiti", "Japan"],
//	  "data": [
//	    ["Latin America and the Caribbean", 1666, 5358],
//	    ["Asia", 701, null]
//	  ]
//	}
//
// Labels are strings or integers. Cells are strings, numbers or null;
// floats that happen to be integral are written with a ".0" suffix so
// that they decode back as floats.
//
// # Import
//
// Use [ImportJSON] to read a table from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	df, err := io.ImportJSON("canada.json")
//
// # Export
//
// [WriteJSON] and [ExportJSON] are the inverse. [WriteCSV] writes a header
// row followed by one line per row, with the index as the first column
// when the table has one. [WriteXLSX] and [ExportXLSX] put several tables
// into one workbook, one worksheet per [Sheet]:
//
//	err := io.ExportXLSX("report.xlsx",
//	    io.Sheet{Name: "top5", Table: top},
//	    io.Sheet{Name: "continents", Table: cont},
//	)
//
// Sheet names follow Excel's rules (31 characters, no []:*?/\).
package io
