// Package pkg holds the widetable libraries.
//
// # Overview
//
// widetable turns the UN "Immigration to Canada 1980-2013" workbook into a
// country-indexed table and derives the views that chart and map renderers
// consume. The packages are organized into three areas:
//
//  1. Table and statistics: [frame] (labelled tables, reshaping, grouping,
//     selection) and [series] (normalization, regression, quantiles,
//     histograms)
//  2. Data plumbing: [source] (workbook and incident CSV readers),
//     [cache], [storage], [io] (CSV, JSON and XLSX export) and [httputil]
//  3. Orchestration: [pipeline] (load → normalize → report) and
//     [incidents] (map markers and clusters)
//
// # Data Flow
//
//	Canada.xlsx (URL or path)
//	         ↓
//	    [source] (read sheet, trim banner and footer)
//	         ↓
//	    [frame.Normalize] (drop, rename, index, Total)
//	         ↓
//	    [pipeline] views (top, continents, decades, totals, ...)
//	         ↓
//	    JSON report, XLSX workbook, HTTP API
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{Source: "Canada.xlsx"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.Thresholds)
//
// Errors carry a machine-readable code from [errors]; use errors.Is(err,
// code) style checks via errs.Is.
package pkg
