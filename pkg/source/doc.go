// Package source loads the raw datasets into [frame.Table] values.
//
// [ReadCanada] parses the UN "Canada by Citizenship" workbook: 20 banner
// rows, a header row whose year cells become numeric labels, one row per
// origin country and two footer rows. [ReadIncidents] parses the San
// Francisco police incident CSV and keeps the first rows only.
//
// [Fetcher] turns a location into bytes. Local paths are read directly;
// URLs are downloaded with retry and cached under the source key.
//
//	f := source.NewFetcher(fileCache, nil, nil)
//	raw, _, err := f.LoadCanada(ctx, source.CanadaURL, source.CanadaSheetOptions())
package source
