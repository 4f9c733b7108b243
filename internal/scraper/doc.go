// Package scraper provides HTTP fetching and HTML table parsing for rota pages.
//
// A Fetcher downloads one source page with a bounded timeout and a browser-like
// User-Agent, and hands the body to an Extractor which converts the first table on
// the page into rota.RawRow values keyed by header text. Transport failures, non-200
// responses and pages without a table all degrade to an empty result so that one
// broken source cannot take down the merged rota.
package scraper
