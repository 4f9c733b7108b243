// Package cli implements the command-line interface for rota-merge.
//
// The cli package provides the Cobra-based CLI: serve runs the HTTP API, fetch
// runs one aggregation and prints the merged rota as text or JSON, validate checks
// a config file and version prints build information. It wires the config,
// scraper, rota and server packages together.
package cli
