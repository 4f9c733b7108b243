package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/rota-merge/internal/rota"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Sources   []string            `json:"sources"`
	Records   []rota.Record       `json:"data"`
	Count     int                 `json:"count"`
	ByStatus  map[rota.Status]int `json:"by_status"`
}

// NewOutputResult builds an OutputResult and tallies records per status.
func NewOutputResult(fetchedAt time.Time, sources []string, records []rota.Record) *OutputResult {
	byStatus := map[rota.Status]int{
		rota.StatusRunning:    0,
		rota.StatusInProgress: 0,
		rota.StatusRecruiting: 0,
	}
	for _, rec := range records {
		byStatus[rec.Status]++
	}
	return &OutputResult{
		FetchedAt: fetchedAt,
		Sources:   sources,
		Records:   records,
		Count:     len(records),
		ByStatus:  byStatus,
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as an aligned table
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if verbose {
		fmt.Fprintf(w, "Fetched at %s from %d sources:\n", result.FetchedAt.Format(time.RFC3339), len(result.Sources))
		for _, src := range result.Sources {
			fmt.Fprintf(w, "  %s\n", src)
		}
		fmt.Fprintln(w)
	}

	if result.Count == 0 {
		fmt.Fprintln(w, "No shifts found.")
		return nil
	}

	columns := rota.Columns(result.Records)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	for _, rec := range result.Records {
		for i, c := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, rec.Row.Value(c))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d shifts", result.Count)
	if verbose {
		fmt.Fprintf(w, " (%s: %d, %s: %d, %s: %d)",
			rota.StatusRunning, result.ByStatus[rota.StatusRunning],
			rota.StatusInProgress, result.ByStatus[rota.StatusInProgress],
			rota.StatusRecruiting, result.ByStatus[rota.StatusRecruiting])
	}
	fmt.Fprintln(w)
	return nil
}
