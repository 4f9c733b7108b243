package rota

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/rota-merge/internal/logger"
)

// ErrNoDataAvailable is returned when every configured source yielded zero rows.
var ErrNoDataAvailable = errors.New("no data available from any source")

type runIDKey struct{}

// WithRunID returns a copy of ctx carrying an aggregation run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the aggregation run id carried by ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Fetcher retrieves the rows published at one source URL.
// Implementations absorb transport failures and return an empty slice instead.
type Fetcher interface {
	Fetch(ctx context.Context, url string) []RawRow
}

// Aggregator merges rota tables from a fixed list of sources.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	fetcher Fetcher
	sources []string
}

// NewAggregator creates an Aggregator over sources. The slice is copied.
func NewAggregator(fetcher Fetcher, sources []string) *Aggregator {
	s := make([]string, len(sources))
	copy(s, sources)
	return &Aggregator{
		fetcher: fetcher,
		sources: s,
	}
}

// Sources returns the configured source URLs.
func (a *Aggregator) Sources() []string {
	s := make([]string, len(a.sources))
	copy(s, a.sources)
	return s
}

// Aggregate fetches every source concurrently, waits for all of them, then
// deduplicates, strips and classifies the combined rows.
// Returns ErrNoDataAvailable when no source produced any row.
func (a *Aggregator) Aggregate(ctx context.Context) ([]Record, error) {
	runID := uuid.NewString()
	ctx = WithRunID(ctx, runID)
	start := time.Now()

	logger.Info("Aggregating rota sources", logger.Fields{
		"run_id":  runID,
		"sources": len(a.sources),
	})

	results := a.fetchAll(ctx)

	total := 0
	for _, rows := range results {
		total += len(rows)
	}
	if total == 0 {
		logger.IncrCounter("aggregate.no_data")
		logger.Error("No data fetched from any source", logger.Fields{
			"run_id":  runID,
			"sources": a.sources,
		}, ErrNoDataAvailable)
		return nil, ErrNoDataAvailable
	}

	merged := make([]RawRow, 0, total)
	for _, rows := range results {
		merged = append(merged, rows...)
	}

	// Dedup must run on the raw rows, before Status is added.
	unique := Dedup(merged)

	records := make([]Record, 0, len(unique))
	for _, row := range unique {
		records = append(records, NewRecord(row))
	}

	elapsed := time.Since(start)
	logger.RecordTiming("aggregate.duration", elapsed)
	logger.SetGauge("aggregate.records", float64(len(records)))
	logger.Info("Aggregated rota", logger.Fields{
		"run_id":     runID,
		"rows":       total,
		"duplicates": total - len(unique),
		"records":    len(records),
		"duration":   elapsed.String(),
	})

	return records, nil
}

// fetchAll runs one fetch per source and returns results in source order.
// A slow source never cancels a fast one.
func (a *Aggregator) fetchAll(ctx context.Context) [][]RawRow {
	results := make([][]RawRow, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i] = a.fetcher.Fetch(ctx, src)
		}(i, src)
	}
	wg.Wait()

	return results
}
