package rota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeFetcher returns canned rows per URL.
type fakeFetcher struct {
	mu    sync.Mutex
	rows  map[string][]RawRow
	delay map[string]time.Duration
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) []RawRow {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	d := f.delay[url]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	return f.rows[url]
}

// barrierFetcher blocks every Fetch until n calls are in flight at once.
type barrierFetcher struct {
	n       int
	mu      sync.Mutex
	started int
	ready   chan struct{}
	rows    map[string][]RawRow
	runIDs  []string
}

func newBarrierFetcher(n int, rows map[string][]RawRow) *barrierFetcher {
	return &barrierFetcher{n: n, ready: make(chan struct{}), rows: rows}
}

func (f *barrierFetcher) Fetch(ctx context.Context, url string) []RawRow {
	f.mu.Lock()
	f.started++
	f.runIDs = append(f.runIDs, RunID(ctx))
	if f.started == f.n {
		close(f.ready)
	}
	f.mu.Unlock()

	select {
	case <-f.ready:
		return f.rows[url]
	case <-time.After(2 * time.Second):
		return nil
	}
}

func shift(date, volunteers string) RawRow {
	return NewRawRow(
		"Date", date,
		"Shift Instructions", "Arrive 8:30",
		"Volunteers Confirmed", volunteers,
	)
}

func TestAggregate_MergesInSourceOrder(t *testing.T) {
	f := &fakeFetcher{
		rows: map[string][]RawRow{
			"a": {shift("Mon", "Ann (Optometrist)"), shift("Tue", "")},
			"b": {shift("Wed", "Ann (Optometrist), Bob (Assistant)")},
		},
		// b finishes first; output must still follow source order
		delay: map[string]time.Duration{"a": 20 * time.Millisecond},
	}

	records, err := NewAggregator(f, []string{"a", "b"}).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	wantDates := []string{"Mon", "Tue", "Wed"}
	wantStatus := []Status{StatusInProgress, StatusRecruiting, StatusRunning}
	if len(records) != len(wantDates) {
		t.Fatalf("Aggregate() returned %d records, want %d", len(records), len(wantDates))
	}
	for i, rec := range records {
		if got := rec.Row.Value("Date"); got != wantDates[i] {
			t.Errorf("records[%d] Date = %q, want %q", i, got, wantDates[i])
		}
		if rec.Status != wantStatus[i] {
			t.Errorf("records[%d] Status = %q, want %q", i, rec.Status, wantStatus[i])
		}
		if _, ok := rec.Row.Get(ColumnShiftInstructions); ok {
			t.Errorf("records[%d] still has Shift Instructions", i)
		}
	}
}

func TestAggregate_DeduplicatesAcrossSources(t *testing.T) {
	dup := shift("Mon", "Ann (Optometrist)")
	f := &fakeFetcher{
		rows: map[string][]RawRow{
			"a": {dup, shift("Tue", "")},
			"b": {dup.Clone(), shift("Wed", "")},
		},
	}

	records, err := NewAggregator(f, []string{"a", "b"}).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Aggregate() returned %d records, want 3", len(records))
	}
	if got := records[0].Row.Value("Date"); got != "Mon" {
		t.Errorf("first record Date = %q, want Mon (first occurrence kept)", got)
	}
}

func TestAggregate_DedupUsesInstructionsColumn(t *testing.T) {
	// Rows differing only in Shift Instructions are distinct before stripping.
	a := shift("Mon", "")
	b := shift("Mon", "")
	b.Set(ColumnShiftInstructions, "Arrive 9:00")

	f := &fakeFetcher{rows: map[string][]RawRow{"a": {a, b}}}

	records, err := NewAggregator(f, []string{"a"}).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Aggregate() returned %d records, want 2", len(records))
	}
}

func TestAggregate_AllSourcesEmpty(t *testing.T) {
	f := &fakeFetcher{rows: map[string][]RawRow{}}

	records, err := NewAggregator(f, []string{"a", "b"}).Aggregate(context.Background())
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Errorf("Aggregate() error = %v, want ErrNoDataAvailable", err)
	}
	if records != nil {
		t.Errorf("Aggregate() records = %v, want nil", records)
	}
	if len(f.calls) != 2 {
		t.Errorf("fetcher called %d times, want 2", len(f.calls))
	}
}

func TestAggregate_NoSources(t *testing.T) {
	_, err := NewAggregator(&fakeFetcher{}, nil).Aggregate(context.Background())
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Errorf("Aggregate() error = %v, want ErrNoDataAvailable", err)
	}
}

func TestAggregate_PartialFailure(t *testing.T) {
	rows := make([]RawRow, 0, 5)
	for _, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri"} {
		rows = append(rows, shift(d, "Jane (Assistant)"))
	}
	f := &fakeFetcher{rows: map[string][]RawRow{"a": rows}}

	records, err := NewAggregator(f, []string{"a", "b"}).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(records) != 5 {
		t.Errorf("Aggregate() returned %d records, want 5", len(records))
	}
	for _, rec := range records {
		if rec.Status != StatusInProgress {
			t.Errorf("Status = %q, want %q", rec.Status, StatusInProgress)
		}
	}
}

func TestNewAggregator_CopiesSources(t *testing.T) {
	sources := []string{"a", "b"}
	agg := NewAggregator(&fakeFetcher{}, sources)
	sources[0] = "changed"

	if got := agg.Sources()[0]; got != "a" {
		t.Errorf("Sources()[0] = %q, want a", got)
	}
}

func TestAggregate_FetchesConcurrently(t *testing.T) {
	sources := []string{"a", "b", "c", "d"}
	rows := map[string][]RawRow{}
	for _, src := range sources {
		rows[src] = []RawRow{shift(src, "TBC")}
	}
	f := newBarrierFetcher(len(sources), rows)

	records, err := NewAggregator(f, sources).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	select {
	case <-f.ready:
	default:
		t.Fatal("fetches did not overlap; sources were fetched one at a time")
	}
	if len(records) != len(sources) {
		t.Errorf("Aggregate() returned %d records, want %d", len(records), len(sources))
	}
}

func TestAggregate_SlowSourceAfterEmptyFastSource(t *testing.T) {
	f := &fakeFetcher{
		rows: map[string][]RawRow{
			"slow": {shift("Mon", "Ann (Optometrist), Bob (Assistant)")},
		},
		delay: map[string]time.Duration{"slow": 50 * time.Millisecond},
	}

	records, err := NewAggregator(f, []string{"fast", "slow"}).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Aggregate() returned %d records, want 1", len(records))
	}
	if date, _ := records[0].Row.Get("Date"); date != "Mon" {
		t.Errorf("Date = %q, want Mon", date)
	}
	if records[0].Status != StatusRunning {
		t.Errorf("Status = %q, want %q", records[0].Status, StatusRunning)
	}
}

func TestAggregate_PassesRunID(t *testing.T) {
	f := newBarrierFetcher(2, map[string][]RawRow{"a": {shift("Mon", "TBC")}})

	if _, err := NewAggregator(f, []string{"a", "b"}).Aggregate(context.Background()); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(f.runIDs) != 2 {
		t.Fatalf("got %d fetches, want 2", len(f.runIDs))
	}
	if f.runIDs[0] == "" || f.runIDs[0] != f.runIDs[1] {
		t.Errorf("run ids = %q, want one shared non-empty id", f.runIDs)
	}
}

func TestRunID(t *testing.T) {
	if got := RunID(context.Background()); got != "" {
		t.Errorf("RunID() = %q, want empty", got)
	}
	if got := RunID(WithRunID(context.Background(), "run-1")); got != "run-1" {
		t.Errorf("RunID() = %q, want run-1", got)
	}
}
