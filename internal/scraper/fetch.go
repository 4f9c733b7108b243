package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/rota-merge/internal/logger"
	"github.com/pfrederiksen/rota-merge/internal/rota"
)

const (
	// UserAgent is browser-like; the rota host rejects unidentified clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	Timeout   = 10 * time.Second

	maxBodySize = 5 << 20 // 5MB
)

// Fetcher downloads rota pages and extracts their table rows.
type Fetcher struct {
	client    *http.Client
	extractor *Extractor
	userAgent string
	timeout   time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithExtractor sets the table extractor.
func WithExtractor(e *Extractor) Option {
	return func(f *Fetcher) {
		if e != nil {
			f.extractor = e
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// New creates a new Fetcher instance
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		extractor: NewExtractor(DefaultTableSelector),
		userAgent: UserAgent,
		timeout:   Timeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and returns the rows of its first table.
//
// Fetch never fails: a transport error, a non-200 status or a page without a
// table is logged and yields an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, url string) []rota.RawRow {
	start := time.Now()
	logger.Info("Fetching rota", f.fields(ctx, logger.Fields{"url": url}))

	rows, status, err := f.fetch(ctx, url)
	elapsed := time.Since(start)
	logger.RecordTiming("fetch.duration", elapsed)

	if err != nil {
		logger.IncrCounter("fetch.failure")
		logger.Error("Failed to fetch rota", f.fields(ctx, logger.Fields{
			"url":         url,
			"status_code": status,
			"duration":    elapsed.String(),
		}), err)
		return []rota.RawRow{}
	}

	logger.IncrCounter("fetch.success")
	logger.AddCounter("fetch.rows", int64(len(rows)))

	if len(rows) == 0 {
		logger.Warn("No table rows found on page", f.fields(ctx, logger.Fields{
			"url":      url,
			"selector": f.extractor.Selector(),
		}))
		return rows
	}

	logger.Info("Fetched rota", f.fields(ctx, logger.Fields{
		"url":         url,
		"status_code": status,
		"rows":        len(rows),
		"duration":    elapsed.String(),
	}))
	return rows
}

// fields adds the aggregation run id, if ctx carries one.
func (f *Fetcher) fields(ctx context.Context, fields logger.Fields) logger.Fields {
	if id := rota.RunID(ctx); id != "" {
		fields["run_id"] = id
	}
	return fields
}

// fetch performs the request and parses the body. It returns the HTTP status
// code alongside any error so failures can be logged with it.
func (f *Fetcher) fetch(ctx context.Context, url string) ([]rota.RawRow, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	rows, err := f.extractor.ExtractReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return rows, resp.StatusCode, nil
}
