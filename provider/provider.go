// Package provider implements the Provider Fetcher (spec §4.H): retrieval
// of primary-key tuples from remote URL prefixes serving text/uri-list or
// text/csv feeds, composing per-schema URLs from a schema_prefix and
// bounding concurrency via a worker pool.
package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrFetchFailed wraps a persistent failure retrieving a provider feed
// after retries are exhausted (spec §7, ProviderFetchError).
var ErrFetchFailed = errors.New("provider fetch failed")

// Request describes one (provider URL prefix, schema id) pairing to
// resolve into a concrete feed URL and fetch.
type Request struct {
	// SchemaID is the schema this fetch is populating a PK declaration
	// for; used only to label results and errors.
	SchemaID string
	// Prefix is one of the primary_key declaration's provider URL
	// prefixes.
	Prefix string
	// SchemaPrefix, if it is a prefix of SchemaID, is trimmed from
	// SchemaID before appending the remainder to Prefix; otherwise the
	// full SchemaID is appended verbatim (spec §4.H).
	SchemaPrefix string
	// Accept is the MIME type requested; defaults to text/uri-list.
	Accept string
}

// URL computes the concrete feed URL for a Request.
func (r Request) URL() string {
	suffix := r.SchemaID
	if r.SchemaPrefix != "" && strings.HasPrefix(r.SchemaID, r.SchemaPrefix) {
		suffix = r.SchemaID[len(r.SchemaPrefix):]
	}

	return r.Prefix + suffix
}

func (r Request) accept() string {
	if r.Accept == "" {
		return "text/uri-list"
	}

	return r.Accept
}

// Result holds the 1-tuples parsed from a single Request's feed.
type Result struct {
	Request Request
	Values  []string
}

// Fetcher issues provider requests with bounded concurrency and retries.
type Fetcher struct {
	Client      *http.Client
	Concurrency int
	MaxRetries  int
	BaseBackoff time.Duration
}

// New constructs a Fetcher with the given concurrency cap (spec §5: default
// 8) and an http.Client carrying a sane per-request timeout.
func New(concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = 8
	}

	return &Fetcher{
		Client:      &http.Client{Timeout: 30 * time.Second},
		Concurrency: concurrency,
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
	}
}

// FetchAll issues every request concurrently, bounded by f.Concurrency,
// and returns one Result per request in the same order. A request that
// ultimately fails yields an error at its index; callers decide per spec
// §7 whether a prior cached copy downgrades this to a warning.
func (f *Fetcher) FetchAll(ctx context.Context, requests []Request) ([]Result, []error) {
	results := make([]Result, len(requests))
	errs := make([]error, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			res, err := f.fetchOne(ctx, req)
			results[i] = res
			errs[i] = err

			return nil // collect per-request errors, don't abort the group
		})
	}
	_ = g.Wait()

	return results, errs
}

func (f *Fetcher) fetchOne(ctx context.Context, req Request) (Result, error) {
	url := req.URL()

	var lastErr error
	for attempt := 0; attempt <= f.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.BaseBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		values, err := f.fetchOnce(ctx, url, req.accept())
		if err == nil {
			return Result{Request: req, Values: values}, nil
		}

		lastErr = err
		var he *httpStatusError
		if errors.As(err, &he) && he.Status >= 400 && he.Status < 500 {
			// HTTP 4xx is fatal for this URL; retrying cannot help.
			break
		}
	}

	return Result{Request: req}, fmt.Errorf("%w: %s: %w", ErrFetchFailed, url, lastErr)
}

type httpStatusError struct {
	Status int
}

func (e *httpStatusError) Error() string { return fmt.Sprintf("http status %d", e.Status) }

func (f *Fetcher) fetchOnce(ctx context.Context, url, accept string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpStatusError{Status: resp.StatusCode}
	}

	return parseBody(resp.Body, contentType(resp, accept))
}

func contentType(resp *http.Response, requested string) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = ct[:i]
		}

		return strings.TrimSpace(ct)
	}

	return requested
}

func parseBody(r io.Reader, mime string) ([]string, error) {
	switch mime {
	case "text/csv":
		return parseCSV(r)
	default:
		return parseURIList(r)
	}
}

// parseURIList parses a text/uri-list body: one URI per non-comment,
// non-blank line (RFC 2483).
func parseURIList(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}

	return out, nil
}

// parseCSV parses a text/csv body, taking the first column of each row.
func parseCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		out = append(out, record[0])
	}

	return out, nil
}
