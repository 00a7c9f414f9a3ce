package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

const defaultFetchTimeout = 3 * time.Second

// Relay fetches records over HTTP from one or more relay endpoints. Each
// relay receives the query as a JSON POST and answers with a JSON array of
// raw records.
type Relay struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// RelayOption applies a configuration option to the relay client.
type RelayOption func(*Relay)

// WithHTTPClient injects the underlying HTTP client. Tests point this at
// httptest servers.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(r *Relay) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout bounds each fetch. The deadline covers all relays together,
// not each one separately.
func WithTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) RelayOption {
	return func(r *Relay) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRelay creates a relay client for the given endpoint URLs.
func NewRelay(urls []string, opts ...RelayOption) *Relay {
	r := &Relay{
		urls:    urls,
		client:  &http.Client{},
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("source")
	}
	return r
}

// Fetch queries every configured relay and concatenates their answers.
// Relay failures are logged and skipped: a slow or dead relay degrades the
// result to fewer records, never to an error, even when every relay failed.
func (r *Relay) Fetch(ctx context.Context, q Query) ([]model.RawRecord, error) {
	if len(r.urls) == 0 {
		return nil, ErrNoRelays
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	start := time.Now()
	var records []model.RawRecord
	failures := 0
	for _, url := range r.urls {
		batch, err := r.fetchOne(ctx, url, body)
		if err != nil {
			failures++
			metrics.RecordFetchError(url)
			r.log.Warn(ctx, "relay fetch failed",
				logger.String("relay", url),
				logger.Error(err))
			continue
		}
		records = append(records, batch...)
	}
	metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))

	if failures == len(r.urls) {
		r.log.Warn(ctx, "no relay answered; continuing with zero records",
			logger.Int("relays", failures))
	}
	metrics.RecordFetched(len(records))
	return records, nil
}

func (r *Relay) fetchOne(ctx context.Context, url string, body []byte) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var records []model.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return records, nil
}
