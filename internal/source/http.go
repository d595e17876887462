package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-padel-metrics/internal/model"
)

// HTTPOptions tunes the retrying client.
type HTTPOptions struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultHTTPOptions mirror the config defaults.
var DefaultHTTPOptions = HTTPOptions{
	Timeout:      30 * time.Second,
	Retries:      3,
	RetryWaitMin: 500 * time.Millisecond,
	RetryWaitMax: 5 * time.Second,
}

// HTTPCSV fetches a CSV over HTTP, e.g. a spreadsheet published as CSV.
type HTTPCSV struct {
	URL    string
	client *retryablehttp.Client
}

// NewHTTPCSV builds an HTTP source. Zero option fields take the defaults.
func NewHTTPCSV(url string, opts HTTPOptions, log logrus.FieldLogger) *HTTPCSV {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultHTTPOptions.Timeout
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = DefaultHTTPOptions.RetryWaitMax
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.Retries
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.Logger = nil
	if log != nil {
		client.Logger = leveledLogger{log}
	}
	return &HTTPCSV{URL: url, client: client}
}

func (h *HTTPCSV) ID() string { return h.URL }

func (h *HTTPCSV) Rows(ctx context.Context) ([]model.RawRow, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: unexpected status %s", h.URL, resp.Status)
	}
	return ParseCSV(resp.Body)
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(kv []interface{}) logrus.FieldLogger {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.log.WithFields(f)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }

var _ retryablehttp.LeveledLogger = leveledLogger{}
