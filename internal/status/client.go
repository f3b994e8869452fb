package status

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/model"
)

// Path is the status endpoint relative to the page base path.
const Path = "/api/status"

// Client fetches execution-history status from a backend. Every failure it
// returns is a *model.ServerError, *model.NoResponse or *model.ClientError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves the client without a timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the page at baseURL; requests go to
// baseURL + "/api/status".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the status endpoint URL.
func (c *Client) URL() string {
	return strings.TrimRight(c.baseURL, "/") + Path
}

// FetchStatus performs one GET of the status endpoint. No retries.
func (c *Client) FetchStatus(ctx context.Context) (*model.StatusSnapshot, error) {
	endpoint := c.URL()
	if err := validateURL(endpoint); err != nil {
		return nil, &model.ClientError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.ClientError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching status", logging.Field("url", endpoint))
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("status request got no response", logging.Field("url", endpoint), logging.ErrorField(err))
		return nil, &model.NoResponse{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading status response failed", logging.Field("url", endpoint), logging.ErrorField(err))
		return nil, &model.NoResponse{Err: fmt.Errorf("reading status response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("status request failed",
			logging.Field("url", endpoint),
			logging.Field("status", resp.StatusCode))
		return nil, &model.ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var snapshot model.StatusSnapshot
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&snapshot); err != nil {
		c.logger.Warn("decoding status response failed",
			logging.Field("url", endpoint),
			logging.Field("status", resp.StatusCode),
			logging.ErrorField(err))
		return nil, &model.ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	c.logger.Debug("status fetched",
		logging.Field("live", len(snapshot.LiveExecutions)),
		logging.Field("past", len(snapshot.PastExecutions)),
		logging.Field("remaining_capacity", snapshot.RemainingCapacity),
		logging.Field("elapsed", time.Since(started)))
	return &snapshot, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported protocol scheme %q in %s", u.Scheme, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %s", raw)
	}
	return nil
}
