package delivery

// This file contains the client posting batches of test results to the
// Flaptastic ingestion endpoint.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every delivery request.
	DefaultTimeout = 5 * time.Second

	// TokenHeader carries the API token.
	TokenHeader = "Bearer"

	// maxLoggedBody caps how much of a rejected response ends up in the log.
	maxLoggedBody = 4096
)

// Client delivers result batches. It implements observer.Deliverer.
type Client struct {
	logger  zerolog.Logger
	config  model.RunConfig
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
	reg     prometheus.Registerer
	metrics *metrics
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithClock sets the function used to timestamp payloads.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRegisterer registers the delivery metrics with reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.reg = reg }
}

// New returns a Client for config.
func New(logger zerolog.Logger, config model.RunConfig, opts ...Option) *Client {
	c := &Client{
		logger:  logger,
		config:  config,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reg == nil {
		c.reg = prometheus.NewRegistry()
	}
	c.metrics = newMetrics(c.reg)
	return c
}

// Deliver posts records in a single request. Every failure is logged and
// absorbed; nothing is retried.
func (c *Client) Deliver(ctx context.Context, records []model.ResultRecord) {
	if missing := c.config.Missing(); len(missing) > 0 {
		c.metrics.attempts.WithLabelValues(ResultSkipped).Inc()
		c.logger.Debug().
			Strs("missing", missing).
			Int("results", len(records)).
			Msg("Skipping delivery, configuration incomplete")
		return
	}

	body, err := json.Marshal(c.payload(records))
	if err != nil {
		c.metrics.attempts.WithLabelValues(ResultFailed).Inc()
		c.logger.Warn().Err(err).Msg("Failed to encode test results for Flaptastic")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.config.IngestURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.metrics.attempts.WithLabelValues(ResultFailed).Inc()
		c.logger.Warn().Err(err).Str("url", url).Msg("Failed pushing results to Flaptastic")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, c.config.APIToken)

	c.logger.Debug().
		Str("url", url).
		Int("results", len(records)).
		Int("bytes", len(body)).
		Msg("Delivering test results")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.attempts.WithLabelValues(ResultFailed).Inc()
		c.logger.Warn().Err(err).Str("url", url).Msg("Failed pushing results to Flaptastic")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		c.metrics.attempts.WithLabelValues(ResultRejected).Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Failed sending test results to Flaptastic")
		return
	}

	c.metrics.attempts.WithLabelValues(ResultDelivered).Inc()
	c.metrics.delivered.Add(float64(len(records)))
	c.logger.Info().Int("results", len(records)).Msg("Test results uploaded to Flaptastic")
}

func (c *Client) payload(records []model.ResultRecord) model.Payload {
	if records == nil {
		records = []model.ResultRecord{}
	}
	return model.Payload{
		Branch:         c.config.Branch,
		CommitID:       c.config.CommitID,
		Link:           c.config.Link,
		OrganizationID: c.config.OrganizationID,
		Service:        c.config.Service,
		Timestamp:      c.now().Unix(),
		TestResults:    records,
	}
}
