package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-cluster-service/internal/config"
	"github.com/couchcryptid/quake-cluster-service/internal/domain"
	"github.com/couchcryptid/quake-cluster-service/internal/observability"
)

// Client fetches the rolling event window from a USGS-style GeoJSON feed.
// It implements pipeline.EventFetcher.
type Client struct {
	feedURL    string
	window     time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client from the service configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feedURL: cfg.FeedURL,
		window:  cfg.FeedWindow,
		httpClient: &http.Client{
			Timeout: cfg.FeedTimeout,
		},
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchWindow retrieves and decodes the current feed document. A failure here
// aborts the caller's whole run; no partial result is ever returned. Events
// older than the configured window relative to now are dropped, since some
// feeds trail a little beyond their advertised span.
func (c *Client) FetchWindow(ctx context.Context) ([]domain.QuakeEvent, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch quake feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("quake feed: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read quake feed: %w", err)
	}

	events, skipped, err := domain.ParseFeed(data)
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if skipped > 0 {
		c.metrics.MalformedEvents.Add(float64(skipped))
		c.logger.Warn("dropped malformed feed features", "count", skipped)
	}

	events = c.filterWindow(events)

	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	c.metrics.FeedDuration.Observe(time.Since(start).Seconds())
	c.metrics.EventsFetched.Add(float64(len(events)))
	return events, nil
}

func (c *Client) filterWindow(events []domain.QuakeEvent) []domain.QuakeEvent {
	if c.window <= 0 {
		return events
	}
	cutoff := c.clock.Now().Add(-c.window).UnixMilli()
	kept := events[:0]
	for _, e := range events {
		if e.TimeMs >= cutoff {
			kept = append(kept, e)
		}
	}
	return kept
}
