package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndanaka/chatflow/pkg/ports"
)

const defaultCollectURL = "https://www.google-analytics.com/collect"

// GoogleAnalytics implements ports.AnalyticsClient using the Universal
// Analytics measurement protocol.
type GoogleAnalytics struct {
	client     *resty.Client
	collectURL string
}

// AnalyticsOption configures the client.
type AnalyticsOption func(*GoogleAnalytics)

// WithCollectURL overrides the collect endpoint (tests).
func WithCollectURL(url string) AnalyticsOption {
	return func(g *GoogleAnalytics) {
		g.collectURL = url
	}
}

// WithAnalyticsHTTPClient overrides the HTTP client.
func WithAnalyticsHTTPClient(client *resty.Client) AnalyticsOption {
	return func(g *GoogleAnalytics) {
		g.client = client
	}
}

// NewGoogleAnalytics creates a measurement protocol client.
func NewGoogleAnalytics(opts ...AnalyticsOption) *GoogleAnalytics {
	g := &GoogleAnalytics{
		client:     resty.New().SetTimeout(10 * time.Second),
		collectURL: defaultCollectURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Track implements ports.AnalyticsClient.
func (g *GoogleAnalytics) Track(ctx context.Context, event ports.AnalyticsEvent) error {
	params := map[string]string{
		"v":   "1",
		"tid": event.TrackingID,
		"cid": "555", // anonymous client id; results are not user-tracked
		"t":   "event",
		"ec":  event.Category,
		"ea":  event.Action,
	}
	if event.Label != "" {
		params["el"] = event.Label
	}
	if event.Value != "" {
		params["ev"] = event.Value
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(params).
		Post(g.collectURL)
	if err != nil {
		return fmt.Errorf("track event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("track event: collect returned %s", resp.Status())
	}
	return nil
}
