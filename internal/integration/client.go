// Package integration calls the external services driven by batch events:
// the OpenAIRE harvester, the analytics view importer and the DOI registry.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// ViewKind selects the aggregate whose view counters are imported.
type ViewKind string

// View kinds.
const (
	ViewsDeposits    ViewKind = "deposits"
	ViewsCommunities ViewKind = "communities"
	ViewsReviews     ViewKind = "reviews"
)

// Config holds the service endpoints. An empty URL disables the matching call.
type Config struct {
	HarvesterURL  string
	AnalyticsURL  string
	DOIServiceURL string
	Timeout       time.Duration
}

// Client posts jobs to the integration services.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

type job struct {
	Job         string    `json:"job"`
	Kind        string    `json:"kind,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Harvest starts a harvesting run.
func (c *Client) Harvest(ctx context.Context) error {
	return c.post(ctx, "harvest", c.config.HarvesterURL, job{Job: "harvest"})
}

// ImportViews imports the view counters of one aggregate kind.
func (c *Client) ImportViews(ctx context.Context, kind ViewKind) error {
	return c.post(ctx, "import_views", c.config.AnalyticsURL, job{Job: "import_views", Kind: string(kind)})
}

// RefreshPending asks the DOI service to refresh every pending registration.
func (c *Client) RefreshPending(ctx context.Context) error {
	return c.post(ctx, "doi_refresh", c.config.DOIServiceURL, job{Job: "refresh_pending"})
}

func (c *Client) post(ctx context.Context, name, url string, body job) error {
	logger := c.logger.With(slog.String("integration", name), slog.String("kind", body.Kind))
	if url == "" {
		logger.Info("integration disabled, skipping")
		return nil
	}

	body.RequestedAt = time.Now().UTC()
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode integration job")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, "failed to create integration request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrUnavailable, "%s request failed: %v", name, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", slog.Any("error", closeErr))
		}
	}()

	// Read response body (limit to 1KB to keep error messages short)
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("integration call failed",
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return fmt.Errorf("%s returned %d: %s", name, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	logger.Info("integration call succeeded",
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
