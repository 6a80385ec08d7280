package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"surgly/internal/domain"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"golang.org/x/time/rate"
)

const insightsFields = "campaign_id,campaign_name,impressions,clicks,spend,ctr,cpc,purchase_roas"

// implements domain.InsightsClient against the Graph API insights edge
type InsightsClient struct {
	client      *http.Client
	baseURL     string
	accessToken string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// creates a new insights client
func NewInsightsClient(baseURL, accessToken string, timeout time.Duration, limiter *rate.Limiter, logger *logger.Logger, metrics *metrics.Metrics) *InsightsClient {
	return &InsightsClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: limiter,
	}
}

// fetches campaign-level insights for one campaign
func (c *InsightsClient) FetchCampaignInsights(ctx context.Context, campaignID string) (*domain.CampaignInsights, error) {
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure("insights", "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	query := url.Values{}
	query.Set("fields", insightsFields)
	query.Set("level", "campaign")
	if c.accessToken != "" {
		query.Set("access_token", c.accessToken)
	}
	endpoint := fmt.Sprintf("%s/%s/insights?%s", c.baseURL, url.PathEscape(campaignID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("insights", "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("insights", "network_error")
		return nil, fmt.Errorf("failed to fetch insights: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.RecordExternalAPICall("insights", "error_404", duration)
		return nil, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrCampaignNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordExternalAPICall("insights", fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, fmt.Errorf("insights API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("insights", "read_body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var insights domain.InsightsResponse
	if err := json.Unmarshal(body, &insights); err != nil {
		c.metrics.RecordExternalAPIFailure("insights", "json_parse")
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}

	c.metrics.RecordExternalAPICall("insights", "success", duration)

	if len(insights.Data) == 0 {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrCampaignNotFound)
	}

	row := insights.Data[0]
	if row.CampaignID == "" {
		row.CampaignID = campaignID
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"campaign_id": campaignID,
		"duration":    duration,
		"rows":        len(insights.Data),
	}).Info("Successfully fetched campaign insights")

	return &row, nil
}
