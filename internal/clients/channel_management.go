package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opencourt/publication-svc/internal/config"
	"github.com/opencourt/publication-svc/internal/models"
)

// ChannelManagementClient fetches location metadata from the
// channel-management service. It implements distribution.LocationClient.
type ChannelManagementClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewChannelManagementClient(cfg *config.UpstreamConfig) *ChannelManagementClient {
	return &ChannelManagementClient{
		baseURL:    cfg.ChannelManagementURL,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (c *ChannelManagementClient) GetLocation(ctx context.Context, locationID string) (models.LocationMetadata, error) {
	url := fmt.Sprintf("%s/locations/%s", c.baseURL, locationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.LocationMetadata{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.LocationMetadata{}, fmt.Errorf("channel-management request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.LocationMetadata{}, fmt.Errorf("channel-management returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.LocationMetadata{}, fmt.Errorf("failed to read location response: %w", err)
	}

	var location models.LocationMetadata
	if err := json.Unmarshal(body, &location); err != nil {
		return models.LocationMetadata{}, fmt.Errorf("failed to decode location response: %w", err)
	}

	return location, nil
}
