package clients

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/publication-svc/internal/config"
	"github.com/opencourt/publication-svc/internal/distribution"
)

// DataManagementClient fetches publication content from the data-management
// service. It implements distribution.ContentClient.
type DataManagementClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDataManagementClient(cfg *config.UpstreamConfig) *DataManagementClient {
	return &DataManagementClient{
		baseURL:    cfg.DataManagementURL,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// GetJSONBlob returns the structured JSON representation of a publication
func (c *DataManagementClient) GetJSONBlob(ctx context.Context, publicationID uuid.UUID) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/publication/%s/payload", c.baseURL, publicationID))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetFlatFile returns the raw file content of a flat-file publication
func (c *DataManagementClient) GetFlatFile(ctx context.Context, publicationID uuid.UUID) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/publication/%s/file", c.baseURL, publicationID))
}

// GetFiles returns the rendered document representations of a publication.
// The service serves them base64-encoded, keyed by file type.
func (c *DataManagementClient) GetFiles(ctx context.Context, publicationID uuid.UUID) (distribution.Files, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/publication/%s/files", c.baseURL, publicationID))
	if err != nil {
		return distribution.Files{}, err
	}

	var encoded map[string]string
	if err := json.Unmarshal(body, &encoded); err != nil {
		return distribution.Files{}, fmt.Errorf("failed to decode rendered files response: %w", err)
	}

	files := distribution.Files{}
	if pdf, ok := encoded["PDF"]; ok {
		files.PDF, err = base64.StdEncoding.DecodeString(pdf)
		if err != nil {
			return distribution.Files{}, fmt.Errorf("failed to decode PDF content: %w", err)
		}
	}
	if excel, ok := encoded["EXCEL"]; ok {
		files.Excel, err = base64.StdEncoding.DecodeString(excel)
		if err != nil {
			return distribution.Files{}, fmt.Errorf("failed to decode Excel content: %w", err)
		}
	}
	return files, nil
}

func (c *DataManagementClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data-management request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("data-management returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
