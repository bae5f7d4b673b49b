// internal/crm/client.go
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/models"
)

// Client talks to the CRM backend over HTTP with bearer auth. Timeout and
// retry policy live here, at the boundary; the dispatch core above it is
// synchronous per call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ RecordAPI = (*Client)(nil)
var _ AttributeAPI = (*Client)(nil)
var _ MemberAPI = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ============================================
// Record CRUD
// ============================================

func (c *Client) SearchRecords(ctx context.Context, rt models.ResourceType, query string, filters map[string]interface{}) ([]Record, error) {
	body := map[string]interface{}{}
	if query != "" {
		body["query"] = query
	}
	if len(filters) > 0 {
		body["filter"] = filters
	}
	var out struct {
		Data []Record `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/records/query", rt)
	if err := c.do(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetRecord(ctx context.Context, rt models.ResourceType, id string) (*Record, error) {
	var out struct {
		Data Record `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/records/%s", rt, id)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) CreateRecord(ctx context.Context, rt models.ResourceType, values map[string]interface{}) (*Record, error) {
	var out struct {
		Data Record `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/records", rt)
	body := map[string]interface{}{"data": map[string]interface{}{"values": values}}
	if err := c.do(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) UpdateRecord(ctx context.Context, rt models.ResourceType, id string, values map[string]interface{}) (*Record, error) {
	var out struct {
		Data Record `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/records/%s", rt, id)
	body := map[string]interface{}{"data": map[string]interface{}{"values": values}}
	if err := c.do(ctx, http.MethodPatch, endpoint, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) DeleteRecord(ctx context.Context, rt models.ResourceType, id string) error {
	endpoint := fmt.Sprintf("/objects/%s/records/%s", rt, id)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ============================================
// Attribute Discovery / Members
// ============================================

func (c *Client) ListAttributes(ctx context.Context, rt models.ResourceType) ([]models.AttributeDescriptor, error) {
	var out struct {
		Data []models.AttributeDescriptor `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/attributes", rt)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) SearchWorkspaceMembers(ctx context.Context, query string) ([]models.WorkspaceMember, error) {
	var out struct {
		Data []models.WorkspaceMember `json:"data"`
	}
	endpoint := "/workspace_members?search=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ============================================
// Transport
// ============================================

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		var errBody struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &errBody) == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("crm api error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
