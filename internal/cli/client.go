package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/me/cpusched/pkg/model"
)

// Client is an HTTP client for the status API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a status API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// apiResponse is the parsed envelope.
type apiResponse struct {
	Status     string             `json:"status"`
	RequestID  string             `json:"request_id"`
	Data       json.RawMessage    `json:"data"`
	Pagination *model.Pagination  `json:"pagination"`
	Error      *model.ConfigError `json:"error"`
}

// do performs an HTTP request and returns the parsed envelope.
func (c *Client) do(method, path string) (*apiResponse, error) {
	u := c.BaseURL + path

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.Logger.Debug("HTTP request", "method", method, "url", u)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(respBody))

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w\nbody: %s", resp.StatusCode, err, string(respBody))
	}

	if apiResp.Status == "error" && apiResp.Error != nil {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) (*apiResponse, error) {
	return c.do("GET", path)
}

// Processes fetches the live process table.
func (c *Client) Processes() (*processTable, error) {
	resp, err := c.Get("/api/v1/processes")
	if err != nil {
		return nil, err
	}
	var table processTable
	if err := json.Unmarshal(resp.Data, &table); err != nil {
		return nil, fmt.Errorf("parse process table: %w", err)
	}
	return &table, nil
}

// Process fetches one process of the live run.
func (c *Client) Process(name string) (*model.ProcessSnapshot, error) {
	resp, err := c.Get("/api/v1/processes/" + url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	var snap model.ProcessSnapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		return nil, fmt.Errorf("parse process: %w", err)
	}
	return &snap, nil
}
