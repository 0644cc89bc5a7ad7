// Package client is the HTTP client the CLI commands share.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/crucial707/timetable-api/cmd/cli/config"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("status %d: %s", e.Status, e.Message)
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns an anonymous client for the configured API.
func New() *Client {
	return &Client{BaseURL: config.APIURL(), HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Authenticated returns a client carrying the stored token.
func Authenticated() (*Client, error) {
	token, err := config.ReadToken()
	if err != nil {
		return nil, err
	}
	c := New()
	c.Token = token
	return c, nil
}

// Do sends payload as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("User-Agent", "ttctl")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var parsed struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
			apiErr.Fields = parsed.Fields
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// Page mirrors the API's list envelope.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
