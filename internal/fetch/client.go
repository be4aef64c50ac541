package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Client performs API calls and image downloads with separate timeouts.
type Client struct {
	api       *http.Client
	download  *http.Client
	userAgent string
}

// NewClient creates a Client.
func NewClient(apiTimeout, downloadTimeout time.Duration, userAgent string) *Client {
	return &Client{
		api:       &http.Client{Timeout: apiTimeout},
		download:  &http.Client{Timeout: downloadTimeout},
		userAgent: userAgent,
	}
}

// GetJSON issues a GET and returns the parsed response body.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header) (gjson.Result, error) {
	body, err := c.get(ctx, c.api, url, header)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("fetch: %s: response is not JSON", url)
	}
	return gjson.ParseBytes(body), nil
}

// Download returns the bytes at url.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, c.download, url, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch: %s: empty body", url)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, hc *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", url, err)
	}
	return body, nil
}
