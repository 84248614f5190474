// Package heatpump talks to the wifi-to-heatpump bridge's JSON HTTP API:
// GET /status.json for the current state and POST /set.json to change settings.
package heatpump

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport is the device-facing surface the watcher and the pending-change
// queue operate on. Client implements it against a real device, Mock in memory.
type Transport interface {
	Status(ctx context.Context) (*Status, error)
	Set(ctx context.Context, cmd Command) (Echo, error)
}

type Config struct {
	Host string
	Port int
	HTTP *http.Client // shared client, injected by the caller
}

// Client issues status and set requests against one device.
type Client struct {
	baseURL string
	http    *http.Client
}

var ErrBadHTTPStatus = errors.New("device returned non-2xx status")

func NewClient(config *Config) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", config.Host, config.Port),
		http:    config.HTTP,
	}
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status.json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding status.json: %w", err)
	}
	return &status, nil
}

func (c *Client) Set(ctx context.Context, cmd Command) (Echo, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/set.json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var echo Echo
	if err := json.NewDecoder(resp.Body).Decode(&echo); err != nil {
		return nil, fmt.Errorf("decoding set.json response: %w", err)
	}
	return echo, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s: %s", ErrBadHTTPStatus, resp.Status, strings.TrimSpace(string(text)))
}
