// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package client talks to a HyperChess game service over its HTTP/JSON
// interface. Requests are never retried; the only loop in the package is
// AwaitTurn, which polls a game until the opponent has moved.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/hyperchess/pkg/api"
)

// DefaultURL is the address the reference service listens on.
const DefaultURL = "http://127.0.0.1:3123"

// Option configures a Client.
type Option func(*Client)

// WithPrefix sets the path every route is mounted below, e.g. /api/v1.
func WithPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = "/" + strings.Trim(prefix, "/")
		if c.prefix == "/" {
			c.prefix = ""
		}
	}
}

// WithTimeout bounds the duration of every single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// Client is a HyperChess service client.
type Client struct {
	base    string
	prefix  string
	timeout time.Duration
	http    *http.Client
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: bad service url %q: %w", baseURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("client: bad service url %q: want http(s)://host[:port]", baseURL)
	}

	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the absolute URL of the given route.
func (c *Client) Endpoint(route string) string {
	return c.base + c.prefix + route
}

// NewGame creates a new game and returns its uuid.
func (c *Client) NewGame(ctx context.Context, request api.NewGameRequest) (string, error) {
	var response api.NewGameResponse
	if err := c.do(ctx, http.MethodPost, "/new_game", request, &response); err != nil {
		return "", err
	}

	if response.UUID == "" {
		return "", fmt.Errorf("client: new game response has no uuid")
	}

	return response.UUID, nil
}

// Game fetches the current state of a game.
func (c *Client) Game(ctx context.Context, uuid string) (*api.GameState, error) {
	var state api.GameState
	if err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(uuid), nil, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// TakeTurn submits a move and returns the state right after it.
func (c *Client) TakeTurn(ctx context.Context, request api.TurnRequest) (*api.GameState, error) {
	var state api.GameState
	if err := c.do(ctx, http.MethodPost, "/take_turn", request, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (c *Client) do(ctx context.Context, method, route string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.Endpoint(route)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s request: %w", route, err)
		}

		logrus.Tracef("%s %s %s", method, endpoint, data)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("client: build %s request: %w", route, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: endpoint, Err: err}
	}

	logrus.Debugf("%s %s: %s in %s", method, endpoint, resp.Status, time.Since(start).Round(time.Millisecond))
	logrus.Tracef("response body: %s", data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s response: %w", route, err)
	}

	return nil
}
