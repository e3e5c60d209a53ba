// Package sdk provides typed Go access to the progresskit HTTP and
// WebSocket API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"progresskit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the progresskit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL
// (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// RecordActivity submits one activity event for a user and returns the
// updated lesson progress record.
func (c *Client) RecordActivity(ctx context.Context, userID string, activity ActivityRequest) (ProgressRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return ProgressRecord{}, ErrEmptyUserID
	}
	body, err := json.Marshal(activity)
	if err != nil {
		return ProgressRecord{}, err
	}
	u := fmt.Sprintf("%s/users/%s/activity", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return ProgressRecord{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProgressRecord{}, err
	}
	defer resp.Body.Close()

	var rec ProgressRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return ProgressRecord{}, err
	}
	return rec, nil
}

// GetUserStats fetches the full gamification snapshot for a user.
func (c *Client) GetUserStats(ctx context.Context, userID string) (UserStats, error) {
	if strings.TrimSpace(userID) == "" {
		return UserStats{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/stats", c.baseURL, url.PathEscape(userID))
	var stats UserStats
	if err := c.getJSON(ctx, u, &stats); err != nil {
		return UserStats{}, err
	}
	return stats, nil
}

// GetAchievementProgress lists in-flight progress-based achievements.
func (c *Client) GetAchievementProgress(ctx context.Context, userID string) ([]AchievementProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/achievements/progress", c.baseURL, url.PathEscape(userID))
	var body struct {
		Achievements []AchievementProgress `json:"achievements"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	return body.Achievements, nil
}

// GetLeaderboard fetches the top users by XP and by streak. A non-positive
// limit uses the server default.
func (c *Client) GetLeaderboard(ctx context.Context, limit int) (Leaderboard, error) {
	u := c.baseURL + "/leaderboard"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	var lb Leaderboard
	if err := c.getJSON(ctx, u, &lb); err != nil {
		return Leaderboard{}, err
	}
	return lb, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event
// values. Pass a userID to receive only that user's events, or "" for all.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, userID string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if userID != "" {
		target += "?user_id=" + url.QueryEscape(userID)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
