package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/streamnode/streamnode/internal/routes"
)

const (
	loginPath     = "/web/v1/auth/emailLogin"
	dashboardPath = "/web/v1/dashBoard/info"
)

// Identity is what a successful login yields: the platform's canonical email
// spelling, a stable user UUID, and a bearer token.
type Identity struct {
	Email  string
	UserID string
	Token  string
}

// Points is one dashboard poll result. Absent fields decode as zero.
type Points struct {
	TotalScore float64 `json:"totalScore"`
	TodayScore float64 `json:"todayScore"`
}

// Client talks to the platform's HTTP API through one egress route.
// Build one Client per route and reuse it across calls.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given API base URL egressing via route.
// No overall request timeout is set — login in particular is allowed to take
// as long as the route takes; callers bound calls with ctx if they need to.
func New(base string, route routes.Route) *Client {
	return &Client{
		base: base,
		http: &http.Client{
			Transport: &http.Transport{Proxy: route.ProxyFunc()},
		},
	}
}

// loginResponse mirrors the platform's login envelope.
type loginResponse struct {
	Data struct {
		User struct {
			Email string `json:"email"`
			UUID  string `json:"uuid"`
		} `json:"user"`
		Token string `json:"token"`
	} `json:"data"`
}

// Login authenticates one account and returns its identity. Any failure —
// network, non-2xx status, malformed payload, invalid user UUID — is an
// error; the caller abandons the session rather than retrying.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("platform: encode login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+loginPath, bytes.NewReader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("platform: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("platform: login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Identity{}, fmt.Errorf("platform: login: unexpected status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return Identity{}, fmt.Errorf("platform: decode login response: %w", err)
	}

	id := Identity{
		Email:  lr.Data.User.Email,
		UserID: lr.Data.User.UUID,
		Token:  lr.Data.Token,
	}
	if id.Token == "" {
		return Identity{}, fmt.Errorf("platform: login response missing token")
	}
	if _, err := uuid.Parse(id.UserID); err != nil {
		return Identity{}, fmt.Errorf("platform: login response user uuid %q: %w", id.UserID, err)
	}
	return id, nil
}

// pointsResponse mirrors the dashboard-info envelope.
type pointsResponse struct {
	Data Points `json:"data"`
}

// Points fetches the account's accrued scores with bearer auth. Used for
// observability only — callers log failures and move on.
func (c *Client) Points(ctx context.Context, token string) (Points, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+dashboardPath, nil)
	if err != nil {
		return Points{}, fmt.Errorf("platform: build points request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Points{}, fmt.Errorf("platform: points: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Points{}, fmt.Errorf("platform: points: unexpected status %d", resp.StatusCode)
	}

	var pr pointsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Points{}, fmt.Errorf("platform: decode points response: %w", err)
	}
	return pr.Data, nil
}
