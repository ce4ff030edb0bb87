package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ruteri/amp-confirm/interfaces"
)

// ErrNotAuthenticated is returned when a request is attempted before Login.
var ErrNotAuthenticated = errors.New("registry client is not authenticated")

// StatusError is returned when the registry answers with a non-200 status.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry %s %s returned error %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// Client implements interfaces.Registry over the registry's HTTP API.
type Client struct {
	// BaseURL is the API location, either a "{}" template or a plain prefix.
	BaseURL string

	httpClient *http.Client
	token      string
	log        *slog.Logger
}

// NewClient creates an unauthenticated client. Call Login before any other method.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// Login exchanges username and password for an API token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.log.Debug("Obtaining registry token", slog.String("username", username))

	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "user/obtain_token", false, req, &resp); err != nil {
		return fmt.Errorf("could not obtain registry token: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("could not obtain registry token: empty token in response")
	}

	c.token = resp.Token
	return nil
}

func (c *Client) GetLostOutputs(ctx context.Context, assetUUID string) (*interfaces.LostOutputs, error) {
	var resp interfaces.LostOutputs
	if err := c.do(ctx, http.MethodGet, assetPath(assetUUID, "balance"), true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetAssignments(ctx context.Context, assetUUID string) ([]interfaces.Assignment, error) {
	var resp []interfaces.Assignment
	if err := c.do(ctx, http.MethodGet, assetPath(assetUUID, "assignments"), true, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetAssetTransactions(ctx context.Context, assetUUID string) ([]interfaces.AssetTransaction, error) {
	var resp []interfaces.AssetTransaction
	if err := c.do(ctx, http.MethodGet, assetPath(assetUUID, "txs"), true, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ConfirmReissue(ctx context.Context, assetUUID string, payload *interfaces.ReissueConfirmPayload) error {
	return c.do(ctx, http.MethodPost, assetPath(assetUUID, "reissue-confirm"), true, payload, nil)
}

func (c *Client) ConfirmDistribution(ctx context.Context, assetUUID, distributionUUID string, payload *interfaces.DistributionConfirmPayload) error {
	path := assetPath(assetUUID, "distributions", distributionUUID, "confirm")
	return c.do(ctx, http.MethodPost, path, true, payload, nil)
}

func (c *Client) ConfirmBurn(ctx context.Context, assetUUID string, payload *interfaces.BurnConfirmPayload) error {
	return c.do(ctx, http.MethodPost, assetPath(assetUUID, "burn-confirm"), true, payload, nil)
}

func (c *Client) UpdateBlinders(ctx context.Context, assetUUID string, update *interfaces.BlinderUpdate) error {
	return c.do(ctx, http.MethodPost, assetPath(assetUUID, "update-blinders"), true, update, nil)
}

// Endpoint resolves path against the base URL.
func (c *Client) Endpoint(path string) string {
	if strings.Contains(c.BaseURL, "{}") {
		return strings.Replace(c.BaseURL, "{}", path, 1)
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + path
}

func assetPath(assetUUID string, segments ...string) string {
	escaped := make([]string, 0, len(segments)+2)
	escaped = append(escaped, "assets", url.PathEscape(assetUUID))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, body any, out any) error {
	endpoint := c.Endpoint(path)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if authenticated {
		if c.token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request registry endpoint %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("Registry request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse registry response from %s: %w", path, err)
	}
	return nil
}
