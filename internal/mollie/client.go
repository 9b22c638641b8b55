package mollie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// APIError is the structured error body Mollie returns for rejected
// requests. Its Detail is the provider-author-controlled message the
// authorization path may surface to end users.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("mollie API error %d: %s", e.Status, e.Title)
}

type Config struct {
	APIBaseURL   string
	OAuthBaseURL string
	ClientID     string
	ClientSecret string
	HTTPTimeout  time.Duration
}

// Client talks to the Mollie v2 API on behalf of an OAuth-connected
// account. All calls are synchronous and blocking; retries are the
// caller's policy, not the client's.
type Client struct {
	httpClient   *http.Client
	apiBaseURL   string
	oauthBaseURL string
	clientID     string
	clientSecret string
	tokens       TokenStore
	logger       *slog.Logger

	mu    sync.Mutex
	token *Token
}

func NewClient(cfg Config, tokens TokenStore, logger *slog.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	oauthBase := cfg.OAuthBaseURL
	if oauthBase == "" {
		oauthBase = cfg.APIBaseURL
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		oauthBaseURL: strings.TrimRight(oauthBase, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokens:       tokens,
		logger:       logger,
	}
}

// Initialize loads the stored credentials and refreshes them when
// expired. It must succeed before any payment operation; a failure maps
// to the API_NOT_INITIALIZED error at the call sites.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && !c.token.Expired() {
		return nil
	}

	token, err := c.tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("account is not connected")
	}

	if token.Expired() {
		c.logger.Debug("access token has expired, refreshing")

		refreshed, err := c.refreshToken(ctx, token.RefreshToken)
		if err != nil {
			return fmt.Errorf("refresh access token: %w", err)
		}

		// Verify the refreshed credential actually works.
		if _, err := c.getProfilesWithToken(ctx, refreshed.AccessToken); err != nil {
			return fmt.Errorf("verify refreshed credentials: %w", err)
		}

		if err := c.tokens.Save(ctx, refreshed); err != nil {
			return fmt.Errorf("persist refreshed credentials: %w", err)
		}

		c.logger.Debug("access token refreshed")
		token = refreshed
	}

	c.token = token
	return nil
}

// Initialized reports whether a usable credential is loaded.
func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != nil && !c.token.Expired()
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

func (c *Client) CreatePayment(ctx context.Context, req *mollietypes.CreatePaymentRequest) (*mollietypes.Payment, error) {
	var payment mollietypes.Payment
	if err := c.do(ctx, http.MethodPost, "/v2/payments", req, &payment); err != nil {
		return nil, err
	}

	c.logger.Info("payment created",
		"payment_id", payment.ID,
		"status", payment.Status,
		"amount", payment.Amount.Value)

	return &payment, nil
}

// CreateOrder creates an order with its first payment embedded, so the
// caller can record both identifiers from one response.
func (c *Client) CreateOrder(ctx context.Context, req *mollietypes.CreateOrderRequest) (*mollietypes.Payment, error) {
	var order mollietypes.Payment
	if err := c.do(ctx, http.MethodPost, "/v2/orders?embed=payments", req, &order); err != nil {
		return nil, err
	}

	c.logger.Info("order created",
		"order_id", order.ID,
		"payment_id", order.EmbeddedPaymentID(),
		"status", order.Status)

	return &order, nil
}

func (c *Client) GetPayment(ctx context.Context, id string, testmode bool) (*mollietypes.Payment, error) {
	path := "/v2/payments/" + url.PathEscape(id)
	if testmode {
		path += "?testmode=true"
	}

	var payment mollietypes.Payment
	if err := c.do(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) GetOrder(ctx context.Context, id string, testmode bool) (*mollietypes.Payment, error) {
	path := "/v2/orders/" + url.PathEscape(id) + "?embed=payments"
	if testmode {
		path += "&testmode=true"
	}

	var order mollietypes.Payment
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdatePayment patches host linkage (return URL, webhook URL, entry
// metadata) onto a payment, or onto an order when the id carries the
// order prefix.
func (c *Client) UpdatePayment(ctx context.Context, id string, req *mollietypes.UpdatePaymentRequest) (*mollietypes.Payment, error) {
	resource := "payments"
	if strings.HasPrefix(id, "ord_") {
		resource = "orders"
	}
	path := fmt.Sprintf("/v2/%s/%s", resource, url.PathEscape(id))

	var payment mollietypes.Payment
	if err := c.do(ctx, http.MethodPatch, path, req, &payment); err != nil {
		return nil, err
	}

	c.logger.Info("payment updated",
		"payment_id", payment.ID,
		"resource", resource,
		"webhook_url", req.WebhookURL)

	return &payment, nil
}

func (c *Client) GetMethods(ctx context.Context, profileID string, testmode bool, currency string) ([]mollietypes.Method, error) {
	q := url.Values{}
	if profileID != "" {
		q.Set("profileId", profileID)
	}
	if currency != "" {
		q.Set("amount[currency]", currency)
	}
	if testmode {
		q.Set("testmode", "true")
	}

	var result struct {
		Embedded struct {
			Methods []mollietypes.Method `json:"methods"`
		} `json:"_embedded"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/methods?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Embedded.Methods, nil
}

func (c *Client) GetProfiles(ctx context.Context) ([]mollietypes.Profile, error) {
	return c.getProfilesWithToken(ctx, c.accessToken())
}

func (c *Client) getProfilesWithToken(ctx context.Context, accessToken string) ([]mollietypes.Profile, error) {
	var result struct {
		Embedded struct {
			Profiles []mollietypes.Profile `json:"profiles"`
		} `json:"_embedded"`
	}
	if err := c.doWithToken(ctx, http.MethodGet, "/v2/profiles", nil, &result, accessToken); err != nil {
		return nil, err
	}
	return result.Embedded.Profiles, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doWithToken(ctx, method, path, body, out, c.accessToken())
}

func (c *Client) doWithToken(ctx context.Context, method, path string, body, out interface{}, accessToken string) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mollie request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Title = http.StatusText(resp.StatusCode)
			apiErr.Detail = strings.TrimSpace(string(respBody))
		}
		c.logger.Error("mollie API returned error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"detail", apiErr.Detail)
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
