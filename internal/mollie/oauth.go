package mollie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Token is an OAuth access/refresh token pair for a connected Mollie
// account. Expiry is tracked from the moment the token was obtained.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TimeCreated  int64  `json:"time_created"`
}

func (t *Token) Expired() bool {
	return time.Now().Unix() > t.TimeCreated+t.ExpiresIn
}

// TokenStore persists the account credentials between requests. Load
// returns (nil, nil) when no account has been connected yet.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, token *Token) error
	Delete(ctx context.Context) error
}

// MemoryTokenStore keeps the token in process memory, for tests and
// single-node development runs.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token *Token
}

func NewMemoryTokenStore(token *Token) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}

// authorizeEndpoint is the Mollie consent page. It lives on the account
// dashboard host, not on the API host, so it is not derived from the
// configured base URLs.
const authorizeEndpoint = "https://my.mollie.com/oauth2/authorize"

// authorizeScopes covers everything the integration touches: payments,
// orders, profiles for method lookups, refunds for webhook
// reconciliation.
const authorizeScopes = "payments.read payments.write orders.read orders.write profiles.read refunds.read organizations.read"

// AuthorizeURL builds the consent URL the account owner is sent to when
// connecting. The provider redirects back to redirectURI with an
// authorization code.
func (c *Client) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{
		"client_id":     {c.clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {authorizeScopes},
	}
	if state != "" {
		q.Set("state", state)
	}
	return authorizeEndpoint + "?" + q.Encode()
}

// ExchangeCode trades an OAuth authorization code for a token pair and
// persists it, connecting the account.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	token, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	if err := c.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.logger.Info("mollie account connected", "expires_in", token.ExpiresIn)
	return token, nil
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, form)
}

// RevokeRefreshToken disconnects the account at the provider and drops
// the stored credentials.
func (c *Client) RevokeRefreshToken(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == nil {
		stored, err := c.tokens.Load(ctx)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		token = stored
	}
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("no refresh token to revoke")
	}

	form := url.Values{
		"token":           {token.RefreshToken},
		"token_type_hint": {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.oauthBaseURL+"/oauth2/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := c.tokens.Delete(ctx); err != nil {
		return fmt.Errorf("drop stored credentials: %w", err)
	}

	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()

	c.logger.Info("mollie account disconnected")
	return nil
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthBaseURL+"/oauth2/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Detail = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	token.TimeCreated = time.Now().Unix()

	return &token, nil
}
