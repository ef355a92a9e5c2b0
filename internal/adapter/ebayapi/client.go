package ebayapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/repricelab/ebay-connect/internal/domain/ebay"
)

const (
	productionBaseURL = "https://api.ebay.com"
	sandboxBaseURL    = "https://api.sandbox.ebay.com"

	productionSigninURL = "https://signin.ebay.com/oauth2/authorize"
	sandboxSigninURL    = "https://signin.sandbox.ebay.com/oauth2/authorize"

	tokenPath     = "/identity/v1/oauth2/token"
	userPath      = "/sell/account/v1/user"
	inventoryPath = "/sell/inventory/v1/inventory_item"

	maxBodySize = 1 << 20
)

// AuthorizeURL returns the eBay signin endpoint for the environment.
func AuthorizeURL(sandbox bool) string {
	if sandbox {
		return sandboxSigninURL
	}
	return productionSigninURL
}

// Client encapsulates outbound HTTP calls to the eBay REST API. Token grants
// authenticate with HTTP Basic credentials built from the caller's triple;
// reads authenticate with a Bearer access token.
type Client interface {
	ExchangeCode(ctx context.Context, creds ebay.Credentials, code, redirectURI string) (*ebay.TokenResponse, error)
	RefreshToken(ctx context.Context, creds ebay.Credentials, refreshToken string) (*ebay.TokenResponse, error)
	GetUser(ctx context.Context, accessToken string) (*ebay.UserInfo, error)
	GetInventoryItems(ctx context.Context, accessToken string, limit int) (*ebay.Inventory, error)
}

// HTTPClient is the default HTTP implementation.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default eBay client. A zero timeout falls back
// to ten seconds so upstream stalls surface as errors instead of hanging the
// request.
func NewHTTPClient(sandbox bool, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := productionBaseURL
	if sandbox {
		baseURL = sandboxBaseURL
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExchangeCode swaps an authorization code for a token pair.
func (c *HTTPClient) ExchangeCode(ctx context.Context, creds ebay.Credentials, code, redirectURI string) (*ebay.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.postTokenForm(ctx, creds, form)
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *HTTPClient) RefreshToken(ctx context.Context, creds ebay.Credentials, refreshToken string) (*ebay.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postTokenForm(ctx, creds, form)
}

func (c *HTTPClient) postTokenForm(ctx context.Context, creds ebay.Credentials, form url.Values) (*ebay.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.AppID, creds.CertID)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var token ebay.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &ebay.UpstreamError{Message: "malformed token response"}
	}
	if strings.TrimSpace(token.AccessToken) == "" || token.ExpiresIn <= 0 {
		return nil, &ebay.UpstreamError{Message: "token response missing access_token or expires_in"}
	}
	return &token, nil
}

// GetUser resolves the seller identity behind an access token.
func (c *HTTPClient) GetUser(ctx context.Context, accessToken string) (*ebay.UserInfo, error) {
	body, err := c.getJSON(ctx, c.baseURL+userPath, accessToken)
	if err != nil {
		return nil, err
	}
	var info ebay.UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &ebay.UpstreamError{Message: "malformed user response"}
	}
	if strings.TrimSpace(info.UserID) == "" {
		return nil, &ebay.UpstreamError{Message: "user response missing userId"}
	}
	return &info, nil
}

// GetInventoryItems pages the Sell Inventory API.
func (c *HTTPClient) GetInventoryItems(ctx context.Context, accessToken string, limit int) (*ebay.Inventory, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := c.getJSON(ctx, c.baseURL+inventoryPath+"?limit="+strconv.Itoa(limit), accessToken)
	if err != nil {
		return nil, err
	}
	var inventory ebay.Inventory
	if err := json.Unmarshal(body, &inventory); err != nil {
		return nil, &ebay.UpstreamError{Message: "malformed inventory response"}
	}
	return &inventory, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ebay.UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &ebay.UpstreamError{Status: resp.StatusCode, Message: "read response: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		return nil, &ebay.UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(body, resp.Status)}
	}
	return body, nil
}

// upstreamMessage pulls error_description out of eBay error payloads, falling
// back to the HTTP status line.
func upstreamMessage(body []byte, fallback string) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.ErrorDescription != "" {
			return payload.ErrorDescription
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}
