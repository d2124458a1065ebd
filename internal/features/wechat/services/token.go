package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"atelier/internal/core"
)

const (
	// DefaultAPIBase is the public WeChat API host
	DefaultAPIBase = "https://api.weixin.qq.com"

	// TokenExpirySkew is subtracted from the declared token lifetime so the
	// token is refreshed before upstream rejects it
	TokenExpirySkew = 300 * time.Second

	tokenTimeout = 10 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// TokenCache obtains and caches the application access token
type TokenCache struct {
	appID     string
	appSecret string
	baseURL   string
	client    *http.Client
	logger    *core.Logger
	now       func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
	group singleflight.Group
}

var _ oauth2.TokenSource = (*TokenCache)(nil)

// TokenOption configures a TokenCache
type TokenOption func(*TokenCache)

// WithClock replaces time.Now for expiry decisions
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCache) {
		c.now = now
	}
}

// WithTokenHTTPClient replaces the HTTP client used for token requests
func WithTokenHTTPClient(client *http.Client) TokenOption {
	return func(c *TokenCache) {
		c.client = client
	}
}

// NewTokenCache creates an empty token cache for the given credentials
func NewTokenCache(appID, appSecret, baseURL string, logger *core.Logger, opts ...TokenOption) *TokenCache {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}

	c := &TokenCache{
		appID:     appID,
		appSecret: appSecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: tokenTimeout},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessToken returns the cached token, requesting a new one once it expires.
// Concurrent callers that miss the cache share a single upstream request.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	token, err := c.get(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Token implements oauth2.TokenSource
func (c *TokenCache) Token() (*oauth2.Token, error) {
	return c.get(context.Background())
}

// Invalidate drops the cached token so the next call requests a new one
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

func (c *TokenCache) get(ctx context.Context) (*oauth2.Token, error) {
	if token := c.cached(); token != nil {
		return token, nil
	}

	// The shared refresh outlives any single caller; each caller still
	// stops waiting when its own context ends.
	refreshCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("token", func() (interface{}, error) {
		if token := c.cached(); token != nil {
			return token, nil
		}
		return c.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUpstreamAuth, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

func (c *TokenCache) cached() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil || !c.now().Before(c.token.Expiry) {
		return nil
	}
	token := *c.token
	return &token
}

func (c *TokenCache) refresh(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	query := url.Values{
		"grant_type": {"client_credential"},
		"appid":      {c.appID},
		"secret":     {c.appSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cgi-bin/token?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		tokenRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tokenRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamAuth, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		tokenRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstreamAuth, err)
	}
	if body.AccessToken == "" {
		tokenRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: errcode %d: %s", ErrUpstreamAuth, body.ErrCode, body.ErrMsg)
	}

	now := c.now()
	token := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
		Expiry:      now.Add(time.Duration(body.ExpiresIn)*time.Second - TokenExpirySkew),
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	tokenRefreshesTotal.WithLabelValues("ok").Inc()
	c.logger.Info("Refreshed WeChat access token", "expires_in", body.ExpiresIn, "expiry", token.Expiry)

	copied := *token
	return &copied, nil
}
