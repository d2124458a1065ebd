package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
)

const (
	// PageSize is the number of items requested per listing call
	PageSize = 20

	listTimeout = 15 * time.Second
)

// TokenProvider supplies access tokens to the content client
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

type batchResponse struct {
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
	TotalCount int    `json:"total_count"`
	ItemCount  int    `json:"item_count"`
	Item       []struct {
		Content models.NewsContainer `json:"content"`
	} `json:"item"`
}

// apiError is a non-zero errcode in an upstream response body
type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("errcode %d: %s", e.Code, e.Message)
}

func (e *apiError) Is(target error) bool {
	return target == ErrUpstreamFetch
}

// tokenRejected reports the errcodes upstream uses for an invalid or expired token
func (e *apiError) tokenRejected() bool {
	switch e.Code {
	case 40001, 40014, 42001:
		return true
	}
	return false
}

// Client reads article listings from the upstream content APIs
type Client struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
	logger  *core.Logger
}

// NewClient creates a content client. A nil httpClient gets a default with the listing timeout.
func NewClient(baseURL string, tokens TokenProvider, logger *core.Logger, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: listTimeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  httpClient,
		logger:  logger,
	}
}

// FetchPublished lists published articles
func (c *Client) FetchPublished(ctx context.Context, offset, count int) ([]models.NewsContainer, error) {
	body := map[string]int{"offset": offset, "count": count, "no_content": 0}
	return c.batchGet(ctx, "/cgi-bin/freepublish/batchget", body)
}

// FetchMaterials lists permanent news materials
func (c *Client) FetchMaterials(ctx context.Context, offset, count int) ([]models.NewsContainer, error) {
	body := struct {
		Type   string `json:"type"`
		Offset int    `json:"offset"`
		Count  int    `json:"count"`
	}{Type: "news", Offset: offset, Count: count}
	return c.batchGet(ctx, "/cgi-bin/material/batchget_material", body)
}

func (c *Client) batchGet(ctx context.Context, path string, body any) ([]models.NewsContainer, error) {
	resp, err := c.post(ctx, path, body)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.tokenRejected() {
		c.logger.Warn("Access token rejected, retrying with a new token", "path", path, "errcode", apiErr.Code)
		c.tokens.Invalidate()
		resp, err = c.post(ctx, path, body)
	}
	if err != nil {
		return nil, err
	}

	containers := make([]models.NewsContainer, 0, len(resp.Item))
	for _, item := range resp.Item {
		containers = append(containers, item.Content)
	}

	c.logger.Debug("Fetched listing", "path", path, "containers", len(containers), "total", resp.TotalCount)
	return containers, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*batchResponse, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrUpstreamFetch, err)
	}

	endpoint := c.baseURL + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstreamFetch, path, resp.StatusCode)
	}

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstreamFetch, err)
	}
	if out.ErrCode != 0 {
		return nil, &apiError{Code: out.ErrCode, Message: out.ErrMsg}
	}

	return &out, nil
}
