package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	pageFetchTimeout = 15 * time.Second
	maxPageBytes     = 10 << 20
	articleReferer   = "https://mp.weixin.qq.com/"
)

// articlePage is what could be read from an article page
type articlePage struct {
	Title        string
	Author       string
	BodyHTML     string
	CoverURL     string
	CanonicalURL string
}

// PageFetcher downloads article pages the way a browser would
type PageFetcher struct {
	client *http.Client
}

// NewPageFetcher creates a fetcher. A nil httpClient gets a default with the page timeout.
func NewPageFetcher(httpClient *http.Client) *PageFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: pageFetchTimeout}
	}
	return &PageFetcher{client: httpClient}
}

// Fetch returns the page at pageURL decoded to UTF-8
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPageUnreachable, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", articleReferer)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPageUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrPageUnreachable, resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: decode charset: %w", ErrPageUnreachable, err)
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrPageUnreachable, err)
	}

	return string(body), nil
}

// extractArticle reads the article fields out of a page
func extractArticle(raw string) (*articlePage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportExtraction, err)
	}

	page := &articlePage{
		Title:        firstNonEmpty(text(doc.Find("#activity-name")), metaContent(doc, "og:title"), text(doc.Find("h1, h2").First())),
		Author:       firstNonEmpty(metaContent(doc, "author"), text(doc.Find("#js_name"))),
		CanonicalURL: metaContent(doc, "og:url"),
	}

	body := doc.Find("#js_content").First()
	if body.Length() == 0 {
		body = doc.Find(".rich_media_content").First()
	}
	if body.Length() > 0 {
		html, err := body.Html()
		if err == nil {
			page.BodyHTML = strings.TrimSpace(html)
		}
	}

	page.CoverURL = metaContent(doc, "og:image")
	if page.CoverURL == "" && body.Length() > 0 {
		if img := body.Find("img").First(); img.Length() > 0 {
			page.CoverURL = imageSource(img)
		}
	}

	return page, nil
}

// metaContent reads a meta tag by property or name
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
