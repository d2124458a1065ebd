package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const responsiveImageStyle = "max-width:100%;height:auto;"

// Sanitizer cleans third-party article HTML before it is stored
type Sanitizer interface {
	Sanitize(raw string) string
}

// HTMLSanitizer removes active and layout-altering elements and normalises images.
// Attributes are not filtered, so event handlers and javascript: links survive.
type HTMLSanitizer struct{}

// NewHTMLSanitizer creates a sanitizer
func NewHTMLSanitizer() *HTMLSanitizer {
	return &HTMLSanitizer{}
}

// Sanitize returns the cleaned body HTML of raw, or "" for empty input
func (s *HTMLSanitizer) Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	doc.Find("script, iframe, link, meta, noscript").Remove()

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src := imageSource(img); src != "" {
			img.SetAttr("src", src)
		}

		style := strings.TrimSpace(img.AttrOr("style", ""))
		if strings.Contains(compactStyle(style), responsiveImageStyle) {
			return
		}
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		img.SetAttr("style", style+responsiveImageStyle)
	})

	html, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

// imageSource prefers lazy-load attributes over src
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-original", "src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// compactStyle drops whitespace and case so declarations compare by content
func compactStyle(style string) string {
	return strings.ToLower(strings.Join(strings.Fields(style), ""))
}
