package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRemovesScripts(t *testing.T) {
	out := NewHTMLSanitizer().Sanitize(`<script>x</script><p>hi</p>`)
	assert.Contains(t, out, "<p>hi</p>")
	assert.NotContains(t, out, "<script")
}

func TestSanitizeRemovesEmbeddedResources(t *testing.T) {
	raw := `<meta charset="utf-8"><link rel="stylesheet" href="x.css">
		<section><iframe src="https://v.qq.com/x"></iframe><noscript>enable js</noscript><p>kept</p></section>`

	out := NewHTMLSanitizer().Sanitize(raw)
	for _, tag := range []string{"<meta", "<link", "<iframe", "<noscript", "enable js"} {
		assert.NotContains(t, out, tag)
	}
	assert.Contains(t, out, "<section>")
	assert.Contains(t, out, "<p>kept</p>")
}

func TestSanitizeMakesImagesResponsive(t *testing.T) {
	out := NewHTMLSanitizer().Sanitize(`<img src="a.jpg">`)
	assert.Contains(t, out, `src="a.jpg"`)
	assert.Contains(t, out, `style="max-width:100%;height:auto;"`)
}

func TestSanitizeAppendsToExistingStyle(t *testing.T) {
	s := NewHTMLSanitizer()

	out := s.Sanitize(`<img src="a.jpg" style="width: 50px">`)
	assert.Contains(t, out, `style="width: 50px;max-width:100%;height:auto;"`)

	out = s.Sanitize(`<img src="a.jpg" style="border:0;max-width:100%;height:auto;">`)
	assert.Equal(t, 1, strings.Count(out, "max-width:100%"))

	out = s.Sanitize(`<img src="a.jpg" style="max-width: 100%; height: auto;">`)
	assert.Contains(t, out, `style="max-width: 100%; height: auto;"`)
	assert.NotContains(t, out, "max-width:100%")
}

func TestSanitizePrefersLazySources(t *testing.T) {
	s := NewHTMLSanitizer()

	out := s.Sanitize(`<img src="placeholder.gif" data-src="https://mmbiz.qpic.cn/real.png">`)
	assert.Contains(t, out, `src="https://mmbiz.qpic.cn/real.png"`)
	assert.NotContains(t, out, `src="placeholder.gif"`)

	out = s.Sanitize(`<img src="placeholder.gif" data-original="orig.png">`)
	assert.Contains(t, out, `src="orig.png"`)
}

func TestSanitizeEmptyInput(t *testing.T) {
	assert.Equal(t, "", NewHTMLSanitizer().Sanitize(""))
	assert.Equal(t, "", NewHTMLSanitizer().Sanitize("   "))
}

func TestSanitizeLeavesAttributesAlone(t *testing.T) {
	out := NewHTMLSanitizer().Sanitize(`<a href="#" onclick="go()">x</a>`)
	assert.Contains(t, out, `onclick="go()"`)
}
