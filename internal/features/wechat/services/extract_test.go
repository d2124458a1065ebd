package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArticleCoverFallsBackToBodyImage(t *testing.T) {
	page, err := extractArticle(`<html><body>
		<h1 id="activity-name"> 标题 </h1>
		<div id="js_content"><p>正文</p><img data-original="https://mmbiz.qpic.cn/cover.jpg" src="placeholder.gif"></div>
	</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "标题", page.Title)
	assert.Equal(t, "https://mmbiz.qpic.cn/cover.jpg", page.CoverURL)
}

func TestExtractArticlePrefersOpenGraph(t *testing.T) {
	page, err := extractArticle(`<html><head>
		<meta property="og:title" content="OG 标题">
		<meta property="og:image" content="https://mmbiz.qpic.cn/og.jpg">
		<meta property="og:url" content="https://mp.weixin.qq.com/s/abc">
		<meta name="author" content="清寒">
	</head><body><div class="rich_media_content"><img data-src="https://mmbiz.qpic.cn/body.jpg"></div></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "OG 标题", page.Title)
	assert.Equal(t, "清寒", page.Author)
	assert.Equal(t, "https://mmbiz.qpic.cn/og.jpg", page.CoverURL)
	assert.Equal(t, "https://mp.weixin.qq.com/s/abc", page.CanonicalURL)
	assert.Contains(t, page.BodyHTML, "body.jpg")
}
