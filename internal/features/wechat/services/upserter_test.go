package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contentmodels "atelier/internal/features/content/models"
	"atelier/internal/features/wechat/models"
)

func remoteArticle(url string) models.RemoteArticle {
	return models.RemoteArticle{
		Title:        "春日提示词合集",
		Author:       "清寒",
		HTMLContent:  `<p>正文</p><script>alert(1)</script><img data-src="https://mmbiz.qpic.cn/a.png">`,
		Digest:       "摘要",
		ThumbnailURL: "https://mmbiz.qpic.cn/cover.png",
		CanonicalURL: url,
	}
}

func TestUpsertArticleTwiceStoresOneRow(t *testing.T) {
	stores := newTestStores(t)
	covers := &fakeCovers{ref: "/api/images/3/thumb"}
	upserter := stores.upserter(covers)
	ctx := context.Background()

	first, err := upserter.UpsertArticle(ctx, remoteArticle("https://mp.weixin.qq.com/s/a"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, first.Outcome)

	second, err := upserter.UpsertArticle(ctx, remoteArticle("https://mp.weixin.qq.com/s/a"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDuplicate, second.Outcome)

	assert.Equal(t, 1, stores.postCount(t))
	assert.Equal(t, 1, covers.calls(), "duplicates do not fetch covers")
}

func TestUpsertArticleStoresNormalisedPost(t *testing.T) {
	stores := newTestStores(t)
	upserter := stores.upserter(&fakeCovers{ref: "/api/images/3/thumb"})

	result, err := upserter.UpsertArticle(context.Background(), remoteArticle(" https://mp.weixin.qq.com/s/a "))
	require.NoError(t, err)

	post, err := stores.posts.GetPost(context.Background(), result.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, testCategory, post.Category)
	assert.Equal(t, "清寒", post.Author)
	assert.Equal(t, "/api/images/3/thumb", post.CoverImage)
	require.NotNil(t, post.SourceURL)
	assert.Equal(t, "https://mp.weixin.qq.com/s/a", *post.SourceURL)
	assert.Contains(t, post.Content, "<p>正文</p>")
	assert.NotContains(t, post.Content, "<script")
	assert.Contains(t, post.Content, `src="https://mmbiz.qpic.cn/a.png"`)
}

func TestUpsertArticleSkipsIncompleteRecords(t *testing.T) {
	stores := newTestStores(t)
	covers := &fakeCovers{}
	upserter := stores.upserter(covers)

	noTitle := remoteArticle("https://mp.weixin.qq.com/s/a")
	noTitle.Title = "  "
	noURL := remoteArticle("")

	for _, article := range []models.RemoteArticle{noTitle, noURL} {
		result, err := upserter.UpsertArticle(context.Background(), article)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeSkipped, result.Outcome)
	}

	assert.Equal(t, 0, stores.postCount(t))
	assert.Equal(t, 0, covers.calls())
}

func TestUpsertArticleContentFallbacks(t *testing.T) {
	stores := newTestStores(t)
	upserter := stores.upserter(&fakeCovers{})
	ctx := context.Background()

	withDigest := remoteArticle("https://mp.weixin.qq.com/s/digest")
	withDigest.HTMLContent = ""
	withDigest.Digest = "a < b"
	withDigest.Author = ""
	result, err := upserter.UpsertArticle(ctx, withDigest)
	require.NoError(t, err)
	assert.Equal(t, "<p>a &lt; b</p>", result.Post.Content)
	assert.Equal(t, testAuthor, result.Post.Author)

	empty := remoteArticle("https://mp.weixin.qq.com/s/empty")
	empty.HTMLContent = "<script>only()</script>"
	empty.Digest = ""
	result, err = upserter.UpsertArticle(ctx, empty)
	require.NoError(t, err)
	assert.Equal(t, EmptyContentPlaceholder, result.Post.Content)
}

func TestUpsertArticleContinuesWithoutCover(t *testing.T) {
	stores := newTestStores(t)
	upserter := stores.upserter(&fakeCovers{err: errors.New("timeout")})

	result, err := upserter.UpsertArticle(context.Background(), remoteArticle("https://mp.weixin.qq.com/s/a"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, result.Outcome)
	assert.Equal(t, "", result.Post.CoverImage)
}

func TestCreateMapsUniqueViolationToDuplicate(t *testing.T) {
	stores := newTestStores(t)
	upserter := stores.upserter(&fakeCovers{})
	ctx := context.Background()

	existing, err := stores.posts.CreatePost(ctx, &contentmodels.PostCreate{
		Title:     "written elsewhere",
		Content:   "c",
		SourceURL: "https://mp.weixin.qq.com/s/race",
	})
	require.NoError(t, err)

	result, err := upserter.create(ctx, remoteArticle("https://mp.weixin.qq.com/s/race"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDuplicate, result.Outcome)
	assert.Equal(t, existing.ID, result.Post.ID)
	assert.Equal(t, 1, stores.postCount(t))
}
