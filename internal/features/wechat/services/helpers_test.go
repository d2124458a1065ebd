package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"atelier/internal/core"
	contentmigrations "atelier/internal/features/content/migrations"
	contentservices "atelier/internal/features/content/services"
	imagemigrations "atelier/internal/features/images/migrations"
	imageservices "atelier/internal/features/images/services"
	wechatmigrations "atelier/internal/features/wechat/migrations"
)

const testCategory = "公众号导入"
const testAuthor = "AI创作者"

type testStores struct {
	db     *core.Database
	logger *core.Logger
	posts  *contentservices.PostService
	images *imageservices.ImageService
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	ctx := context.Background()
	logger := core.NewDiscardLogger()
	db, err := core.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, contentmigrations.NewManager(db, logger).Migrate(ctx))
	require.NoError(t, imagemigrations.NewManager(db, logger).Migrate(ctx))
	require.NoError(t, wechatmigrations.NewManager(db, logger).Migrate(ctx))

	return &testStores{
		db:     db,
		logger: logger,
		posts:  contentservices.NewPostService(db, logger),
		images: imageservices.NewImageService(db, logger),
	}
}

func (s *testStores) postCount(t *testing.T) int {
	t.Helper()
	count, err := s.posts.CountPosts(context.Background())
	require.NoError(t, err)
	return count
}

func (s *testStores) upserter(images CoverImporter) *Upserter {
	return NewUpserter(s.posts, images, NewHTMLSanitizer(), s.logger, testCategory, testAuthor)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.NRGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeCovers records cover requests and returns a fixed reference
type fakeCovers struct {
	mu    sync.Mutex
	urls  []string
	ref   string
	err   error
	panic string
}

func (f *fakeCovers) ImportRemoteImage(_ context.Context, sourceURL string) (string, error) {
	f.mu.Lock()
	f.urls = append(f.urls, sourceURL)
	f.mu.Unlock()

	if f.panic != "" && sourceURL == f.panic {
		panic("boom")
	}
	if sourceURL == "" {
		return "", nil
	}
	return f.ref, f.err
}

func (f *fakeCovers) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// countingTransport fails every request and counts attempts
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, http.ErrHandlerTimeout
}
