package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestImportRemoteImageEmptyURLDoesNothing(t *testing.T) {
	stores := newTestStores(t)
	transport := &countingTransport{}
	importer := NewImageImporter(stores.images, stores.logger, &http.Client{Transport: transport})

	for _, url := range []string{"", "   "} {
		ref, err := importer.ImportRemoteImage(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "", ref)
	}

	assert.Equal(t, int32(0), transport.calls.Load())
	var images int
	require.NoError(t, stores.db.QueryRowWithTimeout(context.Background(), `SELECT COUNT(*) FROM images`, nil, &images))
	assert.Equal(t, 0, images)
}

func TestImportRemoteImageFallsBackToJPEG(t *testing.T) {
	stores := newTestStores(t)
	server := imageServer(t, "application/octet-stream", pngBytes(t, 40, 30))
	importer := NewImageImporter(stores.images, stores.logger, nil)

	ref, err := importer.ImportRemoteImage(context.Background(), server.URL+"/cover")
	require.NoError(t, err)
	assert.Equal(t, "/api/images/1/thumb", ref)

	image, err := stores.images.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", image.MimeType)
	assert.True(t, strings.HasPrefix(image.FileName, "wechat-"), image.FileName)
	assert.True(t, strings.HasSuffix(image.FileName, ".jpg"), image.FileName)

	thumb, err := stores.images.GetThumbnail(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, thumb)
}

func TestImportRemoteImageKeepsAllowedType(t *testing.T) {
	stores := newTestStores(t)
	server := imageServer(t, "image/png; charset=binary", pngBytes(t, 10, 10))
	importer := NewImageImporter(stores.images, stores.logger, nil)

	_, err := importer.ImportRemoteImage(context.Background(), server.URL)
	require.NoError(t, err)

	image, err := stores.images.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "image/png", image.MimeType)
	assert.True(t, strings.HasSuffix(image.FileName, ".png"))
}

func TestImportRemoteImageFilenamesAreUnique(t *testing.T) {
	stores := newTestStores(t)
	server := imageServer(t, "image/png", pngBytes(t, 4, 4))
	importer := NewImageImporter(stores.images, stores.logger, nil)

	for i := 0; i < 2; i++ {
		_, err := importer.ImportRemoteImage(context.Background(), server.URL)
		require.NoError(t, err)
	}

	first, err := stores.images.Get(context.Background(), 1)
	require.NoError(t, err)
	second, err := stores.images.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.FileName, second.FileName)
}

func TestImportRemoteImageFailures(t *testing.T) {
	stores := newTestStores(t)
	importer := NewImageImporter(stores.images, stores.logger, nil)

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	notImage := imageServer(t, "text/html", []byte("<html>blocked</html>"))

	for name, url := range map[string]string{
		"not found":   missing.URL,
		"not decoded": notImage.URL,
		"bad url":     "http://[::1]:namedport",
	} {
		t.Run(name, func(t *testing.T) {
			ref, err := importer.ImportRemoteImage(context.Background(), url)
			assert.ErrorIs(t, err, ErrImageImport)
			assert.Equal(t, "", ref)
		})
	}
}
