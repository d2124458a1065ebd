package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"atelier/internal/core"
	imagemodels "atelier/internal/features/images/models"
	imageservices "atelier/internal/features/images/services"
)

const (
	imageFetchTimeout = 10 * time.Second
	maxImageBytes     = 20 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// ImageStore persists an image and its thumbnail
type ImageStore interface {
	Create(ctx context.Context, in *imagemodels.ImageCreate) (*imagemodels.Image, error)
}

// ImageImporter copies remote images into local storage
type ImageImporter struct {
	store  ImageStore
	client *http.Client
	logger *core.Logger
	now    func() time.Time
}

// NewImageImporter creates an importer. A nil httpClient gets a default with the fetch timeout.
func NewImageImporter(store ImageStore, logger *core.Logger, httpClient *http.Client) *ImageImporter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: imageFetchTimeout}
	}

	return &ImageImporter{
		store:  store,
		client: httpClient,
		logger: logger,
		now:    time.Now,
	}
}

// ImportRemoteImage downloads sourceURL, stores it with a thumbnail and returns
// the local thumbnail path. An empty sourceURL returns "" without any I/O.
func (i *ImageImporter) ImportRemoteImage(ctx context.Context, sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", nil
	}

	data, contentType, err := i.download(ctx, sourceURL)
	if err != nil {
		imageImportsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %w", ErrImageImport, err)
	}

	mimeType := imageservices.NormalizeMimeType(contentType)
	fileName := fmt.Sprintf("wechat-%d-%s.%s", i.now().UnixMilli(), uuid.NewString()[:8], imageservices.ExtensionFor(mimeType))

	image, err := i.store.Create(ctx, &imagemodels.ImageCreate{
		FileName: fileName,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		imageImportsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %w", ErrImageImport, err)
	}

	imageImportsTotal.WithLabelValues("ok").Inc()
	i.logger.Info("Imported remote image", "url", sourceURL, "image_id", image.ID, "mime_type", mimeType)
	return imagemodels.ThumbURL(image.ID), nil
}

func (i *ImageImporter) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, imageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("image returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image body is empty")
	}

	return data, resp.Header.Get("Content-Type"), nil
}
