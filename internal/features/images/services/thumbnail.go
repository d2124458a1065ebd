package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"mime"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// ThumbnailMaxWidth is the widest a thumbnail gets; narrower images keep their size
	ThumbnailMaxWidth = 800
	// ThumbnailQuality is the JPEG quality of generated thumbnails
	ThumbnailQuality = 75
	// DefaultMimeType is assumed when a source does not declare an allowed type
	DefaultMimeType = "image/jpeg"
)

// ErrUnsupportedMimeType is returned for uploads outside the allowed image types
var ErrUnsupportedMimeType = errors.New("unsupported image type")

var allowedMimeTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// IsAllowedMimeType reports whether mimeType may be stored
func IsAllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[mimeType]
	return ok
}

// NormalizeMimeType strips parameters from a Content-Type header and
// falls back to image/jpeg for anything outside the allowed set
func NormalizeMimeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	if !IsAllowedMimeType(mediaType) {
		return DefaultMimeType
	}
	return mediaType
}

// ExtensionFor returns the file extension for an allowed mime type
func ExtensionFor(mimeType string) string {
	if ext, ok := allowedMimeTypes[mimeType]; ok {
		return ext
	}
	return "jpg"
}

// MakeThumbnail decodes data, scales it down to ThumbnailMaxWidth keeping the
// aspect ratio, and re-encodes it as JPEG on a white background
func MakeThumbnail(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	if width > ThumbnailMaxWidth {
		height = height * ThumbnailMaxWidth / width
		width = ThumbnailMaxWidth
		if height == 0 {
			height = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if width == bounds.Dx() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}

	return buf.Bytes(), nil
}
