package models

import (
	"fmt"
	"time"
)

// Image is a stored binary image with its generated thumbnail
type Image struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	Size      int       `json:"size"`
	Original  []byte    `json:"-"`
	Thumbnail []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageCreate represents the data needed to store an image
type ImageCreate struct {
	FileName string
	MimeType string
	Data     []byte
}

// ImageURLs are the public addresses of a stored image
type ImageURLs struct {
	ID          int64  `json:"id"`
	ThumbURL    string `json:"thumbUrl"`
	FullURL     string `json:"fullUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// URLsFor builds the public addresses for image id
func URLsFor(id int64) ImageURLs {
	return ImageURLs{
		ID:          id,
		ThumbURL:    ThumbURL(id),
		FullURL:     fmt.Sprintf("/api/images/%d", id),
		DownloadURL: fmt.Sprintf("/api/images/%d/download", id),
	}
}

// ThumbURL is the relative thumbnail address stored as a cover reference
func ThumbURL(id int64) string {
	return fmt.Sprintf("/api/images/%d/thumb", id)
}
