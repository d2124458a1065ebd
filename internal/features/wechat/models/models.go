package models

import (
	"time"

	contentmodels "atelier/internal/features/content/models"
)

// NewsItem is one visible article inside an upstream news group
type NewsItem struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	Digest           string `json:"digest"`
	Content          string `json:"content"`
	ThumbURL         string `json:"thumb_url"`
	URL              string `json:"url"`
	ContentSourceURL string `json:"content_source_url"`
}

// Article converts the upstream record to the pipeline's article shape
func (n NewsItem) Article() RemoteArticle {
	return RemoteArticle{
		Title:        n.Title,
		Author:       n.Author,
		HTMLContent:  n.Content,
		Digest:       n.Digest,
		ThumbnailURL: n.ThumbURL,
		CanonicalURL: n.URL,
	}
}

// NewsContainer wraps the news items of one published message or material
type NewsContainer struct {
	NewsItem []NewsItem `json:"news_item"`
}

// RemoteArticle is an article as read from upstream, before it is stored
type RemoteArticle struct {
	Title        string
	Author       string
	HTMLContent  string
	Digest       string
	ThumbnailURL string
	CanonicalURL string
}

// Outcome is what an upsert did with one article
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Source names the upstream listing a sync pass read from
type Source string

const (
	SourceNone      Source = "none"
	SourcePublished Source = "published"
	SourceMaterials Source = "materials"
)

// SyncReport summarises one sync pass
type SyncReport struct {
	Source     Source    `json:"source"`
	Containers int       `json:"containers"`
	Created    int       `json:"created"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Aborted    bool      `json:"aborted"`
	Reason     string    `json:"reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Record counts one upsert outcome
func (r *SyncReport) Record(outcome Outcome) {
	switch outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeDuplicate:
		r.Duplicates++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// ManualImportRequest is the admin payload for importing a single article
type ManualImportRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// ImportResult is the stored article and whether this call created it
type ImportResult struct {
	Article *contentmodels.Post `json:"article"`
	WasNew  bool                `json:"was_new"`
}
