package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"atelier/internal/core"
	contentmodels "atelier/internal/features/content/models"
	contentservices "atelier/internal/features/content/services"
	"atelier/internal/features/wechat/models"
)

// EmptyContentPlaceholder is stored when an article has neither body nor digest
const EmptyContentPlaceholder = "<p>(内容为空)</p>"

// ArticleStore looks up and inserts blog posts
type ArticleStore interface {
	FindBySourceURL(ctx context.Context, sourceURL string) (*contentmodels.Post, error)
	CreatePost(ctx context.Context, in *contentmodels.PostCreate) (*contentmodels.Post, error)
}

// CoverImporter localises a remote cover image
type CoverImporter interface {
	ImportRemoteImage(ctx context.Context, sourceURL string) (string, error)
}

// UpsertResult is the outcome of one upsert and the post it refers to, if any
type UpsertResult struct {
	Outcome models.Outcome
	Post    *contentmodels.Post
}

// Upserter inserts remote articles that have not been imported before.
// Existing posts are never modified.
type Upserter struct {
	store         ArticleStore
	images        CoverImporter
	sanitizer     Sanitizer
	logger        *core.Logger
	category      string
	defaultAuthor string
}

// NewUpserter creates an upserter that files posts under category
func NewUpserter(store ArticleStore, images CoverImporter, sanitizer Sanitizer, logger *core.Logger, category, defaultAuthor string) *Upserter {
	return &Upserter{
		store:         store,
		images:        images,
		sanitizer:     sanitizer,
		logger:        logger,
		category:      category,
		defaultAuthor: defaultAuthor,
	}
}

// UpsertArticle stores article unless it lacks a title or link, or its link is already stored
func (u *Upserter) UpsertArticle(ctx context.Context, article models.RemoteArticle) (*UpsertResult, error) {
	article.Title = strings.TrimSpace(article.Title)
	article.CanonicalURL = strings.TrimSpace(article.CanonicalURL)

	if article.Title == "" || article.CanonicalURL == "" {
		u.logger.Warn("Skipping article without title or link", "title", article.Title, "url", article.CanonicalURL)
		return &UpsertResult{Outcome: models.OutcomeSkipped}, nil
	}

	existing, err := u.findExisting(ctx, article.CanonicalURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		u.logger.Debug("Article already imported", "post_id", existing.ID, "url", article.CanonicalURL)
		return &UpsertResult{Outcome: models.OutcomeDuplicate, Post: existing}, nil
	}

	return u.create(ctx, article)
}

// findExisting returns the stored post for sourceURL, or nil when there is none
func (u *Upserter) findExisting(ctx context.Context, sourceURL string) (*contentmodels.Post, error) {
	post, err := u.store.FindBySourceURL(ctx, sourceURL)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", sourceURL, err)
	}
	return post, nil
}

// create inserts article. A concurrent insert of the same link yields a duplicate outcome.
func (u *Upserter) create(ctx context.Context, article models.RemoteArticle) (*UpsertResult, error) {
	cover, err := u.images.ImportRemoteImage(ctx, article.ThumbnailURL)
	if err != nil {
		u.logger.Warn("Cover image import failed, continuing without cover", "title", article.Title, "error", err)
		cover = ""
	}

	author := strings.TrimSpace(article.Author)
	if author == "" {
		author = u.defaultAuthor
	}

	post, err := u.store.CreatePost(ctx, &contentmodels.PostCreate{
		Title:      article.Title,
		Content:    u.content(article),
		Category:   u.category,
		Author:     author,
		CoverImage: cover,
		SourceURL:  article.CanonicalURL,
	})
	if errors.Is(err, contentservices.ErrDuplicateSource) {
		existing, findErr := u.findExisting(ctx, article.CanonicalURL)
		if findErr != nil {
			return nil, findErr
		}
		return &UpsertResult{Outcome: models.OutcomeDuplicate, Post: existing}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store article %q: %w", article.Title, err)
	}

	u.logger.Info("Imported article", "post_id", post.ID, "title", post.Title, "url", article.CanonicalURL)
	return &UpsertResult{Outcome: models.OutcomeCreated, Post: post}, nil
}

// content is the sanitized body, else the escaped digest, else a placeholder
func (u *Upserter) content(article models.RemoteArticle) string {
	if body := u.sanitizer.Sanitize(article.HTMLContent); body != "" {
		return body
	}
	if digest := strings.TrimSpace(article.Digest); digest != "" {
		return "<p>" + html.EscapeString(digest) + "</p>"
	}
	return EmptyContentPlaceholder
}
