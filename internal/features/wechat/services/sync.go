package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
)

// DefaultMaxPages bounds how many listing pages one pass reads per source
const DefaultMaxPages = 5

// ContentFetcher lists upstream articles
type ContentFetcher interface {
	FetchPublished(ctx context.Context, offset, count int) ([]models.NewsContainer, error)
	FetchMaterials(ctx context.Context, offset, count int) ([]models.NewsContainer, error)
}

type fetchFunc func(ctx context.Context, offset, count int) ([]models.NewsContainer, error)

// SyncService runs sync passes and manual imports. Both hold the same lock,
// so a manual import never overlaps a scheduled pass.
type SyncService struct {
	fetcher  ContentFetcher
	upserter *Upserter
	pages    *PageFetcher
	logger   *core.Logger
	maxPages int
	now      func() time.Time

	mu sync.Mutex
}

// NewSyncService creates a sync service. A nil fetcher means credentials are
// not configured and sync passes do nothing; manual import still works.
func NewSyncService(fetcher ContentFetcher, upserter *Upserter, pages *PageFetcher, logger *core.Logger, maxPages int) *SyncService {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &SyncService{
		fetcher:  fetcher,
		upserter: upserter,
		pages:    pages,
		logger:   logger,
		maxPages: maxPages,
		now:      time.Now,
	}
}

// RunSyncPass imports every article upstream lists, preferring published
// articles and falling back to materials when none are returned.
// It never fails; problems are logged and summarised in the report.
func (s *SyncService) RunSyncPass(ctx context.Context) models.SyncReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := models.SyncReport{Source: models.SourceNone, StartedAt: s.now()}
	defer func() {
		report.FinishedAt = s.now()
		syncPassesTotal.WithLabelValues(string(report.Source)).Inc()
	}()

	if s.fetcher == nil {
		s.logger.Info("WeChat credentials not configured, skipping sync pass")
		report.Reason = "credentials not configured"
		return report
	}

	containers, err := s.collect(ctx, models.SourcePublished, s.fetcher.FetchPublished)
	source := models.SourcePublished
	if err == nil && len(containers) == 0 {
		s.logger.Info("No published articles, falling back to materials")
		containers, err = s.collect(ctx, models.SourceMaterials, s.fetcher.FetchMaterials)
		source = models.SourceMaterials
	}
	if err != nil {
		s.logger.Error("Sync pass aborted", "error", err)
		report.Aborted = true
		report.Reason = err.Error()
		return report
	}
	if len(containers) == 0 {
		s.logger.Info("Sync pass found no articles")
		return report
	}

	report.Source = source
	report.Containers = len(containers)

	for _, container := range containers {
		for _, item := range container.NewsItem {
			if ctx.Err() != nil {
				report.Aborted = true
				report.Reason = ctx.Err().Error()
				return report
			}
			report.Record(s.upsertOne(ctx, item.Article()))
		}
	}

	s.logger.Info("Sync pass completed",
		"source", report.Source,
		"containers", report.Containers,
		"created", report.Created,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report
}

// collect pages through one listing. A failed page ends the listing with what
// was read so far; only a token failure is returned.
func (s *SyncService) collect(ctx context.Context, source models.Source, fetch fetchFunc) ([]models.NewsContainer, error) {
	var all []models.NewsContainer
	for page := 0; page < s.maxPages; page++ {
		offset := page * PageSize
		batch, err := fetch(ctx, offset, PageSize)
		if errors.Is(err, ErrUpstreamAuth) {
			return nil, err
		}
		if err != nil {
			s.logger.Warn("Listing request failed", "source", source, "offset", offset, "error", err)
			break
		}

		all = append(all, batch...)
		if len(batch) < PageSize {
			break
		}
	}
	return all, nil
}

// upsertOne imports a single article; failures and panics count as failed
func (s *SyncService) upsertOne(ctx context.Context, article models.RemoteArticle) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic while importing article", "title", article.Title, "panic", r)
			outcome = models.OutcomeFailed
		}
		articlesTotal.WithLabelValues(string(outcome)).Inc()
	}()

	result, err := s.upserter.UpsertArticle(ctx, article)
	if err != nil {
		s.logger.Error("Failed to import article", "title", article.Title, "url", article.CanonicalURL, "error", err)
		return models.OutcomeFailed
	}
	return result.Outcome
}

// ImportSingleArticle imports one article from a page URL or pasted HTML.
// A link that is already stored returns the stored post with WasNew false.
func (s *SyncService) ImportSingleArticle(ctx context.Context, req models.ManualImportRequest) (*models.ImportResult, error) {
	pageURL := strings.TrimSpace(req.URL)
	raw := req.HTML
	if pageURL == "" && strings.TrimSpace(raw) == "" {
		return nil, ErrNoImportInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(raw) == "" {
		fetched, err := s.pages.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		raw = fetched
	}

	page, err := extractArticle(raw)
	if err != nil {
		return nil, err
	}
	if page.Title == "" || page.BodyHTML == "" {
		return nil, fmt.Errorf("%w: title=%t body=%t", ErrImportExtraction, page.Title != "", page.BodyHTML != "")
	}

	article := models.RemoteArticle{
		Title:        page.Title,
		Author:       page.Author,
		HTMLContent:  page.BodyHTML,
		ThumbnailURL: page.CoverURL,
		CanonicalURL: firstNonEmpty(pageURL, page.CanonicalURL),
	}

	if article.CanonicalURL != "" {
		existing, err := s.upserter.findExisting(ctx, article.CanonicalURL)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Manual import matched an existing post", "post_id", existing.ID, "url", article.CanonicalURL)
			articlesTotal.WithLabelValues(string(models.OutcomeDuplicate)).Inc()
			return &models.ImportResult{Article: existing, WasNew: false}, nil
		}
	}

	result, err := s.upserter.create(ctx, article)
	if err != nil {
		return nil, err
	}
	articlesTotal.WithLabelValues(string(result.Outcome)).Inc()

	return &models.ImportResult{Article: result.Post, WasNew: result.Outcome == models.OutcomeCreated}, nil
}
