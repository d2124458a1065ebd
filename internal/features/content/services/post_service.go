package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

// DefaultPostLimit is the page size when a listing does not ask for one
const DefaultPostLimit = 10

// ErrDuplicateSource is returned when a post with the same source URL already exists
var ErrDuplicateSource = errors.New("post with this source url already exists")

const postColumns = `id, title, content, COALESCE(category, ''), COALESCE(author, ''), COALESCE(cover_image, ''),
	source_url, likes, views, created_at, updated_at`

// PostService handles blog post operations
type PostService struct {
	db     *core.Database
	logger *core.Logger
	now    func() time.Time
}

// NewPostService creates a new post service
func NewPostService(db *core.Database, logger *core.Logger) *PostService {
	return &PostService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var sourceURL sql.NullString
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.Category, &post.Author, &post.CoverImage,
		&sourceURL, &post.Likes, &post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sourceURL.Valid {
		post.SourceURL = &sourceURL.String
	}
	return &post, nil
}

// ListPosts returns the newest posts, optionally within one category
func (s *PostService) ListPosts(ctx context.Context, category string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}

	query := `SELECT ` + postColumns + ` FROM blog_posts`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer cancel()
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	return s.getOne(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
}

// FindBySourceURL returns the post imported from sourceURL, or core.ErrNotFound
func (s *PostService) FindBySourceURL(ctx context.Context, sourceURL string) (*models.Post, error) {
	return s.getOne(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE source_url = ? LIMIT 1`, sourceURL)
}

func (s *PostService) getOne(ctx context.Context, query string, arg interface{}) (*models.Post, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	post, err := scanPost(s.db.QueryRowContext(queryCtx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ViewPost returns a post after counting one more view
func (s *PostService) ViewPost(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecWithTimeout(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	post.Views++

	return post, nil
}

// CreatePost inserts a post. A UNIQUE violation on source_url maps to ErrDuplicateSource.
func (s *PostService) CreatePost(ctx context.Context, in *models.PostCreate) (*models.Post, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("post title is required")
	}

	now := s.now()
	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		Category:   in.Category,
		Author:     in.Author,
		CoverImage: in.CoverImage,
		Likes:      in.Likes,
		Views:      in.Views,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var sourceURL interface{}
	if in.SourceURL != "" {
		sourceURL = in.SourceURL
		post.SourceURL = &in.SourceURL
	}

	var author interface{}
	if in.Author != "" {
		author = in.Author
	}

	query := `
		INSERT INTO blog_posts (title, content, category, author, cover_image, source_url, likes, views, created_at, updated_at)
		VALUES (?, ?, ?, COALESCE(?, 'AI创作者'), ?, ?, ?, ?, ?, ?)
		RETURNING id, author
	`
	args := []interface{}{in.Title, in.Content, in.Category, author, in.CoverImage, sourceURL, in.Likes, in.Views, now, now}
	if err := s.db.QueryRowWithTimeout(ctx, query, args, &post.ID, &post.Author); err != nil {
		if core.IsUniqueViolation(err) {
			return nil, ErrDuplicateSource
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("Created post", "id", post.ID, "title", post.Title, "category", post.Category)
	return post, nil
}

// UpdatePost replaces the editable fields of a post
func (s *PostService) UpdatePost(ctx context.Context, id int64, in *models.PostInput) error {
	query := `
		UPDATE blog_posts
		SET title = ?, content = ?, category = ?, cover_image = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecWithTimeout(ctx, query, in.Title, in.Content, in.Category, in.CoverImage, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return requireAffected(result)
}

// DeletePost removes a post and, through the foreign key, its comments
func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecWithTimeout(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := requireAffected(result); err != nil {
		return err
	}

	s.logger.Info("Deleted post", "id", id)
	return nil
}

// LikePost adds one like and returns the new total
func (s *PostService) LikePost(ctx context.Context, id int64) (int, error) {
	var likes int
	err := s.db.QueryRowWithTimeout(ctx, `UPDATE blog_posts SET likes = likes + 1 WHERE id = ? RETURNING likes`, []interface{}{id}, &likes)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to like post: %w", err)
	}

	return likes, nil
}

// CountPosts returns the number of stored posts
func (s *PostService) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM blog_posts`, nil, &count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}
