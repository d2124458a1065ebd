package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"atelier/internal/core"
	"atelier/internal/features/content/models"
)

const (
	maxCommentAuthorLength = 100
	maxCommentLength       = 5000
)

// ErrInvalidComment is returned when a comment is empty after markup is stripped
var ErrInvalidComment = errors.New("comment author and content are required")

// CommentService handles reader comments
type CommentService struct {
	db     *core.Database
	logger *core.Logger
	strict *bluemonday.Policy
}

// NewCommentService creates a new comment service
func NewCommentService(db *core.Database, logger *core.Logger) *CommentService {
	return &CommentService{
		db:     db,
		logger: logger,
		strict: bluemonday.StrictPolicy(),
	}
}

const maxStripPasses = 4

// StripMarkup removes every tag and returns plain text. Entity-encoded tags
// are decoded and stripped again until the text stops changing; input that
// never settles is returned in its escaped form.
func (s *CommentService) StripMarkup(text string) string {
	for range maxStripPasses {
		stripped := html.UnescapeString(s.strict.Sanitize(text))
		if stripped == text {
			return strings.TrimSpace(stripped)
		}
		text = stripped
	}
	return strings.TrimSpace(s.strict.Sanitize(text))
}

// ListComments returns a post's comments newest first
func (s *CommentService) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	query := `
		SELECT id, post_id, author_name, content, created_at
		FROM comments
		WHERE post_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer cancel()
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// CreateComment stores a comment with all markup stripped.
// A missing post yields core.ErrNotFound.
func (s *CommentService) CreateComment(ctx context.Context, postID int64, in *models.CommentInput) (*models.Comment, error) {
	author := truncateRunes(s.StripMarkup(in.AuthorName), maxCommentAuthorLength)
	content := truncateRunes(s.StripMarkup(in.Content), maxCommentLength)
	if author == "" || content == "" {
		return nil, ErrInvalidComment
	}

	var exists int
	if err := s.db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM blog_posts WHERE id = ?`, []interface{}{postID}, &exists); err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if exists == 0 {
		return nil, core.ErrNotFound
	}

	comment := &models.Comment{
		PostID:     postID,
		AuthorName: author,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	query := `INSERT INTO comments (post_id, author_name, content, created_at) VALUES (?, ?, ?, ?) RETURNING id`
	if err := s.db.QueryRowWithTimeout(ctx, query, []interface{}{postID, author, content, comment.CreatedAt}, &comment.ID); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("Created comment", "id", comment.ID, "post_id", postID)
	return comment, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
