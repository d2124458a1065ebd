package models

import "time"

// Portfolio is a showcased artwork
type Portfolio struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	Prompt      string    `json:"prompt"`
	ExtraImages *string   `json:"extra_images"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
}

// PortfolioInput is the admin payload for creating or replacing a portfolio
type PortfolioInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	Prompt      string  `json:"prompt"`
	ExtraImages *string `json:"extra_images"`
	IsFeatured  bool    `json:"is_featured"`
}

// PortfolioFilter narrows portfolio listings
type PortfolioFilter struct {
	Category string
	Featured bool
	Limit    int
}

// Post is a blog article, either authored here or imported from a public account
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Author     string    `json:"author"`
	CoverImage string    `json:"cover_image"`
	SourceURL  *string   `json:"source_url"`
	Likes      int       `json:"likes"`
	Views      int       `json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostInput is the admin payload for writing a post
type PostInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	CoverImage string `json:"cover_image"`
}

// PostCreate carries every column settable on insert.
// An empty Author takes the column default; an empty SourceURL stores NULL.
type PostCreate struct {
	Title      string
	Content    string
	Category   string
	Author     string
	CoverImage string
	SourceURL  string
	Likes      int
	Views      int
}

// Comment is a reader comment on a post
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentInput is the public payload for posting a comment
type CommentInput struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// PromptTemplate is a saved prompt
type PromptTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	Category  string    `json:"category"`
	Tags      string    `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// PromptTemplateInput is the payload for saving a prompt
type PromptTemplateInput struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

// Profile is the single site-owner profile row
type Profile struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Subtitle    string    `json:"subtitle"`
	Bio         string    `json:"bio"`
	Email       string    `json:"email"`
	Github      string    `json:"github"`
	Twitter     string    `json:"twitter"`
	Wechat      string    `json:"wechat"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileInput is the admin payload for the profile
type ProfileInput struct {
	DisplayName string `json:"display_name"`
	Subtitle    string `json:"subtitle"`
	Bio         string `json:"bio"`
	Email       string `json:"email"`
	Github      string `json:"github"`
	Twitter     string `json:"twitter"`
	Wechat      string `json:"wechat"`
	Phone       string `json:"phone"`
}
