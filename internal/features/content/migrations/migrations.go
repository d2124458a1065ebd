package migrations

import "atelier/internal/core"

// Migration100CreateContentTables creates the portfolio and blog tables
var Migration100CreateContentTables = core.Migration{
	Version:     100,
	Name:        "create_content_tables",
	Description: "Create portfolios, blog_posts, comments, prompt_templates and site_profile tables",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS portfolios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			image_url TEXT,
			category TEXT,
			prompt TEXT,
			extra_images TEXT,
			is_featured INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS blog_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT,
			author TEXT DEFAULT 'AI创作者',
			cover_image TEXT,
			likes INTEGER NOT NULL DEFAULT 0,
			views INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			author_name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (post_id) REFERENCES blog_posts (id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS prompt_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			template TEXT NOT NULL,
			category TEXT,
			tags TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS site_profile (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			display_name TEXT NOT NULL,
			subtitle TEXT,
			bio TEXT,
			email TEXT,
			github TEXT,
			twitter TEXT,
			wechat TEXT,
			phone TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_portfolios_category ON portfolios(category);
		CREATE INDEX IF NOT EXISTS idx_blog_posts_category ON blog_posts(category);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS comments;
		DROP TABLE IF EXISTS blog_posts;
		DROP TABLE IF EXISTS portfolios;
		DROP TABLE IF EXISTS prompt_templates;
		DROP TABLE IF EXISTS site_profile;
	`,
}

// Migration101AddPostSourceURL records where imported posts came from
var Migration101AddPostSourceURL = core.Migration{
	Version:     101,
	Name:        "add_post_source_url",
	Description: "Add nullable source_url to blog_posts",
	UpSQL:       `ALTER TABLE blog_posts ADD COLUMN source_url TEXT;`,
	DownSQL:     `ALTER TABLE blog_posts DROP COLUMN source_url;`,
}

// NewManager creates the migration manager for the content feature
func NewManager(db *core.Database, logger *core.Logger) *core.MigrationManager {
	return core.NewMigrationManager("content", db, logger, []core.Migration{
		Migration100CreateContentTables,
		Migration101AddPostSourceURL,
	})
}
