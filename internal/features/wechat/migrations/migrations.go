package migrations

import (
	"atelier/internal/core"
)

// Migration300UniqueSourceURL keeps at most one imported post per upstream link
var Migration300UniqueSourceURL = core.Migration{
	Version:     300,
	Name:        "unique_post_source_url",
	Description: "Add unique index on blog_posts.source_url",
	UpSQL: `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_blog_posts_source_url
			ON blog_posts(source_url) WHERE source_url IS NOT NULL;
	`,
	DownSQL: `DROP INDEX IF EXISTS idx_blog_posts_source_url;`,
}

// NewManager returns the migration manager for the wechat feature.
// It must run after the content migrations that create blog_posts.
func NewManager(db *core.Database, logger *core.Logger) *core.MigrationManager {
	return core.NewMigrationManager("wechat", db, logger, []core.Migration{
		Migration300UniqueSourceURL,
	})
}
