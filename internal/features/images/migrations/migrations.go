package migrations

import "atelier/internal/core"

// Migration200CreateImagesTable creates the binary image store
var Migration200CreateImagesTable = core.Migration{
	Version:     200,
	Name:        "create_images_table",
	Description: "Create images table holding originals and JPEG thumbnails",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT,
			mime_type TEXT,
			size INTEGER,
			original BLOB,
			thumbnail BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`,
	DownSQL: `DROP TABLE IF EXISTS images;`,
}

// NewManager creates the migration manager for the images feature
func NewManager(db *core.Database, logger *core.Logger) *core.MigrationManager {
	return core.NewMigrationManager("images", db, logger, []core.Migration{
		Migration200CreateImagesTable,
	})
}
