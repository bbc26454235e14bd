package storage

import (
	"os"
	"path/filepath"

	"github.com/ericogr/monster-battle/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenAndMigrate opens the SQLite art cache, creating its parent directory
// when needed, and keeps the schema updated via AutoMigrate. Use ":memory:"
// for an ephemeral database.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	if dataSourceName != ":memory:" {
		if dir := filepath.Dir(dataSourceName); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&game.CreatureArt{}); err != nil {
		return nil, err
	}
	return db, nil
}
