package storage

import (
	"github.com/bradreaney/dnd-session-engine/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the sqlite database and keeps the schema updated
// via AutoMigrate. Tables are never dropped on startup; remove the DB
// file to start fresh.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Campaign{},
		&game.Character{},
		&game.Session{},
		&game.Message{},
		&game.NarrativeCacheEntry{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
