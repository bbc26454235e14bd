package storage

import (
	"errors"

	"github.com/ericogr/monster-battle/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) GetArtByKey(key string) (*game.CreatureArt, error) {
	var a game.CreatureArt
	if err := r.db.Where("art_key = ?", key).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// SaveArt upserts keyed by `art_key` so a placeholder row can later be replaced
// by generated art for the same description.
func (r *sqliteRepository) SaveArt(art *game.CreatureArt) error {
	if art == nil || art.Key == "" {
		return gorm.ErrInvalidData
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "art_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "placeholder", "image_png", "updated_at"}),
	}).Create(art).Error
}

func (r *sqliteRepository) CountArt() (int64, error) {
	var n int64
	err := r.db.Model(&game.CreatureArt{}).Count(&n).Error
	return n, err
}
