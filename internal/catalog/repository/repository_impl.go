package repository

import (
	"context"

	catalogdomain "github.com/voyara/voyara/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, lastID int64, limit int) ([]catalogdomain.TravelService, error) {
	var rows []catalogdomain.TravelService
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
