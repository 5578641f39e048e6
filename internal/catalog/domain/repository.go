package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// ListActive pages through active catalog rows ordered by id.
	// Pass lastID 0 to start; an empty page ends the scan.
	ListActive(ctx context.Context, db *gorm.DB, lastID int64, limit int) ([]TravelService, error)
}
