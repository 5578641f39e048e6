package repository

import (
	"context"
	"errors"
	"time"

	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"github.com/voyara/voyara/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() adjustmentdomain.Repository {
	return &repo{}
}

func (r *repo) InsertLedger(ctx context.Context, tx *gorm.DB, row *adjustmentdomain.PriceAdjustment) (bool, error) {
	err := tx.WithContext(ctx).Create(row).Error
	if err == nil {
		return true, nil
	}
	if db.IsDuplicateKeyErr(err) {
		return false, nil
	}
	return false, err
}

func (r *repo) ListLedger(ctx context.Context, tx *gorm.DB, query adjustmentdomain.LedgerQuery) ([]adjustmentdomain.PriceAdjustment, error) {
	stmt := tx.WithContext(ctx).
		Model(&adjustmentdomain.PriceAdjustment{}).
		Where("service_id = ?", query.ServiceID)

	if query.AdjustmentDate != nil {
		stmt = stmt.Where("adjustment_date = ?", query.AdjustmentDate.UTC().Truncate(24*time.Hour))
	}
	if query.Limit > 0 {
		stmt = stmt.Limit(query.Limit)
	}

	var rows []adjustmentdomain.PriceAdjustment
	if err := stmt.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertHistory keeps one row per (service, date). The natural key has
// no nullable columns so the lookup-then-save path stays simple and
// portable across the supported dialects.
func (r *repo) UpsertHistory(ctx context.Context, tx *gorm.DB, row *adjustmentdomain.PriceHistory) error {
	var existing adjustmentdomain.PriceHistory
	err := tx.WithContext(ctx).
		Where("service_id = ? AND record_date = ?", row.ServiceID, row.RecordDate).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.WithContext(ctx).Create(row).Error
		}
		return err
	}

	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	return tx.WithContext(ctx).Save(row).Error
}

func (r *repo) HistorySeries(ctx context.Context, tx *gorm.DB, query adjustmentdomain.VolatilityQuery) ([]adjustmentdomain.PriceHistory, error) {
	var rows []adjustmentdomain.PriceHistory
	err := tx.WithContext(ctx).
		Where("service_id = ?", query.ServiceID).
		Where("record_date >= ? AND record_date <= ?",
			query.From.UTC().Truncate(24*time.Hour),
			query.To.UTC().Truncate(24*time.Hour),
		).
		Order("record_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
