package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertLedger appends one adjustment row. A checksum collision
	// reports ok=false with a nil error.
	InsertLedger(ctx context.Context, db *gorm.DB, row *PriceAdjustment) (ok bool, err error)

	ListLedger(ctx context.Context, db *gorm.DB, query LedgerQuery) ([]PriceAdjustment, error)

	UpsertHistory(ctx context.Context, db *gorm.DB, row *PriceHistory) error

	HistorySeries(ctx context.Context, db *gorm.DB, query VolatilityQuery) ([]PriceHistory, error)
}
