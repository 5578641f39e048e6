package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// RecordTrace appends one ledger row per trace entry, all sharing
	// the decision's adjustment date and provenance. Replays of the
	// same decision are absorbed row by row and return nil.
	RecordTrace(ctx context.Context, decision Decision) error

	// ListByService returns the ledger chain for a service ordered by
	// id, optionally narrowed to one adjustment date.
	ListByService(ctx context.Context, query LedgerQuery) ([]PriceAdjustment, error)

	// SnapshotPrice upserts the daily effective price for a service.
	SnapshotPrice(ctx context.Context, snap Snapshot) error

	// Volatility summarises price movement for a service over a window.
	Volatility(ctx context.Context, query VolatilityQuery) (VolatilityReport, error)
}

// Decision is one completed calculation handed to the ledger.
type Decision struct {
	ServiceType string
	ServiceID   snowflake.ID
	ServiceName string

	TravelDate     time.Time
	AdjustmentDate time.Time

	QuoteID     *snowflake.ID
	BookingID   *snowflake.ID
	TriggeredBy TriggeredBy
	ApprovedBy  *string

	AppliedRules []AppliedRule
}

type LedgerQuery struct {
	ServiceID      snowflake.ID
	AdjustmentDate *time.Time
	Limit          int
}

type Snapshot struct {
	ServiceType   string
	ServiceID     snowflake.ID
	RecordDate    time.Time
	BasePrice     float64
	AdjustedPrice float64
}

type VolatilityQuery struct {
	ServiceID snowflake.ID
	From      time.Time
	To        time.Time
}

// VolatilityReport aggregates the snapshot series; Swing is the
// max-min spread and StdDev the population standard deviation of the
// adjusted price.
type VolatilityReport struct {
	ServiceID snowflake.ID `json:"service_id"`
	From      time.Time    `json:"from"`
	To        time.Time    `json:"to"`
	Days      int          `json:"days"`
	MinPrice  float64      `json:"min_price"`
	MaxPrice  float64      `json:"max_price"`
	AvgPrice  float64      `json:"avg_price"`
	Swing     float64      `json:"swing"`
	StdDev    float64      `json:"std_dev"`
}

var (
	ErrInvalidServiceID = errors.New("invalid_service_id")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrInvalidPrice     = errors.New("invalid_price")
)
