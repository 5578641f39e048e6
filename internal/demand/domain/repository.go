package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByKey(ctx context.Context, db *gorm.DB, day time.Time, destinationID *snowflake.ID, serviceType *string) (*DemandMetric, error)
	Upsert(ctx context.Context, db *gorm.DB, metric *DemandMetric) error
	BaselineAverages(ctx context.Context, db *gorm.DB, day time.Time, destinationID *snowflake.ID, serviceType *string, window int) (Baseline, error)
	History(ctx context.Context, db *gorm.DB, query HistoryQuery) ([]DemandMetric, error)
}

// FunnelSource reads the upstream funnel tables the aggregator tallies.
type FunnelSource interface {
	Dimensions(ctx context.Context, db *gorm.DB, day time.Time) ([]Dimension, error)
	Counters(ctx context.Context, db *gorm.DB, day time.Time, dim Dimension) (FunnelCounters, error)
}

// Dimension is one (destination, service type) aggregation target.
// Either side may be nil for the broader rollup rows.
type Dimension struct {
	DestinationID *snowflake.ID
	ServiceType   *string
}
