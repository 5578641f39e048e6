package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Tier string

var (
	TierVeryLow  Tier = "VERY_LOW"
	TierLow      Tier = "LOW"
	TierNormal   Tier = "NORMAL"
	TierHigh     Tier = "HIGH"
	TierVeryHigh Tier = "VERY_HIGH"
)

// DefaultScore is returned when no metric row covers the context.
const DefaultScore = 50.0

// TierForScore maps a 0-100 score onto the qualitative tiers.
func TierForScore(score float64) Tier {
	switch {
	case score < 20:
		return TierVeryLow
	case score < 40:
		return TierLow
	case score < 65:
		return TierNormal
	case score < 80:
		return TierHigh
	default:
		return TierVeryHigh
	}
}

// DemandMetric is one aggregated funnel row per
// (metric_date, destination, service type). Broader rows leave the
// missing dimension null. Rows are upserted by the nightly aggregator
// and never deleted; the accumulated history is the platform's demand
// time series.
type DemandMetric struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	MetricDate    time.Time     `json:"metric_date" gorm:"not null;index:idx_demand_metrics_key"`
	DestinationID *snowflake.ID `json:"destination_id,omitempty" gorm:"index:idx_demand_metrics_key"`
	ServiceType   *string       `json:"service_type,omitempty" gorm:"type:text;index:idx_demand_metrics_key"`

	SearchCount       int     `json:"search_count" gorm:"not null;default:0"`
	InquiryCount      int     `json:"inquiry_count" gorm:"not null;default:0"`
	QuoteRequestCount int     `json:"quote_request_count" gorm:"not null;default:0"`
	QuotesGenerated   int     `json:"quotes_generated" gorm:"not null;default:0"`
	BookingsConfirmed int     `json:"bookings_confirmed" gorm:"not null;default:0"`
	TotalRevenue      float64 `json:"total_revenue" gorm:"type:numeric;not null;default:0"`
	AverageOrderValue float64 `json:"average_order_value" gorm:"type:numeric;not null;default:0"`

	AvailableInventory int     `json:"available_inventory" gorm:"not null;default:0"`
	BookedInventory    int     `json:"booked_inventory" gorm:"not null;default:0"`
	OccupancyRate      float64 `json:"occupancy_rate" gorm:"type:numeric;not null;default:0"`

	ConversionRate float64 `json:"conversion_rate" gorm:"type:numeric;not null;default:0"`
	DemandScore    float64 `json:"demand_score" gorm:"type:numeric;not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (DemandMetric) TableName() string { return "demand_metrics" }

// HasSignal reports whether any funnel counter carries data. An
// all-zero row scores as the global default rather than as zero demand.
func (m *DemandMetric) HasSignal() bool {
	return m.SearchCount > 0 ||
		m.InquiryCount > 0 ||
		m.QuoteRequestCount > 0 ||
		m.QuotesGenerated > 0 ||
		m.BookingsConfirmed > 0 ||
		m.BookedInventory > 0
}

// Baseline carries trailing-window averages used to normalise raw
// counters before weighting.
type Baseline struct {
	AvgInquiries  float64
	AvgConversion float64
}
