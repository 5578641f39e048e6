package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TriggeredBy records which actor caused a price calculation.
type TriggeredBy string

var (
	TriggeredByCron         TriggeredBy = "cron"
	TriggeredByAdmin        TriggeredBy = "admin"
	TriggeredByQuoteBuilder TriggeredBy = "quote_builder"
)

// AppliedRule is one step of a calculation trace. PriceBefore and
// PriceAfter bracket the single rule so the full chain can be
// replayed from the ledger.
type AppliedRule struct {
	RuleID          snowflake.ID `json:"rule_id"`
	RuleName        string       `json:"rule_name"`
	RuleType        string       `json:"rule_type"`
	AdjustmentType  string       `json:"adjustment_type"`
	AdjustmentValue float64      `json:"adjustment_value"`
	PriceBefore     float64      `json:"price_before"`
	PriceAfter      float64      `json:"price_after"`
}

// PriceAdjustment is one ledger row per rule application. Rows are
// append-only and never mutated; the full chain for one pricing
// decision is recovered by (service_id, adjustment_date) ordered by
// id. The rule effect is denormalised onto the row so the ledger
// stays readable after the rule itself is edited or deactivated.
type PriceAdjustment struct {
	ID snowflake.ID `json:"id" gorm:"primaryKey"`

	ServiceType string       `json:"service_type" gorm:"type:text;not null"`
	ServiceID   snowflake.ID `json:"service_id" gorm:"not null;index:idx_price_adjustments_decision"`
	ServiceName string       `json:"service_name" gorm:"type:text"`

	RuleID          snowflake.ID `json:"rule_id" gorm:"not null;index"`
	RuleName        string       `json:"rule_name" gorm:"type:text;not null"`
	RuleType        string       `json:"rule_type" gorm:"type:text;not null"`
	AdjustmentType  string       `json:"adjustment_type" gorm:"type:text;not null"`
	AdjustmentValue float64      `json:"adjustment_value" gorm:"type:numeric;not null"`

	OriginalPrice float64 `json:"original_price" gorm:"type:numeric;not null"`
	AdjustedPrice float64 `json:"adjusted_price" gorm:"type:numeric;not null"`

	AdjustmentDate time.Time `json:"adjustment_date" gorm:"not null;index:idx_price_adjustments_decision"`
	TravelDate     time.Time `json:"travel_date" gorm:"not null"`

	QuoteID     *snowflake.ID `json:"quote_id,omitempty"`
	BookingID   *snowflake.ID `json:"booking_id,omitempty"`
	TriggeredBy TriggeredBy   `json:"triggered_by" gorm:"type:text;not null"`
	ApprovedBy  *string       `json:"approved_by,omitempty" gorm:"type:text"`

	Checksum  string    `json:"-" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceAdjustment) TableName() string { return "price_adjustments" }

// PriceHistory is the one-per-day effective price snapshot for a
// service, kept independent of the ledger's per-rule granularity so
// volatility statistics read a fixed-size series.
type PriceHistory struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ServiceType string       `json:"service_type" gorm:"type:text;not null"`
	ServiceID   snowflake.ID `json:"service_id" gorm:"not null;uniqueIndex:idx_price_history_service_date"`
	RecordDate  time.Time    `json:"record_date" gorm:"not null;uniqueIndex:idx_price_history_service_date"`

	BasePrice     float64 `json:"base_price" gorm:"type:numeric;not null"`
	AdjustedPrice float64 `json:"adjusted_price" gorm:"type:numeric;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceHistory) TableName() string { return "price_history" }
