package domain

import (
	"context"
	"errors"
	"time"

	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
)

type Service interface {
	// Calculate prices one service for one travel date and records
	// the applied-rule trace in the adjustment ledger.
	Calculate(ctx context.Context, req CalculateRequest) (*CalculationResult, error)

	// Simulate prices each day of an inclusive date range without
	// touching the ledger.
	Simulate(ctx context.Context, req SimulateRequest) (*SimulationResult, error)
}

// PricingContext carries the caller-supplied scope shared by both
// operations. IDs arrive as strings from the wire and are parsed by
// the service.
type PricingContext struct {
	ServiceType   string  `json:"service_type" binding:"required"`
	ServiceID     string  `json:"service_id" binding:"required"`
	ServiceName   string  `json:"service_name"`
	BasePrice     float64 `json:"base_price" binding:"required"`
	Currency      string  `json:"currency"`
	DestinationID *string `json:"destination_id,omitempty"`
	SupplierID    *string `json:"supplier_id,omitempty"`
	PaxCount      int     `json:"pax_count"`
	LoyaltyTier   string  `json:"loyalty_tier"`
	AgencyID      *string `json:"agency_id,omitempty"`
}

type CalculateRequest struct {
	PricingContext

	TravelDate    time.Time `json:"travel_date" binding:"required"`
	QuoteID       *string   `json:"quote_id,omitempty"`
	BookingID     *string   `json:"booking_id,omitempty"`
	TriggeredBy   string    `json:"triggered_by"`
	ApprovedBy    *string   `json:"approved_by,omitempty"`
	AutoApplyOnly bool      `json:"auto_apply_only"`
}

type SimulateRequest struct {
	PricingContext

	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

type CalculationResult struct {
	OriginalPrice  float64                        `json:"original_price"`
	FinalPrice     float64                        `json:"final_price"`
	Currency       string                         `json:"currency"`
	Savings        float64                        `json:"savings"`
	SavingsPercent float64                        `json:"savings_percent"`
	DemandScore    float64                        `json:"demand_score"`
	DemandTier     demanddomain.Tier              `json:"demand_tier"`
	SeasonName     string                         `json:"season_name"`
	AppliedRules   []adjustmentdomain.AppliedRule `json:"applied_rules"`
}

type DailyPrice struct {
	Date         time.Time `json:"date"`
	BasePrice    float64   `json:"base_price"`
	FinalPrice   float64   `json:"final_price"`
	DemandScore  float64   `json:"demand_score"`
	RulesApplied int       `json:"rules_applied"`
}

type SimulationSummary struct {
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	AvgPrice   float64 `json:"avg_price"`
	PriceRange float64 `json:"price_range"`
	DatesCount int     `json:"dates_count"`
}

type SimulationResult struct {
	Summary      SimulationSummary `json:"summary"`
	DailyPricing []DailyPrice      `json:"daily_pricing"`
}

// SimulateMaxDays caps the inclusive range accepted by Simulate.
const SimulateMaxDays = 366

var (
	ErrInvalidServiceType = errors.New("invalid_service_type")
	ErrInvalidServiceID   = errors.New("invalid_service_id")
	ErrInvalidBasePrice   = errors.New("invalid_base_price")
	ErrInvalidTravelDate  = errors.New("invalid_travel_date")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
	ErrRangeTooWide       = errors.New("date_range_too_wide")
	ErrInvalidTriggeredBy = errors.New("invalid_triggered_by")
)
