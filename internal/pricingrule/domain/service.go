package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req SaveRequest) (*PricingRule, error)
	Update(ctx context.Context, id string, req SaveRequest) (*PricingRule, error)
	Deactivate(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*PricingRule, error)
	List(ctx context.Context, filter ListFilter) ([]PricingRule, error)
	Match(ctx context.Context, query MatchQuery) ([]PricingRule, error)
}

type SaveRequest struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	RuleType        RuleType       `json:"rule_type"`
	ServiceType     *string        `json:"service_type"`
	DestinationID   *string        `json:"destination_id"`
	SupplierID      *string        `json:"supplier_id"`
	ServiceID       *string        `json:"service_id"`
	Conditions      map[string]any `json:"conditions"`
	AdjustmentType  AdjustmentType `json:"adjustment_type"`
	AdjustmentValue *float64       `json:"adjustment_value"`
	MinPrice        *float64       `json:"min_price"`
	MaxPrice        *float64       `json:"max_price"`
	ValidFrom       *time.Time     `json:"valid_from"`
	ValidTo         *time.Time     `json:"valid_to"`
	DaysOfWeek      []int          `json:"days_of_week"`
	Priority        *int           `json:"priority"`
	IsActive        *bool          `json:"is_active"`
	IsAutoApply     *bool          `json:"is_auto_apply"`
}

type ListFilter struct {
	RuleType    RuleType
	ServiceType string
	ActiveOnly  bool
}

// MatchQuery is the pricing context a rule set is narrowed against.
type MatchQuery struct {
	ServiceType   string
	ServiceID     snowflake.ID
	DestinationID *snowflake.ID
	SupplierID    *snowflake.ID
	Date          time.Time
	AutoApplyOnly bool
}

var (
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidRuleType        = errors.New("invalid_rule_type")
	ErrInvalidAdjustmentType  = errors.New("invalid_adjustment_type")
	ErrInvalidAdjustmentValue = errors.New("invalid_adjustment_value")
	ErrInvalidPriceBounds     = errors.New("invalid_price_bounds")
	ErrInvalidValidityWindow  = errors.New("invalid_validity_window")
	ErrInvalidDaysOfWeek      = errors.New("invalid_days_of_week")
	ErrMalformedConditions    = errors.New("malformed_conditions")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
)
