package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RuleType string

var (
	Seasonal    RuleType = "seasonal"
	Demand      RuleType = "demand"
	EarlyBird   RuleType = "early_bird"
	LastMinute  RuleType = "last_minute"
	Group       RuleType = "group"
	Loyalty     RuleType = "loyalty"
	Promotional RuleType = "promotional"
	Weekend     RuleType = "weekend"
	PeakDay     RuleType = "peak_day"
)

type AdjustmentType string

var (
	Percentage  AdjustmentType = "percentage"
	FixedAmount AdjustmentType = "fixed_amount"
)

// PricingRule is one price-adjustment rule. Scope columns are nullable;
// a null column matches every context (wildcard).
type PricingRule struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name            string            `json:"name" gorm:"type:text;not null"`
	Description     string            `json:"description,omitempty" gorm:"type:text"`
	RuleType        RuleType          `json:"rule_type" gorm:"type:text;not null;index"`
	ServiceType     *string           `json:"service_type,omitempty" gorm:"type:text;index"`
	DestinationID   *snowflake.ID     `json:"destination_id,omitempty" gorm:"index"`
	SupplierID      *snowflake.ID     `json:"supplier_id,omitempty"`
	ServiceID       *snowflake.ID     `json:"service_id,omitempty" gorm:"index"`
	Conditions      datatypes.JSONMap `json:"conditions,omitempty" gorm:"type:jsonb"`
	AdjustmentType  AdjustmentType    `json:"adjustment_type" gorm:"type:text;not null"`
	AdjustmentValue float64           `json:"adjustment_value" gorm:"not null"`
	MinPrice        *float64          `json:"min_price,omitempty" gorm:"type:numeric"`
	MaxPrice        *float64          `json:"max_price,omitempty" gorm:"type:numeric"`
	ValidFrom       *time.Time        `json:"valid_from,omitempty"`
	ValidTo         *time.Time        `json:"valid_to,omitempty"`
	DaysOfWeek      *string           `json:"days_of_week,omitempty" gorm:"type:text"`
	Priority        int               `json:"priority" gorm:"not null;default:100;index"`
	IsActive        bool              `json:"is_active" gorm:"not null;default:true"`
	IsAutoApply     bool              `json:"is_auto_apply" gorm:"not null;default:true"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PricingRule) TableName() string { return "pricing_rules" }

// AppliesOn reports whether the rule is valid for the given day,
// checking the validity window and the day-of-week set.
func (r *PricingRule) AppliesOn(day time.Time) bool {
	day = day.UTC().Truncate(24 * time.Hour)
	if r.ValidFrom != nil && day.Before(r.ValidFrom.UTC().Truncate(24*time.Hour)) {
		return false
	}
	if r.ValidTo != nil && day.After(r.ValidTo.UTC().Truncate(24*time.Hour)) {
		return false
	}
	days := r.daysOfWeekSet()
	if days == nil {
		return true
	}
	return days[int(day.Weekday())]
}

// daysOfWeekSet decodes the comma-separated day set. Nil means every day.
func (r *PricingRule) daysOfWeekSet() map[int]bool {
	if r.DaysOfWeek == nil || strings.TrimSpace(*r.DaysOfWeek) == "" {
		return nil
	}
	set := make(map[int]bool)
	for _, part := range strings.Split(*r.DaysOfWeek, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day < 0 || day > 6 {
			continue
		}
		set[day] = true
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// EncodeDaysOfWeek renders a day set to storage form. Returns nil for
// an empty set (every day).
func EncodeDaysOfWeek(days []int) *string {
	if len(days) == 0 {
		return nil
	}
	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, strconv.Itoa(day))
	}
	encoded := strings.Join(parts, ",")
	return &encoded
}
