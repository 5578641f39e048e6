package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ruledomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *ruledomain.PricingRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *ruledomain.PricingRule) error {
	return db.WithContext(ctx).Save(rule).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ruledomain.PricingRule, error) {
	var rule ruledomain.PricingRule
	err := db.WithContext(ctx).Model(&ruledomain.PricingRule{}).
		Where("id = ?", id).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter ruledomain.ListFilter) ([]ruledomain.PricingRule, error) {
	stmt := db.WithContext(ctx).Model(&ruledomain.PricingRule{})
	if filter.RuleType != "" {
		stmt = stmt.Where("rule_type = ?", filter.RuleType)
	}
	if filter.ServiceType != "" {
		stmt = stmt.Where("service_type IS NULL OR service_type = ?", filter.ServiceType)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}

	var rules []ruledomain.PricingRule
	err := stmt.Order("priority ASC, id ASC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Matching applies the wildcard scope filter and the validity window in
// SQL; day-of-week membership is evaluated in the service because the
// set encoding is not portable across dialects.
func (r *repo) Matching(ctx context.Context, db *gorm.DB, query ruledomain.MatchQuery) ([]ruledomain.PricingRule, error) {
	day := query.Date.UTC().Truncate(24 * time.Hour)

	stmt := db.WithContext(ctx).Model(&ruledomain.PricingRule{}).
		Where("is_active = ?", true).
		Where("service_type IS NULL OR service_type = ?", query.ServiceType).
		Where("service_id IS NULL OR service_id = ?", query.ServiceID).
		Where("valid_from IS NULL OR valid_from <= ?", day).
		Where("valid_to IS NULL OR valid_to >= ?", day)

	if query.DestinationID != nil {
		stmt = stmt.Where("destination_id IS NULL OR destination_id = ?", *query.DestinationID)
	} else {
		stmt = stmt.Where("destination_id IS NULL")
	}
	if query.SupplierID != nil {
		stmt = stmt.Where("supplier_id IS NULL OR supplier_id = ?", *query.SupplierID)
	} else {
		stmt = stmt.Where("supplier_id IS NULL")
	}
	if query.AutoApplyOnly {
		stmt = stmt.Where("is_auto_apply = ?", true)
	}

	var rules []ruledomain.PricingRule
	err := stmt.Order("priority ASC, id ASC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
