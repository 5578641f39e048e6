package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *PricingRule) error
	Update(ctx context.Context, db *gorm.DB, rule *PricingRule) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PricingRule, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]PricingRule, error)
	Matching(ctx context.Context, db *gorm.DB, query MatchQuery) ([]PricingRule, error)
}
