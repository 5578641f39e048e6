package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ruledomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ruledomain.Repository
}

func New(p Params) ruledomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricingrule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req ruledomain.SaveRequest) (*ruledomain.PricingRule, error) {
	entity, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}
	entity.ID = s.genID.Generate()
	now := time.Now().UTC()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) Update(ctx context.Context, id string, req ruledomain.SaveRequest) (*ruledomain.PricingRule, error) {
	ruleID, err := parseID(id)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ruledomain.ErrNotFound
	}

	entity, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}
	entity.ID = existing.ID
	entity.CreatedAt = existing.CreatedAt
	entity.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Deactivate flips is_active off. Rules referenced by adjustment history
// are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	ruleID, err := parseID(id)
	if err != nil {
		return ruledomain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return err
	}
	if rule == nil {
		return ruledomain.ErrNotFound
	}
	if !rule.IsActive {
		return nil
	}

	rule.IsActive = false
	rule.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, rule)
}

func (s *Service) Get(ctx context.Context, id string) (*ruledomain.PricingRule, error) {
	ruleID, err := parseID(id)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ruledomain.ErrNotFound
	}
	return rule, nil
}

func (s *Service) List(ctx context.Context, filter ruledomain.ListFilter) ([]ruledomain.PricingRule, error) {
	return s.repo.List(ctx, s.db, filter)
}

// Match returns the active rules applicable to the query context,
// ordered by priority then id so repeated runs fold identically.
func (s *Service) Match(ctx context.Context, query ruledomain.MatchQuery) ([]ruledomain.PricingRule, error) {
	candidates, err := s.repo.Matching(ctx, s.db, query)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0]
	for i := range candidates {
		if candidates[i].AppliesOn(query.Date) {
			matched = append(matched, candidates[i])
		}
	}
	return matched, nil
}

func (s *Service) buildRule(req ruledomain.SaveRequest) (*ruledomain.PricingRule, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ruledomain.ErrInvalidName
	}

	ruleType, err := parseRuleType(req.RuleType)
	if err != nil {
		return nil, err
	}
	adjustmentType, err := parseAdjustmentType(req.AdjustmentType)
	if err != nil {
		return nil, err
	}
	if req.AdjustmentValue == nil {
		return nil, ruledomain.ErrInvalidAdjustmentValue
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, ruledomain.ErrInvalidPriceBounds
	}
	if req.ValidFrom != nil && req.ValidTo != nil && req.ValidFrom.After(*req.ValidTo) {
		return nil, ruledomain.ErrInvalidValidityWindow
	}
	for _, day := range req.DaysOfWeek {
		if day < 0 || day > 6 {
			return nil, ruledomain.ErrInvalidDaysOfWeek
		}
	}

	destinationID, err := parseOptionalID(req.DestinationID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}
	supplierID, err := parseOptionalID(req.SupplierID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}
	serviceID, err := parseOptionalID(req.ServiceID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	priority := 100
	if req.Priority != nil {
		priority = *req.Priority
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	isAutoApply := true
	if req.IsAutoApply != nil {
		isAutoApply = *req.IsAutoApply
	}

	entity := &ruledomain.PricingRule{
		Name:            name,
		Description:     req.Description,
		RuleType:        ruleType,
		ServiceType:     normalizeServiceType(req.ServiceType),
		DestinationID:   destinationID,
		SupplierID:      supplierID,
		ServiceID:       serviceID,
		AdjustmentType:  adjustmentType,
		AdjustmentValue: *req.AdjustmentValue,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
		ValidFrom:       req.ValidFrom,
		ValidTo:         req.ValidTo,
		DaysOfWeek:      ruledomain.EncodeDaysOfWeek(req.DaysOfWeek),
		Priority:        priority,
		IsActive:        isActive,
		IsAutoApply:     isAutoApply,
	}
	if req.Conditions != nil {
		entity.Conditions = datatypes.JSONMap(req.Conditions)
	}

	// Save-time validation keeps "skip malformed rule" out of the
	// steady-state evaluation path.
	if err := entity.ValidateConditions(); err != nil {
		return nil, err
	}

	return entity, nil
}

func normalizeServiceType(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseRuleType(value ruledomain.RuleType) (ruledomain.RuleType, error) {
	switch strings.ToLower(strings.TrimSpace(string(value))) {
	case string(ruledomain.Seasonal):
		return ruledomain.Seasonal, nil
	case string(ruledomain.Demand):
		return ruledomain.Demand, nil
	case string(ruledomain.EarlyBird):
		return ruledomain.EarlyBird, nil
	case string(ruledomain.LastMinute):
		return ruledomain.LastMinute, nil
	case string(ruledomain.Group):
		return ruledomain.Group, nil
	case string(ruledomain.Loyalty):
		return ruledomain.Loyalty, nil
	case string(ruledomain.Promotional):
		return ruledomain.Promotional, nil
	case string(ruledomain.Weekend):
		return ruledomain.Weekend, nil
	case string(ruledomain.PeakDay):
		return ruledomain.PeakDay, nil
	default:
		return "", ruledomain.ErrInvalidRuleType
	}
}

func parseAdjustmentType(value ruledomain.AdjustmentType) (ruledomain.AdjustmentType, error) {
	switch strings.ToLower(strings.TrimSpace(string(value))) {
	case string(ruledomain.Percentage):
		return ruledomain.Percentage, nil
	case string(ruledomain.FixedAmount):
		return ruledomain.FixedAmount, nil
	default:
		return "", ruledomain.ErrInvalidAdjustmentType
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func parseOptionalID(value *string) (*snowflake.ID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	id, err := parseID(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
