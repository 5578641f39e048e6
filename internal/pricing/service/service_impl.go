package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"github.com/voyara/voyara/internal/clock"
	"github.com/voyara/voyara/internal/config"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Clock  clock.Clock
	Rules  ruledomain.Service
	Demand demanddomain.Service
	Ledger adjustmentdomain.Service
}

type Service struct {
	cfg    config.Config
	log    *zap.Logger
	clock  clock.Clock
	rules  ruledomain.Service
	demand demanddomain.Service
	ledger adjustmentdomain.Service
}

func New(p Params) pricingdomain.Service {
	return &Service{
		cfg:    p.Cfg,
		log:    p.Log.Named("pricing.service"),
		clock:  p.Clock,
		rules:  p.Rules,
		demand: p.Demand,
		ledger: p.Ledger,
	}
}

func (s *Service) Calculate(ctx context.Context, req pricingdomain.CalculateRequest) (*pricingdomain.CalculationResult, error) {
	scope, err := s.parseScope(req.PricingContext)
	if err != nil {
		return nil, err
	}
	if req.TravelDate.IsZero() {
		return nil, pricingdomain.ErrInvalidTravelDate
	}
	triggeredBy, err := parseTriggeredBy(req.TriggeredBy)
	if err != nil {
		return nil, err
	}

	travelDate := req.TravelDate.UTC().Truncate(24 * time.Hour)
	result, trace := s.priceOneDay(ctx, scope, req.PricingContext, travelDate, req.AutoApplyOnly)

	decision := adjustmentdomain.Decision{
		ServiceType:  req.ServiceType,
		ServiceID:    scope.serviceID,
		ServiceName:  req.ServiceName,
		TravelDate:   travelDate,
		TriggeredBy:  triggeredBy,
		ApprovedBy:   req.ApprovedBy,
		AppliedRules: trace,
	}
	if decision.QuoteID, err = parseOptionalID(req.QuoteID); err != nil {
		return nil, pricingdomain.ErrInvalidServiceID
	}
	if decision.BookingID, err = parseOptionalID(req.BookingID); err != nil {
		return nil, pricingdomain.ErrInvalidServiceID
	}

	if len(trace) == 0 {
		return result, nil
	}

	// The price stands even when the audit write fails; the ledger is
	// observational and retried by the nightly sweep.
	if err := s.ledger.RecordTrace(ctx, decision); err != nil {
		s.log.Error("audit trace write failed",
			zap.String("service_id", scope.serviceID.String()),
			zap.Time("travel_date", travelDate),
			zap.Error(err),
		)
	}

	return result, nil
}

func (s *Service) Simulate(ctx context.Context, req pricingdomain.SimulateRequest) (*pricingdomain.SimulationResult, error) {
	scope, err := s.parseScope(req.PricingContext)
	if err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, pricingdomain.ErrInvalidDateRange
	}

	start := req.StartDate.UTC().Truncate(24 * time.Hour)
	end := req.EndDate.UTC().Truncate(24 * time.Hour)
	if end.Before(start) {
		return nil, pricingdomain.ErrInvalidDateRange
	}
	days := int(end.Sub(start)/(24*time.Hour)) + 1
	if days > pricingdomain.SimulateMaxDays {
		return nil, pricingdomain.ErrRangeTooWide
	}

	out := &pricingdomain.SimulationResult{
		DailyPricing: make([]pricingdomain.DailyPrice, 0, days),
	}

	var sum float64
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		result, trace := s.priceOneDay(ctx, scope, req.PricingContext, day, false)
		out.DailyPricing = append(out.DailyPricing, pricingdomain.DailyPrice{
			Date:         day,
			BasePrice:    req.BasePrice,
			FinalPrice:   result.FinalPrice,
			DemandScore:  result.DemandScore,
			RulesApplied: len(trace),
		})

		sum += result.FinalPrice
		if out.Summary.DatesCount == 0 {
			out.Summary.MinPrice = result.FinalPrice
			out.Summary.MaxPrice = result.FinalPrice
		} else {
			if result.FinalPrice < out.Summary.MinPrice {
				out.Summary.MinPrice = result.FinalPrice
			}
			if result.FinalPrice > out.Summary.MaxPrice {
				out.Summary.MaxPrice = result.FinalPrice
			}
		}
		out.Summary.DatesCount++
	}

	out.Summary.AvgPrice = round2(sum / float64(out.Summary.DatesCount))
	out.Summary.PriceRange = round2(out.Summary.MaxPrice - out.Summary.MinPrice)
	return out, nil
}

// priceOneDay runs the match, score, fold pipeline for a single date.
// Shared by Calculate and Simulate so a one day simulation and a
// calculation for the same date produce the same numbers.
func (s *Service) priceOneDay(ctx context.Context, scope parsedScope, pctx pricingdomain.PricingContext, day time.Time, autoApplyOnly bool) (*pricingdomain.CalculationResult, []adjustmentdomain.AppliedRule) {
	rules, err := s.rules.Match(ctx, ruledomain.MatchQuery{
		ServiceType:   pctx.ServiceType,
		ServiceID:     scope.serviceID,
		DestinationID: scope.destinationID,
		SupplierID:    scope.supplierID,
		Date:          day,
		AutoApplyOnly: autoApplyOnly,
	})
	if err != nil {
		s.log.Warn("rule match failed, pricing with base price only",
			zap.String("service_id", scope.serviceID.String()),
			zap.Time("travel_date", day),
			zap.Error(err),
		)
		rules = nil
	}

	serviceType := pctx.ServiceType
	score := s.demand.Score(ctx, demanddomain.ScoreQuery{
		DestinationID: scope.destinationID,
		ServiceType:   &serviceType,
		Date:          day,
	})

	leadDays := int(day.Sub(s.clock.Now().UTC().Truncate(24*time.Hour)) / (24 * time.Hour))
	finalPrice, trace := applyRules(pctx.BasePrice, rules, foldContext{
		DemandScore: score.Score,
		PaxCount:    pctx.PaxCount,
		LoyaltyTier: pctx.LoyaltyTier,
		LeadDays:    leadDays,
	}, s.log)

	savings := pctx.BasePrice - finalPrice
	result := &pricingdomain.CalculationResult{
		OriginalPrice: pctx.BasePrice,
		FinalPrice:    round2(finalPrice),
		Currency:      s.currency(pctx.Currency),
		Savings:       round2(savings),
		DemandScore:   score.Score,
		DemandTier:    score.Tier,
		SeasonName:    SeasonName(day),
		AppliedRules:  trace,
	}
	if pctx.BasePrice > 0 {
		result.SavingsPercent = round2(savings / pctx.BasePrice * 100)
	}
	return result, trace
}

type parsedScope struct {
	serviceID     snowflake.ID
	destinationID *snowflake.ID
	supplierID    *snowflake.ID
}

func (s *Service) parseScope(pctx pricingdomain.PricingContext) (parsedScope, error) {
	var scope parsedScope

	if strings.TrimSpace(pctx.ServiceType) == "" {
		return scope, pricingdomain.ErrInvalidServiceType
	}
	if pctx.BasePrice <= 0 {
		return scope, pricingdomain.ErrInvalidBasePrice
	}

	serviceID, err := snowflake.ParseString(strings.TrimSpace(pctx.ServiceID))
	if err != nil || serviceID == 0 {
		return scope, pricingdomain.ErrInvalidServiceID
	}
	scope.serviceID = serviceID

	if scope.destinationID, err = parseOptionalID(pctx.DestinationID); err != nil {
		return scope, pricingdomain.ErrInvalidServiceID
	}
	if scope.supplierID, err = parseOptionalID(pctx.SupplierID); err != nil {
		return scope, pricingdomain.ErrInvalidServiceID
	}
	return scope, nil
}

func (s *Service) currency(requested string) string {
	if requested != "" {
		return strings.ToUpper(requested)
	}
	return s.cfg.DefaultCurrency
}

func parseOptionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseTriggeredBy(raw string) (adjustmentdomain.TriggeredBy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return adjustmentdomain.TriggeredByQuoteBuilder, nil
	case string(adjustmentdomain.TriggeredByCron):
		return adjustmentdomain.TriggeredByCron, nil
	case string(adjustmentdomain.TriggeredByAdmin):
		return adjustmentdomain.TriggeredByAdmin, nil
	case string(adjustmentdomain.TriggeredByQuoteBuilder):
		return adjustmentdomain.TriggeredByQuoteBuilder, nil
	default:
		return "", pricingdomain.ErrInvalidTriggeredBy
	}
}
