package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"github.com/voyara/voyara/internal/clock"
	"github.com/voyara/voyara/internal/config"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func dateUTC(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

type ruleServiceStub struct {
	ruledomain.Service
	rules []ruledomain.PricingRule
}

func (s *ruleServiceStub) Match(ctx context.Context, query ruledomain.MatchQuery) ([]ruledomain.PricingRule, error) {
	matched := make([]ruledomain.PricingRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.AppliesOn(query.Date) {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

type demandServiceStub struct {
	demanddomain.Service
	score float64
}

func (s *demandServiceStub) Score(ctx context.Context, query demanddomain.ScoreQuery) demanddomain.ScoreResult {
	return demanddomain.ScoreResult{Score: s.score, Tier: demanddomain.TierForScore(s.score)}
}

type ledgerStub struct {
	adjustmentdomain.Service
	decisions []adjustmentdomain.Decision
	fail      bool
}

func (s *ledgerStub) RecordTrace(ctx context.Context, decision adjustmentdomain.Decision) error {
	if s.fail {
		return assert.AnError
	}
	s.decisions = append(s.decisions, decision)
	return nil
}

func newPricingService(rules []ruledomain.PricingRule, score float64, ledger *ledgerStub) pricingdomain.Service {
	return New(Params{
		Cfg:    config.Config{DefaultCurrency: "USD"},
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(dateUTC(2026, 8, 1)),
		Rules:  &ruleServiceStub{rules: rules},
		Demand: &demandServiceStub{score: score},
		Ledger: ledger,
	})
}

func seasonalPlusDemandRules(node *snowflake.Node) []ruledomain.PricingRule {
	seasonal := ruledomain.PricingRule{
		ID:              node.Generate(),
		Name:            "High Season",
		RuleType:        ruledomain.Seasonal,
		AdjustmentType:  ruledomain.Percentage,
		AdjustmentValue: 15,
		Priority:        1,
		IsActive:        true,
	}
	discount := ruledomain.PricingRule{
		ID:              node.Generate(),
		Name:            "Hot Demand Discount",
		RuleType:        ruledomain.Demand,
		AdjustmentType:  ruledomain.Percentage,
		AdjustmentValue: -5,
		Priority:        2,
		IsActive:        true,
		Conditions:      datatypes.JSONMap{"min_demand_score": 70.0},
	}
	return []ruledomain.PricingRule{seasonal, discount}
}

func baseRequest(node *snowflake.Node) pricingdomain.CalculateRequest {
	return pricingdomain.CalculateRequest{
		PricingContext: pricingdomain.PricingContext{
			ServiceType: "villa",
			ServiceID:   node.Generate().String(),
			ServiceName: "Cliffside Estate",
			BasePrice:   1000,
		},
		TravelDate: dateUTC(2026, 9, 12),
	}
}

func TestCalculate_HighDemandScenario(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	ledger := &ledgerStub{}
	svc := newPricingService(seasonalPlusDemandRules(node), 80, ledger)

	result, err := svc.Calculate(context.Background(), baseRequest(node))
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, result.OriginalPrice)
	assert.InDelta(t, 1092.5, result.FinalPrice, 0.001)
	assert.InDelta(t, -92.5, result.Savings, 0.001)
	assert.InDelta(t, -9.25, result.SavingsPercent, 0.001)
	assert.Equal(t, 80.0, result.DemandScore)
	assert.Equal(t, demanddomain.TierVeryHigh, result.DemandTier)
	assert.Equal(t, "Autumn", result.SeasonName)
	assert.Equal(t, "USD", result.Currency)
	assert.Len(t, result.AppliedRules, 2)

	assert.Len(t, ledger.decisions, 1)
	assert.Equal(t, adjustmentdomain.TriggeredByQuoteBuilder, ledger.decisions[0].TriggeredBy)
	assert.Len(t, ledger.decisions[0].AppliedRules, 2)
}

func TestCalculate_NormalDemandSkipsDiscount(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	ledger := &ledgerStub{}
	svc := newPricingService(seasonalPlusDemandRules(node), 40, ledger)

	result, err := svc.Calculate(context.Background(), baseRequest(node))
	assert.NoError(t, err)
	assert.InDelta(t, 1150.0, result.FinalPrice, 0.001)
	assert.Len(t, result.AppliedRules, 1)
	assert.Equal(t, "High Season", result.AppliedRules[0].RuleName)
}

func TestCalculate_NoMatchingRules(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	ledger := &ledgerStub{}
	svc := newPricingService(nil, 50, ledger)

	result, err := svc.Calculate(context.Background(), baseRequest(node))
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, result.FinalPrice)
	assert.Equal(t, 0.0, result.Savings)
	assert.Empty(t, result.AppliedRules)
	assert.Empty(t, ledger.decisions)
}

func TestCalculate_AuditFailureDoesNotBlockPrice(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	ledger := &ledgerStub{fail: true}
	svc := newPricingService(seasonalPlusDemandRules(node), 80, ledger)

	result, err := svc.Calculate(context.Background(), baseRequest(node))
	assert.NoError(t, err)
	assert.InDelta(t, 1092.5, result.FinalPrice, 0.001)
}

func TestCalculate_Validation(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	svc := newPricingService(nil, 50, &ledgerStub{})
	ctx := context.Background()

	req := baseRequest(node)
	req.BasePrice = 0
	_, err := svc.Calculate(ctx, req)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidBasePrice)

	req = baseRequest(node)
	req.ServiceID = "not-a-snowflake"
	_, err = svc.Calculate(ctx, req)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidServiceID)

	req = baseRequest(node)
	req.ServiceType = " "
	_, err = svc.Calculate(ctx, req)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidServiceType)

	req = baseRequest(node)
	req.TravelDate = time.Time{}
	_, err = svc.Calculate(ctx, req)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidTravelDate)

	req = baseRequest(node)
	req.TriggeredBy = "webhook"
	_, err = svc.Calculate(ctx, req)
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidTriggeredBy)
}

func TestSimulate_SingleDayEqualsCalculate(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	rules := seasonalPlusDemandRules(node)
	svc := newPricingService(rules, 80, &ledgerStub{})
	ctx := context.Background()

	calcReq := baseRequest(node)
	calc, err := svc.Calculate(ctx, calcReq)
	assert.NoError(t, err)

	sim, err := svc.Simulate(ctx, pricingdomain.SimulateRequest{
		PricingContext: calcReq.PricingContext,
		StartDate:      calcReq.TravelDate,
		EndDate:        calcReq.TravelDate,
	})
	assert.NoError(t, err)
	assert.Len(t, sim.DailyPricing, 1)
	assert.Equal(t, calc.FinalPrice, sim.DailyPricing[0].FinalPrice)
	assert.Equal(t, calc.DemandScore, sim.DailyPricing[0].DemandScore)
	assert.Equal(t, len(calc.AppliedRules), sim.DailyPricing[0].RulesApplied)
	assert.Equal(t, 1, sim.Summary.DatesCount)
	assert.Equal(t, sim.Summary.MinPrice, sim.Summary.MaxPrice)
	assert.Equal(t, 0.0, sim.Summary.PriceRange)
}

func TestSimulate_WeekendRuleShapesCurve(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	weekend := ruledomain.PricingRule{
		ID:              node.Generate(),
		Name:            "Weekend Uplift",
		RuleType:        ruledomain.Weekend,
		AdjustmentType:  ruledomain.Percentage,
		AdjustmentValue: 20,
		Priority:        1,
		IsActive:        true,
		DaysOfWeek:      ruledomain.EncodeDaysOfWeek([]int{0, 6}),
	}
	svc := newPricingService([]ruledomain.PricingRule{weekend}, 50, &ledgerStub{})

	req := baseRequest(node)
	// Mon 2026-09-07 through Sun 2026-09-13.
	sim, err := svc.Simulate(context.Background(), pricingdomain.SimulateRequest{
		PricingContext: req.PricingContext,
		StartDate:      dateUTC(2026, 9, 7),
		EndDate:        dateUTC(2026, 9, 13),
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, sim.Summary.DatesCount)
	assert.Equal(t, 1000.0, sim.Summary.MinPrice)
	assert.Equal(t, 1200.0, sim.Summary.MaxPrice)
	assert.Equal(t, 200.0, sim.Summary.PriceRange)

	uplifted := 0
	for _, daily := range sim.DailyPricing {
		if daily.FinalPrice > daily.BasePrice {
			uplifted++
		}
	}
	assert.Equal(t, 2, uplifted)
}

func TestSimulate_RangeValidation(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	svc := newPricingService(nil, 50, &ledgerStub{})
	ctx := context.Background()
	req := baseRequest(node)

	_, err := svc.Simulate(ctx, pricingdomain.SimulateRequest{
		PricingContext: req.PricingContext,
		StartDate:      dateUTC(2026, 9, 10),
		EndDate:        dateUTC(2026, 9, 1),
	})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidDateRange)

	_, err = svc.Simulate(ctx, pricingdomain.SimulateRequest{
		PricingContext: req.PricingContext,
		StartDate:      dateUTC(2026, 1, 1),
		EndDate:        dateUTC(2027, 6, 1),
	})
	assert.ErrorIs(t, err, pricingdomain.ErrRangeTooWide)
}
