package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func floatPtr(v float64) *float64 { return &v }

func makeRule(id snowflake.ID, name string, ruleType ruledomain.RuleType, adjType ruledomain.AdjustmentType, value float64, priority int) ruledomain.PricingRule {
	return ruledomain.PricingRule{
		ID:              id,
		Name:            name,
		RuleType:        ruleType,
		AdjustmentType:  adjType,
		AdjustmentValue: value,
		Priority:        priority,
		IsActive:        true,
	}
}

func TestApplyRules_NoRulesKeepsBasePrice(t *testing.T) {
	price, trace := applyRules(1000, nil, foldContext{DemandScore: 50}, zap.NewNop())
	assert.Equal(t, 1000.0, price)
	assert.Empty(t, trace)
}

func TestApplyRules_PercentageRulesCompound(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	rules := []ruledomain.PricingRule{
		makeRule(node.Generate(), "First", ruledomain.Seasonal, ruledomain.Percentage, 10, 1),
		makeRule(node.Generate(), "Second", ruledomain.Seasonal, ruledomain.Percentage, 10, 2),
	}

	price, trace := applyRules(100, rules, foldContext{}, zap.NewNop())
	assert.InDelta(t, 121.0, price, 0.0001)
	assert.Len(t, trace, 2)
	assert.InDelta(t, 110.0, trace[0].PriceAfter, 0.0001)
	assert.InDelta(t, 110.0, trace[1].PriceBefore, 0.0001)
}

func TestApplyRules_OrderByPriorityThenIDRegardlessOfInput(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	first := makeRule(node.Generate(), "Tie A", ruledomain.Seasonal, ruledomain.Percentage, 10, 5)
	second := makeRule(node.Generate(), "Tie B", ruledomain.Seasonal, ruledomain.Percentage, 10, 5)
	top := makeRule(node.Generate(), "Top", ruledomain.Promotional, ruledomain.FixedAmount, -50, 1)

	// Deliberately shuffled input.
	price, trace := applyRules(1000, []ruledomain.PricingRule{second, top, first}, foldContext{}, zap.NewNop())

	assert.Len(t, trace, 3)
	assert.Equal(t, "Top", trace[0].RuleName)
	assert.Equal(t, "Tie A", trace[1].RuleName)
	assert.Equal(t, "Tie B", trace[2].RuleName)
	assert.InDelta(t, 1149.5, price, 0.0001)
}

func TestApplyRules_SeasonalThenDemandDiscount(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	seasonal := makeRule(node.Generate(), "High Season", ruledomain.Seasonal, ruledomain.Percentage, 15, 1)
	discount := makeRule(node.Generate(), "Hot Demand Discount", ruledomain.Demand, ruledomain.Percentage, -5, 2)
	discount.Conditions = datatypes.JSONMap{"min_demand_score": 70.0}

	rules := []ruledomain.PricingRule{seasonal, discount}

	price, trace := applyRules(1000, rules, foldContext{DemandScore: 80}, zap.NewNop())
	assert.InDelta(t, 1092.5, price, 0.0001)
	assert.Len(t, trace, 2)
	assert.InDelta(t, 1150.0, trace[0].PriceAfter, 0.0001)
	assert.InDelta(t, 1092.5, trace[1].PriceAfter, 0.0001)
}

func TestApplyRules_DemandGateSkipsBelowThreshold(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	seasonal := makeRule(node.Generate(), "High Season", ruledomain.Seasonal, ruledomain.Percentage, 15, 1)
	discount := makeRule(node.Generate(), "Hot Demand Discount", ruledomain.Demand, ruledomain.Percentage, -5, 2)
	discount.Conditions = datatypes.JSONMap{"min_demand_score": 70.0}

	price, trace := applyRules(1000, []ruledomain.PricingRule{seasonal, discount}, foldContext{DemandScore: 40}, zap.NewNop())
	assert.InDelta(t, 1150.0, price, 0.0001)
	assert.Len(t, trace, 1)
	assert.Equal(t, "High Season", trace[0].RuleName)
}

func TestApplyRules_PerRuleClampHolds(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	surge := makeRule(node.Generate(), "Surge", ruledomain.PeakDay, ruledomain.Percentage, 50, 1)
	surge.MaxPrice = floatPtr(1200)
	floor := makeRule(node.Generate(), "Deep Cut", ruledomain.Promotional, ruledomain.FixedAmount, -900, 2)
	floor.MinPrice = floatPtr(500)

	price, trace := applyRules(1000, []ruledomain.PricingRule{surge, floor}, foldContext{}, zap.NewNop())
	assert.Len(t, trace, 2)
	assert.Equal(t, 1200.0, trace[0].PriceAfter)
	assert.Equal(t, 500.0, trace[1].PriceAfter)
	assert.Equal(t, 500.0, price)
}

func TestApplyRules_GroupGate(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	group := makeRule(node.Generate(), "Group Discount", ruledomain.Group, ruledomain.Percentage, -10, 1)
	group.Conditions = datatypes.JSONMap{"min_group_size": 8.0}

	price, trace := applyRules(1000, []ruledomain.PricingRule{group}, foldContext{PaxCount: 4}, zap.NewNop())
	assert.Equal(t, 1000.0, price)
	assert.Empty(t, trace)

	price, trace = applyRules(1000, []ruledomain.PricingRule{group}, foldContext{PaxCount: 10}, zap.NewNop())
	assert.InDelta(t, 900.0, price, 0.0001)
	assert.Len(t, trace, 1)
}

func TestApplyRules_LoyaltyGate(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	loyalty := makeRule(node.Generate(), "Platinum Perk", ruledomain.Loyalty, ruledomain.Percentage, -8, 1)
	loyalty.Conditions = datatypes.JSONMap{"eligible_tiers": []any{"gold", "platinum"}}

	price, trace := applyRules(1000, []ruledomain.PricingRule{loyalty}, foldContext{LoyaltyTier: "silver"}, zap.NewNop())
	assert.Equal(t, 1000.0, price)
	assert.Empty(t, trace)

	price, trace = applyRules(1000, []ruledomain.PricingRule{loyalty}, foldContext{LoyaltyTier: "Platinum"}, zap.NewNop())
	assert.InDelta(t, 920.0, price, 0.0001)
	assert.Len(t, trace, 1)
}

func TestApplyRules_LeadTimeGates(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	earlyBird := makeRule(node.Generate(), "Early Bird", ruledomain.EarlyBird, ruledomain.Percentage, -10, 1)
	earlyBird.Conditions = datatypes.JSONMap{"min_days_before_travel": 60.0}
	lastMinute := makeRule(node.Generate(), "Last Minute", ruledomain.LastMinute, ruledomain.Percentage, -20, 2)
	lastMinute.Conditions = datatypes.JSONMap{"max_days_before_travel": 7.0}

	rules := []ruledomain.PricingRule{earlyBird, lastMinute}

	// Far out: early bird applies, last minute does not.
	price, trace := applyRules(1000, rules, foldContext{LeadDays: 90}, zap.NewNop())
	assert.InDelta(t, 900.0, price, 0.0001)
	assert.Len(t, trace, 1)
	assert.Equal(t, "Early Bird", trace[0].RuleName)

	// Close in: only last minute.
	price, trace = applyRules(1000, rules, foldContext{LeadDays: 3}, zap.NewNop())
	assert.InDelta(t, 800.0, price, 0.0001)
	assert.Len(t, trace, 1)
	assert.Equal(t, "Last Minute", trace[0].RuleName)
}

func TestApplyRules_MalformedConditionsSkippedNotFatal(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	broken := makeRule(node.Generate(), "Broken", ruledomain.Demand, ruledomain.Percentage, -50, 1)
	broken.Conditions = datatypes.JSONMap{"min_demand_score": "not a number"}
	healthy := makeRule(node.Generate(), "Healthy", ruledomain.Seasonal, ruledomain.Percentage, 10, 2)

	price, trace := applyRules(1000, []ruledomain.PricingRule{broken, healthy}, foldContext{DemandScore: 90}, zap.NewNop())
	assert.InDelta(t, 1100.0, price, 0.0001)
	assert.Len(t, trace, 1)
	assert.Equal(t, "Healthy", trace[0].RuleName)
}

func TestSeasonName_QuarterMapping(t *testing.T) {
	assert.Equal(t, "Winter", SeasonName(dateUTC(2026, 1, 15)))
	assert.Equal(t, "Spring", SeasonName(dateUTC(2026, 4, 15)))
	assert.Equal(t, "Summer", SeasonName(dateUTC(2026, 7, 15)))
	assert.Equal(t, "Autumn", SeasonName(dateUTC(2026, 10, 15)))
	assert.Equal(t, "Winter", SeasonName(dateUTC(2026, 12, 15)))
}
