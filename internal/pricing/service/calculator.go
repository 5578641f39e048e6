package service

import (
	"math"
	"sort"
	"strings"

	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"go.uber.org/zap"
)

// foldContext is the caller-supplied state consulted by rule gates.
type foldContext struct {
	DemandScore float64
	PaxCount    int
	LoyaltyTier string
	LeadDays    int
}

// applyRules folds the rule list into a price. Rules apply in
// (priority, id) order regardless of input order; each adjustment
// compounds on the previous price, is clamped to the rule's own
// bounds, and appends one trace entry. A rule whose gate is unmet is
// skipped silently; a rule whose conditions cannot be parsed is
// skipped with a warning so one bad rule never blocks pricing.
func applyRules(basePrice float64, rules []ruledomain.PricingRule, fctx foldContext, log *zap.Logger) (float64, []adjustmentdomain.AppliedRule) {
	sorted := make([]ruledomain.PricingRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	price := basePrice
	trace := make([]adjustmentdomain.AppliedRule, 0, len(sorted))

	for i := range sorted {
		rule := &sorted[i]

		pass, err := gatePasses(rule, fctx)
		if err != nil {
			log.Warn("skipping rule with malformed conditions",
				zap.String("rule_id", rule.ID.String()),
				zap.String("rule_type", string(rule.RuleType)),
				zap.Error(err),
			)
			continue
		}
		if !pass {
			continue
		}

		var delta float64
		switch rule.AdjustmentType {
		case ruledomain.Percentage:
			delta = price * rule.AdjustmentValue / 100
		case ruledomain.FixedAmount:
			delta = rule.AdjustmentValue
		default:
			log.Warn("skipping rule with unknown adjustment type",
				zap.String("rule_id", rule.ID.String()),
				zap.String("adjustment_type", string(rule.AdjustmentType)),
			)
			continue
		}

		next := price + delta
		if rule.MinPrice != nil {
			next = math.Max(next, *rule.MinPrice)
		}
		if rule.MaxPrice != nil {
			next = math.Min(next, *rule.MaxPrice)
		}

		trace = append(trace, adjustmentdomain.AppliedRule{
			RuleID:          rule.ID,
			RuleName:        rule.Name,
			RuleType:        string(rule.RuleType),
			AdjustmentType:  string(rule.AdjustmentType),
			AdjustmentValue: rule.AdjustmentValue,
			PriceBefore:     price,
			PriceAfter:      next,
		})
		price = next
	}

	return price, trace
}

func gatePasses(rule *ruledomain.PricingRule, fctx foldContext) (bool, error) {
	switch rule.RuleType {
	case ruledomain.Demand:
		cond, err := rule.DemandCondition()
		if err != nil {
			return false, err
		}
		if cond.MinScore != nil && fctx.DemandScore < *cond.MinScore {
			return false, nil
		}
		if cond.MaxScore != nil && fctx.DemandScore > *cond.MaxScore {
			return false, nil
		}
	case ruledomain.Group:
		cond, err := rule.GroupCondition()
		if err != nil {
			return false, err
		}
		if cond.MinSize != nil && fctx.PaxCount < *cond.MinSize {
			return false, nil
		}
		if cond.MaxSize != nil && fctx.PaxCount > *cond.MaxSize {
			return false, nil
		}
	case ruledomain.Loyalty:
		cond, err := rule.LoyaltyCondition()
		if err != nil {
			return false, err
		}
		if !tierEligible(fctx.LoyaltyTier, cond.EligibleTiers) {
			return false, nil
		}
	case ruledomain.EarlyBird, ruledomain.LastMinute:
		cond, err := rule.LeadTimeCondition()
		if err != nil {
			return false, err
		}
		if cond.MinDaysBefore != nil && fctx.LeadDays < *cond.MinDaysBefore {
			return false, nil
		}
		if cond.MaxDaysBefore != nil && fctx.LeadDays > *cond.MaxDaysBefore {
			return false, nil
		}
	}
	return true, nil
}

func tierEligible(tier string, eligible []string) bool {
	if tier == "" {
		return false
	}
	for _, candidate := range eligible {
		if strings.EqualFold(tier, candidate) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
