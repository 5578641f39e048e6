package domain

// Typed views over the opaque conditions map. Rules are validated at
// save time, so a parse failure at evaluation time is a defensive
// fallback, not a steady-state path.

type DemandCondition struct {
	MinScore *float64
	MaxScore *float64
}

type GroupCondition struct {
	MinSize *int
	MaxSize *int
}

type LoyaltyCondition struct {
	EligibleTiers []string
}

type LeadTimeCondition struct {
	MinDaysBefore *int
	MaxDaysBefore *int
}

// DemandCondition extracts the demand-score gate from the rule conditions.
func (r *PricingRule) DemandCondition() (DemandCondition, error) {
	minScore, err := lookupFloat(r.Conditions, "min_demand_score", "minDemandScore")
	if err != nil {
		return DemandCondition{}, err
	}
	maxScore, err := lookupFloat(r.Conditions, "max_demand_score", "maxDemandScore")
	if err != nil {
		return DemandCondition{}, err
	}
	return DemandCondition{MinScore: minScore, MaxScore: maxScore}, nil
}

// GroupCondition extracts the group-size gate from the rule conditions.
func (r *PricingRule) GroupCondition() (GroupCondition, error) {
	minSize, err := lookupInt(r.Conditions, "min_group_size", "minGroupSize")
	if err != nil {
		return GroupCondition{}, err
	}
	maxSize, err := lookupInt(r.Conditions, "max_group_size", "maxGroupSize")
	if err != nil {
		return GroupCondition{}, err
	}
	return GroupCondition{MinSize: minSize, MaxSize: maxSize}, nil
}

// LoyaltyCondition extracts the eligible loyalty tiers from the rule conditions.
func (r *PricingRule) LoyaltyCondition() (LoyaltyCondition, error) {
	tiers, err := lookupStrings(r.Conditions, "eligible_tiers", "eligibleTiers")
	if err != nil {
		return LoyaltyCondition{}, err
	}
	return LoyaltyCondition{EligibleTiers: tiers}, nil
}

// LeadTimeCondition extracts the booking lead-time gate used by
// early_bird and last_minute rules.
func (r *PricingRule) LeadTimeCondition() (LeadTimeCondition, error) {
	minDays, err := lookupInt(r.Conditions, "min_days_before_travel", "daysBeforeTravel")
	if err != nil {
		return LeadTimeCondition{}, err
	}
	maxDays, err := lookupInt(r.Conditions, "max_days_before_travel", "maxDaysBeforeTravel")
	if err != nil {
		return LeadTimeCondition{}, err
	}
	return LeadTimeCondition{MinDaysBefore: minDays, MaxDaysBefore: maxDays}, nil
}

// ValidateConditions checks that the conditions map holds values the
// rule type can evaluate. Called at save time.
func (r *PricingRule) ValidateConditions() error {
	var err error
	switch r.RuleType {
	case Demand:
		_, err = r.DemandCondition()
	case Group:
		_, err = r.GroupCondition()
	case Loyalty:
		var cond LoyaltyCondition
		cond, err = r.LoyaltyCondition()
		if err == nil && len(cond.EligibleTiers) == 0 {
			err = ErrMalformedConditions
		}
	case EarlyBird, LastMinute:
		_, err = r.LeadTimeCondition()
	}
	return err
}

// Condition keys arrive either snake_case (admin UI) or camelCase
// (legacy imports); both spellings are honored.
func lookupRaw(conditions map[string]any, keys ...string) (any, bool) {
	if conditions == nil {
		return nil, false
	}
	for _, key := range keys {
		if value, ok := conditions[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func lookupFloat(conditions map[string]any, keys ...string) (*float64, error) {
	raw, ok := lookupRaw(conditions, keys...)
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	default:
		return nil, ErrMalformedConditions
	}
}

func lookupInt(conditions map[string]any, keys ...string) (*int, error) {
	value, err := lookupFloat(conditions, keys...)
	if err != nil || value == nil {
		return nil, err
	}
	i := int(*value)
	return &i, nil
}

func lookupStrings(conditions map[string]any, keys ...string) ([]string, error) {
	raw, ok := lookupRaw(conditions, keys...)
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrMalformedConditions
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, ErrMalformedConditions
	}
}
