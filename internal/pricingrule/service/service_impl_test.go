package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"github.com/voyara/voyara/internal/pricingrule/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, dsn string) ruledomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&ruledomain.PricingRule{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func validRequest() ruledomain.SaveRequest {
	return ruledomain.SaveRequest{
		Name:            "High Season Uplift",
		RuleType:        ruledomain.Seasonal,
		AdjustmentType:  ruledomain.Percentage,
		AdjustmentValue: floatPtr(15),
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newTestService(t, "file:rule_defaults?mode=memory&cache=shared")

	rule, err := svc.Create(context.Background(), validRequest())
	assert.NoError(t, err)
	assert.NotZero(t, rule.ID)
	assert.Equal(t, 100, rule.Priority)
	assert.True(t, rule.IsActive)
	assert.True(t, rule.IsAutoApply)
}

func TestCreateNormalizesEnumCase(t *testing.T) {
	svc := newTestService(t, "file:rule_enum_case?mode=memory&cache=shared")

	req := validRequest()
	req.RuleType = "SEASONAL"
	req.AdjustmentType = "Percentage"

	rule, err := svc.Create(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, ruledomain.Seasonal, rule.RuleType)
	assert.Equal(t, ruledomain.Percentage, rule.AdjustmentType)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, "file:rule_validation?mode=memory&cache=shared")
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*ruledomain.SaveRequest)
		wantErr error
	}{
		{
			name:    "blank name",
			mutate:  func(r *ruledomain.SaveRequest) { r.Name = "  " },
			wantErr: ruledomain.ErrInvalidName,
		},
		{
			name:    "unknown rule type",
			mutate:  func(r *ruledomain.SaveRequest) { r.RuleType = "surge" },
			wantErr: ruledomain.ErrInvalidRuleType,
		},
		{
			name:    "unknown adjustment type",
			mutate:  func(r *ruledomain.SaveRequest) { r.AdjustmentType = "multiplier" },
			wantErr: ruledomain.ErrInvalidAdjustmentType,
		},
		{
			name:    "missing adjustment value",
			mutate:  func(r *ruledomain.SaveRequest) { r.AdjustmentValue = nil },
			wantErr: ruledomain.ErrInvalidAdjustmentValue,
		},
		{
			name: "inverted price bounds",
			mutate: func(r *ruledomain.SaveRequest) {
				r.MinPrice = floatPtr(500)
				r.MaxPrice = floatPtr(100)
			},
			wantErr: ruledomain.ErrInvalidPriceBounds,
		},
		{
			name: "inverted validity window",
			mutate: func(r *ruledomain.SaveRequest) {
				from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
				to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
				r.ValidFrom = &from
				r.ValidTo = &to
			},
			wantErr: ruledomain.ErrInvalidValidityWindow,
		},
		{
			name:    "day of week out of range",
			mutate:  func(r *ruledomain.SaveRequest) { r.DaysOfWeek = []int{0, 7} },
			wantErr: ruledomain.ErrInvalidDaysOfWeek,
		},
		{
			name: "malformed conditions for rule type",
			mutate: func(r *ruledomain.SaveRequest) {
				r.RuleType = ruledomain.Demand
				r.Conditions = map[string]any{"min_demand_score": "very high"}
			},
			wantErr: ruledomain.ErrMalformedConditions,
		},
		{
			name: "loyalty rule without tiers",
			mutate: func(r *ruledomain.SaveRequest) {
				r.RuleType = ruledomain.Loyalty
			},
			wantErr: ruledomain.ErrMalformedConditions,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	svc := newTestService(t, "file:rule_update?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := svc.Create(ctx, validRequest())
	assert.NoError(t, err)

	req := validRequest()
	req.Name = "High Season Uplift v2"
	req.AdjustmentValue = floatPtr(20)

	updated, err := svc.Update(ctx, created.ID.String(), req)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "High Season Uplift v2", updated.Name)
	assert.Equal(t, 20.0, updated.AdjustmentValue)
}

func TestUpdateUnknownRule(t *testing.T) {
	svc := newTestService(t, "file:rule_update_missing?mode=memory&cache=shared")

	_, err := svc.Update(context.Background(), "999999999", validRequest())
	assert.ErrorIs(t, err, ruledomain.ErrNotFound)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	svc := newTestService(t, "file:rule_deactivate?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := svc.Create(ctx, validRequest())
	assert.NoError(t, err)

	assert.NoError(t, svc.Deactivate(ctx, created.ID.String()))
	assert.NoError(t, svc.Deactivate(ctx, created.ID.String()))

	got, err := svc.Get(ctx, created.ID.String())
	assert.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestMatchScopeWildcards(t *testing.T) {
	svc := newTestService(t, "file:rule_match_scope?mode=memory&cache=shared")
	ctx := context.Background()

	destination := snowflake.ID(7001)
	otherDestination := snowflake.ID(7002)
	serviceID := snowflake.ID(8001)

	global, err := svc.Create(ctx, validRequest())
	assert.NoError(t, err)

	scoped := validRequest()
	scoped.Name = "Destination Uplift"
	scoped.DestinationID = strPtr(destination.String())
	scopedRule, err := svc.Create(ctx, scoped)
	assert.NoError(t, err)

	elsewhere := validRequest()
	elsewhere.Name = "Other Destination Uplift"
	elsewhere.DestinationID = strPtr(otherDestination.String())
	_, err = svc.Create(ctx, elsewhere)
	assert.NoError(t, err)

	matched, err := svc.Match(ctx, ruledomain.MatchQuery{
		ServiceType:   "hotel",
		ServiceID:     serviceID,
		DestinationID: &destination,
		Date:          time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Len(t, matched, 2)

	ids := []snowflake.ID{matched[0].ID, matched[1].ID}
	assert.Contains(t, ids, global.ID)
	assert.Contains(t, ids, scopedRule.ID)
}

func TestMatchFiltersValidityAndWeekday(t *testing.T) {
	svc := newTestService(t, "file:rule_match_window?mode=memory&cache=shared")
	ctx := context.Background()

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	summer := validRequest()
	summer.Name = "Summer Window"
	summer.ValidFrom = &from
	summer.ValidTo = &to
	_, err := svc.Create(ctx, summer)
	assert.NoError(t, err)

	weekend := validRequest()
	weekend.Name = "Weekend Uplift"
	weekend.RuleType = ruledomain.Weekend
	weekend.DaysOfWeek = []int{0, 6}
	weekendRule, err := svc.Create(ctx, weekend)
	assert.NoError(t, err)

	// September 15th 2026 is a Tuesday and falls outside the window.
	matched, err := svc.Match(ctx, ruledomain.MatchQuery{
		ServiceType: "hotel",
		ServiceID:   snowflake.ID(8001),
		Date:        time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Empty(t, matched)

	// September 12th 2026 is a Saturday.
	matched, err = svc.Match(ctx, ruledomain.MatchQuery{
		ServiceType: "hotel",
		ServiceID:   snowflake.ID(8001),
		Date:        time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, weekendRule.ID, matched[0].ID)
	}
}

func TestMatchAutoApplyOnly(t *testing.T) {
	svc := newTestService(t, "file:rule_match_autoapply?mode=memory&cache=shared")
	ctx := context.Background()

	manual := validRequest()
	manual.Name = "Manual Promo"
	manualApply := false
	manual.IsAutoApply = &manualApply
	_, err := svc.Create(ctx, manual)
	assert.NoError(t, err)

	auto, err := svc.Create(ctx, validRequest())
	assert.NoError(t, err)

	matched, err := svc.Match(ctx, ruledomain.MatchQuery{
		ServiceType:   "hotel",
		ServiceID:     snowflake.ID(8001),
		Date:          time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		AutoApplyOnly: true,
	})
	assert.NoError(t, err)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, auto.ID, matched[0].ID)
	}
}
