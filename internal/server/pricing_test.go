package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"github.com/voyara/voyara/internal/clock"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
)

type fakePricingService struct {
	calculateCalls int
	lastRequest    pricingdomain.CalculateRequest
	calculateErr   error
}

func (f *fakePricingService) Calculate(ctx context.Context, req pricingdomain.CalculateRequest) (*pricingdomain.CalculationResult, error) {
	f.calculateCalls++
	f.lastRequest = req
	_ = ctx
	if f.calculateErr != nil {
		return nil, f.calculateErr
	}
	return &pricingdomain.CalculationResult{
		OriginalPrice: req.BasePrice,
		FinalPrice:    req.BasePrice * 1.15,
		Currency:      "USD",
		DemandTier:    demanddomain.TierNormal,
	}, nil
}

func (f *fakePricingService) Simulate(ctx context.Context, req pricingdomain.SimulateRequest) (*pricingdomain.SimulationResult, error) {
	_ = ctx
	_ = req
	return &pricingdomain.SimulationResult{}, nil
}

type fakeRuleService struct {
	ruledomain.Service

	getErr  error
	getRule *ruledomain.PricingRule
}

func (f *fakeRuleService) Get(ctx context.Context, id string) (*ruledomain.PricingRule, error) {
	_ = ctx
	_ = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getRule, nil
}

type fakeDemandService struct {
	demanddomain.Service

	lastQuery demanddomain.ScoreQuery
}

func (f *fakeDemandService) Score(ctx context.Context, query demanddomain.ScoreQuery) demanddomain.ScoreResult {
	_ = ctx
	f.lastQuery = query
	return demanddomain.ScoreResult{Score: 72, Tier: demanddomain.TierHigh}
}

type fakeLedgerService struct {
	adjustmentdomain.Service

	lastQuery adjustmentdomain.LedgerQuery
}

func (f *fakeLedgerService) ListByService(ctx context.Context, query adjustmentdomain.LedgerQuery) ([]adjustmentdomain.PriceAdjustment, error) {
	_ = ctx
	f.lastQuery = query
	return []adjustmentdomain.PriceAdjustment{}, nil
}

func newTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv.engine = router
	srv.registerPricingRoutes()
	return router
}

func performJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCalculatePriceHandler(t *testing.T) {
	pricingSvc := &fakePricingService{}
	srv := &Server{
		pricingSvc: pricingSvc,
		clock:      clock.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}
	router := newTestRouter(srv)

	body := `{
		"service_type": "hotel",
		"service_id": "1234567890123456789",
		"base_price": 1000,
		"travel_date": "2026-09-15T00:00:00Z"
	}`
	resp := performJSON(router, http.MethodPost, "/v1/pricing/calculate", body)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, pricingSvc.calculateCalls)
	assert.Equal(t, "hotel", pricingSvc.lastRequest.ServiceType)

	var payload struct {
		Data pricingdomain.CalculationResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, 1150.0, payload.Data.FinalPrice)
}

func TestCalculatePriceRejectsMalformedBody(t *testing.T) {
	pricingSvc := &fakePricingService{}
	srv := &Server{pricingSvc: pricingSvc}
	router := newTestRouter(srv)

	resp := performJSON(router, http.MethodPost, "/v1/pricing/calculate", `{"service_type":`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 0, pricingSvc.calculateCalls)
}

func TestCalculatePriceMapsDomainValidationErrors(t *testing.T) {
	pricingSvc := &fakePricingService{calculateErr: pricingdomain.ErrInvalidBasePrice}
	srv := &Server{pricingSvc: pricingSvc}
	router := newTestRouter(srv)

	body := `{
		"service_type": "hotel",
		"service_id": "1234567890123456789",
		"base_price": 1000,
		"travel_date": "2026-09-15T00:00:00Z"
	}`
	resp := performJSON(router, http.MethodPost, "/v1/pricing/calculate", body)

	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var payload errorResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "validation_error", payload.Error.Type)
	assert.Equal(t, "invalid_base_price", payload.Error.Errors[0].Code)
	assert.Equal(t, "base_price", payload.Error.Errors[0].Field)
}

func TestGetRuleNotFoundMapsTo404(t *testing.T) {
	srv := &Server{ruleSvc: &fakeRuleService{getErr: ruledomain.ErrNotFound}}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/v1/pricing/rules/123", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetDemandScorePassesQueryThrough(t *testing.T) {
	demandSvc := &fakeDemandService{}
	srv := &Server{
		demandSvc: demandSvc,
		clock:     clock.NewFakeClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/v1/demand/score?service_type=tour&date=2026-09-15", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	if assert.NotNil(t, demandSvc.lastQuery.ServiceType) {
		assert.Equal(t, "tour", *demandSvc.lastQuery.ServiceType)
	}
	assert.Nil(t, demandSvc.lastQuery.DestinationID)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), demandSvc.lastQuery.Date)

	var payload struct {
		Data demanddomain.ScoreResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, 72.0, payload.Data.Score)
}

func TestListAdjustmentsRejectsBadServiceID(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	srv := &Server{ledgerSvc: ledgerSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/v1/pricing/adjustments?service_id=not-a-number", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListAdjustmentsParsesFilters(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	srv := &Server{ledgerSvc: ledgerSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/v1/pricing/adjustments?service_id=1234567890123456789&date=2026-09-15&limit=10", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, snowflake.ID(1234567890123456789), ledgerSvc.lastQuery.ServiceID)
	if assert.NotNil(t, ledgerSvc.lastQuery.AdjustmentDate) {
		assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *ledgerSvc.lastQuery.AdjustmentDate)
	}
	assert.Equal(t, 10, ledgerSvc.lastQuery.Limit)
}
