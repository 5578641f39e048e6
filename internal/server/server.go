package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"github.com/voyara/voyara/internal/clock"
	"github.com/voyara/voyara/internal/config"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	"github.com/voyara/voyara/internal/observability"
	obsmiddleware "github.com/voyara/voyara/internal/observability/logger"
	obsmetrics "github.com/voyara/voyara/internal/observability/metrics"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	ruledomain "github.com/voyara/voyara/internal/pricingrule/domain"
	"github.com/voyara/voyara/internal/scheduler"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node
	clock  clock.Clock

	ruleSvc    ruledomain.Service
	demandSvc  demanddomain.Service
	pricingSvc pricingdomain.Service
	ledgerSvc  adjustmentdomain.Service
	scheduler  *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node
	Clock clock.Clock

	RuleSvc    ruledomain.Service
	DemandSvc  demanddomain.Service
	PricingSvc pricingdomain.Service
	LedgerSvc  adjustmentdomain.Service
	Scheduler  *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		clock:      p.Clock,
		ruleSvc:    p.RuleSvc,
		demandSvc:  p.DemandSvc,
		pricingSvc: p.PricingSvc,
		ledgerSvc:  p.LedgerSvc,
		scheduler:  p.Scheduler,
	}

	svc.registerPricingRoutes()

	return svc
}

func (s *Server) registerPricingRoutes() {
	v1 := s.engine.Group("/v1")

	pricing := v1.Group("/pricing")
	{
		pricing.POST("/calculate", s.CalculatePrice)
		pricing.POST("/simulate", s.SimulatePricing)

		pricing.POST("/rules", s.CreateRule)
		pricing.GET("/rules", s.ListRules)
		pricing.GET("/rules/:id", s.GetRule)
		pricing.PATCH("/rules/:id", s.UpdateRule)
		pricing.DELETE("/rules/:id", s.DeactivateRule)

		pricing.GET("/adjustments", s.ListAdjustments)
		pricing.GET("/history/:serviceId", s.GetVolatility)
	}

	demand := v1.Group("/demand")
	{
		demand.GET("/score", s.GetDemandScore)
		demand.GET("/metrics", s.ListDemandMetrics)
	}

	jobs := v1.Group("/jobs")
	{
		jobs.POST("/demand-aggregation", s.TriggerDemandAggregation)
		jobs.POST("/auto-apply", s.TriggerAutoApplySweep)
	}
}

// RunHTTP serves the engine for the app lifetime.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, srv *Server) {
	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	})
}
