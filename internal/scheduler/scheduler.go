package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	catalogdomain "github.com/voyara/voyara/internal/catalog/domain"
	"github.com/voyara/voyara/internal/clock"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	obsmetrics "github.com/voyara/voyara/internal/observability/metrics"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const runLockKey = "voyara:scheduler:run"

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	DemandSvc   demanddomain.Service
	PricingSvc  pricingdomain.Service
	LedgerSvc   adjustmentdomain.Service
	CatalogRepo catalogdomain.Repository

	Locker *Locker `optional:"true"`
	Config Config  `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	genID       *snowflake.Node
	clock       clock.Clock
	demandSvc   demanddomain.Service
	pricingSvc  pricingdomain.Service
	ledgerSvc   adjustmentdomain.Service
	catalogRepo catalogdomain.Repository
	locker      *Locker
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil ||
		p.DemandSvc == nil || p.PricingSvc == nil || p.LedgerSvc == nil || p.CatalogRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		genID:       p.GenID,
		clock:       p.Clock,
		demandSvc:   p.DemandSvc,
		pricingSvc:  p.PricingSvc,
		ledgerSvc:   p.LedgerSvc,
		catalogRepo: p.CatalogRepo,
		locker:      p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(parent, runLockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("scheduler lock unavailable, running anyway", zap.Error(err))
		} else if !acquired {
			s.log.Debug("scheduler run held by another replica")
			return nil
		} else {
			defer func() {
				if releaseErr := s.locker.Release(parent, runLockKey, token); releaseErr != nil {
					s.log.Warn("scheduler lock release failed", zap.Error(releaseErr))
				}
			}()
		}
	}

	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"demand_aggregation", s.isJobEnabled("demand_aggregation"), func(ctx context.Context) error {
			return s.runJob(ctx, "demand_aggregation", s.cfg.BatchSize, s.cfg.JobTimeout, s.DemandAggregationJob)
		}},
		{"auto_apply_sweep", s.isJobEnabled("auto_apply_sweep"), func(ctx context.Context) error {
			return s.runJob(ctx, "auto_apply_sweep", s.cfg.BatchSize, s.cfg.JobTimeout, s.AutoApplySweepJob)
		}},
		{"price_history", s.isJobEnabled("price_history"), func(ctx context.Context) error {
			return s.runJob(ctx, "price_history", s.cfg.BatchSize, s.cfg.JobTimeout, s.PriceHistoryJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means every job runs (single-node mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
