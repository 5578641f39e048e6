package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	catalogdomain "github.com/voyara/voyara/internal/catalog/domain"
	obsmetrics "github.com/voyara/voyara/internal/observability/metrics"
	pricingdomain "github.com/voyara/voyara/internal/pricing/domain"
	"go.uber.org/zap"
)

// DemandAggregationJob recomputes yesterday's demand metrics. Item
// failures are already isolated inside AggregateDaily; they surface
// here as counts, not as a job failure.
func (s *Scheduler) DemandAggregationJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "demand_aggregation", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	yesterday := s.clock.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	summary, err := s.demandSvc.AggregateDaily(ctx, yesterday)
	if err != nil {
		run.IncError()
		return fmt.Errorf("aggregate %s: %w", yesterday.Format("2006-01-02"), err)
	}

	run.AddProcessed(summary.MetricsUpdated)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.AddItemsProcessed("demand_aggregation", summary.MetricsUpdated)
	schedMetrics.AddItemsFailed("demand_aggregation", len(summary.Errors))
	for range summary.Errors {
		run.IncError()
	}

	return nil
}

// AutoApplySweepJob reprices every active catalog service for
// tomorrow's travel date using auto-apply rules only, writing the
// resulting trace to the ledger. One failing service never stops the
// sweep.
func (s *Scheduler) AutoApplySweepJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "auto_apply_sweep", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	travelDate := s.clock.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)

	var sweepErr error
	err := s.forEachActiveService(ctx, func(svc catalogdomain.TravelService) {
		req := pricingdomain.CalculateRequest{
			PricingContext: pricingContextFor(svc),
			TravelDate:     travelDate,
			TriggeredBy:    string(adjustmentdomain.TriggeredByCron),
			AutoApplyOnly:  true,
		}
		if _, err := s.pricingSvc.Calculate(ctx, req); err != nil {
			run.IncError()
			obsmetrics.Scheduler().AddItemsFailed("auto_apply_sweep", 1)
			s.logger(ctx).Warn("auto apply failed for service",
				zap.String("service_id", svc.ID.String()),
				zap.Error(err),
			)
			sweepErr = errors.Join(sweepErr, fmt.Errorf("service %s: %w", svc.ID, err))
			return
		}
		run.AddProcessed(1)
		obsmetrics.Scheduler().AddItemsProcessed("auto_apply_sweep", 1)
	})
	if err != nil {
		run.IncError()
		return err
	}
	return sweepErr
}

// PriceHistoryJob snapshots today's effective price per active
// service into the history table.
func (s *Scheduler) PriceHistoryJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "price_history", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)

	var jobErr error
	err := s.forEachActiveService(ctx, func(svc catalogdomain.TravelService) {
		sim, err := s.pricingSvc.Simulate(ctx, pricingdomain.SimulateRequest{
			PricingContext: pricingContextFor(svc),
			StartDate:      today,
			EndDate:        today,
		})
		if err == nil {
			err = s.ledgerSvc.SnapshotPrice(ctx, adjustmentdomain.Snapshot{
				ServiceType:   svc.ServiceType,
				ServiceID:     svc.ID,
				RecordDate:    today,
				BasePrice:     svc.BasePrice,
				AdjustedPrice: sim.DailyPricing[0].FinalPrice,
			})
		}
		if err != nil {
			run.IncError()
			obsmetrics.Scheduler().AddItemsFailed("price_history", 1)
			s.logger(ctx).Warn("price snapshot failed for service",
				zap.String("service_id", svc.ID.String()),
				zap.Error(err),
			)
			jobErr = errors.Join(jobErr, fmt.Errorf("service %s: %w", svc.ID, err))
			return
		}
		run.AddProcessed(1)
		obsmetrics.Scheduler().AddItemsProcessed("price_history", 1)
	})
	if err != nil {
		run.IncError()
		return err
	}
	return jobErr
}

// forEachActiveService pages through the catalog, applying fn per
// service. Paging errors abort the scan; fn handles its own failures.
func (s *Scheduler) forEachActiveService(ctx context.Context, fn func(catalogdomain.TravelService)) error {
	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.catalogRepo.ListActive(ctx, s.db, lastID, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		for _, svc := range page {
			fn(svc)
		}
		lastID = int64(page[len(page)-1].ID)
	}
}

func pricingContextFor(svc catalogdomain.TravelService) pricingdomain.PricingContext {
	pctx := pricingdomain.PricingContext{
		ServiceType: svc.ServiceType,
		ServiceID:   svc.ID.String(),
		ServiceName: svc.Name,
		BasePrice:   svc.BasePrice,
		Currency:    svc.Currency,
	}
	if svc.DestinationID != nil {
		destination := svc.DestinationID.String()
		pctx.DestinationID = &destination
	}
	if svc.SupplierID != nil {
		supplier := svc.SupplierID.String()
		pctx.SupplierID = &supplier
	}
	return pctx
}
