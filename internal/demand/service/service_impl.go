package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// baselineWindowDays is the trailing window raw counters are
// normalised against.
const baselineWindowDays = 28

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   demanddomain.Repository
	Funnel demanddomain.FunnelSource
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   demanddomain.Repository
	funnel demanddomain.FunnelSource
}

func New(p Params) demanddomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("demand.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		funnel: p.Funnel,
	}
}

// Score walks from the most specific metric row to the broadest one
// and falls back to the global default when nothing matches. Lookup
// failures degrade to the default as well; a pricing request is never
// blocked on the demand store.
func (s *Service) Score(ctx context.Context, query demanddomain.ScoreQuery) demanddomain.ScoreResult {
	day := query.Date.UTC().Truncate(24 * time.Hour)
	if day.IsZero() {
		day = time.Now().UTC().Truncate(24 * time.Hour)
	}

	type lookup struct {
		destinationID *snowflake.ID
		serviceType   *string
	}
	chain := []lookup{{query.DestinationID, query.ServiceType}}
	if query.DestinationID != nil && query.ServiceType != nil {
		chain = append(chain,
			lookup{query.DestinationID, nil},
			lookup{nil, query.ServiceType},
		)
	}

	for _, l := range chain {
		metric, err := s.repo.FindByKey(ctx, s.db, day, l.destinationID, l.serviceType)
		if err != nil {
			s.log.Warn("demand lookup failed, using default score",
				zap.Time("day", day),
				zap.Error(err),
			)
			break
		}
		if metric == nil || !metric.HasSignal() {
			continue
		}
		return demanddomain.ScoreResult{
			Score: metric.DemandScore,
			Tier:  demanddomain.TierForScore(metric.DemandScore),
		}
	}

	return demanddomain.ScoreResult{
		Score: demanddomain.DefaultScore,
		Tier:  demanddomain.TierForScore(demanddomain.DefaultScore),
	}
}

func (s *Service) AggregateDaily(ctx context.Context, day time.Time) (demanddomain.Summary, error) {
	if day.IsZero() {
		return demanddomain.Summary{}, demanddomain.ErrInvalidDay
	}
	day = day.UTC().Truncate(24 * time.Hour)

	summary := demanddomain.Summary{Day: day}

	dims, err := s.funnel.Dimensions(ctx, s.db, day)
	if err != nil {
		return summary, fmt.Errorf("list dimensions: %w", err)
	}

	for _, dim := range dims {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.aggregateOne(ctx, day, dim); err != nil {
			s.log.Warn("demand aggregation item failed",
				zap.Time("day", day),
				zap.Error(err),
			)
			summary.Errors = append(summary.Errors, demanddomain.ItemError{
				DestinationID: dim.DestinationID,
				ServiceType:   dim.ServiceType,
				Message:       err.Error(),
			})
			continue
		}
		summary.MetricsUpdated++
	}

	s.log.Info("demand aggregation finished",
		zap.Time("day", day),
		zap.Int("metrics_updated", summary.MetricsUpdated),
		zap.Int("failed", len(summary.Errors)),
	)
	return summary, nil
}

func (s *Service) History(ctx context.Context, query demanddomain.HistoryQuery) ([]demanddomain.DemandMetric, error) {
	if query.From.IsZero() || query.To.IsZero() || query.To.Before(query.From) {
		return nil, demanddomain.ErrInvalidDateRange
	}
	return s.repo.History(ctx, s.db, query)
}

func (s *Service) aggregateOne(ctx context.Context, day time.Time, dim demanddomain.Dimension) error {
	counters, err := s.funnel.Counters(ctx, s.db, day, dim)
	if err != nil {
		return fmt.Errorf("tally funnel: %w", err)
	}

	baseline, err := s.repo.BaselineAverages(ctx, s.db, day, dim.DestinationID, dim.ServiceType, baselineWindowDays)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}

	metric := &demanddomain.DemandMetric{
		MetricDate:         day,
		DestinationID:      dim.DestinationID,
		ServiceType:        dim.ServiceType,
		SearchCount:        counters.SearchCount,
		InquiryCount:       counters.InquiryCount,
		QuoteRequestCount:  counters.QuoteRequestCount,
		QuotesGenerated:    counters.QuotesGenerated,
		BookingsConfirmed:  counters.BookingsConfirmed,
		TotalRevenue:       counters.TotalRevenue,
		AvailableInventory: counters.AvailableInventory,
		BookedInventory:    counters.BookedInventory,
	}
	if counters.BookingsConfirmed > 0 {
		metric.AverageOrderValue = counters.TotalRevenue / float64(counters.BookingsConfirmed)
	}
	if total := counters.AvailableInventory + counters.BookedInventory; total > 0 {
		metric.OccupancyRate = float64(counters.BookedInventory) / float64(total)
	}
	if counters.InquiryCount > 0 {
		metric.ConversionRate = float64(counters.BookingsConfirmed) / float64(counters.InquiryCount)
	}
	metric.DemandScore = ComposeScore(metric, baseline)

	existing, err := s.repo.FindByKey(ctx, s.db, day, dim.DestinationID, dim.ServiceType)
	if err != nil {
		return fmt.Errorf("load metric: %w", err)
	}
	if existing != nil {
		metric.ID = existing.ID
		metric.CreatedAt = existing.CreatedAt
	} else {
		metric.ID = s.genID.Generate()
		metric.CreatedAt = time.Now().UTC()
	}
	metric.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, s.db, metric); err != nil {
		return fmt.Errorf("upsert metric: %w", err)
	}
	return nil
}

// ComposeScore weights inquiry volume, occupancy, and conversion into
// a 0-100 score. Inquiry and conversion are normalised against the
// trailing baseline so the score tracks relative movement rather than
// absolute volume. An all-zero row scores as the default.
func ComposeScore(metric *demanddomain.DemandMetric, baseline demanddomain.Baseline) float64 {
	if !metric.HasSignal() {
		return demanddomain.DefaultScore
	}

	inquiry := normalize(float64(metric.InquiryCount), baseline.AvgInquiries)
	occupancy := clamp01(metric.OccupancyRate)
	conversion := normalize(metric.ConversionRate, baseline.AvgConversion)

	score := (0.35*inquiry + 0.35*occupancy + 0.30*conversion) * 100
	return math.Max(0, math.Min(100, score))
}

// normalize maps a raw value onto [0,1] with twice the trailing
// average as the ceiling, so an average day lands near 0.5.
func normalize(value, avg float64) float64 {
	if avg <= 0 {
		if value > 0 {
			return 1
		}
		return 0
	}
	return clamp01(value / (2 * avg))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
