package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  adjustmentdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  adjustmentdomain.Repository
}

func New(p Params) adjustmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("adjustment.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) RecordTrace(ctx context.Context, decision adjustmentdomain.Decision) error {
	if decision.ServiceID == 0 {
		return adjustmentdomain.ErrInvalidServiceID
	}
	if decision.TravelDate.IsZero() {
		return adjustmentdomain.ErrInvalidDateRange
	}
	if len(decision.AppliedRules) == 0 {
		return nil
	}

	adjustmentDate := decision.AdjustmentDate
	if adjustmentDate.IsZero() {
		adjustmentDate = time.Now()
	}
	adjustmentDate = adjustmentDate.UTC().Truncate(24 * time.Hour)
	travelDate := decision.TravelDate.UTC().Truncate(24 * time.Hour)

	for _, applied := range decision.AppliedRules {
		row := &adjustmentdomain.PriceAdjustment{
			ID:              s.genID.Generate(),
			ServiceType:     decision.ServiceType,
			ServiceID:       decision.ServiceID,
			ServiceName:     decision.ServiceName,
			RuleID:          applied.RuleID,
			RuleName:        applied.RuleName,
			RuleType:        applied.RuleType,
			AdjustmentType:  applied.AdjustmentType,
			AdjustmentValue: applied.AdjustmentValue,
			OriginalPrice:   applied.PriceBefore,
			AdjustedPrice:   applied.PriceAfter,
			AdjustmentDate:  adjustmentDate,
			TravelDate:      travelDate,
			QuoteID:         decision.QuoteID,
			BookingID:       decision.BookingID,
			TriggeredBy:     decision.TriggeredBy,
			ApprovedBy:      decision.ApprovedBy,
			Checksum:        buildChecksum(decision.ServiceID, adjustmentDate, applied.RuleID, decision.QuoteID),
			CreatedAt:       time.Now().UTC(),
		}

		inserted, err := s.repo.InsertLedger(ctx, s.db, row)
		if err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
		if !inserted {
			s.log.Debug("adjustment already recorded",
				zap.String("service_id", decision.ServiceID.String()),
				zap.String("rule_id", applied.RuleID.String()),
				zap.Time("adjustment_date", adjustmentDate),
			)
		}
	}
	return nil
}

func (s *Service) ListByService(ctx context.Context, query adjustmentdomain.LedgerQuery) ([]adjustmentdomain.PriceAdjustment, error) {
	if query.ServiceID == 0 {
		return nil, adjustmentdomain.ErrInvalidServiceID
	}
	return s.repo.ListLedger(ctx, s.db, query)
}

func (s *Service) SnapshotPrice(ctx context.Context, snap adjustmentdomain.Snapshot) error {
	if snap.ServiceID == 0 {
		return adjustmentdomain.ErrInvalidServiceID
	}
	if snap.RecordDate.IsZero() {
		return adjustmentdomain.ErrInvalidDateRange
	}
	if snap.BasePrice < 0 || snap.AdjustedPrice < 0 {
		return adjustmentdomain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	row := &adjustmentdomain.PriceHistory{
		ID:            s.genID.Generate(),
		ServiceType:   snap.ServiceType,
		ServiceID:     snap.ServiceID,
		RecordDate:    snap.RecordDate.UTC().Truncate(24 * time.Hour),
		BasePrice:     snap.BasePrice,
		AdjustedPrice: snap.AdjustedPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.repo.UpsertHistory(ctx, s.db, row)
}

func (s *Service) Volatility(ctx context.Context, query adjustmentdomain.VolatilityQuery) (adjustmentdomain.VolatilityReport, error) {
	report := adjustmentdomain.VolatilityReport{
		ServiceID: query.ServiceID,
		From:      query.From,
		To:        query.To,
	}
	if query.ServiceID == 0 {
		return report, adjustmentdomain.ErrInvalidServiceID
	}
	if query.From.IsZero() || query.To.IsZero() || query.To.Before(query.From) {
		return report, adjustmentdomain.ErrInvalidDateRange
	}

	series, err := s.repo.HistorySeries(ctx, s.db, query)
	if err != nil {
		return report, err
	}
	if len(series) == 0 {
		return report, nil
	}

	report.Days = len(series)
	report.MinPrice = series[0].AdjustedPrice
	report.MaxPrice = series[0].AdjustedPrice

	var sum float64
	for _, row := range series {
		sum += row.AdjustedPrice
		report.MinPrice = math.Min(report.MinPrice, row.AdjustedPrice)
		report.MaxPrice = math.Max(report.MaxPrice, row.AdjustedPrice)
	}
	report.AvgPrice = sum / float64(len(series))
	report.Swing = report.MaxPrice - report.MinPrice

	var variance float64
	for _, row := range series {
		delta := row.AdjustedPrice - report.AvgPrice
		variance += delta * delta
	}
	report.StdDev = math.Sqrt(variance / float64(len(series)))
	return report, nil
}

func buildChecksum(serviceID snowflake.ID, adjustmentDate time.Time, ruleID snowflake.ID, quoteID *snowflake.ID) string {
	quotePart := "none"
	if quoteID != nil && *quoteID != 0 {
		quotePart = quoteID.String()
	}

	payload := fmt.Sprintf(
		"%s|%s|%s|%s",
		serviceID.String(),
		adjustmentDate.Format(time.RFC3339),
		ruleID.String(),
		quotePart,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
