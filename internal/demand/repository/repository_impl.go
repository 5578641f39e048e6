package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() demanddomain.Repository {
	return &repo{}
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, day time.Time, destinationID *snowflake.ID, serviceType *string) (*demanddomain.DemandMetric, error) {
	stmt := db.WithContext(ctx).Model(&demanddomain.DemandMetric{}).
		Where("metric_date = ?", day.UTC().Truncate(24*time.Hour))
	stmt = whereDimension(stmt, destinationID, serviceType)

	var metric demanddomain.DemandMetric
	err := stmt.First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &metric, nil
}

// Upsert targets the natural key (date, destination, service type).
// Retried runs overwrite the same row, which keeps the nightly job
// idempotent without a conflict clause that nullable keys would break.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, metric *demanddomain.DemandMetric) error {
	existing, err := r.FindByKey(ctx, db, metric.MetricDate, metric.DestinationID, metric.ServiceType)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.WithContext(ctx).Create(metric).Error
	}
	metric.ID = existing.ID
	metric.CreatedAt = existing.CreatedAt
	return db.WithContext(ctx).Save(metric).Error
}

func (r *repo) BaselineAverages(ctx context.Context, db *gorm.DB, day time.Time, destinationID *snowflake.ID, serviceType *string, window int) (demanddomain.Baseline, error) {
	day = day.UTC().Truncate(24 * time.Hour)
	from := day.AddDate(0, 0, -window)

	stmt := db.WithContext(ctx).Model(&demanddomain.DemandMetric{}).
		Where("metric_date >= ? AND metric_date < ?", from, day)
	stmt = whereDimension(stmt, destinationID, serviceType)

	var row struct {
		AvgInquiries  float64
		AvgConversion float64
	}
	err := stmt.Select("COALESCE(AVG(inquiry_count), 0) AS avg_inquiries, COALESCE(AVG(conversion_rate), 0) AS avg_conversion").
		Scan(&row).Error
	if err != nil {
		return demanddomain.Baseline{}, err
	}
	return demanddomain.Baseline{
		AvgInquiries:  row.AvgInquiries,
		AvgConversion: row.AvgConversion,
	}, nil
}

func (r *repo) History(ctx context.Context, db *gorm.DB, query demanddomain.HistoryQuery) ([]demanddomain.DemandMetric, error) {
	stmt := db.WithContext(ctx).Model(&demanddomain.DemandMetric{}).
		Where("metric_date >= ? AND metric_date <= ?",
			query.From.UTC().Truncate(24*time.Hour),
			query.To.UTC().Truncate(24*time.Hour),
		)
	stmt = whereDimension(stmt, query.DestinationID, query.ServiceType)

	var metrics []demanddomain.DemandMetric
	err := stmt.Order("metric_date ASC").Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func whereDimension(stmt *gorm.DB, destinationID *snowflake.ID, serviceType *string) *gorm.DB {
	if destinationID != nil {
		stmt = stmt.Where("destination_id = ?", *destinationID)
	} else {
		stmt = stmt.Where("destination_id IS NULL")
	}
	if serviceType != nil {
		stmt = stmt.Where("service_type = ?", *serviceType)
	} else {
		stmt = stmt.Where("service_type IS NULL")
	}
	return stmt
}
