package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
	"gorm.io/gorm"
)

type funnelSource struct{}

func ProvideFunnelSource() demanddomain.FunnelSource {
	return &funnelSource{}
}

// Dimensions collects every (destination, service type) pair seen in
// the day's funnel, the broader single-dimension rollups, and the
// global pair.
func (f *funnelSource) Dimensions(ctx context.Context, db *gorm.DB, day time.Time) ([]demanddomain.Dimension, error) {
	from, to := dayBounds(day)

	type dimRow struct {
		DestinationID *snowflake.ID
		ServiceType   *string
	}

	seen := make(map[string]bool)
	dims := make([]demanddomain.Dimension, 0, 16)
	add := func(destinationID *snowflake.ID, serviceType *string) {
		key := dimKey(destinationID, serviceType)
		if seen[key] {
			return
		}
		seen[key] = true
		dims = append(dims, demanddomain.Dimension{DestinationID: destinationID, ServiceType: serviceType})
	}

	// Global rollup row is always recomputed.
	add(nil, nil)

	sources := []struct {
		table      string
		timeColumn string
	}{
		{"search_events", "occurred_at"},
		{"inquiries", "created_at"},
		{"quotes", "created_at"},
		{"bookings", "created_at"},
	}
	for _, src := range sources {
		var rows []dimRow
		err := db.WithContext(ctx).
			Table(src.table).
			Select("DISTINCT destination_id, service_type").
			Where(src.timeColumn+" >= ? AND "+src.timeColumn+" < ?", from, to).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			add(row.DestinationID, row.ServiceType)
			// Broader rollups so the scorer fallback chain has rows.
			add(row.DestinationID, nil)
			add(nil, row.ServiceType)
		}
	}

	return dims, nil
}

func (f *funnelSource) Counters(ctx context.Context, db *gorm.DB, day time.Time, dim demanddomain.Dimension) (demanddomain.FunnelCounters, error) {
	from, to := dayBounds(day)
	var counters demanddomain.FunnelCounters

	searches, err := f.count(ctx, db, "search_events", "occurred_at", from, to, dim)
	if err != nil {
		return counters, err
	}
	inquiries, err := f.count(ctx, db, "inquiries", "created_at", from, to, dim)
	if err != nil {
		return counters, err
	}
	quotes, err := f.count(ctx, db, "quotes", "created_at", from, to, dim)
	if err != nil {
		return counters, err
	}

	var bookingAgg struct {
		Confirmed int
		Revenue   float64
	}
	stmt := db.WithContext(ctx).
		Table("bookings").
		Select("COUNT(*) AS confirmed, COALESCE(SUM(total_price), 0) AS revenue").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status = ?", "confirmed")
	stmt = whereFunnelDimension(stmt, dim)
	if err := stmt.Scan(&bookingAgg).Error; err != nil {
		return counters, err
	}

	var inventory struct {
		Available int
		Booked    int
	}
	invStmt := db.WithContext(ctx).
		Table("inventory_snapshots").
		Select("COALESCE(SUM(available), 0) AS available, COALESCE(SUM(booked), 0) AS booked").
		Where("snapshot_date = ?", from)
	invStmt = whereFunnelDimension(invStmt, dim)
	if err := invStmt.Scan(&inventory).Error; err != nil {
		return counters, err
	}

	counters.SearchCount = searches
	counters.InquiryCount = inquiries
	counters.QuoteRequestCount = quotes
	counters.QuotesGenerated = quotes
	counters.BookingsConfirmed = bookingAgg.Confirmed
	counters.TotalRevenue = bookingAgg.Revenue
	counters.AvailableInventory = inventory.Available
	counters.BookedInventory = inventory.Booked
	return counters, nil
}

func (f *funnelSource) count(ctx context.Context, db *gorm.DB, table, timeColumn string, from, to time.Time, dim demanddomain.Dimension) (int, error) {
	var total int64
	stmt := db.WithContext(ctx).
		Table(table).
		Where(timeColumn+" >= ? AND "+timeColumn+" < ?", from, to)
	stmt = whereFunnelDimension(stmt, dim)
	if err := stmt.Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// whereFunnelDimension scopes a funnel query to a dimension pair; a nil
// side means "all", not "is null", because rollup rows sum every event.
func whereFunnelDimension(stmt *gorm.DB, dim demanddomain.Dimension) *gorm.DB {
	if dim.DestinationID != nil {
		stmt = stmt.Where("destination_id = ?", *dim.DestinationID)
	}
	if dim.ServiceType != nil {
		stmt = stmt.Where("service_type = ?", *dim.ServiceType)
	}
	return stmt
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	from := day.UTC().Truncate(24 * time.Hour)
	return from, from.AddDate(0, 0, 1)
}

func dimKey(destinationID *snowflake.ID, serviceType *string) string {
	key := "|"
	if destinationID != nil {
		key = destinationID.String() + "|"
	}
	if serviceType != nil {
		key += *serviceType
	}
	return key
}
