package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Read-only views over the booking platform's funnel tables. The
// pricing engine aggregates from them and never writes them.

type SearchEvent struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	DestinationID *snowflake.ID `gorm:"index"`
	ServiceType   *string       `gorm:"type:text"`
	OccurredAt    time.Time     `gorm:"not null;index"`
}

func (SearchEvent) TableName() string { return "search_events" }

type Inquiry struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	DestinationID *snowflake.ID `gorm:"index"`
	ServiceType   *string       `gorm:"type:text"`
	CreatedAt     time.Time     `gorm:"not null;index"`
}

func (Inquiry) TableName() string { return "inquiries" }

type Quote struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	DestinationID *snowflake.ID `gorm:"index"`
	ServiceType   *string       `gorm:"type:text"`
	TotalPrice    float64       `gorm:"type:numeric"`
	Status        string        `gorm:"type:text"`
	CreatedAt     time.Time     `gorm:"not null;index"`
}

func (Quote) TableName() string { return "quotes" }

type Booking struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	DestinationID *snowflake.ID `gorm:"index"`
	ServiceType   *string       `gorm:"type:text"`
	TotalPrice    float64       `gorm:"type:numeric"`
	PaxCount      int           `gorm:"not null;default:1"`
	Status        string        `gorm:"type:text"`
	CreatedAt     time.Time     `gorm:"not null;index"`
}

func (Booking) TableName() string { return "bookings" }

type InventorySnapshot struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	DestinationID *snowflake.ID `gorm:"index"`
	ServiceType   *string       `gorm:"type:text"`
	SnapshotDate  time.Time     `gorm:"not null;index"`
	Available     int           `gorm:"not null;default:0"`
	Booked        int           `gorm:"not null;default:0"`
}

func (InventorySnapshot) TableName() string { return "inventory_snapshots" }

// FunnelCounters is one day's raw funnel tally for a dimension pair.
type FunnelCounters struct {
	SearchCount        int
	InquiryCount       int
	QuoteRequestCount  int
	QuotesGenerated    int
	BookingsConfirmed  int
	TotalRevenue       float64
	AvailableInventory int
	BookedInventory    int
}
