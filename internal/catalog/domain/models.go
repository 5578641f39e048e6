package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TravelService is the platform catalog snapshot the nightly jobs
// iterate. The booking platform owns the table; this engine reads it
// to enumerate active services and their published base prices.
type TravelService struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name          string        `json:"name" gorm:"type:text;not null"`
	ServiceType   string        `json:"service_type" gorm:"type:text;not null;index"`
	DestinationID *snowflake.ID `json:"destination_id,omitempty" gorm:"index"`
	SupplierID    *snowflake.ID `json:"supplier_id,omitempty" gorm:"index"`
	BasePrice     float64       `json:"base_price" gorm:"type:numeric;not null"`
	Currency      string        `json:"currency" gorm:"type:text;not null"`
	IsActive      bool          `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TravelService) TableName() string { return "travel_services" }
