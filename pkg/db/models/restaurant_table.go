package models

import (
	"time"

	"github.com/google/uuid"
)

// RestaurantTable is one physical table. Its QR code encodes a signed
// reference to this row; deactivating the table invalidates the code.
type RestaurantTable struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number    int       `gorm:"column:number;not null;uniqueIndex:uq_restaurant_tables_number"`
	Label     string    `gorm:"column:label;not null"`
	Seats     int       `gorm:"column:seats;not null;default:4"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
