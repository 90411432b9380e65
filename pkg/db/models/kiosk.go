package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Kiosk is an unattended retail unit placed inside a host store.
type Kiosk struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Location  string         `gorm:"column:location"`
	StoreID   uuid.UUID      `gorm:"column:store_id;type:uuid;not null;index"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
