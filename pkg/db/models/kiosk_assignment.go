package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// KioskAssignment links a manager or sales rep to a kiosk with the commission
// rate in force while the assignment is active. The ledger snapshots the rate
// at settlement time, so editing or ending an assignment never rewrites
// history.
type KioskAssignment struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	KioskID     uuid.UUID            `gorm:"column:kiosk_id;type:uuid;not null;index:ix_kiosk_assignments_kiosk_role"`
	Role        enums.AssignmentRole `gorm:"column:role;type:assignment_role_enum;not null;index:ix_kiosk_assignments_kiosk_role"`
	PartyID     uuid.UUID            `gorm:"column:party_id;type:uuid;not null"`
	RatePercent decimal.Decimal      `gorm:"column:rate_percent;type:numeric(5,2);not null"`
	Active      bool                 `gorm:"column:active;not null;default:true"`
	EffectiveAt time.Time            `gorm:"column:effective_at;not null"`
	EndedAt     *time.Time           `gorm:"column:ended_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
