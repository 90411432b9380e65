package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// PrintJobRefConstraint is the unique index that deduplicates ingested jobs.
const PrintJobRefConstraint = "ux_print_jobs_transaction_ref"

// PrintJob is the kiosk-side event the commission trigger consumes. The
// commission status only ever moves pending_commission -> processed.
type PrintJob struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	KioskID        uuid.UUID             `gorm:"column:kiosk_id;type:uuid;not null;index"`
	TransactionRef string                `gorm:"column:transaction_ref;not null;uniqueIndex:ux_print_jobs_transaction_ref"`
	Kind           enums.TransactionType `gorm:"column:kind;type:transaction_type_enum;not null"`
	PaymentMethod  enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method_enum;not null"`
	GiftCardBrand  *string               `gorm:"column:gift_card_brand"`

	GrossAmount    decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	ProcessingFees decimal.Decimal `gorm:"column:processing_fees;type:numeric(12,2);not null"`
	StateTax       decimal.Decimal `gorm:"column:state_tax;type:numeric(12,2);not null"`
	CostBasis      decimal.Decimal `gorm:"column:cost_basis;type:numeric(12,2);not null"`

	CommissionStatus enums.CommissionStatus `gorm:"column:commission_status;type:commission_status_enum;not null;default:pending_commission;index"`
	ProcessedAt      *time.Time             `gorm:"column:processed_at"`
	AttemptCount     int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError        *string                `gorm:"column:last_error"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Processed reports whether the commission trigger has already settled the job.
func (p *PrintJob) Processed() bool {
	return p.CommissionStatus == enums.CommissionStatusProcessed
}
