package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// LedgerEntryRefConstraint is the unique index that backs transaction-ref
// idempotency. Violations of it are resolved by returning the existing row.
const LedgerEntryRefConstraint = "ux_ledger_entries_transaction_ref"

// LedgerEntry records one immutable settled transaction. Rows are append-only:
// refunds and voids are recorded as new linked adjustment entries, never as
// updates to an existing row.
type LedgerEntry struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	KioskID         uuid.UUID             `gorm:"column:kiosk_id;type:uuid;not null;index"`
	StoreID         *uuid.UUID            `gorm:"column:store_id;type:uuid"`
	TransactionType enums.TransactionType `gorm:"column:transaction_type;type:transaction_type_enum;not null;index"`
	TransactionRef  string                `gorm:"column:transaction_ref;not null;uniqueIndex:ux_ledger_entries_transaction_ref"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method_enum;not null"`

	GrossAmount      decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	ProcessingFees   decimal.Decimal `gorm:"column:processing_fees;type:numeric(12,2);not null"`
	StateTax         decimal.Decimal `gorm:"column:state_tax;type:numeric(12,2);not null"`
	CostBasis        decimal.Decimal `gorm:"column:cost_basis;type:numeric(12,2);not null"`
	NetDistributable decimal.Decimal `gorm:"column:net_distributable;type:numeric(12,2);not null"`

	PlatformEarnings decimal.Decimal `gorm:"column:platform_earnings;type:numeric(12,2);not null"`
	ManagerEarnings  decimal.Decimal `gorm:"column:manager_earnings;type:numeric(12,2);not null"`
	SalesRepEarnings decimal.Decimal `gorm:"column:sales_rep_earnings;type:numeric(12,2);not null"`
	StorePayout      decimal.Decimal `gorm:"column:store_payout;type:numeric(12,2);not null"`

	ManagerID                 *uuid.UUID      `gorm:"column:manager_id;type:uuid;index"`
	ManagerRateAtTransaction  decimal.Decimal `gorm:"column:manager_rate_at_transaction;type:numeric(5,2);not null"`
	SalesRepID                *uuid.UUID      `gorm:"column:sales_rep_id;type:uuid;index"`
	SalesRepRateAtTransaction decimal.Decimal `gorm:"column:sales_rep_rate_at_transaction;type:numeric(5,2);not null"`

	// Redemption bookkeeping. FaceValue and AmountRedeemed are zero for
	// non-gift-card entries.
	FaceValue        decimal.Decimal `gorm:"column:face_value;type:numeric(12,2);not null"`
	AmountRedeemed   decimal.Decimal `gorm:"column:amount_redeemed;type:numeric(12,2);not null"`
	EstimatedCardFee decimal.Decimal `gorm:"column:estimated_card_fee;type:numeric(12,2);not null"`

	RelatedLedgerID *uuid.UUID `gorm:"column:related_ledger_id;type:uuid;index"`
	// AdjustmentReason is the operator-supplied justification; set only on
	// adjustment rows.
	AdjustmentReason *string   `gorm:"column:adjustment_reason"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
