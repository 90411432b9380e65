package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
)

// ledgerEntryResponse is the wire shape of one ledger entry. Money renders as
// fixed two-place strings so clients never see float artifacts.
type ledgerEntryResponse struct {
	ID              uuid.UUID `json:"id"`
	KioskID         uuid.UUID `json:"kiosk_id"`
	StoreID         *string   `json:"store_id,omitempty"`
	TransactionType string    `json:"transaction_type"`
	TransactionRef  string    `json:"transaction_ref"`
	PaymentMethod   string    `json:"payment_method"`

	GrossAmount      string `json:"gross_amount"`
	ProcessingFees   string `json:"processing_fees"`
	StateTax         string `json:"state_tax"`
	CostBasis        string `json:"cost_basis"`
	NetDistributable string `json:"net_distributable"`

	PlatformEarnings string `json:"platform_earnings"`
	ManagerEarnings  string `json:"manager_earnings"`
	SalesRepEarnings string `json:"sales_rep_earnings"`
	StorePayout      string `json:"store_payout"`

	ManagerID                 *string `json:"manager_id,omitempty"`
	ManagerRateAtTransaction  string  `json:"manager_rate_at_transaction"`
	SalesRepID                *string `json:"sales_rep_id,omitempty"`
	SalesRepRateAtTransaction string  `json:"sales_rep_rate_at_transaction"`

	FaceValue        string `json:"face_value"`
	AmountRedeemed   string `json:"amount_redeemed"`
	EstimatedCardFee string `json:"estimated_card_fee"`

	RelatedLedgerID  *string   `json:"related_ledger_id,omitempty"`
	AdjustmentReason *string   `json:"adjustment_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toLedgerEntryResponse(entry *models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:              entry.ID,
		KioskID:         entry.KioskID,
		StoreID:         uuidString(entry.StoreID),
		TransactionType: string(entry.TransactionType),
		TransactionRef:  entry.TransactionRef,
		PaymentMethod:   string(entry.PaymentMethod),

		GrossAmount:      entry.GrossAmount.StringFixed(2),
		ProcessingFees:   entry.ProcessingFees.StringFixed(2),
		StateTax:         entry.StateTax.StringFixed(2),
		CostBasis:        entry.CostBasis.StringFixed(2),
		NetDistributable: entry.NetDistributable.StringFixed(2),

		PlatformEarnings: entry.PlatformEarnings.StringFixed(2),
		ManagerEarnings:  entry.ManagerEarnings.StringFixed(2),
		SalesRepEarnings: entry.SalesRepEarnings.StringFixed(2),
		StorePayout:      entry.StorePayout.StringFixed(2),

		ManagerID:                 uuidString(entry.ManagerID),
		ManagerRateAtTransaction:  entry.ManagerRateAtTransaction.StringFixed(2),
		SalesRepID:                uuidString(entry.SalesRepID),
		SalesRepRateAtTransaction: entry.SalesRepRateAtTransaction.StringFixed(2),

		FaceValue:        entry.FaceValue.StringFixed(2),
		AmountRedeemed:   entry.AmountRedeemed.StringFixed(2),
		EstimatedCardFee: entry.EstimatedCardFee.StringFixed(2),

		RelatedLedgerID:  uuidString(entry.RelatedLedgerID),
		AdjustmentReason: entry.AdjustmentReason,
		CreatedAt:        entry.CreatedAt,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseAmount(field, raw string, required bool) (decimal.Decimal, error) {
	if raw == "" {
		if required {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a decimal amount")
	}
	return value, nil
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a valid uuid")
	}
	return id, nil
}
