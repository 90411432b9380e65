package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/smartwish/kiosk-backend/api/responses"
	"github.com/smartwish/kiosk-backend/api/validators"
	"github.com/smartwish/kiosk-backend/internal/settlement"
	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

type printJobRequest struct {
	KioskID        string  `json:"kiosk_id" validate:"required,uuid"`
	TransactionRef string  `json:"transaction_ref" validate:"required,max=128"`
	Kind           string  `json:"kind" validate:"required"`
	PaymentMethod  string  `json:"payment_method" validate:"required"`
	GiftCardBrand  *string `json:"gift_card_brand,omitempty"`

	GrossAmount    string `json:"gross_amount" validate:"required"`
	ProcessingFees string `json:"processing_fees,omitempty"`
	StateTax       string `json:"state_tax,omitempty"`
	CostBasis      string `json:"cost_basis,omitempty"`
}

type printJobResponse struct {
	JobID            uuid.UUID            `json:"job_id"`
	CommissionStatus string               `json:"commission_status"`
	AlreadyProcessed bool                 `json:"already_processed"`
	LedgerEntry      *ledgerEntryResponse `json:"ledger_entry,omitempty"`
}

// PrintJobEvent ingests a kiosk print job and runs the commission trigger on
// it synchronously. Replays of the same transaction_ref return the original
// outcome.
func PrintJobEvent(triggerSvc trigger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if triggerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trigger service unavailable"))
			return
		}

		var payload printJobRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := payload.toEvent()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := triggerSvc.Ingest(r.Context(), event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := triggerSvc.Process(r.Context(), job.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := printJobResponse{
			JobID:            result.Job.ID,
			CommissionStatus: string(result.Job.CommissionStatus),
			AlreadyProcessed: result.AlreadyProcessed,
		}
		if result.Entry != nil {
			entry := toLedgerEntryResponse(result.Entry)
			resp.LedgerEntry = &entry
		}

		status := http.StatusCreated
		if result.AlreadyProcessed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}

func (p printJobRequest) toEvent() (trigger.PrintJobEvent, error) {
	var event trigger.PrintJobEvent

	kioskID, err := parseUUID("kiosk_id", p.KioskID)
	if err != nil {
		return event, err
	}
	kind, err := enums.ParseTransactionType(p.Kind)
	if err != nil {
		return event, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
	}
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return event, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	gross, err := parseAmount("gross_amount", p.GrossAmount, true)
	if err != nil {
		return event, err
	}
	fees, err := parseAmount("processing_fees", p.ProcessingFees, false)
	if err != nil {
		return event, err
	}
	tax, err := parseAmount("state_tax", p.StateTax, false)
	if err != nil {
		return event, err
	}
	cost, err := parseAmount("cost_basis", p.CostBasis, false)
	if err != nil {
		return event, err
	}

	return trigger.PrintJobEvent{
		KioskID:        kioskID,
		TransactionRef: p.TransactionRef,
		Kind:           kind,
		PaymentMethod:  method,
		GiftCardBrand:  p.GiftCardBrand,
		GrossAmount:    gross,
		ProcessingFees: fees,
		StateTax:       tax,
		CostBasis:      cost,
	}, nil
}

type redemptionRequest struct {
	KioskID          string `json:"kiosk_id" validate:"required,uuid"`
	TransactionRef   string `json:"transaction_ref" validate:"required,max=128"`
	PurchaseLedgerID string `json:"purchase_ledger_id" validate:"required,uuid"`

	AmountRedeemed       string `json:"amount_redeemed" validate:"required"`
	KioskDiscountPercent string `json:"kiosk_discount_percent,omitempty"`
	StoreDiscountPercent string `json:"store_discount_percent,omitempty"`
	ServiceFeePercent    string `json:"service_fee_percent,omitempty"`
}

// RedemptionEvent settles one gift-card redemption visit against its purchase
// entry.
func RedemptionEvent(settlementSvc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if settlementSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload redemptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := payload.toEvent()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := settlementSvc.SettleRedemption(r.Context(), nil, event)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toLedgerEntryResponse(entry))
	}
}

func (p redemptionRequest) toEvent() (settlement.RedemptionEvent, error) {
	var event settlement.RedemptionEvent

	kioskID, err := parseUUID("kiosk_id", p.KioskID)
	if err != nil {
		return event, err
	}
	purchaseID, err := parseUUID("purchase_ledger_id", p.PurchaseLedgerID)
	if err != nil {
		return event, err
	}

	amount, err := parseAmount("amount_redeemed", p.AmountRedeemed, true)
	if err != nil {
		return event, err
	}
	kioskPct, err := parseAmount("kiosk_discount_percent", p.KioskDiscountPercent, false)
	if err != nil {
		return event, err
	}
	storePct, err := parseAmount("store_discount_percent", p.StoreDiscountPercent, false)
	if err != nil {
		return event, err
	}
	feePct, err := parseAmount("service_fee_percent", p.ServiceFeePercent, false)
	if err != nil {
		return event, err
	}

	return settlement.RedemptionEvent{
		KioskID:              kioskID,
		TransactionRef:       p.TransactionRef,
		PurchaseLedgerID:     purchaseID,
		AmountRedeemed:       amount,
		KioskDiscountPercent: kioskPct,
		StoreDiscountPercent: storePct,
		ServiceFeePercent:    feePct,
	}, nil
}

type giftCardSaleRequest struct {
	KioskID        string `json:"kiosk_id" validate:"required,uuid"`
	TransactionRef string `json:"transaction_ref" validate:"required,max=128"`
	Kind           string `json:"kind" validate:"required,oneof=generic_gift_card_sale custom_gift_card_purchase"`

	GrossAmount    string `json:"gross_amount" validate:"required"`
	ProcessingFees string `json:"processing_fees,omitempty"`
}

// GiftCardSaleEvent records a generic gift-card sale or a custom gift-card
// purchase as a pass-through ledger entry.
func GiftCardSaleEvent(settlementSvc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if settlementSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload giftCardSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kioskID, err := parseUUID("kiosk_id", payload.KioskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseTransactionType(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}
		gross, err := parseAmount("gross_amount", payload.GrossAmount, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fees, err := parseAmount("processing_fees", payload.ProcessingFees, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := settlementSvc.RecordPassThrough(r.Context(), nil, settlement.PassThroughEvent{
			KioskID:         kioskID,
			TransactionRef:  payload.TransactionRef,
			TransactionType: kind,
			PaymentMethod:   enums.PaymentMethodCard,
			GrossAmount:     gross,
			ProcessingFees:  fees,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toLedgerEntryResponse(entry))
	}
}

type adjustmentRequest struct {
	TransactionRef  string `json:"transaction_ref" validate:"required,max=128"`
	RelatedLedgerID string `json:"related_ledger_id" validate:"required,uuid"`
	Reason          string `json:"reason" validate:"required,max=512"`
}

// AdjustmentEvent records a negating adjustment entry against an existing one.
func AdjustmentEvent(settlementSvc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if settlementSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var payload adjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relatedID, err := parseUUID("related_ledger_id", payload.RelatedLedgerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := settlementSvc.RecordAdjustment(r.Context(), nil, settlement.AdjustmentEvent{
			TransactionRef:  payload.TransactionRef,
			RelatedLedgerID: relatedID,
			Reason:          payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toLedgerEntryResponse(entry))
	}
}
