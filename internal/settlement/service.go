package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/pkg/db"
	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
	"github.com/smartwish/kiosk-backend/pkg/metrics"
	"github.com/smartwish/kiosk-backend/pkg/money"
)

// PartySnapshot captures the parties attached to a kiosk at one moment. The
// ledger stores these values instead of live references, so a later
// reassignment or rate change never alters historical entries.
type PartySnapshot struct {
	StoreID             uuid.UUID
	ManagerID           *uuid.UUID
	ManagerRatePercent  decimal.Decimal
	SalesRepID          *uuid.UUID
	SalesRepRatePercent decimal.Decimal
}

// PartyResolver supplies the current party snapshot for a kiosk.
type PartyResolver interface {
	Resolve(ctx context.Context, kioskID uuid.UUID) (PartySnapshot, error)
}

// DirectSaleEvent is a card- or promo-paid sale ready to be settled.
type DirectSaleEvent struct {
	KioskID         uuid.UUID
	TransactionRef  string
	TransactionType enums.TransactionType
	PaymentMethod   enums.PaymentMethod

	GrossAmount    decimal.Decimal
	ProcessingFees decimal.Decimal
	StateTax       decimal.Decimal
	CostBasis      decimal.Decimal
}

// PassThroughEvent is a transaction recorded for audit without distributing
// earnings: generic gift-card sales, custom gift-card purchases, and promo
// prints.
type PassThroughEvent struct {
	KioskID         uuid.UUID
	TransactionRef  string
	TransactionType enums.TransactionType
	PaymentMethod   enums.PaymentMethod

	GrossAmount    decimal.Decimal
	ProcessingFees decimal.Decimal
}

// RedemptionEvent is one visit spending against a custom gift card.
type RedemptionEvent struct {
	KioskID          uuid.UUID
	TransactionRef   string
	PurchaseLedgerID uuid.UUID

	AmountRedeemed       decimal.Decimal
	KioskDiscountPercent decimal.Decimal
	StoreDiscountPercent decimal.Decimal
	ServiceFeePercent    decimal.Decimal
}

// AdjustmentEvent reverses an existing entry with a new negating row.
type AdjustmentEvent struct {
	TransactionRef  string
	RelatedLedgerID uuid.UUID
	Reason          string
}

// Service settles incoming transaction events into immutable ledger entries.
// Every method is idempotent on TransactionRef: replaying an event returns the
// entry created the first time.
type Service interface {
	SettleDirectSale(ctx context.Context, tx *gorm.DB, event DirectSaleEvent) (*models.LedgerEntry, error)
	SettleRedemption(ctx context.Context, tx *gorm.DB, event RedemptionEvent) (*models.LedgerEntry, error)
	RecordPassThrough(ctx context.Context, tx *gorm.DB, event PassThroughEvent) (*models.LedgerEntry, error)
	RecordAdjustment(ctx context.Context, tx *gorm.DB, event AdjustmentEvent) (*models.LedgerEntry, error)
}

// ServiceParams groups the dependencies for NewService.
type ServiceParams struct {
	Ledger     ledger.Repository
	Resolver   PartyResolver
	Calculator Calculator
	Logger     *logger.Logger
	Metrics    *metrics.SettlementMetrics
}

type service struct {
	ledger   ledger.Repository
	resolver PartyResolver
	calc     Calculator
	logg     *logger.Logger
	metrics  *metrics.SettlementMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("party resolver required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledger:   params.Ledger,
		resolver: params.Resolver,
		calc:     params.Calculator,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) SettleDirectSale(ctx context.Context, tx *gorm.DB, event DirectSaleEvent) (*models.LedgerEntry, error) {
	start := time.Now()
	ctx = s.logg.WithTransactionRef(s.logg.WithKioskID(ctx, event.KioskID.String()), event.TransactionRef)

	if err := validateEventHeader(event.KioskID, event.TransactionRef); err != nil {
		return nil, err
	}
	rule, ok := RuleFor(event.TransactionType, event.PaymentMethod)
	if !ok || rule.Base != BaseNet {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction is not a direct sale").
			WithDetails(map[string]string{
				"transaction_type": string(event.TransactionType),
				"payment_method":   string(event.PaymentMethod),
			})
	}
	if err := validateNonNegative(map[string]decimal.Decimal{
		"gross_amount":    event.GrossAmount,
		"processing_fees": event.ProcessingFees,
		"state_tax":       event.StateTax,
		"cost_basis":      event.CostBasis,
	}); err != nil {
		return nil, err
	}
	if !event.GrossAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	repo := s.ledger.WithTx(tx)
	if existing, err := s.findExisting(ctx, repo, event.TransactionRef); existing != nil || err != nil {
		return existing, err
	}

	snap, err := s.resolver.Resolve(ctx, event.KioskID)
	if err != nil {
		s.metrics.IncFailure(string(event.TransactionType))
		return nil, err
	}

	input := DirectSaleInput{
		Gross:          event.GrossAmount,
		ProcessingFees: event.ProcessingFees,
		StateTax:       event.StateTax,
		CostBasis:      event.CostBasis,
	}
	if rule.ManagerCommission {
		input.ManagerRatePercent = snap.ManagerRatePercent
	}
	if rule.SalesRepCommission && snap.SalesRepID != nil {
		input.SalesRepAssigned = true
		input.SalesRepRatePercent = snap.SalesRepRatePercent
	}
	breakdown := s.calc.DirectSale(input)

	entry := &models.LedgerEntry{
		KioskID:         event.KioskID,
		StoreID:         storeIDPtr(snap.StoreID),
		TransactionType: event.TransactionType,
		TransactionRef:  event.TransactionRef,
		PaymentMethod:   event.PaymentMethod,

		GrossAmount:      money.Round2(event.GrossAmount),
		ProcessingFees:   money.Round2(event.ProcessingFees),
		StateTax:         money.Round2(event.StateTax),
		CostBasis:        money.Round2(event.CostBasis),
		NetDistributable: breakdown.Net,

		PlatformEarnings: breakdown.PlatformEarnings,
		ManagerEarnings:  breakdown.ManagerEarnings,
		SalesRepEarnings: breakdown.SalesRepEarnings,
		StorePayout:      money.Zero(),

		ManagerRateAtTransaction:  input.ManagerRatePercent,
		SalesRepRateAtTransaction: input.SalesRepRatePercent,
	}
	if rule.ManagerCommission {
		entry.ManagerID = snap.ManagerID
	}
	if input.SalesRepAssigned {
		entry.SalesRepID = snap.SalesRepID
	}

	return s.append(ctx, repo, entry, start)
}

func (s *service) SettleRedemption(ctx context.Context, tx *gorm.DB, event RedemptionEvent) (*models.LedgerEntry, error) {
	start := time.Now()
	ctx = s.logg.WithTransactionRef(s.logg.WithKioskID(ctx, event.KioskID.String()), event.TransactionRef)

	if err := validateEventHeader(event.KioskID, event.TransactionRef); err != nil {
		return nil, err
	}
	if event.PurchaseLedgerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase ledger id is required")
	}
	if !event.AmountRedeemed.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount redeemed must be positive")
	}
	if err := validatePercents(map[string]decimal.Decimal{
		"kiosk_discount_percent": event.KioskDiscountPercent,
		"store_discount_percent": event.StoreDiscountPercent,
		"service_fee_percent":    event.ServiceFeePercent,
	}); err != nil {
		return nil, err
	}

	repo := s.ledger.WithTx(tx)
	if existing, err := s.findExisting(ctx, repo, event.TransactionRef); existing != nil || err != nil {
		return existing, err
	}

	purchase, err := repo.FindByID(ctx, event.PurchaseLedgerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading purchase ledger entry")
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase ledger entry not found")
	}
	if purchase.TransactionType != enums.TransactionTypeCustomCardPurchase {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "related entry is not a custom gift-card purchase").
			WithDetails(map[string]string{"transaction_type": string(purchase.TransactionType)})
	}
	if !purchase.FaceValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase entry has no face value")
	}

	redeemed, err := repo.SumRedeemed(ctx, purchase.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing prior redemptions")
	}
	if redeemed.Add(event.AmountRedeemed).GreaterThan(purchase.FaceValue) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redemption exceeds remaining card balance").
			WithDetails(map[string]string{
				"face_value":       purchase.FaceValue.StringFixed(2),
				"already_redeemed": redeemed.StringFixed(2),
				"requested":        event.AmountRedeemed.StringFixed(2),
			})
	}

	snap, err := s.resolver.Resolve(ctx, event.KioskID)
	if err != nil {
		s.metrics.IncFailure(string(enums.TransactionTypeCustomCardRedeem))
		return nil, err
	}

	breakdown := s.calc.Redemption(RedemptionInput{
		FaceValue:            purchase.FaceValue,
		AmountRedeemed:       event.AmountRedeemed,
		KioskDiscountPercent: event.KioskDiscountPercent,
		StoreDiscountPercent: event.StoreDiscountPercent,
		ServiceFeePercent:    event.ServiceFeePercent,
	})

	purchaseID := purchase.ID
	entry := &models.LedgerEntry{
		KioskID:         event.KioskID,
		StoreID:         storeIDPtr(snap.StoreID),
		TransactionType: enums.TransactionTypeCustomCardRedeem,
		TransactionRef:  event.TransactionRef,
		PaymentMethod:   enums.PaymentMethodGiftCard,

		GrossAmount:    money.Round2(event.AmountRedeemed),
		ProcessingFees: breakdown.EstimatedCardFee,

		PlatformEarnings: breakdown.PlatformEarnings,
		ManagerEarnings:  breakdown.ManagerEarnings,
		StorePayout:      breakdown.StorePayout,

		ManagerID:                snap.ManagerID,
		ManagerRateAtTransaction: snap.ManagerRatePercent,

		FaceValue:        purchase.FaceValue,
		AmountRedeemed:   money.Round2(event.AmountRedeemed),
		EstimatedCardFee: breakdown.EstimatedCardFee,

		RelatedLedgerID: &purchaseID,
	}

	return s.append(ctx, repo, entry, start)
}

func (s *service) RecordPassThrough(ctx context.Context, tx *gorm.DB, event PassThroughEvent) (*models.LedgerEntry, error) {
	start := time.Now()
	ctx = s.logg.WithTransactionRef(s.logg.WithKioskID(ctx, event.KioskID.String()), event.TransactionRef)

	if err := validateEventHeader(event.KioskID, event.TransactionRef); err != nil {
		return nil, err
	}
	rule, ok := RuleFor(event.TransactionType, event.PaymentMethod)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction is not settleable").
			WithDetails(map[string]string{
				"transaction_type": string(event.TransactionType),
				"payment_method":   string(event.PaymentMethod),
			})
	}
	switch rule.Base {
	case BaseAuditOnly, BasePassThrough, BaseDeferred:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction requires full settlement, not a pass-through record")
	}
	if err := validateNonNegative(map[string]decimal.Decimal{
		"gross_amount":    event.GrossAmount,
		"processing_fees": event.ProcessingFees,
	}); err != nil {
		return nil, err
	}

	repo := s.ledger.WithTx(tx)
	if existing, err := s.findExisting(ctx, repo, event.TransactionRef); existing != nil || err != nil {
		return existing, err
	}

	snap, err := s.resolver.Resolve(ctx, event.KioskID)
	if err != nil {
		s.metrics.IncFailure(string(event.TransactionType))
		return nil, err
	}

	entry := &models.LedgerEntry{
		KioskID:         event.KioskID,
		StoreID:         storeIDPtr(snap.StoreID),
		TransactionType: event.TransactionType,
		TransactionRef:  event.TransactionRef,
		PaymentMethod:   event.PaymentMethod,
	}
	if rule.Base != BaseAuditOnly {
		breakdown := s.calc.PassThrough(event.GrossAmount, event.ProcessingFees)
		entry.GrossAmount = breakdown.Gross
		entry.ProcessingFees = breakdown.ProcessingFees
	}
	// A custom card purchase defers its earnings to redemption; the face value
	// on the purchase row is what later redemptions prorate against.
	if rule.Base == BaseDeferred {
		entry.FaceValue = entry.GrossAmount
	}

	return s.append(ctx, repo, entry, start)
}

func (s *service) RecordAdjustment(ctx context.Context, tx *gorm.DB, event AdjustmentEvent) (*models.LedgerEntry, error) {
	start := time.Now()
	ctx = s.logg.WithTransactionRef(ctx, event.TransactionRef)

	if event.TransactionRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction ref is required")
	}
	if event.RelatedLedgerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "related ledger id is required")
	}
	if event.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason is required")
	}

	repo := s.ledger.WithTx(tx)
	if existing, err := s.findExisting(ctx, repo, event.TransactionRef); existing != nil || err != nil {
		return existing, err
	}

	original, err := repo.FindByID(ctx, event.RelatedLedgerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading original ledger entry")
	}
	if original == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "original ledger entry not found")
	}
	if original.TransactionType == enums.TransactionTypeAdjustment {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot adjust an adjustment entry")
	}

	originalID := original.ID
	entry := &models.LedgerEntry{
		KioskID:         original.KioskID,
		StoreID:         original.StoreID,
		TransactionType: enums.TransactionTypeAdjustment,
		TransactionRef:  event.TransactionRef,
		PaymentMethod:   original.PaymentMethod,

		GrossAmount:      original.GrossAmount.Neg(),
		ProcessingFees:   original.ProcessingFees.Neg(),
		StateTax:         original.StateTax.Neg(),
		CostBasis:        original.CostBasis.Neg(),
		NetDistributable: original.NetDistributable.Neg(),

		PlatformEarnings: original.PlatformEarnings.Neg(),
		ManagerEarnings:  original.ManagerEarnings.Neg(),
		SalesRepEarnings: original.SalesRepEarnings.Neg(),
		StorePayout:      original.StorePayout.Neg(),

		ManagerID:                 original.ManagerID,
		ManagerRateAtTransaction:  original.ManagerRateAtTransaction,
		SalesRepID:                original.SalesRepID,
		SalesRepRateAtTransaction: original.SalesRepRateAtTransaction,

		AmountRedeemed:   original.AmountRedeemed.Neg(),
		EstimatedCardFee: original.EstimatedCardFee.Neg(),

		RelatedLedgerID:  &originalID,
		AdjustmentReason: &event.Reason,
	}

	return s.append(ctx, repo, entry, start)
}

// findExisting is the read-side half of the idempotency guarantee: a replayed
// ref resolves to the entry the first delivery created.
func (s *service) findExisting(ctx context.Context, repo ledger.Repository, ref string) (*models.LedgerEntry, error) {
	existing, err := repo.FindByTransactionRef(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking for existing ledger entry")
	}
	if existing != nil {
		s.metrics.IncDuplicate()
		s.logg.Info(ctx, "transaction already settled, returning existing entry")
		return existing, nil
	}
	return nil, nil
}

// append writes the entry, converting a unique-index race into the idempotent
// outcome: two concurrent deliveries of the same ref both end up holding the
// single row that won.
func (s *service) append(ctx context.Context, repo ledger.Repository, entry *models.LedgerEntry, start time.Time) (*models.LedgerEntry, error) {
	if err := repo.Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, models.LedgerEntryRefConstraint) {
			existing, findErr := repo.FindByTransactionRef(ctx, entry.TransactionRef)
			if findErr == nil && existing != nil {
				s.metrics.IncDuplicate()
				s.logg.Info(ctx, "lost settlement race, returning existing entry")
				return existing, nil
			}
		}
		s.metrics.IncFailure(string(entry.TransactionType))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending ledger entry")
	}

	s.metrics.IncSettled(string(entry.TransactionType))
	s.metrics.ObserveDuration(string(entry.TransactionType), time.Since(start))
	s.logg.Info(ctx, "ledger entry appended")
	return entry, nil
}

func storeIDPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func validateEventHeader(kioskID uuid.UUID, ref string) error {
	if kioskID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "kiosk id is required")
	}
	if ref == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction ref is required")
	}
	return nil
}

func validateNonNegative(amounts map[string]decimal.Decimal) error {
	for field, amount := range amounts {
		if money.IsNegative(amount) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must not be negative", field))
		}
	}
	return nil
}

var oneHundred = decimal.NewFromInt(100)

func validatePercents(percents map[string]decimal.Decimal) error {
	for field, pct := range percents {
		if pct.IsNegative() || pct.GreaterThan(oneHundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between 0 and 100", field))
		}
	}
	return nil
}
