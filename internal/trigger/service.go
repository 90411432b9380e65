package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/internal/settlement"
	"github.com/smartwish/kiosk-backend/pkg/db"
	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
	"github.com/smartwish/kiosk-backend/pkg/money"
	"github.com/smartwish/kiosk-backend/pkg/redis"
)

const claimScope = "print-job"

// PrintJobEvent is the kiosk-side payload announcing a finished print job.
type PrintJobEvent struct {
	KioskID        uuid.UUID
	TransactionRef string
	Kind           enums.TransactionType
	PaymentMethod  enums.PaymentMethod
	GiftCardBrand  *string

	GrossAmount    decimal.Decimal
	ProcessingFees decimal.Decimal
	StateTax       decimal.Decimal
	CostBasis      decimal.Decimal
}

// Result reports what processing one print job produced. Entry is nil when the
// job warrants no ledger entry (branded gift-card items, zero-amount jobs).
type Result struct {
	Job              *models.PrintJob
	Entry            *models.LedgerEntry
	AlreadyProcessed bool
}

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the commission trigger: it ingests print jobs and drives each one
// through the pending_commission -> processed state machine exactly once.
type Service interface {
	Ingest(ctx context.Context, event PrintJobEvent) (*models.PrintJob, error)
	Process(ctx context.Context, jobID uuid.UUID) (*Result, error)
	PendingJobs(ctx context.Context, limit int) ([]models.PrintJob, error)
}

// ServiceParams groups the dependencies for NewService.
type ServiceParams struct {
	Jobs       Repository
	Ledger     ledger.Repository
	Settlement settlement.Service
	Tx         TxRunner
	Claims     redis.ClaimStore
	ClaimTTL   time.Duration
	Logger     *logger.Logger
}

type service struct {
	jobs       Repository
	ledger     ledger.Repository
	settlement settlement.Service
	tx         TxRunner
	claims     redis.ClaimStore
	claimTTL   time.Duration
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Jobs == nil {
		return nil, fmt.Errorf("print-job repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ClaimTTL <= 0 {
		params.ClaimTTL = 30 * time.Minute
	}
	return &service{
		jobs:       params.Jobs,
		ledger:     params.Ledger,
		settlement: params.Settlement,
		tx:         params.Tx,
		claims:     params.Claims,
		claimTTL:   params.ClaimTTL,
		logg:       params.Logger,
	}, nil
}

// Ingest records a print job, idempotent on TransactionRef: a replayed event
// returns the job created the first time.
func (s *service) Ingest(ctx context.Context, event PrintJobEvent) (*models.PrintJob, error) {
	ctx = s.logg.WithTransactionRef(s.logg.WithKioskID(ctx, event.KioskID.String()), event.TransactionRef)

	if err := s.validateEvent(event); err != nil {
		return nil, err
	}

	existing, err := s.jobs.FindByTransactionRef(ctx, event.TransactionRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking for existing print job")
	}
	if existing != nil {
		s.logg.Info(ctx, "print job already ingested")
		return existing, nil
	}

	job := &models.PrintJob{
		KioskID:        event.KioskID,
		TransactionRef: event.TransactionRef,
		Kind:           event.Kind,
		PaymentMethod:  event.PaymentMethod,
		GiftCardBrand:  event.GiftCardBrand,
		GrossAmount:    money.Round2(event.GrossAmount),
		ProcessingFees: money.Round2(event.ProcessingFees),
		StateTax:       money.Round2(event.StateTax),
		CostBasis:      money.Round2(event.CostBasis),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		if db.IsUniqueViolation(err, models.PrintJobRefConstraint) {
			if winner, findErr := s.jobs.FindByTransactionRef(ctx, event.TransactionRef); findErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating print job")
	}
	s.logg.Info(ctx, "print job ingested")
	return job, nil
}

// Process settles the commission for one print job. The ledger append and the
// status transition commit in a single transaction; a crash between them can
// therefore never strand a processed job without its entry or vice versa.
func (s *service) Process(ctx context.Context, jobID uuid.UUID) (*Result, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "print job id is required")
	}
	ctx = s.logg.WithPrintJobID(ctx, jobID.String())

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading print job")
	}
	if job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "print job not found")
	}
	ctx = s.logg.WithTransactionRef(s.logg.WithKioskID(ctx, job.KioskID.String()), job.TransactionRef)

	if job.Processed() {
		entry, err := s.ledger.FindByTransactionRef(ctx, job.TransactionRef)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading settled entry")
		}
		return &Result{Job: job, Entry: entry, AlreadyProcessed: true}, nil
	}

	release, err := s.claim(ctx, job.TransactionRef)
	if err != nil {
		return nil, err
	}

	result, err := s.settle(ctx, job)
	if err != nil {
		release()
		if recordErr := s.jobs.RecordAttemptError(ctx, job.ID, err); recordErr != nil {
			s.logg.Error(ctx, "recording attempt error", recordErr)
		}
		s.logg.Error(ctx, "print job settlement failed", err)
		return nil, err
	}
	s.logg.Info(ctx, "print job processed")
	return result, nil
}

func (s *service) PendingJobs(ctx context.Context, limit int) ([]models.PrintJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.jobs.ListPending(ctx, limit)
}

// claim takes the short-lived distributed lock on the transaction ref. It is a
// fast path only: when redis is unavailable processing proceeds and the unique
// ledger index stays the backstop.
func (s *service) claim(ctx context.Context, ref string) (func(), error) {
	if s.claims == nil {
		return func() {}, nil
	}
	key := s.claims.IdempotencyKey(claimScope, ref)
	ok, err := s.claims.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.claimTTL)
	if err != nil {
		s.logg.Warn(ctx, "claim store unavailable, relying on database constraint")
		return func() {}, nil
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "print job is already being processed")
	}
	return func() {
		if delErr := s.claims.Del(context.WithoutCancel(ctx), key); delErr != nil {
			s.logg.Warn(ctx, "releasing settlement claim failed")
		}
	}, nil
}

func (s *service) settle(ctx context.Context, job *models.PrintJob) (*Result, error) {
	result := &Result{Job: job}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.settleEntry(ctx, tx, job)
		if err != nil {
			return err
		}
		result.Entry = entry

		now := time.Now().UTC()
		if err := s.jobs.WithTx(tx).MarkProcessed(ctx, job.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "print job changed state underneath us")
		}
		job.CommissionStatus = enums.CommissionStatusProcessed
		job.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settleEntry classifies the job and produces its ledger entry, or nil when no
// entry is warranted.
func (s *service) settleEntry(ctx context.Context, tx *gorm.DB, job *models.PrintJob) (*models.LedgerEntry, error) {
	switch {
	// Branded gift-card items ride along in print-job batches but settle
	// through their own sale and redemption events.
	case job.GiftCardBrand != nil || !job.Kind.IsPrintSale() && job.Kind != enums.TransactionTypeECard:
		s.logg.Info(ctx, "gift-card item, no commission from print trigger")
		return nil, nil

	case job.PaymentMethod == enums.PaymentMethodPromoCode:
		return s.settlement.RecordPassThrough(ctx, tx, settlement.PassThroughEvent{
			KioskID:         job.KioskID,
			TransactionRef:  job.TransactionRef,
			TransactionType: job.Kind,
			PaymentMethod:   job.PaymentMethod,
		})

	case job.PaymentMethod == enums.PaymentMethodCard && job.GrossAmount.IsPositive():
		return s.settlement.SettleDirectSale(ctx, tx, settlement.DirectSaleEvent{
			KioskID:         job.KioskID,
			TransactionRef:  job.TransactionRef,
			TransactionType: job.Kind,
			PaymentMethod:   job.PaymentMethod,
			GrossAmount:     job.GrossAmount,
			ProcessingFees:  job.ProcessingFees,
			StateTax:        job.StateTax,
			CostBasis:       job.CostBasis,
		})

	default:
		// Zero-amount or unpaid jobs complete the state machine without a
		// ledger entry.
		s.logg.Info(ctx, "no distributable amount, no ledger entry")
		return nil, nil
	}
}

func (s *service) validateEvent(event PrintJobEvent) error {
	if event.KioskID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "kiosk id is required")
	}
	if event.TransactionRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction ref is required")
	}
	if !event.Kind.IsValid() || event.Kind == enums.TransactionTypeAdjustment {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid print job kind").
			WithDetails(map[string]string{"kind": string(event.Kind)})
	}
	if !event.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]string{"payment_method": string(event.PaymentMethod)})
	}
	for field, amount := range map[string]decimal.Decimal{
		"gross_amount":    event.GrossAmount,
		"processing_fees": event.ProcessingFees,
		"state_tax":       event.StateTax,
		"cost_basis":      event.CostBasis,
	} {
		if money.IsNegative(amount) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must not be negative", field))
		}
	}
	return nil
}
