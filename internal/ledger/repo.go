package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
)

// Repository manages persistence for ledger entries. The table is append-only:
// there are no update or delete operations by design.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	FindByTransactionRef(ctx context.Context, ref string) (*models.LedgerEntry, error)
	ListByRelated(ctx context.Context, purchaseID uuid.UUID) ([]models.LedgerEntry, error)
	SumRedeemed(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByTransactionRef(ctx context.Context, ref string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Where("transaction_ref = ?", ref).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByRelated(ctx context.Context, purchaseID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("related_ledger_id = ?", purchaseID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumRedeemed totals amount_redeemed across every redemption entry linked to
// the purchase entry, used to enforce the remaining-balance invariant before a
// new redemption is settled. Adjustments that negate a redemption link to the
// redemption row, not the purchase, so the second clause pulls them in: their
// negative amount_redeemed restores the refunded balance to the card.
func (r *repository) SumRedeemed(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	linked := r.db.
		Model(&models.LedgerEntry{}).
		Select("id").
		Where("related_ledger_id = ?", purchaseID)
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_redeemed), 0) AS total").
		Where("related_ledger_id = ? OR related_ledger_id IN (?)", purchaseID, linked).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
