package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// Query bounds a reporting window. To is exclusive so adjacent windows never
// double-count an entry. TransactionType narrows the report when set.
type Query struct {
	From            time.Time
	To              time.Time
	TransactionType *enums.TransactionType
}

// KioskTotals sums ledger amounts for one kiosk over the window.
type KioskTotals struct {
	KioskID          uuid.UUID       `gorm:"column:kiosk_id"`
	Entries          int64           `gorm:"column:entries"`
	GrossAmount      decimal.Decimal `gorm:"column:gross_amount"`
	NetDistributable decimal.Decimal `gorm:"column:net_distributable"`
	PlatformEarnings decimal.Decimal `gorm:"column:platform_earnings"`
	ManagerEarnings  decimal.Decimal `gorm:"column:manager_earnings"`
	SalesRepEarnings decimal.Decimal `gorm:"column:sales_rep_earnings"`
	StorePayout      decimal.Decimal `gorm:"column:store_payout"`
}

// PartyTotals sums commission owed to one party over the window.
type PartyTotals struct {
	PartyID  uuid.UUID       `gorm:"column:party_id"`
	Entries  int64           `gorm:"column:entries"`
	Earnings decimal.Decimal `gorm:"column:earnings"`
}

// DailyTotals sums ledger amounts for one calendar day.
type DailyTotals struct {
	Day              string          `gorm:"column:day"`
	Entries          int64           `gorm:"column:entries"`
	GrossAmount      decimal.Decimal `gorm:"column:gross_amount"`
	NetDistributable decimal.Decimal `gorm:"column:net_distributable"`
	PlatformEarnings decimal.Decimal `gorm:"column:platform_earnings"`
	ManagerEarnings  decimal.Decimal `gorm:"column:manager_earnings"`
	SalesRepEarnings decimal.Decimal `gorm:"column:sales_rep_earnings"`
}

// Repository aggregates ledger entries. Every number a report shows is a SUM
// over stored entries; nothing is recomputed from raw transaction data, so a
// report can never disagree with the ledger.
type Repository interface {
	ByKiosk(ctx context.Context, q Query) ([]KioskTotals, error)
	ByManager(ctx context.Context, q Query) ([]PartyTotals, error)
	BySalesRep(ctx context.Context, q Query) ([]PartyTotals, error)
	Daily(ctx context.Context, q Query) ([]DailyTotals, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reporting repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) scoped(ctx context.Context, q Query) *gorm.DB {
	scope := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("created_at >= ? AND created_at < ?", q.From, q.To)
	if q.TransactionType != nil {
		scope = scope.Where("transaction_type = ?", *q.TransactionType)
	}
	return scope
}

func (r *repository) ByKiosk(ctx context.Context, q Query) ([]KioskTotals, error) {
	var rows []KioskTotals
	err := r.scoped(ctx, q).
		Select(`kiosk_id,
			COUNT(*) AS entries,
			COALESCE(SUM(gross_amount), 0) AS gross_amount,
			COALESCE(SUM(net_distributable), 0) AS net_distributable,
			COALESCE(SUM(platform_earnings), 0) AS platform_earnings,
			COALESCE(SUM(manager_earnings), 0) AS manager_earnings,
			COALESCE(SUM(sales_rep_earnings), 0) AS sales_rep_earnings,
			COALESCE(SUM(store_payout), 0) AS store_payout`).
		Group("kiosk_id").
		Order("kiosk_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ByManager(ctx context.Context, q Query) ([]PartyTotals, error) {
	var rows []PartyTotals
	err := r.scoped(ctx, q).
		Select(`manager_id AS party_id,
			COUNT(*) AS entries,
			COALESCE(SUM(manager_earnings), 0) AS earnings`).
		Where("manager_id IS NOT NULL").
		Group("manager_id").
		Order("manager_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) BySalesRep(ctx context.Context, q Query) ([]PartyTotals, error) {
	var rows []PartyTotals
	err := r.scoped(ctx, q).
		Select(`sales_rep_id AS party_id,
			COUNT(*) AS entries,
			COALESCE(SUM(sales_rep_earnings), 0) AS earnings`).
		Where("sales_rep_id IS NOT NULL").
		Group("sales_rep_id").
		Order("sales_rep_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Daily(ctx context.Context, q Query) ([]DailyTotals, error) {
	var rows []DailyTotals
	err := r.scoped(ctx, q).
		Select(`date(created_at) AS day,
			COUNT(*) AS entries,
			COALESCE(SUM(gross_amount), 0) AS gross_amount,
			COALESCE(SUM(net_distributable), 0) AS net_distributable,
			COALESCE(SUM(platform_earnings), 0) AS platform_earnings,
			COALESCE(SUM(manager_earnings), 0) AS manager_earnings,
			COALESCE(SUM(sales_rep_earnings), 0) AS sales_rep_earnings`).
		Group("date(created_at)").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
