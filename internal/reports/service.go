package reports

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
)

const maxWindow = 366 * 24 * time.Hour

// Service exposes the reporting aggregations with window validation.
type Service interface {
	ByKiosk(ctx context.Context, q Query) ([]KioskTotals, error)
	ByManager(ctx context.Context, q Query) ([]PartyTotals, error)
	BySalesRep(ctx context.Context, q Query) ([]PartyTotals, error)
	Daily(ctx context.Context, q Query) ([]DailyTotals, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ByKiosk(ctx context.Context, q Query) ([]KioskTotals, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return s.repo.ByKiosk(ctx, q)
}

func (s *service) ByManager(ctx context.Context, q Query) ([]PartyTotals, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return s.repo.ByManager(ctx, q)
}

func (s *service) BySalesRep(ctx context.Context, q Query) ([]PartyTotals, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return s.repo.BySalesRep(ctx, q)
}

func (s *service) Daily(ctx context.Context, q Query) ([]DailyTotals, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return s.repo.Daily(ctx, q)
}

func validateQuery(q Query) error {
	if q.From.IsZero() || q.To.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "report window is required")
	}
	if !q.To.After(q.From) {
		return pkgerrors.New(pkgerrors.CodeValidation, "report window end must be after start")
	}
	if q.To.Sub(q.From) > maxWindow {
		return pkgerrors.New(pkgerrors.CodeValidation, "report window exceeds one year")
	}
	if q.TransactionType != nil && !q.TransactionType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type filter").
			WithDetails(map[string]string{"transaction_type": string(*q.TransactionType)})
	}
	return nil
}
