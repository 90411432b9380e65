package parties

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/internal/settlement"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
)

// Resolver supplies the current party snapshot for a kiosk. It satisfies
// settlement.PartyResolver; the ledger stores the returned values, not a live
// reference, so a later reassignment or rate change never alters historical
// entries.
type Resolver interface {
	Resolve(ctx context.Context, kioskID uuid.UUID) (settlement.PartySnapshot, error)
}

type resolver struct {
	repo               Repository
	defaultManagerRate decimal.Decimal
}

// NewResolver wires a resolver over the assignment repository. The default
// manager rate applies when a kiosk has no explicit manager assignment; it is
// fixed at construction, so a running service never sees it change.
func NewResolver(repo Repository, defaultManagerRate decimal.Decimal) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("parties repository required")
	}
	if defaultManagerRate.IsNegative() {
		return nil, fmt.Errorf("default manager rate must not be negative")
	}
	return &resolver{repo: repo, defaultManagerRate: defaultManagerRate}, nil
}

func (r *resolver) Resolve(ctx context.Context, kioskID uuid.UUID) (settlement.PartySnapshot, error) {
	if kioskID == uuid.Nil {
		return settlement.PartySnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "kiosk id is required")
	}

	kiosk, err := r.repo.FindKiosk(ctx, kioskID)
	if err != nil {
		return settlement.PartySnapshot{}, err
	}
	if kiosk == nil {
		return settlement.PartySnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "kiosk not found")
	}

	snapshot := settlement.PartySnapshot{
		StoreID:            kiosk.StoreID,
		ManagerRatePercent: r.defaultManagerRate,
	}

	if manager, err := r.repo.CurrentManager(ctx, kioskID); err != nil {
		return settlement.PartySnapshot{}, err
	} else if manager != nil {
		managerID := manager.PartyID
		snapshot.ManagerID = &managerID
		snapshot.ManagerRatePercent = manager.RatePercent
	}

	if rep, err := r.repo.CurrentSalesRep(ctx, kioskID); err != nil {
		return settlement.PartySnapshot{}, err
	} else if rep != nil {
		repID := rep.PartyID
		snapshot.SalesRepID = &repID
		snapshot.SalesRepRatePercent = rep.RatePercent
	}

	return snapshot, nil
}
