package parties

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
)

type fakeRepository struct {
	kiosk    *models.Kiosk
	manager  *models.KioskAssignment
	salesRep *models.KioskAssignment
	err      error
}

func (f *fakeRepository) FindKiosk(ctx context.Context, id uuid.UUID) (*models.Kiosk, error) {
	return f.kiosk, f.err
}

func (f *fakeRepository) CurrentManager(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error) {
	return f.manager, f.err
}

func (f *fakeRepository) CurrentSalesRep(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error) {
	return f.salesRep, f.err
}

func TestResolveSnapshotsBothParties(t *testing.T) {
	kioskID := uuid.New()
	storeID := uuid.New()
	managerID := uuid.New()
	repID := uuid.New()

	repo := &fakeRepository{
		kiosk: &models.Kiosk{ID: kioskID, StoreID: storeID},
		manager: &models.KioskAssignment{
			PartyID:     managerID,
			RatePercent: decimal.RequireFromString("25"),
		},
		salesRep: &models.KioskAssignment{
			PartyID:     repID,
			RatePercent: decimal.RequireFromString("10"),
		},
	}
	resolver, err := NewResolver(repo, decimal.NewFromInt(20))
	require.NoError(t, err)

	snap, err := resolver.Resolve(context.Background(), kioskID)
	require.NoError(t, err)

	assert.Equal(t, storeID, snap.StoreID)
	require.NotNil(t, snap.ManagerID)
	assert.Equal(t, managerID, *snap.ManagerID)
	assert.Equal(t, "25", snap.ManagerRatePercent.String())
	require.NotNil(t, snap.SalesRepID)
	assert.Equal(t, repID, *snap.SalesRepID)
	assert.Equal(t, "10", snap.SalesRepRatePercent.String())
}

func TestResolveDefaultsManagerRateWhenUnassigned(t *testing.T) {
	repo := &fakeRepository{
		kiosk: &models.Kiosk{ID: uuid.New(), StoreID: uuid.New()},
	}
	resolver, err := NewResolver(repo, decimal.NewFromInt(20))
	require.NoError(t, err)

	snap, err := resolver.Resolve(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Nil(t, snap.ManagerID)
	assert.Equal(t, "20", snap.ManagerRatePercent.String())
	assert.Nil(t, snap.SalesRepID)
	assert.True(t, snap.SalesRepRatePercent.IsZero())
}

func TestNewResolverRejectsNegativeDefaultRate(t *testing.T) {
	_, err := NewResolver(&fakeRepository{}, decimal.NewFromInt(-1))
	require.Error(t, err)
}

func TestResolveUsesConfiguredDefaultRate(t *testing.T) {
	repo := &fakeRepository{
		kiosk: &models.Kiosk{ID: uuid.New(), StoreID: uuid.New()},
	}
	resolver, err := NewResolver(repo, decimal.RequireFromString("17.5"))
	require.NoError(t, err)

	snap, err := resolver.Resolve(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "17.5", snap.ManagerRatePercent.String())
}

func TestResolveUnknownKiosk(t *testing.T) {
	resolver, err := NewResolver(&fakeRepository{}, decimal.NewFromInt(20))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestResolvePropagatesRepoError(t *testing.T) {
	boom := errors.New("db down")
	resolver, err := NewResolver(&fakeRepository{err: boom}, decimal.NewFromInt(20))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, boom)
}

func TestResolveRequiresKioskID(t *testing.T) {
	resolver, err := NewResolver(&fakeRepository{}, decimal.NewFromInt(20))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
