package parties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// Repository reads kiosks and their party assignments.
type Repository interface {
	FindKiosk(ctx context.Context, id uuid.UUID) (*models.Kiosk, error)
	CurrentManager(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error)
	CurrentSalesRep(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a parties repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindKiosk(ctx context.Context, id uuid.UUID) (*models.Kiosk, error) {
	var kiosk models.Kiosk
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&kiosk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kiosk, nil
}

func (r *repository) CurrentManager(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error) {
	return r.currentAssignment(ctx, kioskID, enums.AssignmentRoleManager)
}

func (r *repository) CurrentSalesRep(ctx context.Context, kioskID uuid.UUID) (*models.KioskAssignment, error) {
	return r.currentAssignment(ctx, kioskID, enums.AssignmentRoleSalesRep)
}

// The newest active, unended assignment wins when several rows exist.
func (r *repository) currentAssignment(ctx context.Context, kioskID uuid.UUID, role enums.AssignmentRole) (*models.KioskAssignment, error) {
	var assignment models.KioskAssignment
	err := r.db.WithContext(ctx).
		Where("kiosk_id = ? AND role = ? AND active = ? AND ended_at IS NULL", kioskID, role, true).
		Order("effective_at DESC").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
