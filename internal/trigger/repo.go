package trigger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// Repository manages persistence for print jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.PrintJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PrintJob, error)
	FindByTransactionRef(ctx context.Context, ref string) (*models.PrintJob, error)
	ListPending(ctx context.Context, limit int) ([]models.PrintJob, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordAttemptError(ctx context.Context, id uuid.UUID, attemptErr error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a print-job repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, job *models.PrintJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CommissionStatus == "" {
		job.CommissionStatus = enums.CommissionStatusPending
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) FindByTransactionRef(ctx context.Context, ref string) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.WithContext(ctx).Where("transaction_ref = ?", ref).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListPending returns the oldest unprocessed jobs first so a backlog drains in
// arrival order.
func (r *repository) ListPending(ctx context.Context, limit int) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	if err := r.db.WithContext(ctx).
		Where("commission_status = ?", enums.CommissionStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkProcessed advances the one-way status machine. The pending guard in the
// WHERE clause makes the transition safe under concurrent workers: only one
// update ever takes effect.
func (r *repository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.PrintJob{}).
		Where("id = ? AND commission_status = ?", id, enums.CommissionStatusPending).
		Updates(map[string]any{
			"commission_status": enums.CommissionStatusProcessed,
			"processed_at":      at,
			"last_error":        nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordAttemptError bumps the attempt counter and stores the failure text for
// operators. The status stays pending so the worker retries the job.
func (r *repository) RecordAttemptError(ctx context.Context, id uuid.UUID, attemptErr error) error {
	message := attemptErr.Error()
	return r.db.WithContext(ctx).
		Model(&models.PrintJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    message,
		}).Error
}
