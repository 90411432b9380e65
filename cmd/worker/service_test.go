package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

type fakeTrigger struct {
	pending []models.PrintJob

	processCalls []uuid.UUID
	failures     map[uuid.UUID][]error
}

func (f *fakeTrigger) Ingest(ctx context.Context, event trigger.PrintJobEvent) (*models.PrintJob, error) {
	return nil, errors.New("not used")
}

func (f *fakeTrigger) Process(ctx context.Context, jobID uuid.UUID) (*trigger.Result, error) {
	f.processCalls = append(f.processCalls, jobID)
	if queued := f.failures[jobID]; len(queued) > 0 {
		err := queued[0]
		f.failures[jobID] = queued[1:]
		return nil, err
	}
	return &trigger.Result{}, nil
}

func (f *fakeTrigger) PendingJobs(ctx context.Context, limit int) ([]models.PrintJob, error) {
	return f.pending, nil
}

func newWorker(t *testing.T, fake *fakeTrigger) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:  &config.Config{},
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Trigger: fake,
	})
	require.NoError(t, err)
	return svc
}

func pendingJob(attempts int) models.PrintJob {
	return models.PrintJob{ID: uuid.New(), AttemptCount: attempts}
}

func TestProcessBatchDrainsPendingJobs(t *testing.T) {
	jobs := []models.PrintJob{pendingJob(0), pendingJob(0), pendingJob(0)}
	fake := &fakeTrigger{pending: jobs}
	svc := newWorker(t, fake)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Len(t, fake.processCalls, 3)
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	svc := newWorker(t, &fakeTrigger{})

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchExhaustedBacklogCountsAsIdle(t *testing.T) {
	fake := &fakeTrigger{pending: []models.PrintJob{pendingJob(10), pendingJob(12)}}
	svc := newWorker(t, fake)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	// Nothing was attempted, so Run must take the sleep branch rather than
	// re-polling the same untouchable backlog in a tight loop.
	assert.False(t, processed)
	assert.Empty(t, fake.processCalls)
}

func TestProcessBatchSkipsExhaustedJobs(t *testing.T) {
	exhausted := pendingJob(10)
	fresh := pendingJob(0)
	fake := &fakeTrigger{pending: []models.PrintJob{exhausted, fresh}}
	svc := newWorker(t, fake)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, fake.processCalls, 1)
	assert.Equal(t, fresh.ID, fake.processCalls[0])
}

func TestProcessJobRetriesTransientFailures(t *testing.T) {
	job := pendingJob(0)
	fake := &fakeTrigger{
		pending: []models.PrintJob{job},
		failures: map[uuid.UUID][]error{
			job.ID: {pkgerrors.New(pkgerrors.CodeDependency, "db timeout")},
		},
	}
	svc := newWorker(t, fake)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	// First attempt failed, the retry succeeded.
	assert.Len(t, fake.processCalls, 2)
}

func TestProcessJobDoesNotRetryValidationErrors(t *testing.T) {
	job := pendingJob(0)
	fake := &fakeTrigger{
		pending: []models.PrintJob{job},
		failures: map[uuid.UUID][]error{
			job.ID: {pkgerrors.New(pkgerrors.CodeValidation, "bad amounts")},
		},
	}
	svc := newWorker(t, fake)

	_, err := svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Len(t, fake.processCalls, 1)
}

func TestProcessJobTreatsClaimConflictAsBenign(t *testing.T) {
	job := pendingJob(0)
	fake := &fakeTrigger{
		pending: []models.PrintJob{job},
		failures: map[uuid.UUID][]error{
			job.ID: {pkgerrors.New(pkgerrors.CodeConflict, "claimed elsewhere")},
		},
	}
	svc := newWorker(t, fake)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, fake.processCalls, 1)
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	failing := pendingJob(0)
	healthy := pendingJob(0)
	fake := &fakeTrigger{
		pending: []models.PrintJob{failing, healthy},
		failures: map[uuid.UUID][]error{
			failing.ID: {
				pkgerrors.New(pkgerrors.CodeValidation, "bad amounts"),
			},
		},
	}
	svc := newWorker(t, fake)

	_, err := svc.processBatch(context.Background())
	require.Error(t, err)
	// The healthy job still settled.
	assert.Contains(t, fake.processCalls, healthy.ID)
}
