package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db/models"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	perJobRetries      = 2
	retryBase          = 250 * time.Millisecond
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Trigger trigger.Service
}

// Service drains pending print jobs through the commission trigger.
type Service struct {
	logg         *logger.Logger
	trigger      trigger.Service
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Trigger == nil {
		return nil, errors.New("trigger service is required")
	}

	batch := params.Config.Worker.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.Config.Worker.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	interval := params.Config.Worker.PollInterval()
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}

	return &Service{
		logg:         params.Logger,
		trigger:      params.Trigger,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := s.pollInterval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "print job batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch runs one drain pass. A job failing does not stop the batch; the
// errors are combined so the caller still sees every failure. The returned bool
// reports whether any job was actually attempted: a backlog made up entirely of
// exhausted jobs counts as idle, so Run sleeps instead of re-polling a queue it
// can do nothing with.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	jobs, err := s.trigger.PendingJobs(ctx, s.batchSize)
	if err != nil {
		return false, err
	}
	if len(jobs) == 0 {
		return false, nil
	}

	attempted := false
	var errs []error
	for _, job := range jobs {
		jobCtx := s.logg.WithPrintJobID(ctx, job.ID.String())

		if job.AttemptCount >= s.maxAttempts {
			s.logg.Warn(jobCtx, "print job exceeded max attempts, leaving for operator review")
			continue
		}

		attempted = true
		if err := s.processJob(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return attempted, multierr.Combine(errs...)
}

func (s *Service) processJob(ctx context.Context, job models.PrintJob) error {
	backoff := retry.WithMaxRetries(perJobRetries, retry.NewFibonacci(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.trigger.Process(ctx, job.ID)
		if err == nil {
			return nil
		}
		if pkgerrors.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	// Another worker holding the claim is not a failure; the job stays pending
	// and a later pass picks it up.
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
		s.logg.Info(s.logg.WithPrintJobID(ctx, job.ID.String()), "print job claimed elsewhere, skipping")
		return nil
	}
	return err
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, floor, ceiling time.Duration) time.Duration {
	next := current * 2
	if next < floor {
		next = floor
	}
	if next > ceiling {
		next = ceiling
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
