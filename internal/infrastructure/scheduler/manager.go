// Package scheduler runs the periodic sweeps using gocron v2.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/shared/biztime"
	"github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/constants"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const (
	JobKeyExpire             = "key-expire"
	JobBatchExpire           = "batch-expire"
	JobViolationCheck        = "violation-check"
	JobNotificationRetry     = "notification-retry"
	JobProvisioningReconcile = "provisioning-reconcile"

	defaultJobTimeout = 10 * time.Minute
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// JobFunc adapts a plain function to BatchJob.
type JobFunc func(ctx context.Context) (int, error)

func (f JobFunc) Execute(ctx context.Context) (int, error) {
	return f(ctx)
}

// Jobs are the sweeps the worker runs. A nil job is not registered.
type Jobs struct {
	ExpireKeys         BatchJob
	ExpireBatches      BatchJob
	CheckConnections   BatchJob
	RetryNotifications BatchJob
	ReconcileServers   BatchJob
}

// SchedulerManager owns the single gocron scheduler of the process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	cfg       config.SchedulerConfig
	metrics   *metrics.Metrics
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(cfg config.SchedulerConfig, m *metrics.Metrics, log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}

	return &SchedulerManager{
		scheduler: scheduler,
		cfg:       cfg,
		metrics:   m,
		logger:    log,
	}, nil
}

// RegisterAll registers every non-nil job with its configured interval.
// checkInterval drives the connection sweep.
func (m *SchedulerManager) RegisterAll(jobs Jobs, checkInterval time.Duration) error {
	entries := []struct {
		name     string
		tag      string
		interval time.Duration
		job      BatchJob
	}{
		{JobKeyExpire, constants.JobTagKeys, m.cfg.KeyExpireInterval, jobs.ExpireKeys},
		{JobBatchExpire, constants.JobTagBatches, m.cfg.BatchExpireInterval, jobs.ExpireBatches},
		{JobViolationCheck, constants.JobTagViolations, checkInterval, jobs.CheckConnections},
		{JobNotificationRetry, constants.JobTagViolations, m.cfg.RetryInterval, jobs.RetryNotifications},
		{JobProvisioningReconcile, constants.JobTagProvisioning, m.cfg.ReconcileInterval, jobs.ReconcileServers},
	}
	for _, e := range entries {
		if e.job == nil {
			continue
		}
		if err := m.RegisterJob(e.name, e.interval, e.job, e.tag); err != nil {
			return err
		}
	}
	return nil
}

// RegisterJob runs job every interval, starting immediately. A run that is
// still going when the next one is due makes gocron skip that tick. The job
// is tagged with its name plus tags.
func (m *SchedulerManager) RegisterJob(name string, interval time.Duration, job BatchJob, tags ...string) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.JobTimeout)
			defer cancel()
			m.run(ctx, name, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags(append([]string{name}, tags...)...),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}

	m.logger.Infow("registered job", "job", name, "interval", interval.String())
	return nil
}

func (m *SchedulerManager) run(ctx context.Context, name string, job BatchJob) {
	m.logger.Debugw("job started", "job", name)

	startTime := biztime.NowUTC()
	count, err := job.Execute(ctx)
	m.metrics.JobRun(name, err)
	if err != nil {
		// Don't log error if context was cancelled (graceful shutdown)
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		m.logger.Errorw("job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("job processed items",
			"job", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("job found nothing to process",
			"job", name,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
