package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// ErrUnknownJobType is returned when no factory is registered for a record's type.
var ErrUnknownJobType = errors.New("unknown job type")

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckJobAge defines how long a job can be in processing state
	// before it's considered stuck and reset
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration

	// JobTimeout bounds a single Execute call. If zero, defaults to 30 seconds
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
		JobTimeout:            30 * time.Second,
	}
}

// Runner manages background job processing
type Runner struct {
	store     Store
	queue     *Queue
	pool      *WorkerPool
	config    RunnerConfig
	logger    *slog.Logger
	factories map[string]Factory

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	errHandler func(job Job, err error)
	started    bool
	stopOnce   sync.Once
}

// NewRunner creates a new Runner
func NewRunner(store Store, config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 30 * time.Second
	}

	logger = logger.With("component", "job_runner")
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		store:     store,
		queue:     NewQueue(config.QueueSize, logger),
		config:    config,
		logger:    logger,
		factories: make(map[string]Factory),
		ctx:       ctx,
		cancel:    cancel,
		errHandler: func(job Job, err error) {
			logger.Error("job execution failed",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
	r.pool = NewWorkerPool(r.queue.Channel(), config.WorkerCount, r.processJob, logger)
	return r
}

// RegisterFactory makes records of jobType recoverable after a restart.
func (r *Runner) RegisterFactory(jobType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = factory
}

// SetErrorHandler allows setting a custom error handler function
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errHandler = handler
}

// Submit persists job and then queues it without blocking.
// A job that is saved but cannot be queued stays pending and is picked up
// by the next Recover.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(job); err != nil {
		return fmt.Errorf("failed to queue job: %w", err)
	}
	return nil
}

// Start recovers unfinished jobs, then launches the workers and the stuck-job monitor.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("job runner already started")
	}
	r.started = true
	r.mu.Unlock()

	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight jobs.
// Jobs still buffered in the queue remain pending in the store.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.queue.Close()
		r.pool.Stop()
	})
}

// Recover loads unfinished jobs from the store and requeues them. Jobs that
// were processing when the process died are reset to pending first.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	// Zero age returns every processing job
	processing, err := r.store.GetProcessingJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		r.requeue(rec, "pending")
	}

	for _, rec := range processing {
		if err := r.store.UpdateJobStatus(ctx, rec.ID, StatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing job status",
				"job_id", rec.ID,
				"job_type", rec.Type,
				"error", err)
			continue
		}
		r.requeue(rec, "processing")
	}

	return nil
}

func (r *Runner) rehydrate(rec Record) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, rec.Type)
	}
	return factory.Rehydrate(rec)
}

func (r *Runner) requeue(rec Record, origin string) {
	log := r.logger.With("job_id", rec.ID, "job_type", rec.Type, "origin", origin)

	job, err := r.rehydrate(rec)
	if err != nil {
		log.Error("failed to rehydrate job", "error", err)
		r.markFailed(rec.ID, err, log)
		return
	}

	if err := r.queue.Enqueue(job); err != nil {
		log.Error("failed to requeue job", "error", err)
		return
	}
	log.Debug("requeued job")
}

func (r *Runner) markFailed(id uuid.UUID, cause error, log *slog.Logger) {
	if err := r.store.UpdateJobStatus(context.Background(), id, StatusFailed, cause.Error()); err != nil {
		log.Error("failed to update job status to failed", "error", err)
	}
}

// processJob handles execution of a single job
func (r *Runner) processJob(job Job, workerID int) {
	log := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)
	ctx := logger.WithLogger(context.Background(), log)

	if err := r.store.UpdateJobStatus(ctx, job.ID(), StatusProcessing, ""); err != nil {
		log.Error("failed to update job status to processing", "error", err)
		return
	}

	log.Info("processing job")

	execCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	err := job.Execute(execCtx)
	cancel()

	if err != nil {
		r.markFailed(job.ID(), err, log)

		r.mu.RLock()
		handler := r.errHandler
		r.mu.RUnlock()
		handler(job, err)
		return
	}

	log.Info("job completed successfully")
	if err := r.store.UpdateJobStatus(ctx, job.ID(), StatusCompleted, ""); err != nil {
		log.Error("failed to update job status to completed", "error", err)
	}
}

// stuckJobMonitor periodically resets jobs that have been processing for too long
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.resetStuckJobs(r.ctx)
		}
	}
}

func (r *Runner) resetStuckJobs(ctx context.Context) {
	stuck, err := r.store.GetProcessingJobs(ctx, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck jobs", "count", len(stuck))
	for _, rec := range stuck {
		if err := r.store.UpdateJobStatus(ctx, rec.ID, StatusPending,
			"Reset after being stuck in processing state"); err != nil {
			r.logger.Error("failed to reset stuck job status",
				"job_id", rec.ID,
				"job_type", rec.Type,
				"error", err)
			continue
		}
		r.requeue(rec, "stuck")
	}
}

// Ensure Runner implements Submitter
var _ Submitter = (*Runner)(nil)
