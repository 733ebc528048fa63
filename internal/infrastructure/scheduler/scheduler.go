// Package scheduler runs the periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

// Name returns the job name
func (j JobFunc) Name() string { return j.JobName }

// Run calls the function
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// Metrics records job runs. telemetry.Metrics implements it.
type Metrics interface {
	JobRun(job string, err error)
}

type noopMetrics struct{}

func (noopMetrics) JobRun(string, error) {}

// JobState is a snapshot of a registered job
type JobState struct {
	Name      string
	Schedule  string
	Status    JobStatus
	LastError string
	LastRunAt *time.Time
	NextRunAt *time.Time
	Runs      int
}

type entry struct {
	job      Job
	schedule string
	id       cron.EntryID

	mu    sync.Mutex
	state JobState
}

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 5 * time.Minute,
		Location:   time.UTC,
	}
}

// Scheduler runs registered jobs on cron expressions. A job that is still
// running when its next tick fires is skipped for that tick.
type Scheduler struct {
	config  Config
	cron    *cron.Cron
	metrics Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	entries   map[string]*entry
	isRunning bool
}

// New creates a new scheduler instance
func New(config Config, metrics Metrics, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:  config,
		cron:    cron.New(cron.WithLocation(config.Location), cron.WithChain(cron.Recover(cronLogger{logger}))),
		metrics: metrics,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Register adds job on a standard five-field cron expression or a descriptor
// such as "@every 1m"
func (s *Scheduler) Register(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.entries[job.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}

	e := &entry{
		job:      job,
		schedule: schedule,
		state: JobState{
			Name:     job.Name(),
			Schedule: schedule,
			Status:   JobStatusPending,
		},
	}
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.logger})).
		Then(cron.FuncJob(func() { s.execute(e) }))
	id, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		return fmt.Errorf("%w %q for %s: %v", ErrInvalidSchedule, schedule, job.Name(), err)
	}
	e.id = id
	s.entries[job.Name()] = e
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop stops the cron loop, cancels running jobs and waits for them to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s is not registered", name)
	}
	return s.execute(e)
}

// Jobs returns a snapshot of every registered job
func (s *Scheduler) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make([]JobState, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		state := e.state
		e.mu.Unlock()
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			state.NextRunAt = &next
		}
		states = append(states, state)
	}
	return states
}

func (s *Scheduler) execute(e *entry) error {
	name := e.job.Name()
	start := time.Now()

	e.mu.Lock()
	e.state.Status = JobStatusRunning
	e.state.LastRunAt = &start
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.config.JobTimeout)
	defer cancel()

	err := e.job.Run(ctx)
	s.metrics.JobRun(name, err)

	e.mu.Lock()
	e.state.Runs++
	if err != nil {
		e.state.Status = JobStatusFailed
		e.state.LastError = err.Error()
	} else {
		e.state.Status = JobStatusSuccess
		e.state.LastError = ""
	}
	e.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
	s.logger.Debug("Scheduled job finished",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
