package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"opensox-api/internal/observability/metrics"
)

// Task is one step of a scheduled run.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunReport summarises one scheduled run.
type RunReport struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Failed    []string  `json:"failed,omitempty"`
}

// Scheduler runs its tasks in order on a cron schedule. A failing task is
// logged and recorded but does not stop the tasks after it. Ticks that fire
// while a run is still in progress are skipped.
type Scheduler struct {
	cfg      Config
	tasks    []Task
	logger   *slog.Logger
	metrics  *Metrics
	health   *HealthServer
	schedule cron.Schedule
	loc      *time.Location
	now      func() time.Time
}

// NewScheduler validates the schedule and timezone up front so a bad
// configuration fails at startup rather than on the first tick.
func NewScheduler(cfg Config, logger *slog.Logger, m *Metrics, health *HealthServer, tasks ...Task) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cfg.CronSchedule)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", cfg.CronSchedule, err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if len(tasks) == 0 {
		return nil, errors.New("scheduler needs at least one task")
	}
	return &Scheduler{
		cfg:      cfg,
		tasks:    tasks,
		logger:   logger,
		metrics:  m,
		health:   health,
		schedule: schedule,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// RunOnce executes every task under the configured run timeout and returns
// the joined task errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	started := s.now()
	report := RunReport{StartedAt: started}
	var errs []error

	for _, task := range s.tasks {
		taskStart := s.now()
		err := task.Run(ctx)
		elapsed := s.now().Sub(taskStart)
		metrics.RecordWorkerRun(task.Name, err, elapsed)

		if err != nil {
			s.logger.Error("worker task failed",
				slog.String("task", task.Name),
				slog.Duration("duration", elapsed),
				slog.Any("error", err))
			report.Failed = append(report.Failed, task.Name)
			errs = append(errs, fmt.Errorf("%s: %w", task.Name, err))
			continue
		}
		if s.metrics != nil {
			s.metrics.LastSuccess.WithLabelValues(task.Name).SetToCurrentTime()
		}
		s.logger.Info("worker task completed",
			slog.String("task", task.Name),
			slog.Duration("duration", elapsed))
	}

	report.Duration = s.now().Sub(started).String()
	if s.health != nil {
		s.health.RecordRun(report)
	}
	return errors.Join(errs...)
}

// Run starts the cron loop and blocks until ctx is cancelled. It waits for
// an in-flight run to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(skipLogger{s})),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.RunOnce(ctx)
	}))

	if s.cfg.RunOnStart {
		_ = s.RunOnce(ctx)
	}

	c.Start()
	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("worker started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone))

	<-ctx.Done()
	if s.health != nil {
		s.health.SetReady(false)
	}
	<-c.Stop().Done()
	s.logger.Info("worker stopped")
	return nil
}

// skipLogger adapts cron's logger to slog. SkipIfStillRunning reports a
// skipped tick through Info.
type skipLogger struct{ s *Scheduler }

func (l skipLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" && l.s.metrics != nil {
		l.s.metrics.RunsSkipped.Inc()
	}
	l.s.logger.Info("cron: "+msg, keysAndValues...)
}

func (l skipLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
