// Package flow provides the thin orchestration wrapper around the
// extract and load steps: named tasks with retry and timeout policy,
// sequenced by a flow that stops at the first failure.
package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/weavebio/uniprot-ingest/pkg/graph/metrics"
)

// Task is one unit of orchestration. The flow treats its Run func as
// opaque; retries and timeouts wrap around it.
type Task struct {
	Name       string
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
	Run        func(ctx context.Context) error
}

// Flow sequences tasks and runs them in order, stopping at the first
// task that exhausts its retries.
type Flow struct {
	name   string
	tasks  []Task
	logger *logrus.Logger
}

// New creates an empty flow.
func New(name string) *Flow {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Flow{
		name:   name,
		logger: logger,
	}
}

// SetLogger replaces the flow's logger.
func (f *Flow) SetLogger(logger *logrus.Logger) {
	f.logger = logger
}

// Add appends a task to the flow.
func (f *Flow) Add(t Task) {
	f.tasks = append(f.tasks, t)
}

// Run executes the flow's tasks in order. Each run is tagged with a fresh
// run ID so scheduler logs of separate invocations stay distinguishable.
func (f *Flow) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log := f.logger.WithFields(logrus.Fields{
		"flow":   f.name,
		"run_id": runID,
	})
	log.WithField("task_count", len(f.tasks)).Info("Flow started")

	for _, task := range f.tasks {
		if err := f.runTask(ctx, log, task); err != nil {
			log.WithError(err).WithField("task", task.Name).Error("Flow failed")
			return errors.Wrapf(err, "flow %s: task %s", f.name, task.Name)
		}
	}

	log.Info("Flow completed")
	return nil
}

func (f *Flow) runTask(ctx context.Context, log *logrus.Entry, task Task) error {
	timer := prometheus.NewTimer(metrics.TaskDuration.WithLabelValues(task.Name))
	defer timer.ObserveDuration()

	var err error
	for attempt := 0; attempt <= task.Retries; attempt++ {
		if attempt > 0 {
			metrics.TaskRetries.WithLabelValues(task.Name).Inc()
			log.WithFields(logrus.Fields{
				"task":    task.Name,
				"attempt": attempt + 1,
			}).Warn("Retrying task")
			select {
			case <-time.After(task.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = f.attempt(ctx, task)
		if err == nil {
			metrics.TaskRuns.WithLabelValues(task.Name, "success").Inc()
			log.WithField("task", task.Name).Info("Task completed")
			return nil
		}
		log.WithError(err).WithField("task", task.Name).Warn("Task failed")
	}

	metrics.TaskRuns.WithLabelValues(task.Name, "error").Inc()
	return err
}

func (f *Flow) attempt(ctx context.Context, task Task) error {
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}
	return task.Run(ctx)
}
