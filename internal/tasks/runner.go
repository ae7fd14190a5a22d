// Package tasks runs the bot's periodic jobs. The runner ticks on a short
// interval and each task's cadence decides whether it is actually due, so
// restarts neither re-fire a job nor skip one.
package tasks

import (
	"context"
	"log/slog"
	"time"
)

const defaultInterval = 10 * time.Minute

// MarkStore remembers when a task last ran. Backed by Redis in production
// so the dedupe survives restarts.
type MarkStore interface {
	// LastRun returns the recorded run time, or the zero time when the
	// task has never run.
	LastRun(ctx context.Context, name string) (time.Time, error)
	MarkRun(ctx context.Context, name string, at time.Time) error
}

// Cadence decides whether a task is due at now, given its last recorded
// run.
type Cadence func(lastRun, now time.Time) bool

// OnceWeekly fires on the given weekday when at least six days have
// passed since the last run. The slack below seven days tolerates tick
// jitter around the boundary.
func OnceWeekly(day time.Weekday) Cadence {
	return func(lastRun, now time.Time) bool {
		if now.Weekday() != day {
			return false
		}
		return lastRun.IsZero() || now.Sub(lastRun) >= 6*24*time.Hour
	}
}

// Task is one periodic job.
type Task struct {
	Name    string
	Cadence Cadence
	Fn      func(ctx context.Context) error
}

// Runner ticks through a set of tasks until its context is canceled.
type Runner struct {
	marks    MarkStore
	log      *slog.Logger
	interval time.Duration
	tasks    []Task
}

// NewRunner creates a runner over the given mark store.
func NewRunner(marks MarkStore, log *slog.Logger) *Runner {
	return &Runner{marks: marks, log: log, interval: defaultInterval}
}

// Add registers a task with the runner.
func (r *Runner) Add(t Task) {
	r.tasks = append(r.tasks, t)
}

// Run blocks, executing due tasks every tick, until ctx is canceled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.runDue(ctx, now)
		}
	}
}

func (r *Runner) runDue(ctx context.Context, now time.Time) {
	for _, task := range r.tasks {
		lastRun, err := r.marks.LastRun(ctx, task.Name)
		if err != nil {
			r.log.Error("reading task mark", "task", task.Name, "err", err)
			continue
		}
		if !task.Cadence(lastRun, now) {
			continue
		}

		r.log.Info("running task", "task", task.Name)
		if err := task.Fn(ctx); err != nil {
			r.log.Error("task failed", "task", task.Name, "err", err)
			continue
		}
		if err := r.marks.MarkRun(ctx, task.Name, now); err != nil {
			r.log.Error("recording task run", "task", task.Name, "err", err)
		}
	}
}
