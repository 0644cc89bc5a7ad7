// Package scheduler runs periodic background jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

// Validate reports whether expr is a usable five-field cron expression.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Run schedules job on expr and blocks until ctx is cancelled. A run that is
// still in progress when the next tick fires causes that tick to be skipped.
// Running jobs are waited for before Run returns.
func Run(ctx context.Context, expr, name string, job Job) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(expr, func() {
		if err := job(ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q for %s: %w", expr, name, err)
	}

	slog.Info("scheduler started", "job", name, "schedule", expr)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("scheduler stopped", "job", name)
	return nil
}
