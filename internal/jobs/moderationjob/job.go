package moderationjob

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"
)

type BatchRunner interface {
	ProcessBatch(ctx context.Context) (pipeline.Summary, error)
}

// Job runs the moderation batch on a schedule. A run that is still in
// flight makes the next tick a no-op; the guard is in-process only.
type Job struct {
	runner     BatchRunner
	runTimeout time.Duration
	inFlight   atomic.Bool
	logger     *zap.Logger
}

func New(runner BatchRunner, runTimeout time.Duration, logger *zap.Logger) *Job {
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		runner:     runner,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.runner == nil {
		return fmt.Errorf("batch runner is nil")
	}
	if !j.inFlight.CompareAndSwap(false, true) {
		j.logger.Warn("moderation batch still running, skipping tick")
		return nil
	}
	defer j.inFlight.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, j.runTimeout)
	defer cancel()

	start := time.Now()
	summary, err := j.runner.ProcessBatch(runCtx)
	if err != nil {
		return fmt.Errorf("moderation batch: %w", err)
	}

	j.logger.Info("moderation batch completed",
		zap.Int("processed", summary.Processed),
		zap.Int("flagged", summary.Flagged),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
