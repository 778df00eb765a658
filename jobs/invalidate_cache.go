package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gameguild-gg/gameguild-sub001/internal/jobs"
)

// CacheBumper is satisfied by *rbac.Cache.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// InvalidateCacheJob bumps the resolve cache version so grants edited
// directly in the database become visible before the cache TTL lapses.
type InvalidateCacheJob struct {
	Cache   CacheBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskInvalidateResolveCache tasks.
func (j *InvalidateCacheJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("invalidate cache: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskInvalidateResolveCache)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if j.Cache == nil {
		logger.Info("resolve cache disabled, nothing to invalidate")
		return nil
	}
	if err := j.Cache.Bump(ctx); err != nil {
		logger.Error("invalidate resolve cache", slog.Any("error", err))
		return err
	}
	logger.Info("resolve cache invalidated", slog.String("job", TaskInvalidateResolveCache))
	return nil
}
