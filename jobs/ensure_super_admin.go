package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gameguild-gg/gameguild-sub001/internal/bootstrap"
	jobmetrics "github.com/gameguild-gg/gameguild-sub001/internal/jobs"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SuperAdminEnsurer is satisfied by *bootstrap.Service.
type SuperAdminEnsurer interface {
	EnsureSuperAdmin(ctx context.Context, email string, contentTypes []string) (bootstrap.Result, error)
}

// EnsureSuperAdminJob runs the administrator bootstrap from the queue.
type EnsureSuperAdminJob struct {
	Bootstrap SuperAdminEnsurer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewEnsureSuperAdminJob wires dependencies for the bootstrap handler.
func NewEnsureSuperAdminJob(svc SuperAdminEnsurer, logger *slog.Logger, metrics *jobmetrics.Metrics) *EnsureSuperAdminJob {
	return &EnsureSuperAdminJob{Bootstrap: svc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskEnsureSuperAdmin tasks. Malformed payloads and unknown
// content types are not retried; a missing administrator is logged and the
// task completes.
func (j *EnsureSuperAdminJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Bootstrap == nil {
		return errors.New("ensure super admin: handler not configured")
	}
	var payload EnsureSuperAdminPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskEnsureSuperAdmin)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("email", payload.Email))
	res, err := j.Bootstrap.EnsureSuperAdmin(ctx, payload.Email, payload.ContentTypes)
	if err != nil {
		logger.Error("ensure super admin", slog.Any("error", err))
		if errors.Is(err, permission.ErrUnknownContentType) || errors.Is(err, bootstrap.ErrAdminEmailRequired) {
			return errors.Join(err, asynq.SkipRetry)
		}
		return err
	}
	if res.Skipped {
		logger.Warn("ensure super admin skipped", slog.Any("warning", res.Warning))
		return nil
	}
	logger.Info("ensure super admin completed",
		slog.String("user_id", res.UserID.String()),
		slog.Int64("purged", res.Purged),
		slog.Int("content_types", len(res.ContentTypes)))
	return nil
}

func (j *EnsureSuperAdminJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskEnsureSuperAdmin))
	}
	return slog.Default().With(slog.String("job", TaskEnsureSuperAdmin))
}

func (j *EnsureSuperAdminJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
