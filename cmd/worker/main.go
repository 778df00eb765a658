package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gameguild-gg/gameguild-sub001/internal/app"
	"github.com/gameguild-gg/gameguild-sub001/internal/bootstrap"
	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	jobmetrics "github.com/gameguild-gg/gameguild-sub001/internal/jobs"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/cache"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/db"
	"github.com/gameguild-gg/gameguild-sub001/internal/rbac"
	"github.com/gameguild-gg/gameguild-sub001/internal/users"
	"github.com/gameguild-gg/gameguild-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	if err := app.LoadDotEnv(); err != nil {
		slog.Default().Error("load .env", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	resolveCache := rbac.NewCache(redisClient, cfg.AuthzCacheTTL)
	userService := users.NewService(users.NewRepository(pool))
	bootstrapService := bootstrap.NewService(userService, grants.NewRepository(pool), resolveCache, logger)

	ensureJob := jobs.NewEnsureSuperAdminJob(bootstrapService, logger, metrics)
	invalidateJob := &jobs.InvalidateCacheJob{Cache: resolveCache, Logger: logger, Metrics: metrics}

	var cron []jobs.CronRegistration
	if cfg.BootstrapCron != "" {
		task, err := jobs.NewEnsureSuperAdminTask(jobs.EnsureSuperAdminPayload{
			Email:        cfg.BootstrapAdminEmail,
			ContentTypes: cfg.BootstrapContentTypes,
		})
		if err != nil {
			logger.Error("build bootstrap task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.BootstrapCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Logger:      logger,
		Concurrency: cfg.WorkerRoutines,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEnsureSuperAdmin, Handler: ensureJob.Handle},
			{Type: jobs.TaskInvalidateResolveCache, Handler: invalidateJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
