package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gameguild-gg/gameguild-sub001/cmd/gameguild/cli"
	"github.com/gameguild-gg/gameguild-sub001/internal/app"
	"github.com/gameguild-gg/gameguild-sub001/internal/bootstrap"
	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/observability"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/cache"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/db"
	"github.com/gameguild-gg/gameguild-sub001/internal/rbac"
	"github.com/gameguild-gg/gameguild-sub001/internal/users"
	"github.com/gameguild-gg/gameguild-sub001/jobs"
)

const usage = `usage: gameguild [command] [flags]

commands:
  serve       run the HTTP API (default)
  bootstrap   grant every permission to the configured super administrator
              --email, --content-types, --json, --enqueue
  trigger     enqueue a background job by name (permissions:invalidate_cache)
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := app.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return cli.ExitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return cli.ExitFailure
	}
	logger := app.NewLogger(cfg)

	command := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve(ctx, stop, cfg, logger)
	case "bootstrap":
		return runBootstrap(ctx, cfg, logger, args)
	case "trigger":
		return trigger(ctx, cfg, args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return cli.ExitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return cli.ExitUsage
	}
}

// deps holds the services shared by every command.
type deps struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	cache     *rbac.Cache
	grants    *grants.Repository
	users     *users.Service
	bootstrap *bootstrap.Service
}

func wire(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*deps, func(), error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, resolve cache disabled", slog.Any("error", err))
		redisClient = nil
	}

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
		pool.Close()
	}

	grantRepo := grants.NewRepository(pool)
	resolveCache := rbac.NewCache(redisClient, cfg.AuthzCacheTTL)
	userService := users.NewService(users.NewRepository(pool))
	return &deps{
		pool:      pool,
		redis:     redisClient,
		cache:     resolveCache,
		grants:    grantRepo,
		users:     userService,
		bootstrap: bootstrap.NewService(userService, grantRepo, resolveCache, logger),
	}, cleanup, nil
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) int {
	d, cleanup, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect dependencies", slog.Any("error", err))
		return cli.ExitFailure
	}
	defer cleanup()

	if cfg.BootstrapAdminEmail != "" {
		if _, err := d.bootstrap.EnsureSuperAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapContentTypes); err != nil {
			logger.Error("super admin bootstrap", slog.Any("error", err))
		}
	}

	metrics := observability.NewMetrics()
	resolver := rbac.NewResolver(d.grants, d.cache, rbac.NewMetrics(metrics.Registerer()), logger, cfg.ResolverConfig())
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbac.NewService(d.grants, d.cache, logger), resolver, rbacMiddleware)
	usersHandler := users.NewHandler(logger, d.users, rbacMiddleware)

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	readiness := map[string]app.ReadinessCheck{"postgres": d.pool.Ping}
	if d.redis != nil {
		readiness["redis"] = func(ctx context.Context) error { return d.redis.Ping(ctx).Err() }
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
		Readiness:          readiness,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func runBootstrap(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	opts, err := cli.ParseBootstrapFlags(args, cli.BootstrapOptions{
		Email:        cfg.BootstrapAdminEmail,
		ContentTypes: cfg.BootstrapContentTypes,
		Stderr:       os.Stderr,
	})
	if err != nil {
		return cli.ExitUsage
	}

	if opts.Enqueue {
		jobsCLI := cli.NewJobsCLI(cfg.AsynqRedis())
		defer func() { _ = jobsCLI.Close() }()
		return cli.NewBootstrapCLI(nil, jobsCLI).BootstrapCommand(ctx, opts)
	}

	d, cleanup, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect dependencies", slog.Any("error", err))
		return cli.ExitFailure
	}
	defer cleanup()
	return cli.NewBootstrapCLI(d.bootstrap, nil).BootstrapCommand(ctx, opts)
}

func trigger(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "trigger: expected exactly one job name\n\n%s", usage)
		return cli.ExitUsage
	}
	jobsCLI := cli.NewJobsCLI(cfg.AsynqRedis())
	defer func() { _ = jobsCLI.Close() }()
	info, err := jobsCLI.Trigger(ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "trigger: %v\n", err)
		return cli.ExitFailure
	}
	fmt.Fprintf(os.Stdout, "enqueued %s (task %s)\n", info.Type, info.ID)
	return cli.ExitOK
}
