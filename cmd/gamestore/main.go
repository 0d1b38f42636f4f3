package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/gamestore/gamestore-admin/cmd/gamestore/cli"
	"github.com/gamestore/gamestore-admin/internal/app"
	"github.com/gamestore/gamestore-admin/internal/auth"
	"github.com/gamestore/gamestore-admin/internal/observability"
	"github.com/gamestore/gamestore-admin/internal/platform/cache"
	"github.com/gamestore/gamestore-admin/internal/platform/db"
	"github.com/gamestore/gamestore-admin/internal/rbac"
	"github.com/gamestore/gamestore-admin/internal/roles"
	"github.com/gamestore/gamestore-admin/internal/users"
	"github.com/gamestore/gamestore-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCLI(ctx, cfg, os.Args[2:]))
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, 0)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	pgStore := rbac.NewPGStore(dbpool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		logger.Error("ensure rbac schema", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr}); err != nil {
		logger.Warn("redis unavailable, rbac cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	hierarchy := rbac.DefaultHierarchy(logger)
	store := rbac.NewCachedStore(pgStore, redisClient, cfg.RBACCacheTTL, logger)
	rbacService := rbac.NewService(store, hierarchy, logger)
	if cfg.RBACSeedOnStart {
		report, err := rbacService.Seed(ctx, hierarchy)
		if err != nil {
			logger.Error("rbac seed on start", slog.Any("error", err))
		} else {
			logger.Info("rbac seed on start", slog.Int("roles_created", len(report.RolesCreated)), slog.Int("claims_added", report.Drift()))
		}
	}

	metrics := observability.NewMetrics()
	evaluator := rbac.NewEvaluator(rbacService, rbac.DefaultResources(), logger, metrics)
	rbacMiddleware := rbac.Middleware{Evaluator: evaluator, Logger: logger}

	issuer := auth.NewIssuer(auth.IssuerConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		TTLMinutes: cfg.JWTTTLMinutes,
	}, rbacService)
	if err := issuer.Probe(); err != nil {
		logger.Error("credential issuer", slog.Any("error", err))
		os.Exit(1)
	}
	validator := auth.NewValidator(auth.ValidatorConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})

	var checker auth.PasswordChecker
	if cfg.AuthMode == app.AuthModeExternal {
		external, err := auth.NewExternalChecker(cfg.AuthExternalURL, nil)
		if err != nil {
			logger.Error("external auth", slog.Any("error", err))
			os.Exit(1)
		}
		checker = external
	}
	authService := auth.NewService(auth.NewRepository(dbpool), issuer, checker, logger)
	authHandler := auth.NewHandler(logger, authService)

	rolesHandler := roles.NewHandler(logger, roles.NewService(rbacService, logger), rbacMiddleware)
	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool), rbacService, logger), rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, evaluator, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     auth.NewMiddleware(validator),
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("auth_mode", cfg.AuthMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	}
}

func runJobsCLI(ctx context.Context, cfg *app.Config, args []string) int {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer jobsCLI.Close()
	out, err := jobsCLI.Run(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(out)
	return 0
}
