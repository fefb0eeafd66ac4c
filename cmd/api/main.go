package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/api"
	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/auth"
	"github.com/baharkarakas/blog-backend/internal/config"
	"github.com/baharkarakas/blog-backend/internal/db"
	"github.com/baharkarakas/blog-backend/internal/logger"
	"github.com/baharkarakas/blog-backend/internal/metrics"
	"github.com/baharkarakas/blog-backend/internal/middleware"
	"github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/repository/memory"
	"github.com/baharkarakas/blog-backend/internal/repository/postgres"
	"github.com/baharkarakas/blog-backend/internal/services"
	"github.com/baharkarakas/blog-backend/internal/storage"
	"github.com/baharkarakas/blog-backend/internal/telemetry"
	"github.com/baharkarakas/blog-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpx.SetExposeErrors(!cfg.IsProd())
	metrics.Init()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:       cfg.OTelEnabled,
		ServiceName:   cfg.OTelServiceName,
		Environment:   cfg.Env,
		CollectorAddr: cfg.OTelCollectorAddr,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	var repos repository.Repositories
	switch cfg.StorageDriver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		repos = memory.New().Repositories()
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.OTelEnabled)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				return err
			}
			log.Info("migrations applied")
		}
		repos = postgres.NewRepositories(pool)
	}

	files, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		return err
	}
	jobs := worker.NewPool(4, 1024, 30*time.Second, log)
	defer jobs.Stop()

	tokens := auth.NewTokenManager(auth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL})
	authSvc, err := services.NewAuthService(repos.Users, repos.AuditLogs, auth.NewPasswordHasher(cfg.BcryptCost), tokens,
		services.AuthConfig{AdminEmails: cfg.AdminEmails}, log)
	if err != nil {
		return err
	}
	userSvc := services.NewUserService(repos.Users, repos.AuditLogs, log)
	postSvc := services.NewPostService(repos.Posts, repos.SavedPosts, repos.AuditLogs, files, jobs,
		services.PostConfig{PublicBaseURL: cfg.PublicBaseURL}, log)

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	handler := api.NewRouter(api.RouterDeps{
		Log:            log,
		Guard:          middleware.NewAuthMiddleware(tokens, repos.Users, log),
		Limiter:        limiter,
		Health:         repos.Health,
		AuthSvc:        authSvc,
		UserSvc:        userSvc,
		PostSvc:        postSvc,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      files.Dir(),
		UploadMaxBytes: cfg.UploadMaxBytes,
		RequestTimeout: cfg.RequestTimeout,
		Tracing:        cfg.OTelEnabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLimiter prefers Redis so replicas share one quota and falls back to the
// in-process bucket when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg config.Config, log *zap.Logger) (middleware.Limiter, func()) {
	noop := func() {}
	if cfg.RateLimitRequests <= 0 {
		log.Info("rate limiting disabled")
		return nil, noop
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := rdb.Ping(pctx).Err()
		if err == nil {
			log.Info("rate limiter using redis", zap.String("addr", cfg.RedisAddr))
			return middleware.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow), func() { _ = rdb.Close() }
		}
		log.Warn("redis unreachable, using in-process rate limiter", zap.Error(err))
		_ = rdb.Close()
	}
	return middleware.NewLocalLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow), noop
}
