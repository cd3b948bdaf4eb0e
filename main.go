package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/internal/client"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handler"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/service"
)

// store는 Postgres와 Memory가 공통으로 제공하는 메서드 집합
type store interface {
	service.CredentialStore
	service.RelationStore
	service.MediaRefStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Server)
	slog.SetDefault(log)
	if !cfg.Server.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	authService, err := service.NewAuthService(repo, cfg.Auth, cfg.Server.IsLocal(), log, m)
	if err != nil {
		return err
	}
	if notifier := client.NewSlackNotifier(cfg.Notify); notifier.IsConfigured() {
		authService.SetNotifier(notifier)
	}
	relationService := service.NewRelationService(repo, log, m)

	// 오브젝트 스토리지가 설정되지 않으면 이미지 업로드 라우트는 비활성화
	var mediaService *service.MediaService
	if cfg.Storage.Endpoint != "" || cfg.Storage.AccessKey != "" {
		storage, err := client.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		mediaService = service.NewMediaService(repo, storage, log, m)
	} else {
		log.Warn("object storage not configured, media routes disabled")
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:            authService,
		Relations:       relationService,
		Media:           mediaService,
		Metrics:         m,
		Log:             log,
		CORSOrigins:     cfg.Server.AllowedOrigins(),
		CORSCredentials: cfg.Server.CORSCredentials,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// DB 설정이 없으면 메모리 저장소로 기동 (로컬 개발용)
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store, func(), error) {
	if cfg.Postgres.DatabaseURL == "" && cfg.Postgres.User == "" {
		if !cfg.Server.IsLocal() {
			return nil, nil, errors.New("DATABASE_URL or PGUSER is required outside local environments")
		}
		log.Warn("no database configured, using in-memory store")
		return db.NewMemory(), func() {}, nil
	}

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	pg := &db.Postgres{Pool: pool}
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
