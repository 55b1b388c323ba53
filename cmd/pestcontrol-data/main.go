package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/auth"
	"github.com/leonelpereyra44/pestcontrol/internal/config"
	"github.com/leonelpereyra44/pestcontrol/internal/database"
	"github.com/leonelpereyra44/pestcontrol/internal/draft"
	httpapi "github.com/leonelpereyra44/pestcontrol/internal/http"
	"github.com/leonelpereyra44/pestcontrol/internal/logger"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"
	"github.com/leonelpereyra44/pestcontrol/internal/service"
	"github.com/leonelpereyra44/pestcontrol/internal/signature"
	"github.com/leonelpereyra44/pestcontrol/internal/storage"
	"github.com/leonelpereyra44/pestcontrol/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pestcontrol-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// remote tables; memory repos keep the API usable without a database
	var (
		db       *sql.DB
		controls repository.ControlsRepository
		catalog  repository.CatalogRepository
		workers  repository.WorkersRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for pestcontrol-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		controls = repository.NewPostgresControlsRepository(db, log)
		pg := repository.NewPostgresCatalogRepository(db)
		catalog, workers = pg, pg
	} else {
		controls = repository.NewMemoryControlsRepo()
		mem := repository.NewMemoryCatalogRepo()
		catalog, workers = mem, mem
	}

	// signed-URL cache
	var (
		redisClient *redis.Client
		cache       store.KV
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Warn("Redis unreachable, signed URLs will not be cached", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			cache = store.NewRedisKV(redisClient, "pestcontrol:")
		}
	}

	var signatures *signature.Resolver
	if cfg.Storage.URL != "" {
		objects := storage.NewClient(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.RemoteTimeout, log)
		signatures = signature.NewResolver(objects, cache, cfg.Storage.SignatureBucket, cfg.Storage.SignedURLTTL, log)
	} else {
		log.Warn("SUPABASE_URL not set, signature lookup disabled")
	}

	drafts := draft.NewStore(cfg.DraftDBPath, log)
	if err := drafts.Init(ctx); err != nil {
		log.Fatal("Failed to open draft store", zap.String("path", cfg.DraftDBPath), zap.Error(err))
	}

	controlService := service.NewControlService(controls, cfg.RemoteTimeout, log)
	if signatures != nil {
		controlService.UseSignatures(signatures)
	}
	draftService := service.NewDraftService(drafts, controlService, log)
	catalogService := service.NewCatalogService(catalog, cfg.RemoteTimeout, log)

	var validator *auth.Validator
	if cfg.Auth.Enabled {
		validator = auth.NewValidator(cfg.Auth.JWTSecret)
	} else {
		log.Warn("Auth disabled, trusting X-User-Id header")
	}
	authn := httpapi.NewAuthenticator(validator, auth.NewProfileResolver(workers, cfg.RemoteTimeout, log), log)

	api := httpapi.API{
		Catalog:  httpapi.NewCatalogHandler(catalogService, log),
		Controls: httpapi.NewControlsHandler(controlService, log),
		Drafts:   httpapi.NewDraftsHandler(draftService, log),
	}
	if signatures != nil {
		api.Sello = httpapi.NewSelloHandler(signatures, log)
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAPIRoutes(authn, api)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = drafts.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
