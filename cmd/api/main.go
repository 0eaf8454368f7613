package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/brainqy/alumni-api/internal/config"
	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/gamification"
	"github.com/brainqy/alumni-api/internal/domain/promocode"
	"github.com/brainqy/alumni-api/internal/domain/realtime"
	"github.com/brainqy/alumni-api/internal/domain/user"
	"github.com/brainqy/alumni-api/internal/domain/wallet"
	"github.com/brainqy/alumni-api/internal/pkg/database"
	"github.com/brainqy/alumni-api/internal/pkg/imaging"
	"github.com/brainqy/alumni-api/internal/pkg/jwt"
	"github.com/brainqy/alumni-api/internal/pkg/logger"
	"github.com/brainqy/alumni-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Alumni API")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited properly")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer database.CloseRedis(redisClient)

	iconStore, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	hub := realtime.NewHub(redisClient)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	gamificationRepo := gamification.NewRepository(db, userRepo, activityRepo)
	promoRepo := promocode.NewRepository(db, userRepo, activityRepo)

	// ---------- Services ----------
	activityService := activity.NewService(activityRepo, hub)
	walletService := wallet.NewService(walletRepo, cfg.WalletStartingBalance)
	gamificationService := gamification.NewService(gamificationRepo, activityService, hub, iconStore, imaging.NewIconProcessor(imaging.DefaultIconSize))
	promoService := promocode.NewService(promoRepo, userRepo, gamificationService, activityService, cfg.FlashCoinTTL)

	// ---------- Handlers ----------
	h := handlers{
		wallet:       wallet.NewHandler(walletService),
		promo:        promocode.NewHandler(promoService, promocode.NewRateLimiter(redisClient, cfg.RedeemRateLimit, cfg.RedeemRateWindow)),
		gamification: gamification.NewHandler(gamificationService),
		activity:     activity.NewHandler(activityService),
		realtime:     realtime.NewHandler(hub, jwtService, cfg.AllowedOrigins),
	}

	routerCfg := routerConfig{AllowedOrigins: cfg.AllowedOrigins}
	if !cfg.UseS3() {
		routerCfg.UploadsDir = cfg.LocalStoragePath
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(routerCfg, jwtService, h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newStorage picks S3 when a bucket is configured, local disk otherwise.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.UseS3() {
		s3, err := storage.NewS3Storage(ctx, storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Badge icons stored in S3")
		return s3, nil
	}

	local, err := storage.NewLocalStorage(cfg.LocalStoragePath, cfg.LocalStorageURL)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.LocalStoragePath).Msg("Badge icons stored on local disk")
	return local, nil
}
