package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/routes"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.InitLogger(cfg.LogLevel, !cfg.IsProduction())
	log.Info().Str("env", cfg.GoEnv).Msg("Starting StichUP API server")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database migration completed successfully")

	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_ADDR not set: OTPs are kept in memory and rate limiting is disabled")
	}
	otpStore := services.InitOTPStore(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initImageStorage(ctx, cfg)

	if cfg.RabbitMQURL != "" {
		publisher, err := services.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer publisher.Close()
		services.SetEventPublisher(publisher)
		log.Info().Str("exchange", cfg.EventsExchange).Msg("Publishing job events to RabbitMQ")
	}

	if cfg.SeedAdminPhone != "" && cfg.SeedAdminPassword != "" {
		admin, err := services.NewAuthService(config.GetDB(), cfg).EnsureAdmin(ctx, cfg.SeedAdminPhone, cfg.SeedAdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed administrator")
		}
		log.Info().Uint("user_id", admin.ID).Msg("Administrator account ready")
	}

	if cfg.ReconcileInterval > 0 {
		go services.NewTailorService(config.GetDB()).RunReconciler(ctx, cfg.ReconcileInterval)
	}
	if mem, ok := otpStore.(*services.MemoryOTPStore); ok {
		go sweepOTPs(ctx, mem, cfg.OTPTTL)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.Setup(cfg, rdb),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
		os.Exit(1)
	}
}

// initImageStorage stores job photos in S3 when a bucket is configured, local disk otherwise
func initImageStorage(ctx context.Context, cfg *config.Config) {
	if !cfg.S3Enabled() {
		utils.UploadDir = cfg.UploadDir
		services.InitImageService(nil, cfg.UploadDir)
		log.Info().Str("dir", cfg.UploadDir).Msg("Storing uploads on local disk")
		return
	}

	bucket, err := services.NewS3Bucket(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 bucket")
	}
	services.InitImageService(bucket, "")
	log.Info().Str("bucket", cfg.AWSS3Bucket).Msg("Storing uploads in S3")
}

func sweepOTPs(ctx context.Context, store *services.MemoryOTPStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept expired OTPs")
			}
		}
	}
}
