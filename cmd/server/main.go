package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/config"
	"github.com/milvoyage/tdy-engine/internal/estimator"
	httpadapter "github.com/milvoyage/tdy-engine/internal/interfaces/http"
	"github.com/milvoyage/tdy-engine/internal/rates"
	"github.com/milvoyage/tdy-engine/internal/receipt"
	"github.com/milvoyage/tdy-engine/internal/repository"
	"github.com/milvoyage/tdy-engine/pkg/database"
	"github.com/milvoyage/tdy-engine/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting TDY travel expense engine",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	tripRepo := repository.NewTripRepository(db.DB, logger)
	itemRepo := repository.NewItemRepository(db.DB, logger)
	spanRepo := repository.NewSpanRepository(db, logger)
	rateCache := repository.NewRateCacheRepository(db.DB, logger)

	authority := rates.NewAuthorityClient(rates.AuthorityConfig{
		BaseURL: cfg.Rates.AuthorityBaseURL,
		APIKey:  cfg.Rates.AuthorityAPIKey,
		Timeout: cfg.Rates.AuthorityTimeout,
	}, logger)

	resolver := rates.NewResolver(rateCache, authority, rates.Config{
		FallbackMIECents:     cfg.Rates.FallbackMIECents,
		FallbackLodgingCents: cfg.Rates.FallbackLodgingCents,
		CacheTTL:             cfg.Rates.CacheTTL,
	}, logger)

	normalizer := receipt.NewNormalizer(logger)
	extractor := receipt.NewTextExtractor(logger)
	estimateService := estimator.NewService(tripRepo, itemRepo, spanRepo, resolver, logger)

	handlers := httpadapter.NewHandlers(
		tripRepo,
		itemRepo,
		normalizer,
		extractor,
		estimateService,
		cfg.Travel.MileageRateCents,
		logger,
	)

	srv := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
