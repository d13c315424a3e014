// Command estimate computes one trip's reimbursement estimate from the
// command line and optionally writes the Excel ledger workbook. It is an
// operator tool; the HTTP server is the normal interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/config"
	"github.com/milvoyage/tdy-engine/internal/estimator"
	"github.com/milvoyage/tdy-engine/internal/export"
	"github.com/milvoyage/tdy-engine/internal/money"
	"github.com/milvoyage/tdy-engine/internal/rates"
	"github.com/milvoyage/tdy-engine/internal/repository"
	"github.com/milvoyage/tdy-engine/pkg/database"
	"github.com/milvoyage/tdy-engine/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config file")
		tripID     = flag.String("trip", "", "trip id to estimate")
		userID     = flag.String("user", "", "owning user id")
		xlsxPath   = flag.String("xlsx", "", "optional path to write the Excel ledger")
	)
	flag.Parse()

	if *tripID == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: estimate -trip <id> -user <id> [-xlsx out.xlsx]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
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

	service := estimator.NewService(tripRepo, itemRepo, spanRepo, resolver, logger)

	ctx := context.Background()
	totals, err := service.EstimateTrip(ctx, *tripID, *userID)
	if err != nil {
		logger.Fatal("Estimate failed", zap.String("trip_id", *tripID), zap.Error(err))
	}

	fmt.Printf("M&IE total:      %s\n", money.FormatCents(totals.MIETotalCents))
	fmt.Printf("Lodging allowed: %s\n", money.FormatCents(totals.LodgingAllowedCents))
	fmt.Printf("Mileage total:   %s\n", money.FormatCents(totals.MileageTotalCents))
	fmt.Printf("Misc total:      %s\n", money.FormatCents(totals.MiscTotalCents))
	fmt.Printf("Grand total:     %s\n", money.FormatCents(totals.GrandTotalCents))

	if *xlsxPath != "" {
		trip, err := tripRepo.GetByIDAndUser(ctx, *tripID, *userID)
		if err != nil || trip == nil {
			logger.Fatal("Failed to reload trip for export", zap.Error(err))
		}
		writer := export.NewLedgerWriter(logger)
		if err := writer.Write(trip, totals, *xlsxPath); err != nil {
			logger.Fatal("Failed to write workbook", zap.Error(err))
		}
		fmt.Printf("Ledger written to %s\n", *xlsxPath)
	}
}
