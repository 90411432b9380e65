package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/internal/parties"
	"github.com/smartwish/kiosk-backend/internal/settlement"
	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db"
	"github.com/smartwish/kiosk-backend/pkg/logger"
	"github.com/smartwish/kiosk-backend/pkg/migrate"
	"github.com/smartwish/kiosk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	partyResolver, err := parties.NewResolver(parties.NewRepository(dbClient.DB()), cfg.Settlement.DefaultManagerRate())
	if err != nil {
		logg.Error(context.Background(), "failed to create party resolver", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Ledger:     ledgerRepo,
		Resolver:   partyResolver,
		Calculator: settlement.NewCalculator(cfg.Settlement.CardFeePercent(), cfg.Settlement.CardFeeFixed()),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	triggerService, err := trigger.NewService(trigger.ServiceParams{
		Jobs:       trigger.NewRepository(dbClient.DB()),
		Ledger:     ledgerRepo,
		Settlement: settlementService,
		Tx:         dbClient,
		Claims:     redisClient,
		ClaimTTL:   cfg.Settlement.ClaimTTL,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger service", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		Trigger: triggerService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"batch_size": cfg.Worker.BatchSize,
	})
	logg.Info(ctx, "starting settlement worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "worker shut down gracefully")
}
