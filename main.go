package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shataev/wanna-track-api/internal/config"
	"github.com/shataev/wanna-track-api/internal/database"
	appLogger "github.com/shataev/wanna-track-api/internal/logger"
	"github.com/shataev/wanna-track-api/internal/ledger"
	"github.com/shataev/wanna-track-api/internal/rates"
	"github.com/shataev/wanna-track-api/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	log := appLogger.New(cfg.Log)

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// exchange rate store with its upstream client
	client := rates.NewClient(cfg.Exchange.BaseURL, cfg.Exchange.APIKey,
		time.Duration(cfg.Exchange.TimeoutSeconds)*time.Second, log)
	rateStore, err := rates.NewStore(db, client, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init rate store")
	}

	l := ledger.New(db, rateStore, log)

	// scheduled refresh; the store itself owns no timer. A failed run
	// keeps the previous snapshot and is only logged.
	refreshSpec := cfg.Exchange.RefreshCron
	if refreshSpec == "" {
		refreshSpec = "0 1 * * *" // daily at 01:00
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(refreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := rateStore.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled rate refresh failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule rate refresh")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// setup router
	r := router.SetupRouter(cfg, db, rateStore, l)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("run server")
	}
}
