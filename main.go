// @title Scout CRM API
// @version 1.0
// @description Backend server for the soccer scouting CRM.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"scout_crm_backend/internal/app"
	"scout_crm_backend/internal/config"
	"scout_crm_backend/pkg/configwatcher"
	"scout_crm_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "force migrations on startup even in release mode")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("database migration finished, exiting")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if updated, ok := newCfg.(*config.Config); ok {
			logger.Log.Info("config file reloaded; connection settings take effect on restart")
			cfg.Import.DailyLimit = updated.Import.DailyLimit
			cfg.RateLimit = updated.RateLimit
		}
	})

	application.Run()
}
