package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"foodloop/internal/config"
	"foodloop/internal/http/handlers"
	"foodloop/internal/identity"
	applog "foodloop/internal/log"
	"foodloop/internal/repos"
	"foodloop/internal/services"
)

var (
	seedOnlyFlag   = flag.Bool("seed-only", false, "Insert demo data and exit")
	expireOnlyFlag = flag.Bool("expire-only", false, "Mark listings past their expiry as expired and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	if cfg.SeedDemo || *seedOnlyFlag {
		if err := repos.SeedDemo(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
		applog.Info(nil, "db.seed", nil)
	}
	if *seedOnlyFlag {
		return
	}
	if *expireOnlyFlag {
		n, err := services.NewListingService(db, cfg.TxTimeout, nil).ExpireStale(ctx)
		if err != nil {
			log.Fatalf("expire: %v", err)
		}
		applog.Info(nil, "listings.expire", map[string]any{"expired": n})
		return
	}

	verifier, err := identity.New(cfg.Auth)
	if err != nil {
		log.Fatal(err)
	}
	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, verifier))

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "driver": db.DriverName()})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
