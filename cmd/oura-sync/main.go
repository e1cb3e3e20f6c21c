package main

import (
	"flag"
	"log"
	"time"

	"github.com/mischavandenburg/health-api/internal/config"
	"github.com/mischavandenburg/health-api/internal/database"
	"github.com/mischavandenburg/health-api/internal/ingest"
	"github.com/mischavandenburg/health-api/internal/oura"
	"github.com/mischavandenburg/health-api/internal/store"
)

func main() {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")

	startDate := flag.String("start-date", yesterday, "first calendar date to fetch (YYYY-MM-DD)")
	endDate := flag.String("end-date", today, "last calendar date to fetch (YYYY-MM-DD)")
	heartRate := flag.Bool("heart-rate", true, "also sync heart-rate samples")
	flag.Parse()

	cfg := config.Load()
	if cfg.OuraToken == "" {
		log.Fatal("OURA_TOKEN is not set")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	client := oura.NewHTTPClient(cfg.OuraBaseURL, cfg.OuraToken)
	service := ingest.NewService(store.New(db))

	count, err := service.SyncSleep(client, *startDate, *endDate)
	if err != nil {
		log.Fatalf("Sleep sync failed: %v", err)
	}
	log.Printf("Synced %d sleep sessions for %s..%s", count, *startDate, *endDate)

	if *heartRate {
		count, err := service.SyncHeartRate(client, *startDate, *endDate)
		if err != nil {
			log.Fatalf("Heart-rate sync failed: %v", err)
		}
		log.Printf("Synced %d heart-rate samples for %s..%s", count, *startDate, *endDate)
	}
}
