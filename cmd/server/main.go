package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mischavandenburg/health-api/internal/config"
	"github.com/mischavandenburg/health-api/internal/database"
	"github.com/mischavandenburg/health-api/internal/handlers"
	"github.com/mischavandenburg/health-api/internal/ingest"
	"github.com/mischavandenburg/health-api/internal/store"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	service := ingest.NewService(store.New(db))
	handler := handlers.New(service)

	router := gin.Default()
	handler.RegisterRoutes(router)

	listenAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting health export server on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
