package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/mobiusengine/leads-engine/internal/config"
	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/dedupe"
	"github.com/mobiusengine/leads-engine/internal/ingestion"
	"github.com/mobiusengine/leads-engine/internal/reconcile"
	"github.com/mobiusengine/leads-engine/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	store := database.NewPostgresLeadStore(context.Background(), dbpool)
	engine := reconcile.NewEngine(store)
	deduper := dedupe.NewDeduper(store)
	ingestionService := ingestion.NewService(store, engine, deduper)

	leadService := server.NewLeadService(store, cfg.LeadsPageSize)
	uploadService := server.NewUploadService(store, ingestionService, deduper, cfg.RecentUploadsLimit)

	router := server.SetupRoutes(leadService, uploadService)

	log.Printf("Server starting on port %s", cfg.APIPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
