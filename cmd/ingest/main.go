package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mobiusengine/leads-engine/internal/config"
	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/dedupe"
	"github.com/mobiusengine/leads-engine/internal/ingestion"
	"github.com/mobiusengine/leads-engine/internal/reconcile"
)

func setup() (string, *ingestion.FileWorkerPool, *ingestion.FileProcessor, func(), error) {
	if len(os.Args) < 2 {
		return "", nil, nil, nil, fmt.Errorf("please provide the folder path as a command-line argument")
	}
	filesPath := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		return "", nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return "", nil, nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	store := database.NewPostgresLeadStore(context.Background(), dbpool)
	engine := reconcile.NewEngine(store)
	deduper := dedupe.NewDeduper(store)
	service := ingestion.NewService(store, engine, deduper)
	processor := ingestion.NewFileProcessor(store, service)
	pool := ingestion.NewFileWorkerPool(processor, cfg.NumFileWorkers)

	cleanupFunc := func() {
		dbpool.Close()
	}

	return filesPath, pool, processor, cleanupFunc, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()

	filesPath, pool, processor, cleanupFunc, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanupFunc()

	paths, err := processor.ScanForFiles(filesPath)
	if err != nil {
		log.Fatalf("Failed to scan files: %v", err)
	}
	if len(paths) == 0 {
		log.Println("No CSV files found. Nothing to do.")
		return
	}

	records := pool.ProcessAll(paths)

	var inserted, updated, failed int
	for _, record := range records {
		inserted += record.RowsInserted
		updated += record.RowsUpdated
		failed += record.RowsFailed
	}

	log.Printf("Ingested %d files (%d skipped or failed): %d rows inserted, %d updated, %d failed",
		len(records), len(paths)-len(records), inserted, updated, failed)
	log.Printf("Execution time: %s", time.Since(startTime))
}
