package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mobiusengine/leads-engine/internal/database"
)

func main() {
	fmt.Println("Starting database setup...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	dbpool, err := database.ConnectDB(dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	store := database.NewPostgresLeadStore(context.Background(), dbpool)

	fmt.Println("Creating leads table...")
	if err := store.CreateLeadsTable(); err != nil {
		log.Fatalf("Error creating leads table: %v", err)
	}
	fmt.Println("leads table created successfully.")

	fmt.Println("Creating upload_history table...")
	if err := store.CreateUploadHistoryTable(); err != nil {
		log.Fatalf("Error creating upload_history table: %v", err)
	}
	fmt.Println("upload_history table created successfully.")

	fmt.Println("Database setup finished successfully.")
}
