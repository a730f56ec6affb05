package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL        string
	APIPort            string
	NumFileWorkers     int
	LeadsPageSize      int
	RecentUploadsLimit int
}

func New() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:        databaseURL,
		APIPort:            "8080",
		NumFileWorkers:     4,
		LeadsPageSize:      50,
		RecentUploadsLimit: 10,
	}

	if port := os.Getenv("API_PORT"); port != "" {
		cfg.APIPort = port
	}

	var err error
	cfg.NumFileWorkers, err = getEnvAsPositiveInt("NUM_FILE_WORKERS", cfg.NumFileWorkers)
	if err != nil {
		return nil, err
	}

	cfg.LeadsPageSize, err = getEnvAsPositiveInt("LEADS_PAGE_SIZE", cfg.LeadsPageSize)
	if err != nil {
		return nil, err
	}

	cfg.RecentUploadsLimit, err = getEnvAsPositiveInt("RECENT_UPLOADS_LIMIT", cfg.RecentUploadsLimit)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsPositiveInt(key string, defaultValue int) (int, error) {
	value, err := getEnvAsInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	if value < 1 {
		return 0, fmt.Errorf("invalid value for %s: expected a positive integer, got %d", key, value)
	}

	return value, nil
}
