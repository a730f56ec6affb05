package ingestion

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/models"
	"github.com/mobiusengine/leads-engine/internal/parser"
	"github.com/mobiusengine/leads-engine/pkg/checksum"
)

// FileProcessor feeds CSV files from disk into the ingestion service. Files
// whose checksum already appears in the ledger with a successful run are
// skipped, so re-running the importer over the same folder is harmless.
type FileProcessor struct {
	store   database.LeadStore
	service *Service
}

func NewFileProcessor(store database.LeadStore, service *Service) *FileProcessor {
	return &FileProcessor{
		store:   store,
		service: service,
	}
}

// ScanForFiles walks a directory and returns the paths of all CSV files.
func (fp *FileProcessor) ScanForFiles(rootPath string) ([]string, error) {
	var paths []string
	log.Printf("Scanning for CSV files in: %s", rootPath)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	log.Printf("Found %d CSV files to process.", len(paths))
	return paths, nil
}

// ProcessFile ingests one CSV file. It returns a nil record when the file
// was skipped because an identical file already went through successfully.
func (fp *FileProcessor) ProcessFile(path string) (*models.UploadRecord, error) {
	sum, err := checksum.GetFileChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for %s: %w", path, err)
	}

	alreadyUploaded, err := fp.store.IsFileAlreadyUploaded(sum)
	if err != nil {
		return nil, fmt.Errorf("failed to check upload history for %s: %w", path, err)
	}
	if alreadyUploaded {
		log.Printf("File %s (checksum: %s) has already been ingested. Skipping.", path, sum)
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := parser.ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	record, _, err := fp.service.Ingest(filepath.Base(path), sum, rows)
	return record, err
}
