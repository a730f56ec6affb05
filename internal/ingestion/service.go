package ingestion

import (
	"fmt"
	"log"
	"time"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/models"
	"github.com/mobiusengine/leads-engine/internal/reconcile"
)

// Reconciler decides insert vs. merge-update for one candidate lead.
type Reconciler interface {
	Reconcile(candidate *models.Lead) (reconcile.Outcome, error)
}

// DedupeRunner is the global deduplication pass triggered after each batch.
type DedupeRunner interface {
	Run() (*models.DedupeResult, error)
}

// Service drives one batch of raw rows through normalization and
// reconciliation and records the outcome in the upload ledger.
type Service struct {
	store   database.LeadStore
	engine  Reconciler
	deduper DedupeRunner
}

func NewService(store database.LeadStore, engine Reconciler, deduper DedupeRunner) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		deduper: deduper,
	}
}

// Ingest processes a batch of rows under the given source filename. A ledger
// entry is opened before any row is touched and finalized exactly once with
// the final counts, even if the row loop panics (then as failed); a row's
// failure never aborts the batch. If the ledger
// entry cannot even be opened, ingestion fails wholesale and no summary is
// produced. After finalization a dedupe pass runs; its failure is logged
// but never retro-fails the already finalized batch.
func (s *Service) Ingest(filename string, checksum string, rows []models.RawRow) (record *models.UploadRecord, dedupeResult *models.DedupeResult, err error) {
	record = &models.UploadRecord{
		Filename:   filename,
		Checksum:   checksum,
		UploadedAt: time.Now(),
		Status:     database.UPLOAD_STATUS_PROCESSING,
	}

	uploadID, err := s.store.InsertUploadRecord(filename, checksum, record.UploadedAt, record.Status)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open upload record for %s: %w", filename, err)
	}
	record.ID = uploadID

	// The ledger row must not be left stuck at processing: if anything in
	// the row loop panics, finalize here as failed — exactly once.
	finalized := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("ingestion of %s aborted: %v", filename, r)
		dedupeResult = nil
		if finalized {
			return
		}
		record.Status = database.UPLOAD_STATUS_FAILED
		record.ErrorMessage = fmt.Sprintf("internal error: %v", r)
		if ferr := s.store.FinalizeUploadRecord(uploadID, record.RowsInserted, record.RowsUpdated, record.RowsFailed, record.Status, record.ErrorMessage); ferr != nil {
			log.Printf("Unable to finalize upload record %d after internal error: %v", uploadID, ferr)
		}
	}()

	var firstError string
	for _, row := range rows {
		outcome, err := s.ingestRow(row)
		if err != nil {
			record.RowsFailed++
			if firstError == "" {
				firstError = err.Error()
			}
			continue
		}

		switch outcome {
		case reconcile.OutcomeInserted:
			record.RowsInserted++
		case reconcile.OutcomeUpdated:
			record.RowsUpdated++
		}
	}

	record.Status = batchStatus(record)
	record.ErrorMessage = firstError

	finalized = true
	if err := s.store.FinalizeUploadRecord(uploadID, record.RowsInserted, record.RowsUpdated, record.RowsFailed, record.Status, firstError); err != nil {
		return record, nil, fmt.Errorf("unable to finalize upload record %d: %w", uploadID, err)
	}

	log.Printf("Ingested %s: %d inserted, %d updated, %d failed (%s)",
		filename, record.RowsInserted, record.RowsUpdated, record.RowsFailed, record.Status)

	if s.deduper != nil {
		result, derr := s.deduper.Run()
		if derr != nil {
			log.Printf("Post-ingestion dedupe pass failed: %v", derr)
		} else {
			dedupeResult = result
		}
	}

	return record, dedupeResult, nil
}

func (s *Service) ingestRow(row models.RawRow) (reconcile.Outcome, error) {
	candidate, err := reconcile.NormalizeRow(row)
	if err != nil {
		return "", err
	}

	return s.engine.Reconcile(candidate)
}

func batchStatus(record *models.UploadRecord) string {
	total := record.TotalRows()
	switch {
	case record.RowsFailed == 0:
		return database.UPLOAD_STATUS_SUCCESS
	case record.RowsFailed < total:
		return database.UPLOAD_STATUS_PARTIAL
	default:
		return database.UPLOAD_STATUS_FAILED
	}
}
