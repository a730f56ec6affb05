package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mobiusengine/leads-engine/internal/database"
	"github.com/mobiusengine/leads-engine/internal/models"
	"github.com/mobiusengine/leads-engine/internal/reconcile"
)

func writeTempCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestFileProcessor_ScanForFiles(t *testing.T) {
	t.Run("Expect: only CSV files to be picked up, including nested ones", func(t *testing.T) {
		dir := t.TempDir()
		writeTempCSV(t, dir, "a.csv", "Profile URL\n")
		writeTempCSV(t, dir, "b.CSV", "Profile URL\n")
		writeTempCSV(t, dir, "notes.txt", "not a csv")

		nested := filepath.Join(dir, "nested")
		assert.NoError(t, os.Mkdir(nested, 0755))
		writeTempCSV(t, nested, "c.csv", "Profile URL\n")

		processor := NewFileProcessor(new(MockLeadStore), nil)
		paths, err := processor.ScanForFiles(dir)

		assert.NoError(t, err)
		assert.Len(t, paths, 3)
	})

	t.Run("Expect: an error for a missing directory", func(t *testing.T) {
		processor := NewFileProcessor(new(MockLeadStore), nil)
		_, err := processor.ScanForFiles(filepath.Join(t.TempDir(), "does-not-exist"))

		assert.Error(t, err)
	})
}

func TestFileProcessor_ProcessFile(t *testing.T) {
	const csvContent = "Profile URL,Current Company\nhttps://www.linkedin.com/in/janedoe,Acme\n"

	t.Run("Expect: a fresh file to be ingested as one batch", func(t *testing.T) {
		store := new(MockLeadStore)
		engine := new(MockReconciler)
		deduper := new(MockDeduper)

		store.On("IsFileAlreadyUploaded", mock.AnythingOfType("string")).Return(false, nil).Once()
		store.On("InsertUploadRecord", "leads.csv", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), database.UPLOAD_STATUS_PROCESSING).Return(1, nil).Once()
		engine.On("Reconcile", mock.AnythingOfType("*models.Lead")).Return(reconcile.OutcomeInserted, nil).Once()
		store.On("FinalizeUploadRecord", 1, 1, 0, 0, database.UPLOAD_STATUS_SUCCESS, "").Return(nil).Once()
		deduper.On("Run").Return(&models.DedupeResult{}, nil).Once()

		processor := NewFileProcessor(store, NewService(store, engine, deduper))
		path := writeTempCSV(t, t.TempDir(), "leads.csv", csvContent)

		record, err := processor.ProcessFile(path)

		assert.NoError(t, err)
		assert.Equal(t, 1, record.RowsInserted)
		assert.Equal(t, database.UPLOAD_STATUS_SUCCESS, record.Status)
		store.AssertExpectations(t)
		engine.AssertExpectations(t)
	})

	t.Run("Expect: an already ingested file to be skipped", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("IsFileAlreadyUploaded", mock.AnythingOfType("string")).Return(true, nil).Once()

		processor := NewFileProcessor(store, nil)
		path := writeTempCSV(t, t.TempDir(), "leads.csv", csvContent)

		record, err := processor.ProcessFile(path)

		assert.NoError(t, err)
		assert.Nil(t, record)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "InsertUploadRecord")
	})

	t.Run("Expect: a history check failure to be returned", func(t *testing.T) {
		store := new(MockLeadStore)
		store.On("IsFileAlreadyUploaded", mock.AnythingOfType("string")).Return(false, errors.New("connection reset")).Once()

		processor := NewFileProcessor(store, nil)
		path := writeTempCSV(t, t.TempDir(), "leads.csv", csvContent)

		_, err := processor.ProcessFile(path)

		assert.Error(t, err)
	})

	t.Run("Expect: an error for a missing file", func(t *testing.T) {
		processor := NewFileProcessor(new(MockLeadStore), nil)

		_, err := processor.ProcessFile(filepath.Join(t.TempDir(), "missing.csv"))

		assert.Error(t, err)
	})
}
