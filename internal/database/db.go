package database

import (
	"time"

	"github.com/mobiusengine/leads-engine/internal/models"
)

const (
	UPLOAD_STATUS_PROCESSING = "processing"
	UPLOAD_STATUS_SUCCESS    = "success"
	UPLOAD_STATUS_PARTIAL    = "partial"
	UPLOAD_STATUS_FAILED     = "failed"
)

// LeadStore is the persistence surface the engine works against. The
// Postgres implementation enforces the profile_url uniqueness constraint
// and serializes MergeLead per key with a row lock; everything policy-shaped
// (merge rules, survivor selection) stays in the engine packages.
type LeadStore interface {
	CreateLeadsTable() error
	CreateUploadHistoryTable() error

	InsertLead(lead *models.Lead) (int, error)
	MergeLead(candidate *models.Lead, merge func(existing, incoming *models.Lead) *models.Lead) (bool, error)
	ListLeads(limit, offset int) ([]models.Lead, error)
	CountLeads() (int, error)
	UpdateLeadHook(id int, hook string) error
	GetStats() (*models.Stats, error)

	InsertUploadRecord(filename string, checksum string, uploadedAt time.Time, status string) (int, error)
	FinalizeUploadRecord(id int, inserted, updated, failed int, status string, errorMessage string) error
	ListRecentUploads(limit int) ([]models.UploadRecord, error)
	IsFileAlreadyUploaded(checksum string) (bool, error)

	ListDuplicateLeads() ([]models.Lead, error)
	ApplyDedupe(survivors []*models.Lead, deleteIDs []int) error
}
