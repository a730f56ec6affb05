package models

import (
	"time"
)

// Lead is a single contact record. Leads are keyed by ProfileURL, which is
// the only field used for duplicate matching.
type Lead struct {
	ID              int        `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Headline        string     `json:"headline"`
	Location        string     `json:"location"`
	CurrentTitle    string     `json:"current_title"`
	CurrentCompany  string     `json:"current_company"`
	EmailAddress    string     `json:"email_address"`
	PhoneNumber     string     `json:"phone_number"`
	ProfileURL      string     `json:"profile_url"`
	ActiveProject   string     `json:"active_project"`
	Notes           string     `json:"notes"`
	Feedback        string     `json:"feedback"`
	Hook            string     `json:"hook"`
	HookGeneratedAt *time.Time `json:"hook_generated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RawRow is one decoded CSV row, keyed by the file's own header names.
type RawRow map[string]string

// UploadRecord is the ledger entry for one ingestion run. It is opened when
// the run starts and finalized exactly once when the run completes; the
// ledger exposes no other mutation.
type UploadRecord struct {
	ID           int       `json:"id"`
	Filename     string    `json:"filename"`
	Checksum     string    `json:"checksum,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
	RowsInserted int       `json:"rows_inserted"`
	RowsUpdated  int       `json:"rows_updated"`
	RowsFailed   int       `json:"rows_failed"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// TotalRows returns the number of rows the run accounted for.
func (u *UploadRecord) TotalRows() int {
	return u.RowsInserted + u.RowsUpdated + u.RowsFailed
}

// DedupeResult reports the outcome of one global deduplication pass.
type DedupeResult struct {
	DuplicateGroupsFound int `json:"duplicate_groups_found"`
	RecordsRemoved       int `json:"records_removed"`
}

// Stats holds the dashboard counters.
type Stats struct {
	TotalLeads     int `json:"total_leads"`
	TotalUploads   int `json:"total_uploads"`
	TotalCompanies int `json:"total_companies"`
}
