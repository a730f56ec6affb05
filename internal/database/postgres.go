package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mobiusengine/leads-engine/internal/models"
)

// Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	return dbpool, nil
}

type PostgresLeadStore struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresLeadStore(ctx context.Context, pool *pgxpool.Pool) *PostgresLeadStore {
	return &PostgresLeadStore{dbpool: pool, ctx: ctx}
}

func (m *PostgresLeadStore) CreateLeadsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS leads (
		id SERIAL PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		headline TEXT NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		current_title TEXT NOT NULL DEFAULT '',
		current_company VARCHAR(255) NOT NULL DEFAULT '',
		email_address VARCHAR(255) NOT NULL DEFAULT '',
		phone_number VARCHAR(50) NOT NULL DEFAULT '',
		profile_url TEXT NOT NULL UNIQUE,
		active_project VARCHAR(255) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT '',
		hook TEXT NOT NULL DEFAULT '',
		hook_generated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at DESC);`

	_, err := m.dbpool.Exec(m.ctx, query)
	if err != nil {
		return fmt.Errorf("error creating leads table: %v", err)
	}

	return nil
}

func (m *PostgresLeadStore) CreateUploadHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS upload_history (
		id SERIAL PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		checksum VARCHAR(64),
		uploaded_at TIMESTAMP NOT NULL,
		rows_inserted INTEGER NOT NULL DEFAULT 0,
		rows_updated INTEGER NOT NULL DEFAULT 0,
		rows_failed INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(50) NOT NULL CHECK (status IN ('processing', 'success', 'partial', 'failed')),
		error_message TEXT
	);`

	_, err := m.dbpool.Exec(m.ctx, query)
	if err != nil {
		return fmt.Errorf("error creating upload_history table: %v", err)
	}

	return nil
}

const leadColumns = `id, first_name, last_name, headline, location, current_title, current_company,
	email_address, phone_number, profile_url, active_project, notes, feedback,
	hook, hook_generated_at, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Headline, &lead.Location,
		&lead.CurrentTitle, &lead.CurrentCompany, &lead.EmailAddress, &lead.PhoneNumber,
		&lead.ProfileURL, &lead.ActiveProject, &lead.Notes, &lead.Feedback,
		&lead.Hook, &lead.HookGeneratedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// InsertLead inserts a new lead. A uniqueness race on profile_url is
// reported as *models.ConflictError so the caller can retry as a merge.
func (m *PostgresLeadStore) InsertLead(lead *models.Lead) (int, error) {
	query := `
	INSERT INTO leads (
		first_name, last_name, headline, location, current_title, current_company,
		email_address, phone_number, profile_url, active_project, notes, feedback
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, created_at, updated_at;`

	err := m.dbpool.QueryRow(m.ctx, query,
		lead.FirstName, lead.LastName, lead.Headline, lead.Location,
		lead.CurrentTitle, lead.CurrentCompany, lead.EmailAddress, lead.PhoneNumber,
		lead.ProfileURL, lead.ActiveProject, lead.Notes, lead.Feedback,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, &models.ConflictError{ProfileURL: lead.ProfileURL, Err: err}
		}
		return 0, fmt.Errorf("error inserting lead: %v", err)
	}

	return lead.ID, nil
}

// MergeLead merges the candidate into the stored lead holding the same
// profile URL, if one exists. The row is read under FOR UPDATE and rewritten
// within the same transaction, so two writers merging the same key serialize
// instead of clobbering each other's fields. Returns false when no lead
// holds the candidate's profile URL. The hook columns are deliberately not
// written here; reconciliation never touches enrichment data.
func (m *PostgresLeadStore) MergeLead(candidate *models.Lead, merge func(existing, incoming *models.Lead) *models.Lead) (bool, error) {
	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return false, fmt.Errorf("error beginning transaction: %v", err)
	}
	defer func() {
		rx := tx.Rollback(m.ctx)
		if rx != nil && rx != pgx.ErrTxClosed {
			log.Printf("Error rolling back transaction: %v", rx)
		}
	}()

	query := fmt.Sprintf(`SELECT %s FROM leads WHERE profile_url = $1 FOR UPDATE;`, leadColumns)

	existing, err := scanLead(tx.QueryRow(m.ctx, query, candidate.ProfileURL))
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error locking lead by profile URL: %v", err)
	}

	merged := merge(existing, candidate)

	updateQuery := `
	UPDATE leads
	SET first_name = $1,
		last_name = $2,
		headline = $3,
		location = $4,
		current_title = $5,
		current_company = $6,
		email_address = $7,
		phone_number = $8,
		active_project = $9,
		notes = $10,
		feedback = $11,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = $12;`

	_, err = tx.Exec(m.ctx, updateQuery,
		merged.FirstName, merged.LastName, merged.Headline, merged.Location,
		merged.CurrentTitle, merged.CurrentCompany, merged.EmailAddress, merged.PhoneNumber,
		merged.ActiveProject, merged.Notes, merged.Feedback, merged.ID,
	)
	if err != nil {
		return false, fmt.Errorf("error updating lead %d: %v", merged.ID, err)
	}

	if err := tx.Commit(m.ctx); err != nil {
		return false, fmt.Errorf("error committing merge transaction: %v", err)
	}

	return true, nil
}

func (m *PostgresLeadStore) ListLeads(limit, offset int) ([]models.Lead, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM leads
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2;`, leadColumns)

	rows, err := m.dbpool.Query(m.ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing leads: %v", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lead: %v", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over leads: %v", err)
	}

	return leads, nil
}

func (m *PostgresLeadStore) CountLeads() (int, error) {
	var count int
	err := m.dbpool.QueryRow(m.ctx, `SELECT COUNT(*) FROM leads;`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting leads: %v", err)
	}

	return count, nil
}

// UpdateLeadHook stores enrichment output for one lead. This is the only
// write path for the hook columns.
func (m *PostgresLeadStore) UpdateLeadHook(id int, hook string) error {
	query := `
	UPDATE leads
	SET hook = $1,
		hook_generated_at = CURRENT_TIMESTAMP,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = $2;`

	tag, err := m.dbpool.Exec(m.ctx, query, hook, id)
	if err != nil {
		return fmt.Errorf("error updating hook for lead %d: %v", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead %d not found", id)
	}

	return nil
}

func (m *PostgresLeadStore) GetStats() (*models.Stats, error) {
	query := `
	SELECT
		(SELECT COUNT(*) FROM leads) AS total_leads,
		(SELECT COUNT(*) FROM upload_history) AS total_uploads,
		(SELECT COUNT(DISTINCT current_company) FROM leads WHERE current_company != '') AS total_companies;`

	stats := &models.Stats{}
	err := m.dbpool.QueryRow(m.ctx, query).Scan(&stats.TotalLeads, &stats.TotalUploads, &stats.TotalCompanies)
	if err != nil {
		return nil, fmt.Errorf("error querying stats: %v", err)
	}

	return stats, nil
}

func (m *PostgresLeadStore) InsertUploadRecord(filename string, checksum string, uploadedAt time.Time, status string) (int, error) {
	query := `
	INSERT INTO upload_history (filename, checksum, uploaded_at, status)
	VALUES ($1, $2, $3, $4)
	RETURNING id;`

	var uploadID int
	err := m.dbpool.QueryRow(m.ctx, query, filename, checksum, uploadedAt, status).Scan(&uploadID)
	if err != nil {
		return 0, fmt.Errorf("error inserting upload record: %v", err)
	}

	return uploadID, nil
}

func (m *PostgresLeadStore) FinalizeUploadRecord(id int, inserted, updated, failed int, status string, errorMessage string) error {
	query := `
	UPDATE upload_history
	SET rows_inserted = $1,
		rows_updated = $2,
		rows_failed = $3,
		status = $4,
		error_message = NULLIF($5, '')
	WHERE id = $6;`

	_, err := m.dbpool.Exec(m.ctx, query, inserted, updated, failed, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("error finalizing upload record %d: %v", id, err)
	}

	return nil
}

func (m *PostgresLeadStore) ListRecentUploads(limit int) ([]models.UploadRecord, error) {
	query := `
	SELECT id, filename, COALESCE(checksum, ''), uploaded_at, rows_inserted, rows_updated, rows_failed, status, COALESCE(error_message, '')
	FROM upload_history
	ORDER BY uploaded_at DESC, id DESC
	LIMIT $1;`

	rows, err := m.dbpool.Query(m.ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing recent uploads: %v", err)
	}
	defer rows.Close()

	var uploads []models.UploadRecord
	for rows.Next() {
		var u models.UploadRecord
		if err := rows.Scan(&u.ID, &u.Filename, &u.Checksum, &u.UploadedAt, &u.RowsInserted, &u.RowsUpdated, &u.RowsFailed, &u.Status, &u.ErrorMessage); err != nil {
			return nil, fmt.Errorf("error scanning upload record: %v", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over upload records: %v", err)
	}

	return uploads, nil
}

func (m *PostgresLeadStore) IsFileAlreadyUploaded(checksum string) (bool, error) {
	query := `
	SELECT id
	FROM upload_history
	WHERE checksum = $1 AND status = 'success'
	LIMIT 1;`

	var id int

	err := m.dbpool.QueryRow(m.ctx, query, checksum).Scan(&id)

	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding upload record by checksum: %v", err)
	}

	return true, nil
}

// ListDuplicateLeads returns every lead whose profile_url occurs more than
// once, ordered by profile_url, then creation time, then id. The dedupe pass
// relies on this ordering to pick survivors, so it must stay stable.
func (m *PostgresLeadStore) ListDuplicateLeads() ([]models.Lead, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM leads
	WHERE profile_url IN (
		SELECT profile_url FROM leads
		WHERE profile_url != ''
		GROUP BY profile_url
		HAVING COUNT(*) > 1
	)
	ORDER BY profile_url, created_at, id;`, leadColumns)

	rows, err := m.dbpool.Query(m.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing duplicate leads: %v", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning duplicate lead: %v", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over duplicate leads: %v", err)
	}

	return leads, nil
}

// ApplyDedupe commits the outcome of a dedupe pass in a single transaction:
// survivor field updates plus deletion of every non-survivor. Either the
// whole pass lands or none of it does.
func (m *PostgresLeadStore) ApplyDedupe(survivors []*models.Lead, deleteIDs []int) error {
	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %v", err)
	}
	defer func() {
		rx := tx.Rollback(m.ctx)
		if rx != nil && rx != pgx.ErrTxClosed {
			log.Printf("Error rolling back transaction: %v", rx)
		}
	}()

	updateQuery := `
	UPDATE leads
	SET email_address = $1,
		phone_number = $2,
		notes = $3,
		feedback = $4,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = $5;`

	for _, survivor := range survivors {
		_, err := tx.Exec(m.ctx, updateQuery,
			survivor.EmailAddress, survivor.PhoneNumber, survivor.Notes, survivor.Feedback, survivor.ID)
		if err != nil {
			return fmt.Errorf("error updating dedupe survivor %d: %v", survivor.ID, err)
		}
	}

	if len(deleteIDs) > 0 {
		ids := make([]int32, len(deleteIDs))
		for i, id := range deleteIDs {
			ids[i] = int32(id)
		}
		_, err := tx.Exec(m.ctx, `DELETE FROM leads WHERE id = ANY($1);`, ids)
		if err != nil {
			return fmt.Errorf("error deleting duplicate leads: %v", err)
		}
	}

	if err := tx.Commit(m.ctx); err != nil {
		return fmt.Errorf("error committing dedupe transaction: %v", err)
	}

	return nil
}
