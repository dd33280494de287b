/**
 * PostgreSQL record store for the mailroom worker.
 *
 * Reads the tenant roster and the curated known-sender list, writes mail
 * logs and resolution job state. The resolution core never touches this
 * package; only the queue consumer does, passing read snapshots inward.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/postnoti/mailroom-worker/internal/logging"
	"github.com/postnoti/mailroom-worker/internal/resolve"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db  *sql.DB
	log *logging.Logger
}

// MailLog is one registered (or pending-review) mail item.
type MailLog struct {
	ID         string
	CompanyID  string
	ProfileID  string
	MailType   resolve.MailCategory
	Sender     string
	OCRContent string
	ImageURL   string
	Status     string
}

// JobUpdate represents a resolution job status update.
type JobUpdate struct {
	JobID            string
	Status           string
	Category         resolve.MailCategory
	Sender           string
	MatchedProfileID string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:  db,
		log: logging.NewLogger("storage"),
	}, nil
}

// ProfilesByCompany loads the tenant roster snapshot for one branch. Entries
// with an empty name are skipped at ingestion rather than allowed to skew
// match scores; inactive tenants are kept so the operator sees a move-out
// warning instead of a silent mismatch.
func (p *PostgresClient) ProfilesByCompany(ctx context.Context, companyID string) ([]resolve.TenantProfile, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company ID is required")
	}

	query := `
		SELECT
			id,
			company_id,
			name,
			COALESCE(company_name, ''),
			COALESCE(room_number, ''),
			COALESCE(phone, ''),
			is_active,
			COALESCE(is_premium, false),
			COALESCE(push_token, '')
		FROM profiles
		WHERE company_id = $1 AND role = 'tenant'
		ORDER BY name
	`

	rows, err := p.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var roster []resolve.TenantProfile
	for rows.Next() {
		var t resolve.TenantProfile
		if err := rows.Scan(
			&t.ID, &t.CompanyID, &t.Name, &t.CompanyName, &t.RoomNumber,
			&t.Phone, &t.IsActive, &t.IsPremium, &t.PushToken,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		if t.Name == "" {
			p.log.Warn("skipping roster entry with empty name", "profileId", t.ID)
			continue
		}
		roster = append(roster, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return roster, nil
}

// KnownSenders loads the operator-curated sender keyword list.
func (p *PostgresClient) KnownSenders(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM known_senders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan known sender: %w", err)
		}
		if name != "" {
			senders = append(senders, name)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate known senders: %w", err)
	}

	return senders, nil
}

// CompanyName resolves a branch display name for notification composition.
func (p *PostgresClient) CompanyName(ctx context.Context, companyID string) (string, error) {
	var name string
	err := p.db.QueryRowContext(ctx, `SELECT name FROM companies WHERE id = $1`, companyID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("company not found: %s", companyID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get company: %w", err)
	}
	return name, nil
}

// InsertMailLog writes one mail item for operator review and history.
func (p *PostgresClient) InsertMailLog(ctx context.Context, m *MailLog) (string, error) {
	if m.CompanyID == "" {
		return "", fmt.Errorf("company ID is required")
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = "pending_review"
	}

	query := `
		INSERT INTO mail_logs (
			id, company_id, profile_id, mail_type, sender,
			ocr_content, image_url, status, created_at
		) VALUES (
			$1::uuid, $2::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, NOW()
		)
		RETURNING id
	`

	var returnedID string
	err := p.db.QueryRowContext(
		ctx, query,
		m.ID, m.CompanyID, m.ProfileID, string(m.MailType),
		m.Sender, m.OCRContent, m.ImageURL, m.Status,
	).Scan(&returnedID)

	if err != nil {
		return "", fmt.Errorf("failed to insert mail log (company=%s, profile=%s): %w",
			m.CompanyID, m.ProfileID, err)
	}

	return returnedID, nil
}

// UpdateJobStatus upserts resolution job state. The worker may observe a job
// before the enqueueing API created its row, so the first update creates it.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO resolution_jobs (
			id, status, category, sender, matched_profile_id,
			error_message, metadata, created_at, updated_at
		) VALUES (
			$1::uuid, $2, NULLIF($3, ''), NULLIF($4, ''),
			NULLIF($5, '')::uuid, NULLIF($6, ''),
			COALESCE($7::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			category = COALESCE(EXCLUDED.category, resolution_jobs.category),
			sender = COALESCE(EXCLUDED.sender, resolution_jobs.sender),
			matched_profile_id = COALESCE(EXCLUDED.matched_profile_id, resolution_jobs.matched_profile_id),
			error_message = EXCLUDED.error_message,
			metadata = COALESCE(EXCLUDED.metadata, resolution_jobs.metadata),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx, query,
		update.JobID, update.Status, string(update.Category),
		update.Sender, update.MatchedProfileID, update.ErrorMessage,
		metadataJSON,
	).Scan(&returnedID)

	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}

	return nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
