// Package records stores and reads the encrypted per-image results.
package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
)

// recordColumns is the column list read by scanRecord.
// rowid is used rather than id so tables created before the id column existed still read.
const recordColumns = `rowid, COALESCE(run_id, ''), timestamp, encrypted, entropy_score`

// DefaultListLimit applies when List is called with a non-positive limit
const DefaultListLimit = 50

// Repository handles database operations on the logs table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new records repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "records").Logger(),
	}
}

// Append inserts one record with a single INSERT and returns its row id.
// The ledger profile makes the row durable before Append returns.
func (r *Repository) Append(ctx context.Context, runID string, rec domain.EncryptedRecord) (int64, error) {
	const op = "append record"

	if !rec.Complete() {
		return 0, domain.Errorf(domain.KindPersistence, op, "incomplete record")
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (run_id, timestamp, encrypted, entropy_score) VALUES (?, ?, ?, ?)`,
		nullString(runID),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Ciphertext,
		rec.Entropy,
	)
	if err != nil {
		return 0, domain.Wrap(domain.KindPersistence, op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.Wrap(domain.KindPersistence, op, err)
	}
	r.log.Debug().
		Int64("id", id).
		Str("run_id", runID).
		Int("ciphertext_len", len(rec.Ciphertext)).
		Float64("entropy_score", rec.Entropy).
		Msg("Record appended")

	return id, nil
}

// List returns the newest records first, at most limit of them
func (r *Repository) List(ctx context.Context, limit int) ([]domain.EncryptedRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := "SELECT " + recordColumns + " FROM logs ORDER BY rowid DESC LIMIT ?"
	return r.query(ctx, query, limit)
}

// ListByRun returns every record written by one run, in insertion order
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]domain.EncryptedRecord, error) {
	query := "SELECT " + recordColumns + " FROM logs WHERE run_id = ? ORDER BY rowid ASC"
	return r.query(ctx, query, runID)
}

// All returns every record in insertion order
func (r *Repository) All(ctx context.Context) ([]domain.EncryptedRecord, error) {
	return r.query(ctx, "SELECT "+recordColumns+" FROM logs ORDER BY rowid ASC")
}

// Count returns the number of stored records
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logs").Scan(&n); err != nil {
		return 0, domain.Wrap(domain.KindPersistence, "count records", err)
	}
	return n, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]domain.EncryptedRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "query records", err)
	}
	defer rows.Close()

	var out []domain.EncryptedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "query records", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (domain.EncryptedRecord, error) {
	var (
		rec domain.EncryptedRecord
		ts  string
	)
	if err := rows.Scan(&rec.ID, &rec.RunID, &ts, &rec.Ciphertext, &rec.Entropy); err != nil {
		return rec, domain.Wrap(domain.KindPersistence, "scan record", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		// Rows written by other tools may use a looser ISO-8601 form
		parsed, err = time.Parse("2006-01-02T15:04:05.999999", ts)
		if err != nil {
			return rec, domain.Wrap(domain.KindPersistence, "scan record", fmt.Errorf("bad timestamp %q: %w", ts, err))
		}
	}
	rec.Timestamp = parsed
	return rec, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ domain.RecordSink = (*Repository)(nil)
