package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const recordColumns = `id, owner_id, owner_display_name, subject, status, reason, proof_url, proof_name, created_at`

// Repository persists attendance records in SQLite or Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts rec and returns it with the id assigned by the database.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var proofURL, proofName sql.NullString
	if rec.Proof != nil {
		proofURL = sql.NullString{String: rec.Proof.URL, Valid: true}
		proofName = sql.NullString{String: rec.Proof.Name, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (owner_id, owner_display_name, subject, status, reason, proof_url, proof_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, rec.OwnerID, rec.OwnerDisplayName, rec.Subject, string(rec.Status), nullString(rec.Reason), proofURL, proofName, rec.CreatedAt)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindOwned returns the record with id if ownerID owns it, or nil when there is no such record.
func (r *Repository) FindOwned(ctx context.Context, id int64, ownerID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	return scanOne(row)
}

// Get returns a record regardless of owner. Only background processing uses it.
func (r *Repository) Get(ctx context.Context, id int64) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id)
	return scanOne(row)
}

// UpdateProof replaces the proof of a record owned by ownerID. It reports false when no row matched.
func (r *Repository) UpdateProof(ctx context.Context, id int64, ownerID string, proof Proof) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET proof_url = $1, proof_name = $2
		WHERE id = $3 AND owner_id = $4
	`, proof.URL, proof.Name, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListRecentByOwner returns up to limit records of ownerID, newest first.
func (r *Repository) ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// SaveProofArchive records a durable copy of a proof.
func (r *Repository) SaveProofArchive(ctx context.Context, a ProofArchive) (ProofArchive, error) {
	if a.ArchivedAt.IsZero() {
		a.ArchivedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO proof_archives (record_id, source_url, archive_url, public_id, archived_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.RecordID, a.SourceURL, a.ArchiveURL, a.PublicID, a.ArchivedAt)
	if err := row.Scan(&a.ID); err != nil {
		return ProofArchive{}, err
	}
	return a, nil
}

// ProofArchives lists archived copies for a record, oldest first.
func (r *Repository) ProofArchives(ctx context.Context, recordID int64) ([]ProofArchive, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, source_url, archive_url, public_id, archived_at
		FROM proof_archives WHERE record_id = $1
		ORDER BY id
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ProofArchive
	for rows.Next() {
		var a ProofArchive
		if err := rows.Scan(&a.ID, &a.RecordID, &a.SourceURL, &a.ArchiveURL, &a.PublicID, &a.ArchivedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec                       Record
		status                    string
		reason, proofURL, proofNm sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.OwnerID, &rec.OwnerDisplayName, &rec.Subject, &status, &reason, &proofURL, &proofNm, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	if reason.Valid {
		rec.Reason = &reason.String
	}
	if proofURL.Valid && proofNm.Valid {
		rec.Proof = &Proof{URL: proofURL.String, Name: proofNm.String}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
