package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/santacasa-ti/plantao-board/internal/models"
)

const recordColumns = `id, date, building, sector, outgoing, incoming, reason, notes, created_by, edited_by, created_at, updated_at`

// replaceLockKey is the advisory lock key guarding the full-replace cycle.
// Two concurrent syncs must never interleave their delete/insert phases
const replaceLockKey = 7_420_011

func scanRecord(row pgx.Row) (models.ChangeRecord, error) {
	var r models.ChangeRecord
	err := row.Scan(
		&r.ID, &r.Date, &r.Building, &r.Sector, &r.Outgoing, &r.Incoming,
		&r.Reason, &r.Notes, &r.CreatedBy, &r.EditedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (s *PostgresStore) listRecords(ctx context.Context, query string, args ...any) ([]models.ChangeRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change records: %w", err)
	}
	defer rows.Close()

	var records []models.ChangeRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListRecords returns every record on the board, newest first. Rows inserted
// by the same sync share a timestamp, so id breaks the tie in source order
func (s *PostgresStore) ListRecords(ctx context.Context) ([]models.ChangeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM change_records ORDER BY created_at DESC, id ASC`, recordColumns)
	return s.listRecords(ctx, query)
}

// ListRecordsByCreator returns the records an operator created, newest first
func (s *PostgresStore) ListRecordsByCreator(ctx context.Context, username string) ([]models.ChangeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM change_records WHERE created_by = $1 ORDER BY created_at DESC, id ASC`, recordColumns)
	return s.listRecords(ctx, query, username)
}

func (s *PostgresStore) GetRecord(ctx context.Context, id int64) (models.ChangeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM change_records WHERE id = $1`, recordColumns)
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ChangeRecord{}, fmt.Errorf("change record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.ChangeRecord{}, fmt.Errorf("failed to get change record: %w", err)
	}
	return r, nil
}

// InsertRecord persists a new record. createdBy may be empty for
// spreadsheet-sourced rows. Reason is always re-derived from Outgoing
func (s *PostgresStore) InsertRecord(ctx context.Context, r models.ChangeRecord, createdBy string) (int64, error) {
	query := `
		INSERT INTO change_records (date, building, sector, outgoing, incoming, reason, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		r.Date, r.Building, r.Sector, r.Outgoing, r.Incoming,
		models.DeriveReason(r.Outgoing), r.Notes, createdBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert change record: %w", err)
	}
	return id, nil
}

// buildPatch translates a RecordPatch into SET clauses with positional
// placeholders starting at $1. created_by is never part of the output
func buildPatch(patch models.RecordPatch, editedBy string) (clauses []string, args []any) {
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Building != nil {
		add("building", *patch.Building)
	}
	if patch.Sector != nil {
		add("sector", *patch.Sector)
	}
	if patch.Outgoing != nil {
		add("outgoing", *patch.Outgoing)
		add("reason", models.DeriveReason(*patch.Outgoing))
	}
	if patch.Incoming != nil {
		add("incoming", *patch.Incoming)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if editedBy != "" {
		add("edited_by", editedBy)
	}
	clauses = append(clauses, "updated_at = now()")
	return clauses, args
}

// UpdateRecord applies a partial update without ownership checks. This is
// the administrator surface
func (s *PostgresStore) UpdateRecord(ctx context.Context, id int64, patch models.RecordPatch, editedBy string) error {
	clauses, args := buildPatch(patch, editedBy)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE change_records SET %s WHERE id = $%d`, strings.Join(clauses, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update change record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("change record %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM change_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete change record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("change record %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateOwnedRecord applies a partial update only if the record was created
// by the given operator. The WHERE clause carries the ownership check so the
// verify and the write cannot race
func (s *PostgresStore) UpdateOwnedRecord(ctx context.Context, id int64, username string, patch models.RecordPatch) error {
	clauses, args := buildPatch(patch, username)
	args = append(args, id, username)
	query := fmt.Sprintf(`UPDATE change_records SET %s WHERE id = $%d AND created_by = $%d`,
		strings.Join(clauses, ", "), len(args)-1, len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update owned change record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyOwnershipMiss(ctx, id)
	}
	return nil
}

// DeleteOwnedRecord deletes a record only if the operator created it
func (s *PostgresStore) DeleteOwnedRecord(ctx context.Context, id int64, username string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM change_records WHERE id = $1 AND created_by = $2`, id, username)
	if err != nil {
		return fmt.Errorf("failed to delete owned change record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyOwnershipMiss(ctx, id)
	}
	return nil
}

// classifyOwnershipMiss tells a missing record apart from a record owned by
// someone else after a zero-row owned mutation
func (s *PostgresStore) classifyOwnershipMiss(ctx context.Context, id int64) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM change_records WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check change record ownership: %w", err)
	}
	if !exists {
		return fmt.Errorf("change record %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("change record %d: %w", id, ErrPermissionDenied)
}

// ReplaceAll swaps the entire board for the given set in one transaction.
// Readers observe either the old set or the new one, never a mix, and the
// advisory lock serializes overlapping replace cycles across instances
func (s *PostgresStore) ReplaceAll(ctx context.Context, records []models.ChangeRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, replaceLockKey); err != nil {
		return fmt.Errorf("failed to take replace lock: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM change_records`); err != nil {
		return fmt.Errorf("failed to clear change records: %w", err)
	}

	query := `
		INSERT INTO change_records (date, building, sector, outgoing, incoming, reason, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '')
	`
	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.Date, r.Building, r.Sector, r.Outgoing, r.Incoming,
			models.DeriveReason(r.Outgoing), r.Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert replacement record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replace transaction: %w", err)
	}
	return nil
}
