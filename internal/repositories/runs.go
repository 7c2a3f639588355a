package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kelarin/rosync/internal/models"
	"github.com/kelarin/rosync/internal/shared"
)

// SyncRunRepository implements [models.Repository] for [models.SyncRun]
// persistence. Runs are append-mostly; history rows are hard-deleted.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new [SyncRunRepository] with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a run into the database with a generated sequence. A run
// that already carries an ID (the engine's run ID) keeps it; otherwise one
// is generated.
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	run.SetSequence(sequence)

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, sequence, started_at, finished_at,
			rows_total, skipped, created, updated, failed, exported,
			mail_sent, dry_run, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(), run.Sequence(), run.StartedAt, run.FinishedAt,
		run.RowsTotal, run.Skipped, run.Created, run.Updated, run.Failed, run.Exported,
		run.MailSent, run.DryRun, run.Error, run.CreatedAt(), run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, started_at, finished_at,
			rows_total, skipped, created, updated, failed, exported,
			mail_sent, dry_run, error, created_at, updated_at
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sync run %s", shared.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}

	return run, nil
}

// Update modifies an existing run in the database
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET started_at = ?, finished_at = ?,
			rows_total = ?, skipped = ?, created = ?, updated = ?, failed = ?, exported = ?,
			mail_sent = ?, dry_run = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.StartedAt, run.FinishedAt,
		run.RowsTotal, run.Skipped, run.Created, run.Updated, run.Failed, run.Exported,
		run.MailSent, run.DryRun, run.Error, now, run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync run %s", shared.ErrRecordNotFound, run.ID())
	}

	return nil
}

// Delete removes a run from history
func (r *SyncRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sync_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync run %s", shared.ErrRecordNotFound, id)
	}

	return nil
}

// List retrieves runs matching the given criteria, most recent first.
// Supported criteria: "limit" (int), "dry_run" (bool).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, started_at, finished_at,
			rows_total, skipped, created, updated, failed, exported,
			mail_sent, dry_run, error, created_at, updated_at
		FROM sync_runs
	`

	args := []any{}

	if dryRun, ok := criteria["dry_run"].(bool); ok {
		query += " WHERE dry_run = ?"
		args = append(args, dryRun)
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}

	return runs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var (
		id        string
		sequence  int
		createdAt time.Time
		updatedAt time.Time
		errText   sql.NullString
	)

	run := &models.SyncRun{}
	err := s.Scan(&id, &sequence, &run.StartedAt, &run.FinishedAt,
		&run.RowsTotal, &run.Skipped, &run.Created, &run.Updated, &run.Failed, &run.Exported,
		&run.MailSent, &run.DryRun, &errText, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if errText.Valid {
		run.Error = errText.String
	}

	return run, nil
}
