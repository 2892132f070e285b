package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
	"github.com/slok/apkjob/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.JobRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.JobRepository = &Repository{}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const selectJobColumns = `
	SELECT
		id, job_id, filename, size_bytes,
		mode, server_url,
		status, message, output_filename, upload_url,
		submitted_at, updated_at
	FROM jobs
`

// CreateJob stores a new job record.
func (r *Repository) CreateJob(ctx context.Context, rec model.JobRecord) error {
	if rec.JobID == "" {
		return fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO jobs (
			id, job_id, filename, size_bytes,
			mode, server_url,
			status, message, output_filename, upload_url,
			submitted_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.JobID,
		rec.Filename,
		rec.SizeBytes,
		rec.Mode,
		rec.ServerURL,
		string(rec.Status),
		rec.Message,
		rec.OutputFilename,
		rec.UploadURL,
		rec.SubmittedAt.Unix(),
		rec.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: jobs.") {
			return fmt.Errorf("job already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert job: %w", err)
	}

	r.logger.Debugf("Created job in repository: %s", rec.JobID)
	return nil
}

// GetJob retrieves a job record by the server job ID.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*model.JobRecord, error) {
	row := r.db.QueryRowContext(ctx, selectJobColumns+` WHERE job_id = ?`, jobID)
	rec, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query job: %w", err)
	}

	return &rec, nil
}

// ListJobs returns the job records, newest first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]model.JobRecord, error) {
	query := selectJobColumns + ` ORDER BY submitted_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query jobs: %w", err)
	}
	defer rows.Close()

	var recs []model.JobRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return recs, nil
}

// UpdateJob updates an existing job record.
func (r *Repository) UpdateJob(ctx context.Context, rec model.JobRecord) error {
	query := `
		UPDATE jobs
		SET
			filename = ?,
			size_bytes = ?,
			mode = ?,
			server_url = ?,
			status = ?,
			message = ?,
			output_filename = ?,
			upload_url = ?,
			submitted_at = ?,
			updated_at = ?
		WHERE job_id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		rec.Filename,
		rec.SizeBytes,
		rec.Mode,
		rec.ServerURL,
		string(rec.Status),
		rec.Message,
		rec.OutputFilename,
		rec.UploadURL,
		rec.SubmittedAt.Unix(),
		rec.UpdatedAt.Unix(),
		rec.JobID,
	)
	if err != nil {
		return fmt.Errorf("could not update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", rec.JobID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated job in repository: %s", rec.JobID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.JobRecord, error) {
	var rec model.JobRecord
	var status string
	var submittedAt, updatedAt int64

	err := s.Scan(
		&rec.ID,
		&rec.JobID,
		&rec.Filename,
		&rec.SizeBytes,
		&rec.Mode,
		&rec.ServerURL,
		&status,
		&rec.Message,
		&rec.OutputFilename,
		&rec.UploadURL,
		&submittedAt,
		&updatedAt,
	)
	if err != nil {
		return model.JobRecord{}, err
	}

	rec.Status = model.JobStatusKind(status)
	rec.SubmittedAt = timeFromUnix(submittedAt)
	rec.UpdatedAt = timeFromUnix(updatedAt)

	return rec, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
