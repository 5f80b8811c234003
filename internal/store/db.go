package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"recognition-pipeline/internal/model"
)

// Supported database drivers.
const (
	DriverSQLite3  = "sqlite3"  // mattn/go-sqlite3, cgo
	DriverSQLite   = "sqlite"   // modernc.org/sqlite, pure Go
	DriverPostgres = "postgres" // lib/pq
)

// Store persists tenant datasets, pipeline runs and upload jobs.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Open connects to the database and creates tables if they do not exist.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver != DriverPostgres {
		// a single connection keeps sqlite writes serialized
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database ready", zap.String("driver", driver))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	tables := []string{`
	CREATE TABLE IF NOT EXISTS datasets (
		tenant TEXT NOT NULL,
		record_type TEXT NOT NULL,
		header TEXT NOT NULL,
		body TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (tenant, record_type)
	);`, `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		name TEXT NOT NULL,
		taxonomy TEXT,
		batch TEXT,
		summary TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (tenant, name)
	);`, `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		record_type TEXT NOT NULL,
		status TEXT NOT NULL,
		metrics TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`, `
	CREATE TABLE IF NOT EXISTS job_errors (
		id ` + serial + `,
		job_id TEXT NOT NULL,
		stage TEXT,
		error_type TEXT,
		severity TEXT,
		line INTEGER,
		error_message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,
	}
	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// ------------------- Datasets -------------------

// SaveDataset replaces the persisted text of a tenant dataset.
func (s *Store) SaveDataset(ctx context.Context, tenant string, t model.RecordType, header []string, body string, rows int) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
		INSERT INTO datasets (tenant, record_type, header, body, row_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant, record_type) DO UPDATE SET
			header = excluded.header,
			body = excluded.body,
			row_count = excluded.row_count,
			updated_at = excluded.updated_at`,
		tenant, string(t), string(headerJSON), body, rows, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %s dataset for tenant %s: %w", t, tenant, err)
	}
	return nil
}

// LoadDataset returns the persisted text of a tenant dataset, or
// model.ErrNotFound.
func (s *Store) LoadDataset(ctx context.Context, tenant string, t model.RecordType) (string, error) {
	var body string
	err := s.queryRow(ctx, `SELECT body FROM datasets WHERE tenant = ? AND record_type = ?`, tenant, string(t)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load %s dataset for tenant %s: %w", t, tenant, err)
	}
	return body, nil
}

// ------------------- Runs -------------------

// SaveRun stores a run's documents under its name, replacing an earlier run
// of the same name. An ID is assigned when the run has none.
func (s *Store) SaveRun(ctx context.Context, tenant string, run *model.PipelineRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	taxonomy, err := marshalOptional(run.Taxonomy != nil, run.Taxonomy)
	if err != nil {
		return err
	}
	batch, err := marshalOptional(run.Batch != nil, run.Batch)
	if err != nil {
		return err
	}
	summary, err := marshalOptional(run.Summary != nil, run.Summary)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `
		INSERT INTO runs (id, tenant, name, taxonomy, batch, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant, name) DO UPDATE SET
			taxonomy = excluded.taxonomy,
			batch = excluded.batch,
			summary = excluded.summary`,
		run.ID, tenant, run.Name, taxonomy, batch, summary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save run %s for tenant %s: %w", run.Name, tenant, err)
	}
	// a replaced run keeps its original id
	return s.queryRow(ctx, `SELECT id FROM runs WHERE tenant = ? AND name = ?`, tenant, run.Name).Scan(&run.ID)
}

// GetRun loads a run by name, or returns model.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, tenant, name string) (model.PipelineRun, error) {
	var (
		run                      model.PipelineRun
		taxonomy, batch, summary sql.NullString
	)
	err := s.queryRow(ctx, `SELECT id, name, taxonomy, batch, summary FROM runs WHERE tenant = ? AND name = ?`, tenant, name).
		Scan(&run.ID, &run.Name, &taxonomy, &batch, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PipelineRun{}, fmt.Errorf("run %s: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return model.PipelineRun{}, fmt.Errorf("get run %s: %w", name, err)
	}

	if taxonomy.Valid {
		run.Taxonomy = &model.Taxonomy{}
		if err := json.Unmarshal([]byte(taxonomy.String), run.Taxonomy); err != nil {
			return model.PipelineRun{}, fmt.Errorf("decode taxonomy of run %s: %w", name, err)
		}
	}
	if batch.Valid {
		run.Batch = &model.ClassificationBatch{}
		if err := json.Unmarshal([]byte(batch.String), run.Batch); err != nil {
			return model.PipelineRun{}, fmt.Errorf("decode classifications of run %s: %w", name, err)
		}
	}
	if summary.Valid {
		run.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summary.String), run.Summary); err != nil {
			return model.PipelineRun{}, fmt.Errorf("decode summary of run %s: %w", name, err)
		}
	}
	return run, nil
}

// ListRuns returns a tenant's runs, oldest first.
func (s *Store) ListRuns(ctx context.Context, tenant string) ([]model.RunInfo, error) {
	rows, err := s.query(ctx, `SELECT id, name, created_at FROM runs WHERE tenant = ? ORDER BY created_at, name`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []model.RunInfo{}
	for rows.Next() {
		var r model.RunInfo
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func marshalOptional(present bool, v any) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ------------------- Jobs -------------------

// SaveJob stores a new upload job
func (s *Store) SaveJob(ctx context.Context, job model.UploadJob) error {
	metrics, err := json.Marshal(job.Metrics)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO jobs (id, tenant, record_type, status, metrics, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Tenant, string(job.RecordType), job.Status, string(metrics), job.CreatedAt.UTC(), job.UpdatedAt.UTC())
	return err
}

// UpdateJob updates job status and metrics
func (s *Store) UpdateJob(ctx context.Context, job model.UploadJob) error {
	metrics, err := json.Marshal(job.Metrics)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `UPDATE jobs SET status = ?, metrics = ?, updated_at = ? WHERE id = ?`,
		job.Status, string(metrics), time.Now().UTC(), job.ID)
	return err
}

// SaveJobError records an error for a job
func (s *Store) SaveJobError(ctx context.Context, jobID string, detail model.ErrorDetail) error {
	ts := detail.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.exec(ctx, `INSERT INTO job_errors (job_id, stage, error_type, severity, line, error_message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jobID, detail.Stage, detail.ErrorType, detail.Severity, detail.Line, detail.Message, ts.UTC())
	return err
}

// GetJob fetches a job with its metrics, or returns model.ErrNotFound.
func (s *Store) GetJob(ctx context.Context, jobID string) (model.UploadJob, error) {
	job, err := scanJob(s.queryRow(ctx, `SELECT id, tenant, record_type, status, metrics, created_at, updated_at FROM jobs WHERE id = ?`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UploadJob{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	return job, err
}

// ListJobs returns jobs newest first, optionally filtered by tenant.
func (s *Store) ListJobs(ctx context.Context, tenant string) ([]model.UploadJob, error) {
	q := `SELECT id, tenant, record_type, status, metrics, created_at, updated_at FROM jobs`
	var args []any
	if tenant != "" {
		q += ` WHERE tenant = ?`
		args = append(args, tenant)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []model.UploadJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetJobErrors retrieves all errors for a specific job
func (s *Store) GetJobErrors(ctx context.Context, jobID string) ([]model.ErrorDetail, error) {
	rows, err := s.query(ctx, `SELECT stage, error_type, severity, line, error_message, created_at FROM job_errors WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []model.ErrorDetail{}
	for rows.Next() {
		var (
			d                        model.ErrorDetail
			stage, errType, severity sql.NullString
			line                     sql.NullInt64
		)
		if err := rows.Scan(&stage, &errType, &severity, &line, &d.Message, &d.Timestamp); err != nil {
			return nil, err
		}
		d.Stage, d.ErrorType, d.Severity, d.Line = stage.String, errType.String, severity.String, int(line.Int64)
		details = append(details, d)
	}
	return details, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.UploadJob, error) {
	var (
		job        model.UploadJob
		recordType string
		metrics    sql.NullString
	)
	if err := row.Scan(&job.ID, &job.Tenant, &recordType, &job.Status, &metrics, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return model.UploadJob{}, err
	}
	job.RecordType = model.RecordType(recordType)
	if metrics.Valid && metrics.String != "" {
		if err := json.Unmarshal([]byte(metrics.String), &job.Metrics); err != nil {
			return model.UploadJob{}, fmt.Errorf("decode metrics of job %s: %w", job.ID, err)
		}
	}
	return job, nil
}
