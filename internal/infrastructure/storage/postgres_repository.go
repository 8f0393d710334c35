package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

// PostgresRepository persists run history into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveRun inserts one completed run record.
func (r *PostgresRepository) SaveRun(ctx context.Context, rec domain.RunRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("runs").
		Columns("id", "started_at", "time_filter", "model", "boards", "post_count", "analysis_path", "status").
		Values(rec.ID, rec.StartedAt, rec.TimeFilter, rec.Model, pq.StringArray(rec.Boards), rec.PostCount, rec.AnalysisPath, rec.Status).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *PostgresRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select("id", "started_at", "time_filter", "model", "boards", "post_count", "analysis_path", "status").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var records []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var boards pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.TimeFilter, &rec.Model, &boards, &rec.PostCount, &rec.AnalysisPath, &rec.Status); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Boards = []string(boards)
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}

// EnsureSchema creates the runs table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	query := `CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        started_at TIMESTAMPTZ NOT NULL,
        time_filter TEXT NOT NULL,
        model TEXT NOT NULL,
        boards TEXT[] NOT NULL DEFAULT '{}',
        post_count INT NOT NULL DEFAULT 0,
        analysis_path TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL DEFAULT ''
    )`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
