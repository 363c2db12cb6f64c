package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	results TEXT NOT NULL,
	agent_report TEXT NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Insert never overwrites: an existing id reports domain.ErrSnapshotConflict.
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot domain.Snapshot) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO snapshots (id, query, created_at, results, agent_report)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, snapshot.ID, snapshot.Query, snapshot.Timestamp.UTC(), snapshot.Results, snapshot.AgentReport)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert snapshot rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSnapshotConflict, "insert snapshot", fmt.Errorf("id=%s", snapshot.ID))
	}
	return nil
}

func (r *SnapshotRepository) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, query, created_at, results, agent_report
FROM snapshots
WHERE id = $1
`, id)

	var snapshot domain.Snapshot
	err := row.Scan(&snapshot.ID, &snapshot.Query, &snapshot.Timestamp, &snapshot.Results, &snapshot.AgentReport)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSnapshotNotFound, "get snapshot", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snapshot.Timestamp = snapshot.Timestamp.UTC()
	return &snapshot, nil
}
