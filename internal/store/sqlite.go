package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS remediation_runs (
	id                    TEXT PRIMARY KEY,
	mode                  TEXT NOT NULL,
	site_limit            INTEGER NOT NULL,
	processed             INTEGER NOT NULL DEFAULT 0,
	relocated             INTEGER NOT NULL DEFAULT 0,
	skipped_not_flagged   INTEGER NOT NULL DEFAULT 0,
	skipped_no_substitute INTEGER NOT NULL DEFAULT 0,
	failed_clean          INTEGER NOT NULL DEFAULT 0,
	partial_relocations   INTEGER NOT NULL DEFAULT 0,
	outcomes              TEXT NOT NULL,
	started_at            DATETIME NOT NULL,
	finished_at           DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_remediation_runs_mode ON remediation_runs(mode);
CREATE INDEX IF NOT EXISTS idx_remediation_runs_started_at ON remediation_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run == nil || run.ID == "" {
		return eris.New("sqlite: run id is required")
	}
	summary := run.Summary
	if summary == nil {
		summary = &model.Summary{}
	}

	outcomesJSON, err := json.Marshal(summary.Outcomes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal outcomes")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO remediation_runs
		(id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.Limit,
		summary.Processed, summary.Relocated, summary.SkippedNotFlagged,
		summary.SkippedNoSubstitute, summary.FailedClean, summary.PartialRelocations,
		string(outcomesJSON), run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at
		FROM remediation_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: run %s not found", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at
	FROM remediation_runs WHERE 1=1`
	var args []any

	if filter.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(filter.Mode))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var (
		run          model.Run
		summary      model.Summary
		mode         string
		outcomesJSON string
		startedAt    time.Time
		finishedAt   time.Time
	)
	err := row.Scan(
		&run.ID, &mode, &run.Limit,
		&summary.Processed, &summary.Relocated, &summary.SkippedNotFlagged,
		&summary.SkippedNoSubstitute, &summary.FailedClean, &summary.PartialRelocations,
		&outcomesJSON, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(outcomesJSON), &summary.Outcomes); err != nil {
		return nil, eris.Wrap(err, "unmarshal outcomes")
	}
	run.Mode = model.Mode(mode)
	run.Summary = &summary
	run.StartedAt = startedAt.UTC()
	run.FinishedAt = finishedAt.UTC()
	return &run, nil
}
