package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/tackle-hunger/charity-cli/internal/db"
	"github.com/tackle-hunger/charity-cli/internal/model"
)

// PostgresStore implements Store on a pgx connection pool for shared
// deployments where several operators review the same run history.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and returns a run store backed by it.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, maxConns, minConns)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	outcomes              JSONB NOT NULL,
	started_at            TIMESTAMPTZ NOT NULL,
	finished_at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_remediation_runs_mode ON remediation_runs(mode);
CREATE INDEX IF NOT EXISTS idx_remediation_runs_started_at ON remediation_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run == nil || run.ID == "" {
		return eris.New("postgres: run id is required")
	}
	summary := run.Summary
	if summary == nil {
		summary = &model.Summary{}
	}

	outcomesJSON, err := json.Marshal(summary.Outcomes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal outcomes")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO remediation_runs
		(id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID, string(run.Mode), run.Limit,
		summary.Processed, summary.Relocated, summary.SkippedNotFlagged,
		summary.SkippedNoSubstitute, summary.FailedClean, summary.PartialRelocations,
		outcomesJSON, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at
		FROM remediation_runs WHERE id = $1`, id)

	run, err := scanPostgresRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: run %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, mode, site_limit, processed, relocated, skipped_not_flagged, skipped_no_substitute, failed_clean, partial_relocations, outcomes, started_at, finished_at
	FROM remediation_runs`
	var args []any

	if filter.Mode != "" {
		args = append(args, string(filter.Mode))
		query += ` WHERE mode = $1`
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var (
		run          model.Run
		summary      model.Summary
		mode         string
		outcomesJSON []byte
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
	if err := json.Unmarshal(outcomesJSON, &summary.Outcomes); err != nil {
		return nil, eris.Wrap(err, "unmarshal outcomes")
	}
	run.Mode = model.Mode(mode)
	run.Summary = &summary
	run.StartedAt = startedAt.UTC()
	run.FinishedAt = finishedAt.UTC()
	return &run, nil
}
