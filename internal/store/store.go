// Package store persists remediation runs locally so operators can audit
// past batches and find partial relocations needing manual reconciliation.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Mode   model.Mode `json:"mode,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// Store is the audit-run persistence interface.
type Store interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver. SQLite is the default
// backend; Postgres is for shared deployments.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "charity-cli.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, 0, 0)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
