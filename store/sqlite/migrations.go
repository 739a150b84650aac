package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the run store. Time columns
// are declared TIMESTAMP so the driver scans them back into time.Time.
var Migrations = migrate.NewGroup("startflow")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_runs_table",
			Version: "20260101120000",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS startflow_runs (
						id           TEXT PRIMARY KEY,
						name         TEXT NOT NULL,
						version      INTEGER NOT NULL DEFAULT 1,
						state        TEXT NOT NULL DEFAULT 'running',
						input        BLOB,
						error        TEXT NOT NULL DEFAULT '',
						scope_app_id TEXT NOT NULL DEFAULT '',
						scope_org_id TEXT NOT NULL DEFAULT '',
						started_at   TIMESTAMP NOT NULL,
						completed_at TIMESTAMP,
						created_at   TIMESTAMP NOT NULL,
						updated_at   TIMESTAMP NOT NULL
					)`)
				if err != nil {
					return err
				}

				_, err = exec.Exec(ctx, `
					CREATE INDEX IF NOT EXISTS idx_startflow_runs_state
						ON startflow_runs (state, created_at)`)
				if err != nil {
					return err
				}

				_, err = exec.Exec(ctx, `
					CREATE INDEX IF NOT EXISTS idx_startflow_runs_name
						ON startflow_runs (name)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS startflow_runs`)
				return err
			},
		},

		&migrate.Migration{
			Name:    "create_checkpoints_table",
			Version: "20260101120001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS startflow_checkpoints (
						id         TEXT PRIMARY KEY,
						run_id     TEXT NOT NULL,
						step_name  TEXT NOT NULL,
						data       BLOB NOT NULL,
						created_at TIMESTAMP NOT NULL,
						UNIQUE (run_id, step_name)
					)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS startflow_checkpoints`)
				return err
			},
		},
	)
}
