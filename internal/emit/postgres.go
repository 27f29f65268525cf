package emit

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/db"
	"github.com/crestline-group/recon-cli/internal/model"
)

const reconSchema = `
CREATE TABLE IF NOT EXISTS recon_rows (
	run_id      TEXT    NOT NULL,
	source      TEXT    NOT NULL,
	entity_key  TEXT    NOT NULL,
	digest      TEXT    NOT NULL,
	is_duplicate BOOLEAN NOT NULL,
	duplicate_of TEXT   NOT NULL DEFAULT '',
	serial      BIGINT  NOT NULL
);
CREATE TABLE IF NOT EXISTS recon_exceptions (
	run_id     TEXT NOT NULL,
	source     TEXT NOT NULL,
	entity_key TEXT NOT NULL,
	reason     TEXT NOT NULL
);
`

var (
	reconRowColumns       = []string{"run_id", "source", "entity_key", "digest", "is_duplicate", "duplicate_of", "serial"}
	reconExceptionColumns = []string{"run_id", "source", "entity_key", "reason"}
)

// WritePostgres bulk-loads the reconciliation and exception tables for one
// run via the COPY protocol. The schema is created on first use.
func WritePostgres(ctx context.Context, pool db.Pool, runID string, report *model.ReconciliationReport) error {
	if _, err := pool.Exec(ctx, reconSchema); err != nil {
		return eris.Wrap(err, "emit: ensure postgres schema")
	}

	rows := make([][]any, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, []any{runID, r.Source, r.EntityKey, r.Digest, r.IsDuplicate, r.DuplicateOf, r.Serial})
	}
	n, err := db.CopyFrom(ctx, pool, "recon_rows", reconRowColumns, rows)
	if err != nil {
		return err
	}

	exceptions := make([][]any, 0, len(report.Exceptions))
	for _, ex := range report.Exceptions {
		exceptions = append(exceptions, []any{runID, ex.Source, ex.EntityKey, string(ex.Reason)})
	}
	m, err := db.CopyFrom(ctx, pool, "recon_exceptions", reconExceptionColumns, exceptions)
	if err != nil {
		return err
	}

	zap.L().Info("emit: postgres load complete",
		zap.String("run_id", runID),
		zap.Int64("rows", n),
		zap.Int64("exceptions_rows", m),
	)
	return nil
}
