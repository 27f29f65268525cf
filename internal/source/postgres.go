package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crestline-group/recon-cli/internal/model"
)

func (l *Loader) loadPostgres(ctx context.Context, spec Spec) ([]model.RawRecord, error) {
	pool, err := l.connect(ctx, spec.Location)
	if err != nil {
		return nil, unavailable(spec, "connect", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, spec.Query)
	if err != nil {
		return nil, unavailable(spec, "query", err)
	}
	defer rows.Close()

	keyIdx, idIdx, err := resolveMapping(spec, columnNames(rows))
	if err != nil {
		return nil, err
	}

	var records []model.RawRecord
	rowNum := 0
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, unavailable(spec, "scan row", err)
		}

		rowNum++
		records = append(records, rawRecord(spec, stringValues(vals), keyIdx, idIdx, rowNum))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(spec, "iterate rows", err)
	}

	return records, nil
}

func (l *Loader) validatePostgres(ctx context.Context, spec Spec) error {
	pool, err := l.connect(ctx, spec.Location)
	if err != nil {
		return unavailable(spec, "connect", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, spec.Query)
	if err != nil {
		return unavailable(spec, "query", err)
	}
	defer rows.Close()

	_, _, err = resolveMapping(spec, columnNames(rows))
	return err
}

func columnNames(rows pgx.Rows) []string {
	descs := rows.FieldDescriptions()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}

// stringValues renders scanned values as strings; the pipeline treats every
// identifier and entity key as text. NULLs become empty strings and flow
// through the missing-identifier path.
func stringValues(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = t
		case []byte:
			out[i] = string(t)
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
