package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crestline-group/recon-cli/internal/model"
)

// Load reads the whole source into RawRecords, in stable source-row order.
// Returns ErrUnavailable when the backing location cannot be opened or read,
// and *SchemaError when the field mapping does not fit the source.
func (l *Loader) Load(ctx context.Context, spec Spec) ([]model.RawRecord, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	switch spec.Kind {
	case KindCSV:
		return l.loadCSV(ctx, spec)
	case KindXLSX:
		return l.loadXLSX(ctx, spec)
	case KindPostgres:
		return l.loadPostgres(ctx, spec)
	default:
		return nil, eris.Errorf("source %s: unknown kind %q", spec.Name, spec.Kind)
	}
}

// Validate checks the field mapping against the live source schema without
// loading rows. Connectivity failures surface as ErrUnavailable, mapping
// problems as *SchemaError.
func (l *Loader) Validate(ctx context.Context, spec Spec) error {
	if err := spec.Check(); err != nil {
		return err
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	switch spec.Kind {
	case KindCSV:
		header, closeFn, err := l.openCSV(ctx, spec)
		if err != nil {
			return err
		}
		defer closeFn()
		_, _, err = resolveMapping(spec, header)
		return err
	case KindXLSX:
		header, _, err := l.readXLSX(spec)
		if err != nil {
			return err
		}
		_, _, err = resolveMapping(spec, header)
		return err
	case KindPostgres:
		return l.validatePostgres(ctx, spec)
	default:
		return eris.Errorf("source %s: unknown kind %q", spec.Name, spec.Kind)
	}
}

// rawRecord builds one RawRecord from a row, tolerating short rows. A blank
// entity key gets a synthesized positional key so exception and duplicate
// annotations stay addressable.
func rawRecord(spec Spec, row []string, keyIdx, idIdx, rowNum int) model.RawRecord {
	at := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	key := strings.TrimSpace(at(keyIdx))
	if key == "" {
		key = fmt.Sprintf("row-%d", rowNum)
	}

	return model.RawRecord{
		Source:     spec.Name,
		EntityKey:  key,
		Identifier: at(idIdx),
	}
}
