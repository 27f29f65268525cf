package source

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/crestline-group/recon-cli/internal/model"
)

// openCSV opens the location and reads the header row. The returned close
// function must be called once; on error nothing is left open.
func (l *Loader) openCSV(ctx context.Context, spec Spec) ([]string, func() error, error) {
	rc, err := l.opener.Open(ctx, spec.Location)
	if err != nil {
		return nil, nil, unavailable(spec, "open", err)
	}

	reader := newCSVReader(rc, spec)
	header, err := reader.Read()
	if err != nil {
		rc.Close()
		// An empty or unparseable file has no usable header.
		return nil, nil, unavailable(spec, "read header", err)
	}

	return header, rc.Close, nil
}

func newCSVReader(r io.Reader, spec Spec) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // sources are tolerant of ragged rows
	if spec.Delimiter != "" {
		reader.Comma = []rune(spec.Delimiter)[0]
	}
	return reader
}

func (l *Loader) loadCSV(ctx context.Context, spec Spec) ([]model.RawRecord, error) {
	rc, err := l.opener.Open(ctx, spec.Location)
	if err != nil {
		return nil, unavailable(spec, "open", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc, spec)

	header, err := reader.Read()
	if err != nil {
		return nil, unavailable(spec, "read header", err)
	}
	keyIdx, idIdx, err := resolveMapping(spec, header)
	if err != nil {
		return nil, err
	}

	var records []model.RawRecord
	rowNum := 0
	for {
		if ctx.Err() != nil {
			return nil, unavailable(spec, "read rows", ctx.Err())
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, unavailable(spec, "read row", err)
		}

		rowNum++
		records = append(records, rawRecord(spec, row, keyIdx, idIdx, rowNum))
	}

	return records, nil
}
