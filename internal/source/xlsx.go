package source

import (
	"context"

	"github.com/tealeg/xlsx/v2"

	"github.com/crestline-group/recon-cli/internal/model"
)

// readXLSX opens the workbook and returns the header row plus the data rows.
// XLSX sources must be local paths; remote workbooks should be converted to
// CSV upstream or fetched out of band.
func (l *Loader) readXLSX(spec Spec) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(spec.Location)
	if err != nil {
		return nil, nil, unavailable(spec, "open workbook", err)
	}

	sheet, err := pickSheet(f, spec)
	if err != nil {
		return nil, nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil, unavailable(spec, "read header", errEmptySheet)
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}
	return header, rows, nil
}

var errEmptySheet = errString("empty sheet")

type errString string

func (e errString) Error() string { return string(e) }

func pickSheet(f *xlsx.File, spec Spec) (*xlsx.Sheet, error) {
	if spec.Sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, unavailable(spec, "pick sheet", errEmptySheet)
		}
		return f.Sheets[0], nil
	}

	sheet, ok := f.Sheet[spec.Sheet]
	if !ok {
		names := make([]string, 0, len(f.Sheets))
		for _, s := range f.Sheets {
			names = append(names, s.Name)
		}
		return nil, &SchemaError{Source: spec.Name, Missing: "sheet " + spec.Sheet, Available: names}
	}
	return sheet, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func (l *Loader) loadXLSX(ctx context.Context, spec Spec) ([]model.RawRecord, error) {
	header, rows, err := l.readXLSX(spec)
	if err != nil {
		return nil, err
	}

	keyIdx, idIdx, err := resolveMapping(spec, header)
	if err != nil {
		return nil, err
	}

	records := make([]model.RawRecord, 0, len(rows))
	for i, row := range rows {
		if ctx.Err() != nil {
			return nil, unavailable(spec, "read rows", ctx.Err())
		}
		records = append(records, rawRecord(spec, row, keyIdx, idIdx, i+1))
	}

	return records, nil
}
