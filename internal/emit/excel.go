package emit

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/model"
)

// WriteWorkbook writes a multi-sheet Excel report: run summary, per-source
// counts, cross-entity overlaps, the reconciliation table and the exceptions
// table. Same write-once rule as the delimited artifacts.
func WriteWorkbook(report *model.ReconciliationReport, overlaps []model.OverlapRow, path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("emit: refusing to overwrite %s", path)
	}

	f := xlsx.NewFile()

	if err := addSummarySheet(f, report); err != nil {
		return err
	}
	if err := addSourcesSheet(f, report.Sources); err != nil {
		return err
	}
	if err := addOverlapsSheet(f, overlaps); err != nil {
		return err
	}
	if err := addReconciliationSheet(f, report); err != nil {
		return err
	}
	if err := addExceptionsSheet(f, report.Exceptions); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "emit: save workbook %s", path)
	}
	zap.L().Info("emit: workbook written", zap.String("path", path))
	return nil
}

func addSummarySheet(f *xlsx.File, report *model.ReconciliationReport) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "emit: add summary sheet")
	}
	addStringRow(sheet, "Metric", "Value")

	addMetricRow(sheet, "Total reconciled rows", report.TotalRows())
	addMetricRow(sheet, "Duplicate rows", report.TotalDuplicates)
	addMetricRow(sheet, "Exception rows", len(report.Exceptions))

	row := sheet.AddRow()
	row.AddCell().SetString("Identifiers hashed")
	row.AddCell().SetBool(report.Hashed)
	return nil
}

func addSourcesSheet(f *xlsx.File, sources []model.SourceSummary) error {
	sheet, err := f.AddSheet("Sources")
	if err != nil {
		return eris.Wrap(err, "emit: add sources sheet")
	}
	addStringRow(sheet, "Source", "Loaded", "Rows", "Missing", "Malformed", "Distinct")
	for _, s := range sources {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Name)
		row.AddCell().SetBool(s.Loaded)
		row.AddCell().SetInt(s.Rows)
		row.AddCell().SetInt(s.Missing)
		row.AddCell().SetInt(s.Malformed)
		row.AddCell().SetInt(s.Distinct)
	}
	return nil
}

func addOverlapsSheet(f *xlsx.File, overlaps []model.OverlapRow) error {
	sheet, err := f.AddSheet("Overlaps")
	if err != nil {
		return eris.Wrap(err, "emit: add overlaps sheet")
	}
	addStringRow(sheet, "Sources", "Combination size", "Shared identifiers")
	for _, o := range overlaps {
		row := sheet.AddRow()
		row.AddCell().SetString(joinSources(o.Sources))
		row.AddCell().SetInt(o.Size)
		row.AddCell().SetInt(o.Count)
	}
	return nil
}

func addReconciliationSheet(f *xlsx.File, report *model.ReconciliationReport) error {
	sheet, err := f.AddSheet("Reconciliation")
	if err != nil {
		return eris.Wrap(err, "emit: add reconciliation sheet")
	}
	addStringRow(sheet, reconColumns(report.Hashed)...)
	for _, r := range report.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Source)
		row.AddCell().SetString(r.EntityKey)
		row.AddCell().SetString(r.Digest)
		row.AddCell().SetBool(r.IsDuplicate)
		row.AddCell().SetString(r.DuplicateOf)
		row.AddCell().SetInt(int(r.Serial))
	}
	return nil
}

func addExceptionsSheet(f *xlsx.File, exceptions []model.ExceptionRow) error {
	sheet, err := f.AddSheet("Exceptions")
	if err != nil {
		return eris.Wrap(err, "emit: add exceptions sheet")
	}
	addStringRow(sheet, exceptionColumns...)
	for _, ex := range exceptions {
		addStringRow(sheet, ex.Source, ex.EntityKey, string(ex.Reason))
	}
	return nil
}

func joinSources(names []string) string {
	return strings.Join(names, " + ")
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addMetricRow(sheet *xlsx.Sheet, name string, value int) {
	row := sheet.AddRow()
	row.AddCell().SetString(name)
	row.AddCell().SetInt(value)
}
