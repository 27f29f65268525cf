// Package emit serializes reconciliation reports to persistent artifacts:
// delimited files, an Excel workbook, PostgreSQL tables, and an optional
// profiling summary. No artifact ever contains a raw or normalized
// identifier when hashing is enabled.
package emit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/model"
)

// reconColumns are the reconciliation table columns, in artifact order.
func reconColumns(hashed bool) []string {
	digestCol := "digest"
	if !hashed {
		// Cleartext debugging runs carry the identifier itself; the
		// column is renamed so downstream consumers cannot mistake it
		// for a digest.
		digestCol = "identifier_cleartext"
	}
	return []string{"source", "entity_key", digestCol, "is_duplicate", "duplicate_group_first_entity_key", "serial"}
}

var exceptionColumns = []string{"source", "entity_key", "reason"}

// artifactNames returns the reconciliation and exceptions file names.
// Cleartext runs are labelled in the name itself.
func artifactNames(hashed bool) (string, string) {
	if hashed {
		return "reconciliation.csv", "exceptions.csv"
	}
	return "reconciliation.cleartext.csv", "exceptions.cleartext.csv"
}

// WriteCSV writes the reconciliation and exceptions tables under dir and
// returns their paths. Artifacts are write-once: an existing file fails the
// emit rather than being overwritten.
func WriteCSV(report *model.ReconciliationReport, dir string) (reconPath, excPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", eris.Wrapf(err, "emit: create output dir %s", dir)
	}

	if !report.Hashed {
		zap.L().Warn("emit: hashing disabled, artifacts contain cleartext identifiers", zap.String("dir", dir))
	}

	reconName, excName := artifactNames(report.Hashed)
	reconPath = filepath.Join(dir, reconName)
	excPath = filepath.Join(dir, excName)

	if err := writeTable(reconPath, reconColumns(report.Hashed), func(w *csv.Writer) error {
		for _, row := range report.Rows {
			record := []string{
				row.Source,
				row.EntityKey,
				row.Digest,
				strconv.FormatBool(row.IsDuplicate),
				row.DuplicateOf,
				strconv.FormatInt(row.Serial, 10),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return "", "", err
	}

	if err := writeTable(excPath, exceptionColumns, func(w *csv.Writer) error {
		for _, ex := range report.Exceptions {
			if err := w.Write([]string{ex.Source, ex.EntityKey, string(ex.Reason)}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		// The artifacts are a pair; a surviving half would trip the
		// write-once check on the retry.
		if rmErr := os.Remove(reconPath); rmErr != nil {
			zap.L().Warn("emit: remove partial artifact", zap.String("path", reconPath), zap.Error(rmErr))
		}
		return "", "", err
	}

	zap.L().Info("emit: artifacts written",
		zap.String("reconciliation", reconPath),
		zap.String("exceptions", excPath),
		zap.Int("rows", len(report.Rows)),
		zap.Int("exceptions_rows", len(report.Exceptions)),
	)

	return reconPath, excPath, nil
}

func writeTable(path string, header []string, body func(*csv.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return eris.Wrapf(err, "emit: refusing to overwrite or create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "emit: write header %s", path)
	}
	if err := body(w); err != nil {
		return eris.Wrapf(err, "emit: write rows %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "emit: flush %s", path)
	}
	return nil
}
