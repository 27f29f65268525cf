package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crestline-group/recon-cli/internal/identity"
	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/source"
)

var (
	validateColumn    string
	validateKeyColumn string
	validateKind      string
	validateSheet     string
	validateDelimiter string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check identifier validity in a single extract",
	Long:  "Loads one file, classifies every identifier in the named column, and reports per-class counts and the share of values matching the format the column name implies.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec := source.Spec{
			Name:      "validate",
			Kind:      source.Kind(validateKind),
			Location:  args[0],
			Sheet:     validateSheet,
			Delimiter: validateDelimiter,
			Fields: source.FieldMapping{
				EntityKey:  validateKeyColumn,
				Identifier: validateColumn,
			},
		}
		if spec.Fields.EntityKey == "" {
			// Entity keys are irrelevant for a validity check; reuse the
			// identifier column so the mapping resolves.
			spec.Fields.EntityKey = validateColumn
		}
		if err := spec.Check(); err != nil {
			return err
		}

		records, err := initLoader().Load(ctx, spec)
		if err != nil {
			return err
		}

		stats := classifyRecords(records)
		formatValidity(os.Stdout, validateColumn, stats)
		return nil
	},
}

// validityStats aggregates a single column's classification outcome.
type validityStats struct {
	Total    int
	Missing  int
	ByClass  map[model.IdentifierClass]int
	Expected model.IdentifierClass
	Matching int
}

func classifyRecords(records []model.RawRecord) validityStats {
	stats := validityStats{ByClass: make(map[model.IdentifierClass]int)}

	expected, known := identity.ColumnClass(validateColumn)
	if known {
		stats.Expected = expected
	}

	for _, rec := range records {
		stats.Total++
		normalized, ok := identity.Normalize(rec.Identifier)
		if !ok {
			stats.Missing++
			continue
		}
		class := identity.Classify(normalized)
		stats.ByClass[class]++
		if known && class == expected {
			stats.Matching++
		}
	}
	return stats
}

func formatValidity(out io.Writer, column string, s validityStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Column:\t%s\n", column)
	_, _ = fmt.Fprintf(w, "Total rows:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Missing:\t%d\n", s.Missing)
	for _, class := range model.Classes {
		if n := s.ByClass[class]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", class, n)
		}
	}
	if n := s.ByClass[model.ClassUnclassified]; n > 0 {
		_, _ = fmt.Fprintf(w, "  unclassified:\t%d\n", n)
	}
	if s.Expected != "" {
		present := s.Total - s.Missing
		pct := 0.0
		if present > 0 {
			pct = float64(s.Matching) / float64(present) * 100
		}
		_, _ = fmt.Fprintf(w, "Expected class:\t%s\n", s.Expected)
		_, _ = fmt.Fprintf(w, "Validity:\t%.1f%% (%d of %d present)\n", pct, s.Matching, present)
	}
	_ = w.Flush()
}

func init() {
	validateCmd.Flags().StringVar(&validateColumn, "column", "", "identifier column to validate (required)")
	validateCmd.Flags().StringVar(&validateKeyColumn, "key-column", "", "entity key column (optional)")
	validateCmd.Flags().StringVar(&validateKind, "kind", "csv", "source kind (csv, xlsx)")
	validateCmd.Flags().StringVar(&validateSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	validateCmd.Flags().StringVar(&validateDelimiter, "delimiter", "", "CSV field delimiter (default comma)")
	_ = validateCmd.MarkFlagRequired("column")
	rootCmd.AddCommand(validateCmd)
}
