package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/recon"
)

var overlapCmd = &cobra.Command{
	Use:   "overlap <reconciliation-file>",
	Short: "Compute shared-identifier counts per source combination",
	Long:  "Re-reads an emitted reconciliation artifact and reports, for every combination of sources, how many digests appear in all of them.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := readReconciliationArtifact(args[0])
		if err != nil {
			return err
		}

		overlaps := recon.Overlap(report)
		if len(overlaps) == 0 {
			fmt.Fprintln(os.Stderr, "No cross-source overlap found.")
			return nil
		}

		formatOverlaps(os.Stdout, overlaps)
		return nil
	},
}

// readReconciliationArtifact rebuilds the minimal report the overlap
// computation needs from an emitted artifact. Both hashed and cleartext
// artifacts are accepted; only source and digest columns are read.
func readReconciliationArtifact(path string) (*model.ReconciliationReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "overlap: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "overlap: read header %s", path)
	}

	sourceIdx, digestIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "source":
			sourceIdx = i
		case "digest", "identifier_cleartext":
			digestIdx = i
		}
	}
	if sourceIdx < 0 || digestIdx < 0 {
		return nil, eris.Errorf("overlap: %s is not a reconciliation artifact (columns: %s)",
			path, strings.Join(header, ", "))
	}

	report := &model.ReconciliationReport{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "overlap: read %s", path)
		}
		report.Rows = append(report.Rows, model.ReconciledRow{
			Source: row[sourceIdx],
			Digest: row[digestIdx],
		})
	}
	return report, nil
}

func formatOverlaps(out io.Writer, overlaps []model.OverlapRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCES\tSIZE\tSHARED")
	_, _ = fmt.Fprintln(w, "-------\t----\t------")
	for _, o := range overlaps {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", strings.Join(o.Sources, " + "), o.Size, o.Count)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(overlapCmd)
}
