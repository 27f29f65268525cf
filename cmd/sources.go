package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crestline-group/recon-cli/internal/config"
	"github.com/crestline-group/recon-cli/internal/source"
)

var sourcesFile string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect configured sources",
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every configured source against its live schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if sourcesFile != "" {
			specs, err := config.LoadSources(sourcesFile)
			if err != nil {
				return err
			}
			cfg.Sources = specs
		}
		if len(cfg.Sources) == 0 {
			return eris.New("no sources configured")
		}

		loader := initLoader()

		type checkResult struct {
			spec   source.Spec
			status string
			detail string
		}
		results := make([]checkResult, 0, len(cfg.Sources))
		failed := 0

		for _, spec := range cfg.Sources {
			res := checkResult{spec: spec, status: "ok"}
			err := loader.Validate(ctx, spec)
			var schemaErr *source.SchemaError
			switch {
			case err == nil:
			case eris.As(err, &schemaErr):
				res.status = "schema mismatch"
				res.detail = schemaErr.Missing
				failed++
			case eris.Is(err, source.ErrUnavailable):
				res.status = "unavailable"
				res.detail = err.Error()
				failed++
			default:
				res.status = "invalid"
				res.detail = err.Error()
				failed++
			}
			results = append(results, res)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SOURCE\tKIND\tSTATUS\tDETAIL")
		_, _ = fmt.Fprintln(w, "------\t----\t------\t------")
		for _, res := range results {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				res.spec.Name, res.spec.Kind, res.status, truncateDetail(res.detail))
		}
		_ = w.Flush()

		if failed > 0 {
			return eris.Errorf("%d of %d sources failed the check", failed, len(cfg.Sources))
		}
		return nil
	},
}

func truncateDetail(detail string) string {
	if len(detail) > 80 {
		return detail[:77] + "..."
	}
	return detail
}

func init() {
	sourcesCheckCmd.Flags().StringVar(&sourcesFile, "sources", "", "source manifest file (overrides configured sources)")
	sourcesCmd.AddCommand(sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}
