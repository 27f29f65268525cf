package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/config"
	"github.com/crestline-group/recon-cli/internal/emit"
	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/recon"
	"github.com/crestline-group/recon-cli/internal/source"
	"github.com/crestline-group/recon-cli/internal/store"
	"github.com/crestline-group/recon-cli/pkg/profiler"
)

var (
	reconcileSourcesFile string
	reconcileOutDir      string
	reconcileCleartext   bool
	reconcileStrict      bool
	reconcileSalt        string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the full cross-source reconciliation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if reconcileSourcesFile != "" {
			specs, err := config.LoadSources(reconcileSourcesFile)
			if err != nil {
				return err
			}
			cfg.Sources = specs
		}
		if reconcileOutDir != "" {
			cfg.Output.Dir = reconcileOutDir
		}
		if reconcileCleartext {
			cfg.Run.HashingEnabled = false
		}
		if reconcileStrict {
			cfg.Run.Strict = true
		}
		if reconcileSalt != "" {
			cfg.Run.DigestSalt = reconcileSalt
		}

		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		loader := initLoader()

		// Pre-flight: a schema mismatch is a configuration bug and fails
		// the run before any loading. Unreachable sources are left for the
		// engine, which degrades gracefully per source.
		for _, spec := range cfg.Sources {
			err := loader.Validate(ctx, spec)
			var schemaErr *source.SchemaError
			switch {
			case err == nil:
			case eris.As(err, &schemaErr):
				return err
			case eris.Is(err, source.ErrUnavailable):
				zap.L().Warn("reconcile: source unreachable at pre-flight",
					zap.String("source", spec.Name), zap.Error(err))
			default:
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		var run *model.Run
		if st != nil {
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			run, err = st.CreateRun(ctx)
			if err != nil {
				return err
			}
		}

		engine := recon.New(loader, recon.Options{
			Strict:         cfg.Run.Strict,
			HashingEnabled: cfg.Run.HashingEnabled,
			DigestSalt:     cfg.Run.DigestSalt,
			Concurrency:    cfg.Run.Concurrency,
		})

		// Any failure past CreateRun must mark the run failed, or run
		// history reports it as in-flight forever.
		failRun := func(runErr error) {
			if st == nil || run == nil {
				return
			}
			if failErr := st.FailRun(ctx, run.ID, runErr.Error()); failErr != nil {
				zap.L().Error("reconcile: record run failure", zap.Error(failErr))
			}
		}

		report, err := engine.Reconcile(ctx, cfg.Sources)
		if err != nil {
			failRun(err)
			return err
		}

		overlaps := recon.Overlap(report)

		reconPath, _, err := emit.WriteCSV(report, cfg.Output.Dir)
		if err != nil {
			failRun(err)
			return err
		}

		if cfg.Output.Workbook {
			name := "reconciliation.xlsx"
			if !report.Hashed {
				name = "reconciliation.cleartext.xlsx"
			}
			if err := emit.WriteWorkbook(report, overlaps, filepath.Join(cfg.Output.Dir, name)); err != nil {
				failRun(err)
				return err
			}
		}

		if pg, ok := st.(*store.PostgresStore); ok && run != nil {
			if !report.Hashed {
				// Exported tables carry no cleartext labelling, so a
				// cleartext run stays out of the database entirely.
				zap.L().Warn("reconcile: skipping postgres export for cleartext run")
			} else if err := emit.WritePostgres(ctx, pg.Pool(), run.ID, report); err != nil {
				failRun(err)
				return err
			}
		}

		if cfg.Output.Profile && cfg.Profiler.Enabled {
			client := profiler.NewClient(cfg.Profiler.BaseURL)
			if _, err := emit.WriteProfile(ctx, client, reconPath); err != nil {
				zap.L().Warn("reconcile: profiling failed, continuing", zap.Error(err))
			}
		}

		summary := buildRunSummary(report)
		if st != nil && run != nil {
			if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
				return err
			}
		}

		out := struct {
			RunID    string             `json:"run_id,omitempty"`
			Summary  *model.RunSummary  `json:"summary"`
			Overlaps []model.OverlapRow `json:"overlaps,omitempty"`
		}{Summary: summary, Overlaps: overlaps}
		if run != nil {
			out.RunID = run.ID
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// buildRunSummary reduces a report to the counts persisted with the run.
func buildRunSummary(report *model.ReconciliationReport) *model.RunSummary {
	return &model.RunSummary{
		Sources:         report.Sources,
		TotalRows:       report.TotalRows(),
		TotalDuplicates: report.TotalDuplicates,
		TotalExceptions: len(report.Exceptions),
		Hashed:          report.Hashed,
	}
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileSourcesFile, "sources", "", "source manifest file (overrides configured sources)")
	reconcileCmd.Flags().StringVar(&reconcileOutDir, "out", "", "output directory (default from config)")
	reconcileCmd.Flags().BoolVar(&reconcileCleartext, "cleartext", false, "skip hashing and emit cleartext identifiers (debugging only)")
	reconcileCmd.Flags().BoolVar(&reconcileStrict, "strict", false, "route unclassifiable identifiers to the exceptions table")
	reconcileCmd.Flags().StringVar(&reconcileSalt, "salt", "", "keyed-hash salt (makes digests incomparable with unsalted datasets)")
	rootCmd.AddCommand(reconcileCmd)
}
