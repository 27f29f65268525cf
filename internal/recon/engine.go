// Package recon implements the cross-source identifier reconciliation run:
// load every configured source, normalize and digest its identifier column,
// merge with provenance, and mark duplicate groups across the merged set.
package recon

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crestline-group/recon-cli/internal/identity"
	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/source"
)

// ErrNoUsableSources is returned when not a single configured source could be
// loaded. Anything short of that is graceful degradation, reported in the
// summary instead of failing the run.
var ErrNoUsableSources = eris.New("recon: no usable sources")

// SourceLoader is the slice of the source loader the engine needs.
type SourceLoader interface {
	Load(ctx context.Context, spec source.Spec) ([]model.RawRecord, error)
}

// Options tunes a reconciliation run.
type Options struct {
	// Strict routes Unclassified identifiers to the exceptions table
	// instead of passing them through to digesting.
	Strict bool
	// HashingEnabled is the normal mode. When false the run operates on
	// cleartext identifiers for debugging; emitters must label the output.
	HashingEnabled bool
	// DigestSalt switches the digest engine to a keyed hash. Leaving it
	// empty keeps digests comparable with externally hashed datasets.
	DigestSalt string
	// Concurrency bounds parallel source loading. Values < 1 mean serial.
	Concurrency int
}

// Engine runs reconciliations. It owns no state between runs; the working
// accumulation for one run lives on the stack of Reconcile.
type Engine struct {
	loader   SourceLoader
	digester *identity.Digester
	opts     Options
}

// New creates an Engine.
func New(loader SourceLoader, opts Options) *Engine {
	return &Engine{
		loader:   loader,
		digester: identity.NewDigester(opts.DigestSalt),
		opts:     opts,
	}
}

// provisional is a reconciled row before duplicate marking.
type provisional struct {
	source    string
	entityKey string
	digest    string
}

// sourceResult accumulates one source's contribution. Results are held in
// per-source slots and stitched in configured order, so serial assignment is
// deterministic no matter how loading is scheduled.
type sourceResult struct {
	summary    model.SourceSummary
	rows       []provisional
	exceptions []model.ExceptionRow
}

// Reconcile processes the configured sources in order and returns the
// complete report. A failing source is skipped with a warning; the run fails
// only when every source is unusable.
func (e *Engine) Reconcile(ctx context.Context, specs []source.Spec) (*model.ReconciliationReport, error) {
	results := make([]*sourceResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 1 {
		g.SetLimit(e.opts.Concurrency)
	} else {
		g.SetLimit(1)
	}
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = e.processSource(gctx, spec)
			return nil
		})
	}
	// Source failures are absorbed into the results; the only group error
	// source is context cancellation.
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "recon: load sources")
	}

	// Barrier: every source is loaded (or definitively failed) past this
	// point. Duplicate detection needs the complete set.
	report := &model.ReconciliationReport{Hashed: e.opts.HashingEnabled}

	var merged []provisional
	loaded := 0
	for _, res := range results {
		if res.summary.Loaded {
			loaded++
		}
		merged = append(merged, res.rows...)
		report.Exceptions = append(report.Exceptions, res.exceptions...)
		report.Sources = append(report.Sources, res.summary)
	}
	if loaded == 0 {
		return nil, eris.Wrap(ErrNoUsableSources, "recon: all configured sources failed to load")
	}

	report.Rows = markDuplicates(merged)
	for _, row := range report.Rows {
		if row.IsDuplicate {
			report.TotalDuplicates++
		}
	}

	zap.L().Info("recon: reconciliation complete",
		zap.Int("sources", len(specs)),
		zap.Int("loaded", loaded),
		zap.Int("rows", len(report.Rows)),
		zap.Int("duplicates", report.TotalDuplicates),
		zap.Int("exceptions", len(report.Exceptions)),
	)

	return report, nil
}

// processSource loads one source and normalizes, classifies and digests its
// rows. Never fails: problems become exception rows or an unloaded summary.
func (e *Engine) processSource(ctx context.Context, spec source.Spec) *sourceResult {
	log := zap.L().With(zap.String("source", spec.Name))
	res := &sourceResult{summary: model.SourceSummary{Name: spec.Name}}

	records, err := e.loader.Load(ctx, spec)
	if err != nil {
		log.Warn("recon: skipping unusable source", zap.Error(err))
		res.exceptions = append(res.exceptions, model.ExceptionRow{
			Source: spec.Name,
			Reason: model.ReasonUnreadableSource,
		})
		return res
	}
	res.summary.Loaded = true

	distinct := make(map[string]struct{})
	for _, rec := range records {
		normalized, ok := identity.Normalize(rec.Identifier)
		if !ok {
			res.summary.Missing++
			res.exceptions = append(res.exceptions, model.ExceptionRow{
				Source:    rec.Source,
				EntityKey: rec.EntityKey,
				Reason:    model.ReasonMissingIdentifier,
			})
			continue
		}

		if e.opts.Strict && identity.Classify(normalized) == model.ClassUnclassified {
			res.summary.Malformed++
			res.exceptions = append(res.exceptions, model.ExceptionRow{
				Source:    rec.Source,
				EntityKey: rec.EntityKey,
				Reason:    model.ReasonMalformedIdentifier,
			})
			continue
		}

		value := normalized
		if e.opts.HashingEnabled {
			value, err = e.digester.Digest(normalized)
			if err != nil {
				// Normalize never returns an empty value with ok=true,
				// so this is unreachable short of a programming error.
				log.Error("recon: digest failed", zap.String("entity_key", rec.EntityKey), zap.Error(err))
				res.summary.Malformed++
				res.exceptions = append(res.exceptions, model.ExceptionRow{
					Source:    rec.Source,
					EntityKey: rec.EntityKey,
					Reason:    model.ReasonMalformedIdentifier,
				})
				continue
			}
		}

		distinct[value] = struct{}{}
		res.summary.Rows++
		res.rows = append(res.rows, provisional{
			source:    rec.Source,
			entityKey: rec.EntityKey,
			digest:    value,
		})
	}
	res.summary.Distinct = len(distinct)

	log.Info("recon: source processed",
		zap.Int("rows", res.summary.Rows),
		zap.Int("missing", res.summary.Missing),
		zap.Int("malformed", res.summary.Malformed),
		zap.Int("distinct", res.summary.Distinct),
	)

	return res
}

// markDuplicates assigns serials in merged order and marks every member of a
// multi-row digest group, annotating with the first occurrence's entity key.
// First occurrence is strictly the smallest serial: processing order of the
// configured source list, then row order within the source.
func markDuplicates(merged []provisional) []model.ReconciledRow {
	rows := make([]model.ReconciledRow, len(merged))
	first := make(map[string]int, len(merged)) // digest -> index of first occurrence
	counts := make(map[string]int, len(merged))

	for i, p := range merged {
		rows[i] = model.ReconciledRow{
			Source:    p.source,
			EntityKey: p.entityKey,
			Digest:    p.digest,
			Serial:    int64(i + 1),
		}
		if _, seen := first[p.digest]; !seen {
			first[p.digest] = i
		}
		counts[p.digest]++
	}

	for i := range rows {
		if counts[rows[i].Digest] > 1 {
			rows[i].IsDuplicate = true
			rows[i].DuplicateOf = rows[first[rows[i].Digest]].EntityKey
		}
	}

	return rows
}
