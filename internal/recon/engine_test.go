package recon

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// stubLoader serves canned records per source name.
type stubLoader struct {
	records map[string][]model.RawRecord
	errs    map[string]error
}

func (s *stubLoader) Load(_ context.Context, spec source.Spec) ([]model.RawRecord, error) {
	if err, ok := s.errs[spec.Name]; ok {
		return nil, err
	}
	return s.records[spec.Name], nil
}

func specsNamed(names ...string) []source.Spec {
	specs := make([]source.Spec, len(names))
	for i, n := range names {
		specs[i] = source.Spec{Name: n, Kind: source.KindCSV, Location: n + ".csv",
			Fields: source.FieldMapping{EntityKey: "id", Identifier: "bvn"}}
	}
	return specs
}

func rec(src, key, id string) model.RawRecord {
	return model.RawRecord{Source: src, EntityKey: key, Identifier: id}
}

func TestReconcile_CrossSourceDuplicates(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{
		"A": {rec("A", "A1", "22345678901"), rec("A", "A2", "12345678901")},
		"B": {rec("B", "B1", "10000000001")},
		"C": {rec("C", "C1", " 22345678901 ")}, // same as A1 after normalization
	}}
	engine := New(loader, Options{HashingEnabled: true})

	report, err := engine.Reconcile(context.Background(), specsNamed("A", "B", "C"))
	require.NoError(t, err)
	require.Len(t, report.Rows, 4)

	byKey := make(map[string]model.ReconciledRow)
	for _, row := range report.Rows {
		byKey[row.EntityKey] = row
	}

	assert.True(t, byKey["A1"].IsDuplicate)
	assert.True(t, byKey["C1"].IsDuplicate)
	assert.Equal(t, "A1", byKey["A1"].DuplicateOf)
	assert.Equal(t, "A1", byKey["C1"].DuplicateOf)
	assert.Equal(t, byKey["A1"].Digest, byKey["C1"].Digest)

	assert.False(t, byKey["A2"].IsDuplicate)
	assert.Empty(t, byKey["A2"].DuplicateOf)
	assert.False(t, byKey["B1"].IsDuplicate)

	assert.Equal(t, 2, report.TotalDuplicates)
	assert.True(t, report.Hashed)
}

func TestReconcile_SerialOrderFollowsConfiguration(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{}}
	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("s%d", i)
		names = append(names, name)
		loader.records[name] = []model.RawRecord{
			rec(name, name+"-r1", fmt.Sprintf("221%08d", i*2)),
			rec(name, name+"-r2", fmt.Sprintf("221%08d", i*2+1)),
		}
	}
	// High concurrency must not perturb serial assignment.
	engine := New(loader, Options{HashingEnabled: true, Concurrency: 4})

	report, err := engine.Reconcile(context.Background(), specsNamed(names...))
	require.NoError(t, err)
	require.Len(t, report.Rows, 16)

	for i, row := range report.Rows {
		assert.Equal(t, int64(i+1), row.Serial)
		wantSource := fmt.Sprintf("s%d", i/2)
		assert.Equal(t, wantSource, row.Source, "row %d", i)
	}
}

func TestReconcile_MissingIdentifierRouting(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{
		"A": {rec("A", "A1", ""), rec("A", "A2", "  "), rec("A", "A3", "-"), rec("A", "A4", "22345678901")},
	}}
	engine := New(loader, Options{HashingEnabled: true})

	report, err := engine.Reconcile(context.Background(), specsNamed("A"))
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "A4", report.Rows[0].EntityKey)

	require.Len(t, report.Exceptions, 3)
	for _, ex := range report.Exceptions {
		assert.Equal(t, model.ReasonMissingIdentifier, ex.Reason)
	}
	assert.Equal(t, 3, report.Sources[0].Missing)
}

func TestReconcile_StrictModeRejectsUnclassified(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{
		"A": {rec("A", "A1", "not-an-id"), rec("A", "A2", "22345678901")},
	}}

	strict := New(loader, Options{HashingEnabled: true, Strict: true})
	report, err := strict.Reconcile(context.Background(), specsNamed("A"))
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, model.ReasonMalformedIdentifier, report.Exceptions[0].Reason)
	assert.Equal(t, "A1", report.Exceptions[0].EntityKey)
	assert.Equal(t, 1, report.Sources[0].Malformed)

	// Default mode passes unclassified values through.
	lax := New(loader, Options{HashingEnabled: true})
	report, err = lax.Reconcile(context.Background(), specsNamed("A"))
	require.NoError(t, err)
	assert.Len(t, report.Rows, 2)
	assert.Empty(t, report.Exceptions)
}

func TestReconcile_GracefulDegradation(t *testing.T) {
	loader := &stubLoader{
		records: map[string][]model.RawRecord{
			"A": {rec("A", "A1", "22345678901")},
			"C": {rec("C", "C1", "12345678901")},
		},
		errs: map[string]error{"B": eris.Wrap(source.ErrUnavailable, "no such file")},
	}
	engine := New(loader, Options{HashingEnabled: true})

	report, err := engine.Reconcile(context.Background(), specsNamed("A", "B", "C"))
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	for _, row := range report.Rows {
		assert.NotEqual(t, "B", row.Source)
	}

	require.Len(t, report.Sources, 3)
	b := report.Sources[1]
	assert.Equal(t, "B", b.Name)
	assert.False(t, b.Loaded)
	assert.Equal(t, 0, b.Rows)

	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, model.ReasonUnreadableSource, report.Exceptions[0].Reason)
	assert.Equal(t, "B", report.Exceptions[0].Source)
}

func TestReconcile_NoUsableSources(t *testing.T) {
	loader := &stubLoader{errs: map[string]error{
		"A": source.ErrUnavailable,
		"B": source.ErrUnavailable,
	}}
	engine := New(loader, Options{HashingEnabled: true})

	_, err := engine.Reconcile(context.Background(), specsNamed("A", "B"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoUsableSources))
}

func TestReconcile_CleartextMode(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{
		"A": {rec("A", "A1", " 22345678901 ")},
	}}
	engine := New(loader, Options{HashingEnabled: false})

	report, err := engine.Reconcile(context.Background(), specsNamed("A"))
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "22345678901", report.Rows[0].Digest)
	assert.False(t, report.Hashed)
}

func TestReconcile_WithinSourceDuplicates(t *testing.T) {
	loader := &stubLoader{records: map[string][]model.RawRecord{
		"A": {
			rec("A", "A1", "22345678901"),
			rec("A", "A2", "22345678901"),
			rec("A", "A3", "22345678901"),
		},
	}}
	engine := New(loader, Options{HashingEnabled: true})

	report, err := engine.Reconcile(context.Background(), specsNamed("A"))
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)

	for _, row := range report.Rows {
		assert.True(t, row.IsDuplicate)
		assert.Equal(t, "A1", row.DuplicateOf)
	}
	assert.Equal(t, 3, report.TotalDuplicates)
	assert.Equal(t, 1, report.Sources[0].Distinct)
	assert.Equal(t, 3, report.Sources[0].Rows)
}

func TestMarkDuplicates_Empty(t *testing.T) {
	assert.Empty(t, markDuplicates(nil))
}
