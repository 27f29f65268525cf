package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crestline-group/recon-cli/internal/model"
)

func TestClassifyRecords(t *testing.T) {
	validateColumn = "BVN"
	t.Cleanup(func() { validateColumn = "" })

	records := []model.RawRecord{
		{Source: "validate", EntityKey: "A1", Identifier: "22234567890"},
		{Source: "validate", EntityKey: "A2", Identifier: "22987654321.0"},
		{Source: "validate", EntityKey: "A3", Identifier: "12345678901"},
		{Source: "validate", EntityKey: "A4", Identifier: "n/a"},
		{Source: "validate", EntityKey: "A5", Identifier: "garbage!"},
	}

	stats := classifyRecords(records)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 2, stats.ByClass[model.ClassBankVerification])
	assert.Equal(t, 1, stats.ByClass[model.ClassNationalID])
	assert.Equal(t, 1, stats.ByClass[model.ClassUnclassified])
	assert.Equal(t, model.ClassBankVerification, stats.Expected)
	assert.Equal(t, 2, stats.Matching)
}

func TestFormatValidity(t *testing.T) {
	stats := validityStats{
		Total:   4,
		Missing: 1,
		ByClass: map[model.IdentifierClass]int{
			model.ClassBankVerification: 2,
			model.ClassUnclassified:     1,
		},
		Expected: model.ClassBankVerification,
		Matching: 2,
	}

	var buf bytes.Buffer
	formatValidity(&buf, "BVN", stats)
	out := buf.String()

	assert.Contains(t, out, "Total rows:")
	assert.Contains(t, out, "bvn:")
	assert.Contains(t, out, "unclassified:")
	assert.Contains(t, out, "66.7% (2 of 3 present)")
}
