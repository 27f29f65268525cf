package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crestline-group/recon-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "0b5e7c1a-2222-3333-4444-555566667777",
			Status:    model.RunStatusComplete,
			Summary:   &model.RunSummary{TotalRows: 120, TotalDuplicates: 8, TotalExceptions: 3},
			CreatedAt: created,
			UpdatedAt: created.Add(42 * time.Second),
		},
		{
			ID:        "ffffeeee-0000-1111-2222-333344445555",
			Status:    model.RunStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "0b5e7c1a")
	assert.NotContains(t, out, "0b5e7c1a-2222")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "42s")
	// Runs without a summary render placeholders.
	failedLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ffffeeee") {
			failedLine = line
		}
	}
	assert.Contains(t, failedLine, "-")
	assert.Contains(t, failedLine, "failed")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0b5e7c1a", truncateID("0b5e7c1a-2222-3333-4444-555566667777"))
	assert.Equal(t, "short", truncateID("short"))
}
