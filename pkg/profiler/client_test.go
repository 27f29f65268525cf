package profiler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/profile", r.URL.Path)
		assert.Equal(t, "reconciliation", r.URL.Query().Get("title"))
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "digest")

		json.NewEncoder(w).Encode(Summary{
			Title: "reconciliation",
			Rows:  2,
			Columns: []ColumnSummary{
				{Name: "digest", Type: "string", DistinctCount: 2},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	summary, err := c.Profile(context.Background(), strings.NewReader("source,digest\nA,abc\nB,def\n"), "reconciliation")
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.Rows)
	require.Len(t, summary.Columns, 1)
	assert.Equal(t, "digest", summary.Columns[0].Name)
	assert.Equal(t, int64(2), summary.Columns[0].DistinctCount)
}

func TestProfile_RetriesOn5xx(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ := io.ReadAll(r.Body)
		// The retry must resend the full payload.
		assert.Equal(t, "source,digest\nA,abc\n", string(body))
		json.NewEncoder(w).Encode(Summary{Rows: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	summary, err := c.Profile(context.Background(), strings.NewReader("source,digest\nA,abc\n"), "t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Rows)
	assert.Equal(t, 2, calls)
}

func TestProfile_ClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad csv"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Profile(context.Background(), strings.NewReader("x"), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, calls)
}
