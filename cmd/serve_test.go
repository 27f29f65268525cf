package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/model"
	"github.com/crestline-group/recon-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(newRouter(st))
	t.Cleanup(srv.Close)
	return srv, st
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestServe_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestServe_ListRuns_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	var runs []model.Run
	code := getJSON(t, srv.URL+"/api/runs", &runs)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, runs)
}

func TestServe_ListAndGetRuns(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, run.ID, &model.RunSummary{TotalRows: 7, Hashed: true}))

	var runs []model.Run
	code := getJSON(t, srv.URL+"/api/runs", &runs)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	var got model.Run
	code = getJSON(t, srv.URL+"/api/runs/"+run.ID, &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 7, got.Summary.TotalRows)
}

func TestServe_ListRuns_StatusFilter(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	running, err := st.CreateRun(ctx)
	require.NoError(t, err)
	failed, err := st.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, failed.ID, "boom"))

	var runs []model.Run
	code := getJSON(t, srv.URL+"/api/runs?status=running", &runs)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, runs, 1)
	assert.Equal(t, running.ID, runs[0].ID)
}

func TestServe_GetRun_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/runs/does-not-exist", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "run not found", body["error"])
}

func TestShutdownServer_DrainsInflightRequests(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln) //nolint:errcheck

	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			done <- result{err: err}
			return
		}
		resp.Body.Close()
		done <- result{status: resp.StatusCode}
	}()

	<-started
	go func() {
		// Finish the handler only after shutdown has begun waiting.
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	shutdownServer(srv)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
}
