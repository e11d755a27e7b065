package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkalnins/shelf/internal/models"
	"github.com/pkalnins/shelf/internal/store"
	"github.com/pkalnins/shelf/internal/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv   *httptest.Server
	store *store.Store
	dir   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "shelf.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })

	tracker := undo.NewTracker(time.Minute)
	t.Cleanup(tracker.Stop)

	validator := &undo.Validator{VolumeRoots: []string{filepath.Join(dir, "vols")}}
	engine := undo.NewEngine(st, validator, tracker, nil)

	handler, cleanup := Handler(st, engine, nil, nil)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: st, dir: dir}
}

// movedRecord places a file at target and appends a matching record.
func (ts *testServer) movedRecord(t *testing.T, batchID, source, target string) *models.Operation {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("payload"), 0644))

	op := &models.Operation{
		BatchID:    batchID,
		Kind:       models.KindMove,
		SourcePath: source,
		TargetPath: target,
		Timestamp:  time.Now().UTC(),
		Status:     models.StatusCompleted,
	}
	_, err := ts.store.Append(op)
	require.NoError(t, err)
	return op
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHandler_Health(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, getJSON(t, ts.srv.URL+"/healthz", nil))
	assert.Equal(t, http.StatusOK, getJSON(t, ts.srv.URL+"/readyz", nil))
}

func TestHandler_ListOperations(t *testing.T) {
	ts := newTestServer(t)
	ts.movedRecord(t, "b1", filepath.Join(ts.dir, "a", "1.txt"), filepath.Join(ts.dir, "b", "1.txt"))
	ts.movedRecord(t, "b1", filepath.Join(ts.dir, "a", "2.txt"), filepath.Join(ts.dir, "b", "2.txt"))

	var ops []*models.Operation
	code := getJSON(t, ts.srv.URL+"/api/v1/operations", &ops)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, ops, 2)
	// Newest first
	assert.Greater(t, ops[0].ID, ops[1].ID)

	// Kind filter with no matches yields an empty array, not null
	ops = nil
	code = getJSON(t, ts.srv.URL+"/api/v1/operations?kind=RENAME", &ops)
	assert.Equal(t, http.StatusOK, code)
	assert.NotNil(t, ops)
	assert.Len(t, ops, 0)

	// Invalid kind
	code = getJSON(t, ts.srv.URL+"/api/v1/operations?kind=COPY", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Invalid page
	code = getJSON(t, ts.srv.URL+"/api/v1/operations?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandler_CountOperations(t *testing.T) {
	ts := newTestServer(t)
	ts.movedRecord(t, "b1", filepath.Join(ts.dir, "a", "1.txt"), filepath.Join(ts.dir, "b", "1.txt"))

	var count map[string]int
	code := getJSON(t, ts.srv.URL+"/api/v1/operations/count", &count)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, count["total"])

	code = getJSON(t, ts.srv.URL+"/api/v1/operations/count?kind=RENAME", &count)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, count["total"])
}

func TestHandler_ListBatches(t *testing.T) {
	ts := newTestServer(t)
	ts.movedRecord(t, "b1", filepath.Join(ts.dir, "a", "1.txt"), filepath.Join(ts.dir, "b", "1.txt"))

	var batches []*models.BatchSummary
	code := getJSON(t, ts.srv.URL+"/api/v1/batches", &batches)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, batches, 1)
	assert.Equal(t, "b1", batches[0].BatchID)
	assert.Equal(t, models.BatchCompleted, batches[0].Status)
}

func TestHandler_RevertOperation(t *testing.T) {
	ts := newTestServer(t)
	source := filepath.Join(ts.dir, "a", "x.txt")
	op := ts.movedRecord(t, "b1", source, filepath.Join(ts.dir, "b", "x.txt"))

	url := ts.srv.URL + "/api/v1/operations/" + itoa(op.ID) + "/revert"

	var outcome models.RevertOutcome
	code := postJSON(t, url, &outcome)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.Reverted, outcome.Result)
	assert.FileExists(t, source)

	// Idempotent repeat
	code = postJSON(t, url, &outcome)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.AlreadyReverted, outcome.Result)
}

func TestHandler_RevertOperationFailures(t *testing.T) {
	ts := newTestServer(t)

	// Unknown id
	code := postJSON(t, ts.srv.URL+"/api/v1/operations/999/revert", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Target missing -> conflict
	op := ts.movedRecord(t, "b1", filepath.Join(ts.dir, "a", "x.txt"), filepath.Join(ts.dir, "b", "x.txt"))
	require.NoError(t, os.Remove(op.TargetPath))

	var outcome models.RevertOutcome
	code = postJSON(t, ts.srv.URL+"/api/v1/operations/"+itoa(op.ID)+"/revert", &outcome)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, models.TargetMissing, outcome.Reason)

	// Volume unreachable -> service unavailable
	op2 := ts.movedRecord(t, "b2",
		filepath.Join(ts.dir, "vols", "usb", "x.txt"),
		filepath.Join(ts.dir, "b", "y.txt"))
	code = postJSON(t, ts.srv.URL+"/api/v1/operations/"+itoa(op2.ID)+"/revert", &outcome)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, models.VolumeUnreachable, outcome.Reason)
}

func TestHandler_RevertBatchAndProgress(t *testing.T) {
	ts := newTestServer(t)
	ts.movedRecord(t, "batch", filepath.Join(ts.dir, "a", "1.txt"), filepath.Join(ts.dir, "b", "1.txt"))
	ts.movedRecord(t, "batch", filepath.Join(ts.dir, "a", "2.txt"), filepath.Join(ts.dir, "b", "2.txt"))

	var ack map[string]any
	code := postJSON(t, ts.srv.URL+"/api/v1/batches/batch/revert", &ack)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, float64(2), ack["total"])

	// Poll until the background revert finishes.
	deadline := time.Now().Add(5 * time.Second)
	var progress models.BatchProgress
	for {
		code = getJSON(t, ts.srv.URL+"/api/v1/batches/batch/revert/progress", &progress)
		require.Equal(t, http.StatusOK, code)
		if progress.Done {
			break
		}
		require.True(t, time.Now().Before(deadline), "batch revert did not finish in time")
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, 2, progress.Reverted)
	assert.Equal(t, 0, progress.Failed)
	assert.FileExists(t, filepath.Join(ts.dir, "a", "1.txt"))
	assert.FileExists(t, filepath.Join(ts.dir, "a", "2.txt"))
}

func TestHandler_RevertBatchNotFound(t *testing.T) {
	ts := newTestServer(t)

	code := postJSON(t, ts.srv.URL+"/api/v1/batches/nope/revert", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = getJSON(t, ts.srv.URL+"/api/v1/batches/nope/revert/progress", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
