package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/economy"
	"github.com/talgya/tradesim/internal/engine"
	"github.com/talgya/tradesim/internal/metrics"
	"github.com/talgya/tradesim/internal/persistence"
)

type fakeStore struct {
	runs []persistence.Run
	txs  map[string][]persistence.Transaction
	err  error
}

func (f *fakeStore) Runs(limit int) ([]persistence.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeStore) Transactions(runID string) ([]persistence.Transaction, error) {
	return f.txs[runID], f.err
}

func snapshot(util float64) *engine.Snapshot {
	return &engine.Snapshot{
		Depth:         2,
		GlobalUtility: util,
		Path: []engine.Step{
			{Depth: 1, Action: economy.Transfer{From: "A", To: "B", Resource: "Water", Amount: 50}, Score: 1, GlobalUtility: util},
		},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusAndBest(t *testing.T) {
	p := NewProgress()
	p.Start("r1", 1, 2.0)
	p.Start("r2", 2, 2.0)
	p.Step("r1", engine.StepResult{State: engine.StateAtNode, Depth: 2, GlobalUtility: 2.5, Committed: &engine.Step{}}, 9)
	p.Best("r1", snapshot(2.5))
	p.Best("r2", snapshot(3.0))
	p.Finish("r2", engine.Summary{Terminated: true, Stats: engine.Stats{Steps: 4}})
	p.Start("r3", 3, 2.0)
	p.Fail("r3", engine.Summary{Stats: engine.Stats{Steps: 2}}, errors.New("node log: disk full"))

	h := (&Server{Progress: p}).Handler()

	rec := get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Runs     []RunStatus `json:"runs"`
		Finished int         `json:"finished"`
		Failed   int         `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Len(t, status.Runs, 3)
	assert.Equal(t, "r1", status.Runs[0].RunID)
	assert.Equal(t, 1, status.Runs[0].Commits)
	assert.Equal(t, 9, status.Runs[0].Remaining)
	assert.Equal(t, 2, status.Finished)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, "terminated", status.Runs[1].State)
	assert.True(t, status.Runs[2].Done)
	assert.Equal(t, "node log: disk full", status.Runs[2].Error)
	assert.Empty(t, status.Runs[1].Error)

	// Without a run id the best run wins.
	rec = get(t, h, "/api/v1/best")
	require.Equal(t, http.StatusOK, rec.Code)
	var best struct {
		Run  RunStatus            `json:"run"`
		Path []engine.Transaction `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, "r2", best.Run.RunID)
	require.Len(t, best.Path, 1)
	assert.Equal(t, "Transfer", best.Path[0].ActionType)

	rec = get(t, h, "/api/v1/best?run=r1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, 2.5, best.Run.BestUtility)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/best?run=nope").Code)
}

func TestBestWithoutRuns(t *testing.T) {
	h := (&Server{Progress: NewProgress()}).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/best").Code)
}

func TestRunsEndpoints(t *testing.T) {
	store := &fakeStore{
		runs: []persistence.Run{{ID: "a"}, {ID: "b"}},
		txs:  map[string][]persistence.Transaction{"a": {{Seq: 0, ActionType: "Create"}}},
	}
	h := (&Server{Progress: NewProgress(), Store: store}).Handler()

	rec := get(t, h, "/api/v1/runs?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []persistence.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	rec = get(t, h, "/api/v1/runs/a")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action_type": "Create"`)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/runs/a/b").Code)

	store.err = errors.New("disk full")
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/v1/runs").Code)

	noStore := (&Server{Progress: NewProgress()}).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, noStore, "/api/v1/runs").Code)
}

func TestStopRequiresToken(t *testing.T) {
	stopped := false
	s := &Server{Progress: NewProgress(), AdminKey: "secret", Stop: func() { stopped = true }}
	h := s.Handler()

	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stop", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/v1/stop").Code)
	assert.Equal(t, http.StatusUnauthorized, post("wrong"))
	assert.False(t, stopped)
	assert.Equal(t, http.StatusOK, post("secret"))
	assert.True(t, stopped)

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post("secret"))
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveBest("r1", snapshot(1.5))
	h := (&Server{Progress: NewProgress(), Metrics: m}).Handler()

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `tradesim_search_best_global_utility{run="r1"} 1.5`))
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.Equal(t, 61, rl.RetryAfter("1.2.3.4"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	assert.Equal(t, "9.9.9.9", clientIP(req))
}
