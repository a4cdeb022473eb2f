package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/recorder"
	"ContractTrader/internal/scheduler"
)

type fakeCycles struct {
	last    *model.CycleReport
	running bool
	runErr  error
	runs    int
}

func (f *fakeCycles) RunNow() (*model.CycleReport, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	f.runs++
	f.last = &model.CycleReport{ID: "cycle-1", Accounts: []model.AccountResult{{Account: "a", Status: model.AccountDone}}}
	return f.last, nil
}
func (f *fakeCycles) LastReport() *model.CycleReport { return f.last }
func (f *fakeCycles) Running() bool                  { return f.running }
func (f *fakeCycles) Cycles() int                    { return f.runs }

type fakeRecorder struct {
	recorder.NoopRecorder
	rows  []recorder.CycleSummary
	limit int
}

func (r *fakeRecorder) RecentCycles(limit int) ([]recorder.CycleSummary, error) {
	r.limit = limit
	return r.rows, nil
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := New(":0", &fakeCycles{}, nil, recorder.NewNoopRecorder())
	w := do(t, s.Router(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunCycleAndStatus(t *testing.T) {
	cycles := &fakeCycles{}
	h := New(":0", cycles, nil, recorder.NewNoopRecorder()).Router()

	w := do(t, h, http.MethodPost, "/cycle")
	require.Equal(t, http.StatusOK, w.Code)
	var rep model.CycleReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "cycle-1", rep.ID)

	w = do(t, h, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Cycles     int                `json:"cycles"`
		Running    bool               `json:"running"`
		LastReport *model.CycleReport `json:"last_report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Cycles)
	require.NotNil(t, status.LastReport)
	assert.Equal(t, model.AccountDone, status.LastReport.Accounts[0].Status)
}

func TestRunCycle_Conflict(t *testing.T) {
	h := New(":0", &fakeCycles{runErr: scheduler.ErrCycleRunning}, nil, recorder.NewNoopRecorder()).Router()
	w := do(t, h, http.MethodPost, "/cycle")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMetrics(t *testing.T) {
	mem := metrics.NewMemorySink(0)
	now := time.Now()
	for _, acct := range []string{"a", "b", "a"} {
		_ = mem.Emit(metrics.Emission{Name: metrics.ContractsSold, Dimensions: metrics.Dimensions{metrics.DimAccount: acct}, Value: metrics.Count(1), At: now})
	}
	_ = mem.Emit(metrics.Emission{Name: metrics.TradeRequest, Value: metrics.Count(1), At: now})
	h := New(":0", &fakeCycles{}, mem, recorder.NewNoopRecorder()).Router()

	var out []metrics.Emission
	w := do(t, h, http.MethodGet, "/metrics?"+url.Values{"name": {metrics.ContractsSold}, "account": {"a"}}.Encode())
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)

	w = do(t, h, http.MethodGet, "/metrics?limit=1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, metrics.TradeRequest, out[0].Name)

	w = do(t, h, http.MethodGet, "/metrics?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCycles(t *testing.T) {
	rec := &fakeRecorder{rows: []recorder.CycleSummary{{ID: "x", Done: 2}}}
	h := New(":0", &fakeCycles{}, nil, rec).Router()

	w := do(t, h, http.MethodGet, "/cycles?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []recorder.CycleSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Equal(t, 5, rec.limit)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Done)

	w = do(t, New(":0", &fakeCycles{}, nil, recorder.NewNoopRecorder()).Router(), http.MethodGet, "/cycles")
	assert.JSONEq(t, "[]", w.Body.String())
}
