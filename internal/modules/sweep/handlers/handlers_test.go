package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/epr"
	"github.com/aristath/snailsolver/internal/modules/sweep"
	testingpkg "github.com/aristath/snailsolver/internal/testing"
)

func newTestHandlers(t *testing.T) (http.Handler, *sweep.Service) {
	t.Helper()
	db := testingpkg.NewTestDB(t, "sweeps")

	svc := sweep.NewService(sweep.NewRepository(db.Conn(), zerolog.Nop()), 2, zerolog.Nop())
	r := chi.NewRouter()
	NewHandlers(svc, ancilla.Options{FockTrunc: 16}, zerolog.Nop()).RegisterRoutes(r)
	return r, svc
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestSubmitAndFetchSweep(t *testing.T) {
	h, svc := newTestHandlers(t)

	rec := do(t, h, http.MethodPost, "/sweeps", SubmitRequest{
		N:          3,
		AlphaRange: &Range{Start: 0.3, Stop: 0.33, Step: 0.02},
		PhiExts:    []float64{0.45 * 2 * math.Pi},
		Frequency:  5.19381e9,
		Inductance: 11e-9,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var submitted struct {
		ID    string `json:"id"`
		Shape []int  `json:"shape"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, []int{2, 1}, submitted.Shape)
	svc.Wait()

	rec = do(t, h, http.MethodGet, "/sweeps/"+submitted.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Sweep       sweep.Record            `json:"sweep"`
		Observables map[string]GridResponse `json:"observables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sweep.StatusCompleted, got.Sweep.Status)
	first := got.Observables[sweep.FirstAnharmonicity]
	assert.Equal(t, 2, first.Rows)
	assert.Equal(t, 1, first.Cols)

	rec = do(t, h, http.MethodGet, "/sweeps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), submitted.ID)
}

func TestSubmitRejects(t *testing.T) {
	h, _ := newTestHandlers(t)

	cases := []SubmitRequest{
		{N: 3, PhiExts: []float64{1}, Frequency: 5e9, Inductance: 1e-8},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}, Kind: "other"},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}, Kind: KindCircuit},
		{N: 0, Alphas: []float64{0.3}, PhiExts: []float64{1}, Frequency: 5e9, Inductance: 1e-8},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}, Frequency: 5e9, Inductance: 1e-8, FockTrunc: 100000},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}, Frequency: 5e9, Inductance: 1e-8, FockTrunc: -1},
		{N: 3, Alphas: []float64{0.3}, PhiExts: []float64{1}, Kind: KindCircuit, FockTrunc: 60, EPR: &epr.Parameters{
			Lj:          11e-9,
			Frequencies: []float64{5.19381e9, 7.2e9, 8.1e9},
			ReducedZPF:  []float64{0.35, 0.04, 0.02},
		}},
		{N: 3, AlphaRange: &Range{Start: 0.2, Stop: 0.4, Step: 1e-7}, PhiExts: []float64{1}, Frequency: 5e9, Inductance: 1e-8},
		{N: 3, AlphaRange: &Range{Start: 0, Stop: 1, Step: 0.001}, PhiExtRange: &Range{Start: 0, Stop: 1, Step: 0.001}, Frequency: 5e9, Inductance: 1e-8},
	}
	for i, c := range cases {
		rec := do(t, h, http.MethodPost, "/sweeps", c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "case %d: %s", i, rec.Body.String())
	}
}

func TestSubmitHonoursServiceGridLimit(t *testing.T) {
	h, svc := newTestHandlers(t)
	svc.SetMaxGridCells(2)

	rec := do(t, h, http.MethodPost, "/sweeps", SubmitRequest{
		N:          3,
		Alphas:     []float64{0.30, 0.31, 0.32},
		PhiExts:    []float64{1},
		Frequency:  5.19381e9,
		Inductance: 11e-9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit 2")
}

func TestGetUnknownSweep(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec := do(t, h, http.MethodGet, "/sweeps/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/sweeps?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToGridResponse(t *testing.T) {
	g := sweep.NewGrid(1, 2)
	g.Set(0, 1, 3)
	resp := toGridResponse(g)
	assert.Nil(t, resp.Data[0][0])
	require.NotNil(t, resp.Data[0][1])
	assert.Equal(t, 3.0, *resp.Data[0][1])
}
