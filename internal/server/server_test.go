package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/snailsolver/internal/config"
	"github.com/aristath/snailsolver/internal/modules/sweep"
	testingpkg "github.com/aristath/snailsolver/internal/testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := testingpkg.NewTestDB(t, "sweeps")

	cfg := &config.Config{
		DataDir:      t.TempDir(),
		LogLevel:     "error",
		Port:         0,
		DevMode:      true,
		Workers:      1,
		FockTrunc:    20,
		TaylorDegree: 40,
	}
	svc := sweep.NewService(sweep.NewRepository(db.Conn(), zerolog.Nop()), 1, zerolog.Nop())
	t.Cleanup(svc.Wait)

	return New(Config{Log: zerolog.Nop(), DB: db, Config: cfg, Sweeps: svc, DevMode: true})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestAPIRoutesMounted(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(map[string]interface{}{
		"n":         3,
		"alpha":     0.32,
		"phi_ext":   0.47 * 2 * math.Pi,
		"lj":        11e-9,
		"frequency": 5.19381e9,
	})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ancilla/analyze", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sweeps", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
