// Package handlers provides HTTP handlers for parameter sweeps.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	ancillahandlers "github.com/aristath/snailsolver/internal/modules/ancilla/handlers"
	"github.com/aristath/snailsolver/internal/modules/epr"
	"github.com/aristath/snailsolver/internal/modules/sweep"
)

// Sweep kinds.
const (
	KindAncilla = "ancilla"
	KindCircuit = "circuit"
)

// DefaultCircuitFockTrunc is the per-mode truncation of circuit sweeps that
// do not set fock_trunc.
const DefaultCircuitFockTrunc = 10

// Range is an arange-style list specification.
type Range struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Step  float64 `json:"step"`
}

// SubmitRequest describes a sweep. Either the explicit lists or the ranges
// must be given for each axis.
type SubmitRequest struct {
	Kind        string          `json:"kind"`
	N           int             `json:"n"`
	Alphas      []float64       `json:"alphas,omitempty"`
	AlphaRange  *Range          `json:"alpha_range,omitempty"`
	PhiExts     []float64       `json:"phi_exts,omitempty"`
	PhiExtRange *Range          `json:"phi_ext_range,omitempty"`
	Workers     int             `json:"workers,omitempty"`
	FockTrunc   int             `json:"fock_trunc,omitempty"`
	Frequency   float64         `json:"frequency,omitempty"`
	Inductance  float64         `json:"lj,omitempty"`
	EPR         *epr.Parameters `json:"epr,omitempty"`
	CavityMode  int             `json:"cavity_mode,omitempty"`
}

// GridResponse is a grid with NaN cells as null.
type GridResponse struct {
	Rows int          `json:"rows"`
	Cols int          `json:"cols"`
	Data [][]*float64 `json:"data"`
}

// Handlers provides HTTP handlers for the sweep API
type Handlers struct {
	service  *sweep.Service
	defaults ancilla.Options
	log      zerolog.Logger
}

// NewHandlers creates sweep handlers
func NewHandlers(service *sweep.Service, defaults ancilla.Options, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:  service,
		defaults: defaults,
		log:      log.With().Str("component", "sweep_handlers").Logger(),
	}
}

func axis(values []float64, rng *Range, name string) ([]float64, error) {
	if len(values) > 0 {
		return values, nil
	}
	if rng == nil {
		return nil, fmt.Errorf("%s or %s_range is required", name, name)
	}
	return sweep.Arange(rng.Start, rng.Stop, rng.Step)
}

func (h *Handlers) evaluator(req SubmitRequest) (sweep.Evaluator, error) {
	if req.FockTrunc < 0 || req.FockTrunc > ancillahandlers.MaxFockTrunc {
		return nil, fmt.Errorf("fock_trunc must be at most %d", ancillahandlers.MaxFockTrunc)
	}
	opts := h.defaults
	if req.FockTrunc > 0 {
		opts.FockTrunc = req.FockTrunc
	}

	switch req.Kind {
	case KindAncilla, "":
		if !(req.Frequency > 0) || !(req.Inductance > 0) {
			return nil, errors.New("frequency and lj are required for ancilla sweeps")
		}
		return &sweep.AncillaEvaluator{Frequency: req.Frequency, Inductance: req.Inductance, Options: opts}, nil
	case KindCircuit:
		if req.EPR == nil {
			return nil, errors.New("epr parameters are required for circuit sweeps")
		}
		trunc := req.FockTrunc
		if trunc == 0 {
			trunc = DefaultCircuitFockTrunc
		}
		ev, err := sweep.NewCircuitEvaluator(*req.EPR, trunc, req.CavityMode)
		if err != nil {
			return nil, err
		}
		ev.Options = opts
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown sweep kind %q", req.Kind)
	}
}

// HandleSubmit starts a sweep
// POST /api/sweeps
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alphas, err := axis(req.Alphas, req.AlphaRange, "alphas")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	phiExts, err := axis(req.PhiExts, req.PhiExtRange, "phi_exts")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cells, limit := len(alphas)*len(phiExts), h.service.MaxGridCells(); cells > limit {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("grid has %d cells, limit %d", cells, limit))
		return
	}
	ev, err := h.evaluator(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = KindAncilla
	}
	id, err := h.service.Submit(r.Context(), kind, sweep.Request{
		N:       req.N,
		Alphas:  alphas,
		PhiExts: phiExts,
		Workers: req.Workers,
	}, ev)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     id,
		"status": sweep.StatusRunning,
		"shape":  []int{len(alphas), len(phiExts)},
	})
}

// HandleList lists recent sweeps
// GET /api/sweeps?limit=20
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.service.Repository().List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list sweeps")
		h.respondError(w, http.StatusInternalServerError, "Failed to list sweeps")
		return
	}
	if records == nil {
		records = []sweep.Record{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sweeps": records,
		"count":  len(records),
	})
}

// HandleGet returns one sweep with its grids
// GET /api/sweeps/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.service.Repository().Get(r.Context(), id)
	if errors.Is(err, sweep.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "Sweep not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to load sweep")
		h.respondError(w, http.StatusInternalServerError, "Failed to load sweep")
		return
	}

	grids := make(map[string]GridResponse)
	var failures []sweep.Failure
	if rec.Result != nil {
		for name, g := range rec.Result.Grids {
			grids[name] = toGridResponse(g)
		}
		failures = rec.Result.Failures
	}
	if failures == nil {
		failures = []sweep.Failure{}
	}
	rec.Result = nil

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sweep":       rec,
		"observables": grids,
		"failures":    failures,
	})
}

func toGridResponse(g sweep.Grid) GridResponse {
	out := GridResponse{Rows: g.Rows, Cols: g.Cols, Data: make([][]*float64, g.Rows)}
	for r, row := range g.Matrix() {
		out.Data[r] = make([]*float64, len(row))
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			out.Data[r][c] = &v
		}
	}
	return out
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}

// RegisterRoutes registers the sweep routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/sweeps", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
	})
}
