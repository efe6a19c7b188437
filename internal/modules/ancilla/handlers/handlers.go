// Package handlers provides HTTP handlers for single ancilla analyses.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/spectrum"
)

var validate = validator.New()

// MaxFockTrunc bounds the Hamiltonian size a request may ask for.
const MaxFockTrunc = 200

// AnalyzeRequest describes one ancilla.
type AnalyzeRequest struct {
	N            int     `json:"n" validate:"gte=1"`
	Alpha        float64 `json:"alpha" validate:"gt=0,lt=1"`
	PhiExt       float64 `json:"phi_ext"`
	Inductance   float64 `json:"lj" validate:"gt=0"`
	Frequency    float64 `json:"frequency" validate:"gt=0"`
	FockTrunc    int     `json:"fock_trunc,omitempty" validate:"omitempty,gte=2,lte=200"`
	TaylorDegree int     `json:"taylor_degree,omitempty" validate:"omitempty,gte=4,lte=80"`
}

// AnalyzeResponse is the JSON form of ancilla.Summary plus the derived
// circuit quantities. Undefined values are null.
type AnalyzeResponse struct {
	JosephsonEnergy      float64  `json:"ej"`
	Capacitance          float64  `json:"capacitance"`
	ReducedZPF           float64  `json:"reduced_zpf"`
	FirstAnharmonicity   *float64 `json:"first_anharmonicity"`
	AverageAnharmonicity *float64 `json:"average_anharmonicity"`
	FockCutoff           int      `json:"fock_cutoff"`
	Reliable             bool     `json:"reliable"`
	CleanLevels          int      `json:"clean_levels"`
	A3                   float64  `json:"a3"`
	A4                   float64  `json:"a4"`
	PerturbativeKerr     float64  `json:"perturbative_kerr"`
}

// SpectrumResponse lists the clean spectrum relative to the ground state.
type SpectrumResponse struct {
	Levels             []float64 `json:"levels"`
	TransitionEnergies []float64 `json:"transition_energies"`
	Anharmonicities    []float64 `json:"anharmonicities"`
	DominantIndex      []int     `json:"dominant_index"`
	MeanExcitation     []float64 `json:"mean_excitation"`
}

// Handlers provides HTTP handlers for the ancilla API
type Handlers struct {
	defaults ancilla.Options
	log      zerolog.Logger
}

// NewHandlers creates ancilla handlers using defaults for omitted numerical
// parameters.
func NewHandlers(defaults ancilla.Options, log zerolog.Logger) *Handlers {
	return &Handlers{
		defaults: defaults,
		log:      log.With().Str("component", "ancilla_handlers").Logger(),
	}
}

func (h *Handlers) build(w http.ResponseWriter, r *http.Request) (*ancilla.Ancilla, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	snail, err := element.NewSNAIL(element.Parameters{N: req.N, Alpha: req.Alpha, PhiExt: req.PhiExt}, 0)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	opts := h.defaults
	if req.FockTrunc > 0 {
		opts.FockTrunc = req.FockTrunc
	}
	if opts.FockTrunc > MaxFockTrunc {
		opts.FockTrunc = MaxFockTrunc
	}
	if req.TaylorDegree > 0 {
		opts.Expansion = expansion.Options{Degree: req.TaylorDegree}
	}

	a, err := ancilla.FromFrequencyAndInductance(snail, req.Frequency, req.Inductance, opts)
	if err != nil {
		h.respondComputeError(w, err)
		return nil, false
	}
	return a, true
}

// HandleAnalyze summarises the anharmonicities of one ancilla
// POST /api/ancilla/analyze
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	a, ok := h.build(w, r)
	if !ok {
		return
	}

	sum, err := a.AnalyzeAnharmonicities()
	if err != nil {
		h.respondComputeError(w, err)
		return
	}
	kerr, err := a.PerturbativeKerr()
	if err != nil {
		h.respondComputeError(w, err)
		return
	}

	d := a.Diagnostics()
	h.respondJSON(w, http.StatusOK, AnalyzeResponse{
		JosephsonEnergy:      d.JosephsonEnergy,
		Capacitance:          d.Capacitance,
		ReducedZPF:           d.ReducedZPF,
		FirstAnharmonicity:   Finite(sum.FirstAnharmonicity),
		AverageAnharmonicity: Finite(sum.AverageAnharmonicity),
		FockCutoff:           sum.FockCutoff,
		Reliable:             sum.Reliable,
		CleanLevels:          sum.CleanLevels,
		A3:                   sum.A3,
		A4:                   sum.A4,
		PerturbativeKerr:     kerr,
	})
}

// HandleSpectrum returns the clean spectrum of one ancilla
// POST /api/ancilla/spectrum
func (h *Handlers) HandleSpectrum(w http.ResponseWriter, r *http.Request) {
	a, ok := h.build(w, r)
	if !ok {
		return
	}

	clean, err := a.CleanSpectrum()
	if err != nil {
		h.respondComputeError(w, err)
		return
	}

	resp := SpectrumResponse{
		Levels:             clean.Relative(),
		TransitionEnergies: orEmpty(clean.TransitionEnergies()),
		Anharmonicities:    orEmpty(clean.Anharmonicities()),
		DominantIndex:      make([]int, clean.Len()),
		MeanExcitation:     make([]float64, clean.Len()),
	}
	for i := 0; i < clean.Len(); i++ {
		v := clean.Vector(i)
		resp.DominantIndex[i] = spectrum.DominantIndex(v)
		resp.MeanExcitation[i] = spectrum.MeanExcitation(v)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) respondComputeError(w http.ResponseWriter, err error) {
	var degErr *expansion.InvalidDegreeError
	if errors.As(err, &degErr) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Ancilla computation failed")
	h.respondError(w, http.StatusUnprocessableEntity, err.Error())
}

// Finite returns nil for NaN and infinities, which JSON cannot carry.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orEmpty(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
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

// RegisterRoutes registers the ancilla routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/ancilla", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/spectrum", h.HandleSpectrum)
	})
}
