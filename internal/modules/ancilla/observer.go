package ancilla

import "github.com/rs/zerolog"

// Diagnostics describes a constructed ancilla.
type Diagnostics struct {
	Frequency       float64 `json:"frequency"`
	Inductance      float64 `json:"lj"`
	Capacitance     float64 `json:"capacitance"`
	PhiZPF          float64 `json:"phi_zpf"`
	ReducedZPF      float64 `json:"reduced_zpf"`
	JosephsonEnergy float64 `json:"ej"`
	FockTrunc       int     `json:"fock_trunc"`
}

// Observer receives construction diagnostics.
type Observer interface {
	AncillaBuilt(Diagnostics)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Diagnostics)

func (f ObserverFunc) AncillaBuilt(d Diagnostics) { f(d) }

// LogObserver writes diagnostics as debug records.
type LogObserver struct {
	Logger zerolog.Logger
}

// NewLogObserver returns an observer tagged with the ancilla component.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{Logger: log.With().Str("component", "ancilla").Logger()}
}

func (o *LogObserver) AncillaBuilt(d Diagnostics) {
	o.Logger.Debug().
		Float64("freq_hz", d.Frequency).
		Float64("lj_h", d.Inductance).
		Float64("cap_f", d.Capacitance).
		Float64("phi_zpf", d.PhiZPF).
		Float64("phi_rzpf", d.ReducedZPF).
		Float64("ej_hz", d.JosephsonEnergy).
		Int("fock_trunc", d.FockTrunc).
		Msg("ancilla constructed")
}
