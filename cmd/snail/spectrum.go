package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/units"
)

type spectrumResult struct {
	Parameters  element.Parameters  `json:"parameters"`
	Diagnostics ancilla.Diagnostics `json:"diagnostics"`

	FirstAnharmonicity   *float64 `json:"first_anharmonicity"`
	AverageAnharmonicity *float64 `json:"average_anharmonicity"`
	FockCutoff           int      `json:"fock_cutoff"`
	Reliable             bool     `json:"reliable"`
	A3                   float64  `json:"a3"`
	A4                   float64  `json:"a4"`
	PerturbativeKerr     *float64 `json:"perturbative_kerr"`

	Levels          []float64 `json:"levels"`
	Transitions     []float64 `json:"transitions"`
	Anharmonicities []float64 `json:"anharmonicities"`
}

func newSpectrumCmd(g *globalOptions) *cobra.Command {
	var (
		sf     snailFlags
		freq   float64
		lj     float64
		levels int
	)
	cmd := &cobra.Command{
		Use:   "spectrum",
		Short: "Diagonalize one SNAIL ancilla and report its anharmonicities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snail, err := element.NewSNAIL(sf.parameters(), 0)
			if err != nil {
				return err
			}
			a, err := ancilla.FromFrequencyAndInductance(snail, freq, lj, sf.options(g.log))
			if err != nil {
				return err
			}
			res, err := analyzeAncilla(a, sf.parameters())
			if err != nil {
				return err
			}

			w, closeFn, err := g.writer(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			if g.jsonOut {
				return writeJSON(w, res)
			}
			return printSpectrum(w, res, levels)
		},
	}
	sf.register(cmd, ancilla.DefaultFockTrunc)
	cmd.Flags().Float64Var(&freq, "freq", 5.19381e9, "ancilla frequency in Hz")
	cmd.Flags().Float64Var(&lj, "lj", 11e-9, "junction inductance in H")
	cmd.Flags().IntVar(&levels, "levels", 10, "number of levels to print")
	return cmd
}

func analyzeAncilla(a *ancilla.Ancilla, params element.Parameters) (*spectrumResult, error) {
	sum, clean, err := a.Analyze()
	if err != nil {
		return nil, err
	}
	kerr, err := a.PerturbativeKerr()
	if err != nil {
		return nil, err
	}
	return &spectrumResult{
		Parameters:           params,
		Diagnostics:          a.Diagnostics(),
		FirstAnharmonicity:   finite(sum.FirstAnharmonicity),
		AverageAnharmonicity: finite(sum.AverageAnharmonicity),
		FockCutoff:           sum.FockCutoff,
		Reliable:             sum.Reliable,
		A3:                   sum.A3,
		A4:                   sum.A4,
		PerturbativeKerr:     finite(kerr),
		Levels:               clean.Relative(),
		Transitions:          clean.TransitionEnergies(),
		Anharmonicities:      clean.Anharmonicities(),
	}, nil
}

func printSpectrum(w io.Writer, res *spectrumResult, levels int) error {
	d := res.Diagnostics
	fmt.Fprintf(w, "SNAIL n=%d alpha=%g phi_ext=%.6f\n", res.Parameters.N, res.Parameters.Alpha, res.Parameters.PhiExt)
	fmt.Fprintf(w, "Ej=%.6g Hz  C=%.6g F  phi_r=%.6g  fock_trunc=%d\n", d.JosephsonEnergy, d.Capacitance, d.ReducedZPF, d.FockTrunc)
	fmt.Fprintf(w, "first anharmonicity:   %s\n", formatHz(res.FirstAnharmonicity))
	fmt.Fprintf(w, "average anharmonicity: %s (cutoff %d, reliable %t)\n", formatHz(res.AverageAnharmonicity), res.FockCutoff, res.Reliable)
	fmt.Fprintf(w, "perturbative Kerr:     %s\n", formatHz(res.PerturbativeKerr))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "level\tenergy (GHz)\ttransition (GHz)\tanharmonicity (MHz)\t")
	for i := 0; i < len(res.Levels) && i < levels; i++ {
		row := fmt.Sprintf("%d\t%.6f\t", i, units.HzToGHz(res.Levels[i]))
		if i < len(res.Transitions) {
			row += fmt.Sprintf("%.6f\t", units.HzToGHz(res.Transitions[i]))
		} else {
			row += "\t"
		}
		if i < len(res.Anharmonicities) {
			row += fmt.Sprintf("%.3f\t", units.HzToMHz(res.Anharmonicities[i]))
		} else {
			row += "\t"
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func formatHz(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f MHz", units.HzToMHz(*v))
}

