package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/snailsolver/internal/modules/sweep"
	"github.com/aristath/snailsolver/internal/units"
)

type ejPointOutput struct {
	JosephsonEnergy      float64   `json:"ej"`
	Frequency            float64   `json:"frequency"`
	FirstAnharmonicity   *float64  `json:"first_anharmonicity"`
	AverageAnharmonicity *float64  `json:"average_anharmonicity"`
	FockCutoff           int       `json:"fock_cutoff"`
	Reliable             bool      `json:"reliable"`
	Levels               []float64 `json:"levels"`
}

func newEjSweepCmd(g *globalOptions) *cobra.Command {
	var (
		sf          snailFlags
		ejs         rangeFlags
		capacitance float64
	)
	cmd := &cobra.Command{
		Use:   "ej-sweep",
		Short: "Sweep the Josephson energy of a SNAIL at fixed shunt capacitance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := ejs.values()
			if err != nil {
				return fmt.Errorf("ej range: %w", err)
			}
			opts := sf.options(g.log)
			points, err := sweep.SweepJosephsonEnergy(cmd.Context(), sf.parameters(), capacitance, values, opts)
			if err != nil {
				return err
			}

			out := make([]ejPointOutput, len(points))
			for i, p := range points {
				out[i] = ejPointOutput{
					JosephsonEnergy:      p.JosephsonEnergy,
					Frequency:            p.Frequency,
					FirstAnharmonicity:   finite(p.Summary.FirstAnharmonicity),
					AverageAnharmonicity: finite(p.Summary.AverageAnharmonicity),
					FockCutoff:           p.Summary.FockCutoff,
					Reliable:             p.Summary.Reliable,
					Levels:               p.Levels,
				}
			}

			w, closeFn, err := g.writer(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			if g.jsonOut {
				return writeJSON(w, out)
			}
			return printEjSweep(w, out)
		},
	}
	sf.register(cmd, 40)
	ejs.register(cmd, "ej", " in Hz", 5e10, 1.5e11, 2.5e10)
	cmd.Flags().Float64Var(&capacitance, "capacitance", 8.5364e-14, "shunt capacitance in F")
	return cmd
}

func printEjSweep(w io.Writer, points []ejPointOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Ej (GHz)\tfrequency (GHz)\tfirst anharm. (MHz)\taverage anharm. (MHz)\tcutoff\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%.3f\t%.6f\t%s\t%s\t%d\t\n",
			units.HzToGHz(p.JosephsonEnergy), units.HzToGHz(p.Frequency),
			formatMHz(p.FirstAnharmonicity), formatMHz(p.AverageAnharmonicity), p.FockCutoff)
	}
	return tw.Flush()
}
