package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/snailsolver/internal/modules/epr"
	"github.com/aristath/snailsolver/internal/modules/sweep"
)

type rangeFlags struct {
	start, stop, step float64
}

func (r *rangeFlags) register(cmd *cobra.Command, name, unit string, start, stop, step float64) {
	cmd.Flags().Float64Var(&r.start, name+"-start", start, fmt.Sprintf("first %s%s", name, unit))
	cmd.Flags().Float64Var(&r.stop, name+"-stop", stop, fmt.Sprintf("exclusive end of the %s range%s", name, unit))
	cmd.Flags().Float64Var(&r.step, name+"-step", step, fmt.Sprintf("%s step%s", name, unit))
}

func (r *rangeFlags) values() ([]float64, error) {
	return sweep.Arange(r.start, r.stop, r.step)
}

type sweepOutput struct {
	Alphas      []float64               `json:"alphas"`
	PhiExts     []float64               `json:"phi_exts"`
	Observables map[string][][]*float64 `json:"observables"`
	Failures    []sweep.Failure         `json:"failures"`
}

func newSweepCmd(g *globalOptions) *cobra.Command {
	var (
		sf         snailFlags
		alphas     rangeFlags
		flux       rangeFlags
		freq       float64
		lj         float64
		workers    int
		eprPath    string
		cavityMode int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep alpha and external flux and grid the anharmonicities",
		Long: `Sweeps the junction ratio alpha and the external flux over a grid.

Without --epr every point is a single ancilla calibrated to --freq and --lj.
With --epr the ancilla is coupled to the modes of an EPR result and the Kerr
ladder of --cavity-mode is measured instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			as, err := alphas.values()
			if err != nil {
				return fmt.Errorf("alpha range: %w", err)
			}
			fs, err := flux.values()
			if err != nil {
				return fmt.Errorf("flux range: %w", err)
			}
			phis := make([]float64, len(fs))
			for i, f := range fs {
				phis[i] = 2 * math.Pi * f
			}

			opts := sf.options(g.log)
			opts.Observer = nil
			var ev sweep.Evaluator
			if eprPath != "" {
				params, err := epr.Load(eprPath)
				if err != nil {
					return err
				}
				ce, err := sweep.NewCircuitEvaluator(*params, sf.fockTrunc, cavityMode)
				if err != nil {
					return err
				}
				ce.Options = opts
				ev = ce
			} else {
				ev = &sweep.AncillaEvaluator{Frequency: freq, Inductance: lj, Options: opts}
			}

			req := sweep.Request{N: sf.n, Alphas: as, PhiExts: phis, Workers: workers}
			progress := sweep.NewProgressReporter(sweep.LogProgress(g.log))
			res, err := sweep.Run(cmd.Context(), req, ev, progress)
			if err != nil {
				return err
			}

			w, closeFn, err := g.writer(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			if g.jsonOut {
				return writeJSON(w, toSweepOutput(res))
			}
			return printSweep(w, res)
		},
	}
	sf.register(cmd, 30)
	alphas.register(cmd, "alpha", "", 0.1, 0.5, 0.05)
	flux.register(cmd, "flux", " in flux quanta", 0.3, 0.5, 0.05)
	cmd.Flags().Float64Var(&freq, "freq", 5.19381e9, "ancilla frequency in Hz")
	cmd.Flags().Float64Var(&lj, "lj", 11e-9, "junction inductance in H")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent evaluations, 0 for one per CPU")
	cmd.Flags().StringVar(&eprPath, "epr", "", "YAML file with EPR parameters")
	cmd.Flags().IntVar(&cavityMode, "cavity-mode", 0, "mode whose Kerr ladder is measured with --epr")
	return cmd
}

func toSweepOutput(res *sweep.Result) sweepOutput {
	out := sweepOutput{
		Alphas:      res.Alphas,
		PhiExts:     res.PhiExts,
		Observables: make(map[string][][]*float64, len(res.Grids)),
		Failures:    res.Failures,
	}
	if out.Failures == nil {
		out.Failures = []sweep.Failure{}
	}
	for name, grid := range res.Grids {
		rows := grid.Matrix()
		cells := make([][]*float64, len(rows))
		for i, row := range rows {
			cells[i] = finiteSlice(row)
		}
		out.Observables[name] = cells
	}
	return out
}

func printSweep(w io.Writer, res *sweep.Result) error {
	names := make([]string, 0, len(res.Grids))
	for name := range res.Grids {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		grid := res.Grids[name]
		fmt.Fprintf(w, "%s (rows alpha, columns phi_ext)\n", name)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		header := "alpha\t"
		for _, phi := range res.PhiExts {
			header += fmt.Sprintf("%.4f\t", phi)
		}
		fmt.Fprintln(tw, header)
		for r, alpha := range res.Alphas {
			row := fmt.Sprintf("%.4f\t", alpha)
			for c := range res.PhiExts {
				v := grid.At(r, c)
				if math.IsNaN(v) {
					row += "-\t"
				} else {
					row += fmt.Sprintf("%.6g\t", v)
				}
			}
			fmt.Fprintln(tw, row)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "%d grid points failed:\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  alpha=%.4f phi_ext=%.4f: %s\n", f.Alpha, f.PhiExt, f.Message)
		}
	}
	return nil
}

