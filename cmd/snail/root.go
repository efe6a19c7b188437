package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/pkg/logger"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	logLevel string
	jsonOut  bool
	output   string

	log zerolog.Logger
}

// snailFlags describe one SNAIL and its numerical settings.
type snailFlags struct {
	n        int
	alpha    float64
	phiExt   float64
	fluxFrac float64

	fockTrunc int
	degree    int
}

func (f *snailFlags) register(cmd *cobra.Command, defaultTrunc int) {
	cmd.Flags().IntVar(&f.n, "n", 3, "number of large junctions")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0.32, "small to large junction ratio")
	cmd.Flags().Float64Var(&f.phiExt, "phi-ext", math.NaN(), "external flux phase in radians")
	cmd.Flags().Float64Var(&f.fluxFrac, "flux", 0.47, "external flux in flux quanta, used when --phi-ext is unset")
	cmd.Flags().IntVar(&f.fockTrunc, "fock-trunc", defaultTrunc, "Fock space truncation")
	cmd.Flags().IntVar(&f.degree, "degree", expansion.DefaultDegree, "Taylor degree of the potential")
}

func (f *snailFlags) parameters() element.Parameters {
	phi := f.phiExt
	if math.IsNaN(phi) {
		phi = 2 * math.Pi * f.fluxFrac
	}
	return element.Parameters{N: f.n, Alpha: f.alpha, PhiExt: phi}
}

func (f *snailFlags) options(log zerolog.Logger) ancilla.Options {
	return ancilla.Options{
		FockTrunc: f.fockTrunc,
		Expansion: expansion.Options{Degree: f.degree},
		Observer:  ancilla.NewLogObserver(log),
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:          "snail",
		Short:        "SNAIL ancilla spectrum solver",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.log = logger.New(logger.Config{
				Level:  g.logLevel,
				Pretty: true,
				Output: cmd.ErrOrStderr(),
			})
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "print results as JSON")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "", "write results to a file instead of stdout")

	root.AddCommand(
		newSpectrumCmd(g),
		newSweepCmd(g),
		newCircuitCmd(g),
		newEjSweepCmd(g),
	)
	return root
}

// writer returns the destination of command results and a function closing it.
func (g *globalOptions) writer(cmd *cobra.Command) (io.Writer, func() error, error) {
	if g.output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(g.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// finite maps NaN and infinities to nil so they encode as null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteSlice(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = finite(v)
	}
	return out
}
