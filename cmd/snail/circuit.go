package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/circuit"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/epr"
	"github.com/aristath/snailsolver/internal/units"
)

type circuitResult struct {
	Parameters element.Parameters `json:"parameters"`
	Modes      []circuit.Mode     `json:"modes"`
	// Ladders[i] are the energies of 0..k excitations of mode i.
	Ladders   [][]float64    `json:"ladders"`
	SelfKerr  []*float64     `json:"self_kerr"`
	CrossKerr [][]*float64   `json:"cross_kerr"`
	States    []circuitState `json:"states"`
}

// circuitState is a low-lying eigenstate labelled by its dominant Fock state.
type circuitState struct {
	Energy     float64 `json:"energy"`
	Occupation []int   `json:"occupation"`
}

// lowStates is the number of eigenstates listed in circuit output.
const lowStates = 8

func newCircuitCmd(g *globalOptions) *cobra.Command {
	var (
		sf      snailFlags
		eprPath string
		levels  int
	)
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Couple a SNAIL to the modes of an EPR result and report Kerr shifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eprPath == "" {
				return errors.New("--epr is required")
			}
			params, err := epr.Load(eprPath)
			if err != nil {
				return err
			}
			snail, err := element.NewSNAIL(sf.parameters(), 0)
			if err != nil {
				return err
			}
			a, err := ancilla.FromFrequencyAndInductance(snail, params.AncillaFrequency(), params.Lj, sf.options(g.log))
			if err != nil {
				return err
			}
			c, err := circuit.New(a, params.Frequencies, params.ReducedZPF)
			if err != nil {
				return err
			}
			res, err := analyzeCircuit(c, sf.parameters(), levels)
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
			return printCircuit(w, res)
		},
	}
	sf.register(cmd, 8)
	cmd.Flags().StringVar(&eprPath, "epr", "", "YAML file with EPR parameters")
	cmd.Flags().IntVar(&levels, "levels", 4, "excitations per mode in the printed ladders")
	return cmd
}

func analyzeCircuit(c *circuit.Circuit, params element.Parameters, levels int) (*circuitResult, error) {
	modes := c.Modes()
	res := &circuitResult{
		Parameters: params,
		Modes:      modes,
		Ladders:    make([][]float64, len(modes)),
		SelfKerr:   make([]*float64, len(modes)),
		CrossKerr:  make([][]*float64, len(modes)),
	}
	for i, m := range modes {
		n := levels + 1
		if n > m.Truncation {
			n = m.Truncation
		}
		ladder, err := c.ModeLadder(i, n)
		if err != nil {
			return nil, err
		}
		res.Ladders[i] = ladder
		if len(ladder) >= 3 {
			res.SelfKerr[i] = finite(ladder[2] - 2*ladder[1] + ladder[0])
		}

		res.CrossKerr[i] = make([]*float64, len(modes))
		for j := range modes {
			if j == i {
				continue
			}
			chi, err := c.CrossKerr(i, j)
			if err != nil {
				return nil, err
			}
			res.CrossKerr[i][j] = finite(chi)
		}
	}

	s, err := c.Spectrum()
	if err != nil {
		return nil, err
	}
	for k := 0; k < s.Len() && k < lowStates; k++ {
		occ, err := c.DominantOccupation(k)
		if err != nil {
			return nil, err
		}
		res.States = append(res.States, circuitState{Energy: s.Values[k] - s.Values[0], Occupation: occ})
	}
	return res, nil
}

func printCircuit(w io.Writer, res *circuitResult) error {
	fmt.Fprintf(w, "SNAIL n=%d alpha=%g phi_ext=%.6f, %d modes\n\n", res.Parameters.N, res.Parameters.Alpha, res.Parameters.PhiExt, len(res.Modes))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "mode\tfrequency (GHz)\tphi_r\tself-Kerr (MHz)\t")
	for i, m := range res.Modes {
		fmt.Fprintf(tw, "%d\t%.6f\t%.5f\t%s\t\n", i, units.HzToGHz(m.Frequency), m.ReducedZPF, formatMHz(res.SelfKerr[i]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\ncross-Kerr (MHz)")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := "\t"
	for j := range res.Modes {
		header += fmt.Sprintf("%d\t", j)
	}
	fmt.Fprintln(tw, header)
	for i, row := range res.CrossKerr {
		line := fmt.Sprintf("%d\t", i)
		for _, v := range row {
			line += formatMHz(v) + "\t"
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nlowest states")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "state\tE - E0 (GHz)\toccupation\t")
	for k, st := range res.States {
		fmt.Fprintf(tw, "%d\t%.6f\t%v\t\n", k, units.HzToGHz(st.Energy), st.Occupation)
	}
	return tw.Flush()
}

func formatMHz(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", units.HzToMHz(*v))
}
