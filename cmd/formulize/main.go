// Command formulize exposes the engine on the command line: one-shot
// equation solving, intersection-curve tracing, and an interactive stepper
// for derivation scripts.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	formulize "github.com/ericdai5/formulize-sub006"
)

var (
	flagVerbose bool
	flagVars    []string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error: ")+err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "formulize",
		Short:         "numeric relation solving and steppable derivations",
		Version:       formulize.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringArrayVar(&flagVars, "var", nil, "variable binding name=value (repeatable)")
	cmd.AddCommand(solveCmd(), traceCmd(), stepCmd())
	return cmd
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// parseVarFlags turns repeated --var name=value flags into Bindings.
func parseVarFlags() (formulize.Bindings, error) {
	b := formulize.Bindings{}
	for _, spec := range flagVars {
		name, val, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.Errorf("--var %q: want name=value", spec)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "--var %q", spec)
		}
		b[strings.TrimSpace(name)] = f
	}
	return b, nil
}

func solveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve RELATION TARGET",
		Short: "solve one relation for a target variable",
		Example: `  formulize solve "{K} = 0.5*{m}*{v}*{v}" K --var m=1 --var v=2
  formulize solve "{F} = {m}*{a}" a --var F=10 --var m=2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			relation, target := args[0], args[1]
			bindings, err := parseVarFlags()
			if err != nil {
				return err
			}
			ev := formulize.NewEvaluator()
			if !formulize.CanSolve(relation, target) {
				return errors.Errorf("relation does not reference %q", target)
			}
			res := formulize.SolveEquation(ev, relation, bindings, target)
			if !res.OK {
				return errors.Errorf("unsolvable for %q under the given bindings", target)
			}
			fmt.Printf("%s = %s\n", target, res)
			return nil
		},
	}
}

func traceCmd() *cobra.Command {
	var (
		from    float64
		to      float64
		samples int
	)
	cmd := &cobra.Command{
		Use:   "trace RELATION_A RELATION_B",
		Short: "sample the intersection curve of two surfaces in x, y, z",
		Example: `  formulize trace "{z} = {x} + {y}" "{z} = 2*{x} - {y}" --from -1 --to 1 --samples 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := parseVarFlags()
			if err != nil {
				return err
			}
			ev := formulize.NewEvaluator()
			curve := formulize.TraceCurve(ev, args[0], args[1], bindings, from, to, samples)
			gaps := 0
			for _, s := range curve {
				if s.Present {
					fmt.Printf("t=%- 10g %s\n", s.T, s.Point)
				} else {
					gaps++
					fmt.Printf("t=%- 10g %s\n", s.T, blue("gap"))
				}
			}
			if gaps == len(curve) {
				return errors.New("no intersection anywhere on the sampled range")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&from, "from", -1, "parameter range start")
	cmd.Flags().Float64Var(&to, "to", 1, "parameter range end")
	cmd.Flags().IntVar(&samples, "samples", 21, "number of samples across the range")
	return cmd
}

func stepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step FILE",
		Short: "step through a derivation script interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read script")
			}
			bindings, err := parseVarFlags()
			if err != nil {
				return err
			}
			return runREPL(string(src), bindings, newLogger())
		},
	}
}
