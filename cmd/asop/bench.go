package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bgbg/asop/internal/objective"
	"github.com/bgbg/asop/internal/opt"
	"github.com/spf13/cobra"
)

var (
	benchName   string
	benchDims   int
	benchIters  int
	benchPop    int
	benchPoints int
	benchSeed   int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare ASOP against the Mayfly algorithm",
	Long: `Runs both optimizers on the same benchmark with the same evaluation budget
(iterations x population) and reports the best cost and wall time of each.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchName, "benchmark", "sphere", "Benchmark function, or \"all\"")
	benchCmd.Flags().IntVar(&benchDims, "dims", 2, "Number of dimensions")
	benchCmd.Flags().IntVar(&benchIters, "iters", 50, "Iterations (ASOP rounds)")
	benchCmd.Flags().IntVar(&benchPop, "pop", 30, "Population size (at least 20 for Mayfly)")
	benchCmd.Flags().IntVar(&benchPoints, "points", 200, "ASOP support points per dimension")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Random seed")
	rootCmd.AddCommand(benchCmd)
}

// benchRow is one optimizer's result on one benchmark.
type benchRow struct {
	benchmark string
	optimizer string
	cost      float64
	minimum   float64
	elapsed   time.Duration
}

type namedOptimizer struct {
	name string
	opt  opt.Optimizer
}

func benchOptimizers() []namedOptimizer {
	return []namedOptimizer{
		{"asop", opt.NewASOP(benchIters, benchPop, benchPoints, uint64(benchSeed))},
		{"mayfly", opt.NewMayfly(benchIters, benchPop, benchSeed)},
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	names := []string{benchName}
	if benchName == "all" {
		names = objective.Names()
	}

	var rows []benchRow
	for _, name := range names {
		b, err := objective.Lookup(name)
		if err != nil {
			return err
		}
		lower := make([]float64, benchDims)
		upper := make([]float64, benchDims)
		for i := range lower {
			lower[i], upper[i] = b.Lower, b.Upper
		}

		for _, o := range benchOptimizers() {
			start := time.Now()
			_, cost := o.opt.Run(b.Func, lower, upper, benchDims)
			elapsed := time.Since(start)

			slog.Info("Benchmark finished", "benchmark", b.Name, "optimizer", o.name, "cost", cost, "elapsed", elapsed)
			rows = append(rows, benchRow{b.Name, o.name, cost, b.Minimum, elapsed})
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BENCHMARK\tOPTIMIZER\tBEST COST\tMINIMUM (2D)\tTIME")
	fmt.Fprintln(w, "---------\t---------\t---------\t------------\t----")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.6g\t%.6g\t%s\n", r.benchmark, r.optimizer, r.cost, r.minimum, r.elapsed.Round(time.Millisecond))
	}
	return w.Flush()
}
