package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bgbg/asop/internal/asop"
	"github.com/bgbg/asop/internal/objective"
	"github.com/bgbg/asop/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	benchmark   string
	dims        int
	rounds      int
	pop         int
	points      int
	std         float64
	direction   string
	scaling     string
	seed        uint64
	patience    int
	threshold   float64
	dataDir     string
	runID       string
	resume      string
	snapshotInt int
	exportNPY   bool
	plot        bool
	jsonOut     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimize a benchmark function",
	Long: `Runs rounds of sampling and learning on a benchmark function and prints the
best solution found. With --data-dir the run's snapshot and per-round trace
are stored so it can be resumed with --resume or exported to NumPy files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runBenchmark(ctx, cmd, runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.benchmark, "benchmark", "sphere", "Benchmark function (sphere, rosenbrock, rastrigin, sines)")
	f.IntVar(&runOpts.dims, "dims", 2, "Number of dimensions")
	f.IntVar(&runOpts.rounds, "rounds", 100, "Maximum number of rounds")
	f.IntVar(&runOpts.pop, "pop", 50, "Solutions sampled per round")
	f.IntVar(&runOpts.points, "points", 200, "Support points per dimension")
	f.Float64Var(&runOpts.std, "std", 0, "Sampling std relative to the search range (0 = variable default)")
	f.StringVar(&runOpts.direction, "direction", "min", "Optimization direction: min or max")
	f.StringVar(&runOpts.scaling, "scaling", "auto", "Value scaling: none, auto[:yHigh], linear:a,b, tanh:x50,s, logistic:x50,s")
	f.Uint64Var(&runOpts.seed, "seed", 42, "Random seed (0 = nondeterministic)")
	f.IntVar(&runOpts.patience, "patience", 0, "Stop after this many rounds without improvement (0 = never)")
	f.Float64Var(&runOpts.threshold, "threshold", asop.DefaultConvergenceConfig().Threshold, "Relative improvement below which a round counts as stale")
	f.StringVar(&runOpts.dataDir, "data-dir", "", "Directory for snapshots and traces (empty = do not persist)")
	f.StringVar(&runOpts.runID, "run-id", "", "Run ID under --data-dir (default: random)")
	f.StringVar(&runOpts.resume, "resume", "", "Resume the run with this ID from --data-dir")
	f.IntVar(&runOpts.snapshotInt, "snapshot-every", 10, "Save a snapshot every N rounds (0 = only at the end)")
	f.BoolVar(&runOpts.exportNPY, "npy", false, "Export the final distributions as .npy files into the run directory")
	f.BoolVar(&runOpts.plot, "plot", false, "Print the final distributions as text plots")
	f.BoolVar(&runOpts.jsonOut, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(runCmd)
}

// buildRunOptimizer creates a fresh optimizer or, with o.resume, rebuilds one
// from the stored snapshot. A resumed run keeps the snapshot's dimensions,
// direction and scaling.
func buildRunOptimizer(o runOptions, bench objective.Benchmark, st *store.FSStore) (*asop.Optimizer, error) {
	if o.resume != "" {
		snap, err := st.LoadSnapshot(o.resume)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		return asop.FromSnapshot(asop.Func(bench.Func), snap)
	}

	direction, err := asop.ParseDirection(o.direction)
	if err != nil {
		return nil, err
	}
	policy, err := asop.ParseScaling(o.scaling)
	if err != nil {
		return nil, err
	}
	vars, err := bench.Variables(o.dims, o.points, o.std, o.seed)
	if err != nil {
		return nil, err
	}
	return asop.New(asop.Func(bench.Func), asop.Variables(vars...),
		asop.WithDirection(direction),
		asop.WithScaling(policy),
	)
}

func runBenchmark(ctx context.Context, cmd *cobra.Command, o runOptions) error {
	bench, err := objective.Lookup(o.benchmark)
	if err != nil {
		return err
	}

	var st *store.FSStore
	if o.dataDir != "" {
		st, err = store.NewFSStore(o.dataDir)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
	} else if o.resume != "" || o.exportNPY {
		return errors.New("--resume and --npy require --data-dir")
	}

	runID := o.runID
	switch {
	case o.resume != "":
		runID = o.resume
	case runID == "":
		runID = uuid.New().String()
	}

	opt, err := buildRunOptimizer(o, bench, st)
	if err != nil {
		return err
	}

	var trace *store.TraceWriter
	if st != nil {
		trace, err = store.NewTraceWriter(st.BaseDir(), runID, o.resume != "")
		if err != nil {
			return err
		}
		defer trace.Close()
		slog.Debug("Writing trace", "run_id", runID, "path", trace.Path())
	}

	convergence := asop.DisabledConvergenceConfig()
	if o.patience > 0 {
		convergence = asop.ConvergenceConfig{Enabled: true, Patience: o.patience, Threshold: o.threshold}
	}

	startRound := opt.Rounds()
	slog.Info("Starting optimization",
		"run_id", runID,
		"benchmark", bench.Name,
		"dimensions", opt.Dimensions(),
		"rounds", o.rounds,
		"population", o.pop,
		"resumed_at", startRound,
	)

	res, runErr := opt.Run(ctx, asop.RunConfig{
		Rounds:      o.rounds,
		Population:  o.pop,
		Convergence: convergence,
		Hook: func(info asop.RoundInfo) error {
			round := startRound + info.Round
			if trace != nil {
				if err := trace.Write(store.TraceEntry{
					Round:       round,
					Value:       info.RoundBest.Value,
					BestValue:   info.Best.Value,
					Evaluations: info.Evaluations,
					Timestamp:   time.Now(),
					Solution:    info.RoundBest.Solution,
				}); err != nil {
					return err
				}
			}
			if st != nil && o.snapshotInt > 0 && info.Round%o.snapshotInt == 0 {
				if err := st.SaveSnapshot(runID, opt.Snapshot(runID)); err != nil {
					return err
				}
				// Keep the trace on disk in step with the snapshot
				if err := trace.Flush(); err != nil {
					return err
				}
			}
			slog.Debug("Round completed", "round", round, "best_value", info.Best.Value)
			return nil
		},
	})

	// A partial run is still worth keeping
	if st != nil && opt.Rounds() > startRound {
		snap := opt.Snapshot(runID)
		if err := st.SaveSnapshot(runID, snap); err != nil {
			return err
		}
		if o.exportNPY {
			paths, err := store.ExportNPY(st.RunDir(runID), snap)
			if err != nil {
				return err
			}
			slog.Info("Exported distributions", "files", len(paths), "dir", st.RunDir(runID))
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			slog.Warn("Optimization interrupted", "rounds", res.Rounds)
		}
		return runErr
	}

	return printRunResult(cmd, o, runID, bench, res, opt)
}

func printRunResult(cmd *cobra.Command, o runOptions, runID string, bench objective.Benchmark, res asop.RunResult, opt *asop.Optimizer) error {
	out := cmd.OutOrStdout()
	if o.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID     string `json:"runId"`
			Benchmark string `json:"benchmark"`
			asop.RunResult
		}{runID, bench.Name, res})
	}

	fmt.Fprintf(out, "Run %s: %s in %d dimension(s)\n", runID, bench.Name, opt.Dimensions())
	fmt.Fprintf(out, "  Best value:  %.6g\n", res.Best.Value)
	fmt.Fprintf(out, "  Solution:    %v\n", res.Best.Solution)
	fmt.Fprintf(out, "  Rounds:      %d (converged: %v)\n", res.Rounds, res.Converged)
	fmt.Fprintf(out, "  Evaluations: %d in %s\n", res.Evaluations, res.Elapsed.Round(time.Millisecond))

	if o.plot {
		for _, v := range opt.Variables() {
			if p, ok := v.(interface{ Plot() string }); ok {
				fmt.Fprintln(out)
				fmt.Fprint(out, p.Plot())
			}
		}
	}
	return nil
}
