package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ballpit/internal/experiment"
	"github.com/san-kum/ballpit/internal/logging"
	"github.com/san-kum/ballpit/internal/sim"
)

var (
	gridEntries  []string
	metricName string
	runs       int
	parallel   int
)

func newBatchCommands() []*cobra.Command {
	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "repeat a configuration over consecutive seeds and summarize",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addEngineFlags(ensembleCmd)
	addTimingFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of seeds")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 0, "runs at once (0 uses GOMAXPROCS)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over engine parameters",
		Long: "Runs every combination of the --grid values and reports the one minimizing --metric.\n" +
			"Parameters: " + strings.Join(experiment.Params, ", "),
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addEngineFlags(sweepCmd)
	addTimingFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&gridEntries, "grid", nil, "parameter values, e.g. bodies=5,10,20 (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "overlaps", "metric to minimize")
	_ = sweepCmd.MarkFlagRequired("grid")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	return []*cobra.Command{ensembleCmd, sweepCmd, scenarioCmd}
}

// addTimingFlags binds --time and --sample. Every command shares the defaults
// because the flags write the same variables.
func addTimingFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&duration, "time", 3*time.Second, "how long each run lasts")
	cmd.Flags().DurationVar(&sample, "sample", 100*time.Millisecond, "snapshot interval")
}

func batchConfig(cmd *cobra.Command) (experiment.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return experiment.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return experiment.Config{}, nil, err
	}
	return experiment.Config{
		Engine:   cfg.Engine(),
		Count:    cfg.Spawn.Count,
		Duration: duration,
		Sample:   sample,
	}, log, nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	base, log, err := batchConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ens := experiment.NewEnsemble(base, runs, base.Engine.Seed, sim.WithLogger(log))
	ens.SetParallelism(parallel)
	log.Info("ensemble started", zap.Int("runs", runs), zap.Int("bodies", base.Count))

	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tCOLLISIONS\tKINETIC\tOVERLAPS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.4g\t%.0f\n",
			r.Seed, r.Stats.Steps, r.Stats.Collisions, r.Metrics["kinetic_energy"], r.Metrics["overlaps"])
	}
	w.Flush()
	fmt.Println()
	printSummary(experiment.Summarize(results))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, log, err := batchConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	names, ranges, err := experiment.ParseGrid(gridEntries)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	gs := experiment.NewGridSearch(names, ranges)
	best, all, err := gs.Search(ctx, base, metricName, sim.WithLogger(log))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, p := range all {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", p.Params[name])
		}
		if p.Err != nil {
			fmt.Fprintf(w, "error: %v\n", p.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", p.Result.Metrics[metricName])
	}
	w.Flush()
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", metricName, best.Result.Metrics[metricName])
	for _, k := range best.SortedKeys() {
		fmt.Printf(" %s=%g", k, best.Params[k])
	}
	fmt.Println()
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := experiment.LoadScenario(args[0])
	if err != nil {
		return err
	}
	opts := logging.DefaultOptions()
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFormat != "" {
		opts.Encoding = logFormat
	}
	log, err := logging.New(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, err := experiment.RunScenario(ctx, sc, log, sim.WithLogger(log))
	for _, sr := range results {
		name := sr.Step.Name
		if name == "" {
			name = sr.Step.Preset
		}
		fmt.Printf("== %s (%d runs)\n", name, len(sr.Results))
		printSummary(sr.Summary)
		fmt.Println()
	}
	return err
}

func printSummary(s experiment.Summary) {
	names := make([]string, 0, len(s.Mean))
	for name := range s.Mean {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMIN\tMAX")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\n", name, s.Mean[name], s.Min[name], s.Max[name])
	}
	w.Flush()
}
