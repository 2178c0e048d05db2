package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ballpit/internal/config"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	bodies   int
	strategy string
	tick     time.Duration
	jitter   time.Duration
	seed     uint64
	diagPath string

	duration time.Duration
	sample   time.Duration

	exportFormat string
	exportOut    string
)

// main registers the ballpit commands and exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "ballpit",
		Short:         "concurrent bouncing-body simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ballpit", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log encoding (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and record it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addEngineFlags(runCmd)
	addTimingFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy, speed and overlaps of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, svg)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tRADIUS\tMAX SPEED\tSTRATEGY\tTICK")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\t%s\n",
					name,
					cfg.Spawn.Count,
					cfg.Body.Radius,
					cfg.Body.MaxSpeed,
					cfg.Schedule.Strategy,
					cfg.Schedule.Tick,
				)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, initCmd)
	rootCmd.AddCommand(newBatchCommands()...)
	rootCmd.AddCommand(newAnalyzeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&bodies, "bodies", config.DefaultCount, "number of bodies")
	cmd.Flags().StringVar(&strategy, "strategy", "shared", "scheduling strategy (shared, per_body)")
	cmd.Flags().DurationVar(&tick, "tick", config.DefaultTick, "tick period")
	cmd.Flags().DurationVar(&jitter, "jitter", 0, "max extra interval per body driver")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&diagPath, "diag", "", "append per-step diagnostics to this file")
}

// loadConfig layers defaults, preset, config file and explicitly set flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("bodies") {
		cfg.Spawn.Count = bodies
	}
	if flags.Changed("strategy") {
		cfg.Schedule.Strategy = strategy
	}
	if flags.Changed("tick") {
		cfg.Schedule.Tick = tick
	}
	if flags.Changed("jitter") {
		cfg.Schedule.Jitter = jitter
	}
	if flags.Changed("seed") {
		cfg.Spawn.Seed = seed
	}
	if flags.Changed("diag") {
		cfg.Diag.Enabled = diagPath != ""
		cfg.Diag.Path = diagPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Encoding = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
