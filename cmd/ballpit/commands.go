package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/diag"
	"github.com/san-kum/ballpit/internal/experiment"
	"github.com/san-kum/ballpit/internal/export"
	"github.com/san-kum/ballpit/internal/logging"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
	"github.com/san-kum/ballpit/internal/storage"
	"github.com/san-kum/ballpit/internal/viz"
)

// engineOptions returns the logger option plus a diagnostics sink when one is
// configured. runDir is where a sink without an explicit path writes.
func engineOptions(cfg *config.Config, log *zap.Logger, runDir string) ([]sim.Option, error) {
	opts := []sim.Option{sim.WithLogger(log)}
	if path := cfg.DiagPath(runDir); path != "" {
		sink, err := diag.Open(path, cfg.Diag.QueueSize, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sim.WithDiagnostics(sink))
		log.Info("diagnostics enabled", zap.String("path", path))
	}
	return opts, nil
}

func openEngine(cfg *config.Config, log *zap.Logger, runDir string, opts ...sim.Option) (*sim.Engine, error) {
	base, err := engineOptions(cfg, log, runDir)
	if err != nil {
		return nil, err
	}
	return sim.New(cfg.Engine(), append(base, opts...)...)
}

func logCreated(log *zap.Logger) sim.CreatedFunc {
	return func(pos physics.Vector, b *sim.Body) {
		log.Debug("body created",
			zap.Int("id", b.ID()),
			zap.String("color", b.Color().String()),
			zap.Stringer("pos", pos),
			zap.Stringer("vel", b.Velocity()),
		)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	engCfg := cfg.Engine()
	rec, err := st.Create(storage.RunMetadata{
		Preset:   preset,
		Strategy: cfg.Schedule.Strategy,
		Bodies:   cfg.Spawn.Count,
		Tick:     cfg.Schedule.Tick,
		Arena:    engCfg.Arena,
	})
	if err != nil {
		return err
	}
	log = log.With(zap.String("run", rec.Meta.ID))

	opts, err := engineOptions(cfg, log, st.Dir(rec.Meta.ID))
	if err != nil {
		return errors.Join(err, rec.Close())
	}
	exp := experiment.New(experiment.Config{
		Engine:   engCfg,
		Count:    cfg.Spawn.Count,
		Duration: duration,
		Sample:   sample,
	}, opts...)
	exp.OnCreated(logCreated(log))
	exp.OnFrame(func(elapsed time.Duration, frame []physics.BodyState) error {
		return rec.WriteFrame(storage.Frame{Elapsed: elapsed, Bodies: frame})
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := exp.Run(ctx)
	if res == nil {
		return errors.Join(runErr, rec.Close())
	}
	rec.Meta.Seed = res.Seed
	rec.Meta.Duration = res.Elapsed
	rec.Meta.Stats = res.Stats
	rec.Meta.Metrics = res.Metrics
	if err := rec.Close(); err != nil {
		return errors.Join(runErr, err)
	}

	fmt.Printf("run: %s\n", rec.Meta.ID)
	fmt.Printf("bodies: %d  strategy: %s  seed: %d\n", rec.Meta.Bodies, rec.Meta.Strategy, rec.Meta.Seed)
	fmt.Printf("samples: %d over %s\n", rec.Meta.Samples, res.Elapsed.Round(time.Millisecond))
	printMetrics(os.Stdout, rec.Meta.Metrics)

	return runErr
}

func printMetrics(w io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%.6g\n", name, values[name])
	}
	tw.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The live view owns the terminal, so logs go to a file next to the runs.
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	cfg.Log.Output = filepath.Join(dataDir, "live.log")
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	obs := sim.NewChannelObserver(4 * max(cfg.Spawn.Count, 64))
	eng, err := openEngine(cfg, log, dataDir, sim.WithPositionObserver(obs.OnPosition))
	if err != nil {
		return err
	}
	if err := eng.Start(cfg.Spawn.Count, logCreated(log)); err != nil {
		_ = eng.Dispose()
		return err
	}

	viewErr := viz.Run(eng, eng.Config().Arena, obs.Updates())
	runErr := eng.Dispose()
	log.Info("live view closed",
		zap.Uint64("updates", obs.Received()),
		zap.Uint64("dropped", obs.Dropped()),
	)
	return errors.Join(viewErr, runErr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTRATEGY\tBODIES\tDURATION\tSAMPLES\tSTEPS\tCOLLISIONS")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Strategy,
			run.Bodies,
			run.Duration.Round(time.Millisecond),
			run.Samples,
			run.Stats.Steps,
			run.Stats.Collisions,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("strategy: %s  bodies: %d\n", meta.Strategy, meta.Bodies)
	fmt.Printf("samples: %d\n\n", len(frames))

	series := []struct {
		caption string
		value   func([]physics.BodyState) float64
	}{
		{"total kinetic energy", metrics.TotalKineticEnergy},
		{"mean speed", metrics.MeanSpeed},
		{"overlapping pairs", func(f []physics.BodyState) float64 { return float64(metrics.CountOverlaps(f)) }},
	}

	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = s.value(f.Bodies)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		return export.JSON(w, *meta, frames)
	case "svg":
		_, err := io.WriteString(w, export.SVG(meta.Arena, frames, 1))
		return err
	default:
		return fmt.Errorf("unknown format: %s (want json or svg)", exportFormat)
	}
}
