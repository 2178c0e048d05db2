package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ballpit/internal/analysis"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/storage"
)

var (
	analyzeBody int
	analyzeBins int
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "speed distribution, arena occupancy and one body's phase portrait",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	cmd.Flags().IntVar(&analyzeBody, "body", 0, "body id for the phase portrait")
	cmd.Flags().IntVar(&analyzeBins, "bins", 12, "speed histogram bins")
	return cmd
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	recorded, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(recorded) < 2 {
		return fmt.Errorf("run %s has %d samples, need at least 2", meta.ID, len(recorded))
	}

	frames := make([][]physics.BodyState, len(recorded))
	for i, f := range recorded {
		frames[i] = f.Bodies
	}
	interval := recorded[len(recorded)-1].Elapsed / time.Duration(len(recorded)-1)

	dist, err := analysis.SpeedDistribution(frames, analyzeBins)
	if err != nil {
		return err
	}
	fmt.Printf("run: %s  samples: %d  interval: %s\n\n", meta.ID, len(recorded), interval.Round(time.Millisecond))
	fmt.Printf("speed  mean %.3f  stddev %.3f  min %.3f  max %.3f\n", dist.Mean, dist.StdDev, dist.Min, dist.Max)
	fmt.Print(dist.Bars(40))

	fmt.Println("\noccupancy")
	fmt.Print(analysis.NewOccupancy(frames, meta.Arena, 40, 20).ASCII())

	for _, axis := range []analysis.Axis{analysis.AxisX, analysis.AxisY} {
		portrait := analysis.NewPhasePortrait(frames, analyzeBody, axis)
		if len(portrait.Points) == 0 {
			return fmt.Errorf("body %d not found in run %s", analyzeBody, meta.ID)
		}
		fmt.Printf("\nbody %d: %s vs v%s\n", analyzeBody, axis, axis)
		fmt.Print(portrait.ASCII(60, 12))
		if period := analysis.DominantPeriod(analysis.Track(frames, analyzeBody, axis), interval); period > 0 {
			fmt.Printf("dominant period along %s: %s\n", axis, period.Round(time.Millisecond))
		}
	}
	return nil
}
