package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/opt"
	"github.com/cwbudde/motionbench/internal/source"
	"github.com/cwbudde/motionbench/internal/tune"
)

var (
	tuneFlags    benchFlags
	tuneSource   string
	tuneStrategy string
	lambda       float64
	iters        int
	popSize      int
	seed         int64
	tuneOutPath  string
)

var tuneCmd = &cobra.Command{
	Use:   "tune [source]",
	Short: "Tune early exit and texture cut points with mayfly optimization",
	Long: `Searches the early-exit threshold and the texture cut points of the
adaptive range selector, minimising -PSNR + lambda * search points per block
on the given frames. The tuned config can be passed back with --config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTune,
}

func init() {
	tuneFlags.register(tuneCmd.Flags())
	tuneCmd.Flags().StringVar(&tuneSource, "source", "", "Frame source (alternative to the positional argument)")
	tuneCmd.Flags().StringVar(&tuneStrategy, "strategy", tune.DefaultOptions().Strategy, "Strategy to tune")
	tuneCmd.Flags().Float64Var(&lambda, "lambda", tune.DefaultOptions().Lambda, "Cost of one search point per block in dB")
	tuneCmd.Flags().IntVar(&iters, "iters", 20, "Max optimizer iterations")
	tuneCmd.Flags().IntVar(&popSize, "pop", 20, "Population size (at least 20)")
	tuneCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	tuneCmd.Flags().StringVar(&tuneOutPath, "out", "", "Write the tuned config as JSON to this path")

	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	src, err := sourceArg(args, tuneSource)
	if err != nil {
		return err
	}
	cfg, err := tuneFlags.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	frames, err := source.Open(ctx, src, source.Options{MaxFrames: tuneFlags.maxFrames, Concurrency: cfg.Workers})
	if err != nil {
		return err
	}

	opts := tune.Options{Lambda: lambda, Strategy: tuneStrategy}
	tuner, err := tune.New(cfg, frames, opts, opt.NewMayfly(iters, popSize, seed))
	if err != nil {
		return err
	}

	slog.Info("Starting tuning", "source", src, "frames", len(frames), "strategy", tuneStrategy,
		"lambda", lambda, "iters", iters, "pop", popSize)

	start := time.Now()
	res, err := tuner.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tEarly exit\tLow cut\tHigh cut\tAvg PSNR (dB)\tAvg SP/MB\tCost")
	printTuneRow(w, "baseline", cfg, res.Baseline, res.BaselineCost)
	printTuneRow(w, "tuned", res.Config, res.Best, res.BestCost)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d evaluations in %s\n", res.Evaluations, bench.FormatDuration(elapsed))

	if tuneOutPath != "" {
		data, err := json.MarshalIndent(res.Config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		if err := os.WriteFile(tuneOutPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", tuneOutPath)
	}
	return nil
}

func printTuneRow(w *tabwriter.Writer, label string, cfg bench.Config, r bench.AlgorithmResult, cost float64) {
	fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.3f\t%.2f\t%.4f\n", label,
		cfg.EarlyExitThreshold, cfg.TextureRanges.LowCut, cfg.TextureRanges.HighCut,
		r.AvgPSNR, r.AvgSearchPointsPerBlock, cost)
}
