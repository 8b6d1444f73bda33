package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/source"
	"github.com/cwbudde/motionbench/internal/store"
)

var (
	compareFlags   benchFlags
	compareSource  string
	strategyNames  []string
	jsonOutput     bool
	saveRun        bool
	compareDataDir string
	dumpDir        string
	localeName     string
)

var compareCmd = &cobra.Command{
	Use:   "compare [source]",
	Short: "Compare motion estimation strategies on a frame sequence",
	Long: `Runs each strategy over every consecutive frame pair of the source and
prints average PSNR, runtime and search points per block.

The source is a YUV4MPEG2 (.y4m) file, a directory of images read in name
order, or a synthetic pan such as synthetic:64x64:2,1:10.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareFlags.register(compareCmd.Flags())
	compareCmd.Flags().StringVar(&compareSource, "source", "", "Frame source (alternative to the positional argument)")
	compareCmd.Flags().StringSliceVar(&strategyNames, "strategies", bench.DefaultStrategies, "Strategies to run, in order")
	compareCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	compareCmd.Flags().BoolVar(&saveRun, "save", false, "Store the run and its per-pair trace")
	compareCmd.Flags().StringVar(&compareDataDir, "data-dir", "./data", "Base directory for stored runs")
	compareCmd.Flags().StringVar(&dumpDir, "dump-dir", "", "Write every predicted frame as PNG to this directory")
	compareCmd.Flags().StringVar(&localeName, "locale", "en", "Locale for decimal numbers in the table")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	src, err := sourceArg(args, compareSource)
	if err != nil {
		return err
	}
	cfg, err := compareFlags.resolve(cmd.Flags())
	if err != nil {
		return err
	}
	tag, err := parseLocale(localeName)
	if err != nil {
		return err
	}

	names := make([]string, len(strategyNames))
	for i, name := range strategyNames {
		if names[i], err = bench.CanonicalName(name); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	frames, err := source.Open(ctx, src, source.Options{MaxFrames: compareFlags.maxFrames, Concurrency: cfg.Workers})
	if err != nil {
		return err
	}
	slog.Info("Loaded frames", "source", src, "frames", len(frames), "width", frames[0].Width, "height", frames[0].Height)

	driver, err := bench.NewDriver(cfg)
	if err != nil {
		return err
	}

	if dumpDir != "" {
		if err := os.MkdirAll(dumpDir, 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
		driver.Observe(func(ps bench.PairStats) {
			path := filepath.Join(dumpDir, fmt.Sprintf("%s_%04d.png", ps.Strategy, ps.Pair))
			if err := writePNG(path, ps); err != nil {
				slog.Warn("Failed to dump predicted frame", "path", path, "error", err)
			}
		})
	}

	var runStore *store.FSStore
	var run *store.Run
	if saveRun {
		if runStore, err = store.NewFSStore(compareDataDir); err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		run = store.NewRun(src, cfg, names)
		run.Frames = len(frames)
		run.Width, run.Height = frames[0].Width, frames[0].Height

		trace, err := runStore.CreateTrace(run.ID)
		if err != nil {
			return fmt.Errorf("failed to create trace: %w", err)
		}
		defer trace.Close()
		driver.Observe(func(ps bench.PairStats) {
			if err := trace.Write(store.EntryFromStats(ps)); err != nil {
				slog.Warn("Failed to write trace entry", "error", err)
			}
		})
	}

	results, err := driver.Compare(ctx, frames, names)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := bench.WriteJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s: %d frames, %dx%d, block %d, range %d\n\n",
			src, len(frames), frames[0].Width, frames[0].Height, cfg.BlockSize, cfg.SearchRange)
		if err := bench.WriteTable(os.Stdout, results, tag); err != nil {
			return err
		}
	}

	if run != nil {
		run.Results = results
		if err := runStore.SaveRun(run); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		if !jsonOutput {
			fmt.Printf("\nSaved run %s\n", run.ID)
		}
	}
	return nil
}

func writePNG(path string, ps bench.PairStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, ps.Predicted.Gray())
}
