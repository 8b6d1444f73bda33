package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/source"
)

// benchFlags are the benchmark parameters shared by compare and tune.
type benchFlags struct {
	configPath      string
	blockSize       int
	searchRange     int
	earlyExit       int
	workers         int
	inclusiveBounds bool
	pyramidKernel   string
	maxFrames       int
}

func (f *benchFlags) register(fs *pflag.FlagSet) {
	def := bench.DefaultConfig()
	fs.StringVar(&f.configPath, "config", "", "JSON config file (flags override its values)")
	fs.IntVar(&f.blockSize, "block-size", def.BlockSize, "Block size in pixels")
	fs.IntVar(&f.searchRange, "range", def.SearchRange, "Search range in pixels")
	fs.IntVar(&f.earlyExit, "early-exit", def.EarlyExitThreshold, "Stop exhaustive search below this SAD")
	fs.IntVar(&f.workers, "workers", def.Workers, "Parallel block rows per frame pair")
	fs.BoolVar(&f.inclusiveBounds, "inclusive-bounds", def.InclusiveBounds, "Allow candidate blocks that touch the frame edge")
	fs.StringVar(&f.pyramidKernel, "kernel", def.PyramidKernel, "Pyramid downsampling kernel")
	fs.IntVar(&f.maxFrames, "max-frames", 0, "Read at most this many frames (0 = all)")
}

// resolve builds the config: defaults, then the config file, then every
// flag the user set explicitly.
func (f *benchFlags) resolve(fs *pflag.FlagSet) (bench.Config, error) {
	cfg := bench.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = bench.LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}

	if fs.Changed("block-size") {
		cfg.BlockSize = f.blockSize
	}
	if fs.Changed("range") {
		cfg.SearchRange = f.searchRange
	}
	if fs.Changed("early-exit") {
		cfg.EarlyExitThreshold = f.earlyExit
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("inclusive-bounds") {
		cfg.InclusiveBounds = f.inclusiveBounds
	}
	if fs.Changed("kernel") {
		cfg.PyramidKernel = f.pyramidKernel
	}

	return cfg, cfg.Validate()
}

// sourceArg returns the positional source or the --source flag value.
func sourceArg(args []string, flagValue string) (string, error) {
	switch {
	case len(args) > 0 && flagValue != "":
		return "", fmt.Errorf("source given both as argument and --source")
	case len(args) > 0:
		return args[0], nil
	case flagValue != "":
		return flagValue, nil
	}
	return "", fmt.Errorf("no source given (path to a .y4m file, an image directory or %sWxH:dx,dy:N)", source.SyntheticPrefix)
}

func parseLocale(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag, nil
}
