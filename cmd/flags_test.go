package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/store"
)

func parseBenchFlags(t *testing.T, args ...string) (bench.Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var f benchFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f.resolve(fs)
}

func TestBenchFlags_Defaults(t *testing.T) {
	cfg, err := parseBenchFlags(t)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	def := bench.DefaultConfig()
	if cfg.BlockSize != def.BlockSize || cfg.SearchRange != def.SearchRange || cfg.PyramidKernel != def.PyramidKernel {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestBenchFlags_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"block_size": 8, "search_range": 4, "workers": 2}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseBenchFlags(t, "--config", path, "--range", "12", "--inclusive-bounds")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.BlockSize != 8 {
		t.Errorf("Block size from file should be kept, got %d", cfg.BlockSize)
	}
	if cfg.SearchRange != 12 {
		t.Errorf("Range flag should override the file, got %d", cfg.SearchRange)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers from file should be kept, got %d", cfg.Workers)
	}
	if !cfg.InclusiveBounds {
		t.Error("inclusive-bounds flag should be applied")
	}
}

func TestBenchFlags_Invalid(t *testing.T) {
	if _, err := parseBenchFlags(t, "--block-size", "2"); err == nil {
		t.Error("Expected error for block size below minimum")
	}
	if _, err := parseBenchFlags(t, "--kernel", "lanczos"); err == nil {
		t.Error("Expected error for unknown kernel")
	}
	if _, err := parseBenchFlags(t, "--config", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestSourceArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		flag    string
		want    string
		wantErr bool
	}{
		{"positional", []string{"clip.y4m"}, "", "clip.y4m", false},
		{"flag", nil, "frames/", "frames/", false},
		{"both", []string{"clip.y4m"}, "frames/", "", true},
		{"neither", nil, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sourceArg(tt.args, tt.flag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("sourceArg error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("sourceArg = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLocale(t *testing.T) {
	if _, err := parseLocale("de-DE"); err != nil {
		t.Errorf("de-DE should parse: %v", err)
	}
	if _, err := parseLocale("not a locale"); err == nil {
		t.Error("Expected error for invalid locale")
	}
}

func TestCompareCommand_SavesRun(t *testing.T) {
	dataDir := t.TempDir()
	dumps := filepath.Join(t.TempDir(), "dumps")

	rootCmd.SetArgs([]string{"compare", "synthetic:32x32:1,0:3",
		"--strategies", "tss,ds", "--json", "--save", "--data-dir", dataDir, "--dump-dir", dumps})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	infos, err := runStore.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 stored run, got %d", len(infos))
	}
	if got := infos[0].Strategies; len(got) != 2 || got[0] != "step" || got[1] != "diamond" {
		t.Errorf("Expected canonical strategy names, got %v", got)
	}

	// Two strategies over two frame pairs.
	pngs, _ := filepath.Glob(filepath.Join(dumps, "*.png"))
	if len(pngs) != 4 {
		t.Errorf("Expected 4 dumped frames, got %d", len(pngs))
	}
}
