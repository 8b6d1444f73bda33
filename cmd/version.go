package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("motionbench version %s (%s/%s, avx2=%t)\n", version, runtime.GOOS, runtime.GOARCH, cpu.X86.HasAVX2)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
