// Package cmd provides the command-line interface for WaveSim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "wavesim",
	Short: "WaveSim CLI tool can perform common tasks related to running " +
		"discrete-event simulations with WaveSim.",
	Long: `WaveSim CLI tool can perform common tasks related to running ` +
		`discrete-event simulations with WaveSim. Currently, it supports ` +
		`running a demo simulation and reporting the library version.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file in the working directory can provide WAVESIM_MONITOR_PORT
	// and WAVESIM_OUTPUT. Missing files are fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
