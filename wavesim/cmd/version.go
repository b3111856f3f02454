package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the version of the WaveSim library.
var Version = "v1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of WaveSim",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("WaveSim " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
