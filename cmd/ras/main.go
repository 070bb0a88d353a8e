package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath     string
	propertiesPath string
)

var rootCmd = &cobra.Command{
	Use:           "ras",
	Short:         "ras - subscriber risk assessment batch and ops server",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "application config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&propertiesPath, "properties", "", "store and batch properties file (overrides Properties.Path)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(refreshViewCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(importHistoryCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ras %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Fprintf(out, "Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Fprintf(out, "Commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
