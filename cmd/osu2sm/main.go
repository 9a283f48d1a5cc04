package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/negamartin/osu2sm/cmd/osu2sm/commands"
	"github.com/negamartin/osu2sm/logger"
)

var rootCmd = &cobra.Command{
	Use:   "osu2sm",
	Short: "osu2sm - convert osu!mania beatmaps to StepMania simfiles",
	Long: `osu2sm converts osu!mania song libraries into StepMania song packs.

A configurable pipeline loads beatmapsets, remaps them between keycounts,
rewrites note patterns, rates and selects difficulties, and writes .sm
simfiles.

Examples:
  osu2sm run                   # Run the pipeline from the nearest osu2sm.toml
  osu2sm run --watch           # Re-run whenever the config file changes
  osu2sm check                 # Validate the config and print the graph
  osu2sm version               # Show version information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if err := logger.Initialize(jsonLog, verbosity+1); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
