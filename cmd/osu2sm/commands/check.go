package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/negamartin/osu2sm/conf"
	"github.com/negamartin/osu2sm/pipeline"
)

// CheckCmd validates the configuration without converting anything.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file and print the resolved pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFlag, _ := cmd.Flags().GetString("config")

		cfg, path, err := conf.Load(configFlag)
		if err != nil {
			return err
		}
		nodes, err := conf.LoadNodes(path)
		if err != nil {
			return err
		}
		resolved, err := pipeline.ResolveBuckets(nodes)
		if err != nil {
			return err
		}

		pterm.Success.Printfln("%s is valid", path)
		pterm.Info.Printfln("seed=%d parallelism=%d permissive=%v",
			cfg.Seed, cfg.Parallelism, cfg.Permissive)
		pterm.DefaultSection.Println("Resolved pipeline")
		for i, line := range pipeline.DescribeGraph(resolved) {
			pterm.Printfln("%2d. %s", i+1, line)
		}
		return nil
	},
}

func init() {
	CheckCmd.Flags().StringP("config", "c", "", "Config file (default: nearest osu2sm.toml)")
}
