package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/hems/config"
	"github.com/kilianp07/hems/core/system"
)

var (
	steps      int
	exportPath string
	planPath   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the myopic dispatch over the configured horizon",
	RunE:  simulate,
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a precomputed dispatch plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWith(func(cfg *config.Config) {
			overrideOutputs(cfg)
			cfg.Simulation.Mode = string(system.ModeReplay)
			if planPath != "" {
				cfg.Simulation.Plan = planPath
			}
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, simulateCmd, replayCmd} {
		c.Flags().IntVar(&steps, "steps", 0, "override the number of steps")
		c.Flags().StringVarP(&exportPath, "export", "o", "", "write the result table to this file")
	}
	replayCmd.Flags().StringVarP(&planPath, "plan", "p", "", "dispatch plan file (json, yaml or csv)")
	rootCmd.AddCommand(simulateCmd, replayCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	return runWith(overrideOutputs)
}

func overrideOutputs(cfg *config.Config) {
	if steps > 0 {
		cfg.Simulation.Steps = steps
	}
	if exportPath != "" {
		cfg.Output.Export = exportPath
	}
}
