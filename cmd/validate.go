package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hems/app"
	"github.com/kilianp07/hems/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and print the assembled component tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		s, err := app.Assemble(context.Background(), cfg, nil, nil, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s\n", s.Mode())
		fmt.Fprintf(out, "horizon: %d steps of %s\n", cfg.Simulation.Steps, cfg.Simulation.Timestep)
		for i, name := range s.Components() {
			fmt.Fprintf(out, "%2d %s\n", i, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
