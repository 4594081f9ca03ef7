package main

import (
	"github.com/spf13/cobra"

	"opsboard/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "opsboard",
		Short: "Opsboard is a task lifecycle and notification server for operations teams",
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newMigrateCmd(cfg, &jsonOutput),
		newSweepCmd(cfg, &jsonOutput),
		newUserAddCmd(cfg, &jsonOutput),
		newSeedCmd(cfg, &jsonOutput),
		newConfigCmd(),
	)

	return cmd
}
