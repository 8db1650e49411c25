package main

import (
	"github.com/spf13/cobra"
)

var rootFlags struct {
	mapFile      string
	scenarioFile string
	configFile   string
	seed         int64
	verbose      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hetmapf",
		Short:         "Heterogeneous multi-agent pathfinder",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&rootFlags.mapFile, "map", "", "path to a map file")
	root.PersistentFlags().StringVar(&rootFlags.scenarioFile, "scenario", "", "path to a scenario file")
	root.PersistentFlags().StringVar(&rootFlags.configFile, "config", "", "path to a config file (viper-compatible)")
	root.PersistentFlags().Int64Var(&rootFlags.seed, "seed", 0, "RNG seed")
	root.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newSolveCmd())
	root.AddCommand(newStepCmd())
	root.AddCommand(newValidateCmd())

	return root
}
