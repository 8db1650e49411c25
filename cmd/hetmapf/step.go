package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/hetmapf/internal/config"
	"github.com/elektrokombinacija/hetmapf/internal/obslog"
	"github.com/elektrokombinacija/hetmapf/internal/planner"
)

func newStepCmd() *cobra.Command {
	var budget int
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Drive the incremental solver, printing one committed config per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := obslog.NewLogger(rootFlags.verbose)

			inst, err := loadInstance(rootFlags.mapFile, rootFlags.scenarioFile)
			if err != nil {
				return err
			}

			params, err := config.Load(rootFlags.configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			p, err := planner.New(inst, time.Time{}, rootFlags.seed, params, logger)
			if err != nil {
				return err
			}

			ctx := context.Background()
			for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
				status, err := p.Search(ctx, budget)
				if err != nil {
					return err
				}
				next := p.ExtractNextStep()
				p.Advance(next)
				fmt.Printf("step %d (%s): %+v\n", i, status, next.Agents)

				switch status {
				case planner.GoalFound:
					return nil
				case planner.NoSolution:
					return planner.ErrNoSolution
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&budget, "budget", 100, "high-level expansions per step")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "maximum committed steps (0 = unlimited)")
	return cmd
}
