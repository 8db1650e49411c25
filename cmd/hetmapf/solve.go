package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/hetmapf/internal/config"
	"github.com/elektrokombinacija/hetmapf/internal/obslog"
	"github.com/elektrokombinacija/hetmapf/internal/planner"
)

func newSolveCmd() *cobra.Command {
	var deadline time.Duration
	var outFile string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run a full-horizon solve and print a solution summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.New().String()[:8]
			logger := obslog.NewLogger(rootFlags.verbose).With("run_id", runID)

			inst, err := loadInstance(rootFlags.mapFile, rootFlags.scenarioFile)
			if err != nil {
				return err
			}

			params, err := config.Load(rootFlags.configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			params.Verbose = rootFlags.verbose

			var dl time.Time
			if deadline > 0 {
				dl = time.Now().Add(deadline)
			}

			p, err := planner.New(inst, dl, rootFlags.seed, params, logger)
			if err != nil {
				return err
			}

			sol, err := p.Solve(context.Background())
			if sol != nil {
				fmt.Printf("feasible=%v makespan=%d expanded=%d goal_f=%.2f\n", sol.Feasible, sol.Makespan(), sol.Expanded, sol.GoalF)
			}
			if outFile != "" && sol != nil {
				if werr := writeSolutionJSON(outFile, sol); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&deadline, "deadline", 0, "wall-clock deadline for the search (0 = unlimited)")
	cmd.Flags().StringVar(&outFile, "out", "", "write the solution as JSON to this path")
	return cmd
}

func writeSolutionJSON(path string, sol *planner.Solution) error {
	data, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
