package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/hetmapf/internal/planner"
	"github.com/elektrokombinacija/hetmapf/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var solutionFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a previously produced solution file against the core invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := loadInstance(rootFlags.mapFile, rootFlags.scenarioFile)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(solutionFile)
			if err != nil {
				return fmt.Errorf("reading solution file: %w", err)
			}
			var sol planner.Solution
			if err := json.Unmarshal(data, &sol); err != nil {
				return fmt.Errorf("parsing solution file: %w", err)
			}

			violations := validate.Solution(inst, sol.Configs)
			if len(violations) == 0 {
				fmt.Println("solution is valid")
				return nil
			}
			for _, v := range violations {
				fmt.Println(v.Error())
			}
			return fmt.Errorf("%d violation(s) found", len(violations))
		},
	}

	cmd.Flags().StringVar(&solutionFile, "solution", "", "path to a solution JSON file")
	cmd.MarkFlagRequired("solution")
	return cmd
}
