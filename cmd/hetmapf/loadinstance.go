package main

import (
	"fmt"
	"os"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
	"github.com/elektrokombinacija/hetmapf/internal/scenario"
)

func loadInstance(mapPath, scenarioPath string) (*fleet.Instance, error) {
	mapLines, err := readLines(mapPath)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	base, err := grid.NewFromMap(mapLines)
	if err != nil {
		return nil, fmt.Errorf("parsing map file: %w", err)
	}

	f, err := os.Open(scenarioPath)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file: %w", err)
	}
	defer f.Close()

	specs, err := scenario.Parse(f, scenario.Options{})
	if err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}

	return fleet.Build(base, specs), nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines, nil
}
