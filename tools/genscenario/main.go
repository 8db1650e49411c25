// Command genscenario emits a map file and a matching heterogeneous
// scenario file for a configurable mix of fleets, grid size, and obstacle
// density, deterministic given --seed.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
)

type fleetSpec struct {
	cellSize int
	count    int
}

func main() {
	var (
		seed        int64
		width       int
		height      int
		obstacleDen float64
		mapOut      string
		scenarioOut string
		unitAgents  int
		bigAgents   int
		bigCellSize int
	)

	flag.Int64Var(&seed, "seed", 1, "deterministic RNG seed")
	flag.IntVar(&width, "width", 16, "grid width")
	flag.IntVar(&height, "height", 16, "grid height")
	flag.Float64Var(&obstacleDen, "obstacle-density", 0.0, "fraction of base cells marked obstacle")
	flag.StringVar(&mapOut, "map-out", "scenario.map", "output map file path")
	flag.StringVar(&scenarioOut, "scenario-out", "scenario.txt", "output scenario file path")
	flag.IntVar(&unitAgents, "unit-agents", 4, "number of cell_size=1 agents")
	flag.IntVar(&bigAgents, "big-agents", 2, "number of larger-footprint agents")
	flag.IntVar(&bigCellSize, "big-cell-size", 2, "cell_size for the larger-footprint agents")
	flag.Parse()

	rng := rand.New(rand.NewSource(seed))

	obstacles := generateObstacles(rng, width, height, obstacleDen)
	if err := writeMap(mapOut, width, height, obstacles); err != nil {
		fmt.Fprintln(os.Stderr, "genscenario:", err)
		os.Exit(1)
	}

	specs := []fleetSpec{{cellSize: 1, count: unitAgents}}
	if bigAgents > 0 {
		specs = append(specs, fleetSpec{cellSize: bigCellSize, count: bigAgents})
	}

	lines, err := generateScenarioLines(rng, width, height, obstacles, specs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genscenario:", err)
		os.Exit(1)
	}
	if err := writeLines(scenarioOut, lines); err != nil {
		fmt.Fprintln(os.Stderr, "genscenario:", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s and %s (%d agents)\n", mapOut, scenarioOut, unitAgents+bigAgents)
}

func generateObstacles(rng *rand.Rand, width, height int, density float64) map[[2]int]bool {
	obstacles := make(map[[2]int]bool)
	if density <= 0 {
		return obstacles
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if rng.Float64() < density {
				obstacles[[2]int{x, y}] = true
			}
		}
	}
	return obstacles
}

func writeMap(path string, width, height int, obstacles map[[2]int]bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "type het-mapf\nheight %d\nwidth %d\nmap\n", height, width)
	for y := 0; y < height; y++ {
		row := make([]byte, width)
		for x := 0; x < width; x++ {
			if obstacles[[2]int{x, y}] {
				row[x] = 'T'
			} else {
				row[x] = '.'
			}
		}
		f.Write(row)
		f.Write([]byte{'\n'})
	}
	return nil
}

// generateScenarioLines picks disjoint, obstacle-free start and goal cells
// for each agent, uniformly at random among the fleet cells of the agent's
// cell size. Coordinates are written in fleet-graph units.
func generateScenarioLines(rng *rand.Rand, width, height int, obstacles map[[2]int]bool, specs []fleetSpec) ([]string, error) {
	used := make(map[[2]int]bool, len(obstacles))
	for k := range obstacles {
		used[k] = true
	}

	pick := func(cs int) ([2]int, error) {
		if cs < 1 || width/cs < 1 || height/cs < 1 {
			return [2]int{}, fmt.Errorf("cell_size %d does not fit a %dx%d grid", cs, width, height)
		}
		for attempt := 0; attempt < width*height*4; attempt++ {
			x, y := rng.Intn(width/cs), rng.Intn(height/cs)
			free := true
			for d := 0; d < cs*cs; d++ {
				free = free && !used[[2]int{x*cs + d%cs, y*cs + d/cs}]
			}
			if !free {
				continue
			}
			for d := 0; d < cs*cs; d++ {
				used[[2]int{x*cs + d%cs, y*cs + d/cs}] = true
			}
			return [2]int{x, y}, nil
		}
		return [2]int{}, fmt.Errorf("could not place an agent: grid too dense")
	}

	var lines []string
	agentID := 0
	for fleetID, spec := range specs {
		for i := 0; i < spec.count; i++ {
			start, err := pick(spec.cellSize)
			if err != nil {
				return nil, err
			}
			goal, err := pick(spec.cellSize)
			if err != nil {
				return nil, err
			}
			lines = append(lines, fmt.Sprintf("%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d",
				agentID, fleetID, spec.cellSize, spec.cellSize, start[0], start[1], goal[0], goal[1], width, height))
			agentID++
		}
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	return nil
}
