// Package distance computes, for every agent, the shortest-path distance
// from each fleet-graph vertex to that agent's goal via a single BFS.
package distance

import (
	"runtime"
	"sync"

	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
)

// Unreachable is returned for any vertex with no path to the agent's goal.
const Unreachable = 1 << 30

// Oracle answers d_i(v) in O(1) after construction. Read-only after Build
// returns; safe to share across goroutines.
type Oracle struct {
	rows [][]int32 // rows[agent][vertexID] = distance, Unreachable if none
}

// Distance returns the shortest fleet-graph distance from v to agent's goal.
func (o *Oracle) Distance(agent int, v grid.VertexID) int {
	if v < 0 || int(v) >= len(o.rows[agent]) {
		return Unreachable
	}
	return int(o.rows[agent][v])
}

// Reachable reports whether agent's goal is reachable from v.
func (o *Oracle) Reachable(agent int, v grid.VertexID) bool {
	return o.Distance(agent, v) < Unreachable
}

// Build runs one BFS per agent from the agent's goal vertex on the agent's
// fleet graph. Construction is parallelized across a bounded worker pool;
// each goroutine only ever writes its own row, so no synchronization is
// needed beyond the WaitGroup join.
func Build(inst *fleet.Instance) *Oracle {
	n := inst.N()
	o := &Oracle{rows: make([][]int32, n)}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o.rows[i] = bfsFrom(inst.FleetOf(fleet.AgentID(i)).Graph, inst.Goal[i])
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return o
}

func bfsFrom(g *grid.Graph, goal grid.VertexID) []int32 {
	dist := make([]int32, g.NumVertices())
	for i := range dist {
		dist[i] = Unreachable
	}
	if goal < 0 || int(goal) >= g.NumVertices() {
		return dist
	}

	queue := make([]grid.VertexID, 0, g.NumVertices())
	dist[goal] = 0
	queue = append(queue, goal)

	for head := 0; head < len(queue); head++ {
		v := g.Vertex(queue[head])
		for _, nb := range v.NeighborIDs() {
			if dist[nb] != Unreachable {
				continue
			}
			dist[nb] = dist[v.ID] + 1
			queue = append(queue, nb)
		}
	}

	return dist
}
