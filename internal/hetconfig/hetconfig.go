// Package hetconfig defines the joint configuration type the whole search
// operates over: positions plus speed phases for every agent.
package hetconfig

import (
	"github.com/elektrokombinacija/hetmapf/internal/fleet"
	"github.com/elektrokombinacija/hetmapf/internal/grid"
)

// AgentState is one agent's entry in a HetConfig: its fleet-graph position
// and its speed phase.
type AgentState struct {
	Position grid.VertexID
	Kappa    int // in [0, speed_period), 0 = free to move
}

// HetConfig is a joint state: one AgentState per agent. Two configs are
// equal iff their (position, kappa) vectors are equal element-wise.
type HetConfig struct {
	Agents []AgentState
}

// New allocates a HetConfig for n agents, all entries zeroed.
func New(n int) HetConfig {
	return HetConfig{Agents: make([]AgentState, n)}
}

// Clone returns a deep copy.
func (c HetConfig) Clone() HetConfig {
	out := HetConfig{Agents: make([]AgentState, len(c.Agents))}
	copy(out.Agents, c.Agents)
	return out
}

// Equal reports whether two configs have identical (position, kappa) pairs.
func (c HetConfig) Equal(o HetConfig) bool {
	if len(c.Agents) != len(o.Agents) {
		return false
	}
	for i := range c.Agents {
		if c.Agents[i] != o.Agents[i] {
			return false
		}
	}
	return true
}

// Hash is a commutative-safe 32-bit mixer over (N, positions[i].id,
// kappa[i]). It does not depend on any ordering beyond agent index, and two
// equal configs always hash equal.
func (c HetConfig) Hash() uint32 {
	h := uint32(2166136261) // FNV-1a offset basis
	h = mix(h, uint32(len(c.Agents)))
	for _, a := range c.Agents {
		h = mix(h, uint32(int32(a.Position)))
		h = mix(h, uint32(a.Kappa))
	}
	return h
}

func mix(h, x uint32) uint32 {
	h ^= x
	h *= 16777619 // FNV-1a prime
	return h
}

// FromStart builds the HetConfig matching an Instance's start positions,
// all agents at phase 0.
func FromStart(inst *fleet.Instance) HetConfig {
	c := New(inst.N())
	for i := range c.Agents {
		c.Agents[i] = AgentState{Position: inst.Start[i], Kappa: 0}
	}
	return c
}

// IsGoal reports whether every agent is at its goal position with a clear
// speed phase (kappa==0): a mid-crossing agent has not actually arrived yet.
func IsGoal(c HetConfig, inst *fleet.Instance) bool {
	for i, a := range c.Agents {
		if a.Position != inst.Goal[i] || a.Kappa != 0 {
			return false
		}
	}
	return true
}

// AtGoal reports whether agent i is at its goal with kappa==0 in c.
func AtGoal(c HetConfig, inst *fleet.Instance, i int) bool {
	return c.Agents[i].Position == inst.Goal[i] && c.Agents[i].Kappa == 0
}
