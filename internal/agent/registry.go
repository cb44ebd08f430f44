// Package agent tracks the fixed roster of analysis agents, their status,
// and their findings counters.
package agent

import (
	"sync"

	"github.com/ledger-sentinel/internal/types"
)

// Agent identifiers. The roster is fixed; agents are never added or removed
// at runtime.
const (
	PeelingDetector   = "peeling-detector"
	GraphMiner        = "graph-miner"
	TemporalAnalyzer  = "temporal-analyzer"
	PropagationEngine = "propagation-engine"
)

// Agent describes one analysis agent for observers.
type Agent struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Role          string            `json:"role"`
	Status        types.AgentStatus `json:"status"`
	FindingsCount int64             `json:"findingsCount"`
}

// Registry is the mutable agent roster. Findings counters are monotonic:
// each newly added evidence entry increments exactly one counter exactly once.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	order  []string
}

// NewRegistry creates a registry populated with the fixed roster, all IDLE.
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[string]*Agent)}
	r.add(PeelingDetector, "Peeling Detective", "Sequential Flow Analysis")
	r.add(GraphMiner, "Graph Miner", "Fan-Out Centrality")
	r.add(TemporalAnalyzer, "Temporal Analyzer", "Behavioral Reasoning")
	r.add(PropagationEngine, "Risk Diffusion", "Contamination Engine")
	return r
}

func (r *Registry) add(id, name, role string) {
	r.agents[id] = &Agent{ID: id, Name: name, Role: role, Status: types.AgentIdle}
	r.order = append(r.order, id)
}

// SetStatus updates an agent's status. Unknown ids are ignored.
func (r *Registry) SetStatus(id string, status types.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.Status = status
	}
}

// Status returns the agent's current status, or IDLE for unknown ids.
func (r *Registry) Status(id string) types.AgentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.agents[id]; ok {
		return a.Status
	}
	return types.AgentIdle
}

// RecordFinding increments the agent's findings counter by one.
func (r *Registry) RecordFinding(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.FindingsCount++
	}
}

// FindingsCount returns the agent's current findings counter.
func (r *Registry) FindingsCount(id string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.agents[id]; ok {
		return a.FindingsCount
	}
	return 0
}

// List returns the roster in registration order as copies.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.agents[id])
	}
	return out
}

// Reset returns every agent to IDLE with a zero findings counter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		a.Status = types.AgentIdle
		a.FindingsCount = 0
	}
}
