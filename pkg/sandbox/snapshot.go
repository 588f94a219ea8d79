package sandbox

import (
	"time"

	"github.com/verai-labs/verai/pkg/agent"
	"github.com/verai-labs/verai/pkg/world"
)

// AgentSnapshot captures one agent at save time.
type AgentSnapshot struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Level    int         `json:"level"`
	Stats    agent.Stats `json:"stats"`
	Position world.Vec3  `json:"position"`
}

// Snapshot is a restorable view of the simulation.
type Snapshot struct {
	SimulationID string          `json:"simulation_id"`
	TakenAt      time.Time       `json:"taken_at"`
	State        State           `json:"state"`
	TimeScale    float64         `json:"time_scale"`
	Stats        Stats           `json:"stats"`
	Agents       []AgentSnapshot `json:"agents"`
}

// Snapshot captures the current simulation state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		SimulationID: s.ID,
		TakenAt:      time.Now(),
		State:        s.state,
		TimeScale:    s.timeScale,
		Stats:        s.stats,
	}
	agents := make([]*agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	s.mu.Unlock()

	for _, a := range agents {
		as := AgentSnapshot{
			ID:    a.ID(),
			Name:  a.Name(),
			Level: a.Level(),
			Stats: a.Stats(),
		}
		if body, err := s.physics.Body(a.ID()); err == nil {
			as.Position = body.Position
		}
		snap.Agents = append(snap.Agents, as)
	}
	return snap
}

// Restore applies a snapshot: simulation counters, time scale and agent
// positions. Agents present in the snapshot but not in the simulation
// are skipped.
func (s *Simulation) Restore(snap Snapshot) {
	s.mu.Lock()
	s.stats = snap.Stats
	s.stats.ActiveAgents = len(s.agents)
	if snap.TimeScale > 0 {
		s.timeScale = snap.TimeScale
	}
	s.mu.Unlock()

	for _, as := range snap.Agents {
		if body, err := s.physics.Body(as.ID); err == nil {
			body.Position = as.Position
			body.Velocity = world.Vec3{}
		}
	}
}
