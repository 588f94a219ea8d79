// Package sandbox runs the simulation: it owns the world, the agent
// population and the combat and social systems, and advances them all
// on a shared tick.
package sandbox

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/agent"
	"github.com/verai-labs/verai/pkg/combat"
	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/factory"
	"github.com/verai-labs/verai/pkg/social"
	"github.com/verai-labs/verai/pkg/telemetry"
	"github.com/verai-labs/verai/pkg/world"
)

// State is the lifecycle state of a simulation.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateStopped      State = "stopped"
	StateError        State = "error"
)

// Stats aggregates what has happened since the simulation started.
type Stats struct {
	ActiveAgents         int
	TotalInteractions    int
	CombatEvents         int
	SocialEvents         int
	EnvironmentalChanges int
	SimulationTime       float64
}

// maxEventLog bounds the retained event history.
const maxEventLog = 10000

// perceptionRadius is how far agents sense each other.
const perceptionRadius = 20.0

// Simulation owns every subsystem and fans the tick out to them.
type Simulation struct {
	ID string

	mu        sync.Mutex
	state     State
	stats     Stats
	timeScale float64

	environment   *world.Environment
	physics       *world.Physics
	interactions  *world.Interactions
	battles       *combat.System
	factions      *social.FactionSystem
	reputation    *social.ReputationSystem
	relationships map[string]*social.RelationshipSystem
	agents        map[string]*agent.Agent

	events  []core.Event
	metrics *telemetry.SimMetrics
	logger  *slog.Logger
}

// SimulationOption configures a Simulation.
type SimulationOption func(*Simulation)

// WithBiome selects the environment biome.
func WithBiome(biome world.BiomeType) SimulationOption {
	return func(s *Simulation) { s.environment = world.NewEnvironment(biome, world.WithEnvironmentEmitter(s)) }
}

// WithTimeScale compresses or stretches simulated time.
func WithTimeScale(scale float64) SimulationOption {
	return func(s *Simulation) {
		if scale > 0 {
			s.timeScale = scale
		}
	}
}

// WithMetrics records tick and event metrics.
func WithMetrics(metrics *telemetry.SimMetrics) SimulationOption {
	return func(s *Simulation) { s.metrics = metrics }
}

// WithLogger routes simulation logs.
func WithLogger(logger *slog.Logger) SimulationOption {
	return func(s *Simulation) { s.logger = logger }
}

// NewSimulation wires every subsystem around a shared event sink.
func NewSimulation(opts ...SimulationOption) *Simulation {
	s := &Simulation{
		ID:            uuid.NewString(),
		state:         StateInitializing,
		timeScale:     1,
		relationships: make(map[string]*social.RelationshipSystem),
		agents:        make(map[string]*agent.Agent),
		logger:        slog.Default(),
	}
	s.environment = world.NewEnvironment(world.BiomeWilderness, world.WithEnvironmentEmitter(s))
	s.physics = world.NewPhysics(s)
	s.interactions = world.NewInteractions(s)
	s.battles = combat.NewSystem(combat.NewSkillSystem(), s)
	s.factions = social.NewFactionSystem(s)
	s.reputation = social.NewReputationSystem(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit implements core.EventEmitter: every subsystem event lands in the
// shared log and bumps the matching counters.
func (s *Simulation) Emit(ctx context.Context, event core.Event) {
	s.mu.Lock()
	s.appendEventLocked(event)
	s.mu.Unlock()
	s.recordEventMetrics(ctx, event)
}

// recordEventMetrics feeds combat and social activity into the metric
// instruments as events flow through the sink.
func (s *Simulation) recordEventMetrics(ctx context.Context, event core.Event) {
	if s.metrics == nil {
		return
	}
	eventType := string(event.Type)
	switch {
	case strings.HasPrefix(eventType, "combat."):
		s.metrics.RecordBattle(ctx, strings.TrimPrefix(eventType, "combat."))
	case event.Type == core.EventSocialContact:
		outcome := "failure"
		if ok, _ := event.Payload["success"].(bool); ok {
			outcome = "success"
		}
		s.metrics.RecordInteraction(ctx, outcome)
	}
}

func (s *Simulation) appendEventLocked(event core.Event) {
	s.events = append(s.events, event)
	if len(s.events) > maxEventLog {
		s.events = s.events[len(s.events)-maxEventLog:]
	}

	switch {
	case strings.HasPrefix(string(event.Type), "combat."):
		s.stats.CombatEvents++
	case strings.HasPrefix(string(event.Type), "social."),
		strings.HasPrefix(string(event.Type), "faction."),
		strings.HasPrefix(string(event.Type), "reputation."):
		s.stats.SocialEvents++
	case strings.HasPrefix(string(event.Type), "environment."):
		s.stats.EnvironmentalChanges++
	}
	if event.Type == core.EventSocialContact {
		s.stats.TotalInteractions++
	}
}

// Environment exposes the world region.
func (s *Simulation) Environment() *world.Environment { return s.environment }

// Physics exposes the physics world.
func (s *Simulation) Physics() *world.Physics { return s.physics }

// Interactions exposes the interaction manager.
func (s *Simulation) Interactions() *world.Interactions { return s.interactions }

// Battles exposes the battle system.
func (s *Simulation) Battles() *combat.System { return s.battles }

// Factions exposes the faction system.
func (s *Simulation) Factions() *social.FactionSystem { return s.factions }

// Reputation exposes the reputation ledger.
func (s *Simulation) Reputation() *social.ReputationSystem { return s.reputation }

// Relationships returns the relation map of one agent.
func (s *Simulation) Relationships(agentID string) (*social.RelationshipSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.relationships[agentID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "agent not in simulation", nil).
			WithContext("agent_id", agentID)
	}
	return rs, nil
}

// Spawn creates an agent from a factory template and drops it into the
// world at a position.
func (s *Simulation) Spawn(ctx context.Context, f *factory.Factory, template, name string, position world.Vec3) (*agent.Agent, error) {
	a, err := f.Create(template, name, nil)
	if err != nil {
		return nil, err
	}
	if err := s.AddAgent(ctx, a, position); err != nil {
		return nil, err
	}
	return a, nil
}

// AddAgent registers a pre-built agent, gives it a physics body, a
// reputation profile, a relation map and world-aware senses.
func (s *Simulation) AddAgent(ctx context.Context, a *agent.Agent, position world.Vec3) error {
	s.mu.Lock()
	if _, exists := s.agents[a.ID()]; exists {
		s.mu.Unlock()
		return errors.New(errors.CodeInvalidState, "agent already in simulation", nil).
			WithContext("agent_id", a.ID())
	}
	s.agents[a.ID()] = a
	s.relationships[a.ID()] = social.NewRelationshipSystem(a.ID(),
		social.WithRelationshipEmitter(s))
	s.stats.ActiveAgents++
	s.mu.Unlock()

	if err := s.physics.AddBody(a.ID(), world.DefaultPhysicsProperties(), position); err != nil {
		return err
	}
	if err := s.reputation.CreateProfile(a.ID()); err != nil {
		return err
	}
	a.SetPerceiver(s.perceiverFor(a.ID()))

	s.Emit(ctx, core.NewEvent(core.EventAgentSpawned, a.ID(), "", map[string]any{
		"name": a.Name(),
	}))
	return nil
}

// RemoveAgent takes an agent out of the simulation.
func (s *Simulation) RemoveAgent(agentID string) {
	s.mu.Lock()
	if _, ok := s.agents[agentID]; ok {
		delete(s.agents, agentID)
		delete(s.relationships, agentID)
		s.stats.ActiveAgents--
	}
	s.mu.Unlock()
	s.physics.RemoveBody(agentID)
}

// Agent returns a registered agent.
func (s *Simulation) Agent(agentID string) (*agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "agent not in simulation", nil).
			WithContext("agent_id", agentID)
	}
	return a, nil
}

// perceiverFor builds the senses of one agent from simulation state.
func (s *Simulation) perceiverFor(agentID string) agent.Perceiver {
	return func(ctx context.Context) agent.Perception {
		p := agent.Perception{
			EnvironmentalDanger: s.environment.Stats.DangerLevel,
		}
		body, err := s.physics.Body(agentID)
		if err != nil {
			return p
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for otherID := range s.agents {
			if otherID == agentID {
				continue
			}
			other, err := s.physics.Body(otherID)
			if err != nil {
				continue
			}
			if other.Position.Sub(body.Position).Length() <= perceptionRadius {
				p.NearbyAgents = append(p.NearbyAgents, otherID)
			}
		}
		return p
	}
}

// Start moves the simulation to running.
func (s *Simulation) Start() error {
	return s.transition(StateRunning, StateInitializing, StateStopped)
}

// Pause suspends a running simulation.
func (s *Simulation) Pause() error {
	return s.transition(StatePaused, StateRunning)
}

// Resume continues a paused simulation.
func (s *Simulation) Resume() error {
	return s.transition(StateRunning, StatePaused)
}

// Stop halts the simulation.
func (s *Simulation) Stop() error {
	return s.transition(StateStopped, StateRunning, StatePaused)
}

func (s *Simulation) transition(to State, from ...State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range from {
		if s.state == f {
			s.state = to
			return nil
		}
	}
	return errors.New(errors.CodeInvalidState, "invalid state transition", nil).
		WithContext("from", string(s.state)).
		WithContext("to", string(to))
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a copy of the aggregate counters.
func (s *Simulation) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Events returns up to limit most recent events; limit <= 0 returns all.
func (s *Simulation) Events(limit int) []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit >= len(s.events) {
		return append([]core.Event(nil), s.events...)
	}
	return append([]core.Event(nil), s.events[len(s.events)-limit:]...)
}

// Step advances the simulation by delta seconds of real time, scaled by
// the time scale. Subsystems update in a fixed order: environment,
// physics, agents, combat, factions, reputation decay.
func (s *Simulation) Step(ctx context.Context, delta float64) error {
	s.mu.Lock()
	if s.state != StateRunning {
		state := s.state
		s.mu.Unlock()
		return errors.New(errors.CodeInvalidState, "simulation not running", nil).
			WithContext("state", string(state))
	}
	scaled := delta * s.timeScale
	agents := make([]*agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	s.mu.Unlock()

	ctx = core.WithRunID(ctx, s.ID)
	started := time.Now()

	if _, err := s.environment.Update(ctx, scaled); err != nil {
		return s.fail(err)
	}
	if _, err := s.physics.Update(ctx, scaled); err != nil {
		return s.fail(err)
	}
	for _, a := range agents {
		if _, err := a.Update(core.WithActor(ctx, a.ID()), scaled); err != nil {
			s.logger.Warn("agent update failed",
				"agent_id", a.ID(), "error", err)
		}
	}
	if _, err := s.battles.Update(ctx, scaled); err != nil {
		return s.fail(err)
	}
	if _, err := s.factions.Update(ctx, scaled); err != nil {
		return s.fail(err)
	}
	s.reputation.Decay(scaled)

	s.mu.Lock()
	s.stats.SimulationTime += scaled
	active := int64(len(s.agents))
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTick(ctx, float64(time.Since(started).Milliseconds()))
		s.metrics.RecordActiveAgents(ctx, active)
	}
	return nil
}

func (s *Simulation) fail(err error) error {
	s.mu.Lock()
	s.state = StateError
	s.mu.Unlock()
	s.logger.Error("simulation step failed", "error", err)
	return err
}

// Reset clears time, counters and the event log and returns the
// simulation to its initial state. Agents stay registered.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateInitializing
	s.stats = Stats{ActiveAgents: len(s.agents)}
	s.events = nil
}

// AgentIDs lists registered agents.
func (s *Simulation) AgentIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	return ids
}
