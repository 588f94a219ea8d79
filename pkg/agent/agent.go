// Package agent implements the simulated agents: stats, brain, dialogue
// and the interaction surface other systems call into.
package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/behavior"
	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/personality"
)

// State is the lifecycle state of an agent.
type State string

const (
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateActive       State = "active"
	StateInactive     State = "inactive"
)

// Perceiver supplies what the agent senses each tick.
type Perceiver func(ctx context.Context) Perception

// Agent is a simulated character driven by a brain.
type Agent struct {
	id    string
	name  string
	state State

	stats       Stats
	progression Progression
	brain       *Brain
	memory      core.Memory
	speaker     core.Speaker
	perceive    Perceiver
	emitter     core.EventEmitter

	relationships map[string]float64
	effects       []Effect
	skills        map[string]int
	equipment     []string
}

// Effect is a temporary modifier on the agent.
type Effect struct {
	Name        string
	Remaining   float64
	EnergyDrain float64
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an agent with a required name and options. Without an
// explicit brain a randomized personality is rolled.
func New(name string, opts ...Option) (*Agent, error) {
	if name == "" {
		return nil, errors.New(errors.CodeInvalidInput, "agent name is required", nil)
	}
	a := &Agent{
		id:            uuid.NewString(),
		name:          name,
		state:         StateInitializing,
		stats:         DefaultStats(),
		progression:   NewProgression(),
		emitter:       core.NoopEventEmitter{},
		relationships: make(map[string]float64),
		skills:        make(map[string]int),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.brain == nil {
		engine := personality.NewEngine()
		profile, err := engine.Create(engine.Generate(""), nil)
		if err != nil {
			return nil, err
		}
		brain, err := NewBrain(profile, combatStatsFrom(a.stats), nil)
		if err != nil {
			return nil, err
		}
		a.brain = brain
	}
	a.state = StateReady
	return a, nil
}

// WithStats overrides the baseline attribute block.
func WithStats(stats Stats) Option {
	return func(a *Agent) error {
		a.stats = stats
		return nil
	}
}

// WithBrain attaches a pre-built brain.
func WithBrain(brain *Brain) Option {
	return func(a *Agent) error {
		a.brain = brain
		return nil
	}
}

// WithMemory attaches a memory backend to the agent.
func WithMemory(memory core.Memory) Option {
	return func(a *Agent) error {
		a.memory = memory
		return nil
	}
}

// WithSpeaker gives the agent a voice for dialogue.
func WithSpeaker(speaker core.Speaker) Option {
	return func(a *Agent) error {
		a.speaker = speaker
		return nil
	}
}

// WithPerceiver wires the sensing function called on every update.
func WithPerceiver(perceive Perceiver) Option {
	return func(a *Agent) error {
		a.perceive = perceive
		return nil
	}
}

// SetPerceiver wires or replaces the sensing function after creation.
// The simulation uses this to attach world-aware senses to agents a
// factory produced.
func (a *Agent) SetPerceiver(perceive Perceiver) { a.perceive = perceive }

// WithEmitter routes agent events.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(a *Agent) error {
		if emitter != nil {
			a.emitter = emitter
		}
		return nil
	}
}

func combatStatsFrom(stats Stats) behavior.CombatStats {
	cs := behavior.DefaultCombatStats()
	cs.Health = stats.Health
	cs.Stamina = stats.Energy
	cs.Strength = stats.Strength
	cs.Agility = stats.Agility
	return cs
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// State returns the lifecycle state.
func (a *Agent) State() State { return a.state }

// Stats returns a copy of the current attributes.
func (a *Agent) Stats() Stats { return a.stats }

// Level returns the current level.
func (a *Agent) Level() int { return a.progression.Level }

// Brain exposes the decision engine.
func (a *Agent) Brain() *Brain { return a.brain }

// Memory returns the attached memory backend, if any.
func (a *Agent) Memory() core.Memory { return a.memory }

// LearnSkill grants a skill at level 1, or keeps the known level.
func (a *Agent) LearnSkill(name string) {
	if _, known := a.skills[name]; !known {
		a.skills[name] = 1
	}
}

// SkillLevel returns the level of a known skill, 0 if unknown.
func (a *Agent) SkillLevel(name string) int { return a.skills[name] }

// Skills lists known skill names.
func (a *Agent) Skills() []string {
	names := make([]string, 0, len(a.skills))
	for name := range a.skills {
		names = append(names, name)
	}
	return names
}

// Equip adds an item to the agent's equipment.
func (a *Agent) Equip(item string) {
	a.equipment = append(a.equipment, item)
}

// Equipment lists carried items.
func (a *Agent) Equipment() []string {
	return append([]string(nil), a.equipment...)
}

// AddEffect applies a temporary modifier.
func (a *Agent) AddEffect(effect Effect) {
	a.effects = append(a.effects, effect)
}

// GainExperience adds experience and emits a level-up event when the
// agent advances.
func (a *Agent) GainExperience(ctx context.Context, amount int) LevelUpResult {
	result := a.progression.Gain(amount, &a.stats)
	if result.NewLevel > result.OldLevel {
		a.emitter.Emit(ctx, core.NewEvent(core.EventAgentLevelUp, a.id, "", map[string]any{
			"old_level": result.OldLevel,
			"new_level": result.NewLevel,
		}))
	}
	return result
}

// Update advances the agent by delta seconds: stats regenerate, effects
// tick down, and if a perceiver is wired the brain runs one cycle.
func (a *Agent) Update(ctx context.Context, delta float64) ([]core.Event, error) {
	if a.state == StateInactive {
		return nil, nil
	}
	a.state = StateActive

	a.stats.Energy += energyRegenRate * delta
	if a.stats.Energy > a.stats.MaxEnergy {
		a.stats.Energy = a.stats.MaxEnergy
	}

	kept := a.effects[:0]
	for _, e := range a.effects {
		a.stats.Energy -= e.EnergyDrain * delta
		if a.stats.Energy < 0 {
			a.stats.Energy = 0
		}
		e.Remaining -= delta
		if e.Remaining > 0 {
			kept = append(kept, e)
		}
	}
	a.effects = kept

	if a.perceive == nil {
		return nil, nil
	}
	decision, err := a.brain.Process(ctx, a.perceive(ctx))
	if err != nil {
		event := core.NewEvent(core.EventAgentError, a.id, "", map[string]any{
			"error": err.Error(),
		})
		a.emitter.Emit(ctx, event)
		return []core.Event{event}, err
	}

	event := core.NewEvent(core.EventAgentDecision, a.id, decision.TargetID, map[string]any{
		"kind":       string(decision.Kind),
		"confidence": decision.Confidence,
	})
	a.emitter.Emit(ctx, event)
	return []core.Event{event}, nil
}

// Deactivate takes the agent out of the simulation loop.
func (a *Agent) Deactivate() { a.state = StateInactive }

// Relationship returns the accumulated standing with another agent.
func (a *Agent) Relationship(otherID string) float64 {
	return a.relationships[otherID]
}

// InteractionKind dispatches HandleInteraction.
type InteractionKind string

const (
	InteractDialogue InteractionKind = "dialogue"
	InteractTrade    InteractionKind = "trade"
	InteractCombat   InteractionKind = "combat"
)

// InteractionInput carries the payload of one incoming interaction.
type InteractionInput struct {
	Kind     InteractionKind
	SourceID string
	Line     string
	Offer    map[string]float64
	Damage   float64
}

// InteractionResult is the agent's response.
type InteractionResult struct {
	Reply    string
	Accepted bool
	Impact   float64
}

// HandleInteraction dispatches an incoming interaction and folds its
// impact into the relationship with the source.
func (a *Agent) HandleInteraction(ctx context.Context, input InteractionInput) (*InteractionResult, error) {
	if input.SourceID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "interaction source required", nil)
	}

	var (
		result *InteractionResult
		err    error
	)
	switch input.Kind {
	case InteractDialogue:
		result, err = a.handleDialogue(ctx, input)
	case InteractTrade:
		result, err = a.handleTrade(input)
	case InteractCombat:
		result, err = a.handleCombat(input)
	default:
		return nil, errors.New(errors.CodeInvalidInput, "unknown interaction kind", nil).
			WithContext("kind", string(input.Kind))
	}
	if err != nil {
		return nil, err
	}

	a.relationships[input.SourceID] += result.Impact
	a.brain.Social().AdjustRelationship(input.SourceID, result.Impact)
	return result, nil
}

func (a *Agent) handleDialogue(ctx context.Context, input InteractionInput) (*InteractionResult, error) {
	if a.speaker == nil {
		return &InteractionResult{Reply: "...", Impact: 0}, nil
	}
	reply, err := a.speaker.Say(ctx, input.Line)
	if err != nil {
		return nil, err
	}
	return &InteractionResult{Reply: reply, Impact: 0.02}, nil
}

// handleTrade accepts offers whose total value clears the agent's
// charisma-discounted bar.
func (a *Agent) handleTrade(input InteractionInput) (*InteractionResult, error) {
	total := 0.0
	for _, v := range input.Offer {
		total += v
	}
	bar := 10 - a.stats.Charisma*0.2
	if total >= bar {
		return &InteractionResult{Accepted: true, Impact: 0.05}, nil
	}
	return &InteractionResult{Accepted: false, Impact: -0.02}, nil
}

func (a *Agent) handleCombat(input InteractionInput) (*InteractionResult, error) {
	if input.Damage < 0 {
		return nil, errors.New(errors.CodeInvalidInput, "damage cannot be negative", nil)
	}
	a.stats.Health -= input.Damage
	if a.stats.Health < 0 {
		a.stats.Health = 0
	}
	a.brain.Combat().ApplyDamage(input.Damage)
	return &InteractionResult{Impact: -0.1}, nil
}
