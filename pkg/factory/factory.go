package factory

import (
	"github.com/verai-labs/verai/pkg/agent"
	"github.com/verai-labs/verai/pkg/behavior"
	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/llm"
	"github.com/verai-labs/verai/pkg/memory"
	"github.com/verai-labs/verai/pkg/personality"
	"github.com/verai-labs/verai/pkg/telemetry"
)

// Factory turns templates into live agents.
type Factory struct {
	templates map[string]Template
	engine    *personality.Engine
	provider  llm.Provider
	model     string
	emitter   core.EventEmitter
	withMem   bool
	memOpts   []memory.SystemOption
	metrics   *telemetry.SimMetrics
}

// Option configures the Factory.
type Option func(*Factory)

// WithEngine injects a personality engine (useful for seeded tests).
func WithEngine(engine *personality.Engine) Option {
	return func(f *Factory) { f.engine = engine }
}

// WithProvider gives created agents a voice through the LLM provider.
func WithProvider(provider llm.Provider, model string) Option {
	return func(f *Factory) {
		f.provider = provider
		f.model = model
	}
}

// WithEmitter routes events from created agents.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(f *Factory) { f.emitter = emitter }
}

// WithMemorySystems equips each created agent with its own memory system.
// The options apply to every created system; WithSemanticIndex here shares
// one vector-backed index across the population.
func WithMemorySystems(opts ...memory.SystemOption) Option {
	return func(f *Factory) {
		f.withMem = true
		f.memOpts = append(f.memOpts, opts...)
	}
}

// WithMetrics counts memory operations and dialogue generations of every
// created agent.
func WithMetrics(metrics *telemetry.SimMetrics) Option {
	return func(f *Factory) { f.metrics = metrics }
}

// New creates a factory preloaded with the stock archetypes.
func New(opts ...Option) *Factory {
	f := &Factory{
		templates: make(map[string]Template),
		engine:    personality.NewEngine(),
		emitter:   core.NoopEventEmitter{},
	}
	for _, t := range builtinTemplates() {
		f.templates[t.Name] = t
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register adds or replaces a template after validation.
func (f *Factory) Register(t Template) error {
	if err := t.validate(); err != nil {
		return err
	}
	f.templates[t.Name] = t
	return nil
}

// LoadFile registers every template from a YAML file.
func (f *Factory) LoadFile(path string) (int, error) {
	templates, err := loadTemplateFile(path)
	if err != nil {
		return 0, err
	}
	for _, t := range templates {
		if err := f.Register(t); err != nil {
			return 0, err
		}
	}
	return len(templates), nil
}

// Templates lists registered template names.
func (f *Factory) Templates() []string {
	names := make([]string, 0, len(f.templates))
	for name := range f.templates {
		names = append(names, name)
	}
	return names
}

// Template returns a registered template.
func (f *Factory) Template(name string) (Template, error) {
	t, ok := f.templates[name]
	if !ok {
		return Template{}, errors.New(errors.CodeNotFound, "template not found", nil).
			WithContext("template", name)
	}
	return t, nil
}

// Customization tweaks a template at creation time.
type Customization struct {
	Stats       *StatBlock
	TraitShifts map[string]float64
	ExtraSkills []string
	ExtraItems  []string
}

// Create builds an agent from a template, then applies the customization.
func (f *Factory) Create(templateName, agentName string, custom *Customization) (*agent.Agent, error) {
	t, err := f.Template(templateName)
	if err != nil {
		return nil, err
	}

	stats := t.Stats
	if custom != nil && custom.Stats != nil {
		stats = *custom.Stats
	}

	traits := make(personality.Traits, len(t.Traits))
	for name, value := range t.Traits {
		traits[personality.Trait(name)] = value
	}
	if custom != nil {
		for name, shift := range custom.TraitShifts {
			trait := personality.Trait(name)
			v := traits.Get(trait) + shift
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			traits[trait] = v
		}
	}
	if len(traits) == 0 {
		traits = f.engine.Generate("")
	}

	powers := make([]personality.Power, 0, len(t.Powers))
	for _, p := range t.Powers {
		powers = append(powers, personality.Power(p))
	}
	profile, err := f.engine.Create(traits, powers)
	if err != nil {
		return nil, err
	}

	agentStats := stats.toStats()
	var mem *memory.System
	if f.withMem {
		memOpts := f.memOpts
		if f.metrics != nil {
			memOpts = append(memOpts[:len(memOpts):len(memOpts)], memory.WithOpRecorder(f.metrics))
		}
		mem = memory.NewSystem(memOpts...)
	}
	brain, err := agent.NewBrain(profile, combatStats(agentStats), mem)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{
		agent.WithStats(agentStats),
		agent.WithBrain(brain),
		agent.WithEmitter(f.emitter),
	}
	if mem != nil {
		opts = append(opts, agent.WithMemory(mem))
	}
	if f.provider != nil {
		speakerOpts := []agent.SpeakerOption{
			agent.WithModel(f.model),
			agent.WithPersona(agent.PersonaFromProfile(agentName, profile)),
			agent.WithFallbackLines(t.DialogueLines...),
		}
		if f.metrics != nil {
			speakerOpts = append(speakerOpts,
				agent.WithSpeakerMetrics(f.metrics, llm.ProviderName(f.provider)))
		}
		speaker, err := agent.NewSpeaker(f.provider, speakerOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agent.WithSpeaker(speaker))
	}

	a, err := agent.New(agentName, opts...)
	if err != nil {
		return nil, err
	}
	for _, skill := range t.Skills {
		a.LearnSkill(skill)
	}
	for _, ability := range t.SpecialAbilities {
		a.LearnSkill(ability)
	}
	for _, item := range t.Equipment {
		a.Equip(item)
	}
	if custom != nil {
		for _, skill := range custom.ExtraSkills {
			a.LearnSkill(skill)
		}
		for _, item := range custom.ExtraItems {
			a.Equip(item)
		}
	}
	return a, nil
}

func combatStats(stats agent.Stats) behavior.CombatStats {
	cs := behavior.DefaultCombatStats()
	cs.Health = stats.MaxHealth
	cs.Stamina = stats.MaxEnergy
	cs.Strength = stats.Strength
	cs.Agility = stats.Agility
	return cs
}
