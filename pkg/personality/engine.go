package personality

import (
	"math/rand"

	"github.com/verai-labs/verai/pkg/errors"
)

// Tendency keys derived from core traits.
const (
	TendencyAggressive  = "aggressive"
	TendencyCautious    = "cautious"
	TendencySocial      = "social"
	TendencyLoyal       = "loyal"
	TendencyCreative    = "creative"
	TendencyDisciplined = "disciplined"
	TendencyEmpathetic  = "empathetic"
	TendencyRiskTaking  = "risk_taking"
	TendencyLeadership  = "leadership"
)

// Patterns weights the broad activities an agent gravitates towards.
type Patterns struct {
	Combat      float64
	Exploration float64
	Social      float64
	Trading     float64
	Learning    float64
}

// PowerConfig is a power definition adjusted to a specific personality.
type PowerConfig struct {
	PowerDef
}

// Profile is the full derived personality of an agent.
type Profile struct {
	Traits     Traits
	Tendencies map[string]float64
	Patterns   Patterns
	Influence  map[string]float64
	Powers     map[Power]PowerConfig
}

// Engine derives profiles from traits and powers.
type Engine struct {
	traitDefs map[Trait]TraitDef
	powerDefs map[Power]PowerDef
	templates map[string]Traits
	rng       *rand.Rand
}

// Option configures the Engine.
type Option func(*Engine)

// WithRand sets the random source used for template variation.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithTemplate registers or replaces a named trait template.
func WithTemplate(name string, traits Traits) Option {
	return func(e *Engine) {
		e.templates[name] = traits.Clone()
	}
}

// NewEngine creates an Engine with the default trait, power and template tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		traitDefs: defaultTraitDefs(),
		powerDefs: defaultPowerDefs(),
		templates: defaultTemplates(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultTemplates() map[string]Traits {
	return map[string]Traits{
		"hero": {
			Courage: 0.8, Wisdom: 0.7, Loyalty: 0.9, Charisma: 0.6,
			Aggression: 0.4, Creativity: 0.6, Discipline: 0.7, Empathy: 0.8,
		},
		"antihero": {
			Courage: 0.7, Wisdom: 0.6, Loyalty: 0.5, Charisma: 0.7,
			Aggression: 0.6, Creativity: 0.8, Discipline: 0.5, Empathy: 0.4,
		},
		"mentor": {
			Courage: 0.6, Wisdom: 0.9, Loyalty: 0.8, Charisma: 0.7,
			Aggression: 0.3, Creativity: 0.7, Discipline: 0.8, Empathy: 0.9,
		},
	}
}

// Templates returns the registered template names.
func (e *Engine) Templates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	return names
}

// Generate produces traits from a named template with a small random
// variation per trait, clamped to the trait bounds. An unknown template
// yields fully random traits.
func (e *Engine) Generate(template string) Traits {
	rng := e.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	traits := make(Traits, len(AllTraits))
	base, ok := e.templates[template]
	for _, trait := range AllTraits {
		if ok {
			value := base.Get(trait)
			variation := (rng.Float64() - 0.5) * 0.2 // ±0.1
			traits[trait] = clamp(value+variation, 0.0, 1.0)
		} else {
			traits[trait] = rng.Float64()
		}
	}
	return traits
}

// Validate checks each trait against its definition bounds.
func (e *Engine) Validate(traits Traits) error {
	for trait, value := range traits {
		def, ok := e.traitDefs[trait]
		if !ok {
			return errors.New(errors.CodeInvalidInput, "unknown trait", nil).
				WithContext("trait", string(trait))
		}
		if value < def.Min || value > def.Max {
			return errors.New(errors.CodeInvalidInput, "trait value out of range", nil).
				WithContext("trait", string(trait)).
				WithContext("value", value)
		}
	}
	return nil
}

// Create derives a complete profile from base traits and powers.
func (e *Engine) Create(base Traits, powers []Power) (*Profile, error) {
	if err := e.Validate(base); err != nil {
		return nil, err
	}

	traits := base.Clone()
	tendencies := deriveTendencies(traits)
	profile := &Profile{
		Traits:     traits,
		Tendencies: tendencies,
		Patterns:   derivePatterns(traits, tendencies),
		Influence:  e.powerInfluence(powers),
		Powers:     e.configurePowers(powers, traits),
	}
	return profile, nil
}

// ModifyTrait shifts one trait by amount and re-derives the profile.
func (e *Engine) ModifyTrait(p *Profile, trait Trait, amount float64) {
	p.Traits[trait] = clamp(p.Traits.Get(trait)+amount, 0.0, 1.0)
	p.Tendencies = deriveTendencies(p.Traits)
	p.Patterns = derivePatterns(p.Traits, p.Tendencies)

	powers := make([]Power, 0, len(p.Powers))
	for power := range p.Powers {
		powers = append(powers, power)
	}
	p.Influence = e.powerInfluence(powers)
	p.Powers = e.configurePowers(powers, p.Traits)
}

func deriveTendencies(traits Traits) map[string]float64 {
	t := map[string]float64{
		TendencyAggressive:  traits.Get(Aggression),
		TendencyCautious:    traits.Get(Wisdom),
		TendencySocial:      traits.Get(Charisma),
		TendencyLoyal:       traits.Get(Loyalty),
		TendencyCreative:    traits.Get(Creativity),
		TendencyDisciplined: traits.Get(Discipline),
		TendencyEmpathetic:  traits.Get(Empathy),
	}
	t[TendencyRiskTaking] = t[TendencyAggressive]*0.7 + (1-t[TendencyCautious])*0.3
	t[TendencyLeadership] = t[TendencySocial]*0.6 + t[TendencyDisciplined]*0.4
	return t
}

func derivePatterns(traits Traits, tendencies map[string]float64) Patterns {
	return Patterns{
		Combat: traits.Get(Aggression)*0.4 +
			traits.Get(Courage)*0.3 +
			tendencies[TendencyRiskTaking]*0.3,
		Exploration: traits.Get(Creativity)*0.4 +
			traits.Get(Courage)*0.3 +
			(1-traits.Get(Discipline))*0.3,
		Social: traits.Get(Charisma)*0.4 +
			traits.Get(Empathy)*0.3 +
			tendencies[TendencySocial]*0.3,
		Trading: traits.Get(Wisdom)*0.4 +
			traits.Get(Charisma)*0.3 +
			(1-traits.Get(Aggression))*0.3,
		Learning: traits.Get(Wisdom)*0.4 +
			traits.Get(Discipline)*0.3 +
			traits.Get(Creativity)*0.3,
	}
}

func (e *Engine) powerInfluence(powers []Power) map[string]float64 {
	influence := map[string]float64{
		AspectCombat:   0,
		AspectSocial:   0,
		AspectMobility: 0,
		AspectUtility:  0,
	}

	for _, power := range powers {
		def, ok := e.powerDefs[power]
		if !ok {
			continue
		}
		switch power {
		case EnergyBlast, Telekinesis:
			influence[AspectCombat] += def.Effectiveness * 0.8
		case Healing, TimeControl:
			influence[AspectUtility] += def.Effectiveness * 0.7
		case SuperSpeed:
			influence[AspectMobility] += def.Effectiveness * 0.9
		case ShapeShifting:
			influence[AspectSocial] += def.Effectiveness * 0.6
		}
	}

	max := 0.0
	for _, v := range influence {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for k, v := range influence {
			influence[k] = v / max
		}
	}
	return influence
}

func (e *Engine) configurePowers(powers []Power, traits Traits) map[Power]PowerConfig {
	out := make(map[Power]PowerConfig, len(powers))
	for _, power := range powers {
		def, ok := e.powerDefs[power]
		if !ok {
			continue
		}
		def.Effectiveness *= powerEffectiveness(power, traits)

		cost := int(float64(def.EnergyCost) * energyModifier(traits))
		if cost < 1 {
			cost = 1
		}
		def.EnergyCost = cost

		out[power] = PowerConfig{PowerDef: def}
	}
	return out
}

// powerEffectiveness scales a power by its matching trait, clamped [0.5, 1.5].
func powerEffectiveness(power Power, traits Traits) float64 {
	eff := 1.0
	switch power {
	case Telekinesis:
		eff += traits.Get(Discipline) - 0.5
	case EnergyBlast:
		eff += traits.Get(Aggression) - 0.5
	case Healing:
		eff += traits.Get(Empathy) - 0.5
	case TimeControl:
		eff += traits.Get(Wisdom) - 0.5
	}
	return clamp(eff, 0.5, 1.5)
}

// energyModifier makes disciplined agents cheaper and aggressive agents
// costlier to run, clamped [0.7, 1.3].
func energyModifier(traits Traits) float64 {
	mod := 1.0
	mod -= (traits.Get(Discipline) - 0.5) * 0.3
	mod += (traits.Get(Aggression) - 0.5) * 0.2
	return clamp(mod, 0.7, 1.3)
}
