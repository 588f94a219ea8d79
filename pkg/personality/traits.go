// Package personality derives agent behavior profiles from core traits and powers.
package personality

// Trait is a core personality dimension, valued in [0,1].
type Trait string

const (
	Aggression Trait = "aggression"
	Courage    Trait = "courage"
	Wisdom     Trait = "wisdom"
	Charisma   Trait = "charisma"
	Loyalty    Trait = "loyalty"
	Creativity Trait = "creativity"
	Discipline Trait = "discipline"
	Empathy    Trait = "empathy"
)

// AllTraits lists every known trait in a stable order.
var AllTraits = []Trait{
	Aggression, Courage, Wisdom, Charisma,
	Loyalty, Creativity, Discipline, Empathy,
}

// Traits maps each trait to its value.
type Traits map[Trait]float64

// TraitDef bounds a trait and documents it.
type TraitDef struct {
	Min         float64
	Max         float64
	Default     float64
	Description string
}

func defaultTraitDefs() map[Trait]TraitDef {
	defs := map[Trait]TraitDef{
		Aggression: {Description: "tendency towards aggressive behavior"},
		Courage:    {Default: 0.6, Description: "bravery and willingness to face danger"},
		Wisdom:     {Description: "decision making and knowledge application"},
		Charisma:   {Description: "social influence and leadership"},
		Loyalty:    {Default: 0.7, Description: "faithfulness to allies and causes"},
		Creativity: {Description: "ability to think outside the box"},
		Discipline: {Description: "self-control and organization"},
		Empathy:    {Description: "understanding and sharing feelings"},
	}
	for trait, def := range defs {
		def.Min = 0.0
		def.Max = 1.0
		if def.Default == 0 {
			def.Default = 0.5
		}
		defs[trait] = def
	}
	return defs
}

// Get returns the trait value, falling back to 0.5 when unset.
func (t Traits) Get(trait Trait) float64 {
	if v, ok := t[trait]; ok {
		return v
	}
	return 0.5
}

// Clone returns a copy of the trait map.
func (t Traits) Clone() Traits {
	out := make(Traits, len(t))
	for trait, v := range t {
		out[trait] = v
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
