package combat

// AttackType is the flavor of a single strike inside a combo.
type AttackType string

const (
	AttackLight     AttackType = "light"
	AttackHeavy     AttackType = "heavy"
	AttackSpecial   AttackType = "special"
	AttackAerial    AttackType = "aerial"
	AttackExecution AttackType = "execution"
)

// ComboPhase positions a strike within a combo.
type ComboPhase string

const (
	PhaseStarter ComboPhase = "starter"
	PhaseLinker  ComboPhase = "linker"
	PhaseEnder   ComboPhase = "ender"
)

// ComboStep is one strike of a combo sequence.
type ComboStep struct {
	Attack AttackType
	Phase  ComboPhase
}

// ComboDef describes a named combo.
type ComboDef struct {
	Sequence         []ComboStep
	DamageMultiplier float64
	StaminaCost      float64
}

// AerialMove describes a move only usable at height.
type AerialMove struct {
	StaminaCost       float64
	DamageMultiplier  float64
	HeightRequirement float64
	MomentumFactor    float64
}

// Mechanics holds the combo, aerial and execution rule tables.
type Mechanics struct {
	combos      map[string]ComboDef
	aerialMoves map[string]AerialMove
}

// NewMechanics builds the standard rule tables.
func NewMechanics() *Mechanics {
	return &Mechanics{
		combos: map[string]ComboDef{
			"basic": {
				Sequence: []ComboStep{
					{AttackLight, PhaseStarter},
					{AttackLight, PhaseLinker},
					{AttackHeavy, PhaseEnder},
				},
				DamageMultiplier: 1.2,
				StaminaCost:      25,
			},
			"aerial": {
				Sequence: []ComboStep{
					{AttackAerial, PhaseStarter},
					{AttackLight, PhaseLinker},
					{AttackAerial, PhaseEnder},
				},
				DamageMultiplier: 1.4,
				StaminaCost:      35,
			},
			"execution": {
				Sequence: []ComboStep{
					{AttackHeavy, PhaseStarter},
					{AttackSpecial, PhaseLinker},
					{AttackExecution, PhaseEnder},
				},
				DamageMultiplier: 1.8,
				StaminaCost:      50,
			},
		},
		aerialMoves: map[string]AerialMove{
			"air_dash": {
				StaminaCost:       15,
				DamageMultiplier:  1.2,
				HeightRequirement: 2.0,
				MomentumFactor:    1.5,
			},
			"air_slam": {
				StaminaCost:       25,
				DamageMultiplier:  1.6,
				HeightRequirement: 4.0,
				MomentumFactor:    2.0,
			},
			"aerial_execution": {
				StaminaCost:       40,
				DamageMultiplier:  2.0,
				HeightRequirement: 3.0,
				MomentumFactor:    2.5,
			},
		},
	}
}

// Combo looks up a combo definition by name.
func (m *Mechanics) Combo(name string) (ComboDef, bool) {
	c, ok := m.combos[name]
	return c, ok
}

// ComboDamage sums damage over a chained sequence; the chain multiplier
// grows by 0.1 times the step index each strike and attack types carry
// their own weight (heavy 1.5x, aerial 1.3x, execution the supplied
// multiplier).
func (m *Mechanics) ComboDamage(baseDamage float64, sequence []AttackType, executionMultiplier float64) float64 {
	total := 0.0
	chain := 1.0
	for i, attack := range sequence {
		chain += 0.1 * float64(i)
		damage := baseDamage * chain

		switch attack {
		case AttackHeavy:
			damage *= 1.5
		case AttackAerial:
			damage *= 1.3
		case AttackExecution:
			damage *= executionMultiplier
		}

		total += damage
	}
	return total
}

// ValidateAerialMove reports whether the move is known and the player has
// the height and stamina to perform it.
func (m *Mechanics) ValidateAerialMove(name string, playerHeight, currentStamina float64) bool {
	move, ok := m.aerialMoves[name]
	if !ok {
		return false
	}
	if playerHeight < move.HeightRequirement {
		return false
	}
	if currentStamina < move.StaminaCost {
		return false
	}
	return true
}

// CanExecute reports whether the target is low enough for a finisher.
// Threshold starts at 25% health and grows 1% per player level, scaled by
// the difficulty modifier.
func (m *Mechanics) CanExecute(targetHealthPct float64, playerLevel int, difficultyModifier float64) bool {
	if difficultyModifier == 0 {
		difficultyModifier = 1
	}
	threshold := (0.25 + 0.01*float64(playerLevel)) * difficultyModifier
	return targetHealthPct <= threshold
}
