package agent

// Stats are the core attributes of a simulated agent.
type Stats struct {
	Health       float64
	MaxHealth    float64
	Energy       float64
	MaxEnergy    float64
	Strength     float64
	Agility      float64
	Intelligence float64
	Charisma     float64
	Luck         float64
}

// DefaultStats returns the baseline attribute block.
func DefaultStats() Stats {
	return Stats{
		Health:       100,
		MaxHealth:    100,
		Energy:       100,
		MaxEnergy:    100,
		Strength:     10,
		Agility:      10,
		Intelligence: 10,
		Charisma:     10,
		Luck:         10,
	}
}

// energyRegenRate is energy restored per second while updating.
const energyRegenRate = 1.0

// Progression tracks level and cumulative experience.
type Progression struct {
	Level      int
	Experience int
}

// NewProgression starts at level 1 with no experience.
func NewProgression() Progression {
	return Progression{Level: 1}
}

// nextLevelExp is the cumulative experience required to reach the next
// level. The step grows with each level.
func (p Progression) nextLevelExp() int {
	return 100 * p.Level * (p.Level + 1) / 2
}

// LevelUpResult reports the effect of gained experience.
type LevelUpResult struct {
	GainedExp int
	TotalExp  int
	OldLevel  int
	NewLevel  int
}

// Gain adds experience and applies as many level-ups as the new total
// covers, growing the stats with each level.
func (p *Progression) Gain(amount int, stats *Stats) LevelUpResult {
	result := LevelUpResult{
		GainedExp: amount,
		OldLevel:  p.Level,
	}
	p.Experience += amount
	for p.Experience >= p.nextLevelExp() {
		p.Level++
		levelUp(stats)
	}
	result.TotalExp = p.Experience
	result.NewLevel = p.Level
	return result
}

// levelUp grows the attribute block and restores the agent.
func levelUp(stats *Stats) {
	if stats == nil {
		return
	}
	stats.MaxHealth += 10
	stats.MaxEnergy += 5
	stats.Strength++
	stats.Agility++
	stats.Intelligence++
	stats.Health = stats.MaxHealth
	stats.Energy = stats.MaxEnergy
}
