// Package behavior implements the decision layers agents use in combat,
// social encounters and survival situations.
package behavior

// CombatStats describes the fighting capability of one combatant.
type CombatStats struct {
	Health         float64
	Stamina        float64
	Strength       float64
	Agility        float64
	Defense        float64
	CriticalChance float64
}

// DefaultCombatStats returns baseline stats for a fresh agent.
func DefaultCombatStats() CombatStats {
	return CombatStats{
		Health:         100,
		Stamina:        100,
		Strength:       10,
		Agility:        10,
		Defense:        10,
		CriticalChance: 0.05,
	}
}

// CombatAction is one of the choices available each combat decision.
type CombatAction string

const (
	ActionAttack  CombatAction = "attack"
	ActionDefend  CombatAction = "defend"
	ActionRetreat CombatAction = "retreat"
	ActionSpecial CombatAction = "special"
)

// CombatResult records the outcome of one engagement for learning.
type CombatResult struct {
	Opponent    string
	Action      CombatAction
	Won         bool
	DamageDealt float64
	DamageTaken float64
}

const (
	combatHistoryTrigger = 100
	combatHistoryKeep    = 50
	specialStaminaFloor  = 0.3
	specialRange         = 5.0
)

// CombatBehavior tracks one agent's combat state and learned patterns.
type CombatBehavior struct {
	stats          CombatStats
	currentHealth  float64
	currentStamina float64
	history        []CombatResult
	// winRates maps action name to observed win rate, rebuilt from history.
	winRates map[CombatAction]float64
}

// NewCombatBehavior creates combat state at full health and stamina.
func NewCombatBehavior(stats CombatStats) *CombatBehavior {
	return &CombatBehavior{
		stats:          stats,
		currentHealth:  stats.Health,
		currentStamina: stats.Stamina,
		winRates:       make(map[CombatAction]float64),
	}
}

// EvaluateThreat scores an opponent against own defense, clamped to [0,10].
func (cb *CombatBehavior) EvaluateThreat(opponent CombatStats) float64 {
	if cb.stats.Defense <= 0 {
		return 10
	}
	threat := (opponent.Strength*1.5 + opponent.Agility*1.2 + opponent.Defense*1.0) / cb.stats.Defense
	if threat < 0 {
		return 0
	}
	if threat > 10 {
		return 10
	}
	return threat
}

// ChooseAction weighs attack, defend, retreat and special against the
// opponent and picks the heaviest option.
func (cb *CombatBehavior) ChooseAction(opponent CombatStats, distance float64) CombatAction {
	threat := cb.EvaluateThreat(opponent)
	staminaRatio := ratio(cb.currentStamina, cb.stats.Stamina)
	healthRatio := ratio(cb.currentHealth, cb.stats.Health)

	weights := cb.actionWeights(threat, staminaRatio, healthRatio, distance)

	// Stable iteration so ties resolve the same way every tick.
	order := []CombatAction{ActionAttack, ActionDefend, ActionRetreat, ActionSpecial}
	best := order[0]
	for _, action := range order[1:] {
		if weights[action] > weights[best] {
			best = action
		}
	}
	return best
}

// ActionWeights exposes the raw weights for inspection and testing.
func (cb *CombatBehavior) ActionWeights(opponent CombatStats, distance float64) map[CombatAction]float64 {
	threat := cb.EvaluateThreat(opponent)
	return cb.actionWeights(threat,
		ratio(cb.currentStamina, cb.stats.Stamina),
		ratio(cb.currentHealth, cb.stats.Health),
		distance)
}

func (cb *CombatBehavior) actionWeights(threat, staminaRatio, healthRatio, distance float64) map[CombatAction]float64 {
	weights := map[CombatAction]float64{
		ActionAttack:  (1-threat/10)*0.6 + staminaRatio*0.4,
		ActionDefend:  (threat/10)*0.5 + (1-healthRatio)*0.5,
		ActionRetreat: (threat/10)*0.6 + (1-healthRatio)*0.6 - 0.3,
		ActionSpecial: 0,
	}

	// Specials need stamina in reserve and the opponent in range.
	if staminaRatio >= specialStaminaFloor && distance <= specialRange {
		weights[ActionSpecial] = staminaRatio*0.5 + (1-distance/specialRange)*0.3
	}

	// Learned win rates nudge toward what has worked before.
	for action, rate := range cb.winRates {
		weights[action] += (rate - 0.5) * 0.2
	}
	return weights
}

// RecordOutcome stores an engagement. Past the history trigger the win
// rates are rebuilt and only the most recent engagements are kept.
func (cb *CombatBehavior) RecordOutcome(result CombatResult) {
	cb.history = append(cb.history, result)
	if len(cb.history) > combatHistoryTrigger {
		cb.rebuildWinRates()
		cb.history = append([]CombatResult(nil), cb.history[len(cb.history)-combatHistoryKeep:]...)
	}
}

func (cb *CombatBehavior) rebuildWinRates() {
	wins := make(map[CombatAction]int)
	total := make(map[CombatAction]int)
	for _, r := range cb.history {
		total[r.Action]++
		if r.Won {
			wins[r.Action]++
		}
	}
	for action, n := range total {
		cb.winRates[action] = float64(wins[action]) / float64(n)
	}
}

// WinRate reports the learned win rate for an action, 0.5 if unseen.
func (cb *CombatBehavior) WinRate(action CombatAction) float64 {
	if rate, ok := cb.winRates[action]; ok {
		return rate
	}
	return 0.5
}

// HistoryLen reports how many engagements are retained.
func (cb *CombatBehavior) HistoryLen() int { return len(cb.history) }

// ApplyDamage reduces current health, floored at zero.
func (cb *CombatBehavior) ApplyDamage(amount float64) {
	cb.currentHealth -= amount
	if cb.currentHealth < 0 {
		cb.currentHealth = 0
	}
}

// SpendStamina reduces current stamina, floored at zero.
func (cb *CombatBehavior) SpendStamina(amount float64) {
	cb.currentStamina -= amount
	if cb.currentStamina < 0 {
		cb.currentStamina = 0
	}
}

// Recover restores health and stamina up to their maximums.
func (cb *CombatBehavior) Recover(health, stamina float64) {
	cb.currentHealth = minF(cb.currentHealth+health, cb.stats.Health)
	cb.currentStamina = minF(cb.currentStamina+stamina, cb.stats.Stamina)
}

// Condition reports current health and stamina.
func (cb *CombatBehavior) Condition() (health, stamina float64) {
	return cb.currentHealth, cb.currentStamina
}

func ratio(cur, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return cur / max
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
