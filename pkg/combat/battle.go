package combat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// BattleState is the lifecycle state of a battle.
type BattleState string

const (
	StatePreparing  BattleState = "preparing"
	StateInProgress BattleState = "in_progress"
	StatePaused     BattleState = "paused"
	StateFinished   BattleState = "finished"
	StateCancelled  BattleState = "cancelled"
)

// BattleType is the format of a battle.
type BattleType string

const (
	BattleDuel       BattleType = "duel"
	BattleTeam       BattleType = "team"
	BattleFreeForAll BattleType = "ffa"
	BattleBoss       BattleType = "boss"
	BattleTournament BattleType = "tournament"
)

// StatusEffect is a timed condition on a participant.
type StatusEffect struct {
	Name         string
	Remaining    float64
	DamagePerSec float64
}

// Participant is one combatant inside a battle.
type Participant struct {
	ID            string
	TeamID        string
	Position      [3]float64
	Health        float64
	MaxHealth     float64
	Energy        float64
	MaxEnergy     float64
	Stats         map[string]float64
	StatusEffects []StatusEffect
	Cooldowns     map[string]float64
}

// Alive reports whether the participant can still fight.
func (p *Participant) Alive() bool { return p.Health > 0 }

// Settings configures a battle at creation.
type Settings struct {
	TimeLimit   float64 // seconds, 0 means no limit
	Environment map[string]float64
}

// Battle is one active or finished engagement.
type Battle struct {
	ID           string
	Type         BattleType
	State        BattleState
	StartTime    time.Time
	Participants map[string]*Participant
	Teams        map[string][]string
	Settings     Settings
	Elapsed      float64
	WinningTeam  string
}

// ActionResult reports what one action did.
type ActionResult struct {
	Effects     []ComputedEffect
	DamageDealt map[string]float64
	Defeated    []string
}

// System runs battles: creation, actions, per-tick updates.
type System struct {
	mu sync.Mutex

	battles   map[string]*Battle
	history   []*Battle
	skills    *SkillSystem
	mechanics *Mechanics
	emitter   core.EventEmitter
}

// NewSystem creates a battle system emitting through the given emitter.
func NewSystem(skills *SkillSystem, emitter core.EventEmitter) *System {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	return &System{
		battles:   make(map[string]*Battle),
		skills:    skills,
		mechanics: NewMechanics(),
		emitter:   emitter,
	}
}

// Skills exposes the skill catalog backing this battle system.
func (s *System) Skills() *SkillSystem { return s.skills }

// Mechanics exposes the combo and execution rule tables.
func (s *System) Mechanics() *Mechanics { return s.mechanics }

// Create validates the setup and registers a new battle in the preparing
// state.
func (s *System) Create(ctx context.Context, battleType BattleType, participants []Participant, settings Settings) (*Battle, error) {
	if err := validateSetup(battleType, participants); err != nil {
		return nil, err
	}

	battle := &Battle{
		ID:           uuid.NewString(),
		Type:         battleType,
		State:        StatePreparing,
		StartTime:    time.Now().UTC(),
		Participants: make(map[string]*Participant),
		Teams:        make(map[string][]string),
		Settings:     settings,
	}
	for i := range participants {
		p := participants[i]
		if p.MaxHealth == 0 {
			p.MaxHealth = p.Health
		}
		if p.MaxEnergy == 0 {
			p.MaxEnergy = p.Energy
		}
		if p.Cooldowns == nil {
			p.Cooldowns = make(map[string]float64)
		}
		battle.Participants[p.ID] = &p
		battle.Teams[p.TeamID] = append(battle.Teams[p.TeamID], p.ID)
	}

	s.mu.Lock()
	s.battles[battle.ID] = battle
	s.mu.Unlock()

	s.emitter.Emit(ctx, core.NewEvent(core.EventCombatEngaged, "", "", map[string]any{
		"battle_id":    battle.ID,
		"battle_type":  string(battleType),
		"participants": len(participants),
	}))
	return battle, nil
}

func validateSetup(battleType BattleType, participants []Participant) error {
	if len(participants) < 2 {
		return errors.New(errors.CodeInvalidInput, "battle needs at least two participants", nil)
	}

	teams := make(map[string]int)
	for _, p := range participants {
		if p.ID == "" {
			return errors.New(errors.CodeInvalidInput, "participant id required", nil)
		}
		teams[p.TeamID]++
	}

	switch battleType {
	case BattleDuel:
		if len(participants) != 2 || len(teams) != 2 {
			return errors.New(errors.CodeInvalidInput, "duel requires exactly two opposing participants", nil)
		}
	case BattleTeam:
		if len(teams) < 2 {
			return errors.New(errors.CodeInvalidInput, "team battle requires at least two teams", nil)
		}
	case BattleFreeForAll:
		if len(teams) != len(participants) {
			return errors.New(errors.CodeInvalidInput, "free-for-all requires one team per participant", nil)
		}
	case BattleBoss, BattleTournament:
		if len(teams) < 2 {
			return errors.New(errors.CodeInvalidInput, "battle requires at least two sides", nil)
		}
	default:
		return errors.New(errors.CodeInvalidInput, "unknown battle type", nil).
			WithContext("type", string(battleType))
	}
	return nil
}

// Start moves a preparing battle into progress.
func (s *System) Start(battleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	battle, ok := s.battles[battleID]
	if !ok {
		return errors.New(errors.CodeNotFound, "battle not found", nil).
			WithContext("battle_id", battleID)
	}
	if battle.State != StatePreparing && battle.State != StatePaused {
		return errors.New(errors.CodeCombatError, "battle cannot start from current state", nil).
			WithContext("state", string(battle.State))
	}
	battle.State = StateInProgress
	return nil
}

// Battle looks up an active battle.
func (s *System) Battle(battleID string) (*Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	battle, ok := s.battles[battleID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "battle not found", nil).
			WithContext("battle_id", battleID)
	}
	return battle, nil
}

// ProcessAction validates and executes one skill cast inside a battle.
func (s *System) ProcessAction(ctx context.Context, battleID, actorID, skillID string, targets []string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	battle, ok := s.battles[battleID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "battle not found", nil).
			WithContext("battle_id", battleID)
	}
	if battle.State != StateInProgress {
		return nil, errors.New(errors.CodeCombatError, "battle not in progress", nil).
			WithContext("state", string(battle.State))
	}

	actor, ok := battle.Participants[actorID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "actor not in battle", nil).
			WithContext("actor", actorID)
	}
	if !actor.Alive() {
		return nil, errors.New(errors.CodeCombatError, "actor is defeated", nil).
			WithContext("actor", actorID)
	}
	if cd := actor.Cooldowns[skillID]; cd > 0 {
		return nil, errors.New(errors.CodeCombatError, "skill on cooldown", nil).
			WithContext("skill_id", skillID).
			WithContext("remaining", cd)
	}

	skill, err := s.skills.Skill(skillID)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string][]ComputedEffect, len(targets))
	var cost float64
	for _, targetID := range targets {
		target, ok := battle.Participants[targetID]
		if !ok {
			return nil, errors.New(errors.CodeNotFound, "target not in battle", nil).
				WithContext("target", targetID)
		}
		effects, c, err := s.skills.CalculateEffects(skillID, actor.Stats, target.Stats, battle.Settings.Environment)
		if err != nil {
			return nil, err
		}
		resolved[targetID] = effects
		cost = c
	}
	if actor.Energy < cost {
		return nil, errors.New(errors.CodeCombatError, "not enough energy", nil).
			WithContext("needed", cost).
			WithContext("available", actor.Energy)
	}
	actor.Energy -= cost

	result := &ActionResult{DamageDealt: make(map[string]float64)}
	for _, targetID := range targets {
		target := battle.Participants[targetID]
		for _, eff := range resolved[targetID] {
			applyEffect(target, eff)
			result.Effects = append(result.Effects, eff)
			if eff.Type == EffectDamage || eff.Type == EffectDrain {
				result.DamageDealt[targetID] += eff.Value
			}
			if eff.Type == EffectDrain {
				actor.Energy = minF(actor.Energy+eff.Value*0.5, actor.MaxEnergy)
			}
		}
		if !target.Alive() {
			result.Defeated = append(result.Defeated, targetID)
		}
	}

	actor.Cooldowns[skillID] = skill.Cooldown

	s.emitter.Emit(ctx, core.NewEvent(core.EventCombatAction, actorID, "", map[string]any{
		"battle_id": battleID,
		"skill":     skill.Name,
		"targets":   targets,
	}))

	s.checkEndLocked(ctx, battle)
	return result, nil
}

func applyEffect(target *Participant, eff ComputedEffect) {
	switch eff.Type {
	case EffectDamage, EffectDrain:
		target.Health -= eff.Value
		if target.Health < 0 {
			target.Health = 0
		}
	case EffectHeal:
		target.Health = minF(target.Health+eff.Value, target.MaxHealth)
	case EffectStun, EffectDebuff:
		target.StatusEffects = append(target.StatusEffects, StatusEffect{
			Name:      string(eff.Type),
			Remaining: eff.Duration,
		})
	case EffectShield, EffectBuff:
		target.StatusEffects = append(target.StatusEffects, StatusEffect{
			Name:      string(eff.Type),
			Remaining: eff.Duration,
		})
	}
}

// Update ticks all in-progress battles: cooldowns, status effects, the
// clock, and end detection. Finished battles move to history.
func (s *System) Update(ctx context.Context, delta float64) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []core.Event
	for _, battle := range s.battles {
		if battle.State != StateInProgress {
			continue
		}
		battle.Elapsed += delta

		for _, p := range battle.Participants {
			for skillID, cd := range p.Cooldowns {
				cd -= delta
				if cd <= 0 {
					delete(p.Cooldowns, skillID)
				} else {
					p.Cooldowns[skillID] = cd
				}
			}

			kept := p.StatusEffects[:0]
			for _, se := range p.StatusEffects {
				if se.DamagePerSec > 0 {
					p.Health -= se.DamagePerSec * delta
					if p.Health < 0 {
						p.Health = 0
					}
				}
				se.Remaining -= delta
				if se.Remaining > 0 {
					kept = append(kept, se)
				}
			}
			p.StatusEffects = kept
		}

		if ended := s.checkEndLocked(ctx, battle); ended {
			events = append(events, core.NewEvent(core.EventCombatFinished, "", "", map[string]any{
				"battle_id":    battle.ID,
				"winning_team": battle.WinningTeam,
				"elapsed":      battle.Elapsed,
			}))
		}
	}

	for id, battle := range s.battles {
		if battle.State == StateFinished || battle.State == StateCancelled {
			s.history = append(s.history, battle)
			delete(s.battles, id)
		}
	}
	return events, nil
}

// checkEndLocked finishes the battle when only one team stands or the
// time limit ran out. Must be called under lock.
func (s *System) checkEndLocked(ctx context.Context, battle *Battle) bool {
	if battle.State != StateInProgress {
		return false
	}

	aliveTeams := make(map[string]bool)
	for _, p := range battle.Participants {
		if p.Alive() {
			aliveTeams[p.TeamID] = true
		}
	}

	timedOut := battle.Settings.TimeLimit > 0 && battle.Elapsed >= battle.Settings.TimeLimit
	if len(aliveTeams) > 1 && !timedOut {
		return false
	}

	battle.State = StateFinished
	if len(aliveTeams) == 1 {
		for team := range aliveTeams {
			battle.WinningTeam = team
		}
	}
	return true
}

// Cancel aborts an active battle.
func (s *System) Cancel(battleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	battle, ok := s.battles[battleID]
	if !ok {
		return errors.New(errors.CodeNotFound, "battle not found", nil).
			WithContext("battle_id", battleID)
	}
	battle.State = StateCancelled
	return nil
}

// ActiveCount reports how many battles are currently registered.
func (s *System) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.battles)
}

// History returns finished battles in completion order.
func (s *System) History() []*Battle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Battle, len(s.history))
	copy(out, s.history)
	return out
}
