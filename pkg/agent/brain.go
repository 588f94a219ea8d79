package agent

import (
	"context"
	"fmt"

	"github.com/verai-labs/verai/pkg/behavior"
	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/memory"
	"github.com/verai-labs/verai/pkg/personality"
)

// Perception is everything the agent senses during one tick.
type Perception struct {
	Threats             []behavior.Threat
	EnvironmentalDanger float64
	NearbyAgents        []string
	Opponent            *behavior.CombatStats
	OpponentID          string
	Distance            float64
	UnderAttack         bool
	ResourceScarcity    bool
}

// DecisionKind names the behavior domain a decision came from.
type DecisionKind string

const (
	DecisionCombat   DecisionKind = "combat"
	DecisionSocial   DecisionKind = "social"
	DecisionSurvival DecisionKind = "survival"
)

// Decision is the outcome of one perceive/decide cycle.
type Decision struct {
	Kind         DecisionKind
	CombatAction behavior.CombatAction
	SocialAction behavior.SocialAction
	Priority     behavior.SurvivalPriority
	TargetID     string
	Confidence   float64
}

// Brain wires personality, the three behavior domains and memory into one
// perceive, decide, learn cycle.
type Brain struct {
	profile  *personality.Profile
	combat   *behavior.CombatBehavior
	social   *behavior.SocialBehavior
	survival *behavior.SurvivalBehavior
	memory   *memory.System

	goals []string
	state map[string]any
}

// NewBrain builds a brain around a personality profile. A nil memory
// system leaves the brain amnesiac but functional.
func NewBrain(profile *personality.Profile, combatStats behavior.CombatStats, mem *memory.System) (*Brain, error) {
	if profile == nil {
		return nil, errors.New(errors.CodeInvalidInput, "personality profile required", nil)
	}
	return &Brain{
		profile:  profile,
		combat:   behavior.NewCombatBehavior(combatStats),
		social:   behavior.NewSocialBehavior(profile),
		survival: behavior.NewSurvivalBehavior(),
		memory:   mem,
		state:    make(map[string]any),
	}, nil
}

// Profile exposes the personality driving this brain.
func (b *Brain) Profile() *personality.Profile { return b.profile }

// Combat exposes the combat behavior for outcome feedback.
func (b *Brain) Combat() *behavior.CombatBehavior { return b.combat }

// Social exposes the social behavior for trust updates.
func (b *Brain) Social() *behavior.SocialBehavior { return b.social }

// Survival exposes resource tracking.
func (b *Brain) Survival() *behavior.SurvivalBehavior { return b.survival }

// AddGoal appends a standing goal.
func (b *Brain) AddGoal(goal string) { b.goals = append(b.goals, goal) }

// Goals lists standing goals.
func (b *Brain) Goals() []string { return append([]string(nil), b.goals...) }

// Process runs one perceive, decide, learn cycle and returns the decision.
func (b *Brain) Process(ctx context.Context, p Perception) (Decision, error) {
	situation := b.survival.AssessSituation(p.Threats, p.EnvironmentalDanger)
	priority := b.survival.DecidePriority(situation)

	decision := b.decide(p, situation, priority)
	b.state["last_priority"] = string(priority)
	b.state["overall_risk"] = situation.OverallRisk

	if err := b.learn(ctx, p, situation, decision); err != nil {
		return decision, err
	}
	return decision, nil
}

func (b *Brain) decide(p Perception, situation behavior.Situation, priority behavior.SurvivalPriority) Decision {
	if priority == behavior.PriorityImmediateThreat && p.Opponent != nil {
		action := b.combat.ChooseAction(*p.Opponent, p.Distance)
		weights := b.combat.ActionWeights(*p.Opponent, p.Distance)
		return Decision{
			Kind:         DecisionCombat,
			CombatAction: action,
			TargetID:     p.OpponentID,
			Confidence:   normalizedWeight(weights[action], weights),
		}
	}

	// With no pressing danger a sociable personality engages nearby
	// agents before wandering off.
	if len(p.NearbyAgents) > 0 && situation.OverallRisk < b.profile.Patterns.Social {
		target := p.NearbyAgents[0]
		action := b.social.DecideAction(target, behavior.SituationContext{
			UnderAttack:      p.UnderAttack,
			ResourceScarcity: p.ResourceScarcity,
		})
		score := b.social.EvaluateInteraction(target, behavior.SituationContext{
			UnderAttack:      p.UnderAttack,
			ResourceScarcity: p.ResourceScarcity,
		})
		return Decision{
			Kind:         DecisionSocial,
			SocialAction: action,
			TargetID:     target,
			Confidence:   score,
		}
	}

	return Decision{
		Kind:       DecisionSurvival,
		Priority:   priority,
		Confidence: 1 - situation.OverallRisk,
	}
}

func normalizedWeight(chosen float64, all map[behavior.CombatAction]float64) float64 {
	total := 0.0
	for _, w := range all {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 || chosen <= 0 {
		return 0
	}
	return chosen / total
}

// learn records the decision so future recalls can replay what worked.
func (b *Brain) learn(ctx context.Context, p Perception, situation behavior.Situation, d Decision) error {
	if b.memory == nil {
		return nil
	}

	importance := 0.3 + situation.OverallRisk*0.5
	if importance > 1 {
		importance = 1
	}
	rec := memory.Record{
		Kind:       memory.KindProcedural,
		Summary:    fmt.Sprintf("%s decision under risk %.2f", d.Kind, situation.OverallRisk),
		Importance: importance,
		Content: map[string]any{
			"kind":       string(d.Kind),
			"target":     d.TargetID,
			"confidence": d.Confidence,
			"risk":       situation.OverallRisk,
		},
	}
	if d.TargetID != "" {
		rec.Entities = []string{d.TargetID}
	}
	if _, err := b.memory.Add(ctx, rec); err != nil {
		return errors.New(errors.CodeInternal, "failed to store decision", err)
	}
	return nil
}
