// Package social implements relationships, reputation and factions.
package social

import (
	"context"
	"math/rand"
	"time"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// RelationType labels the bond between two agents.
type RelationType string

const (
	RelationAlly    RelationType = "ally"
	RelationRival   RelationType = "rival"
	RelationNeutral RelationType = "neutral"
	RelationMentor  RelationType = "mentor"
	RelationStudent RelationType = "student"
	RelationEnemy   RelationType = "enemy"
	RelationFriend  RelationType = "friend"
)

// SocialStats are the agent's standing social attributes.
type SocialStats struct {
	Influence      float64
	Charisma       float64
	Reputation     float64
	TrustRating    float64
	Leadership     float64
	SocialCurrency float64
}

// DefaultSocialStats returns the standing baseline for new agents.
func DefaultSocialStats() SocialStats {
	return SocialStats{
		Influence:      10,
		Charisma:       10,
		Reputation:     50,
		TrustRating:    50,
		Leadership:     10,
		SocialCurrency: 100,
	}
}

// Relationship is one agent's view of its bond with another.
type Relationship struct {
	Type             RelationType
	Strength         float64 // [0,1]
	Trust            float64 // [0,1]
	InteractionCount int
	LastInteraction  time.Time
}

// InteractionContext carries circumstances that shift interaction odds.
type InteractionContext struct {
	EnvironmentFriendly bool
	PreviousSuccess     bool
	// Impact scales trust movement; 0 means the default of 1.
	Impact float64
}

// InteractionOutcome reports what one interaction did to the bond.
type InteractionOutcome struct {
	Success           bool
	RelationshipDelta float64
	TrustDelta        float64
	NewType           RelationType
	Evolved           bool
}

// RelationshipSystem tracks one agent's bonds with everyone it has met.
type RelationshipSystem struct {
	agentID       string
	stats         SocialStats
	relationships map[string]*Relationship
	emitter       core.EventEmitter
	rng           *rand.Rand
	now           func() time.Time
}

// RelationshipOption configures a RelationshipSystem.
type RelationshipOption func(*RelationshipSystem)

// WithSocialStats overrides the default stats.
func WithSocialStats(stats SocialStats) RelationshipOption {
	return func(rs *RelationshipSystem) { rs.stats = stats }
}

// WithRelationshipRand injects a deterministic random source.
func WithRelationshipRand(rng *rand.Rand) RelationshipOption {
	return func(rs *RelationshipSystem) { rs.rng = rng }
}

// WithRelationshipEmitter routes evolution events to an emitter.
func WithRelationshipEmitter(emitter core.EventEmitter) RelationshipOption {
	return func(rs *RelationshipSystem) { rs.emitter = emitter }
}

// NewRelationshipSystem creates the relationship state for one agent.
func NewRelationshipSystem(agentID string, opts ...RelationshipOption) *RelationshipSystem {
	rs := &RelationshipSystem{
		agentID:       agentID,
		stats:         DefaultSocialStats(),
		relationships: make(map[string]*Relationship),
		emitter:       core.NoopEventEmitter{},
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Establish opens a relationship of the given type and strength.
// Initial trust tracks the starting strength.
func (rs *RelationshipSystem) Establish(targetID string, relType RelationType, strength float64) (*Relationship, error) {
	if targetID == "" || targetID == rs.agentID {
		return nil, errors.New(errors.CodeInvalidInput, "invalid relationship target", nil).
			WithContext("target", targetID)
	}
	if strength < 0 || strength > 1 {
		return nil, errors.New(errors.CodeInvalidInput, "relationship strength out of range", nil).
			WithContext("strength", strength)
	}

	rel := &Relationship{
		Type:     relType,
		Strength: strength,
		Trust:    strength,
	}
	rs.relationships[targetID] = rel
	return rel, nil
}

// Relationship returns the bond with a target, if any.
func (rs *RelationshipSystem) Relationship(targetID string) (*Relationship, bool) {
	rel, ok := rs.relationships[targetID]
	return rel, ok
}

// SuccessChance computes interaction odds from the bond, charisma and
// circumstances, clamped to [0.1, 0.9].
func (rs *RelationshipSystem) SuccessChance(targetID string, ictx InteractionContext) float64 {
	chance := 0.5
	if rel, ok := rs.relationships[targetID]; ok {
		chance += rel.Strength * 0.2
	}
	chance += (rs.stats.Charisma / 100) * 0.15
	if ictx.EnvironmentFriendly {
		chance += 0.1
	}
	if ictx.PreviousSuccess {
		chance += 0.05
	}

	if chance < 0.1 {
		chance = 0.1
	}
	if chance > 0.9 {
		chance = 0.9
	}
	return chance
}

// Interact rolls the interaction, moves strength and trust, and checks
// whether the bond evolves into an alliance or rivalry.
func (rs *RelationshipSystem) Interact(ctx context.Context, targetID, interactionType string, ictx InteractionContext) (*InteractionOutcome, error) {
	rel, ok := rs.relationships[targetID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "no relationship with target", nil).
			WithContext("target", targetID)
	}

	impact := ictx.Impact
	if impact == 0 {
		impact = 1
	}

	chance := rs.SuccessChance(targetID, ictx)
	success := rs.rng.Float64() < chance

	outcome := &InteractionOutcome{Success: success}
	if success {
		outcome.RelationshipDelta = 0.1
		outcome.TrustDelta = 0.05 * impact
	} else {
		outcome.RelationshipDelta = -0.1
		outcome.TrustDelta = -0.05 * impact
	}

	rel.Strength = clampUnit(rel.Strength + outcome.RelationshipDelta)
	rel.Trust = clampUnit(rel.Trust + outcome.TrustDelta)
	rel.InteractionCount++
	rel.LastInteraction = rs.now()

	if evolved, newType := rs.checkEvolution(rel); evolved {
		outcome.Evolved = true
		outcome.NewType = newType
		rs.emitter.Emit(ctx, core.NewEvent(core.EventSocialEvolved, rs.agentID, targetID, map[string]any{
			"relation": string(newType),
			"strength": rel.Strength,
			"trust":    rel.Trust,
		}))
	}

	rs.emitter.Emit(ctx, core.NewEvent(core.EventSocialContact, rs.agentID, targetID, map[string]any{
		"interaction": interactionType,
		"success":     success,
	}))
	return outcome, nil
}

// checkEvolution promotes strong trusting bonds to ally and degrades weak
// distrustful ones to rival.
func (rs *RelationshipSystem) checkEvolution(rel *Relationship) (bool, RelationType) {
	if rel.Strength >= 0.8 && rel.Trust >= 0.7 && rel.Type != RelationAlly {
		rel.Type = RelationAlly
		return true, RelationAlly
	}
	if rel.Strength <= 0.2 && rel.Trust <= 0.3 && rel.Type != RelationRival {
		rel.Type = RelationRival
		return true, RelationRival
	}
	return false, rel.Type
}

// Counts reports allies and rivals.
func (rs *RelationshipSystem) Counts() (allies, rivals int) {
	for _, rel := range rs.relationships {
		switch rel.Type {
		case RelationAlly:
			allies++
		case RelationRival:
			rivals++
		}
	}
	return allies, rivals
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
