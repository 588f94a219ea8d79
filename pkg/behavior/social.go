package behavior

import (
	"sync"

	"github.com/verai-labs/verai/pkg/personality"
)

// SocialAction is the outcome of a social decision.
type SocialAction string

const (
	SocialFormAlliance SocialAction = "form_alliance"
	SocialCooperate    SocialAction = "cooperate"
	SocialTrade        SocialAction = "trade"
	SocialShareInfo    SocialAction = "share_info"
	SocialBetray       SocialAction = "betray"
	SocialDefendAlly   SocialAction = "defend_ally"
)

// SituationContext carries the circumstances of a social decision.
type SituationContext struct {
	UnderAttack      bool
	ResourceScarcity bool
}

// SocialBehavior scores interactions with other agents from trust,
// relationship history and the agent's disposition.
type SocialBehavior struct {
	mu sync.RWMutex

	cooperation float64
	loyalty     float64
	riskTaking  float64

	trust         map[string]float64
	relationships map[string]float64
}

// NewSocialBehavior derives social disposition from a personality profile.
// Cooperation comes from empathy and loyalty since no single trait covers it.
func NewSocialBehavior(profile *personality.Profile) *SocialBehavior {
	cooperation := (profile.Traits.Get(personality.Empathy) + profile.Traits.Get(personality.Loyalty)) / 2
	return &SocialBehavior{
		cooperation:   cooperation,
		loyalty:       profile.Traits.Get(personality.Loyalty),
		riskTaking:    profile.Tendencies[personality.TendencyRiskTaking],
		trust:         make(map[string]float64),
		relationships: make(map[string]float64),
	}
}

// EvaluateInteraction scores a potential interaction with another agent.
// Unknown agents start at trust 0.5 and a neutral relationship.
func (sb *SocialBehavior) EvaluateInteraction(otherID string, situation SituationContext) float64 {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	trust, ok := sb.trust[otherID]
	if !ok {
		trust = 0.5
	}
	relationship := sb.relationships[otherID]

	score := (trust*0.6 + relationship*0.4) * sb.cooperation

	if situation.UnderAttack {
		score *= 1 + sb.loyalty
	}
	if situation.ResourceScarcity {
		score *= 1 - sb.riskTaking*0.5
	}
	return score
}

// DecideAction maps the interaction score onto a social action.
func (sb *SocialBehavior) DecideAction(otherID string, situation SituationContext) SocialAction {
	score := sb.EvaluateInteraction(otherID, situation)
	switch {
	case score > 0.8:
		return SocialFormAlliance
	case score > 0.6:
		return SocialCooperate
	case score > 0.4:
		return SocialTrade
	case score > 0.2:
		return SocialShareInfo
	default:
		return SocialBetray
	}
}

// SetTrust records the trust level for another agent, clamped to [0,1].
func (sb *SocialBehavior) SetTrust(otherID string, trust float64) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.trust[otherID] = clamp01(trust)
}

// AdjustRelationship shifts the relationship value, clamped to [-1,1].
func (sb *SocialBehavior) AdjustRelationship(otherID string, delta float64) float64 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	v := sb.relationships[otherID] + delta
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	sb.relationships[otherID] = v
	return v
}

// Trust reports the trust level for another agent.
func (sb *SocialBehavior) Trust(otherID string) float64 {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	if t, ok := sb.trust[otherID]; ok {
		return t
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
