package social

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// ReputationType splits standing into the arenas agents act in.
type ReputationType string

const (
	RepGeneral    ReputationType = "general"
	RepCombat     ReputationType = "combat"
	RepTrading    ReputationType = "trading"
	RepDiplomatic ReputationType = "diplomatic"
	RepSocial     ReputationType = "social"
	RepHonor      ReputationType = "honor"
	RepInfluence  ReputationType = "influence"
	RepExpertise  ReputationType = "expertise"
)

// AllReputationTypes lists every reputation arena.
var AllReputationTypes = []ReputationType{
	RepGeneral, RepCombat, RepTrading, RepDiplomatic,
	RepSocial, RepHonor, RepInfluence, RepExpertise,
}

// ReputationTier buckets a 0-100 value into a social label.
type ReputationTier string

const (
	TierLegendary ReputationTier = "legendary" // 90-100
	TierRenowned  ReputationTier = "renowned"  // 75-89
	TierRespected ReputationTier = "respected" // 60-74
	TierKnown     ReputationTier = "known"     // 45-59
	TierNeutral   ReputationTier = "neutral"   // 30-44
	TierDubious   ReputationTier = "dubious"   // 15-29
	TierInfamous  ReputationTier = "infamous"  // 0-14
)

// TierFor maps a reputation value to its tier.
func TierFor(value float64) ReputationTier {
	switch {
	case value >= 90:
		return TierLegendary
	case value >= 75:
		return TierRenowned
	case value >= 60:
		return TierRespected
	case value >= 45:
		return TierKnown
	case value >= 30:
		return TierNeutral
	case value >= 15:
		return TierDubious
	default:
		return TierInfamous
	}
}

// ReputationEvent records one standing-changing action.
type ReputationEvent struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	TargetID  string
	EventType string
	Change    float64
	Witnesses []string
}

// eventWeight pairs the reputation arena an event touches with its base
// magnitude.
type eventWeight struct {
	repType ReputationType
	weight  float64
}

// EventContext modifies how strongly an event lands.
type EventContext struct {
	TargetID  string
	FactionID string
	// Modifier scales the base weight; 0 means the default of 1.
	Modifier  float64
	Witnesses []string
}

// ReputationSystem tracks per-entity standing across all arenas.
// Profiles register from connection handlers while the tick loop decays
// values, so all state is lock-guarded.
type ReputationSystem struct {
	mu               sync.RWMutex
	reputations      map[string]map[ReputationType]float64
	history          map[string][]ReputationEvent
	factionModifiers map[string]map[string]float64
	weights          map[string]eventWeight
	emitter          core.EventEmitter
	now              func() time.Time
}

// NewReputationSystem creates an empty reputation ledger.
func NewReputationSystem(emitter core.EventEmitter) *ReputationSystem {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	return &ReputationSystem{
		reputations:      make(map[string]map[ReputationType]float64),
		history:          make(map[string][]ReputationEvent),
		factionModifiers: make(map[string]map[string]float64),
		weights: map[string]eventWeight{
			"battle_won":      {RepCombat, 5},
			"battle_lost":     {RepCombat, -2},
			"trade_completed": {RepTrading, 2},
			"trade_cheated":   {RepTrading, -8},
			"quest_completed": {RepExpertise, 4},
			"betrayal":        {RepHonor, -10},
			"donation":        {RepSocial, 3},
			"treaty_signed":   {RepDiplomatic, 3},
			"duel_honored":    {RepHonor, 4},
		},
		emitter: emitter,
		now:     time.Now,
	}
}

// CreateProfile starts an entity at 50 in every arena.
func (rs *ReputationSystem) CreateProfile(entityID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, exists := rs.reputations[entityID]; exists {
		return errors.New(errors.CodeInvalidState, "reputation profile already exists", nil).
			WithContext("entity", entityID)
	}

	values := make(map[ReputationType]float64, len(AllReputationTypes))
	for _, repType := range AllReputationTypes {
		values[repType] = 50
	}
	rs.reputations[entityID] = values
	rs.history[entityID] = nil
	return nil
}

// RecordEvent applies an event to the actor's standing. The mapped arena
// takes the full change; general standing takes half. Unknown event types
// change nothing.
func (rs *ReputationSystem) RecordEvent(ctx context.Context, actorID, eventType string, evctx EventContext) (float64, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	values, ok := rs.reputations[actorID]
	if !ok {
		return 0, errors.New(errors.CodeNotFound, "reputation profile not found", nil).
			WithContext("entity", actorID)
	}

	w := rs.weights[eventType]
	modifier := evctx.Modifier
	if modifier == 0 {
		modifier = 1
	}
	change := w.weight * modifier * rs.factionModifier(actorID, evctx.FactionID)
	if change > 100 {
		change = 100
	}
	if change < -100 {
		change = -100
	}

	if change != 0 {
		values[w.repType] = clampRep(values[w.repType] + change)
		values[RepGeneral] = clampRep(values[RepGeneral] + change/2)
	}

	event := ReputationEvent{
		ID:        uuid.NewString(),
		Timestamp: rs.now(),
		ActorID:   actorID,
		TargetID:  evctx.TargetID,
		EventType: eventType,
		Change:    change,
		Witnesses: evctx.Witnesses,
	}
	rs.history[actorID] = append(rs.history[actorID], event)

	if change != 0 {
		rs.emitter.Emit(ctx, core.NewEvent(core.EventReputationShift, actorID, evctx.TargetID, map[string]any{
			"event":  eventType,
			"change": change,
			"arena":  string(w.repType),
		}))
	}
	return change, nil
}

// Reputation returns the value and tier of one arena.
func (rs *ReputationSystem) Reputation(entityID string, repType ReputationType) (float64, ReputationTier, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	values, ok := rs.reputations[entityID]
	if !ok {
		return 0, "", errors.New(errors.CodeNotFound, "reputation profile not found", nil).
			WithContext("entity", entityID)
	}
	value := values[repType]
	return value, TierFor(value), nil
}

// Profile returns a copy of the entity's full standing.
func (rs *ReputationSystem) Profile(entityID string) (map[ReputationType]float64, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	values, ok := rs.reputations[entityID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "reputation profile not found", nil).
			WithContext("entity", entityID)
	}
	out := make(map[ReputationType]float64, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// History returns the recorded events for an entity.
func (rs *ReputationSystem) History(entityID string) []ReputationEvent {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.history[entityID]
}

// SetFactionModifier scales how strongly events land for an entity when
// acting in a faction's name.
func (rs *ReputationSystem) SetFactionModifier(factionID, entityID string, modifier float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.factionModifiers[factionID] == nil {
		rs.factionModifiers[factionID] = make(map[string]float64)
	}
	rs.factionModifiers[factionID][entityID] = modifier
}

func (rs *ReputationSystem) factionModifier(entityID, factionID string) float64 {
	if factionID == "" {
		return 1
	}
	if mods, ok := rs.factionModifiers[factionID]; ok {
		if m, ok := mods[entityID]; ok {
			return m
		}
	}
	return 1
}

// Decay drifts every value toward the neutral 50 at rate 0.01 per second.
func (rs *ReputationSystem) Decay(delta float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	const rate = 0.01
	for _, values := range rs.reputations {
		for repType, value := range values {
			values[repType] = clampRep(value - (value-50)*rate*delta)
		}
	}
}

func clampRep(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
