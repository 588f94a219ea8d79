package social

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// FactionType is the orientation of a faction.
type FactionType string

const (
	FactionMilitary   FactionType = "military"
	FactionMerchant   FactionType = "merchant"
	FactionSpiritual  FactionType = "spiritual"
	FactionScientific FactionType = "scientific"
	FactionNeutralT   FactionType = "neutral"
	FactionRogue      FactionType = "rogue"
)

// FactionRank orders members within a faction.
type FactionRank string

const (
	RankLeader   FactionRank = "leader"
	RankElder    FactionRank = "elder"
	RankVeteran  FactionRank = "veteran"
	RankMember   FactionRank = "member"
	RankRecruit  FactionRank = "recruit"
	RankOutsider FactionRank = "outsider"
)

// DiplomaticStatus labels inter-faction relations.
type DiplomaticStatus string

const (
	StatusAllied   DiplomaticStatus = "allied"
	StatusFriendly DiplomaticStatus = "friendly"
	StatusNeutral  DiplomaticStatus = "neutral"
	StatusHostile  DiplomaticStatus = "hostile"
	StatusWar      DiplomaticStatus = "war"
)

const (
	allianceThreshold = 0.7
	conflictThreshold = -0.3
)

// Member is one agent inside a faction.
type Member struct {
	ID                 string
	Rank               FactionRank
	JoinDate           time.Time
	ContributionPoints int
	Roles              []string
}

// Faction is a group of agents with shared resources and territory.
type Faction struct {
	ID        string
	Name      string
	Type      FactionType
	Founded   time.Time
	LeaderID  string
	Members   map[string]*Member
	Resources map[string]int
	Territory []string
	Influence float64
}

// FactionSystem manages factions, their relations and their assets.
// Diplomatic actions arrive from handlers while the tick loop drifts
// relations, so all state is lock-guarded.
type FactionSystem struct {
	mu       sync.RWMutex
	factions map[string]*Faction
	// relations holds symmetric values in [-1,1] keyed by faction id pairs.
	relations map[string]map[string]float64
	emitter   core.EventEmitter
	now       func() time.Time
}

// NewFactionSystem creates an empty faction registry.
func NewFactionSystem(emitter core.EventEmitter) *FactionSystem {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	return &FactionSystem{
		factions:  make(map[string]*Faction),
		relations: make(map[string]map[string]float64),
		emitter:   emitter,
		now:       time.Now,
	}
}

// CreateFaction registers a faction with its leader as the first member.
func (fs *FactionSystem) CreateFaction(name string, factionType FactionType, leaderID string, resources map[string]int) (*Faction, error) {
	if name == "" || leaderID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "faction name and leader required", nil)
	}
	if resources == nil {
		resources = make(map[string]int)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	faction := &Faction{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      factionType,
		Founded:   fs.now(),
		LeaderID:  leaderID,
		Members:   make(map[string]*Member),
		Resources: resources,
	}
	faction.Members[leaderID] = &Member{
		ID:       leaderID,
		Rank:     RankLeader,
		JoinDate: fs.now(),
	}

	fs.factions[faction.ID] = faction
	fs.relations[faction.ID] = make(map[string]float64)
	return faction, nil
}

// Faction looks up a faction by id.
func (fs *FactionSystem) Faction(id string) (*Faction, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.factionLocked(id)
}

func (fs *FactionSystem) factionLocked(id string) (*Faction, error) {
	faction, ok := fs.factions[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "faction not found", nil).
			WithContext("faction_id", id)
	}
	return faction, nil
}

// AddMember joins an agent to a faction at the given rank.
func (fs *FactionSystem) AddMember(factionID, agentID string, rank FactionRank) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	faction, err := fs.factionLocked(factionID)
	if err != nil {
		return err
	}
	if _, exists := faction.Members[agentID]; exists {
		return errors.New(errors.CodeInvalidState, "agent already in faction", nil).
			WithContext("agent", agentID)
	}
	faction.Members[agentID] = &Member{
		ID:       agentID,
		Rank:     rank,
		JoinDate: fs.now(),
	}
	return nil
}

// Relation reports the current value between two factions, 0 if unmet.
func (fs *FactionSystem) Relation(a, b string) float64 {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.relationLocked(a, b)
}

func (fs *FactionSystem) relationLocked(a, b string) float64 {
	if rels, ok := fs.relations[a]; ok {
		return rels[b]
	}
	return 0
}

// Status maps a relation value onto a diplomatic status.
func (fs *FactionSystem) Status(a, b string) DiplomaticStatus {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.statusLocked(a, b)
}

func (fs *FactionSystem) statusLocked(a, b string) DiplomaticStatus {
	v := fs.relationLocked(a, b)
	switch {
	case v >= allianceThreshold:
		return StatusAllied
	case v >= 0.3:
		return StatusFriendly
	case v > conflictThreshold:
		return StatusNeutral
	case v > -0.7:
		return StatusHostile
	default:
		return StatusWar
	}
}

// AdjustRelation shifts the symmetric relation between two factions and
// emits a diplomacy event when a threshold is crossed.
func (fs *FactionSystem) AdjustRelation(ctx context.Context, a, b string, delta float64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, err := fs.factionLocked(a); err != nil {
		return err
	}
	if _, err := fs.factionLocked(b); err != nil {
		return err
	}

	before := fs.statusLocked(a, b)
	v := clampSigned(fs.relations[a][b] + delta)
	fs.relations[a][b] = v
	fs.relations[b][a] = v

	after := fs.statusLocked(a, b)
	if before != after {
		fs.emitter.Emit(ctx, core.NewEvent(core.EventFactionDiplomacy, a, b, map[string]any{
			"from":     string(before),
			"to":       string(after),
			"relation": v,
		}))
	}
	return nil
}

// ClaimTerritory assigns a territory to a faction if unclaimed.
func (fs *FactionSystem) ClaimTerritory(factionID, territoryID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	faction, err := fs.factionLocked(factionID)
	if err != nil {
		return err
	}
	for _, other := range fs.factions {
		for _, t := range other.Territory {
			if t == territoryID {
				return errors.New(errors.CodeInvalidState, "territory already claimed", nil).
					WithContext("territory", territoryID).
					WithContext("holder", other.ID)
			}
		}
	}
	faction.Territory = append(faction.Territory, territoryID)
	fs.updateInfluence(faction)
	return nil
}

// AbandonTerritory releases a territory held by the faction.
func (fs *FactionSystem) AbandonTerritory(factionID, territoryID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	faction, err := fs.factionLocked(factionID)
	if err != nil {
		return err
	}
	for i, t := range faction.Territory {
		if t == territoryID {
			faction.Territory = append(faction.Territory[:i], faction.Territory[i+1:]...)
			fs.updateInfluence(faction)
			return nil
		}
	}
	return errors.New(errors.CodeNotFound, "territory not held", nil).
		WithContext("territory", territoryID)
}

// AddResources credits a faction's resource pool.
func (fs *FactionSystem) AddResources(factionID, resource string, amount int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	faction, err := fs.factionLocked(factionID)
	if err != nil {
		return err
	}
	if amount < 0 {
		return errors.New(errors.CodeInvalidInput, "amount must be non-negative", nil)
	}
	faction.Resources[resource] += amount
	fs.updateInfluence(faction)
	return nil
}

// RemoveResources debits a faction's resource pool.
func (fs *FactionSystem) RemoveResources(factionID, resource string, amount int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	faction, err := fs.factionLocked(factionID)
	if err != nil {
		return err
	}
	if faction.Resources[resource] < amount {
		return errors.New(errors.CodeInvalidState, "insufficient resources", nil).
			WithContext("resource", resource).
			WithContext("available", faction.Resources[resource])
	}
	faction.Resources[resource] -= amount
	fs.updateInfluence(faction)
	return nil
}

// updateInfluence recomputes a faction's influence from its territory,
// resources, members and alliances. Caller holds the lock.
func (fs *FactionSystem) updateInfluence(faction *Faction) {
	resourceValue := 0
	for _, amount := range faction.Resources {
		resourceValue += amount
	}
	allies := 0
	for otherID := range fs.factions {
		if otherID != faction.ID && fs.statusLocked(faction.ID, otherID) == StatusAllied {
			allies++
		}
	}
	faction.Influence = float64(len(faction.Territory))*10 +
		float64(resourceValue)*0.01 +
		float64(len(faction.Members))*5 +
		float64(allies)*15
}

// Update drifts relations toward neutral and recomputes influence.
func (fs *FactionSystem) Update(ctx context.Context, delta float64) ([]core.Event, error) {
	const driftRate = 0.005

	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids := make([]string, 0, len(fs.factions))
	for id := range fs.factions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var events []core.Event
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			v := fs.relations[a][b]
			if v == 0 {
				continue
			}
			before := fs.statusLocked(a, b)
			v = clampSigned(v - v*driftRate*delta)
			fs.relations[a][b] = v
			fs.relations[b][a] = v
			if after := fs.statusLocked(a, b); after != before {
				event := core.NewEvent(core.EventFactionDiplomacy, a, b, map[string]any{
					"from":     string(before),
					"to":       string(after),
					"relation": v,
				})
				events = append(events, event)
				fs.emitter.Emit(ctx, event)
			}
		}
	}

	for _, faction := range fs.factions {
		fs.updateInfluence(faction)
	}
	return events, nil
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
