package behavior

// Resource names tracked by survival behavior.
const (
	ResourceHealth = "health"
	ResourceEnergy = "energy"
	ResourceFood   = "food"
	ResourceWater  = "water"
)

// SurvivalPriority orders the concerns a threatened agent weighs.
type SurvivalPriority string

const (
	PriorityImmediateThreat   SurvivalPriority = "immediate_threat"
	PriorityCriticalResource  SurvivalPriority = "critical_resource"
	PriorityResourceGathering SurvivalPriority = "resource_gathering"
	PriorityShelterSeeking    SurvivalPriority = "shelter_seeking"
	PriorityExploration       SurvivalPriority = "exploration"
)

// Threat is a nearby danger with an intensity in [0,1].
type Threat struct {
	Source    string
	Intensity float64
	Distance  float64
}

// Situation is the assessed state an agent decides from.
type Situation struct {
	ThreatLevel         float64
	ResourceStatus      float64
	EnvironmentalDanger float64
	OverallRisk         float64
}

const defaultRiskThreshold = 0.3

// SurvivalBehavior tracks resources and decides what matters most now.
type SurvivalBehavior struct {
	resources     map[string]float64
	maxima        map[string]float64
	priorities    map[SurvivalPriority]float64
	riskThreshold float64
}

// NewSurvivalBehavior starts an agent with full health/energy and half
// stocks of food and water.
func NewSurvivalBehavior() *SurvivalBehavior {
	return &SurvivalBehavior{
		resources: map[string]float64{
			ResourceHealth: 100,
			ResourceEnergy: 100,
			ResourceFood:   50,
			ResourceWater:  50,
		},
		maxima: map[string]float64{
			ResourceHealth: 100,
			ResourceEnergy: 100,
			ResourceFood:   100,
			ResourceWater:  100,
		},
		priorities: map[SurvivalPriority]float64{
			PriorityImmediateThreat:   1.0,
			PriorityCriticalResource:  0.8,
			PriorityResourceGathering: 0.6,
			PriorityShelterSeeking:    0.4,
			PriorityExploration:       0.2,
		},
		riskThreshold: defaultRiskThreshold,
	}
}

// AssessSituation condenses threats, stocks and environment into one view.
// environmentalDanger is expected in [0,1].
func (sb *SurvivalBehavior) AssessSituation(threats []Threat, environmentalDanger float64) Situation {
	threatLevel := sb.threatLevel(threats)
	resourceStatus := sb.resourceStatus()
	return Situation{
		ThreatLevel:         threatLevel,
		ResourceStatus:      resourceStatus,
		EnvironmentalDanger: environmentalDanger,
		OverallRisk:         (threatLevel + environmentalDanger) / 2,
	}
}

// DecidePriority picks the survival priority for the assessed situation.
func (sb *SurvivalBehavior) DecidePriority(s Situation) SurvivalPriority {
	if s.ThreatLevel > sb.riskThreshold {
		return PriorityImmediateThreat
	}
	if s.ResourceStatus < 0.3 {
		return PriorityCriticalResource
	}
	if s.ResourceStatus < 0.6 {
		return PriorityResourceGathering
	}
	if s.EnvironmentalDanger > sb.riskThreshold {
		return PriorityShelterSeeking
	}
	return PriorityExploration
}

// threatLevel takes the strongest nearby threat, discounted by distance.
func (sb *SurvivalBehavior) threatLevel(threats []Threat) float64 {
	level := 0.0
	for _, t := range threats {
		intensity := t.Intensity
		if t.Distance > 0 {
			intensity /= 1 + t.Distance/10
		}
		if intensity > level {
			level = intensity
		}
	}
	return clamp01(level)
}

// resourceStatus averages normalized resource levels.
func (sb *SurvivalBehavior) resourceStatus() float64 {
	if len(sb.resources) == 0 {
		return 0
	}
	total := 0.0
	for name, value := range sb.resources {
		max := sb.maxima[name]
		if max <= 0 {
			continue
		}
		total += clamp01(value / max)
	}
	return total / float64(len(sb.resources))
}

// Consume draws down a resource, floored at zero.
func (sb *SurvivalBehavior) Consume(name string, amount float64) {
	v := sb.resources[name] - amount
	if v < 0 {
		v = 0
	}
	sb.resources[name] = v
}

// Replenish adds to a resource, capped at its maximum.
func (sb *SurvivalBehavior) Replenish(name string, amount float64) {
	v := sb.resources[name] + amount
	if max, ok := sb.maxima[name]; ok && v > max {
		v = max
	}
	sb.resources[name] = v
}

// Resource reports a current resource level.
func (sb *SurvivalBehavior) Resource(name string) float64 {
	return sb.resources[name]
}
