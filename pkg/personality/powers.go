package personality

// Power is a special ability an agent can be configured with.
type Power string

const (
	Telekinesis   Power = "telekinesis"
	SuperSpeed    Power = "super_speed"
	EnergyBlast   Power = "energy_blast"
	Healing       Power = "healing"
	TimeControl   Power = "time_control"
	ShapeShifting Power = "shape_shifting"
)

// PowerDef describes the mechanical cost and reach of a power.
type PowerDef struct {
	EnergyCost    int
	Cooldown      float64 // seconds
	Range         float64 // meters
	Effectiveness float64
	Description   string
}

func defaultPowerDefs() map[Power]PowerDef {
	return map[Power]PowerDef{
		Telekinesis: {
			EnergyCost:    10,
			Cooldown:      5,
			Range:         20,
			Effectiveness: 0.75,
			Description:   "move objects with mind power",
		},
		SuperSpeed: {
			EnergyCost:    15,
			Cooldown:      3,
			Range:         50,
			Effectiveness: 0.8,
			Description:   "move at superhuman speeds",
		},
		EnergyBlast: {
			EnergyCost:    25,
			Cooldown:      8,
			Range:         30,
			Effectiveness: 0.9,
			Description:   "release powerful energy blasts",
		},
		Healing: {
			EnergyCost:    20,
			Cooldown:      10,
			Range:         5,
			Effectiveness: 0.85,
			Description:   "heal self or allies",
		},
		TimeControl: {
			EnergyCost:    50,
			Cooldown:      30,
			Range:         15,
			Effectiveness: 1.0,
			Description:   "manipulate the flow of time",
		},
		ShapeShifting: {
			EnergyCost:    30,
			Cooldown:      15,
			Range:         0,
			Effectiveness: 0.7,
			Description:   "transform into different forms",
		},
	}
}

// Influence aspects a power contributes to.
const (
	AspectCombat   = "combat"
	AspectSocial   = "social"
	AspectMobility = "mobility"
	AspectUtility  = "utility"
)
