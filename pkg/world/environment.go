package world

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// BiomeType is the flavor of an environment.
type BiomeType string

const (
	BiomeDojo          BiomeType = "dojo"
	BiomeArena         BiomeType = "arena"
	BiomeWilderness    BiomeType = "wilderness"
	BiomeSettlement    BiomeType = "settlement"
	BiomeSacredGrounds BiomeType = "sacred_grounds"
	BiomeCorrupted     BiomeType = "corrupted"
)

// Weather is the active weather effect over an environment.
type Weather string

const (
	WeatherClear         Weather = "clear"
	WeatherRain          Weather = "rain"
	WeatherStorm         Weather = "storm"
	WeatherMysticAura    Weather = "mystic_aura"
	WeatherCorruptedMist Weather = "corrupted_mist"
)

// EnvironmentStats sizes and flavors an environment.
type EnvironmentStats struct {
	Size               Vec3
	PopulationCapacity int
	ResourceRichness   float64
	DangerLevel        float64
	Stability          float64
	MagicPotency       float64
}

// WeatherImpact is how the current weather modifies the environment.
type WeatherImpact struct {
	Visibility         float64
	MovementSpeed      float64
	ResourceGeneration float64
	MagicPotency       float64
	Stability          float64
}

func defaultStats(biome BiomeType) EnvironmentStats {
	switch biome {
	case BiomeDojo:
		return EnvironmentStats{
			Size:               Vec3{100, 100, 30},
			PopulationCapacity: 50,
			ResourceRichness:   0.5,
			DangerLevel:        0.2,
			Stability:          0.9,
			MagicPotency:       0.7,
		}
	case BiomeArena:
		return EnvironmentStats{
			Size:               Vec3{200, 200, 50},
			PopulationCapacity: 100,
			ResourceRichness:   0.3,
			DangerLevel:        0.8,
			Stability:          0.7,
			MagicPotency:       0.5,
		}
	default:
		return EnvironmentStats{
			Size:               Vec3{150, 150, 40},
			PopulationCapacity: 75,
			ResourceRichness:   0.4,
			DangerLevel:        0.5,
			Stability:          0.8,
			MagicPotency:       0.6,
		}
	}
}

// ImpactFor computes the weather modifiers at a given intensity.
func ImpactFor(weather Weather, intensity float64) WeatherImpact {
	impact := WeatherImpact{
		Visibility:         1,
		MovementSpeed:      1,
		ResourceGeneration: 1,
		MagicPotency:       1,
	}
	switch weather {
	case WeatherRain:
		impact.Visibility = 0.7 * intensity
		impact.MovementSpeed = 0.8 * intensity
		impact.ResourceGeneration = 1.2 * intensity
	case WeatherStorm:
		impact.Visibility = 0.4 * intensity
		impact.MovementSpeed = 0.6 * intensity
		impact.Stability = -0.2 * intensity
		impact.MagicPotency = 1.3 * intensity
	case WeatherMysticAura:
		impact.MagicPotency = 1.5 * intensity
		impact.ResourceGeneration = 1.3 * intensity
		impact.Stability = 0.1 * intensity
	case WeatherCorruptedMist:
		impact.Visibility = 0.5 * intensity
		impact.MagicPotency = 1.2 * intensity
		impact.Stability = -0.3 * intensity
	}
	return impact
}

// resourceNode is one harvestable stock inside the environment.
type resourceNode struct {
	amount    float64
	capacity  float64
	regenRate float64
}

// dynamicObject is a placed object that can sway stability.
type dynamicObject struct {
	Type            string
	Position        Vec3
	StabilityImpact float64
}

// weatherInterval is how much simulated time passes between weather rolls.
const weatherInterval = 60.0

// Environment is one simulated region with weather and resources.
type Environment struct {
	ID      string
	Biome   BiomeType
	Stats   EnvironmentStats
	Weather Weather

	weatherIntensity float64
	weatherTimer     float64
	resources        map[string]*resourceNode
	objects          map[string]*dynamicObject
	emitter          core.EventEmitter
	rng              *rand.Rand
}

// EnvironmentOption configures an Environment.
type EnvironmentOption func(*Environment)

// WithEnvironmentStats overrides the biome defaults.
func WithEnvironmentStats(stats EnvironmentStats) EnvironmentOption {
	return func(e *Environment) { e.Stats = stats }
}

// WithEnvironmentRand injects a deterministic random source.
func WithEnvironmentRand(rng *rand.Rand) EnvironmentOption {
	return func(e *Environment) { e.rng = rng }
}

// WithEnvironmentEmitter routes weather and resource events.
func WithEnvironmentEmitter(emitter core.EventEmitter) EnvironmentOption {
	return func(e *Environment) { e.emitter = emitter }
}

// WithResource seeds a harvestable resource with a regeneration rate in
// units per second.
func WithResource(name string, amount, capacity, regenRate float64) EnvironmentOption {
	return func(e *Environment) {
		e.resources[name] = &resourceNode{amount: amount, capacity: capacity, regenRate: regenRate}
	}
}

// NewEnvironment creates an environment of the given biome.
func NewEnvironment(biome BiomeType, opts ...EnvironmentOption) *Environment {
	e := &Environment{
		ID:               uuid.NewString(),
		Biome:            biome,
		Stats:            defaultStats(biome),
		Weather:          WeatherClear,
		weatherIntensity: 1,
		resources:        make(map[string]*resourceNode),
		objects:          make(map[string]*dynamicObject),
		emitter:          core.NoopEventEmitter{},
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Update advances weather, resources and stability by delta seconds.
func (e *Environment) Update(ctx context.Context, delta float64) ([]core.Event, error) {
	var events []core.Event

	e.weatherTimer += delta
	if e.weatherTimer >= weatherInterval {
		e.weatherTimer = 0
		if next := e.rollWeather(); next != e.Weather {
			prev := e.Weather
			e.Weather = next
			event := core.NewEvent(core.EventWeatherChanged, e.ID, "", map[string]any{
				"from": string(prev),
				"to":   string(next),
			})
			events = append(events, event)
			e.emitter.Emit(ctx, event)
		}
	}

	impact := ImpactFor(e.Weather, e.weatherIntensity)
	for _, node := range e.resources {
		node.amount += node.regenRate * e.Stats.ResourceRichness * impact.ResourceGeneration * delta
		if node.amount > node.capacity {
			node.amount = node.capacity
		}
	}

	// Stability drifts with the weather and placed objects.
	drift := impact.Stability * 0.01 * delta
	for _, obj := range e.objects {
		drift += obj.StabilityImpact * 0.01 * delta
	}
	e.Stats.Stability = clampUnit(e.Stats.Stability + drift)

	return events, nil
}

// rollWeather picks the next weather, biased by biome.
func (e *Environment) rollWeather() Weather {
	r := e.rng.Float64()
	switch e.Biome {
	case BiomeCorrupted:
		if r < 0.4 {
			return WeatherCorruptedMist
		}
	case BiomeSacredGrounds:
		if r < 0.4 {
			return WeatherMysticAura
		}
	}
	switch {
	case r < 0.5:
		return WeatherClear
	case r < 0.75:
		return WeatherRain
	case r < 0.9:
		return WeatherStorm
	default:
		return WeatherMysticAura
	}
}

// ApplyWeather forces a weather effect at the given intensity.
func (e *Environment) ApplyWeather(ctx context.Context, weather Weather, intensity float64) error {
	if weather == e.Weather {
		return errors.New(errors.CodeInvalidState, "weather effect already active", nil).
			WithContext("weather", string(weather))
	}
	prev := e.Weather
	e.Weather = weather
	if intensity <= 0 {
		intensity = 1
	}
	e.weatherIntensity = intensity
	e.weatherTimer = 0

	e.emitter.Emit(ctx, core.NewEvent(core.EventWeatherChanged, e.ID, "", map[string]any{
		"from":      string(prev),
		"to":        string(weather),
		"intensity": intensity,
	}))
	return nil
}

// Impact reports the modifiers of the current weather.
func (e *Environment) Impact() WeatherImpact {
	return ImpactFor(e.Weather, e.weatherIntensity)
}

// Harvest draws from a resource, returning what was actually taken and
// emitting an event when the node runs dry.
func (e *Environment) Harvest(ctx context.Context, name string, amount float64) (float64, error) {
	node, ok := e.resources[name]
	if !ok {
		return 0, errors.New(errors.CodeNotFound, "resource not found", nil).
			WithContext("resource", name)
	}

	taken := amount
	if taken > node.amount {
		taken = node.amount
	}
	node.amount -= taken

	if node.amount == 0 && taken > 0 {
		e.emitter.Emit(ctx, core.NewEvent(core.EventResourceDrained, e.ID, "", map[string]any{
			"resource": name,
		}))
	}
	return taken, nil
}

// ResourceLevel reports how much of a resource remains.
func (e *Environment) ResourceLevel(name string) float64 {
	if node, ok := e.resources[name]; ok {
		return node.amount
	}
	return 0
}

// AddObject places a dynamic object in the environment.
func (e *Environment) AddObject(id, objType string, position Vec3, stabilityImpact float64) error {
	if _, exists := e.objects[id]; exists {
		return errors.New(errors.CodeInvalidState, "object already exists", nil).
			WithContext("object_id", id)
	}
	e.objects[id] = &dynamicObject{
		Type:            objType,
		Position:        position,
		StabilityImpact: stabilityImpact,
	}
	return nil
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
