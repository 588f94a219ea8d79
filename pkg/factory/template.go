// Package factory creates agents from reusable templates: stat tables,
// skills, equipment and personality baselines, loadable from YAML.
package factory

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verai-labs/verai/pkg/agent"
	"github.com/verai-labs/verai/pkg/errors"
)

// StatBlock is the YAML-facing attribute table of a template. Health and
// energy double as maxima.
type StatBlock struct {
	Health       float64 `yaml:"health"`
	Energy       float64 `yaml:"energy"`
	Strength     float64 `yaml:"strength"`
	Agility      float64 `yaml:"agility"`
	Intelligence float64 `yaml:"intelligence"`
	Charisma     float64 `yaml:"charisma"`
	Luck         float64 `yaml:"luck"`
}

func (s StatBlock) toStats() agent.Stats {
	return agent.Stats{
		Health:       s.Health,
		MaxHealth:    s.Health,
		Energy:       s.Energy,
		MaxEnergy:    s.Energy,
		Strength:     s.Strength,
		Agility:      s.Agility,
		Intelligence: s.Intelligence,
		Charisma:     s.Charisma,
		Luck:         s.Luck,
	}
}

// Template is a reusable agent blueprint.
type Template struct {
	Name             string             `yaml:"name"`
	Stats            StatBlock          `yaml:"stats"`
	Traits           map[string]float64 `yaml:"traits"`
	Powers           []string           `yaml:"powers"`
	Skills           []string           `yaml:"skills"`
	Equipment        []string           `yaml:"equipment"`
	SpecialAbilities []string           `yaml:"special_abilities"`
	DialogueLines    []string           `yaml:"dialogue_lines"`
}

func (t Template) validate() error {
	if t.Name == "" {
		return errors.New(errors.CodeInvalidInput, "template name required", nil)
	}
	if t.Stats.Health <= 0 || t.Stats.Energy <= 0 {
		return errors.New(errors.CodeInvalidInput, "template needs positive health and energy", nil).
			WithContext("template", t.Name)
	}
	if len(t.Skills) == 0 {
		return errors.New(errors.CodeInvalidInput, "template needs at least one skill", nil).
			WithContext("template", t.Name)
	}
	for trait, value := range t.Traits {
		if value < 0 || value > 1 {
			return errors.New(errors.CodeInvalidInput, "trait value out of range", nil).
				WithContext("template", t.Name).
				WithContext("trait", trait)
		}
	}
	return nil
}

// builtinTemplates are the stock archetypes.
func builtinTemplates() []Template {
	return []Template{
		{
			Name:  "merchant",
			Stats: StatBlock{Health: 80, Energy: 90, Strength: 8, Agility: 10, Intelligence: 12, Charisma: 15, Luck: 12},
			Traits: map[string]float64{
				"charisma": 0.8, "wisdom": 0.6, "empathy": 0.6,
				"aggression": 0.2, "courage": 0.4, "loyalty": 0.5,
				"creativity": 0.5, "discipline": 0.6,
			},
			Skills:           []string{"bargaining", "appraisal", "persuasion"},
			Equipment:        []string{"merchant_clothes", "money_pouch", "ledger"},
			SpecialAbilities: []string{"price_negotiation", "market_insight"},
			DialogueLines:    []string{"Finest wares in the region, have a look.", "Everything has a price, friend."},
		},
		{
			Name:  "warrior",
			Stats: StatBlock{Health: 120, Energy: 100, Strength: 15, Agility: 12, Intelligence: 8, Charisma: 10, Luck: 10},
			Traits: map[string]float64{
				"aggression": 0.7, "courage": 0.8, "discipline": 0.7,
				"charisma": 0.4, "wisdom": 0.4, "loyalty": 0.6,
				"creativity": 0.3, "empathy": 0.3,
			},
			Powers:           []string{"energy_blast"},
			Skills:           []string{"combat", "weapon_mastery", "tactics"},
			Equipment:        []string{"basic_armor", "training_sword", "shield"},
			SpecialAbilities: []string{"power_strike", "battle_stance"},
			DialogueLines:    []string{"Speak quickly, I have drills to run.", "Strength decides everything out here."},
		},
		{
			Name:  "scholar",
			Stats: StatBlock{Health: 70, Energy: 110, Strength: 6, Agility: 8, Intelligence: 16, Charisma: 11, Luck: 10},
			Traits: map[string]float64{
				"wisdom": 0.9, "creativity": 0.7, "discipline": 0.8,
				"charisma": 0.5, "aggression": 0.1, "courage": 0.4,
				"loyalty": 0.6, "empathy": 0.7,
			},
			Powers:           []string{"time_control"},
			Skills:           []string{"research", "lore", "alchemy"},
			Equipment:        []string{"robes", "tome", "ink_set"},
			SpecialAbilities: []string{"deep_insight", "rapid_study"},
			DialogueLines:    []string{"Fascinating. Tell me more.", "The archives hold answers, if you know where to look."},
		},
		{
			Name:  "guardian",
			Stats: StatBlock{Health: 140, Energy: 95, Strength: 13, Agility: 9, Intelligence: 10, Charisma: 9, Luck: 8},
			Traits: map[string]float64{
				"loyalty": 0.9, "courage": 0.8, "discipline": 0.8,
				"aggression": 0.4, "wisdom": 0.6, "charisma": 0.4,
				"creativity": 0.3, "empathy": 0.6,
			},
			Powers:           []string{"healing"},
			Skills:           []string{"shield_wall", "vigilance", "first_aid"},
			Equipment:        []string{"heavy_armor", "tower_shield", "warhammer"},
			SpecialAbilities: []string{"stalwart_defense", "protective_aura"},
			DialogueLines:    []string{"None pass without leave.", "Stay behind me if trouble starts."},
		},
	}
}

// loadTemplateFile parses a YAML file holding a list of templates.
func loadTemplateFile(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "template file not readable", err).
			WithContext("path", path)
	}
	var templates []Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "template file not valid yaml", err).
			WithContext("path", path)
	}
	return templates, nil
}
