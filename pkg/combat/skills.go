// Package combat implements battles, combo mechanics and the skill system.
package combat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/errors"
)

// SkillType classifies what a skill is for.
type SkillType string

const (
	SkillAttack   SkillType = "attack"
	SkillDefense  SkillType = "defense"
	SkillSupport  SkillType = "support"
	SkillControl  SkillType = "control"
	SkillMovement SkillType = "movement"
	SkillSpecial  SkillType = "special"
	SkillUltimate SkillType = "ultimate"
)

// EffectType is what a skill effect does to its target.
type EffectType string

const (
	EffectDamage    EffectType = "damage"
	EffectHeal      EffectType = "heal"
	EffectShield    EffectType = "shield"
	EffectBuff      EffectType = "buff"
	EffectDebuff    EffectType = "debuff"
	EffectStun      EffectType = "stun"
	EffectKnockback EffectType = "knockback"
	EffectTeleport  EffectType = "teleport"
	EffectDrain     EffectType = "drain"
	EffectTransform EffectType = "transform"
)

var validSkillTypes = map[SkillType]bool{
	SkillAttack: true, SkillDefense: true, SkillSupport: true,
	SkillControl: true, SkillMovement: true, SkillSpecial: true,
	SkillUltimate: true,
}

var validEffectTypes = map[EffectType]bool{
	EffectDamage: true, EffectHeal: true, EffectShield: true,
	EffectBuff: true, EffectDebuff: true, EffectStun: true,
	EffectKnockback: true, EffectTeleport: true, EffectDrain: true,
	EffectTransform: true,
}

// Effect is one component of a skill.
type Effect struct {
	Type      EffectType
	BaseValue float64
	// Scaling maps caster stat names to multipliers added on top of the base.
	Scaling  map[string]float64
	Duration float64
}

// Skill is a usable combat ability.
type Skill struct {
	ID           string
	Name         string
	Type         SkillType
	Level        int
	BasePower    float64
	EnergyCost   float64
	Cooldown     float64
	Range        float64
	AreaOfEffect float64
	Effects      []Effect
	Requirements map[string]float64
}

// ComputedEffect is an effect after caster, target and environment modifiers.
type ComputedEffect struct {
	Type     EffectType
	Value    float64
	Duration float64
}

// SkillSystem owns the skill catalog, evolution and combination.
type SkillSystem struct {
	skills map[string]*Skill
}

// NewSkillSystem creates an empty skill catalog.
func NewSkillSystem() *SkillSystem {
	return &SkillSystem{skills: make(map[string]*Skill)}
}

// CreateSkill validates and registers a skill, returning it with an id
// and level 1.
func (ss *SkillSystem) CreateSkill(cfg Skill) (*Skill, error) {
	if cfg.Name == "" {
		return nil, errors.New(errors.CodeInvalidInput, "skill name required", nil)
	}
	if !validSkillTypes[cfg.Type] {
		return nil, errors.New(errors.CodeInvalidInput, "unknown skill type", nil).
			WithContext("type", string(cfg.Type))
	}
	if cfg.BasePower <= 0 {
		return nil, errors.New(errors.CodeInvalidInput, "base power must be positive", nil)
	}
	if len(cfg.Effects) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "skill needs at least one effect", nil)
	}
	for _, eff := range cfg.Effects {
		if !validEffectTypes[eff.Type] {
			return nil, errors.New(errors.CodeInvalidInput, "unknown effect type", nil).
				WithContext("effect", string(eff.Type))
		}
	}

	skill := cfg
	skill.ID = uuid.NewString()
	skill.Level = 1
	ss.skills[skill.ID] = &skill
	return &skill, nil
}

// Skill looks up a skill by id.
func (ss *SkillSystem) Skill(id string) (*Skill, error) {
	skill, ok := ss.skills[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "skill not found", nil).
			WithContext("skill_id", id)
	}
	return skill, nil
}

// CalculateEffects resolves a skill cast into concrete effect values and
// the energy cost for this caster.
func (ss *SkillSystem) CalculateEffects(skillID string, caster, target, environment map[string]float64) ([]ComputedEffect, float64, error) {
	skill, err := ss.Skill(skillID)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ComputedEffect, 0, len(skill.Effects))
	for _, eff := range skill.Effects {
		value := eff.BaseValue * skill.BasePower
		for stat, scaling := range eff.Scaling {
			value += caster[stat] * scaling
		}
		value = applyModifiers(value, eff.Type, target, environment)
		out = append(out, ComputedEffect{
			Type:     eff.Type,
			Value:    value,
			Duration: eff.Duration,
		})
	}

	cost := skill.EnergyCost
	// High discipline casters spend less, capped at a 20% saving.
	if focus, ok := caster["discipline"]; ok {
		cost *= 1 - minF(focus, 1)*0.2
	}
	return out, cost, nil
}

// applyModifiers adjusts an effect value for target defense and the
// environment's power modifier.
func applyModifiers(value float64, effType EffectType, target, environment map[string]float64) float64 {
	if effType == EffectDamage || effType == EffectDrain {
		if def, ok := target["defense"]; ok && def > 0 {
			value *= 100 / (100 + def)
		}
	}
	if mod, ok := environment["power_modifier"]; ok && mod > 0 {
		value *= mod
	}
	if value < 0 {
		value = 0
	}
	return value
}

// EvolveSkill advances a skill one level along a named path when the
// caster can pay the essence cost (10 per current level).
func (ss *SkillSystem) EvolveSkill(skillID, path string, resources map[string]float64) (*Skill, error) {
	skill, err := ss.Skill(skillID)
	if err != nil {
		return nil, err
	}

	cost := float64(skill.Level) * 10
	if resources["essence"] < cost {
		return nil, errors.New(errors.CodeInvalidState, "evolution requirements not met", nil).
			WithContext("skill_id", skillID).
			WithContext("essence_needed", cost)
	}
	resources["essence"] -= cost

	skill.Level++
	skill.BasePower *= 1.2
	skill.EnergyCost *= 1.1
	skill.Name = fmt.Sprintf("%s (%s)", skill.Name, path)
	return skill, nil
}

// CombineSkills fuses two or more skills into a new one. The strongest
// power carries, the rest contribute 30%; energy costs sum at a discount.
func (ss *SkillSystem) CombineSkills(skillIDs []string, combined SkillType) (*Skill, error) {
	if len(skillIDs) < 2 {
		return nil, errors.New(errors.CodeInvalidInput, "combination needs at least two skills", nil)
	}
	if !validSkillTypes[combined] {
		return nil, errors.New(errors.CodeInvalidInput, "unknown skill type", nil).
			WithContext("type", string(combined))
	}

	var parts []*Skill
	for _, id := range skillIDs {
		skill, err := ss.Skill(id)
		if err != nil {
			return nil, err
		}
		parts = append(parts, skill)
	}

	var power, cost, rng float64
	name := ""
	var effects []Effect
	for i, part := range parts {
		if part.BasePower > power {
			power = part.BasePower
		}
		cost += part.EnergyCost
		if part.Range > rng {
			rng = part.Range
		}
		if i > 0 {
			name += "+"
		}
		name += part.Name
		effects = append(effects, part.Effects...)
	}
	// Secondary skills add 30% of their power on top of the strongest.
	for _, part := range parts {
		if part.BasePower < power {
			power += part.BasePower * 0.3
		}
	}

	fused := Skill{
		Name:       name,
		Type:       combined,
		BasePower:  power,
		EnergyCost: cost * 0.8,
		Cooldown:   maxCooldown(parts),
		Range:      rng,
		Effects:    effects,
	}
	return ss.CreateSkill(fused)
}

func maxCooldown(parts []*Skill) float64 {
	cd := 0.0
	for _, p := range parts {
		if p.Cooldown > cd {
			cd = p.Cooldown
		}
	}
	return cd
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
