package combat

import (
	"context"
	"math"
	"testing"
)

func newTestSkill(t *testing.T, ss *SkillSystem) *Skill {
	t.Helper()
	skill, err := ss.CreateSkill(Skill{
		Name:       "fireball",
		Type:       SkillAttack,
		BasePower:  2,
		EnergyCost: 10,
		Cooldown:   3,
		Range:      20,
		Effects: []Effect{{
			Type:      EffectDamage,
			BaseValue: 10,
			Scaling:   map[string]float64{"intellect": 0.5},
		}},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}
	return skill
}

func TestCreateSkillValidation(t *testing.T) {
	ss := NewSkillSystem()

	cases := []struct {
		name string
		cfg  Skill
	}{
		{"missing name", Skill{Type: SkillAttack, BasePower: 1, Effects: []Effect{{Type: EffectDamage}}}},
		{"bad type", Skill{Name: "x", Type: "nope", BasePower: 1, Effects: []Effect{{Type: EffectDamage}}}},
		{"zero power", Skill{Name: "x", Type: SkillAttack, Effects: []Effect{{Type: EffectDamage}}}},
		{"no effects", Skill{Name: "x", Type: SkillAttack, BasePower: 1}},
		{"bad effect", Skill{Name: "x", Type: SkillAttack, BasePower: 1, Effects: []Effect{{Type: "explode"}}}},
	}
	for _, tc := range cases {
		if _, err := ss.CreateSkill(tc.cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCalculateEffects(t *testing.T) {
	ss := NewSkillSystem()
	skill := newTestSkill(t, ss)

	effects, cost, err := ss.CalculateEffects(skill.ID,
		map[string]float64{"intellect": 20},
		map[string]float64{"defense": 0},
		nil)
	if err != nil {
		t.Fatalf("CalculateEffects failed: %v", err)
	}
	// 10*2 + 20*0.5 = 30
	if len(effects) != 1 || math.Abs(effects[0].Value-30) > 1e-9 {
		t.Fatalf("expected damage 30, got %+v", effects)
	}
	if cost != 10 {
		t.Errorf("expected cost 10, got %.1f", cost)
	}

	// Defense cuts damage, discipline cuts cost.
	effects, cost, err = ss.CalculateEffects(skill.ID,
		map[string]float64{"intellect": 20, "discipline": 1},
		map[string]float64{"defense": 100},
		nil)
	if err != nil {
		t.Fatalf("CalculateEffects failed: %v", err)
	}
	if math.Abs(effects[0].Value-15) > 1e-9 {
		t.Errorf("expected halved damage 15, got %.2f", effects[0].Value)
	}
	if math.Abs(cost-8) > 1e-9 {
		t.Errorf("expected discounted cost 8, got %.2f", cost)
	}
}

func TestEvolveSkill(t *testing.T) {
	ss := NewSkillSystem()
	skill := newTestSkill(t, ss)

	if _, err := ss.EvolveSkill(skill.ID, "inferno", map[string]float64{"essence": 5}); err == nil {
		t.Fatal("expected error with insufficient essence")
	}

	resources := map[string]float64{"essence": 10}
	evolved, err := ss.EvolveSkill(skill.ID, "inferno", resources)
	if err != nil {
		t.Fatalf("EvolveSkill failed: %v", err)
	}
	if evolved.Level != 2 {
		t.Errorf("expected level 2, got %d", evolved.Level)
	}
	if math.Abs(evolved.BasePower-2.4) > 1e-9 {
		t.Errorf("expected power 2.4, got %.2f", evolved.BasePower)
	}
	if resources["essence"] != 0 {
		t.Errorf("expected essence consumed, got %.1f", resources["essence"])
	}
}

func TestCombineSkills(t *testing.T) {
	ss := NewSkillSystem()
	a := newTestSkill(t, ss)
	b, err := ss.CreateSkill(Skill{
		Name: "frost", Type: SkillControl, BasePower: 1, EnergyCost: 5,
		Effects: []Effect{{Type: EffectStun, BaseValue: 1, Duration: 2}},
	})
	if err != nil {
		t.Fatalf("CreateSkill failed: %v", err)
	}

	fused, err := ss.CombineSkills([]string{a.ID, b.ID}, SkillUltimate)
	if err != nil {
		t.Fatalf("CombineSkills failed: %v", err)
	}
	// power = 2 + 1*0.3, energy = (10+5)*0.8
	if math.Abs(fused.BasePower-2.3) > 1e-9 {
		t.Errorf("expected power 2.3, got %.2f", fused.BasePower)
	}
	if math.Abs(fused.EnergyCost-12) > 1e-9 {
		t.Errorf("expected cost 12, got %.2f", fused.EnergyCost)
	}
	if len(fused.Effects) != 2 {
		t.Errorf("expected merged effects, got %d", len(fused.Effects))
	}

	if _, err := ss.CombineSkills([]string{a.ID}, SkillUltimate); err == nil {
		t.Error("expected error combining a single skill")
	}
}

func TestComboDamage(t *testing.T) {
	m := NewMechanics()

	// light, light, heavy: chain 1.0, 1.1, 1.3; heavy ender 1.5x.
	got := m.ComboDamage(10, []AttackType{AttackLight, AttackLight, AttackHeavy}, 1)
	want := 10.0 + 11.0 + 13.0*1.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %.1f, got %.1f", want, got)
	}
}

func TestValidateAerialMove(t *testing.T) {
	m := NewMechanics()

	if !m.ValidateAerialMove("air_dash", 3, 50) {
		t.Error("air_dash should validate with height 3 and stamina 50")
	}
	if m.ValidateAerialMove("air_slam", 3, 50) {
		t.Error("air_slam requires height 4")
	}
	if m.ValidateAerialMove("air_dash", 3, 10) {
		t.Error("air_dash requires 15 stamina")
	}
	if m.ValidateAerialMove("moonsault", 10, 100) {
		t.Error("unknown move should not validate")
	}
}

func TestCanExecute(t *testing.T) {
	m := NewMechanics()

	if !m.CanExecute(0.25, 0, 1) {
		t.Error("25% health should be executable at level 0")
	}
	if m.CanExecute(0.30, 0, 1) {
		t.Error("30% health should not be executable at level 0")
	}
	if !m.CanExecute(0.30, 5, 1) {
		t.Error("level 5 raises the threshold to 30%")
	}
}

func TestDuelLifecycle(t *testing.T) {
	ss := NewSkillSystem()
	skill := newTestSkill(t, ss)
	sys := NewSystem(ss, nil)
	ctx := context.Background()

	battle, err := sys.Create(ctx, BattleDuel, []Participant{
		{ID: "a", TeamID: "red", Health: 100, Energy: 50, Stats: map[string]float64{"intellect": 20}},
		{ID: "b", TeamID: "blue", Health: 25, Energy: 50, Stats: map[string]float64{}},
	}, Settings{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := sys.ProcessAction(ctx, battle.ID, "a", skill.ID, []string{"b"}); err == nil {
		t.Fatal("expected error acting before battle starts")
	}

	if err := sys.Start(battle.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	result, err := sys.ProcessAction(ctx, battle.ID, "a", skill.ID, []string{"b"})
	if err != nil {
		t.Fatalf("ProcessAction failed: %v", err)
	}
	if result.DamageDealt["b"] != 30 {
		t.Errorf("expected 30 damage, got %.1f", result.DamageDealt["b"])
	}
	if len(result.Defeated) != 1 || result.Defeated[0] != "b" {
		t.Errorf("expected b defeated, got %v", result.Defeated)
	}

	got, err := sys.Battle(battle.ID)
	if err != nil {
		t.Fatalf("Battle failed: %v", err)
	}
	if got.State != StateFinished {
		t.Errorf("expected finished battle, got %s", got.State)
	}
	if got.WinningTeam != "red" {
		t.Errorf("expected red to win, got %q", got.WinningTeam)
	}
}

func TestCooldownBlocksRepeatCast(t *testing.T) {
	ss := NewSkillSystem()
	skill := newTestSkill(t, ss)
	sys := NewSystem(ss, nil)
	ctx := context.Background()

	battle, err := sys.Create(ctx, BattleDuel, []Participant{
		{ID: "a", TeamID: "red", Health: 100, Energy: 100, Stats: map[string]float64{}},
		{ID: "b", TeamID: "blue", Health: 500, Energy: 100, Stats: map[string]float64{}},
	}, Settings{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := sys.Start(battle.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := sys.ProcessAction(ctx, battle.ID, "a", skill.ID, []string{"b"}); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	if _, err := sys.ProcessAction(ctx, battle.ID, "a", skill.ID, []string{"b"}); err == nil {
		t.Fatal("expected cooldown to block second cast")
	}

	// Ticking past the cooldown re-enables the skill.
	if _, err := sys.Update(ctx, 4); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := sys.ProcessAction(ctx, battle.ID, "a", skill.ID, []string{"b"}); err != nil {
		t.Fatalf("cast after cooldown failed: %v", err)
	}
}

func TestUpdateEndsTimedOutBattle(t *testing.T) {
	ss := NewSkillSystem()
	sys := NewSystem(ss, nil)
	ctx := context.Background()

	battle, err := sys.Create(ctx, BattleDuel, []Participant{
		{ID: "a", TeamID: "red", Health: 100, Energy: 100},
		{ID: "b", TeamID: "blue", Health: 100, Energy: 100},
	}, Settings{TimeLimit: 5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := sys.Start(battle.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events, err := sys.Update(ctx, 6)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one finish event, got %d", len(events))
	}
	if sys.ActiveCount() != 0 {
		t.Errorf("finished battle should leave the active set")
	}
	if len(sys.History()) != 1 {
		t.Errorf("finished battle should enter history")
	}
}

func TestValidateSetup(t *testing.T) {
	ss := NewSkillSystem()
	sys := NewSystem(ss, nil)
	ctx := context.Background()

	if _, err := sys.Create(ctx, BattleDuel, []Participant{
		{ID: "a", TeamID: "red", Health: 1},
	}, Settings{}); err == nil {
		t.Error("duel with one participant should fail")
	}
	if _, err := sys.Create(ctx, BattleTeam, []Participant{
		{ID: "a", TeamID: "red", Health: 1},
		{ID: "b", TeamID: "red", Health: 1},
	}, Settings{}); err == nil {
		t.Error("single-team battle should fail")
	}
	if _, err := sys.Create(ctx, BattleFreeForAll, []Participant{
		{ID: "a", TeamID: "red", Health: 1},
		{ID: "b", TeamID: "red", Health: 1},
	}, Settings{}); err == nil {
		t.Error("ffa with shared teams should fail")
	}
}
