package factory

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/verai-labs/verai/pkg/agent"
	"github.com/verai-labs/verai/pkg/llm"
	"github.com/verai-labs/verai/pkg/personality"
)

func TestBuiltinTemplates(t *testing.T) {
	f := New()
	for _, name := range []string{"merchant", "warrior", "scholar", "guardian"} {
		if _, err := f.Template(name); err != nil {
			t.Errorf("missing builtin template %q: %v", name, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	f := New()
	cases := []struct {
		name     string
		template Template
	}{
		{"empty name", Template{Stats: StatBlock{Health: 100, Energy: 100}, Skills: []string{"x"}}},
		{"no health", Template{Name: "ghost", Stats: StatBlock{Energy: 100}, Skills: []string{"x"}}},
		{"no skills", Template{Name: "idle", Stats: StatBlock{Health: 100, Energy: 100}}},
		{"trait out of range", Template{
			Name:   "odd",
			Stats:  StatBlock{Health: 100, Energy: 100},
			Skills: []string{"x"},
			Traits: map[string]float64{"courage": 1.5},
		}},
	}
	for _, tc := range cases {
		if err := f.Register(tc.template); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateFromTemplate(t *testing.T) {
	f := New()
	a, err := f.Create("warrior", "brakk", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Name() != "brakk" {
		t.Errorf("name = %q, want brakk", a.Name())
	}
	if a.Stats().MaxHealth != 120 {
		t.Errorf("max health = %v, want 120", a.Stats().MaxHealth)
	}
	if a.SkillLevel("weapon_mastery") != 1 {
		t.Error("expected weapon_mastery from the template")
	}
	if a.SkillLevel("power_strike") != 1 {
		t.Error("expected special ability learned as a skill")
	}
	if len(a.Equipment()) != 3 {
		t.Errorf("equipment = %v, want 3 items", a.Equipment())
	}

	profile := a.Brain().Profile()
	if _, ok := profile.Powers[personality.EnergyBlast]; !ok {
		t.Error("warrior should carry the energy blast power")
	}
	if profile.Patterns.Combat <= profile.Patterns.Trading {
		t.Errorf("warrior should prefer combat over trading: %+v", profile.Patterns)
	}
}

func TestCreateUnknownTemplate(t *testing.T) {
	f := New()
	if _, err := f.Create("bard", "lyr", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestCreateWithCustomization(t *testing.T) {
	f := New()
	custom := &Customization{
		Stats:       &StatBlock{Health: 200, Energy: 150, Strength: 20, Agility: 10, Intelligence: 10, Charisma: 10, Luck: 10},
		TraitShifts: map[string]float64{"aggression": 0.2},
		ExtraSkills: []string{"berserk"},
		ExtraItems:  []string{"war_banner"},
	}
	a, err := f.Create("warrior", "ursa", custom)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Stats().MaxHealth != 200 {
		t.Errorf("max health = %v, want 200", a.Stats().MaxHealth)
	}
	if a.SkillLevel("berserk") != 1 {
		t.Error("expected customized skill")
	}
	if got := a.Brain().Profile().Traits.Get(personality.Aggression); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("aggression = %v, want 0.9 after shift", got)
	}
	if len(a.Equipment()) != 4 {
		t.Errorf("equipment = %v, want 4 items", a.Equipment())
	}
}

func TestCreateWithProviderGetsVoice(t *testing.T) {
	ctx := context.Background()
	f := New(WithProvider(&llm.MockProvider{Response: "steel keeps the peace"}, "test-model"))

	a, err := f.Create("guardian", "oren", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result, err := a.HandleInteraction(ctx, agent.InteractionInput{
		Kind:     agent.InteractDialogue,
		SourceID: "traveler",
		Line:     "any trouble tonight?",
	})
	if err != nil {
		t.Fatalf("HandleInteraction: %v", err)
	}
	if result.Reply != "steel keeps the peace" {
		t.Errorf("reply = %q", result.Reply)
	}
}

func TestLoadFile(t *testing.T) {
	f := New()
	n, err := f.LoadFile(filepath.Join("testdata", "templates.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d templates, want 2", n)
	}

	a, err := f.Create("ranger", "fen", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.SkillLevel("tracking") != 1 {
		t.Error("expected tracking skill from the yaml template")
	}
	if _, ok := a.Brain().Profile().Powers[personality.SuperSpeed]; !ok {
		t.Error("ranger should carry super speed")
	}
}

func TestLoadFileMissing(t *testing.T) {
	f := New()
	if _, err := f.LoadFile(filepath.Join("testdata", "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
