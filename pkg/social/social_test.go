package social

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func TestEstablishValidation(t *testing.T) {
	rs := NewRelationshipSystem("hero")

	if _, err := rs.Establish("", RelationFriend, 0.5); err == nil {
		t.Error("empty target should fail")
	}
	if _, err := rs.Establish("hero", RelationFriend, 0.5); err == nil {
		t.Error("self relationship should fail")
	}
	if _, err := rs.Establish("npc", RelationFriend, 1.5); err == nil {
		t.Error("out-of-range strength should fail")
	}

	rel, err := rs.Establish("npc", RelationFriend, 0.6)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	if rel.Trust != 0.6 {
		t.Errorf("initial trust should track strength, got %.2f", rel.Trust)
	}
}

func TestSuccessChanceFormula(t *testing.T) {
	rs := NewRelationshipSystem("hero", WithSocialStats(SocialStats{Charisma: 100}))
	if _, err := rs.Establish("npc", RelationNeutral, 1.0); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	// 0.5 + 1.0*0.2 + 100/100*0.15 + 0.1 + 0.05 = 1.0, clamped to 0.9.
	got := rs.SuccessChance("npc", InteractionContext{EnvironmentFriendly: true, PreviousSuccess: true})
	if got != 0.9 {
		t.Errorf("expected clamp at 0.9, got %.2f", got)
	}

	// Unknown target, zero charisma system.
	cold := NewRelationshipSystem("other")
	base := cold.SuccessChance("stranger", InteractionContext{})
	want := 0.5 + (DefaultSocialStats().Charisma/100)*0.15
	if math.Abs(base-want) > 1e-9 {
		t.Errorf("expected %.3f, got %.3f", want, base)
	}
}

func TestRelationshipEvolvesToAlly(t *testing.T) {
	rs := NewRelationshipSystem("hero",
		WithRelationshipRand(rand.New(rand.NewSource(1))))
	if _, err := rs.Establish("npc", RelationFriend, 0.7); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	ctx := context.Background()

	evolved := false
	for i := 0; i < 50 && !evolved; i++ {
		outcome, err := rs.Interact(ctx, "npc", "dialogue", InteractionContext{EnvironmentFriendly: true})
		if err != nil {
			t.Fatalf("Interact failed: %v", err)
		}
		if outcome.Evolved && outcome.NewType == RelationAlly {
			evolved = true
		}
	}
	if !evolved {
		t.Fatal("repeated successful interactions should evolve the bond to ally")
	}
	allies, _ := rs.Counts()
	if allies != 1 {
		t.Errorf("expected 1 ally, got %d", allies)
	}
}

func TestInteractUnknownTarget(t *testing.T) {
	rs := NewRelationshipSystem("hero")
	if _, err := rs.Interact(context.Background(), "ghost", "dialogue", InteractionContext{}); err == nil {
		t.Fatal("expected error interacting with unknown target")
	}
}

func TestReputationTiers(t *testing.T) {
	cases := []struct {
		value float64
		tier  ReputationTier
	}{
		{95, TierLegendary},
		{80, TierRenowned},
		{65, TierRespected},
		{50, TierKnown},
		{35, TierNeutral},
		{20, TierDubious},
		{5, TierInfamous},
	}
	for _, tc := range cases {
		if got := TierFor(tc.value); got != tc.tier {
			t.Errorf("TierFor(%.0f) = %s, want %s", tc.value, got, tc.tier)
		}
	}
}

func TestReputationEvents(t *testing.T) {
	rs := NewReputationSystem(nil)
	ctx := context.Background()

	if err := rs.CreateProfile("hero"); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if err := rs.CreateProfile("hero"); err == nil {
		t.Fatal("duplicate profile should fail")
	}

	change, err := rs.RecordEvent(ctx, "hero", "battle_won", EventContext{})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if change != 5 {
		t.Errorf("expected +5 combat change, got %.1f", change)
	}

	combatValue, tier, err := rs.Reputation("hero", RepCombat)
	if err != nil {
		t.Fatalf("Reputation failed: %v", err)
	}
	if combatValue != 55 {
		t.Errorf("expected combat 55, got %.1f", combatValue)
	}
	if tier != TierKnown {
		t.Errorf("expected tier known, got %s", tier)
	}

	general, _, _ := rs.Reputation("hero", RepGeneral)
	if general != 52.5 {
		t.Errorf("expected general 52.5, got %.1f", general)
	}

	if len(rs.History("hero")) != 1 {
		t.Errorf("expected 1 history event")
	}

	if _, err := rs.RecordEvent(ctx, "nobody", "battle_won", EventContext{}); err == nil {
		t.Fatal("expected error for unknown entity")
	}
}

func TestFactionModifierScalesChange(t *testing.T) {
	rs := NewReputationSystem(nil)
	ctx := context.Background()
	if err := rs.CreateProfile("hero"); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	rs.SetFactionModifier("guild", "hero", 2)
	change, err := rs.RecordEvent(ctx, "hero", "trade_completed", EventContext{FactionID: "guild"})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if change != 4 {
		t.Errorf("expected doubled change 4, got %.1f", change)
	}
}

func TestReputationDecayDriftsToNeutral(t *testing.T) {
	rs := NewReputationSystem(nil)
	if err := rs.CreateProfile("hero"); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if _, err := rs.RecordEvent(context.Background(), "hero", "battle_won", EventContext{Modifier: 8}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	before, _, _ := rs.Reputation("hero", RepCombat)
	rs.Decay(10)
	after, _, _ := rs.Reputation("hero", RepCombat)
	if after >= before || after < 50 {
		t.Errorf("decay should pull value toward 50: before %.1f after %.1f", before, after)
	}
}

func TestFactionLifecycle(t *testing.T) {
	fs := NewFactionSystem(nil)

	iron, err := fs.CreateFaction("Iron Pact", FactionMilitary, "warlord", map[string]int{"gold": 100})
	if err != nil {
		t.Fatalf("CreateFaction failed: %v", err)
	}
	if iron.Members["warlord"].Rank != RankLeader {
		t.Error("leader should be first member")
	}

	if err := fs.AddMember(iron.ID, "soldier", RankRecruit); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := fs.AddMember(iron.ID, "soldier", RankRecruit); err == nil {
		t.Error("duplicate member should fail")
	}

	if err := fs.ClaimTerritory(iron.ID, "north-ridge"); err != nil {
		t.Fatalf("ClaimTerritory failed: %v", err)
	}
	guild, err := fs.CreateFaction("Gold Guild", FactionMerchant, "broker", nil)
	if err != nil {
		t.Fatalf("CreateFaction failed: %v", err)
	}
	if err := fs.ClaimTerritory(guild.ID, "north-ridge"); err == nil {
		t.Error("claimed territory should be rejected")
	}

	if err := fs.RemoveResources(iron.ID, "gold", 40); err != nil {
		t.Fatalf("RemoveResources failed: %v", err)
	}
	if err := fs.RemoveResources(iron.ID, "gold", 1000); err == nil {
		t.Error("overdraft should fail")
	}
	if iron.Resources["gold"] != 60 {
		t.Errorf("expected 60 gold, got %d", iron.Resources["gold"])
	}
}

func TestDiplomaticThresholds(t *testing.T) {
	fs := NewFactionSystem(nil)
	ctx := context.Background()

	a, _ := fs.CreateFaction("A", FactionNeutralT, "la", nil)
	b, _ := fs.CreateFaction("B", FactionNeutralT, "lb", nil)

	if got := fs.Status(a.ID, b.ID); got != StatusNeutral {
		t.Errorf("fresh factions should be neutral, got %s", got)
	}

	if err := fs.AdjustRelation(ctx, a.ID, b.ID, 0.75); err != nil {
		t.Fatalf("AdjustRelation failed: %v", err)
	}
	if got := fs.Status(a.ID, b.ID); got != StatusAllied {
		t.Errorf("relation 0.75 should be allied, got %s", got)
	}
	if fs.Relation(b.ID, a.ID) != fs.Relation(a.ID, b.ID) {
		t.Error("relations should be symmetric")
	}

	if err := fs.AdjustRelation(ctx, a.ID, b.ID, -1.1); err != nil {
		t.Fatalf("AdjustRelation failed: %v", err)
	}
	if got := fs.Status(a.ID, b.ID); got != StatusHostile {
		t.Errorf("relation -0.35 should be hostile, got %s", got)
	}
}

func TestFactionUpdateDriftAndInfluence(t *testing.T) {
	fs := NewFactionSystem(nil)
	ctx := context.Background()

	a, _ := fs.CreateFaction("A", FactionNeutralT, "la", map[string]int{"gold": 1000})
	b, _ := fs.CreateFaction("B", FactionNeutralT, "lb", nil)
	if err := fs.AdjustRelation(ctx, a.ID, b.ID, 0.8); err != nil {
		t.Fatalf("AdjustRelation failed: %v", err)
	}
	if err := fs.ClaimTerritory(a.ID, "valley"); err != nil {
		t.Fatalf("ClaimTerritory failed: %v", err)
	}

	if _, err := fs.Update(ctx, 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after := fs.Relation(a.ID, b.ID)
	if after >= 0.8 {
		t.Errorf("relation should drift toward neutral, got %.3f", after)
	}

	// territory 10 + gold 10 + member 5 + ally 15
	fa, _ := fs.Faction(a.ID)
	if math.Abs(fa.Influence-40) > 1e-9 {
		t.Errorf("expected influence 40, got %.1f", fa.Influence)
	}
}
