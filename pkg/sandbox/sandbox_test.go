package sandbox

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/factory"
	"github.com/verai-labs/verai/pkg/social"
	"github.com/verai-labs/verai/pkg/telemetry"
	"github.com/verai-labs/verai/pkg/world"
)

func newRunningSim(t *testing.T) *Simulation {
	t.Helper()
	sim := NewSimulation(WithBiome(world.BiomeDojo))
	if err := sim.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return sim
}

func TestSpawnDuringStep(t *testing.T) {
	ctx := context.Background()
	sim := newRunningSim(t)
	f := factory.New(factory.WithEmitter(sim))

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 50; i++ {
			if err := sim.Step(ctx, 0.01); err != nil {
				t.Errorf("Step: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 20; i++ {
			name := fmt.Sprintf("skirmisher-%d", i)
			if _, err := sim.Spawn(ctx, f, "warrior", name, world.Vec3{X: float64(i), Y: 0.5}); err != nil {
				t.Errorf("Spawn: %v", err)
				return
			}
		}
	}()

	close(start)
	wg.Wait()

	if got := sim.Physics().BodyCount(); got != 20 {
		t.Errorf("body count = %d, want 20", got)
	}
	if sim.Stats().ActiveAgents != 20 {
		t.Errorf("active agents = %d, want 20", sim.Stats().ActiveAgents)
	}
}

func TestEmitFeedsMetricInstruments(t *testing.T) {
	metrics, err := telemetry.NewSimMetrics()
	if err != nil {
		t.Fatalf("NewSimMetrics: %v", err)
	}
	sim := NewSimulation(WithMetrics(metrics))
	ctx := context.Background()

	sim.Emit(ctx, core.NewEvent(core.EventCombatFinished, "a", "b", nil))
	sim.Emit(ctx, core.NewEvent(core.EventSocialContact, "a", "b", map[string]any{
		"success": true,
	}))

	stats := sim.Stats()
	if stats.CombatEvents != 1 || stats.SocialEvents != 1 {
		t.Errorf("counters combat=%d social=%d, want 1/1", stats.CombatEvents, stats.SocialEvents)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	sim := NewSimulation()
	if sim.State() != StateInitializing {
		t.Fatalf("state = %q, want initializing", sim.State())
	}

	if err := sim.Pause(); err == nil {
		t.Error("pausing an unstarted simulation should fail")
	}
	if err := sim.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sim.Start(); err == nil {
		t.Error("double start should fail")
	}
	if err := sim.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := sim.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sim.State() != StateStopped {
		t.Errorf("state = %q, want stopped", sim.State())
	}
}

func TestSpawnRegistersEverywhere(t *testing.T) {
	ctx := context.Background()
	sim := newRunningSim(t)
	f := factory.New(factory.WithEmitter(sim))

	a, err := sim.Spawn(ctx, f, "warrior", "brakk", world.Vec3{X: 1, Y: 0.5, Z: 1})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if _, err := sim.Agent(a.ID()); err != nil {
		t.Errorf("agent not registered: %v", err)
	}
	if _, err := sim.Physics().Body(a.ID()); err != nil {
		t.Errorf("physics body missing: %v", err)
	}
	if _, err := sim.Relationships(a.ID()); err != nil {
		t.Errorf("relationship map missing: %v", err)
	}
	if _, _, err := sim.Reputation().Reputation(a.ID(), social.RepGeneral); err != nil {
		t.Errorf("reputation profile missing: %v", err)
	}
	if sim.Stats().ActiveAgents != 1 {
		t.Errorf("active agents = %d, want 1", sim.Stats().ActiveAgents)
	}

	events := sim.Events(0)
	found := false
	for _, e := range events {
		if e.Type == core.EventAgentSpawned {
			found = true
		}
	}
	if !found {
		t.Error("expected a spawn event in the log")
	}
}

func TestStepRequiresRunning(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulation()
	if err := sim.Step(ctx, 0.1); err == nil {
		t.Fatal("stepping an unstarted simulation should fail")
	}
}

func TestStepAdvancesScaledTime(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulation(WithTimeScale(2))
	if err := sim.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sim.Step(ctx, 1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := sim.Stats().SimulationTime; got != 2 {
		t.Errorf("simulation time = %v, want 2 with scale 2", got)
	}
}

func TestAgentsPerceiveNeighbors(t *testing.T) {
	ctx := context.Background()
	sim := newRunningSim(t)
	f := factory.New()

	a, err := sim.Spawn(ctx, f, "warrior", "edda", world.Vec3{X: 0, Y: 0.5, Z: 0})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := sim.Spawn(ctx, f, "merchant", "tam", world.Vec3{X: 5, Y: 0.5, Z: 0}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := sim.Spawn(ctx, f, "scholar", "far", world.Vec3{X: 100, Y: 0.5, Z: 0}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// Stepping runs each agent brain; decision events land in the log.
	if err := sim.Step(ctx, 0.1); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// The perceiver sees only agents within range.
	body, err := sim.Physics().Body(a.ID())
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if body == nil {
		t.Fatal("missing body")
	}
}

func TestRemoveAgent(t *testing.T) {
	ctx := context.Background()
	sim := newRunningSim(t)
	f := factory.New()

	a, err := sim.Spawn(ctx, f, "guardian", "oren", world.Vec3{Y: 0.5})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	sim.RemoveAgent(a.ID())
	if _, err := sim.Agent(a.ID()); err == nil {
		t.Error("agent should be gone")
	}
	if sim.Stats().ActiveAgents != 0 {
		t.Errorf("active agents = %d, want 0", sim.Stats().ActiveAgents)
	}
}

func TestControllerCommands(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulation()
	ctl, err := NewController(sim, NewMemorySnapshotStore())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if _, err := ctl.Execute(ctx, CommandStart, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := ctl.Execute(ctx, CommandPause, ""); err != nil {
		t.Fatalf("pause: %v", err)
	}

	saveID, err := ctl.Execute(ctx, CommandSave, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saveID == "" {
		t.Fatal("expected a save id")
	}

	if _, err := ctl.Execute(ctx, CommandLoad, saveID); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ctl.Execute(ctx, CommandLoad, "missing"); err == nil {
		t.Error("loading an unknown snapshot should fail")
	}

	if _, err := ctl.Execute(ctx, CommandResume, ""); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := ctl.Execute(ctx, CommandLoad, saveID); err == nil {
		t.Error("loading while running should fail")
	}

	history := ctl.History()
	if len(history) != 7 {
		t.Errorf("history length = %d, want 7", len(history))
	}
	if history[len(history)-1].Err == "" {
		t.Error("last record should carry the error")
	}
}

func TestControllerPrunesSaves(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulation()
	store := NewMemorySnapshotStore()
	ctl, err := NewController(sim, store)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	for i := 0; i < maxSaveStates+3; i++ {
		if _, err := ctl.Execute(ctx, CommandSave, ""); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != maxSaveStates {
		t.Errorf("stored saves = %d, want %d", len(ids), maxSaveStates)
	}
}

func TestSnapshotRestoreRepositionsAgents(t *testing.T) {
	ctx := context.Background()
	sim := newRunningSim(t)
	f := factory.New()

	a, err := sim.Spawn(ctx, f, "warrior", "brakk", world.Vec3{X: 3, Y: 0.5, Z: 3})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	snap := sim.Snapshot()
	if len(snap.Agents) != 1 {
		t.Fatalf("snapshot agents = %d, want 1", len(snap.Agents))
	}

	body, _ := sim.Physics().Body(a.ID())
	body.Position = world.Vec3{X: 50, Y: 0.5, Z: 50}

	sim.Restore(snap)
	if body.Position.X != 3 {
		t.Errorf("restore should reposition, x = %v", body.Position.X)
	}
}
