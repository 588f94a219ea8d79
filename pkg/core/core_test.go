package core

import (
	"context"
	"testing"
)

func TestEnsureRunID(t *testing.T) {
	ctx := context.Background()
	ctx, id := EnsureRunID(ctx)
	if id == "" {
		t.Fatal("expected a run id")
	}

	ctx2, id2 := EnsureRunID(ctx)
	if id2 != id {
		t.Fatalf("expected stable run id, got %s then %s", id, id2)
	}
	if ctx2 != ctx {
		t.Fatal("expected context reuse when run id present")
	}
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := Actor(ctx); ok {
		t.Fatal("expected no actor on a bare context")
	}
	ctx = WithActor(ctx, "agent-1")
	id, ok := Actor(ctx)
	if !ok || id != "agent-1" {
		t.Fatalf("expected agent-1, got %q (ok=%v)", id, ok)
	}
}

func TestNewEventDefaults(t *testing.T) {
	ev := NewEvent(EventCombatEngaged, "attacker", "defender", map[string]any{"range": 3.0})
	if ev.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if ev.Actor != "attacker" || ev.Target != "defender" {
		t.Fatalf("unexpected actor/target: %s/%s", ev.Actor, ev.Target)
	}
	if ev.Payload["range"] != 3.0 {
		t.Fatal("payload not carried")
	}
}
