package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

func TestAddAndRecall(t *testing.T) {
	sys := NewSystem()
	ctx := context.Background()

	id, err := sys.Add(ctx, Record{
		Kind:       KindCombat,
		Summary:    "won a duel against Kael",
		Importance: 0.8,
		Entities:   []string{"kael"},
		Tags:       []string{"victory"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty memory id")
	}

	got := sys.Recall(Query{Kind: KindCombat}, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].ID != id {
		t.Errorf("expected record %s, got %s", id, got[0].ID)
	}
}

func TestAddRejectsBadImportance(t *testing.T) {
	sys := NewSystem()
	_, err := sys.Add(context.Background(), Record{Kind: KindEpisodic, Importance: 1.5})
	if err == nil {
		t.Fatal("expected error for importance > 1")
	}
	verr := errors.As(err)
	if verr == nil || verr.Code != errors.CodeInvalidInput {
		t.Errorf("expected CodeInvalidInput, got %v", err)
	}
}

func TestConsolidationPromotesImportant(t *testing.T) {
	sys := NewSystem(WithShortTermLimit(4))
	ctx := context.Background()

	for _, imp := range []float64{0.9, 0.2, 0.7, 0.1} {
		if _, err := sys.Add(ctx, Record{Kind: KindEpisodic, Importance: imp}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	short, long := sys.Counts()
	if short != 0 {
		t.Errorf("expected empty short-term buffer after consolidation, got %d", short)
	}
	if long != 2 {
		t.Errorf("expected 2 promoted records, got %d", long)
	}
}

func TestEvictionKeepsMostImportant(t *testing.T) {
	sys := NewSystem(WithShortTermLimit(5), WithLongTermCapacity(3), WithImportanceFloor(0))
	ctx := context.Background()

	for _, imp := range []float64{0.1, 0.9, 0.5, 0.8, 0.3} {
		if _, err := sys.Add(ctx, Record{Kind: KindEpisodic, Importance: imp}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	_, long := sys.Counts()
	if long != 3 {
		t.Fatalf("expected capacity 3, got %d", long)
	}
	for _, rec := range sys.Recall(Query{}, 10) {
		if rec.Importance < 0.5 {
			t.Errorf("low-importance record %.1f survived eviction", rec.Importance)
		}
	}
}

func TestRecallRanking(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sys := NewSystem(withClock(func() time.Time { return clock }))
	ctx := context.Background()

	if _, err := sys.Add(ctx, Record{
		Kind: KindSocial, Summary: "traded supplies with Mira",
		Importance: 0.5, Entities: []string{"mira"},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := sys.Add(ctx, Record{
		Kind: KindSocial, Summary: "argued with a stranger",
		Importance: 0.5,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got := sys.Recall(Query{Kind: KindSocial, Entities: []string{"mira"}}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !strings.Contains(got[0].Summary, "Mira") {
		t.Errorf("expected entity match ranked first, got %q", got[0].Summary)
	}
}

func TestForget(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sys := NewSystem(withClock(func() time.Time { return clock }))
	ctx := context.Background()

	if _, err := sys.Add(ctx, Record{Kind: KindEpisodic, Importance: 0.3, Tags: []string{"noise"}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := sys.Add(ctx, Record{Kind: KindEpisodic, Importance: 0.9}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	clock = base.Add(2 * time.Hour)
	removed := sys.Forget(ForgetConditions{OlderThan: time.Hour, BelowImportance: 0.5})
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	short, long := sys.Counts()
	if short+long != 1 {
		t.Errorf("expected 1 record remaining, got %d", short+long)
	}
}

func TestUpdate(t *testing.T) {
	sys := NewSystem()
	ctx := context.Background()

	id, err := sys.Add(ctx, Record{Kind: KindWorld, Importance: 0.4, Content: map[string]any{"biome": "forest"}})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	imp := 0.9
	if err := sys.Update(id, map[string]any{"biome": "desert"}, &imp); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got := sys.Recall(Query{Kind: KindWorld}, 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Content["biome"] != "desert" {
		t.Errorf("expected updated content, got %v", got[0].Content["biome"])
	}
	if got[0].Importance != 0.9 {
		t.Errorf("expected importance 0.9, got %v", got[0].Importance)
	}

	if err := sys.Update("missing", nil, nil); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestCoreMemoryAdapter(t *testing.T) {
	sys := NewSystem()
	ctx := context.Background()

	if err := sys.Store(ctx, "not a record"); err == nil {
		t.Error("expected error storing non-Record data")
	}
	if err := sys.Store(ctx, Record{Kind: KindEpisodic, Importance: 0.6}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	out, err := sys.Retrieve(ctx, Query{Kind: KindEpisodic})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	recs, ok := out.([]Record)
	if !ok || len(recs) != 1 {
		t.Fatalf("expected 1 record back, got %v", out)
	}
}

// opCounter tallies recorded memory operations by kind.
type opCounter struct {
	kinds map[string]int
}

func (c *opCounter) RecordMemoryOp(_ context.Context, kind string) {
	if c.kinds == nil {
		c.kinds = make(map[string]int)
	}
	c.kinds[kind]++
}

func TestMemoryOpsAreCounted(t *testing.T) {
	rec := &opCounter{}
	sys := NewSystem(WithShortTermLimit(2), WithOpRecorder(rec))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := sys.Add(ctx, Record{Kind: KindEpisodic, Importance: 0.9}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if rec.kinds["store"] != 2 {
		t.Errorf("store count = %d, want 2", rec.kinds["store"])
	}
	if rec.kinds["consolidate"] != 1 {
		t.Errorf("consolidate count = %d, want 1", rec.kinds["consolidate"])
	}
}

// fakeEmbedder hashes text length into a tiny deterministic vector.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

// fakeStore records upserts and returns every stored point on search.
type fakeStore struct {
	points []Point
}

func (f *fakeStore) Upsert(_ context.Context, _ string, points []Point) error {
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ string, _ []float32, limit int, _ float32) ([]SearchResult, error) {
	var out []SearchResult
	for _, p := range f.points {
		if len(out) >= limit {
			break
		}
		out = append(out, SearchResult{ID: p.ID, Score: 0.9, Point: p})
	}
	return out, nil
}

func (f *fakeStore) CreateCollection(_ context.Context, _ string, _ uint64) error {
	return nil
}

func TestSemanticRecall(t *testing.T) {
	store := &fakeStore{}
	index := NewSemanticIndex(store, fakeEmbedder{}, "test")
	sys := NewSystem(WithShortTermLimit(1), WithSemanticIndex(index))
	ctx := context.Background()

	if _, err := sys.Add(ctx, Record{
		Kind: KindCombat, Summary: "defeated the bandit chief", Importance: 0.9,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := sys.RecallSemantic(ctx, "bandit fight", 3)
	if err != nil {
		t.Fatalf("RecallSemantic failed: %v", err)
	}
	if len(got) != 1 || got[0] != "defeated the bandit chief" {
		t.Errorf("unexpected semantic results: %v", got)
	}
}

func TestSemanticIndexFlattensContentWithoutSummary(t *testing.T) {
	store := &fakeStore{}
	index := NewSemanticIndex(store, fakeEmbedder{}, "test")

	err := index.Add(context.Background(), Record{
		ID:   "m1",
		Kind: KindEpisodic,
		Content: map[string]any{
			"location": "arena",
			"action":   "sparred",
		},
		Importance: 0.7,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(store.points) != 1 {
		t.Fatalf("expected 1 indexed point, got %d", len(store.points))
	}
	text, _ := store.points[0].Payload["text"].(string)
	if text != "action: sparred; location: arena" {
		t.Errorf("unexpected flattened text: %q", text)
	}
}

func TestSemanticRecallWithoutIndex(t *testing.T) {
	sys := NewSystem()
	if _, err := sys.RecallSemantic(context.Background(), "anything", 1); err == nil {
		t.Fatal("expected error without semantic index")
	}
}
