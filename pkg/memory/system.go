package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/errors"
)

const (
	defaultShortTermLimit   = 100
	defaultLongTermCapacity = 1000
	defaultImportanceFloor  = 0.5
)

// ForgetConditions selects records for removal.
type ForgetConditions struct {
	Kind            Kind
	OlderThan       time.Duration
	BelowImportance float64
	Tag             string
}

// System is the layered memory of one agent: a short-term buffer that
// consolidates into a bounded long-term store, with an optional semantic
// index for text recall.
type System struct {
	mu sync.RWMutex

	shortTerm []Record
	longTerm  map[string]Record

	shortTermLimit   int
	longTermCapacity int
	importanceFloor  float64

	index    *SemanticIndex // nil disables semantic indexing
	recorder OpRecorder     // nil disables operation counting

	now func() time.Time
}

// OpRecorder receives one count per memory operation. The telemetry
// SimMetrics instruments satisfy it.
type OpRecorder interface {
	RecordMemoryOp(ctx context.Context, kind string)
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithShortTermLimit sets how many records buffer before consolidation.
func WithShortTermLimit(n int) SystemOption {
	return func(s *System) {
		if n > 0 {
			s.shortTermLimit = n
		}
	}
}

// WithLongTermCapacity caps the long-term store.
func WithLongTermCapacity(n int) SystemOption {
	return func(s *System) {
		if n > 0 {
			s.longTermCapacity = n
		}
	}
}

// WithImportanceFloor sets the minimum importance for consolidation.
func WithImportanceFloor(v float64) SystemOption {
	return func(s *System) {
		s.importanceFloor = v
	}
}

// WithSemanticIndex attaches a vector-backed index for text recall.
func WithSemanticIndex(index *SemanticIndex) SystemOption {
	return func(s *System) {
		s.index = index
	}
}

// WithOpRecorder counts store/consolidate/recall operations.
func WithOpRecorder(r OpRecorder) SystemOption {
	return func(s *System) {
		s.recorder = r
	}
}

func withClock(now func() time.Time) SystemOption {
	return func(s *System) {
		s.now = now
	}
}

// NewSystem creates an empty memory system.
func NewSystem(opts ...SystemOption) *System {
	s := &System{
		longTerm:         make(map[string]Record),
		shortTermLimit:   defaultShortTermLimit,
		longTermCapacity: defaultLongTermCapacity,
		importanceFloor:  defaultImportanceFloor,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records a new memory and returns its id. Reaching the short-term
// limit triggers consolidation.
func (s *System) Add(ctx context.Context, rec Record) (string, error) {
	if rec.Importance < 0 || rec.Importance > 1 {
		return "", errors.New(errors.CodeInvalidInput, "importance out of range", nil).
			WithContext("importance", rec.Importance)
	}

	s.mu.Lock()
	rec.ID = uuid.NewString()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	s.shortTerm = append(s.shortTerm, rec)
	needsConsolidation := len(s.shortTerm) >= s.shortTermLimit
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordMemoryOp(ctx, "store")
	}
	if needsConsolidation {
		if err := s.Consolidate(ctx); err != nil {
			return rec.ID, err
		}
	}
	return rec.ID, nil
}

// Consolidate promotes important short-term records to long-term storage
// and drops the rest. Promoted records are added to the semantic index.
func (s *System) Consolidate(ctx context.Context) error {
	s.mu.Lock()
	promoted := make([]Record, 0, len(s.shortTerm))
	for _, rec := range s.shortTerm {
		if rec.Importance >= s.importanceFloor {
			s.longTerm[rec.ID] = rec
			promoted = append(promoted, rec)
		}
	}
	s.shortTerm = s.shortTerm[:0]
	s.evictLocked()
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordMemoryOp(ctx, "consolidate")
	}
	if s.index == nil {
		return nil
	}
	for _, rec := range promoted {
		if rec.Summary == "" && len(rec.Content) == 0 {
			continue
		}
		if err := s.index.Add(ctx, rec); err != nil {
			return errors.New(errors.CodeMemoryError, "semantic index update failed", err).
				WithContext("memory_id", rec.ID).
				WithRecoverable(true)
		}
	}
	return nil
}

// evictLocked drops the lowest-importance long-term records over capacity.
func (s *System) evictLocked() {
	excess := len(s.longTerm) - s.longTermCapacity
	if excess <= 0 {
		return
	}
	recs := make([]Record, 0, len(s.longTerm))
	for _, rec := range s.longTerm {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Importance < recs[j].Importance
	})
	for i := 0; i < excess; i++ {
		delete(s.longTerm, recs[i].ID)
	}
}

// Recall returns up to limit records matching the query, ranked by
// relevance (importance, recency, tag/entity/text overlap).
func (s *System) Recall(q Query, limit int) []Record {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	now := s.now()
	candidates := make([]Record, 0, len(s.shortTerm)+len(s.longTerm))
	for _, rec := range s.shortTerm {
		if matchesKindAndTags(rec, q) {
			candidates = append(candidates, rec)
		}
	}
	for _, rec := range s.longTerm {
		if matchesKindAndTags(rec, q) {
			candidates = append(candidates, rec)
		}
	}
	s.mu.RUnlock()

	type scored struct {
		rec   Record
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, rec := range candidates {
		score := relevance(rec, q, now)
		if score >= q.Threshold {
			ranked = append(ranked, scored{rec, score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Record, len(ranked))
	for i, s := range ranked {
		out[i] = s.rec
	}
	return out
}

// RecallSemantic searches the vector index for memories similar to text.
// Returns an error if no semantic index is attached.
func (s *System) RecallSemantic(ctx context.Context, text string, limit int) ([]string, error) {
	if s.index == nil {
		return nil, errors.New(errors.CodeMemoryError, "no semantic index attached", nil)
	}
	if s.recorder != nil {
		s.recorder.RecordMemoryOp(ctx, "recall")
	}
	return s.index.Search(ctx, text, limit)
}

// Forget removes records matching the conditions and reports how many.
func (s *System) Forget(cond ForgetConditions) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	matches := func(rec Record) bool {
		if cond.Kind != "" && rec.Kind != cond.Kind {
			return false
		}
		if cond.OlderThan > 0 && now.Sub(rec.Timestamp) < cond.OlderThan {
			return false
		}
		if cond.BelowImportance > 0 && rec.Importance >= cond.BelowImportance {
			return false
		}
		if cond.Tag != "" && !containsFold(rec.Tags, cond.Tag) {
			return false
		}
		return true
	}

	removed := 0
	kept := s.shortTerm[:0]
	for _, rec := range s.shortTerm {
		if matches(rec) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.shortTerm = kept

	for id, rec := range s.longTerm {
		if matches(rec) {
			delete(s.longTerm, id)
			removed++
		}
	}
	return removed
}

// Update applies content and importance changes to a record by id.
func (s *System) Update(id string, content map[string]any, importance *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply := func(rec *Record) {
		for k, v := range content {
			if rec.Content == nil {
				rec.Content = make(map[string]any)
			}
			rec.Content[k] = v
		}
		if importance != nil {
			rec.Importance = *importance
		}
	}

	for i := range s.shortTerm {
		if s.shortTerm[i].ID == id {
			apply(&s.shortTerm[i])
			return nil
		}
	}
	if rec, ok := s.longTerm[id]; ok {
		apply(&rec)
		s.longTerm[id] = rec
		return nil
	}
	return errors.New(errors.CodeNotFound, "memory not found", nil).
		WithContext("memory_id", id)
}

// Counts reports short-term and long-term sizes.
func (s *System) Counts() (shortTerm, longTerm int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shortTerm), len(s.longTerm)
}

// Store implements core.Memory; data must be a Record.
func (s *System) Store(ctx context.Context, data any) error {
	rec, ok := data.(Record)
	if !ok {
		return errors.New(errors.CodeInvalidInput, "memory store expects a Record", nil)
	}
	_, err := s.Add(ctx, rec)
	return err
}

// Retrieve implements core.Memory; query must be a Query.
func (s *System) Retrieve(_ context.Context, query any) (any, error) {
	q, ok := query.(Query)
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput, "memory retrieve expects a Query", nil)
	}
	return s.Recall(q, 10), nil
}
