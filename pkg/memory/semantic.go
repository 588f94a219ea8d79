package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SemanticIndex stores memory summaries in a vector store so that recall
// can match on meaning rather than exact tags or substrings.
type SemanticIndex struct {
	store      VectorStore
	embedder   Embedder
	collection string
	threshold  float32
}

// NewSemanticIndex creates a semantic index over the given store and embedder.
func NewSemanticIndex(store VectorStore, embedder Embedder, collection string) *SemanticIndex {
	return &SemanticIndex{
		store:      store,
		embedder:   embedder,
		collection: collection,
		threshold:  0.6,
	}
}

// Initialize ensures the collection exists with the embedder's dimension.
func (si *SemanticIndex) Initialize(ctx context.Context) error {
	vec, err := si.embedder.Embed(ctx, "hello")
	if err != nil {
		return fmt.Errorf("failed to get embedding dimension: %w", err)
	}

	if err := si.store.CreateCollection(ctx, si.collection, uint64(len(vec))); err != nil {
		// The store returns an error when the collection already exists.
		// Probe with a search before treating creation failure as fatal.
		if _, searchErr := si.store.Search(ctx, si.collection, vec, 1, 0.0); searchErr == nil {
			return nil
		}
		return err
	}
	return nil
}

// Add indexes a memory record by its summary, falling back to a flattened
// rendering of the content when no summary was written.
func (si *SemanticIndex) Add(ctx context.Context, rec Record) error {
	text := rec.Summary
	if text == "" {
		text = contentText(rec.Content)
	}

	vector, err := si.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed memory: %w", err)
	}

	point := Point{
		ID:     rec.ID,
		Vector: vector,
		Payload: map[string]interface{}{
			"text":       text,
			"kind":       string(rec.Kind),
			"importance": rec.Importance,
			"timestamp":  rec.Timestamp.Unix(),
		},
		Timestamp: time.Now().Unix(),
	}

	if err := si.store.Upsert(ctx, si.collection, []Point{point}); err != nil {
		return fmt.Errorf("failed to index memory: %w", err)
	}
	return nil
}

// contentText flattens a content map into stable key-sorted text so that
// records without summaries still embed deterministically.
func contentText(content map[string]any) string {
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, content[k]))
	}
	return strings.Join(parts, "; ")
}

// Search returns the texts of the closest indexed memories.
func (si *SemanticIndex) Search(ctx context.Context, text string, limit int) ([]string, error) {
	vector, err := si.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := si.store.Search(ctx, si.collection, vector, limit, si.threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var matches []string
	for _, r := range results {
		if val, ok := r.Point.Payload["text"].(string); ok {
			matches = append(matches, val)
		}
	}
	return matches, nil
}
