// Package memory provides the layered agent memory system and its backends.
package memory

import (
	"strings"
	"time"
)

// Kind categorizes a memory record.
type Kind string

const (
	KindEpisodic   Kind = "episodic"   // things that happened
	KindSocial     Kind = "social"     // interactions with other agents
	KindCombat     Kind = "combat"     // fights and their outcomes
	KindProcedural Kind = "procedural" // learned action patterns
	KindWorld      Kind = "world"      // facts about the environment
)

// Record is a single memory with salience metadata.
type Record struct {
	ID        string
	Timestamp time.Time
	Kind      Kind
	Content   map[string]any
	Summary   string // one-line text used for semantic indexing
	// Importance in [0,1] decides long-term consolidation.
	Importance float64
	// Emotion in [-1,1]; strongly emotional memories decay slower.
	Emotion  float64
	Entities []string
	Tags     []string
}

// Query selects and ranks records during recall.
type Query struct {
	Kind     Kind
	Tags     []string
	Entities []string
	Text     string
	// Threshold is the minimum relevance score; 0 disables filtering.
	Threshold float64
}

// relevance scores a record against a query. Importance and recency always
// contribute; tag, entity and text overlap add on top.
func relevance(rec Record, q Query, now time.Time) float64 {
	score := rec.Importance

	age := now.Sub(rec.Timestamp)
	if age < time.Hour {
		score += 0.2 * (1 - float64(age)/float64(time.Hour))
	}

	if q.Kind != "" && rec.Kind == q.Kind {
		score += 0.3
	}
	for _, tag := range q.Tags {
		if containsFold(rec.Tags, tag) {
			score += 0.2
		}
	}
	for _, entity := range q.Entities {
		if containsFold(rec.Entities, entity) {
			score += 0.25
		}
	}
	if q.Text != "" && strings.Contains(strings.ToLower(rec.Summary), strings.ToLower(q.Text)) {
		score += 0.3
	}
	return score
}

func matchesKindAndTags(rec Record, q Query) bool {
	if q.Kind != "" && rec.Kind != q.Kind {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
