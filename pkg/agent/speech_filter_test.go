package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/verai-labs/verai/pkg/llm"
)

func TestSpeechFilterScrubsOutOfCharacterText(t *testing.T) {
	f := NewSpeechFilter()

	line, altered := f.Filter("Greetings, traveler.")
	if altered || line != "Greetings, traveler." {
		t.Errorf("clean line changed: %q altered=%v", line, altered)
	}

	line, altered = f.Filter("As an AI language model, I cannot fight. Greetings, traveler.")
	if !altered {
		t.Fatal("assistant phrasing should be scrubbed")
	}
	if line != "Greetings, traveler." {
		t.Errorf("scrubbed line = %q", line)
	}

	line, altered = f.Filter("<thinking>plan</thinking>Draw your blade.")
	if !altered || line != "Draw your blade." {
		t.Errorf("markup not removed: %q altered=%v", line, altered)
	}
}

func TestSpeechFilterBlockedAndMasked(t *testing.T) {
	f := NewSpeechFilter(
		WithBlockedPatterns(`(?i)password`),
		WithMaskedPatterns(`\d{3}-\d{4}`),
		WithReplacementLine("I have nothing to say."),
	)

	line, altered := f.Filter("the password is swordfish")
	if !altered || line != "I have nothing to say." {
		t.Errorf("blocked line = %q altered=%v", line, altered)
	}

	line, altered = f.Filter("call me at 555-0199 anytime")
	if !altered {
		t.Fatal("masked pattern should alter the line")
	}
	if line != "call me at anytime" {
		t.Errorf("masked line = %q", line)
	}
}

func TestSpeechFilterEmptyAfterScrub(t *testing.T) {
	f := NewSpeechFilter()
	line, altered := f.Filter("As an AI model I cannot answer that.")
	if !altered || line != "..." {
		t.Errorf("fully scrubbed line = %q altered=%v", line, altered)
	}
}

// dialogueCounter tallies recorded generation attempts.
type dialogueCounter struct {
	provider string
	ok       int
	failed   int
}

func (c *dialogueCounter) RecordDialogue(_ context.Context, provider string, ok bool) {
	c.provider = provider
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func TestSpeakerRecordsGenerations(t *testing.T) {
	rec := &dialogueCounter{}
	provider := &llm.MockProvider{Response: "Well met."}
	speaker, err := NewSpeaker(provider, WithSpeakerMetrics(rec, "mock"))
	if err != nil {
		t.Fatalf("NewSpeaker: %v", err)
	}

	if _, err := speaker.Say(context.Background(), "greet"); err != nil {
		t.Fatalf("Say: %v", err)
	}
	if rec.ok != 1 || rec.failed != 0 {
		t.Errorf("counts ok=%d failed=%d, want 1/0", rec.ok, rec.failed)
	}
	if rec.provider != "mock" {
		t.Errorf("provider label = %q, want mock", rec.provider)
	}

	provider.Err = errors.New("provider down")
	if _, err := speaker.Say(context.Background(), "greet"); err == nil {
		t.Fatal("expected provider failure")
	}
	if rec.failed != 1 {
		t.Errorf("failed count = %d, want 1", rec.failed)
	}
}

func TestSpeakerAppliesFilter(t *testing.T) {
	provider := &llm.MockProvider{Response: "As an AI model, I must decline. Stand aside."}
	speaker, err := NewSpeaker(provider, WithFallbackLines("hm."))
	if err != nil {
		t.Fatalf("NewSpeaker: %v", err)
	}
	line, err := speaker.Say(context.Background(), "move")
	if err != nil {
		t.Fatalf("Say: %v", err)
	}
	if line != "Stand aside." {
		t.Errorf("line = %q, want scrubbed reply", line)
	}
}
