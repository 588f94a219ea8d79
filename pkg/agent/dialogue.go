package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/llm"
	"github.com/verai-labs/verai/pkg/personality"
	"github.com/verai-labs/verai/pkg/resilience"
)

// DialogueSpeaker turns prompts into in-character lines through an LLM
// provider, guarded by retry, timeout and a circuit breaker. When the
// provider is unavailable it falls back to scripted lines.
type DialogueSpeaker struct {
	provider llm.Provider
	model    string
	persona  string

	retry   resilience.RetryConfig
	timeout resilience.TimeoutConfig
	breaker *resilience.CircuitBreaker

	filter *SpeechFilter

	recorder DialogueRecorder
	label    string

	mu          sync.Mutex
	fallback    []string
	fallbackIdx int
}

// DialogueRecorder counts generation attempts per provider. The telemetry
// SimMetrics instruments satisfy it.
type DialogueRecorder interface {
	RecordDialogue(ctx context.Context, provider string, ok bool)
}

// SpeakerOption configures a DialogueSpeaker.
type SpeakerOption func(*DialogueSpeaker)

// WithModel sets the model the provider is asked for.
func WithModel(model string) SpeakerOption {
	return func(s *DialogueSpeaker) { s.model = model }
}

// WithPersona sets the system prompt establishing the character.
func WithPersona(persona string) SpeakerOption {
	return func(s *DialogueSpeaker) { s.persona = persona }
}

// WithFallbackLines supplies scripted lines served round-robin when the
// provider fails.
func WithFallbackLines(lines ...string) SpeakerOption {
	return func(s *DialogueSpeaker) { s.fallback = lines }
}

// WithSpeechFilter screens generated lines before delivery.
func WithSpeechFilter(filter *SpeechFilter) SpeakerOption {
	return func(s *DialogueSpeaker) { s.filter = filter }
}

// WithSpeakerMetrics counts generations under the given provider label.
func WithSpeakerMetrics(recorder DialogueRecorder, label string) SpeakerOption {
	return func(s *DialogueSpeaker) {
		s.recorder = recorder
		s.label = label
	}
}

// WithRetry overrides the retry policy.
func WithRetry(rc resilience.RetryConfig) SpeakerOption {
	return func(s *DialogueSpeaker) { s.retry = rc }
}

// WithSpeakerTimeout bounds each provider call.
func WithSpeakerTimeout(d time.Duration) SpeakerOption {
	return func(s *DialogueSpeaker) { s.timeout = resilience.TimeoutConfig{Duration: d} }
}

// NewSpeaker builds a speaker over an LLM provider.
func NewSpeaker(provider llm.Provider, opts ...SpeakerOption) (*DialogueSpeaker, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "llm provider required", nil)
	}
	s := &DialogueSpeaker{
		provider: provider,
		filter:   NewSpeechFilter(),
		retry:    resilience.DefaultRetryConfig().WithMaxAttempts(2),
		timeout:  resilience.TimeoutConfig{Duration: 30 * time.Second},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "dialogue",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PersonaFromProfile renders a system prompt out of a personality profile.
func PersonaFromProfile(name string, profile *personality.Profile) string {
	if profile == nil {
		return fmt.Sprintf("You are %s, a character in an open world. Stay in character and answer in one or two sentences.", name)
	}
	return fmt.Sprintf(
		"You are %s, a character in an open world. Courage %.1f, empathy %.1f, charisma %.1f on a 0-1 scale shape how you speak. Stay in character and answer in one or two sentences.",
		name,
		profile.Traits.Get(personality.Courage),
		profile.Traits.Get(personality.Empathy),
		profile.Traits.Get(personality.Charisma),
	)
}

// Say implements core.Speaker. Provider failures after retries fall back
// to scripted lines when any are configured.
func (s *DialogueSpeaker) Say(ctx context.Context, prompt string) (string, error) {
	var messages []llm.Message
	if s.persona != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.persona})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	var reply string
	err := s.breaker.Call(ctx, func() error {
		return s.retry.Do(ctx, func() error {
			return resilience.WithTimeout(ctx, s.timeout, func() error {
				resp, err := s.provider.Chat(ctx, llm.ChatRequest{
					Model:    s.model,
					Messages: messages,
				})
				if err != nil {
					return errors.New(errors.CodeLLMError, "chat failed", err).
						WithRecoverable(true)
				}
				reply = resp.Content
				return nil
			})
		})
	})
	if s.recorder != nil {
		s.recorder.RecordDialogue(ctx, s.label, err == nil)
	}
	if err != nil {
		if line, ok := s.nextFallback(); ok {
			return line, nil
		}
		return "", err
	}
	if s.filter != nil {
		reply, _ = s.filter.Filter(reply)
	}
	return reply, nil
}

func (s *DialogueSpeaker) nextFallback() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fallback) == 0 {
		return "", false
	}
	line := s.fallback[s.fallbackIdx%len(s.fallback)]
	s.fallbackIdx++
	return line, true
}
