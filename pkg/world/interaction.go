package world

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// InteractionType is what two or more agents are doing together.
type InteractionType string

const (
	InteractionDialogue InteractionType = "dialogue"
	InteractionTrade    InteractionType = "trade"
	InteractionCombat   InteractionType = "combat"
	InteractionSocial   InteractionType = "social"
	InteractionTraining InteractionType = "training"
	InteractionQuest    InteractionType = "quest"
	InteractionSpecial  InteractionType = "special"
)

// InteractionPriority orders competing interactions.
type InteractionPriority int

const (
	PriorityLow InteractionPriority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// InteractionState is the lifecycle of an interaction.
type InteractionState string

const (
	InteractionActive    InteractionState = "active"
	InteractionCompleted InteractionState = "completed"
	InteractionCancelled InteractionState = "cancelled"
)

// ActionRecord is one logged step inside an interaction.
type ActionRecord struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Payload   map[string]any
}

// Interaction is one running exchange between agents.
type Interaction struct {
	ID        string
	Type      InteractionType
	Initiator string
	Targets   []string
	Location  Vec3
	Priority  InteractionPriority
	State     InteractionState
	StartTime time.Time
	Log       []ActionRecord
	Outcomes  map[string]any
}

func (i *Interaction) participant(id string) bool {
	if i.Initiator == id {
		return true
	}
	for _, t := range i.Targets {
		if t == id {
			return true
		}
	}
	return false
}

// Interactions runs the lifecycle of agent interactions.
type Interactions struct {
	active  map[string]*Interaction
	history []*Interaction
	emitter core.EventEmitter
	now     func() time.Time
}

// NewInteractions creates an empty interaction manager.
func NewInteractions(emitter core.EventEmitter) *Interactions {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	return &Interactions{
		active:  make(map[string]*Interaction),
		emitter: emitter,
		now:     time.Now,
	}
}

// Create validates and starts an interaction.
func (s *Interactions) Create(ctx context.Context, iType InteractionType, initiator string, targets []string, location Vec3, priority InteractionPriority) (*Interaction, error) {
	if initiator == "" {
		return nil, errors.New(errors.CodeInvalidInput, "initiator required", nil)
	}
	if len(targets) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "interaction needs a target", nil)
	}
	for _, t := range targets {
		if t == initiator {
			return nil, errors.New(errors.CodeInvalidInput, "initiator cannot target itself", nil)
		}
	}

	interaction := &Interaction{
		ID:        uuid.NewString(),
		Type:      iType,
		Initiator: initiator,
		Targets:   targets,
		Location:  location,
		Priority:  priority,
		State:     InteractionActive,
		StartTime: s.now(),
		Outcomes:  make(map[string]any),
	}
	s.active[interaction.ID] = interaction

	s.emitter.Emit(ctx, core.NewEvent(core.EventSocialContact, initiator, targets[0], map[string]any{
		"interaction_id":   interaction.ID,
		"interaction_type": string(iType),
	}))
	return interaction, nil
}

// Get returns an active interaction.
func (s *Interactions) Get(id string) (*Interaction, error) {
	interaction, ok := s.active[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "interaction not found", nil).
			WithContext("interaction_id", id)
	}
	return interaction, nil
}

// Act logs one validated action by a participant.
func (s *Interactions) Act(id, actorID, action string, payload map[string]any) error {
	interaction, err := s.Get(id)
	if err != nil {
		return err
	}
	if interaction.State != InteractionActive {
		return errors.New(errors.CodeInvalidState, "interaction not active", nil).
			WithContext("state", string(interaction.State))
	}
	if !interaction.participant(actorID) {
		return errors.New(errors.CodeInvalidInput, "actor not part of interaction", nil).
			WithContext("actor", actorID)
	}

	interaction.Log = append(interaction.Log, ActionRecord{
		Timestamp: s.now(),
		Actor:     actorID,
		Action:    action,
		Payload:   payload,
	})
	return nil
}

// HandleDialogue produces an in-character reply through the speaker and
// logs both lines.
func (s *Interactions) HandleDialogue(ctx context.Context, id, speakerID, line string, voice core.Speaker) (string, error) {
	interaction, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if interaction.Type != InteractionDialogue {
		return "", errors.New(errors.CodeInvalidInput, "not a dialogue interaction", nil).
			WithContext("type", string(interaction.Type))
	}
	if err := s.Act(id, speakerID, "say", map[string]any{"line": line}); err != nil {
		return "", err
	}

	if voice == nil {
		return "", nil
	}
	reply, err := voice.Say(ctx, line)
	if err != nil {
		return "", errors.New(errors.CodeLLMError, "dialogue generation failed", err).
			WithRecoverable(true)
	}
	interaction.Log = append(interaction.Log, ActionRecord{
		Timestamp: s.now(),
		Actor:     "reply",
		Action:    "say",
		Payload:   map[string]any{"line": reply},
	})
	return reply, nil
}

// HandleTraining applies a training session and returns the improvement,
// proportional to intensity and capped per session.
func (s *Interactions) HandleTraining(id, trainerID, studentID, skill string, intensity float64) (float64, error) {
	interaction, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if interaction.Type != InteractionTraining {
		return 0, errors.New(errors.CodeInvalidInput, "not a training interaction", nil).
			WithContext("type", string(interaction.Type))
	}
	if !interaction.participant(trainerID) || !interaction.participant(studentID) {
		return 0, errors.New(errors.CodeInvalidInput, "trainer and student must participate", nil)
	}
	if intensity <= 0 {
		return 0, errors.New(errors.CodeInvalidInput, "intensity must be positive", nil)
	}

	improvement := intensity * 0.1
	if improvement > 0.2 {
		improvement = 0.2
	}
	if err := s.Act(id, trainerID, "train", map[string]any{
		"skill":       skill,
		"student":     studentID,
		"improvement": improvement,
	}); err != nil {
		return 0, err
	}
	interaction.Outcomes[skill] = improvement
	return improvement, nil
}

// Complete finishes an interaction and moves it to history.
func (s *Interactions) Complete(id string, outcomes map[string]any) error {
	interaction, err := s.Get(id)
	if err != nil {
		return err
	}
	for k, v := range outcomes {
		interaction.Outcomes[k] = v
	}
	interaction.State = InteractionCompleted
	s.history = append(s.history, interaction)
	delete(s.active, id)
	return nil
}

// Cancel aborts an interaction.
func (s *Interactions) Cancel(id string) error {
	interaction, err := s.Get(id)
	if err != nil {
		return err
	}
	interaction.State = InteractionCancelled
	s.history = append(s.history, interaction)
	delete(s.active, id)
	return nil
}

// ActiveCount reports currently running interactions.
func (s *Interactions) ActiveCount() int { return len(s.active) }

// History returns completed and cancelled interactions.
func (s *Interactions) History() []*Interaction { return s.history }
