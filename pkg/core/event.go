package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted by agents or subsystems.
type EventType string

const (
	EventAgentSpawned    EventType = "agent.spawned"
	EventAgentDecision   EventType = "agent.decision"
	EventAgentLevelUp    EventType = "agent.levelup"
	EventAgentError      EventType = "agent.error"
	EventCombatEngaged   EventType = "combat.engaged"
	EventCombatAction    EventType = "combat.action"
	EventCombatFinished  EventType = "combat.finished"
	EventSocialContact   EventType = "social.interaction"
	EventSocialEvolved   EventType = "social.relationship"
	EventFactionDiplomacy EventType = "faction.diplomacy"
	EventReputationShift EventType = "reputation.shift"
	EventWeatherChanged  EventType = "environment.weather"
	EventResourceDrained EventType = "environment.resource"
	EventPhysicsContact  EventType = "physics.collision"
)

// Event captures a semantic simulation event.
type Event struct {
	Type      EventType
	Actor     string
	Target    string
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, actor, target string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		Actor:     actor,
		Target:    target,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
