package core

import "context"

// Memory stores and retrieves contextual data for agents.
type Memory interface {
	Store(ctx context.Context, data any) error
	Retrieve(ctx context.Context, query any) (any, error)
}

// Agent is the minimal simulated unit of the platform.
type Agent interface {
	ID() string
	Name() string
	Memory() Memory
	// Update advances the agent by delta seconds and returns the events
	// it produced during the tick.
	Update(ctx context.Context, delta float64) ([]Event, error)
}

// System is a simulation subsystem driven by the sandbox tick.
type System interface {
	// Update advances the system by delta seconds.
	Update(ctx context.Context, delta float64) ([]Event, error)
}

// Speaker produces in-character dialogue lines for an agent.
type Speaker interface {
	Say(ctx context.Context, prompt string) (string, error)
}
