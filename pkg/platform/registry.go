package platform

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

// AgentStatus tracks an agent's connection lifecycle on the platform.
type AgentStatus string

const (
	StatusRegistered   AgentStatus = "registered"
	StatusActive       AgentStatus = "active"
	StatusDisconnected AgentStatus = "disconnected"
)

const (
	defaultMaxConnections    = 1000
	defaultConnectionTimeout = 30 * time.Second
	defaultSweepInterval     = 300 * time.Second
)

// AgentRecord is one registered agent as seen by the platform.
type AgentRecord struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Template     string      `json:"template"`
	RegisteredAt time.Time   `json:"registered_at"`
	LastSeen     time.Time   `json:"last_seen"`
	Status       AgentStatus `json:"status"`
}

// Registry tracks registered agents and their connection state. Connections
// that go quiet past the timeout are marked disconnected by the sweeper.
type Registry struct {
	mu          sync.Mutex
	maxConns    int
	connTimeout time.Duration
	agents      map[string]*AgentRecord
	logger      *slog.Logger
	now         func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxConnections caps how many agents may register.
func WithMaxConnections(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxConns = n
		}
	}
}

// WithConnectionTimeout sets how long a silent connection stays active.
func WithConnectionTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.connTimeout = d
		}
	}
}

// WithRegistryLogger sets the logger used by the sweeper.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func withRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an agent registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		maxConns:    defaultMaxConnections,
		connTimeout: defaultConnectionTimeout,
		agents:      make(map[string]*AgentRecord),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an agent. The id must be unique and the registry below its
// connection cap.
func (r *Registry) Register(id, name, template string) (AgentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		return AgentRecord{}, errors.New(errors.CodeInvalidInput, "agent id required", nil)
	}
	if len(r.agents) >= r.maxConns {
		return AgentRecord{}, errors.New(errors.CodeCapacity, "maximum connections reached", nil).
			WithContext("max_connections", r.maxConns)
	}
	if _, exists := r.agents[id]; exists {
		return AgentRecord{}, errors.New(errors.CodeInvalidState, "agent already registered", nil).
			WithContext("agent_id", id)
	}

	now := r.now()
	rec := &AgentRecord{
		ID:           id,
		Name:         name,
		Template:     template,
		RegisteredAt: now,
		LastSeen:     now,
		Status:       StatusRegistered,
	}
	r.agents[id] = rec
	return *rec, nil
}

// Connect marks a registered agent as actively connected.
func (r *Registry) Connect(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.agents[id]
	if !ok {
		return errors.New(errors.CodeNotFound, "agent not registered", nil).
			WithContext("agent_id", id)
	}
	rec.Status = StatusActive
	rec.LastSeen = r.now()
	return nil
}

// Touch refreshes an agent's last-seen timestamp.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.agents[id]; ok {
		rec.LastSeen = r.now()
	}
}

// Disconnect marks an agent as disconnected without unregistering it.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.agents[id]; ok {
		rec.Status = StatusDisconnected
	}
}

// Unregister removes an agent entirely.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
}

// Get returns one agent record.
func (r *Registry) Get(id string) (AgentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.agents[id]
	if !ok {
		return AgentRecord{}, errors.New(errors.CodeNotFound, "agent not registered", nil).
			WithContext("agent_id", id)
	}
	return *rec, nil
}

// List returns all agent records.
func (r *Registry) List() []AgentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AgentRecord, 0, len(r.agents))
	for _, rec := range r.agents {
		out = append(out, *rec)
	}
	return out
}

// Count returns how many agents are registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// SweepInactive marks active agents past the connection timeout as
// disconnected. It returns how many were swept.
func (r *Registry) SweepInactive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	swept := 0
	for _, rec := range r.agents {
		if rec.Status == StatusActive && now.Sub(rec.LastSeen) > r.connTimeout {
			rec.Status = StatusDisconnected
			swept++
		}
	}
	return swept
}

// StartSweeper launches the periodic connection sweep. The returned stop
// function cancels the loop and waits for it to exit.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) func() {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		r.logger.Info("platform.registry.sweeper.start",
			slog.Duration("interval", interval),
		)
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("platform.registry.sweeper.stop")
				return
			case <-ticker.C:
				if swept := r.SweepInactive(); swept > 0 {
					r.logger.Info("platform.registry.sweeper.swept",
						slog.Int("connections", swept),
					)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
