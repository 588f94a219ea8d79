package platform

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/factory"
	"github.com/verai-labs/verai/pkg/sandbox"
	"github.com/verai-labs/verai/pkg/world"
)

// State is the platform's lifecycle state.
type State string

const (
	StateStarting     State = "starting"
	StateRunning      State = "running"
	StateMaintenance  State = "maintenance"
	StateShuttingDown State = "shutting_down"
	StateError        State = "error"
)

// Status summarizes the platform for operators and API clients.
type Status struct {
	PlatformID     string        `json:"platform_id"`
	State          State         `json:"state"`
	Uptime         time.Duration `json:"uptime"`
	Agents         int           `json:"agents"`
	ActiveSessions int           `json:"active_sessions"`
	Simulation     sandbox.State `json:"simulation"`
	SimStats       sandbox.Stats `json:"sim_stats"`
}

// Platform ties the agent registry, session manager, factory and sandbox
// controller into one service surface.
type Platform struct {
	mu        sync.Mutex
	id        string
	state     State
	startTime time.Time

	registry *Registry
	sessions *SessionManager
	factory  *factory.Factory
	ctl      *sandbox.Controller
	store    *Store
	logger   *slog.Logger

	sweepInterval time.Duration
	stopSweep     func()
}

// Option configures a Platform.
type Option func(*Platform)

// WithStore enables SQLite persistence of agents and sessions.
func WithStore(store *Store) Option {
	return func(p *Platform) { p.store = store }
}

// WithLogger sets the platform logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Platform) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRegistry replaces the default agent registry.
func WithRegistry(r *Registry) Option {
	return func(p *Platform) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithSessionLimit caps concurrent sessions per agent.
func WithSessionLimit(maxPerAgent int) Option {
	return func(p *Platform) { p.sessions = NewSessionManager(maxPerAgent) }
}

// WithSweepInterval sets how often the connection sweeper runs.
func WithSweepInterval(d time.Duration) Option {
	return func(p *Platform) {
		if d > 0 {
			p.sweepInterval = d
		}
	}
}

// New creates a platform over a factory and a sandbox controller.
func New(f *factory.Factory, ctl *sandbox.Controller, opts ...Option) (*Platform, error) {
	if f == nil {
		return nil, errors.New(errors.CodeInvalidInput, "factory required", nil)
	}
	if ctl == nil {
		return nil, errors.New(errors.CodeInvalidInput, "sandbox controller required", nil)
	}
	p := &Platform{
		id:            uuid.NewString(),
		state:         StateStarting,
		registry:      NewRegistry(),
		sessions:      NewSessionManager(0),
		factory:       f,
		ctl:           ctl,
		logger:        slog.Default(),
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ID returns the platform instance id.
func (p *Platform) ID() string { return p.id }

// Registry exposes the agent registry.
func (p *Platform) Registry() *Registry { return p.registry }

// Sessions exposes the session manager.
func (p *Platform) Sessions() *SessionManager { return p.sessions }

// Controller exposes the sandbox controller.
func (p *Platform) Controller() *sandbox.Controller { return p.ctl }

// Start brings the platform up. Persisted agent registrations are reloaded
// as disconnected and the connection sweeper is launched.
func (p *Platform) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateStarting {
		return errors.New(errors.CodeInvalidState, "platform already started", nil).
			WithContext("state", string(p.state))
	}

	if p.store != nil {
		records, err := p.store.Agents(ctx)
		if err != nil {
			p.state = StateError
			return err
		}
		for _, rec := range records {
			if _, err := p.registry.Register(rec.ID, rec.Name, rec.Template); err != nil {
				p.logger.Warn("platform.restore.agent_skipped",
					slog.String("agent_id", rec.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			p.registry.Disconnect(rec.ID)
		}
	}

	p.stopSweep = p.registry.StartSweeper(ctx, p.sweepInterval)
	p.startTime = time.Now()
	p.state = StateRunning
	p.logger.Info("platform.start",
		slog.String("platform_id", p.id),
		slog.Int("restored_agents", p.registry.Count()),
	)
	return nil
}

// Shutdown stops the sweeper and the simulation.
func (p *Platform) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateShuttingDown {
		return nil
	}
	p.state = StateShuttingDown
	if p.stopSweep != nil {
		p.stopSweep()
		p.stopSweep = nil
	}
	if p.ctl.Simulation().State() == sandbox.StateRunning {
		if _, err := p.ctl.Execute(ctx, sandbox.CommandStop, ""); err != nil {
			return err
		}
	}
	p.logger.Info("platform.shutdown", slog.String("platform_id", p.id))
	return nil
}

// State returns the platform lifecycle state.
func (p *Platform) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Platform) requireRunning() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return errors.New(errors.CodeInvalidState, "platform not running", nil).
			WithContext("state", string(p.state))
	}
	return nil
}

// RegisterAgent creates an agent from a template, drops it into the world
// at the given position and registers it on the platform.
func (p *Platform) RegisterAgent(ctx context.Context, template, name string, position world.Vec3) (AgentRecord, error) {
	if err := p.requireRunning(); err != nil {
		return AgentRecord{}, err
	}

	a, err := p.ctl.Simulation().Spawn(ctx, p.factory, template, name, position)
	if err != nil {
		return AgentRecord{}, err
	}

	rec, err := p.registry.Register(a.ID(), name, template)
	if err != nil {
		p.ctl.Simulation().RemoveAgent(a.ID())
		return AgentRecord{}, err
	}

	if p.store != nil {
		if err := p.store.SaveAgent(ctx, rec); err != nil {
			p.logger.Warn("platform.agent.persist_failed",
				slog.String("agent_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.Info("platform.agent.registered",
		slog.String("agent_id", rec.ID),
		slog.String("template", template),
	)
	return rec, nil
}

// UnregisterAgent removes an agent from the world and the registry.
func (p *Platform) UnregisterAgent(ctx context.Context, agentID string) error {
	if _, err := p.registry.Get(agentID); err != nil {
		return err
	}
	p.ctl.Simulation().RemoveAgent(agentID)
	p.registry.Unregister(agentID)
	if p.store != nil {
		if err := p.store.DeleteAgent(ctx, agentID); err != nil {
			return err
		}
	}
	return nil
}

// CreateSession opens a session for a registered agent and marks the agent
// connected.
func (p *Platform) CreateSession(ctx context.Context, agentID string, sessionType SessionType, config map[string]any) (Session, error) {
	if err := p.requireRunning(); err != nil {
		return Session{}, err
	}
	if _, err := p.registry.Get(agentID); err != nil {
		return Session{}, err
	}

	sess, err := p.sessions.Create(agentID, sessionType, config)
	if err != nil {
		return Session{}, err
	}
	if err := p.sessions.Activate(sess.ID); err != nil {
		return Session{}, err
	}
	sess.State = SessionActive

	if err := p.registry.Connect(agentID); err != nil {
		return Session{}, err
	}

	if p.store != nil {
		if err := p.store.SaveSession(ctx, sess); err != nil {
			p.logger.Warn("platform.session.persist_failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return sess, nil
}

// TerminateSession ends a session. The agent is disconnected when it has
// no other live sessions.
func (p *Platform) TerminateSession(ctx context.Context, sessionID string) (Session, error) {
	sess, err := p.sessions.Terminate(sessionID)
	if err != nil {
		return Session{}, err
	}

	live := 0
	for _, s := range p.sessions.ForAgent(sess.AgentID) {
		if s.State != SessionEnded {
			live++
		}
	}
	if live == 0 {
		p.registry.Disconnect(sess.AgentID)
	}

	if p.store != nil {
		if err := p.store.SaveSession(ctx, sess); err != nil {
			p.logger.Warn("platform.session.persist_failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return sess, nil
}

// Control forwards a command to the sandbox controller.
func (p *Platform) Control(ctx context.Context, cmd sandbox.Command, arg string) (string, error) {
	if err := p.requireRunning(); err != nil {
		return "", err
	}
	return p.ctl.Execute(ctx, cmd, arg)
}

// Events returns the most recent simulation events.
func (p *Platform) Events(limit int) []core.Event {
	return p.ctl.Simulation().Events(limit)
}

// Status reports the platform and simulation state.
func (p *Platform) Status() Status {
	p.mu.Lock()
	state := p.state
	start := p.startTime
	p.mu.Unlock()

	var uptime time.Duration
	if !start.IsZero() {
		uptime = time.Since(start)
	}
	sim := p.ctl.Simulation()
	return Status{
		PlatformID:     p.id,
		State:          state,
		Uptime:         uptime,
		Agents:         p.registry.Count(),
		ActiveSessions: p.sessions.ActiveCount(),
		Simulation:     sim.State(),
		SimStats:       sim.Stats(),
	}
}
