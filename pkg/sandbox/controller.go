package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

// Command is a control operation on the simulation.
type Command string

const (
	CommandStart  Command = "start"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandStop   Command = "stop"
	CommandReset  Command = "reset"
	CommandSave   Command = "save"
	CommandLoad   Command = "load"
)

const (
	maxCommandHistory = 1000
	maxSaveStates     = 10
)

// CommandRecord is one logged control operation.
type CommandRecord struct {
	Timestamp time.Time
	Command   Command
	SaveID    string
	Err       string
}

// Controller executes control commands against a simulation and keeps a
// bounded command history and save slots.
type Controller struct {
	mu      sync.Mutex
	sim     *Simulation
	store   SnapshotStore
	history []CommandRecord
}

// NewController wraps a simulation. A nil store disables save and load.
func NewController(sim *Simulation, store SnapshotStore) (*Controller, error) {
	if sim == nil {
		return nil, errors.New(errors.CodeInvalidInput, "simulation required", nil)
	}
	return &Controller{sim: sim, store: store}, nil
}

// Execute runs one control command. For save the returned string is the
// new snapshot id; load takes the snapshot id as argument.
func (c *Controller) Execute(ctx context.Context, cmd Command, arg string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		saveID string
		err    error
	)
	switch cmd {
	case CommandStart:
		err = c.sim.Start()
	case CommandPause:
		err = c.sim.Pause()
	case CommandResume:
		err = c.sim.Resume()
	case CommandStop:
		err = c.sim.Stop()
	case CommandReset:
		c.sim.Reset()
	case CommandSave:
		saveID, err = c.save(ctx)
	case CommandLoad:
		err = c.load(ctx, arg)
	default:
		err = errors.New(errors.CodeInvalidInput, "unknown command", nil).
			WithContext("command", string(cmd))
	}

	record := CommandRecord{
		Timestamp: time.Now(),
		Command:   cmd,
		SaveID:    saveID,
	}
	if err != nil {
		record.Err = err.Error()
	}
	c.history = append(c.history, record)
	if len(c.history) > maxCommandHistory {
		c.history = c.history[len(c.history)-maxCommandHistory:]
	}
	return saveID, err
}

func (c *Controller) save(ctx context.Context) (string, error) {
	if c.store == nil {
		return "", errors.New(errors.CodeInvalidState, "no snapshot store configured", nil)
	}
	id, err := c.store.Save(ctx, c.sim.Snapshot())
	if err != nil {
		return "", err
	}

	// Oldest saves fall off past the slot limit.
	ids, err := c.store.List(ctx)
	if err != nil {
		return id, err
	}
	for len(ids) > maxSaveStates {
		if err := c.store.Delete(ctx, ids[0]); err != nil {
			return id, err
		}
		ids = ids[1:]
	}
	return id, nil
}

func (c *Controller) load(ctx context.Context, id string) error {
	if c.store == nil {
		return errors.New(errors.CodeInvalidState, "no snapshot store configured", nil)
	}
	if id == "" {
		return errors.New(errors.CodeInvalidInput, "snapshot id required", nil)
	}
	if state := c.sim.State(); state == StateRunning {
		return errors.New(errors.CodeInvalidState, "pause or stop before loading", nil).
			WithContext("state", string(state))
	}
	snap, err := c.store.Load(ctx, id)
	if err != nil {
		return err
	}
	c.sim.Restore(snap)
	return nil
}

// History returns the logged commands, oldest first.
func (c *Controller) History() []CommandRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CommandRecord(nil), c.history...)
}

// Simulation exposes the controlled simulation.
func (c *Controller) Simulation() *Simulation { return c.sim }
