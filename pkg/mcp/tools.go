package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/verai-labs/verai/pkg/platform"
	"github.com/verai-labs/verai/pkg/sandbox"
	"github.com/verai-labs/verai/pkg/world"
)

type toolset struct {
	platform *platform.Platform
}

// ControlInput represents the MCP tool input for a sandbox command.
type ControlInput struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

// ControlResult represents the MCP tool output for a sandbox command.
type ControlResult struct {
	State  string `json:"state"`
	SaveID string `json:"save_id,omitempty"`
}

func controlTool() mcp.Tool {
	return mcp.NewTool(
		"sandbox_control",
		mcp.WithDescription("Runs a sandbox command: start, pause, resume, stop, reset, save or load"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Control command to execute"),
		),
		mcp.WithString("arg",
			mcp.Description("Command argument, the snapshot id for load"),
		),
		mcp.WithInputSchema[ControlInput](),
		mcp.WithOutputSchema[ControlResult](),
	)
}

func (t *toolset) handleControl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ControlInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid control arguments", err), nil
	}
	saveID, err := t.platform.Control(ctx, sandbox.Command(input.Command), input.Arg)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("control command failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(ControlResult{
		State:  string(t.platform.Controller().Simulation().State()),
		SaveID: saveID,
	}), nil
}

func statusTool() mcp.Tool {
	return mcp.NewTool(
		"sandbox_status",
		mcp.WithDescription("Reports platform state, agent counts and simulation statistics"),
		mcp.WithOutputSchema[platform.Status](),
	)
}

func (t *toolset) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultStructuredOnly(t.platform.Status()), nil
}

// StepInput represents the MCP tool input for advancing the simulation.
type StepInput struct {
	Seconds float64 `json:"seconds"`
}

// StepResult represents the MCP tool output after advancing the simulation.
type StepResult struct {
	SimulationTime float64 `json:"simulation_time"`
	ActiveAgents   int     `json:"active_agents"`
}

func stepTool() mcp.Tool {
	return mcp.NewTool(
		"sandbox_step",
		mcp.WithDescription("Advances the running simulation by a number of seconds"),
		mcp.WithNumber("seconds",
			mcp.Description("Real seconds to simulate, scaled by the time scale"),
			mcp.DefaultNumber(1),
			mcp.Min(0),
		),
		mcp.WithInputSchema[StepInput](),
		mcp.WithOutputSchema[StepResult](),
	)
}

func (t *toolset) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input StepInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid step arguments", err), nil
	}
	if input.Seconds <= 0 {
		input.Seconds = 1
	}
	sim := t.platform.Controller().Simulation()
	if err := sim.Step(ctx, input.Seconds); err != nil {
		return mcp.NewToolResultErrorFromErr("step failed", err), nil
	}
	stats := sim.Stats()
	return mcp.NewToolResultStructuredOnly(StepResult{
		SimulationTime: stats.SimulationTime,
		ActiveAgents:   stats.ActiveAgents,
	}), nil
}

// SpawnAgentInput represents the MCP tool input for spawning an agent.
type SpawnAgentInput struct {
	Template string  `json:"template"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

func spawnAgentTool() mcp.Tool {
	return mcp.NewTool(
		"spawn_agent",
		mcp.WithDescription("Creates an agent from a template and drops it into the world"),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template name, for example warrior or merchant"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Agent display name"),
		),
		mcp.WithNumber("x", mcp.Description("Spawn position x")),
		mcp.WithNumber("y", mcp.Description("Spawn position y"), mcp.DefaultNumber(0.5)),
		mcp.WithNumber("z", mcp.Description("Spawn position z")),
		mcp.WithInputSchema[SpawnAgentInput](),
		mcp.WithOutputSchema[platform.AgentRecord](),
	)
}

func (t *toolset) handleSpawnAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SpawnAgentInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid spawn arguments", err), nil
	}
	if input.Template == "" || input.Name == "" {
		return mcp.NewToolResultError("template and name are required"), nil
	}
	rec, err := t.platform.RegisterAgent(ctx, input.Template, input.Name,
		world.Vec3{X: input.X, Y: input.Y, Z: input.Z})
	if err != nil {
		return mcp.NewToolResultErrorFromErr("spawn failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(rec), nil
}

// AgentList represents the MCP tool output listing registered agents.
type AgentList struct {
	Agents []platform.AgentRecord `json:"agents"`
}

func listAgentsTool() mcp.Tool {
	return mcp.NewTool(
		"list_agents",
		mcp.WithDescription("Lists registered agents and their connection status"),
		mcp.WithOutputSchema[AgentList](),
	)
}

func (t *toolset) handleListAgents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultStructuredOnly(AgentList{
		Agents: t.platform.Registry().List(),
	}), nil
}

// CreateSessionInput represents the MCP tool input for opening a session.
type CreateSessionInput struct {
	AgentID string `json:"agent_id"`
	Type    string `json:"type"`
}

func createSessionTool() mcp.Tool {
	return mcp.NewTool(
		"create_session",
		mcp.WithDescription("Opens a session for a registered agent"),
		mcp.WithString("agent_id",
			mcp.Required(),
			mcp.Description("Registered agent id"),
		),
		mcp.WithString("type",
			mcp.Description("Session type: standard, training, debugging or evaluation"),
			mcp.DefaultString("standard"),
		),
		mcp.WithInputSchema[CreateSessionInput](),
		mcp.WithOutputSchema[platform.Session](),
	)
}

func (t *toolset) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input CreateSessionInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid session arguments", err), nil
	}
	if input.Type == "" {
		input.Type = string(platform.SessionStandard)
	}
	sess, err := t.platform.CreateSession(ctx, input.AgentID, platform.SessionType(input.Type), nil)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("create session failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(sess), nil
}

// QueryEventsInput represents the MCP tool input for reading world events.
type QueryEventsInput struct {
	Limit int `json:"limit"`
}

// EventRecord is one world event in MCP tool output.
type EventRecord struct {
	Type    string         `json:"type"`
	Actor   string         `json:"actor,omitempty"`
	Target  string         `json:"target,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventList represents the MCP tool output listing recent events.
type EventList struct {
	Events []EventRecord `json:"events"`
}

func queryEventsTool() mcp.Tool {
	return mcp.NewTool(
		"query_events",
		mcp.WithDescription("Returns the most recent world events"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum events to return, 0 for all"),
			mcp.DefaultNumber(50),
			mcp.Min(0),
		),
		mcp.WithInputSchema[QueryEventsInput](),
		mcp.WithOutputSchema[EventList](),
	)
}

func (t *toolset) handleQueryEvents(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input QueryEventsInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid event arguments", err), nil
	}
	events := t.platform.Events(input.Limit)
	out := EventList{Events: make([]EventRecord, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, EventRecord{
			Type:    string(e.Type),
			Actor:   e.Actor,
			Target:  e.Target,
			Payload: e.Payload,
		})
	}
	return mcp.NewToolResultStructuredOnly(out), nil
}
