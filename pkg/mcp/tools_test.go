package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/verai-labs/verai/pkg/factory"
	"github.com/verai-labs/verai/pkg/platform"
	"github.com/verai-labs/verai/pkg/sandbox"
)

func newTestToolset(t *testing.T) *toolset {
	t.Helper()
	sim := sandbox.NewSimulation()
	ctl, err := sandbox.NewController(sim, sandbox.NewMemorySnapshotStore())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	p, err := platform.New(factory.New(factory.WithEmitter(sim)), ctl)
	if err != nil {
		t.Fatalf("platform.New: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return &toolset{platform: p}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestControlToolStartsSimulation(t *testing.T) {
	ctx := context.Background()
	tools := newTestToolset(t)

	result, err := tools.handleControl(ctx, callRequest(map[string]any{"command": "start"}))
	if err != nil {
		t.Fatalf("handleControl: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	out, ok := result.StructuredContent.(ControlResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if out.State != string(sandbox.StateRunning) {
		t.Errorf("state = %q, want running", out.State)
	}

	result, err = tools.handleControl(ctx, callRequest(map[string]any{"command": "explode"}))
	if err != nil {
		t.Fatalf("handleControl: %v", err)
	}
	if !result.IsError {
		t.Error("unknown command should produce a tool error")
	}
}

func TestSpawnAndListAgents(t *testing.T) {
	ctx := context.Background()
	tools := newTestToolset(t)

	result, err := tools.handleSpawnAgent(ctx, callRequest(map[string]any{
		"template": "warrior",
		"name":     "brakk",
		"y":        0.5,
	}))
	if err != nil {
		t.Fatalf("handleSpawnAgent: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	rec, ok := result.StructuredContent.(platform.AgentRecord)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if rec.Template != "warrior" {
		t.Errorf("template = %q", rec.Template)
	}

	result, err = tools.handleSpawnAgent(ctx, callRequest(map[string]any{"template": "warrior"}))
	if err != nil {
		t.Fatalf("handleSpawnAgent: %v", err)
	}
	if !result.IsError {
		t.Error("missing name should produce a tool error")
	}

	result, err = tools.handleListAgents(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handleListAgents: %v", err)
	}
	list, ok := result.StructuredContent.(AgentList)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if len(list.Agents) != 1 {
		t.Errorf("agents = %d, want 1", len(list.Agents))
	}
}

func TestStepToolAdvancesTime(t *testing.T) {
	ctx := context.Background()
	tools := newTestToolset(t)

	if _, err := tools.handleControl(ctx, callRequest(map[string]any{"command": "start"})); err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := tools.handleStep(ctx, callRequest(map[string]any{"seconds": 2.0}))
	if err != nil {
		t.Fatalf("handleStep: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	out, ok := result.StructuredContent.(StepResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if out.SimulationTime != 2 {
		t.Errorf("simulation time = %v, want 2", out.SimulationTime)
	}
}

func TestCreateSessionTool(t *testing.T) {
	ctx := context.Background()
	tools := newTestToolset(t)

	spawn, err := tools.handleSpawnAgent(ctx, callRequest(map[string]any{
		"template": "merchant",
		"name":     "tam",
	}))
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	rec := spawn.StructuredContent.(platform.AgentRecord)

	result, err := tools.handleCreateSession(ctx, callRequest(map[string]any{
		"agent_id": rec.ID,
	}))
	if err != nil {
		t.Fatalf("handleCreateSession: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result)
	}
	sess, ok := result.StructuredContent.(platform.Session)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if sess.Type != platform.SessionStandard {
		t.Errorf("type = %q, want standard default", sess.Type)
	}

	result, err = tools.handleCreateSession(ctx, callRequest(map[string]any{
		"agent_id": "ghost",
	}))
	if err != nil {
		t.Fatalf("handleCreateSession: %v", err)
	}
	if !result.IsError {
		t.Error("session for unknown agent should produce a tool error")
	}
}

func TestQueryEventsTool(t *testing.T) {
	ctx := context.Background()
	tools := newTestToolset(t)

	if _, err := tools.handleSpawnAgent(ctx, callRequest(map[string]any{
		"template": "warrior",
		"name":     "brakk",
	})); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	result, err := tools.handleQueryEvents(ctx, callRequest(map[string]any{"limit": 10}))
	if err != nil {
		t.Fatalf("handleQueryEvents: %v", err)
	}
	list, ok := result.StructuredContent.(EventList)
	if !ok {
		t.Fatalf("unexpected result type %T", result.StructuredContent)
	}
	if len(list.Events) == 0 {
		t.Fatal("expected at least the spawn event")
	}
	found := false
	for _, e := range list.Events {
		if e.Type == "agent.spawned" {
			found = true
		}
	}
	if !found {
		t.Error("spawn event missing from log")
	}
}

func TestNewRequiresPlatform(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("nil platform should fail")
	}
}
