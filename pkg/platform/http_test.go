package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (*Server, *Platform) {
	t.Helper()
	p := newTestPlatform(t)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return NewServer(p), p
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHTTPStatusEndpoint(t *testing.T) {
	s, p := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.PlatformID != p.ID() || status.State != StateRunning {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestHTTPAgentLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/agents", map[string]any{
		"template": "warrior",
		"name":     "brakk",
		"position": map[string]float64{"y": 0.5},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register code = %d, body %s", rec.Code, rec.Body.String())
	}
	var agent AgentRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if agent.ID == "" || agent.Template != "warrior" {
		t.Errorf("unexpected record: %+v", agent)
	}

	rec = doJSON(t, s, http.MethodGet, "/agents", nil)
	var list []AgentRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("agents = %d, want 1", len(list))
	}

	rec = doJSON(t, s, http.MethodGet, "/agents/"+agent.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get code = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/agents/"+agent.ID+":touch", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("touch code = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/agents/"+agent.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete code = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/agents/"+agent.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete code = %d, want 404", rec.Code)
	}
}

func TestHTTPSessionEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/agents", map[string]any{
		"template": "merchant",
		"name":     "tam",
	})
	var agent AgentRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("decode agent: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/sessions", map[string]any{
		"agent_id": agent.ID,
		"type":     "training",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("session code = %d, body %s", rec.Code, rec.Body.String())
	}
	var sess Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.State != SessionActive {
		t.Errorf("session state = %q", sess.State)
	}

	rec = doJSON(t, s, http.MethodPost, "/sessions/"+sess.ID+":terminate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("terminate code = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/sessions", map[string]any{
		"agent_id": "ghost",
		"type":     "standard",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("ghost session code = %d, want 404", rec.Code)
	}
}

func TestHTTPControlAndErrors(t *testing.T) {
	s, p := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/control", map[string]any{"command": "start"})
	if rec.Code != http.StatusOK {
		t.Fatalf("control code = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := p.Controller().Simulation().State(); got != "running" {
		t.Errorf("simulation state = %q", got)
	}

	rec = doJSON(t, s, http.MethodPost, "/control", map[string]any{"command": "explode"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad command code = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("error content type = %q", ct)
	}

	rec = doJSON(t, s, http.MethodPost, "/control", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body code = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/nonsense", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route code = %d", rec.Code)
	}
}
