package platform

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/verai-labs/verai/pkg/errors"
	"github.com/verai-labs/verai/pkg/sandbox"
	"github.com/verai-labs/verai/pkg/world"
)

// Server exposes an HTTP+JSON binding for the platform.
type Server struct {
	Platform *Platform
}

// NewServer creates a new HTTP+JSON server wrapper.
func NewServer(p *Platform) *Server {
	return &Server{Platform: p}
}

// ServeHTTP routes HTTP+JSON requests to the platform.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Platform == nil {
		writeError(w, errors.New(errors.CodeInvalidState, "platform not configured", nil))
		return
	}
	segments := normalizePath(r.URL.Path)
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}
	switch segments[0] {
	case "status":
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, s.Platform.Status())
	case "events":
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		s.handleEvents(w, r)
	case "agents":
		s.handleAgents(w, r, segments)
	case "sessions":
		s.handleSessions(w, r, segments)
	case "control":
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		s.handleControl(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			limit = value
		}
	}
	writeJSON(w, s.Platform.Events(limit))
}

type registerAgentRequest struct {
	Template string     `json:"template"`
	Name     string     `json:"name"`
	Position world.Vec3 `json:"position"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 1 {
		switch r.Method {
		case http.MethodPost:
			var req registerAgentRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, err)
				return
			}
			rec, err := s.Platform.RegisterAgent(r.Context(), req.Template, req.Name, req.Position)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, rec)
		case http.MethodGet:
			writeJSON(w, s.Platform.Registry().List())
		default:
			http.NotFound(w, r)
		}
		return
	}

	id := segments[1]
	if strings.HasSuffix(id, ":touch") {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		agentID := strings.TrimSuffix(id, ":touch")
		if _, err := s.Platform.Registry().Get(agentID); err != nil {
			writeError(w, err)
			return
		}
		s.Platform.Registry().Touch(agentID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.Platform.Registry().Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rec)
	case http.MethodDelete:
		if err := s.Platform.UnregisterAgent(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

type createSessionRequest struct {
	AgentID string         `json:"agent_id"`
	Type    SessionType    `json:"type"`
	Config  map[string]any `json:"config,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 1 {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req createSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		sess, err := s.Platform.CreateSession(r.Context(), req.AgentID, req.Type, req.Config)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sess)
		return
	}

	id := segments[1]
	if strings.HasSuffix(id, ":terminate") {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		sess, err := s.Platform.TerminateSession(r.Context(), strings.TrimSuffix(id, ":terminate"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sess)
		return
	}

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sess, err := s.Platform.Sessions().Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

type controlRequest struct {
	Command sandbox.Command `json:"command"`
	Arg     string          `json:"arg,omitempty"`
}

type controlResponse struct {
	SaveID string `json:"save_id,omitempty"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	saveID, err := s.Platform.Control(r.Context(), req.Command, req.Arg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, controlResponse{SaveID: saveID})
}

func normalizePath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New(errors.CodeInvalidInput, "invalid body", err)
	}
	if len(body) == 0 {
		return errors.New(errors.CodeInvalidInput, "empty body", nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.New(errors.CodeInvalidInput, "malformed JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	ve := errors.As(err)
	body := map[string]any{
		"type":   "about:blank",
		"title":  string(ve.Code),
		"detail": ve.Message,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(ve.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}
