// Package debugsrv implements the core-side half of the debug-UI
// contract spec §6 draws around the TUI/breakpoint-UI collaborator:
// "Debug UIs consume peek plus breakpoint predicates (user-provided
// callbacks of the form state → bool)". It never implements a UI
// itself, only an HTTP surface a UI can poll.
package debugsrv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/sarchlab/rhdl/rtlerr"
	"github.com/sarchlab/rhdl/signal"
)

// Machine is the minimal simulator surface debugsrv needs: named
// peek/poke, exactly gatesim.Simulator's own Peek/Poke signatures
// (spec §6: "back-ends must accept the same name strings").
type Machine interface {
	Peek(name string) (any, error)
	Poke(name string, value any) error
}

// BreakpointFunc is a user-provided predicate over the current named
// state (spec §6's "callbacks of the form state → bool").
type BreakpointFunc func(state map[string]uint64) bool

// Server exposes a Machine's peek/poke surface plus registered
// breakpoint predicates over HTTP.
type Server struct {
	router      *mux.Router
	machine     Machine
	snapshot    func() map[string]uint64
	mu          sync.RWMutex
	breakpoints map[string]BreakpointFunc
}

// New builds a Server over machine. snapshot produces the full named
// state breakpoint predicates are evaluated against; callers typically
// pass component.Component.Snapshot or an equivalent gate-level
// collector.
func New(machine Machine, snapshot func() map[string]uint64) *Server {
	s := &Server{
		machine:     machine,
		snapshot:    snapshot,
		breakpoints: make(map[string]BreakpointFunc),
	}
	s.router = mux.NewRouter()
	s.router.HandleFunc("/peek/{name}", s.handlePeek).Methods(http.MethodGet)
	s.router.HandleFunc("/poke/{name}", s.handlePoke).Methods(http.MethodPost)
	s.router.HandleFunc("/breakpoints", s.handleBreakpoints).Methods(http.MethodGet)
	return s
}

// Handler returns the server's http.Handler, for http.ListenAndServe
// or httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

// RegisterBreakpoint adds a named predicate to be reported by
// GET /breakpoints. Registering under an existing name replaces it.
func (s *Server) RegisterBreakpoint(name string, fn BreakpointFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoints[name] = fn
}

type peekResponse struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	v, err := s.machine.Peek(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, peekResponse{Name: name, Value: v})
}

type pokeRequest struct {
	Value uint64   `json:"value"`
	Lanes []uint64 `json:"lanes,omitempty"`
}

func (s *Server) handlePoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req pokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("debugsrv: decode poke body: %w", err))
		return
	}

	var value any = req.Value
	if len(req.Lanes) > 0 {
		value = req.Lanes
	}
	if err := s.machine.Poke(name, value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBreakpoints(w http.ResponseWriter, r *http.Request) {
	state := s.snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	triggered := make([]string, 0, len(s.breakpoints))
	for name, fn := range s.breakpoints {
		if fn(state) {
			triggered = append(triggered, name)
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Triggered []string `json:"triggered"`
	}{triggered})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, rtlerr.ErrUnknownPort) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{err.Error()})
}

// ComponentMachine adapts a live behavioral component (any type
// exposing named ports the way component.Component does) to Machine,
// so a debugsrv.Server can front the behavioral simulator as well as
// gatesim.
type ComponentMachine struct {
	Ports func(name string) *signal.Port
}

func (m ComponentMachine) Peek(name string) (any, error) {
	p := m.Ports(name)
	if p == nil {
		return nil, &rtlerr.UnknownPort{Path: name}
	}
	return p.Read(), nil
}

func (m ComponentMachine) Poke(name string, value any) error {
	p := m.Ports(name)
	if p == nil {
		return &rtlerr.UnknownPort{Path: name}
	}
	v, ok := value.(uint64)
	if !ok {
		return fmt.Errorf("debugsrv: poke %q: expected uint64, got %T", name, value)
	}
	return p.SetOverride(v)
}
