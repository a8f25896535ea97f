// Package servicetest runs an in-process HyperChess service for tests.
//
// The service speaks the same HTTP contract as the real one but knows no
// chess: the only legal moves are pawn pushes along axis 0, and its
// computer player always makes the first legal move in natural key order.
// That is enough to drive a complete session deterministically.
package servicetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"laptudirm.com/x/hyperchess/pkg/api"
)

// Fault makes the service break one part of the contract, so that the
// contract checks have something to catch.
type Fault int

const (
	NoFault Fault = iota

	// StuckTurn accepts moves without handing the turn to the opponent.
	StuckTurn

	// AcceptIllegal answers every move request with 200, legal or not.
	AcceptIllegal

	// UnstableReads bumps the sequence number on every game lookup.
	UnstableReads
)

// Option configures a Service.
type Option func(*Service)

// WithPrefix mounts the routes below prefix, like the real service's
// /api/v1.
func WithPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = prefix }
}

// WithBotDelay sets how long the computer thinks before moving.
func WithBotDelay(delay time.Duration) Option {
	return func(s *Service) { s.botDelay = delay }
}

// WithStalledBot stops the computer from ever moving.
func WithStalledBot() Option {
	return func(s *Service) { s.stalled = true }
}

// WithListMoves sends destinations as bare coordinate lists instead of
// {to, consequence} objects.
func WithListMoves() Option {
	return func(s *Service) { s.listMoves = true }
}

// WithFault injects a contract violation.
func WithFault(fault Fault) Option {
	return func(s *Service) { s.fault = fault }
}

// Service is a running fake service.
type Service struct {
	server *httptest.Server

	prefix    string
	botDelay  time.Duration
	stalled   bool
	listMoves bool
	fault     Fault

	requests atomic.Int64

	mu     sync.Mutex
	games  map[string]*game
	timers []*time.Timer
	closed bool
}

// Start starts a Service and registers its shutdown with t.Cleanup.
func Start(t testing.TB, opts ...Option) *Service {
	t.Helper()

	s := &Service{
		botDelay: 10 * time.Millisecond,
		games:    make(map[string]*game),
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.prefix+"/new_game", s.newGame)
	mux.HandleFunc("GET "+s.prefix+"/game/{uuid}", s.getGame)
	mux.HandleFunc("POST "+s.prefix+"/take_turn", s.takeTurn)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))

	t.Cleanup(s.Close)
	return s
}

// URL returns the service's base URL, without the prefix.
func (s *Service) URL() string {
	return s.server.URL
}

// Requests returns the number of requests served so far.
func (s *Service) Requests() int {
	return int(s.requests.Load())
}

// Games returns the number of games created so far.
func (s *Service) Games() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// State returns a copy of a game's current state.
func (s *Service) State(id string) (*api.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, found := s.games[id]
	if !found {
		return nil, false
	}

	return g.state(), true
}

// Close stops the computer players and shuts the server down.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, timer := range s.timers {
		timer.Stop()
	}
	s.mu.Unlock()

	s.server.Close()
}

func (s *Service) newGame(w http.ResponseWriter, r *http.Request) {
	var request api.NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	mode, err := api.ParseMode(string(request.Mode))
	if err != nil {
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}

	dimension, side := request.Dimension, request.Side
	if dimension == 0 {
		dimension = 2
	}
	if side == 0 {
		side = 8
	}

	if dimension < 2 || side < 4 {
		http.Error(w, "Invalid board", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	g := newGame(mode, dimension, side)

	s.mu.Lock()
	s.games[id] = g
	s.scheduleBot(g)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, api.NewGameResponse{UUID: id})
}

func (s *Service) getGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g, found := s.games[r.PathValue("uuid")]
	if !found {
		s.mu.Unlock()
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	if s.fault == UnstableReads {
		g.sequence++
	}

	state := g.state()
	s.mu.Unlock()

	s.writeState(w, state)
}

func (s *Service) takeTurn(w http.ResponseWriter, r *http.Request) {
	var request api.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, found := s.games[request.UUID]
	if !found {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	if g.mode.Computer(g.turn) {
		http.Error(w, "Not human turn", http.StatusForbidden)
		return
	}

	if !g.legal(request.Start, request.End) {
		if s.fault != AcceptIllegal {
			http.Error(w, "Invalid move", http.StatusBadRequest)
			return
		}
	} else {
		g.play(request.Start, request.End, s.fault != StuckTurn)
	}

	s.scheduleBot(g)
	s.writeState(w, g.state())
}

// scheduleBot arranges for the computer to move if it is on turn. The
// caller must hold s.mu.
func (s *Service) scheduleBot(g *game) {
	if s.stalled || s.closed || !g.mode.Computer(g.turn) || g.status.Over() {
		return
	}

	s.timers = append(s.timers, time.AfterFunc(s.botDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || !g.mode.Computer(g.turn) || g.status.Over() {
			return
		}

		from, to, ok := g.state().FirstMove()
		if !ok {
			return
		}

		g.play(from, to, true)
		s.scheduleBot(g)
	}))
}

func (s *Service) writeState(w http.ResponseWriter, state *api.GameState) {
	if !s.listMoves {
		writeJSON(w, http.StatusOK, state)
		return
	}

	// The older wire format lists destinations as bare coordinates.
	moves := make(map[string][]api.Coordinate, len(state.ValidMoves))
	for key, list := range state.ValidMoves {
		for _, move := range list {
			moves[key] = append(moves[key], move.To)
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Dimension     int                         `json:"dimension"`
		Side          int                         `json:"side"`
		Pieces        []api.Piece                 `json:"pieces"`
		CurrentPlayer api.Player                  `json:"current_player"`
		ValidMoves    map[string][]api.Coordinate `json:"valid_moves"`
	}{state.Dimension, state.Side, state.Pieces, state.CurrentPlayer, moves})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
