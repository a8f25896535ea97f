package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"laptudirm.com/x/hyperchess/pkg/internal/util"
)

// Consequence is the service's prediction of what a move does.
type Consequence string

const (
	Capture  Consequence = "Capture"
	NoEffect Consequence = "NoEffect"
	Victory  Consequence = "Victory"
)

// ValidMove is a single legal destination for a piece.
//
// The service may describe a destination either as a bare coordinate list,
// [3, 4], or as an object carrying the move's consequence, {"to": [3, 4],
// "consequence": "NoEffect"}. Both forms decode into a ValidMove.
type ValidMove struct {
	To          Coordinate  `json:"to"`
	Consequence Consequence `json:"consequence,omitempty"`
}

func (move *ValidMove) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		move.Consequence = ""
		return json.Unmarshal(data, &move.To)
	}

	type plain ValidMove
	return json.Unmarshal(data, (*plain)(move))
}

func (move ValidMove) String() string {
	if move.Consequence == "" || move.Consequence == NoEffect {
		return move.To.String()
	}

	return fmt.Sprintf("%s %s", move.To, move.Consequence)
}

// StatusKind is the state of a game's result.
type StatusKind string

const (
	InProgress StatusKind = "InProgress"
	Stalemate  StatusKind = "Stalemate"
	Draw       StatusKind = "Draw"
	Checkmate  StatusKind = "Checkmate"
)

// Status is the result of a game. On the wire it is either a plain string,
// "InProgress", or an object naming the winner, {"Checkmate": "White"}.
// A zero Status means that the service didn't report one.
type Status struct {
	Kind   StatusKind
	Winner Player
}

func (status *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*status = Status{}

	switch {
	case bytes.Equal(data, []byte("null")):
		return nil

	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &status.Kind)

	default:
		var tagged map[StatusKind]Player
		if err := json.Unmarshal(data, &tagged); err != nil {
			return err
		}

		if len(tagged) != 1 {
			return fmt.Errorf("api: status object has %d keys", len(tagged))
		}

		for kind, winner := range tagged {
			status.Kind, status.Winner = kind, winner
		}

		return nil
	}
}

func (status Status) MarshalJSON() ([]byte, error) {
	switch {
	case status.Kind == "":
		return []byte("null"), nil
	case status.Winner != "":
		return json.Marshal(map[StatusKind]Player{status.Kind: status.Winner})
	default:
		return json.Marshal(status.Kind)
	}
}

// Over reports whether the game has finished.
func (status Status) Over() bool {
	return status.Kind != "" && status.Kind != InProgress
}

func (status Status) String() string {
	switch {
	case status.Kind == "":
		return "Unknown"
	case status.Winner != "":
		return fmt.Sprintf("%s (%s wins)", status.Kind, status.Winner)
	default:
		return string(status.Kind)
	}
}

// GameState is the service's view of a game, as returned by both the game
// lookup and the take turn endpoints.
type GameState struct {
	Dimension     int                    `json:"dimension"`
	Side          int                    `json:"side"`
	Pieces        []Piece                `json:"pieces"`
	CurrentPlayer Player                 `json:"current_player"`
	ValidMoves    map[string][]ValidMove `json:"valid_moves"`

	// Reported by the reference service but not required by the driver.
	Status   Status `json:"status"`
	InCheck  bool   `json:"in_check"`
	Sequence int    `json:"sequence"`
}

// PieceAt returns the piece on the given square, if there is one.
func (state *GameState) PieceAt(coord Coordinate) (Piece, bool) {
	for _, piece := range state.Pieces {
		if piece.Coordinate.Equal(coord) {
			return piece, true
		}
	}

	return Piece{}, false
}

// MovesFrom returns the legal destinations of the piece on coord.
func (state *GameState) MovesFrom(coord Coordinate) []ValidMove {
	return state.ValidMoves[coord.String()]
}

// HasMoves reports whether coord is a key of the valid moves map.
func (state *GameState) HasMoves(coord Coordinate) bool {
	_, found := state.ValidMoves[coord.String()]
	return found
}

// Allows reports whether from -> to is one of the listed moves.
func (state *GameState) Allows(from, to Coordinate) bool {
	for _, move := range state.MovesFrom(from) {
		if move.To.Equal(to) {
			return true
		}
	}

	return false
}

// MoveCount returns the number of legal moves, counting every destination.
func (state *GameState) MoveCount() int {
	n := 0
	for _, moves := range state.ValidMoves {
		n += len(moves)
	}

	return n
}

// Sources returns the keys of the valid moves map in natural order.
func (state *GameState) Sources() []string {
	keys := make([]string, 0, len(state.ValidMoves))
	for key := range state.ValidMoves {
		keys = append(keys, key)
	}

	util.SortNatural(keys)
	return keys
}

// FirstMove returns the first legal move in natural key order.
func (state *GameState) FirstMove() (from, to Coordinate, ok bool) {
	for _, key := range state.Sources() {
		moves := state.ValidMoves[key]
		if len(moves) == 0 {
			continue
		}

		coord, err := ParseCoordinate(key)
		if err != nil {
			continue
		}

		return coord, moves[0].To, true
	}

	return nil, nil, false
}

// PieceCount returns the number of pieces owned by owner, or the number of
// all pieces if owner is empty.
func (state *GameState) PieceCount(owner Player) int {
	if owner == "" {
		return len(state.Pieces)
	}

	n := 0
	for _, piece := range state.Pieces {
		if piece.Owner == owner {
			n++
		}
	}

	return n
}

// Validate checks the invariants every state sent by the service must
// hold. All the violations found are joined into the returned error.
func (state *GameState) Validate() error {
	var errs []error
	violation := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf(format, a...))
	}

	if state.Dimension < 1 {
		violation("dimension %d is not positive", state.Dimension)
	}
	if state.Side < 1 {
		violation("side %d is not positive", state.Side)
	}
	if !state.CurrentPlayer.Valid() {
		violation("current player %q is neither White nor Black", state.CurrentPlayer)
	}

	checkCoordinate := func(what string, coord Coordinate) bool {
		switch {
		case len(coord) != state.Dimension:
			violation("%s %s has %d components, want %d", what, coord, len(coord), state.Dimension)
		case !coord.Within(state.Side):
			violation("%s %s is outside [0, %d)", what, coord, state.Side)
		default:
			return true
		}
		return false
	}

	occupied := make(map[string]Piece, len(state.Pieces))
	for _, piece := range state.Pieces {
		if !checkCoordinate("piece", piece.Coordinate) {
			continue
		}

		key := piece.Coordinate.String()
		if other, found := occupied[key]; found {
			violation("square %s holds both a %s and a %s", key, other.Type, piece.Type)
			continue
		}

		occupied[key] = piece
	}

	for key, moves := range state.ValidMoves {
		from, err := ParseCoordinate(key)
		if err != nil {
			violation("valid moves key %q: %v", key, err)
			continue
		}

		if checkCoordinate("move source", from) {
			piece, found := occupied[from.String()]
			switch {
			case !found:
				violation("move source %s is an empty square", key)
			case piece.Owner != state.CurrentPlayer:
				violation("move source %s holds a %s piece on %s's turn", key, piece.Owner, state.CurrentPlayer)
			}
		}

		for _, move := range moves {
			checkCoordinate("move destination", move.To)
		}
	}

	return errors.Join(errs...)
}

// Same reports whether both states describe the same position, ignoring
// the order in which pieces and moves were listed.
func (state *GameState) Same(other *GameState) bool {
	if state.Dimension != other.Dimension ||
		state.Side != other.Side ||
		state.CurrentPlayer != other.CurrentPlayer ||
		state.Status != other.Status ||
		state.Sequence != other.Sequence ||
		len(state.Pieces) != len(other.Pieces) ||
		len(state.ValidMoves) != len(other.ValidMoves) {
		return false
	}

	pieces := func(s *GameState) []string {
		list := make([]string, len(s.Pieces))
		for i, piece := range s.Pieces {
			list[i] = piece.Coordinate.String() + string(piece.Owner) + string(piece.Type)
		}
		sort.Strings(list)
		return list
	}

	a, b := pieces(state), pieces(other)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	for key, moves := range state.ValidMoves {
		otherMoves, found := other.ValidMoves[key]
		if !found || len(moves) != len(otherMoves) {
			return false
		}

		seen := make(map[string]int, len(moves))
		for _, move := range moves {
			seen[move.String()]++
		}
		for _, move := range otherMoves {
			seen[move.String()]--
		}
		for _, n := range seen {
			if n != 0 {
				return false
			}
		}
	}

	return true
}
