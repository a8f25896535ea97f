// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package conformance checks that a running game service keeps the
// promises of its HTTP contract.
package conformance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/client"
	"laptudirm.com/x/hyperchess/pkg/driver"
)

// Outcome is the result of a single check.
type Outcome string

const (
	Pass Outcome = "pass"
	Fail Outcome = "fail"
	Skip Outcome = "skip"
)

// Check is a single property of the service.
type Check struct {
	Name        string
	Description string

	// Needs names the check which must pass for this one to run.
	Needs string

	run func(ctx context.Context, s *suite) error
}

// Checks lists every check in the order they are run.
var Checks = []Check{
	{
		Name:        "uuid",
		Description: "/new_game returns a parseable uuid",
		run:         checkUUID,
	},
	{
		Name:        "white-first",
		Description: "White moves first in a new game",
		Needs:       "uuid",
		run:         checkWhiteFirst,
	},
	{
		Name:        "state-invariants",
		Description: "game states keep coordinates, squares and moves consistent",
		Needs:       "uuid",
		run:         checkInvariants,
	},
	{
		Name:        "idempotent-read",
		Description: "reading a game twice returns the same state",
		Needs:       "uuid",
		run:         checkIdempotentRead,
	},
	{
		Name:        "probe-key",
		Description: "(1, 4) is a move source only if it holds a piece of the side on turn",
		Needs:       "white-first",
		run:         checkProbeKey,
	},
	{
		Name:        "move-accepted",
		Description: "(1, 4) -> (3, 4), or the first legal move, passes the turn to Black",
		Needs:       "probe-key",
		run:         checkMoveAccepted,
	},
	{
		Name:        "opponent-reply",
		Description: "the computer replies and the turn returns to White",
		Needs:       "move-accepted",
		run:         checkOpponentReply,
	},
	{
		Name:        "unknown-game",
		Description: "looking up an unknown game fails with 404",
		run:         checkUnknownGame,
	},
	{
		Name:        "invalid-mode",
		Description: "/new_game rejects an unknown mode with a 4xx",
		run:         checkInvalidMode,
	},
	{
		Name:        "illegal-move",
		Description: "a move from a square which isn't a move source is rejected with a 4xx",
		Needs:       "uuid",
		run:         checkIllegalMove,
	},
}

// suite is the state shared by the checks of a single run.
type suite struct {
	client *client.Client
	config Config

	id      string
	initial *api.GameState
	moved   *api.GameState
}

func (s *suite) newGame(ctx context.Context, mode api.Mode) (string, error) {
	return s.client.NewGame(ctx, api.NewGameRequest{
		Mode:      mode,
		Dimension: s.config.Dimension,
		Side:      s.config.Side,
	})
}

func (s *suite) validate(what string, state *api.GameState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%s state: %w", what, err)
	}

	return nil
}

func checkUUID(ctx context.Context, s *suite) error {
	id, err := s.newGame(ctx, api.HumanVsComputer)
	if err != nil {
		return err
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("game id %q: %w", id, err)
	}

	s.id = id
	return nil
}

func checkWhiteFirst(ctx context.Context, s *suite) error {
	state, err := s.client.Game(ctx, s.id)
	if err != nil {
		return err
	}

	s.initial = state
	if state.CurrentPlayer != api.White {
		return fmt.Errorf("current player is %q", state.CurrentPlayer)
	}

	return nil
}

func checkInvariants(ctx context.Context, s *suite) error {
	state := s.initial
	if state == nil {
		var err error
		if state, err = s.client.Game(ctx, s.id); err != nil {
			return err
		}
	}

	if state.Dimension != s.config.Dimension || state.Side != s.config.Side {
		return fmt.Errorf("asked for a %dD board of side %d, got %dD of side %d",
			s.config.Dimension, s.config.Side, state.Dimension, state.Side)
	}

	return s.validate("initial", state)
}

func checkIdempotentRead(ctx context.Context, s *suite) error {
	first, err := s.client.Game(ctx, s.id)
	if err != nil {
		return err
	}

	second, err := s.client.Game(ctx, s.id)
	if err != nil {
		return err
	}

	if !first.Same(second) {
		return errors.New("two reads without a move differ")
	}

	return nil
}

// checkProbeKey only checks that a move source holds a piece of the side
// on turn. Whether the piece has moves is for the service to decide, so a
// blocked piece missing from valid_moves is fine.
func checkProbeKey(_ context.Context, s *suite) error {
	state := s.initial
	probe := s.config.probe()

	if !state.HasMoves(probe) {
		return nil
	}

	piece, occupied := state.PieceAt(probe)
	switch {
	case !occupied:
		return fmt.Errorf("%s is a valid_moves key but holds no piece", probe)
	case piece.Owner != state.CurrentPlayer:
		return fmt.Errorf("%s is a valid_moves key but holds a %s piece with %s to move",
			probe, piece.Owner, state.CurrentPlayer)
	case len(state.MovesFrom(probe)) == 0:
		return fmt.Errorf("%s is a valid_moves key without destinations", probe)
	}

	return nil
}

func checkMoveAccepted(ctx context.Context, s *suite) error {
	from, to, found := s.initial.FirstMove()
	if !found {
		return skip("White has no moves")
	}

	if dfrom, dto := driver.DefaultMove(api.White, s.config.Dimension, s.config.Side); s.initial.Allows(dfrom, dto) {
		from, to = dfrom, dto
	}

	state, err := s.client.TakeTurn(ctx, api.TurnRequest{UUID: s.id, Start: from, End: to})
	if err != nil {
		return err
	}

	s.moved = state
	if state.CurrentPlayer != api.Black {
		return fmt.Errorf("current player is %q after White's move", state.CurrentPlayer)
	}

	if _, found := state.PieceAt(to); !found {
		return fmt.Errorf("no piece on %s after moving there", to)
	}

	return s.validate("post-move", state)
}

func checkOpponentReply(ctx context.Context, s *suite) error {
	state, err := s.client.AwaitTurn(ctx, s.id, s.moved, api.Black, client.WaitOptions{
		Interval: s.config.PollInterval,
		Timeout:  s.config.Timeout,
	})
	if err != nil {
		return err
	}

	if state.CurrentPlayer != api.White {
		return fmt.Errorf("current player is %q after Black's move", state.CurrentPlayer)
	}

	if before, after := s.moved.PieceCount(""), state.PieceCount(""); before != after {
		return fmt.Errorf("piece count went from %d to %d", before, after)
	}

	return s.validate("post-reply", state)
}

func checkUnknownGame(ctx context.Context, s *suite) error {
	_, err := s.client.Game(ctx, uuid.NewString())
	switch {
	case err == nil:
		return errors.New("an unknown game was found")
	case client.IsStatus(err, 404):
		return nil
	default:
		return fmt.Errorf("want a 404: %w", err)
	}
}

func checkInvalidMode(ctx context.Context, s *suite) error {
	_, err := s.newGame(ctx, "xx")
	switch {
	case err == nil:
		return errors.New("a game with mode \"xx\" was created")
	case client.IsClientError(err):
		return nil
	default:
		return fmt.Errorf("want a 4xx: %w", err)
	}
}

func checkIllegalMove(ctx context.Context, s *suite) error {
	id, err := s.newGame(ctx, api.HumanVsHuman)
	if err != nil {
		return err
	}

	state, err := s.client.Game(ctx, id)
	if err != nil {
		return err
	}

	from, found := unmovableSquare(state)
	if !found {
		return errors.New("found no square which isn't a move source")
	}

	to := append(api.Coordinate(nil), from...)
	to[0] = (to[0] + 1) % state.Side

	_, err = s.client.TakeTurn(ctx, api.TurnRequest{UUID: id, Start: from, End: to})
	switch {
	case err == nil:
		return fmt.Errorf("move %s -> %s was accepted", from, to)
	case client.IsClientError(err):
		return nil
	default:
		return fmt.Errorf("want a 4xx: %w", err)
	}
}

// unmovableSquare finds a square which isn't a move source: preferably an
// empty one on the middle file, otherwise any piece that can't move, like
// an opponent's piece or a blocked one.
func unmovableSquare(state *api.GameState) (api.Coordinate, bool) {
	if state.Dimension < 1 || state.Side < 1 {
		return nil, false
	}

	coord := make(api.Coordinate, state.Dimension)
	if len(coord) > 1 {
		coord[1] = state.Side / 2
	}

	for rank := state.Side / 2; rank < state.Side+state.Side/2; rank++ {
		coord[0] = rank % state.Side
		if _, occupied := state.PieceAt(coord); !occupied && !state.HasMoves(coord) {
			return coord, true
		}
	}

	for _, piece := range state.Pieces {
		if len(piece.Coordinate) == state.Dimension && piece.Coordinate.Within(state.Side) && !state.HasMoves(piece.Coordinate) {
			return append(api.Coordinate(nil), piece.Coordinate...), true
		}
	}

	return nil, false
}

// skipped is returned by a check which can't be run against the game it
// was given.
type skipped struct {
	reason string
}

func (err *skipped) Error() string {
	return err.reason
}

func skip(reason string) error {
	return &skipped{reason: reason}
}

// Config configures a verification run.
type Config struct {
	Dimension int
	Side      int

	PollInterval time.Duration
	Timeout      time.Duration
}

func (config Config) probe() api.Coordinate {
	from, _ := driver.DefaultMove(api.White, config.Dimension, config.Side)
	return from
}
