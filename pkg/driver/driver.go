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

// Package driver plays a short scripted session against a game service:
// it creates a game, inspects it, makes one move and waits for the
// computer's reply, printing every step along the way.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/client"
	"laptudirm.com/x/hyperchess/pkg/display"
	"laptudirm.com/x/hyperchess/pkg/history"
)

// Recorder stores the progress of a session. *history.Store is one.
type Recorder interface {
	Record(ctx context.Context, session history.Session) error
	Update(ctx context.Context, session history.Session) error
}

// Config describes the session to play.
type Config struct {
	Mode      api.Mode
	Dimension int
	Side      int

	// Probe is the square whose moves are listed in step 3.
	Probe api.Coordinate

	// From and To are the move made in step 4. If they are not set, the
	// king's pawn push of the side on turn is used, or the first legal
	// move if that push isn't legal.
	From, To api.Coordinate

	PollInterval time.Duration
	Timeout      time.Duration

	// Server is the service address stored with the session.
	Server string

	Display display.Options
}

// DefaultConfig returns the session of the reference driver: a 2-d 8x8
// game against the computer with White playing e2-e4.
func DefaultConfig() Config {
	return Config{
		Mode:         api.HumanVsComputer,
		Dimension:    2,
		Side:         8,
		Probe:        api.Coordinate{1, 4},
		PollInterval: client.DefaultPollInterval,
		Timeout:      client.DefaultWaitTimeout,
	}
}

// DefaultMove returns the king's pawn double push of the given side, the
// move e2-e4 on a standard board. Axes past the second are 0.
func DefaultMove(player api.Player, dimension, side int) (from, to api.Coordinate) {
	from = make(api.Coordinate, max(dimension, 2))
	to = make(api.Coordinate, max(dimension, 2))

	from[1], to[1] = side/2, side/2
	if player == api.Black {
		from[0], to[0] = side-2, side-4
	} else {
		from[0], to[0] = 1, 3
	}

	return from, to
}

// Result is the outcome of a session.
type Result struct {
	UUID  string
	State *api.GameState

	// Plies is the number of moves the driver submitted.
	Plies int

	// Aborted is set when the side on turn wasn't the expected human side.
	Aborted bool

	// TimedOut is set when the computer didn't move in time.
	TimedOut bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithRecorder records the session as it progresses.
func WithRecorder(recorder Recorder) Option {
	return func(d *Driver) { d.recorder = recorder }
}

// WithSpinner shows a spinner instead of dots while waiting, if the output
// is a terminal.
func WithSpinner() Option {
	return func(d *Driver) { d.spin = true }
}

// WithColor highlights step headers and warnings.
func WithColor() Option {
	return func(d *Driver) { d.color = true }
}

// Driver plays scripted sessions.
type Driver struct {
	client *client.Client
	out    io.Writer
	config Config

	recorder Recorder
	spin     bool
	color    bool

	session history.Session
}

// New creates a Driver printing to out.
func New(c *client.Client, out io.Writer, config Config, opts ...Option) *Driver {
	d := &Driver{client: c, out: out, config: config}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	warningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

func (d *Driver) printf(painter *color.Color, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if d.color && painter != nil {
		// Paint each line separately so that leading blank lines stay plain.
		lines := strings.Split(msg, "\n")
		for i, line := range lines {
			if line != "" {
				lines[i] = painter.Sprint(line)
			}
		}
		msg = strings.Join(lines, "\n")
	}

	_, _ = io.WriteString(d.out, msg)
}

func (d *Driver) board(state *api.GameState) error {
	opts := d.config.Display
	opts.Color = opts.Color || d.color
	return display.Render(d.out, state, opts)
}

func (d *Driver) player(state *api.GameState) {
	d.printf(nil, "Current Player: %s\n", state.CurrentPlayer)
}

func describe(mode api.Mode) string {
	name := func(player api.Player) string {
		if mode.Computer(player) {
			return "Computer"
		}
		return "Human"
	}

	return name(api.White) + " vs " + name(api.Black)
}

func shape(dimension, side int) string {
	sides := make([]string, max(dimension, 1))
	for i := range sides {
		sides[i] = fmt.Sprint(side)
	}

	return strings.Join(sides, "x")
}

func (d *Driver) move(from, to api.Coordinate, side int) string {
	fromName, ok1 := display.Algebraic(from, side)
	toName, ok2 := display.Algebraic(to, side)
	if ok1 && ok2 {
		return fmt.Sprintf("%s -> %s (%s -> %s)", fromName, toName, from, to)
	}

	return fmt.Sprintf("%s -> %s", from, to)
}

// Run plays one session. Request failures end the session with an error;
// a computer that doesn't move in time only produces a warning.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	config := d.config
	if config.Mode == "" {
		config.Mode = api.HumanVsComputer
	}
	if len(config.Probe) == 0 {
		config.Probe = api.Coordinate{1, 4}
	}

	d.printf(headerColor, "--- HyperChess API Driver ---\n")

	// 1. Create a new game.
	d.printf(headerColor, "\n1. Creating New Game (%s, %dD, %s)...\n", describe(config.Mode), config.Dimension, shape(config.Dimension, config.Side))
	id, err := d.client.NewGame(ctx, api.NewGameRequest{
		Mode:      config.Mode,
		Dimension: config.Dimension,
		Side:      config.Side,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{UUID: id}
	d.printf(nil, "Game Created! UUID: %s\n", id)
	d.record(ctx, config, id)

	// 2. Fetch the initial state.
	d.printf(headerColor, "\n2. Fetching Initial State...\n")
	state, err := d.client.Game(ctx, id)
	if err != nil {
		return result, err
	}

	result.State = state
	d.player(state)
	if err := d.board(state); err != nil {
		return result, err
	}

	if config.Mode == api.ComputerVsHuman {
		d.printf(headerColor, "\nWaiting for Computer (%s) to open...\n", api.White)
		if state, err = d.await(ctx, result, state, api.White); err != nil {
			return result, err
		}
	}

	// 3. Look at the legal moves.
	d.printf(headerColor, "\n3. Checking Valid Moves (Total: %d)\n", len(state.ValidMoves))
	if err := display.RenderMoves(d.out, state, config.Probe); err != nil {
		return result, err
	}

	// 4. Make a move.
	if humans := config.Mode.Human(); len(humans) == 0 {
		d.printf(headerColor, "\n4. Player Move: skipped, both sides are computers.\n")
	} else {
		expected := humans[0]
		if state.CurrentPlayer != expected {
			d.printf(warningColor, "Expected %s to start. Exiting.\n", expected)
			result.Aborted = true
			d.update(ctx, result, "expected "+string(expected)+" to start")
			return result, nil
		}

		from, to, err := d.pick(state, config)
		if err != nil {
			return result, err
		}

		d.printf(headerColor, "\n4. Player Move: %s...\n", d.move(from, to, state.Side))
		state, err = d.client.TakeTurn(ctx, api.TurnRequest{UUID: id, Start: from, End: to})
		if err != nil {
			return result, err
		}

		result.State = state
		result.Plies++
		d.printf(successColor, "Move Accepted!\n")
		if err := d.board(state); err != nil {
			return result, err
		}

		d.player(state)
		d.update(ctx, result, "")
	}

	// 5. Wait for the computer's reply.
	if config.Mode == api.HumanVsHuman {
		d.printf(headerColor, "\n5. Waiting for Computer: skipped, both sides are human.\n")
	} else if !state.Status.Over() {
		waitingOn := state.CurrentPlayer
		if !config.Mode.Computer(waitingOn) {
			waitingOn = waitingOn.Opponent()
		}

		d.printf(headerColor, "\n5. Waiting for Computer (%s) to move...\n", waitingOn)
		if state, err = d.await(ctx, result, state, waitingOn); err != nil {
			return result, err
		}
	}

	if state.Status.Over() {
		d.printf(nil, "Game Over: %s\n", state.Status)
	}

	d.printf(successColor, "\nTest Complete.\n")
	d.update(ctx, result, "")
	return result, nil
}

// await waits for the computer to finish its turn, printing the board
// once it has or once the wait timed out.
func (d *Driver) await(ctx context.Context, result *Result, state *api.GameState, waitingOn api.Player) (*api.GameState, error) {
	waiting := d.indicator(waitingOn)
	waiting.start()

	after, err := d.client.AwaitTurn(ctx, result.UUID, state, waitingOn, client.WaitOptions{
		Interval: d.config.PollInterval,
		Timeout:  d.config.Timeout,
		OnPoll:   func(*api.GameState) { waiting.tick() },
	})

	waiting.stop()

	switch {
	case errors.Is(err, client.ErrWaitTimeout):
		logrus.Debugf("game %s: %s still on turn after %s", result.UUID, waitingOn, d.config.Timeout)
		d.printf(warningColor, "\nTimeout waiting for bot!\n")
		result.TimedOut = true
		d.update(ctx, result, "timeout waiting for "+string(waitingOn))
	case err != nil:
		return state, err
	}

	result.State = after
	d.printf(successColor, "\nComputer Moved!\n")
	if err := d.board(after); err != nil {
		return after, err
	}

	d.player(after)
	return after, nil
}

// pick chooses the move to make for the side on turn.
func (d *Driver) pick(state *api.GameState, config Config) (from, to api.Coordinate, err error) {
	if len(config.From) > 0 && len(config.To) > 0 {
		return config.From, config.To, nil
	}

	from, to = DefaultMove(state.CurrentPlayer, state.Dimension, state.Side)
	if state.Allows(from, to) {
		return from, to, nil
	}

	from, to, found := state.FirstMove()
	if !found {
		return nil, nil, fmt.Errorf("no legal moves for %s", state.CurrentPlayer)
	}

	logrus.Debugf("king's pawn push unavailable, playing %s -> %s", from, to)
	return from, to, nil
}

func (d *Driver) record(ctx context.Context, config Config, id string) {
	if d.recorder == nil {
		return
	}

	d.session = history.Session{
		UUID:      id,
		Server:    config.Server,
		Mode:      config.Mode,
		Dimension: config.Dimension,
		Side:      config.Side,
	}

	if err := d.recorder.Record(ctx, d.session); err != nil {
		logrus.Warnf("couldn't record session: %v", err)
	}
}

func (d *Driver) update(ctx context.Context, result *Result, note string) {
	if d.recorder == nil {
		return
	}

	d.session.Plies = result.Plies
	d.session.UpdatedAt = time.Time{}
	if result.State != nil {
		d.session.CurrentPlayer = result.State.CurrentPlayer
		d.session.Status = result.State.Status.String()
	}
	if note != "" {
		d.session.Note = note
	}

	if err := d.recorder.Update(ctx, d.session); err != nil {
		logrus.Warnf("couldn't update session: %v", err)
	}
}
