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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/client"
	"laptudirm.com/x/hyperchess/pkg/display"
	"laptudirm.com/x/hyperchess/pkg/history"
)

// hyperchess new
func New(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new game and print its id",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			game := a.config.Game
			flags := cmd.Flags()
			if flags.Changed("mode") {
				game.Mode, _ = flags.GetString("mode")
			}
			if flags.Changed("dimension") {
				game.Dimension, _ = flags.GetInt("dimension")
			}
			if flags.Changed("side") {
				game.Side, _ = flags.GetInt("side")
			}

			mode, err := api.ParseMode(game.Mode)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			request := api.NewGameRequest{Mode: mode, Dimension: game.Dimension, Side: game.Side}
			id, err := c.NewGame(cmd.Context(), request)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Game Created! UUID: %s\n", id)

			a.remember(cmd.Context(), history.Session{
				UUID:          id,
				Server:        a.config.Server.URL + a.config.Server.Prefix,
				Mode:          mode,
				Dimension:     game.Dimension,
				Side:          game.Side,
				CurrentPlayer: api.White,
			})
			return nil
		},
	}

	cmd.Flags().StringP("mode", "m", "", "Game mode: hh, hc, ch or cc")
	cmd.Flags().IntP("dimension", "d", 0, "Number of board axes")
	cmd.Flags().IntP("side", "s", 0, "Board length along each axis")
	return cmd
}

// hyperchess show
func Show(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show { uuid | last }",
		Short: "Print the current state of a game",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			state, err := c.Game(cmd.Context(), id)
			if err != nil {
				return err
			}

			if err := state.Validate(); err != nil {
				logrus.Warnf("game %s: %v", id, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Game %s (%dD, side %d): %s\n", id, state.Dimension, state.Side, state.Status)

			summary, _ := cmd.Flags().GetBool("summary")
			if err := printState(out, state, display.Options{Summary: summary}); err != nil {
				return err
			}

			if moves, _ := cmd.Flags().GetBool("moves"); moves {
				fmt.Fprintf(out, "\nValid Moves (Total: %d)\n", len(state.ValidMoves))
				return display.RenderAllMoves(out, state)
			}

			return nil
		},
	}

	cmd.Flags().Bool("moves", false, "List the valid moves of every piece")
	cmd.Flags().Bool("summary", false, "Only print piece counts instead of the board")
	return cmd
}

// hyperchess move
func Move(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move { uuid | last } from to",
		Short: "Make a move in a game",
		Long: heredoc.Doc(`move submits a single move for the side on turn. Squares
			are written as coordinates, like "(1, 4)", "[1,4]" or 1,4.

			With --wait the command keeps polling the game until the
			opponent has moved as well.`),
		Example: heredoc.Doc(`
			$ hyperchess move last "(1, 4)" "(3, 4)" --wait
		`),
		Args: cobra.ExactArgs(3),

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}

			from, err := api.ParseCoordinate(args[1])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}

			to, err := api.ParseCoordinate(args[2])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			state, err := c.TakeTurn(ctx, api.TurnRequest{UUID: id, Start: from, End: to})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Move Accepted!")
			if err := printState(out, state, display.Options{}); err != nil {
				return err
			}

			a.progress(ctx, id, state, 1)

			wait, _ := cmd.Flags().GetBool("wait")
			if !wait || state.Status.Over() {
				return nil
			}

			waitingOn := state.CurrentPlayer
			fmt.Fprintf(out, "\nWaiting for %s to move...\n", waitingOn)

			state, err = c.AwaitTurn(ctx, id, state, waitingOn, client.WaitOptions{
				Interval: a.config.Poll.Interval,
				Timeout:  a.config.Poll.Timeout,
			})
			switch {
			case errors.Is(err, client.ErrWaitTimeout):
				fmt.Fprintf(out, "Timeout waiting for %s!\n", waitingOn)
				return nil
			case err != nil:
				return err
			}

			fmt.Fprintf(out, "%s Moved!\n", waitingOn)
			a.progress(ctx, id, state, 0)
			return printState(out, state, display.Options{})
		},
	}

	cmd.Flags().BoolP("wait", "w", false, "Wait for the opponent's reply")
	return cmd
}

func printState(w io.Writer, state *api.GameState, opts display.Options) error {
	if err := display.Render(w, state, opts); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Current Player: %s\n", state.CurrentPlayer)
	return err
}

// remember records a new session in the history, if it is enabled.
// Failures are only logged.
func (a *app) remember(ctx context.Context, session history.Session) {
	store, err := a.history()
	if err != nil || store == nil {
		if err != nil {
			logrus.Warnf("couldn't open history: %v", err)
		}
		return
	}
	defer store.Close()

	if err := store.Record(ctx, session); err != nil {
		logrus.Warnf("couldn't record session: %v", err)
	}
}

// progress updates a recorded session with the given state, adding plies
// to its ply count. Games which were never recorded are left alone.
func (a *app) progress(ctx context.Context, id string, state *api.GameState, plies int) {
	store, err := a.history()
	if err != nil || store == nil {
		if err != nil {
			logrus.Warnf("couldn't open history: %v", err)
		}
		return
	}
	defer store.Close()

	session, err := store.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		logrus.Debugf("game %s isn't in the history", id)
		return
	}

	if err != nil {
		logrus.Warnf("couldn't read session: %v", err)
		return
	}

	session.Plies += plies
	session.CurrentPlayer = state.CurrentPlayer
	session.Status = state.Status.String()
	session.UpdatedAt = time.Now()

	if err := store.Update(ctx, session); err != nil {
		logrus.Warnf("couldn't update session: %v", err)
	}
}
