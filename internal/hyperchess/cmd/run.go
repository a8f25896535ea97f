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
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/driver"
)

// hyperchess run
func Run(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the scripted session against the service",
		Long: heredoc.Doc(`run creates a new game, prints its initial state and the
			moves of the probe square, makes one move for the human side
			and then waits for the computer to reply.

			Without --from and --to the human side plays its king's pawn
			forward two squares, e2-e4 on a standard board, or the first
			legal move if that push isn't available.`),
		Example: heredoc.Doc(`
			$ hyperchess run
			$ hyperchess run --mode hh --side 10
			$ hyperchess run --dimension 3 --side 5 --from "(1, 2, 0)" --to "(2, 2, 0)"
		`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := a.session(cmd)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			opts := []driver.Option{driver.WithSpinner()}
			if !color.NoColor {
				opts = append(opts, driver.WithColor())
			}

			store, err := a.history()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				opts = append(opts, driver.WithRecorder(store))
			}

			_, err = driver.New(c, cmd.OutOrStdout(), config, opts...).Run(cmd.Context())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringP("mode", "m", "", "Game mode: hh, hc, ch or cc")
	flags.IntP("dimension", "d", 0, "Number of board axes")
	flags.IntP("side", "s", 0, "Board length along each axis")
	flags.String("probe", "(1, 4)", "Square whose moves are listed")
	flags.String("from", "", "Square to move from")
	flags.String("to", "", "Square to move to")
	flags.Duration("poll-interval", 0, "Delay between two polls")
	flags.Duration("timeout", 0, "How long to wait for the computer")
	flags.Bool("summary", false, "Only print piece counts instead of boards")

	cmd.MarkFlagsRequiredTogether("from", "to")
	return cmd
}

// session builds the driver config from the loaded config and the flags
// of the run command.
func (a *app) session(cmd *cobra.Command) (driver.Config, error) {
	flags := cmd.Flags()
	game, poll := a.config.Game, a.config.Poll

	if flags.Changed("mode") {
		game.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("dimension") {
		game.Dimension, _ = flags.GetInt("dimension")
	}
	if flags.Changed("side") {
		game.Side, _ = flags.GetInt("side")
	}
	if flags.Changed("poll-interval") {
		poll.Interval, _ = flags.GetDuration("poll-interval")
	}
	if flags.Changed("timeout") {
		poll.Timeout, _ = flags.GetDuration("timeout")
	}

	mode, err := api.ParseMode(game.Mode)
	if err != nil {
		return driver.Config{}, err
	}

	if poll.Interval <= 0 {
		return driver.Config{}, fmt.Errorf("poll interval %s is not positive", poll.Interval)
	}

	config := driver.DefaultConfig()
	config.Mode = mode
	config.Dimension = game.Dimension
	config.Side = game.Side
	config.PollInterval = poll.Interval
	config.Timeout = poll.Timeout
	config.Server = a.config.Server.URL + a.config.Server.Prefix
	config.Display.Summary, _ = flags.GetBool("summary")

	probe, _ := flags.GetString("probe")
	if config.Probe, err = api.ParseCoordinate(probe); err != nil {
		return driver.Config{}, fmt.Errorf("--probe: %w", err)
	}

	if flags.Changed("from") {
		from, _ := flags.GetString("from")
		to, _ := flags.GetString("to")

		if config.From, err = api.ParseCoordinate(from); err != nil {
			return driver.Config{}, fmt.Errorf("--from: %w", err)
		}
		if config.To, err = api.ParseCoordinate(to); err != nil {
			return driver.Config{}, fmt.Errorf("--to: %w", err)
		}
	}

	return config, nil
}
