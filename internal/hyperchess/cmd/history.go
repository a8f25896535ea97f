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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// hyperchess history
func History(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded sessions",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.history()
			if err != nil {
				return err
			}

			if store == nil {
				return errors.New("history is disabled")
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			if wipe, _ := cmd.Flags().GetBool("clear"); wipe {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "Removed %d sessions.\n", n)
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			sessions, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, "\x1b[31mNo Sessions Recorded.\x1b[0m")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-4s  %-6s  %-16s  %5s  %-6s  %s\n",
				"UUID", "MODE", "BOARD", "CREATED", "PLIES", "TURN", "STATUS")
			for _, session := range sessions {
				status := session.Status
				if session.Note != "" {
					status += " (" + session.Note + ")"
				}

				fmt.Fprintf(out, "%-36s  %-4s  %-6s  %-16s  %5d  %-6s  %s\n",
					session.UUID,
					session.Mode,
					fmt.Sprintf("%dD/%d", session.Dimension, session.Side),
					session.CreatedAt.Local().Format("2006-01-02 15:04"),
					session.Plies,
					session.CurrentPlayer,
					status,
				)
			}

			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of sessions to list, 0 for all")
	cmd.Flags().Bool("clear", false, "Remove every recorded session")
	return cmd
}
