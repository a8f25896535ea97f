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
	"github.com/spf13/cobra"

	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
)

// hyperchess completion
func Completion() *cobra.Command {
	return &cobra.Command{
		Use:   "completion { bash | zsh | fish | powershell }",
		Short: "Generate shell completion scripts",
		Long: heredoc.Doc(`completion prints a completion script for the given shell.

			To load completions in the current bash session, run:

			    source <(hyperchess completion bash)`),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},

		// Completion scripts don't need the config.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},

		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}

// hyperchess env
func Env() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables hyperchess reads",
		Args:  cobra.NoArgs,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {},

		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n%s", hyperchess.ConfigFile, hyperchess.Usage())
			return nil
		},
	}
}
