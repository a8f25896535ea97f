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
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
)

func Root() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hyperchess",
		Short: "Drive and verify a HyperChess game service",
		Long: heredoc.Doc(`hyperchess talks to a HyperChess game service over its
			HTTP interface. It can play the scripted reference session,
			inspect and move in single games, and check that a service
			honours the game contract.

			Settings are read from the config file, then from HYPERCHESS_*
			environment variables (a .env file in the working directory
			is loaded first), and finally from the command line flags.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// --trace wins over --verbose.
			switch {
			case cmd.Flag("trace").Changed:
				logrus.SetLevel(logrus.TraceLevel)
			case cmd.Flag("verbose").Changed:
				logrus.SetLevel(logrus.DebugLevel)
			}

			return a.load(cmd)
		},
	}

	// global flags
	root.PersistentFlags().BoolP("help", "h", false, "Show Help Information")
	root.PersistentFlags().BoolP("version", "v", false, "Show HyperChess's Version")
	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")
	root.PersistentFlags().Bool("verbose", false, "Show Debug Information")
	root.PersistentFlags().String("config", hyperchess.ConfigFile, "Config file to read")
	root.PersistentFlags().String("url", "", "Address of the game service")
	root.PersistentFlags().String("prefix", "", "Path the service routes are mounted below")
	root.PersistentFlags().Bool("no-history", false, "Don't record sessions")

	versionStr := "v0.1.0\n"
	root.SetVersionTemplate(versionStr)
	root.Version = versionStr

	// Register the various commands.
	root.AddCommand(Run(a))
	root.AddCommand(New(a))
	root.AddCommand(Show(a))
	root.AddCommand(Move(a))
	root.AddCommand(Verify(a))
	root.AddCommand(History(a))
	root.AddCommand(Env())
	root.AddCommand(Completion())

	return root
}
