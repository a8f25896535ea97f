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
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
	"laptudirm.com/x/hyperchess/pkg/conformance"
)

// ErrVerificationFailed is returned by the verify command if any check
// failed, so that the process exits with a non-zero status.
var ErrVerificationFailed = errors.New("the service failed verification")

// hyperchess verify
func Verify(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the service honours the game contract",
		Long:  verifyLong(),
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			jobs, _ := cmd.Flags().GetInt("jobs")
			config := conformance.Config{
				Dimension:    a.config.Game.Dimension,
				Side:         a.config.Game.Side,
				PollInterval: a.config.Poll.Interval,
				Timeout:      a.config.Poll.Timeout,
			}

			report, err := conformance.Verify(cmd.Context(), c, config, jobs)
			if err != nil {
				return err
			}

			report.Print(cmd.OutOrStdout())

			path, _ := cmd.Flags().GetString("report")
			if save, _ := cmd.Flags().GetBool("save"); save && path == "" {
				name := fmt.Sprintf("verify-%s.yaml", time.Now().Format("20060102-150405"))
				path = filepath.Join(hyperchess.ReportsDir, name)
			}

			if path != "" {
				if err := report.Dump(path); err != nil {
					return err
				}

				logrus.Infof("report written to %s", path)
			}

			if !report.Passed() {
				return ErrVerificationFailed
			}

			return nil
		},
	}

	cmd.Flags().IntP("jobs", "j", 1, "Number of suites to run concurrently")
	cmd.Flags().String("report", "", "Write the report as yaml to this file")
	cmd.Flags().Bool("save", false, "Write the report to the data directory")
	return cmd
}

func verifyLong() string {
	long := heredoc.Doc(`verify plays short scripted games against the service and
		checks the properties every HyperChess service should have.
		A check is skipped if one it depends on didn't pass, or if the
		board gives it nothing to do.

		With --jobs the suite is run that many times concurrently, each
		run in its own games, which shakes out state shared between
		games. The checks are:

	`)

	for i, check := range conformance.Checks {
		long += fmt.Sprintf("  %2d. %-18s %s\n", i+1, check.Name, check.Description)
	}

	return long
}
