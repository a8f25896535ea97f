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

package conformance

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
)

// Summary counts the outcomes of one check over every run.
type Summary struct {
	Check   string   `yaml:"check"`
	Passed  int      `yaml:"passed"`
	Failed  int      `yaml:"failed"`
	Skipped int      `yaml:"skipped"`
	Details []string `yaml:"details,omitempty"`
}

// Outcome returns the overall outcome: a single failure fails the check,
// and a check which never ran is skipped.
func (summary Summary) Outcome() Outcome {
	switch {
	case summary.Failed > 0:
		return Fail
	case summary.Passed > 0:
		return Pass
	default:
		return Skip
	}
}

// Report is the merged result of a verification.
type Report struct {
	Server string     `yaml:"server"`
	Jobs   int        `yaml:"jobs"`
	Checks []Summary  `yaml:"checks"`
	Runs   [][]Result `yaml:"runs"`
}

func newReport(server string, runs [][]Result) *Report {
	report := &Report{Server: server, Jobs: len(runs), Runs: runs}

	index := make(map[string]int, len(Checks))
	for i, check := range Checks {
		index[check.Name] = i
		report.Checks = append(report.Checks, Summary{Check: check.Name})
	}

	for _, run := range runs {
		for _, result := range run {
			summary := &report.Checks[index[result.Check]]
			switch result.Outcome {
			case Pass:
				summary.Passed++
			case Fail:
				summary.Failed++
			case Skip:
				summary.Skipped++
			}

			if result.Outcome == Fail && !contains(summary.Details, result.Detail) {
				summary.Details = append(summary.Details, result.Detail)
			}
		}
	}

	for i := range report.Checks {
		sort.Strings(report.Checks[i].Details)
	}

	return report
}

func contains(list []string, str string) bool {
	for _, item := range list {
		if item == str {
			return true
		}
	}

	return false
}

// Passed reports whether no check failed.
func (report *Report) Passed() bool {
	for _, summary := range report.Checks {
		if summary.Outcome() == Fail {
			return false
		}
	}

	return true
}

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// Print writes the report as a table followed by the failure details.
// Rows are coloured unless colour output is disabled, see color.NoColor.
func (report *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║     Check                Result   Pass Fail Skip ║")
	fmt.Fprintln(w, "╠══════════════════════════════════════════════════╣")
	for i, summary := range report.Checks {
		row := fmt.Sprintf("%2d. %-18s   %-6s   %4d %4d %4d",
			i+1, summary.Check, summary.Outcome(),
			summary.Passed, summary.Failed, summary.Skipped)

		switch summary.Outcome() {
		case Pass:
			row = passColor.Sprint(row)
		case Fail:
			row = failColor.Sprint(row)
		}

		fmt.Fprintf(w, "║ %s ║\n", row)
	}
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")

	for _, summary := range report.Checks {
		for _, detail := range summary.Details {
			fmt.Fprintf(w, "%s: %s\n", summary.Check, detail)
		}
	}
}

// Dump writes the report as yaml to the given file.
func (report *Report) Dump(path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	if err := hyperchess.TryMkdir(filepath.Dir(path)); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
