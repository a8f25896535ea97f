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
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"laptudirm.com/x/hyperchess/pkg/client"
)

// Result is the outcome of one check in one run.
type Result struct {
	Check    string        `yaml:"check"`
	Outcome  Outcome       `yaml:"outcome"`
	Detail   string        `yaml:"detail,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Run runs every check once, in order, against the service behind c. A
// check whose prerequisite didn't pass is skipped.
func Run(ctx context.Context, c *client.Client, config Config) []Result {
	s := &suite{client: c, config: config.withDefaults()}

	outcomes := make(map[string]Outcome, len(Checks))
	results := make([]Result, 0, len(Checks))
	for _, check := range Checks {
		result := Result{Check: check.Name}

		if check.Needs != "" && outcomes[check.Needs] != Pass {
			result.Outcome = Skip
			result.Detail = "needs " + check.Needs
		} else {
			start := time.Now()
			err := check.run(ctx, s)
			result.Duration = time.Since(start)

			var skip *skipped
			switch {
			case errors.As(err, &skip):
				result.Outcome = Skip
				result.Detail = skip.reason
			case err != nil:
				result.Outcome = Fail
				result.Detail = err.Error()
			default:
				result.Outcome = Pass
			}
		}

		logrus.Debugf("check %s: %s %s", check.Name, result.Outcome, result.Detail)
		outcomes[check.Name] = result.Outcome
		results = append(results, result)
	}

	return results
}

// Verify runs jobs independent suites concurrently and merges their
// results into a single Report. It only fails if ctx is cancelled.
func Verify(ctx context.Context, c *client.Client, config Config, jobs int) (*Report, error) {
	if jobs < 1 {
		jobs = 1
	}

	runs := make([][]Result, jobs)

	g, ctx := errgroup.WithContext(ctx)
	for i := range runs {
		g.Go(func() error {
			logrus.Debugf("starting verification job #%d", i+1)
			runs[i] = Run(ctx, c, config)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newReport(c.Endpoint(""), runs), nil
}

func (config Config) withDefaults() Config {
	if config.Dimension == 0 {
		config.Dimension = 2
	}
	if config.Side == 0 {
		config.Side = 8
	}
	if config.PollInterval == 0 {
		config.PollInterval = client.DefaultPollInterval
	}
	if config.Timeout == 0 {
		config.Timeout = client.DefaultWaitTimeout
	}

	return config
}
