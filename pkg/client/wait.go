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

package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/hyperchess/pkg/api"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultWaitTimeout  = 10 * time.Second
)

// WaitOptions configures AwaitTurn.
type WaitOptions struct {
	// Interval is the fixed delay between two polls.
	Interval time.Duration

	// Timeout is the total time to wait for. Zero waits until the
	// context is done.
	Timeout time.Duration

	// OnPoll, if set, is called with every state fetched while waiting.
	OnPoll func(*api.GameState)
}

var errStillWaiting = errors.New("opponent still on turn")

// AwaitTurn polls a game until waitingOn is no longer on turn or the game
// is over. The state from, if not nil, is checked before the first request
// is made. The clock is only checked after a poll, so at least one poll is
// made however short the timeout. Once the timeout has elapsed the last
// state seen is returned together with ErrWaitTimeout. A failed request
// ends the wait immediately.
func (c *Client) AwaitTurn(ctx context.Context, uuid string, from *api.GameState, waitingOn api.Player, opts WaitOptions) (*api.GameState, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}

	last := from
	polls := 0
	start := time.Now()

	operation := func() (*api.GameState, error) {
		fetched := polls > 0 || last == nil
		if fetched {
			state, err := c.Game(ctx, uuid)
			if err != nil {
				return last, backoff.Permanent(err)
			}

			last = state
			if opts.OnPoll != nil {
				opts.OnPoll(state)
			}
		}

		polls++
		if last.CurrentPlayer == waitingOn && !last.Status.Over() {
			if fetched && opts.Timeout > 0 && time.Since(start) >= opts.Timeout {
				return last, backoff.Permanent(errStillWaiting)
			}

			return last, errStillWaiting
		}

		return last, nil
	}

	state, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.Interval)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logrus.Debugf("game %s: %s, polling again in %s", uuid, err, next)
		}),
	)

	switch {
	case errors.Is(err, errStillWaiting):
		return state, ErrWaitTimeout
	case err != nil:
		return state, err
	default:
		return state, nil
	}
}
