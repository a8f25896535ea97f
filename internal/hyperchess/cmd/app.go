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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/hyperchess/pkg/client"
	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
	"laptudirm.com/x/hyperchess/pkg/history"
)

// lastGame names the most recently recorded game in place of a uuid.
const lastGame = "last"

// app is the state shared by every command: the loaded config with the
// persistent flags applied on top.
type app struct {
	config *hyperchess.Config
}

func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")

	config, err := hyperchess.LoadConfig(path)
	if err != nil {
		return err
	}

	if flag := cmd.Flag("url"); flag.Changed {
		config.Server.URL = flag.Value.String()
	}
	if flag := cmd.Flag("prefix"); flag.Changed {
		config.Server.Prefix = flag.Value.String()
	}
	if cmd.Flag("no-history").Changed {
		config.History.Disabled, _ = cmd.Flags().GetBool("no-history")
	}

	logrus.Debugf("service at %s%s", config.Server.URL, config.Server.Prefix)
	a.config = config
	return nil
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.config.Server.URL,
		client.WithPrefix(a.config.Server.Prefix),
		client.WithTimeout(a.config.Server.RequestTimeout),
	)
}

// history opens the session store. It returns a nil store, and no error,
// if history is disabled.
func (a *app) history() (*history.Store, error) {
	if a.config.History.Disabled {
		return nil, nil
	}

	return history.Open(a.config.History.Path)
}

// resolve turns a command line game argument into a uuid. The argument
// is either a uuid or "last".
func (a *app) resolve(ctx context.Context, arg string) (string, error) {
	if arg != lastGame {
		id, err := uuid.Parse(arg)
		if err != nil {
			return "", fmt.Errorf("bad game id %q: %w", arg, err)
		}

		return id.String(), nil
	}

	store, err := a.history()
	if err != nil {
		return "", err
	}

	if store == nil {
		return "", errors.New("can't resolve the last game: history is disabled")
	}
	defer store.Close()

	session, err := store.Latest(ctx)
	if errors.Is(err, history.ErrNotFound) {
		return "", errors.New("no games have been recorded yet")
	}

	return session.UUID, err
}
