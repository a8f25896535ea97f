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

package hyperchess

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/hyperchess/pkg/api"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Game    Game    `yaml:"game"`
	Poll    Poll    `yaml:"poll"`
	History History `yaml:"history"`
}

type Server struct {
	URL            string        `yaml:"url" env:"HYPERCHESS_URL" env-description:"address of the game service" env-default:"http://127.0.0.1:3123"`
	Prefix         string        `yaml:"prefix" env:"HYPERCHESS_PREFIX" env-description:"path the service routes are mounted below"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"HYPERCHESS_REQUEST_TIMEOUT" env-description:"timeout of a single request" env-default:"10s"`
}

type Game struct {
	Mode      string `yaml:"mode" env:"HYPERCHESS_MODE" env-description:"game mode: hh, hc, ch or cc" env-default:"hc"`
	Dimension int    `yaml:"dimension" env:"HYPERCHESS_DIMENSION" env-description:"number of board axes" env-default:"2"`
	Side      int    `yaml:"side" env:"HYPERCHESS_SIDE" env-description:"board length along each axis" env-default:"8"`
}

type Poll struct {
	// Fixed delay between two polls for the opponent's move.
	Interval time.Duration `yaml:"interval" env:"HYPERCHESS_POLL_INTERVAL" env-description:"delay between two polls" env-default:"500ms"`

	// Time after which the driver stops waiting and carries on.
	Timeout time.Duration `yaml:"timeout" env:"HYPERCHESS_POLL_TIMEOUT" env-description:"how long to wait for the computer" env-default:"10s"`
}

type History struct {
	Disabled bool   `yaml:"disabled" env:"HYPERCHESS_NO_HISTORY" env-description:"do not record sessions"`
	Path     string `yaml:"path" env:"HYPERCHESS_HISTORY_PATH" env-description:"session history database"`
}

// LoadConfig reads the config file at path, if there is one, and then the
// environment. Missing values take their defaults.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	var err error
	if path != "" && Exists(path) {
		logrus.Debugf("reading config file %s", path)
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if config.History.Path == "" {
		config.History.Path = HistoryFile
	}

	return config, config.Validate()
}

// Validate checks that every value is usable.
func (config *Config) Validate() error {
	var errs []error
	if _, err := api.ParseMode(config.Game.Mode); err != nil {
		errs = append(errs, err)
	}
	if config.Game.Dimension < 1 {
		errs = append(errs, fmt.Errorf("game dimension %d is not positive", config.Game.Dimension))
	}
	if config.Game.Side < 1 {
		errs = append(errs, fmt.Errorf("game side %d is not positive", config.Game.Side))
	}
	if config.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval %s is not positive", config.Poll.Interval))
	}
	if config.Poll.Timeout < 0 {
		errs = append(errs, fmt.Errorf("poll timeout %s is negative", config.Poll.Timeout))
	}

	return errors.Join(errs...)
}

// Usage describes every environment variable the config reads.
func Usage() string {
	text, _ := cleanenv.GetDescription(&Config{}, nil)
	return text
}
