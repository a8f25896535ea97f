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

package driver

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"

	"laptudirm.com/x/hyperchess/pkg/api"
)

const spinnerCharSet = 31

// indicator shows that the driver is waiting on the service.
type indicator interface {
	start()
	tick()
	stop()
}

// dots prints a dot for every poll, like the reference driver.
type dots struct {
	out io.Writer
}

func (d dots) start() {}
func (d dots) tick()  { _, _ = io.WriteString(d.out, ".") }
func (d dots) stop()  {}

type spinning struct {
	s *spinner.Spinner
}

func (s spinning) start() { s.s.Start() }
func (s spinning) tick()  {}
func (s spinning) stop()  { s.s.Stop() }

func (d *Driver) indicator(waitingOn api.Player) indicator {
	if f, ok := d.out.(*os.File); ok && d.spin && isatty.IsTerminal(f.Fd()) {
		return spinning{spinner.New(
			spinner.CharSets[spinnerCharSet], 100*time.Millisecond,
			spinner.WithWriter(f),
			spinner.WithSuffix(" waiting for "+string(waitingOn)),
		)}
	}

	return dots{d.out}
}
