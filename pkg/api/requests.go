package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for an unrecognized mode string.
var ErrUnknownMode = errors.New("api: unknown game mode")

// Mode selects which sides of a game are controlled by the service's
// computer player. The first letter is White's controller and the second
// is Black's, h for human and c for computer.
type Mode string

const (
	HumanVsHuman       Mode = "hh"
	HumanVsComputer    Mode = "hc"
	ComputerVsHuman    Mode = "ch"
	ComputerVsComputer Mode = "cc"
)

// ParseMode parses a mode string case-insensitively.
func ParseMode(str string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(str)))
	switch mode {
	case HumanVsHuman, HumanVsComputer, ComputerVsHuman, ComputerVsComputer:
		return mode, nil
	default:
		return "", fmt.Errorf("%w %q (want hh, hc, ch or cc)", ErrUnknownMode, str)
	}
}

// Computer reports whether the given side is played by the service.
func (mode Mode) Computer(player Player) bool {
	if len(mode) != 2 {
		return false
	}

	switch player {
	case White:
		return mode[0] == 'c'
	case Black:
		return mode[1] == 'c'
	default:
		return false
	}
}

// Human returns the human controlled sides, White first.
func (mode Mode) Human() []Player {
	var sides []Player
	for _, side := range []Player{White, Black} {
		if len(mode) == 2 && !mode.Computer(side) {
			sides = append(sides, side)
		}
	}

	return sides
}

// NewGameRequest is the body of a new game request.
type NewGameRequest struct {
	Mode      Mode `json:"mode"`
	Dimension int  `json:"dimension"`
	Side      int  `json:"side"`
}

// NewGameResponse is the body of a successful new game response.
type NewGameResponse struct {
	UUID string `json:"uuid"`
}

// TurnRequest is the body of a take turn request.
type TurnRequest struct {
	UUID  string     `json:"uuid"`
	Start Coordinate `json:"start"`
	End   Coordinate `json:"end"`
}
