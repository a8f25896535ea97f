package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadCoordinate is returned when a coordinate string can't be parsed.
var ErrBadCoordinate = errors.New("api: bad coordinate")

// Coordinate is a point on the board, one component per dimension. The
// components are ordered the same way the service orders them, so for a
// 2-d board component 0 is the rank and component 1 is the file.
type Coordinate []int

// String formats the Coordinate the way the service keys its valid_moves
// map, which is a tuple of the form "(1, 4)".
func (coord Coordinate) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, value := range coord {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(value))
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether both coordinates have the same components.
func (coord Coordinate) Equal(other Coordinate) bool {
	if len(coord) != len(other) {
		return false
	}

	for i := range coord {
		if coord[i] != other[i] {
			return false
		}
	}

	return true
}

// Within reports whether every component lies in [0, side).
func (coord Coordinate) Within(side int) bool {
	for _, value := range coord {
		if value < 0 || value >= side {
			return false
		}
	}

	return true
}

// ParseCoordinate parses a coordinate from one of the following forms:
//
// (1, 4) - the service's valid_moves key format
// [1,4]  - a JSON array
// 1,4    - bare comma separated components
func ParseCoordinate(str string) (Coordinate, error) {
	trimmed := strings.TrimSpace(str)
	switch {
	case strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")"),
		strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		trimmed = trimmed[1 : len(trimmed)-1]
	}

	if strings.TrimSpace(trimmed) == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrBadCoordinate, str)
	}

	fields := strings.Split(trimmed, ",")
	coord := make(Coordinate, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || value < 0 {
			return nil, fmt.Errorf("%w: component %d of %q", ErrBadCoordinate, i, str)
		}

		coord[i] = value
	}

	return coord, nil
}
