package asop

import (
	"fmt"
	"strings"
)

// Direction is the optimization sense. Its value is the sign applied to scaled
// objective values before learning.
type Direction int

const (
	Minimize Direction = -1
	Maximize Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d Direction) valid() bool {
	return d == Minimize || d == Maximize
}

// better reports whether a is strictly better than b in this direction.
func (d Direction) better(a, b float64) bool {
	if d == Maximize {
		return a > b
	}
	return a < b
}

// ParseDirection accepts "min", "minimize", "max", "maximize", "-1" or "1".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimize", "-1":
		return Minimize, nil
	case "max", "maximize", "1", "+1":
		return Maximize, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
