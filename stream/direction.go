package stream

import (
	"errors"
	"strings"
)

// Direction is the side of a proxied connection a toxic attaches to.
//
// Client -- Upstream --> Destination
// Client <-- Downstream -- Destination
type Direction uint8

var ErrInvalidDirectionParameter error = errors.New("stream: invalid direction")

const (
	Upstream Direction = iota
	Downstream
	NumDirections
)

func (d Direction) String() string {
	if d >= NumDirections {
		return "num_directions"
	}
	return [...]string{"upstream", "downstream"}[d]
}

func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(value) {
	case "downstream":
		return Downstream, nil
	case "upstream":
		return Upstream, nil
	}

	return NumDirections, ErrInvalidDirectionParameter
}

// MarshalText renders the direction the way the control plane spells it.
func (d Direction) MarshalText() ([]byte, error) {
	if d >= NumDirections {
		return nil, ErrInvalidDirectionParameter
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
