// Package rules advances FEN positions by one UCI move and renders them as
// board diagrams. The harness never interprets positions itself.
package rules

import (
	"fmt"
	"strings"
)

// Rules is the chess knowledge the localizer needs.
type Rules interface {
	ApplyMove(position, move string) (string, error)
	Render(position string) (string, error)
}

const (
	BackendNotnil = "notnil"
	BackendDragon = "dragontooth"
)

// Backends lists the names accepted by New.
var Backends = []string{BackendNotnil, BackendDragon}

// New returns the rules backend called name.
func New(name string) (Rules, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendNotnil:
		return Notnil{}, nil
	case BackendDragon, "dragontoothmg":
		return Dragon{}, nil
	default:
		return nil, fmt.Errorf("unknown rules backend '%s' (want one of %s)", name, strings.Join(Backends, ", "))
	}
}

// IllegalMoveError is returned when move is not legal in Position.
type IllegalMoveError struct {
	Position string
	Move     string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("move %s is not legal in '%s'", e.Move, e.Position)
}
