package rules

import (
	"github.com/dylhunn/dragontoothmg"

	"perftdiff/fen"
)

// Dragon is backed by github.com/dylhunn/dragontoothmg. That library has no
// diagram renderer, so Render draws with the fen package.
type Dragon struct{}

func (Dragon) ApplyMove(position, move string) (string, error) {
	board, err := fen.Parse(position)
	if err != nil {
		return "", err
	}

	b := dragontoothmg.ParseFen(board.FEN())
	for _, m := range b.GenerateLegalMoves() {
		if m.String() == move {
			b.Apply(m)
			return b.ToFen(), nil
		}
	}

	return "", &IllegalMoveError{Position: position, Move: move}
}

func (Dragon) Render(position string) (string, error) {
	board, err := fen.Parse(position)
	if err != nil {
		return "", err
	}
	return board.Draw(), nil
}
