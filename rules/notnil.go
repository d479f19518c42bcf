package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"perftdiff/fen"
)

// Notnil is backed by github.com/notnil/chess.
type Notnil struct{}

func (Notnil) ApplyMove(position, move string) (string, error) {
	pos, err := notnilPosition(position)
	if err != nil {
		return "", err
	}

	for _, m := range pos.ValidMoves() {
		if m.String() == move {
			return pos.Update(m).String(), nil
		}
	}

	return "", &IllegalMoveError{Position: position, Move: move}
}

func (Notnil) Render(position string) (string, error) {
	pos, err := notnilPosition(position)
	if err != nil {
		return "", err
	}
	return pos.Board().Draw(), nil
}

func notnilPosition(position string) (*chess.Position, error) {
	board, err := fen.Parse(position)
	if err != nil {
		return nil, err
	}

	opt, err := chess.FEN(board.FEN())
	if err != nil {
		return nil, fmt.Errorf("notnil: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}
