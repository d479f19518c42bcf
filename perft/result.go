package perft

import (
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Result is the outcome of one perft invocation at one position and depth.
type Result struct {
	Total   uint64
	Moves   map[string]uint64 // UCI move -> leaf count below it
	Elapsed time.Duration
	NPS     float64
}

// SortedMoves returns the keys of Moves in ascending order.
func (r *Result) SortedMoves() []string {
	moves := maps.Keys(r.Moves)
	slices.Sort(moves)
	return moves
}

// MoveSum is the sum of the per-move counts.
func (r *Result) MoveSum() uint64 {
	var sum uint64
	for _, n := range r.Moves {
		sum += n
	}
	return sum
}

// SameMoves reports whether r and other enumerate exactly the same moves.
func (r *Result) SameMoves(other *Result) bool {
	if len(r.Moves) != len(other.Moves) {
		return false
	}
	for m := range r.Moves {
		if _, ok := other.Moves[m]; !ok {
			return false
		}
	}
	return true
}
