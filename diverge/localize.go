package diverge

import (
	"context"
	"fmt"
	"strings"

	"perftdiff/perft"
	"perftdiff/rules"
)

// Fault is the smallest position whose move sets differ between the engines.
type Fault struct {
	Position  string
	Depth     int
	Path      []string // moves from the root position to Position
	Test      *perft.Result
	Reference *perft.Result
}

// NoDivergenceError means the totals differed but every branch below agreed.
// Either the localizer is wrong or an engine is not deterministic.
type NoDivergenceError struct {
	Position string
	Depth    int
	Path     []string
}

func (e *NoDivergenceError) Error() string {
	return fmt.Sprintf("no move set difference found at '%s' depth %d (path: %s); the counts disagreed above but not below",
		e.Position, e.Depth, formatPath(e.Path))
}

// Localizer bisects the game tree towards the position where the move
// generators disagree.
type Localizer struct {
	Pair
	Rules rules.Rules
}

// Localize follows the first mismatching move at every ply. test and ref are
// the results both engines gave for position at depth, whose totals differ.
func (l *Localizer) Localize(ctx context.Context, position string, depth int, test, ref *perft.Result) (*Fault, error) {
	if depth < 1 {
		return nil, fmt.Errorf("localize: depth must be at least 1, got %d", depth)
	}
	return l.localize(ctx, position, depth, nil, test, ref)
}

func (l *Localizer) localize(ctx context.Context, position string, depth int, path []string, test, ref *perft.Result) (*Fault, error) {
	if !test.SameMoves(ref) {
		return &Fault{Position: position, Depth: depth, Path: path, Test: test, Reference: ref}, nil
	}

	moves := mismatches(test, ref)
	if len(moves) == 0 || depth <= 1 {
		return nil, &NoDivergenceError{Position: position, Depth: depth, Path: path}
	}

	move := moves[0]
	child, test, ref, err := l.descend(ctx, position, depth, move)
	if err != nil {
		return nil, err
	}

	return l.localize(ctx, child, depth-1, appendPath(path, move), test, ref)
}

// LocalizeAll follows every mismatching move instead of only the first, so
// independent faults in sibling branches are all reported.
func (l *Localizer) LocalizeAll(ctx context.Context, position string, depth int, test, ref *perft.Result) ([]*Fault, error) {
	if depth < 1 {
		return nil, fmt.Errorf("localize: depth must be at least 1, got %d", depth)
	}

	faults, err := l.localizeAll(ctx, position, depth, nil, test, ref)
	if err != nil {
		return nil, err
	}
	if len(faults) == 0 {
		return nil, &NoDivergenceError{Position: position, Depth: depth}
	}
	return faults, nil
}

func (l *Localizer) localizeAll(ctx context.Context, position string, depth int, path []string, test, ref *perft.Result) ([]*Fault, error) {
	if !test.SameMoves(ref) {
		return []*Fault{{Position: position, Depth: depth, Path: path, Test: test, Reference: ref}}, nil
	}
	if depth <= 1 {
		return nil, nil
	}

	var faults []*Fault
	for _, move := range mismatches(test, ref) {
		child, childTest, childRef, err := l.descend(ctx, position, depth, move)
		if err != nil {
			return nil, err
		}

		found, err := l.localizeAll(ctx, child, depth-1, appendPath(path, move), childTest, childRef)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			l.log().Warn("branch did not localize", "path", formatPath(appendPath(path, move)), "depth", depth-1)
		}
		faults = append(faults, found...)
	}

	return faults, nil
}

// descend plays move on position and queries both engines one ply shallower.
func (l *Localizer) descend(ctx context.Context, position string, depth int, move string) (string, *perft.Result, *perft.Result, error) {
	child, err := l.Rules.ApplyMove(position, move)
	if err != nil {
		return "", nil, nil, fmt.Errorf("localize: %w", err)
	}

	l.log().Debug("descending", "move", move, "depth", depth-1, "fen", child)

	test, ref, err := l.query(ctx, child, depth-1)
	if err != nil {
		return "", nil, nil, fmt.Errorf("localize after %s: %w", move, err)
	}
	return child, test, ref, nil
}

// mismatches returns, in sorted order, the moves whose counts differ.
// Both results must enumerate the same moves.
func mismatches(test, ref *perft.Result) []string {
	var moves []string
	for _, m := range test.SortedMoves() {
		if test.Moves[m] != ref.Moves[m] {
			moves = append(moves, m)
		}
	}
	return moves
}

func appendPath(path []string, move string) []string {
	return append(path[:len(path):len(path)], move)
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return strings.Join(path, " ")
}
