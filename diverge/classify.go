package diverge

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"perftdiff/perft"
)

type Label int

const (
	Correct   Label = iota // generated by both engines
	Incorrect              // generated only by the engine under test
	Missing                // generated only by the reference engine
)

func (l Label) String() string {
	switch l {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

type Classification struct {
	Move  string
	Label Label
}

// Classifier labels every move at a position by comparing one-ply results.
type Classifier struct {
	Pair
}

func (c *Classifier) Classify(ctx context.Context, position string) ([]Classification, error) {
	test, ref, err := c.query(ctx, position, 1)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	return ClassifyResults(test, ref), nil
}

// ClassifyResults labels the union of both move sets, sorted by move.
func ClassifyResults(test, ref *perft.Result) []Classification {
	union := make(map[string]struct{}, len(ref.Moves)+1)
	for m := range test.Moves {
		union[m] = struct{}{}
	}
	for m := range ref.Moves {
		union[m] = struct{}{}
	}

	moves := maps.Keys(union)
	slices.Sort(moves)

	list := make([]Classification, 0, len(moves))
	for _, m := range moves {
		_, inTest := test.Moves[m]
		_, inRef := ref.Moves[m]

		label := Correct
		switch {
		case inTest && !inRef:
			label = Incorrect
		case inRef && !inTest:
			label = Missing
		}
		list = append(list, Classification{Move: m, Label: label})
	}

	return list
}
