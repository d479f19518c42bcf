package diverge

import (
	"context"
	"fmt"

	"perftdiff/perft"
)

// Step is one depth of a sweep where both engines agreed.
type Step struct {
	Depth     int
	Test      *perft.Result
	Reference *perft.Result
}

// Outcome is the result of a sweep. When Passed is false, Depth, Test and
// Reference describe the first depth whose totals differ.
type Outcome struct {
	Passed    bool
	Depth     int
	Test      *perft.Result
	Reference *perft.Result
	Steps     []Step
}

// Sweeper runs perft at increasing depths until the totals disagree.
type Sweeper struct {
	Pair

	// Progress, when set, is called after every depth where the engines agree.
	Progress func(Step)
}

// Sweep queries depths 1 through maxDepth on position and stops at the first
// depth whose totals differ.
func (s *Sweeper) Sweep(ctx context.Context, position string, maxDepth int) (*Outcome, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be at least 1, got %d", maxDepth)
	}

	var outcome Outcome
	for depth := 1; depth <= maxDepth; depth++ {
		test, ref, err := s.query(ctx, position, depth)
		if err != nil {
			return nil, fmt.Errorf("depth %d: %w", depth, err)
		}

		if test.Total != ref.Total {
			s.log().Debug("totals differ", "depth", depth, "test", test.Total, "reference", ref.Total)
			outcome.Depth = depth
			outcome.Test = test
			outcome.Reference = ref
			return &outcome, nil
		}

		step := Step{Depth: depth, Test: test, Reference: ref}
		outcome.Steps = append(outcome.Steps, step)
		if s.Progress != nil {
			s.Progress(step)
		}
	}

	outcome.Passed = true
	return &outcome, nil
}
