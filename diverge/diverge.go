// Package diverge compares the perft results of an engine under test against
// a reference engine and narrows a disagreement down to the position where the
// two move generators first differ.
package diverge

import (
	"context"
	"log/slog"

	"perftdiff/perft"
)

// Prober answers perft queries. *engine.Engine is the production implementation.
type Prober interface {
	Perft(ctx context.Context, position string, depth int) (*perft.Result, error)
}

// Pair holds the engine under test and the reference engine. Every query asks
// the engine under test first, then the reference, one at a time.
type Pair struct {
	Test      Prober
	Reference Prober
	Log       *slog.Logger
}

func (p *Pair) query(ctx context.Context, position string, depth int) (test, ref *perft.Result, err error) {
	test, err = p.Test.Perft(ctx, position, depth)
	if err != nil {
		return nil, nil, err
	}
	ref, err = p.Reference.Perft(ctx, position, depth)
	if err != nil {
		return nil, nil, err
	}
	return test, ref, nil
}

func (p *Pair) log() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}
