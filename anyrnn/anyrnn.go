// Package anyrnn implements the recurrent cells used by
// attention decoders.
//
// A cell is a pure function of an input batch and a packed
// state batch, producing a new packed state batch.
// States are plain anydiff.Res values, so a decoder can
// unroll a cell with ordinary differentiable operations.
package anyrnn

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
)

// A Cell is a recurrent update rule.
//
// States are packed batches of StateSize() components per
// sequence.
// A cell may use its state argument several times, so the
// state should be cheap to back-propagate through (e.g. a
// pooled variable or a constant).
type Cell interface {
	anyocr.Parameterizer

	// InSize returns the size of each input vector.
	InSize() int

	// HiddenSize returns the size of the hidden vector of
	// each sequence.
	HiddenSize() int

	// StateSize returns the number of packed components in
	// each sequence's state.
	StateSize() int

	// Start produces a zero start state for n sequences.
	Start(n int) anydiff.Res

	// Hidden extracts the hidden vectors from a batch of n
	// states, producing an n-by-HiddenSize() batch.
	Hidden(state anydiff.Res, n int) anydiff.Res

	// Apply performs one timestep for n sequences.
	Apply(in, state anydiff.Res, n int) anydiff.Res
}

func checkSizes(c Cell, in, state anydiff.Res, n int) {
	if in.Output().Len() != n*c.InSize() {
		panic(fmt.Sprintf("input length should be %d, but got %d",
			n*c.InSize(), in.Output().Len()))
	}
	if state.Output().Len() != n*c.StateSize() {
		panic(fmt.Sprintf("state length should be %d, but got %d",
			n*c.StateSize(), state.Output().Len()))
	}
}
