// Package anyattn implements attention-based recurrent
// decoders which turn a sequence of encoder features into
// per-step class scores.
//
// Two step variants are provided.
// A PairedStep reads batch-major (batch, T, C) features
// and updates an LSTM cell.
// A SingleStep reads time-major (T, batch, C) features,
// updates a GRU cell, and warps its attention weights
// while training.
package anyattn

import (
	"errors"
	"fmt"
)

// CellKind selects the step variant of a Decoder.
type CellKind int

const (
	// Paired selects a PairedStep.
	Paired CellKind = iota

	// Single selects a SingleStep.
	Single
)

// String returns a human-readable name for the kind.
func (c CellKind) String() string {
	switch c {
	case Paired:
		return "paired"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("CellKind(%d)", int(c))
	}
}

// Config describes the dimensions of a Decoder.
type Config struct {
	// FeatureSize is the number of channels per feature
	// vector.
	FeatureSize int

	// HiddenSize is the width of the recurrent hidden
	// vector.
	HiddenSize int

	// NumClasses is the vocabulary size of the label codec.
	// It is both the number of output scores per step and
	// the width of the one-hot previous-token vectors.
	NumClasses int

	Cell CellKind
}

// Validate checks that the configuration can be used to
// build a Decoder.
func (c *Config) Validate() error {
	if c.FeatureSize <= 0 {
		return errors.New("feature size must be positive")
	}
	if c.HiddenSize <= 0 {
		return errors.New("hidden size must be positive")
	}
	if c.NumClasses <= 0 {
		return errors.New("class count must be positive")
	}
	if c.Cell != Paired && c.Cell != Single {
		return fmt.Errorf("unknown cell kind: %v", c.Cell)
	}
	return nil
}
