package anyattn

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
	"github.com/unixpickle/anyocr/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var s SingleStep
	serializer.RegisterTypedDeserializer(s.SerializerType(), DeserializeSingleStep)
}

// SingleStep is a Step which reads time-major features
// and updates a GRU.
//
// While training, the attention weights are distorted by
// a Warper before they are used.
type SingleStep struct {
	Attention *Attention
	Cell      *anyrnn.GRU

	// Warper is not serialized.
	// A deserialized step uses the global random source.
	Warper *Warper
}

// DeserializeSingleStep deserializes a SingleStep.
func DeserializeSingleStep(d []byte) (*SingleStep, error) {
	res := &SingleStep{Warper: &Warper{}}
	if err := serializer.DeserializeAny(d, &res.Attention, &res.Cell); err != nil {
		return nil, essentials.AddCtx("deserialize SingleStep", err)
	}
	return res, nil
}

// NewSingleStep creates a randomized SingleStep.
// The warper draws from r as well.
func NewSingleStep(c anyvec.Creator, featSize, hidden, embedSize int,
	r *rand.Rand) *SingleStep {
	return &SingleStep{
		Attention: NewAttention(c, featSize, hidden, r),
		Cell:      anyrnn.NewGRU(c, featSize+embedSize, hidden, r),
		Warper:    &Warper{Rand: r},
	}
}

// Start returns zero states.
func (s *SingleStep) Start(n int) anydiff.Res {
	return s.Cell.Start(n)
}

// Hidden returns the states themselves.
func (s *SingleStep) Hidden(state anydiff.Res, n int) anydiff.Res {
	return s.Cell.Hidden(state, n)
}

// Step performs a timestep.
//
// The features are packed as (T, batch, C).
// The scores are transposed to (batch, T) before they are
// normalized, so the weights are batch-major like those of
// a PairedStep.
func (s *SingleStep) Step(state, feats, prev anydiff.Res, batch int,
	training bool) *StepResult {
	seqLen := s.Attention.seqLen(feats, batch)
	checkPrev(prev, batch, s.Cell.InSize()-s.Attention.Channels)

	var weights anydiff.Res
	newState := anydiff.Pool(feats, func(feats anydiff.Res) anydiff.Res {
		return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
			hidden := repeatTime(s.Cell.Hidden(state, batch), seqLen)
			emit := s.Attention.energies(feats, hidden, batch*seqLen)
			emitMat := &anydiff.Matrix{Data: emit, Rows: seqLen, Cols: batch}
			alpha := anyocr.Softmax.Apply(anydiff.Transpose(emitMat).Data, batch)
			if training {
				alpha = s.Warper.Apply(alpha, batch)
			}
			alpha = s.Attention.trace(alpha, batch)
			weights = alpha
			alphaMat := &anydiff.Matrix{Data: alpha, Rows: batch, Cols: seqLen}
			timeMajor := anydiff.Transpose(alphaMat).Data
			context := s.Attention.timeContext(feats, timeMajor, batch, seqLen)
			cellIn := anyocr.ConcatMixer{}.Mix(context, prev, batch)
			return s.Cell.Apply(cellIn, state, batch)
		})
	})
	return &StepResult{State: newState, Weights: weights}
}

// Parameters returns the attention parameters followed by
// the cell parameters.
func (s *SingleStep) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(s.Attention, s.Cell)
}

// SerializerType returns the unique ID used to serialize
// a SingleStep with the serializer package.
func (s *SingleStep) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyattn.SingleStep"
}

// Serialize serializes the step.
// The warper's random source is not saved.
func (s *SingleStep) Serialize() ([]byte, error) {
	return serializer.SerializeAny(s.Attention, s.Cell)
}
