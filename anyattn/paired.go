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
	var p PairedStep
	serializer.RegisterTypedDeserializer(p.SerializerType(), DeserializePairedStep)
}

// PairedStep is a Step which reads batch-major features
// and updates an LSTM with (hidden, memory) states.
type PairedStep struct {
	Attention *Attention
	Cell      *anyrnn.LSTM
}

// DeserializePairedStep deserializes a PairedStep.
func DeserializePairedStep(d []byte) (*PairedStep, error) {
	var res PairedStep
	if err := serializer.DeserializeAny(d, &res.Attention, &res.Cell); err != nil {
		return nil, essentials.AddCtx("deserialize PairedStep", err)
	}
	return &res, nil
}

// NewPairedStep creates a randomized PairedStep.
//
// The LSTM reads the context concatenated with an
// embedding of embedSize components.
func NewPairedStep(c anyvec.Creator, featSize, hidden, embedSize int,
	r *rand.Rand) *PairedStep {
	return &PairedStep{
		Attention: NewAttention(c, featSize, hidden, r),
		Cell:      anyrnn.NewLSTM(c, featSize+embedSize, hidden, r),
	}
}

// Start returns zero (hidden, memory) states.
func (p *PairedStep) Start(n int) anydiff.Res {
	return p.Cell.Start(n)
}

// Hidden returns the hidden half of the states.
func (p *PairedStep) Hidden(state anydiff.Res, n int) anydiff.Res {
	return p.Cell.Hidden(state, n)
}

// Step performs a timestep.
//
// The features are packed as (batch, T, C), and the
// weights are normalized over T for each sequence.
func (p *PairedStep) Step(state, feats, prev anydiff.Res, batch int,
	training bool) *StepResult {
	seqLen := p.Attention.seqLen(feats, batch)
	checkPrev(prev, batch, p.Cell.InSize()-p.Attention.Channels)

	var weights anydiff.Res
	newState := anydiff.Pool(feats, func(feats anydiff.Res) anydiff.Res {
		return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
			hidden := repeatBatch(p.Cell.Hidden(state, batch), batch, seqLen)
			emit := p.Attention.energies(feats, hidden, batch*seqLen)
			alpha := anyocr.Softmax.Apply(emit, batch)
			alpha = p.Attention.trace(alpha, batch)
			weights = alpha
			context := p.Attention.batchContext(feats, alpha, batch, seqLen)
			cellIn := anyocr.ConcatMixer{}.Mix(context, prev, batch)
			return p.Cell.Apply(cellIn, state, batch)
		})
	})
	return &StepResult{State: newState, Weights: weights}
}

// Parameters returns the attention parameters followed by
// the cell parameters.
func (p *PairedStep) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(p.Attention, p.Cell)
}

// SerializerType returns the unique ID used to serialize
// a PairedStep with the serializer package.
func (p *PairedStep) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyattn.PairedStep"
}

// Serialize serializes the step.
func (p *PairedStep) Serialize() ([]byte, error) {
	return serializer.SerializeAny(p.Attention, p.Cell)
}
