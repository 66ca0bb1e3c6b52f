package anyrnn

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

const lstmRememberBias = 1

func init() {
	var lstm LSTM
	serializer.RegisterTypedDeserializer(lstm.SerializerType(), DeserializeLSTM)
}

// LSTM is a long short-term memory cell with a paired
// (hidden, memory) state.
//
// For a batch of n sequences, the state is packed as the n
// hidden vectors followed by the n memory vectors.
type LSTM struct {
	InValue  *Gate
	In       *Gate
	Remember *Gate
	Output   *Gate
}

// DeserializeLSTM deserializes an LSTM.
func DeserializeLSTM(d []byte) (*LSTM, error) {
	var res LSTM
	err := serializer.DeserializeAny(d, &res.InValue, &res.In, &res.Remember, &res.Output)
	if err != nil {
		return nil, essentials.AddCtx("deserialize LSTM", err)
	}
	return &res, nil
}

// NewLSTM creates a new, randomized LSTM.
//
// The remember gates of the LSTM are initially biased to
// remember things.
func NewLSTM(c anyvec.Creator, in, hidden int, r *rand.Rand) *LSTM {
	res := &LSTM{
		InValue:  NewGate(c, in, hidden, anyocr.Tanh, r),
		In:       NewGate(c, in, hidden, anyocr.Sigmoid, r),
		Remember: NewGate(c, in, hidden, anyocr.Sigmoid, r),
		Output:   NewGate(c, in, hidden, anyocr.Sigmoid, r),
	}
	bias := make([]float64, hidden)
	for i := range bias {
		bias[i] = lstmRememberBias
	}
	res.Remember.Input.Biases.Vector.Add(c.MakeVectorData(c.MakeNumericList(bias)))
	return res
}

// NewLSTMZero creates a zero'd LSTM.
func NewLSTMZero(c anyvec.Creator, in, hidden int) *LSTM {
	return &LSTM{
		InValue:  NewGateZero(c, in, hidden, anyocr.Tanh),
		In:       NewGateZero(c, in, hidden, anyocr.Sigmoid),
		Remember: NewGateZero(c, in, hidden, anyocr.Sigmoid),
		Output:   NewGateZero(c, in, hidden, anyocr.Sigmoid),
	}
}

// InSize returns the input size.
func (l *LSTM) InSize() int {
	return l.In.Input.InCount
}

// HiddenSize returns the size of the hidden and memory
// vectors.
func (l *LSTM) HiddenSize() int {
	return l.In.Input.OutCount
}

// StateSize returns twice the hidden size.
func (l *LSTM) StateSize() int {
	return 2 * l.HiddenSize()
}

// Start returns zero hidden and memory vectors.
func (l *LSTM) Start(n int) anydiff.Res {
	c := l.In.Input.Weights.Vector.Creator()
	return anydiff.NewConst(c.MakeVector(n * l.StateSize()))
}

// Hidden returns the hidden half of the packed states.
func (l *LSTM) Hidden(state anydiff.Res, n int) anydiff.Res {
	return anydiff.Slice(state, 0, n*l.HiddenSize())
}

// Memory returns the memory half of the packed states.
func (l *LSTM) Memory(state anydiff.Res, n int) anydiff.Res {
	return anydiff.Slice(state, n*l.HiddenSize(), n*l.StateSize())
}

// Apply performs one timestep.
func (l *LSTM) Apply(in, state anydiff.Res, n int) anydiff.Res {
	checkSizes(l, in, state, n)
	return anydiff.Pool(in, func(in anydiff.Res) anydiff.Res {
		return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
			hidden := l.Hidden(state, n)
			inVal := l.InValue.Apply(in, hidden, n)
			inGate := l.In.Apply(in, hidden, n)
			remGate := l.Remember.Apply(in, hidden, n)
			outGate := l.Output.Apply(in, hidden, n)
			memory := anydiff.Add(
				anydiff.Mul(remGate, l.Memory(state, n)),
				anydiff.Mul(inGate, inVal),
			)
			return anydiff.Pool(memory, func(memory anydiff.Res) anydiff.Res {
				return anydiff.Concat(anydiff.Mul(outGate, anydiff.Tanh(memory)), memory)
			})
		})
	})
}

// Parameters returns the parameters of the cell.
func (l *LSTM) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(l.InValue, l.In, l.Remember, l.Output)
}

// SerializerType returns the unique ID used to serialize
// an LSTM with the serializer package.
func (l *LSTM) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyrnn.LSTM"
}

// Serialize serializes the LSTM.
func (l *LSTM) Serialize() ([]byte, error) {
	return serializer.SerializeAny(l.InValue, l.In, l.Remember, l.Output)
}
