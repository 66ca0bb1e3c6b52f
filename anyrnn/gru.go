package anyrnn

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var g GRU
	serializer.RegisterTypedDeserializer(g.SerializerType(), DeserializeGRU)
}

// GRU is a gated recurrent unit with a single vector
// state, which is also its hidden vector.
//
// A timestep computes
//
//	r := sigmoid(Wir*x + Whr*h + br)
//	z := sigmoid(Wiz*x + Whz*h + bz)
//	v := tanh(Wiv*x + biv + r*(Whv*h + bhv))
//	h' := (1-z)*v + z*h
type GRU struct {
	Reset  *Gate
	Update *Gate

	// InValue and StateValue produce the two halves of the
	// candidate activation.
	// Both carry biases.
	InValue    *anyocr.FC
	StateValue *anyocr.FC
}

// DeserializeGRU deserializes a GRU.
func DeserializeGRU(d []byte) (*GRU, error) {
	var res GRU
	err := serializer.DeserializeAny(d, &res.Reset, &res.Update, &res.InValue,
		&res.StateValue)
	if err != nil {
		return nil, essentials.AddCtx("deserialize GRU", err)
	}
	return &res, nil
}

// NewGRU creates a new, randomized GRU.
func NewGRU(c anyvec.Creator, in, hidden int, r *rand.Rand) *GRU {
	return &GRU{
		Reset:      NewGate(c, in, hidden, anyocr.Sigmoid, r),
		Update:     NewGate(c, in, hidden, anyocr.Sigmoid, r),
		InValue:    anyocr.NewFC(c, in, hidden, r),
		StateValue: anyocr.NewFC(c, hidden, hidden, r),
	}
}

// NewGRUZero creates a zero'd GRU.
func NewGRUZero(c anyvec.Creator, in, hidden int) *GRU {
	return &GRU{
		Reset:      NewGateZero(c, in, hidden, anyocr.Sigmoid),
		Update:     NewGateZero(c, in, hidden, anyocr.Sigmoid),
		InValue:    anyocr.NewFCZero(c, in, hidden),
		StateValue: anyocr.NewFCZero(c, hidden, hidden),
	}
}

// InSize returns the input size.
func (g *GRU) InSize() int {
	return g.InValue.InCount
}

// HiddenSize returns the state size.
func (g *GRU) HiddenSize() int {
	return g.InValue.OutCount
}

// StateSize is equal to HiddenSize.
func (g *GRU) StateSize() int {
	return g.HiddenSize()
}

// Start returns zero states.
func (g *GRU) Start(n int) anydiff.Res {
	c := g.InValue.Weights.Vector.Creator()
	return anydiff.NewConst(c.MakeVector(n * g.StateSize()))
}

// Hidden returns the state unchanged.
func (g *GRU) Hidden(state anydiff.Res, n int) anydiff.Res {
	return state
}

// Apply performs one timestep.
func (g *GRU) Apply(in, state anydiff.Res, n int) anydiff.Res {
	checkSizes(g, in, state, n)
	return anydiff.Pool(in, func(in anydiff.Res) anydiff.Res {
		return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
			reset := g.Reset.Apply(in, state, n)
			candidate := anydiff.Tanh(anydiff.Add(
				g.InValue.Apply(in, n),
				anydiff.Mul(reset, g.StateValue.Apply(state, n)),
			))
			update := g.Update.Apply(in, state, n)
			return anydiff.Pool(update, func(update anydiff.Res) anydiff.Res {
				return anydiff.Add(
					anydiff.Mul(anydiff.Complement(update), candidate),
					anydiff.Mul(update, state),
				)
			})
		})
	})
}

// Parameters returns the parameters of the cell.
func (g *GRU) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(g.Reset, g.Update, g.InValue, g.StateValue)
}

// SerializerType returns the unique ID used to serialize
// a GRU with the serializer package.
func (g *GRU) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyrnn.GRU"
}

// Serialize serializes the GRU.
func (g *GRU) Serialize() ([]byte, error) {
	return serializer.SerializeAny(g.Reset, g.Update, g.InValue, g.StateValue)
}
