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
	var g Gate
	serializer.RegisterTypedDeserializer(g.SerializerType(), DeserializeGate)
}

// A Gate computes
//
//	a(Wi*input + Ws*hidden + b)
//
// where a is an activation function, Wi and b come from
// Input, and Ws comes from State.
type Gate struct {
	Input      *anyocr.FC
	State      *anyocr.FC
	Activation anyocr.Layer
}

// DeserializeGate deserializes a Gate.
func DeserializeGate(d []byte) (*Gate, error) {
	var res Gate
	if err := serializer.DeserializeAny(d, &res.Input, &res.State, &res.Activation); err != nil {
		return nil, essentials.AddCtx("deserialize Gate", err)
	}
	return &res, nil
}

// NewGate creates a randomized gate.
func NewGate(c anyvec.Creator, in, hidden int, activation anyocr.Layer, r *rand.Rand) *Gate {
	return &Gate{
		Input:      anyocr.NewFC(c, in, hidden, r),
		State:      anyocr.NewFCUnbiased(c, hidden, hidden, r),
		Activation: activation,
	}
}

// NewGateZero creates a zero'd gate.
func NewGateZero(c anyvec.Creator, in, hidden int, activation anyocr.Layer) *Gate {
	state := anyocr.NewFCZero(c, hidden, hidden)
	state.Biases = nil
	return &Gate{
		Input:      anyocr.NewFCZero(c, in, hidden),
		State:      state,
		Activation: activation,
	}
}

// Apply evaluates the gate for a batch of n inputs and
// hidden vectors.
func (g *Gate) Apply(in, hidden anydiff.Res, n int) anydiff.Res {
	sum := anydiff.Add(g.Input.Apply(in, n), g.State.Apply(hidden, n))
	return g.Activation.Apply(sum, n)
}

// Parameters returns the input parameters followed by the
// state parameters.
func (g *Gate) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(g.Input, g.State, g.Activation)
}

// SerializerType returns the unique ID used to serialize
// a Gate with the serializer package.
func (g *Gate) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyrnn.Gate"
}

// Serialize serializes the gate.
func (g *Gate) Serialize() ([]byte, error) {
	return serializer.SerializeAny(g.Input, g.State, g.Activation)
}
