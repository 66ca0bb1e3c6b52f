package anyocr

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var f FC
	serializer.RegisterTypedDeserializer(f.SerializerType(), DeserializeFC)
}

// FC is a fully-connected layer.
//
// The attention projections are bias-free, so Biases may
// be nil, in which case the layer is purely linear.
type FC struct {
	InCount  int
	OutCount int
	Weights  *anydiff.Var
	Biases   *anydiff.Var
}

// DeserializeFC attempts to deserialize an FC.
func DeserializeFC(d []byte) (*FC, error) {
	var inCount, outCount serializer.Int
	var weights, biases *anyvecsave.S
	err := serializer.DeserializeAny(d, &inCount, &outCount, &weights, &biases)
	if err != nil {
		return nil, essentials.AddCtx("deserialize FC", err)
	}
	if int(inCount*outCount) != weights.Vector.Len() {
		return nil, errors.New("deserialize FC: invalid matrix dimensions")
	}
	res := &FC{
		InCount:  int(inCount),
		OutCount: int(outCount),
		Weights:  anydiff.NewVar(weights.Vector),
	}
	switch biases.Vector.Len() {
	case 0:
	case res.OutCount:
		res.Biases = anydiff.NewVar(biases.Vector)
	default:
		return nil, errors.New("deserialize FC: invalid bias count")
	}
	return res, nil
}

// NewFC creates a new, randomized FC.
// The randomization scheme targets an output variance of
// 1, given that the input variance is 1.
//
// If r is nil, the global source of randomness is used.
func NewFC(c anyvec.Creator, in, out int, r *rand.Rand) *FC {
	res := NewFCZero(c, in, out)
	anyvec.Rand(res.Weights.Vector, anyvec.Normal, r)
	res.Weights.Vector.Scale(c.MakeNumeric(1 / math.Sqrt(float64(in))))
	return res
}

// NewFCUnbiased is like NewFC, but the result has no
// biases.
func NewFCUnbiased(c anyvec.Creator, in, out int, r *rand.Rand) *FC {
	res := NewFC(c, in, out, r)
	res.Biases = nil
	return res
}

// NewFCZero creates a new, zero'd out FC.
func NewFCZero(c anyvec.Creator, in, out int) *FC {
	return &FC{
		InCount:  in,
		OutCount: out,
		Weights:  anydiff.NewVar(c.MakeVector(in * out)),
		Biases:   anydiff.NewVar(c.MakeVector(out)),
	}
}

// Apply applies the fully-connected layer to a batch of
// inputs.
func (f *FC) Apply(in anydiff.Res, batch int) anydiff.Res {
	if batch*f.InCount != in.Output().Len() {
		panic(fmt.Sprintf("input length should be %d, but got %d",
			batch*f.InCount, in.Output().Len()))
	}
	weightMat := &anydiff.Matrix{
		Data: f.Weights,
		Rows: f.OutCount,
		Cols: f.InCount,
	}
	inMat := &anydiff.Matrix{
		Data: in,
		Rows: batch,
		Cols: f.InCount,
	}
	weighted := anydiff.MatMul(false, true, inMat, weightMat)
	if f.Biases == nil {
		return weighted.Data
	}
	return anydiff.AddRepeated(weighted.Data, f.Biases)
}

// Parameters returns a slice containing the weights
// and the biases (if present), in that order.
func (f *FC) Parameters() []*anydiff.Var {
	if f.Biases == nil {
		return []*anydiff.Var{f.Weights}
	}
	return []*anydiff.Var{f.Weights, f.Biases}
}

// SerializerType returns the unique ID used to serialize
// an FC with the serializer package.
func (f *FC) SerializerType() string {
	return "github.com/unixpickle/anyocr.FC"
}

// Serialize serializes the FC.
// A missing bias is stored as an empty vector.
func (f *FC) Serialize() ([]byte, error) {
	biasVec := f.Weights.Vector.Creator().MakeVector(0)
	if f.Biases != nil {
		biasVec = f.Biases.Vector
	}
	return serializer.SerializeAny(
		serializer.Int(f.InCount),
		serializer.Int(f.OutCount),
		&anyvecsave.S{Vector: f.Weights.Vector},
		&anyvecsave.S{Vector: biasVec},
	)
}
