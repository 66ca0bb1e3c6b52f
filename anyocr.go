// Package anyocr provides the building blocks for the
// decoding side of a scene-text recognizer.
//
// The root package contains generic differentiable layers
// which the attention decoder (see anyattn) is assembled
// from, along with small training utilities.
// Label formats live in anylabel, and recurrent cells live
// in anyrnn.
package anyocr

import "github.com/unixpickle/anydiff"

// A Parameterizer is anything with learnable variables.
//
// The parameters of a Parameterizer must be in the same
// order every time Parameters() is called.
type Parameterizer interface {
	Parameters() []*anydiff.Var
}

// A Layer is a batched, differentiable transformation.
//
// The input's length must be divisible by the batch size,
// since the batch size indicates how many equally-long
// vectors are packed into the input vector.
type Layer interface {
	Apply(in anydiff.Res, batchSize int) anydiff.Res
}

// AllParameters collects the parameters of every object
// which implements Parameterizer.
// Other objects are ignored.
func AllParameters(objs ...interface{}) []*anydiff.Var {
	var res []*anydiff.Var
	for _, x := range objs {
		if p, ok := x.(Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}
