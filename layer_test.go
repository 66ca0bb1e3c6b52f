package anyocr

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestFCUnbiasedOutput(t *testing.T) {
	fc := &FC{
		InCount:  3,
		OutCount: 2,
		Weights: anydiff.NewVar(anyvec32.MakeVectorData([]float32{
			1, 2, 3,
			-1, 0, 0.5,
		})),
	}
	in := anydiff.NewConst(anyvec32.MakeVectorData([]float32{
		1, 1, 1,
		2, -1, 0,
	}))
	actual := fc.Apply(in, 2).Output().Data().([]float32)
	expected := []float32{6, -0.5, 0, -2}
	for i, x := range expected {
		if math.Abs(float64(x-actual[i])) > 1e-5 {
			t.Errorf("component %d: expected %f but got %f", i, x, actual[i])
		}
	}
	if len(fc.Parameters()) != 1 {
		t.Errorf("expected 1 parameter but got %d", len(fc.Parameters()))
	}
}

func TestSoftmaxRows(t *testing.T) {
	in := anydiff.NewConst(anyvec64.MakeVectorData([]float64{
		0, 0, 0, 0,
		1, 2, 3, -50,
	}))
	actual := Softmax.Apply(in, 2).Output().Data().([]float64)
	for i := 0; i < 4; i++ {
		if math.Abs(actual[i]-0.25) > 1e-8 {
			t.Errorf("component %d: expected 0.25 but got %f", i, actual[i])
		}
	}
	var sum float64
	for _, x := range actual[4:] {
		if x < 0 {
			t.Errorf("negative probability: %f", x)
		}
		sum += x
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("second row sums to %f", sum)
	}
}

func TestConcatMixerOrder(t *testing.T) {
	in1 := anydiff.NewConst(anyvec32.MakeVectorData([]float32{1, 2, 3, 4}))
	in2 := anydiff.NewConst(anyvec32.MakeVectorData([]float32{-1, -2}))
	actual := ConcatMixer{}.Mix(in1, in2, 2).Output().Data().([]float32)
	expected := []float32{1, 2, -1, 3, 4, -2}
	for i, x := range expected {
		if actual[i] != x {
			t.Fatalf("expected %v but got %v", expected, actual)
		}
	}
	single := ConcatMixer{}.Mix(in1, in2, 1).Output().Data().([]float32)
	expected = []float32{1, 2, 3, 4, -1, -2}
	for i, x := range expected {
		if single[i] != x {
			t.Fatalf("expected %v but got %v", expected, single)
		}
	}
}

func TestAddMixerProp(t *testing.T) {
	c := anyvec64.CurrentCreator()
	mixer := &AddMixer{
		In1: NewFCUnbiased(c, 3, 2, nil),
		In2: NewFC(c, 2, 2, nil),
		Out: Tanh,
	}
	in1 := anydiff.NewVar(c.MakeVector(9))
	in2 := anydiff.NewVar(c.MakeVector(6))
	anyvec.Rand(in1.Vector, anyvec.Normal, nil)
	anyvec.Rand(in2.Vector, anyvec.Normal, nil)
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return ConcatMixer{}.Mix(mixer.Mix(in1, in2, 3), in2, 3)
		},
		V: append([]*anydiff.Var{in1, in2}, mixer.Parameters()...),
	}
	checker.FullCheck(t)
}

func TestDebugSums(t *testing.T) {
	var buf bytes.Buffer
	d := &Debug{Writer: &buf, ID: "alpha", PrintSums: true}
	in := anydiff.NewConst(anyvec32.MakeVectorData([]float32{0.5, 0.5, 0.25, 0.75}))
	if out := d.Apply(in, 2); out != in {
		t.Error("Debug should return its input")
	}
	if !strings.HasPrefix(buf.String(), "Debug (alpha): row sums: [1 1]") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
