package anyrnn

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestLSTMZeroOutput(t *testing.T) {
	c := anyvec64.CurrentCreator()
	cell := NewLSTMZero(c, 2, 2)
	in := anydiff.NewConst(c.MakeVectorData([]float64{1, -1}))
	state := anydiff.NewConst(c.MakeVectorData([]float64{0.3, -0.3, 2, -4}))

	// Every gate outputs 0.5 and the input value is 0, so
	// the memory is halved.
	actual := cell.Apply(in, state, 1).Output().Data().([]float64)
	expected := []float64{0.5 * math.Tanh(1), 0.5 * math.Tanh(-2), 1, -2}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-8 {
			t.Errorf("component %d: expected %f but got %f", i, x, actual[i])
		}
	}

	hidden := cell.Hidden(state, 1).Output().Data().([]float64)
	if hidden[0] != 0.3 || hidden[1] != -0.3 || len(hidden) != 2 {
		t.Errorf("unexpected hidden vector: %v", hidden)
	}
}

func TestLSTMStart(t *testing.T) {
	cell := NewLSTM(anyvec64.CurrentCreator(), 3, 4, nil)
	start := cell.Start(5).Output()
	if start.Len() != 5*8 {
		t.Fatalf("expected length 40 but got %d", start.Len())
	}
	if anyvec.AbsMax(start).(float64) != 0 {
		t.Error("start state should be zero")
	}
}

func TestLSTMProp(t *testing.T) {
	c := anyvec64.CurrentCreator()
	cell := NewLSTM(c, 3, 2, nil)
	if len(cell.Parameters()) != 12 {
		t.Errorf("expected 12 parameters, but got %d", len(cell.Parameters()))
	}
	in := randomVar(c, 3*2)
	state := randomVar(c, 4*2)
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			// Two timesteps, to check that states chain.
			next := cell.Apply(in, state, 2)
			return cell.Apply(in, next, 2)
		},
		V: append([]*anydiff.Var{in, state}, cell.Parameters()...),
	}
	checker.FullCheck(t)
}

func randomVar(c anyvec.Creator, n int) *anydiff.Var {
	v := c.MakeVector(n)
	anyvec.Rand(v, anyvec.Normal, nil)
	return anydiff.NewVar(v)
}
