package anyattn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

// constSource always produces the same number.
// A value of 1<<62 makes Float64() return 0.5.
type constSource int64

func (c constSource) Int63() int64 {
	return int64(c)
}

func (c constSource) Seed(int64) {}

func TestWarperBoundary(t *testing.T) {
	c := anyvec64.CurrentCreator()
	in := anydiff.NewConst(c.MakeVectorData([]float64{1, 2, 3, 4, 5, 6}))
	for _, src := range []constSource{0, 1<<63 - 1<<53} {
		w := &Warper{Rand: rand.New(src)}
		coords, perturbed := w.Coords(3)
		if perturbed {
			t.Errorf("source %d: unexpected perturbation", src)
		}
		expected := []float64{-1, 0, 1}
		for i, x := range expected {
			if coords[i] != x {
				t.Errorf("source %d: coordinate %d should be %f but got %f",
					src, i, x, coords[i])
			}
		}
		if w.Apply(in, 2) != in {
			t.Errorf("source %d: input should be returned as-is", src)
		}
	}
}

func TestWarperSmallWidth(t *testing.T) {
	w := &Warper{Rand: rand.New(constSource(1 << 62))}
	for width := 1; width < 3; width++ {
		coords, perturbed := w.Coords(width)
		if perturbed || len(coords) != width {
			t.Errorf("width %d: got %v (perturbed=%v)", width, coords, perturbed)
		}
	}
}

func TestWarperInterior(t *testing.T) {
	w := &Warper{Rand: rand.New(constSource(1 << 62))}
	coords, perturbed := w.Coords(5)
	if !perturbed {
		t.Fatal("expected perturbation")
	}
	expectedCoords := []float64{-1, -0.4375, -0.0625, 0.5, 1}
	for i, x := range expectedCoords {
		if math.Abs(coords[i]-x) > 1e-8 {
			t.Errorf("coordinate %d should be %f but got %f", i, x, coords[i])
		}
	}

	c := anyvec64.CurrentCreator()
	in := anydiff.NewConst(c.MakeVectorData([]float64{
		1, 2, 4, 8, 16,
		0, 0, 1, 0, 0,
	}))
	actual := w.Apply(in, 2).Output().Data().([]float64)
	expected := []float64{
		1, 2.25, 3.75, 8, 16,
		0, 0.125, 0.875, 0, 0,
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-8 {
			t.Errorf("output %d should be %f but got %f", i, x, actual[i])
		}
	}
}

func TestWarperProp(t *testing.T) {
	c := anyvec64.CurrentCreator()
	in := anydiff.NewVar(c.MakeVectorData([]float64{
		0.1, 0.2, 0.3, 0.1, 0.2, 0.1,
		0.5, 0.1, 0.1, 0.1, 0.1, 0.1,
	}))
	w := &Warper{Rand: rand.New(constSource(1 << 62))}
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return w.Apply(in, 2)
		},
		V: []*anydiff.Var{in},
	}
	checker.FullCheck(t)
}
