package anyattn

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyocr/anylabel"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/serializer"
)

func TestConfigValidate(t *testing.T) {
	good := Config{FeatureSize: 3, HiddenSize: 4, NumClasses: 5, Cell: Single}
	if err := good.Validate(); err != nil {
		t.Error(err)
	}
	bad := []Config{
		{FeatureSize: 0, HiddenSize: 4, NumClasses: 5},
		{FeatureSize: 3, HiddenSize: -1, NumClasses: 5},
		{FeatureSize: 3, HiddenSize: 4, NumClasses: 0},
		{FeatureSize: 3, HiddenSize: 4, NumClasses: 5, Cell: CellKind(7)},
	}
	for i, cfg := range bad {
		if cfg.Validate() == nil {
			t.Errorf("config %d: expected error", i)
		}
		if _, err := NewDecoder(anyvec64.CurrentCreator(), cfg, nil); err == nil {
			t.Errorf("config %d: expected decoder error", i)
		}
	}
}

func TestOneHot(t *testing.T) {
	c := anyvec64.CurrentCreator()
	actual := OneHot(c, []int{2, 0}, 3).Output().Data().([]float64)
	expected := []float64{0, 0, 1, 1, 0, 0}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	OneHot(c, []int{3}, 3)
}

func TestMaxOneHot(t *testing.T) {
	c := anyvec64.CurrentCreator()
	scores := c.MakeVectorData([]float64{
		0.5, -1, 3,
		7, 2, 6.5,
	})
	actual := MaxOneHot(scores, 2).Output().Data().([]float64)
	expected := []float64{0, 0, 1, 1, 0, 0}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestDecoderTokens(t *testing.T) {
	d := testDecoder(t, Paired)
	c := anyvec64.CurrentCreator()
	// Two sequences of two steps with five classes.
	probs := anydiff.NewConst(c.MakeVectorData([]float64{
		0, 1, 2, 3, 4,
		9, 1, 2, 3, 4,
		0, 5, 2, 3, 4,
		-1, -2, -0.5, -3, -4,
	}))
	actual := d.Tokens(probs, 2)
	expected := [][]int{{4, 0}, {1, 2}}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestDecoderOutputSize(t *testing.T) {
	for _, kind := range []CellKind{Paired, Single} {
		for _, batch := range []int{1, 3} {
			d := testDecoder(t, kind)
			feats := randomConst(anyvec64.CurrentCreator(), batch*4*3, nil)
			out := d.Decode(feats, batch, nil, false, 5)
			if out.Output().Len() != batch*6*d.NumClasses() {
				t.Errorf("%v, batch %d: bad output length %d", kind, batch,
					out.Output().Len())
			}
			tokens := d.Tokens(out, batch)
			if len(tokens) != batch || len(tokens[0]) != 6 {
				t.Errorf("%v, batch %d: bad token shape", kind, batch)
			}
		}
	}
}

func TestDecoderDeterminism(t *testing.T) {
	for _, kind := range []CellKind{Paired, Single} {
		d := testDecoder(t, kind)
		feats := randomConst(anyvec64.CurrentCreator(), 2*4*3, nil)
		out1 := d.Decode(feats, 2, nil, false, 4).Output().Data().([]float64)
		out2 := d.Decode(feats, 2, nil, false, 4).Output().Data().([]float64)
		if !reflect.DeepEqual(out1, out2) {
			t.Errorf("%v: outputs differ", kind)
		}
	}
}

// With its own predictions as teacher tokens, training mode
// should reproduce greedy decoding.
func TestDecoderTeacherForcing(t *testing.T) {
	for _, kind := range []CellKind{Paired, Single} {
		for _, batch := range []int{1, 2} {
			d := testDecoder(t, kind)
			if s, ok := d.Step.(*SingleStep); ok {
				s.Warper.Rand = rand.New(constSource(0))
			}
			maxLen := 3
			feats := randomConst(anyvec64.CurrentCreator(), batch*4*3, nil)
			inferred := d.Decode(feats, batch, nil, false, maxLen)
			var rows [][]int
			for _, tokens := range d.Tokens(inferred, batch) {
				rows = append(rows, append([]int{0}, tokens[:maxLen]...))
			}
			trained := d.Decode(feats, batch, anylabel.RowsBatch(rows), true, maxLen)

			expected := inferred.Output().Data().([]float64)
			actual := trained.Output().Data().([]float64)
			for i, x := range expected {
				if math.Abs(actual[i]-x) > 1e-8 {
					t.Errorf("%v, batch %d: score %d should be %f but got %f",
						kind, batch, i, x, actual[i])
					break
				}
			}
		}
	}
}

func TestDecoderTeacherCodec(t *testing.T) {
	codec, err := anylabel.NewAttnCodec("abc")
	if err != nil {
		t.Fatal(err)
	}
	c := anyvec64.CurrentCreator()
	d, err := NewDecoder(c, Config{
		FeatureSize: 2,
		HiddenSize:  3,
		NumClasses:  codec.NumClasses(),
		Cell:        Paired,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	teacher, err := codec.Encode([]string{"ab", "cab"}, 4)
	if err != nil {
		t.Fatal(err)
	}
	out := d.Decode(randomConst(c, 2*3*2, nil), 2, teacher, true, 4)
	if out.Output().Len() != 2*5*codec.NumClasses() {
		t.Errorf("bad output length: %d", out.Output().Len())
	}
	decoded := codec.Decode(anylabel.RowsBatch(d.Tokens(out, 2)))
	if len(decoded) != 2 {
		t.Errorf("expected 2 labels but got %d", len(decoded))
	}
}

func TestDecoderPanics(t *testing.T) {
	d := testDecoder(t, Paired)
	feats := randomConst(anyvec64.CurrentCreator(), 2*4*3, nil)
	cases := map[string]*anylabel.Batch{
		"nil":    nil,
		"narrow": anylabel.RowsBatch([][]int{{0, 1}, {0, 2}}),
		"rows":   anylabel.RowsBatch([][]int{{0, 1, 2, 3}}),
	}
	for name, teacher := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			d.Decode(feats, 2, teacher, true, 3)
		}()
	}
}

func TestDecoderProp(t *testing.T) {
	c := anyvec64.CurrentCreator()
	for _, kind := range []CellKind{Paired, Single} {
		d, err := NewDecoder(c, Config{
			FeatureSize: 2,
			HiddenSize:  3,
			NumClasses:  4,
			Cell:        kind,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if s, ok := d.Step.(*SingleStep); ok {
			s.Warper.Rand = rand.New(constSource(1 << 62))
		}
		feats := anydiff.NewVar(randomConst(c, 2*5*2, nil).Output())
		teacher := anylabel.RowsBatch([][]int{{0, 2, 3}, {0, 1, 1}})
		checker := &anydifftest.ResChecker{
			F: func() anydiff.Res {
				return d.Decode(feats, 2, teacher, true, 2)
			},
			V: append([]*anydiff.Var{feats}, d.Parameters()...),
		}
		checker.FullCheck(t)
	}
}

func TestDecoderSerialize(t *testing.T) {
	for _, kind := range []CellKind{Paired, Single} {
		d := testDecoder(t, kind)
		data, err := serializer.SerializeAny(d)
		if err != nil {
			t.Fatal(err)
		}
		var newDecoder *Decoder
		if err := serializer.DeserializeAny(data, &newDecoder); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(newDecoder, d) {
			t.Errorf("%v: bad deserialized value", kind)
		}
	}
}

func testDecoder(t *testing.T, kind CellKind) *Decoder {
	d, err := NewDecoder(anyvec64.CurrentCreator(), Config{
		FeatureSize: 3,
		HiddenSize:  4,
		NumClasses:  5,
		Cell:        kind,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
