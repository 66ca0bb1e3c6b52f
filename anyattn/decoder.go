package anyattn

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
	"github.com/unixpickle/anyocr/anylabel"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var d Decoder
	serializer.RegisterTypedDeserializer(d.SerializerType(), DeserializeDecoder)
}

// A Decoder runs a Step for a fixed number of timesteps
// and projects the hidden vectors to class scores.
type Decoder struct {
	Step      Step
	Generator *anyocr.FC
}

// DeserializeDecoder deserializes a Decoder.
func DeserializeDecoder(d []byte) (*Decoder, error) {
	var res Decoder
	if err := serializer.DeserializeAny(d, &res.Step, &res.Generator); err != nil {
		return nil, essentials.AddCtx("deserialize Decoder", err)
	}
	return &res, nil
}

// NewDecoder creates a randomized Decoder.
//
// If r is nil, the global source of randomness is used for
// the initial parameters and for warping.
func NewDecoder(c anyvec.Creator, cfg Config, r *rand.Rand) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("new decoder", err)
	}
	var step Step
	switch cfg.Cell {
	case Paired:
		step = NewPairedStep(c, cfg.FeatureSize, cfg.HiddenSize, cfg.NumClasses, r)
	case Single:
		step = NewSingleStep(c, cfg.FeatureSize, cfg.HiddenSize, cfg.NumClasses, r)
	}
	return &Decoder{
		Step:      step,
		Generator: anyocr.NewFC(c, cfg.HiddenSize, cfg.NumClasses, r),
	}, nil
}

// NumClasses returns the number of scores per timestep.
func (d *Decoder) NumClasses() int {
	return d.Generator.OutCount
}

// Decode produces class scores for maxLen+1 timesteps.
//
// The result is packed as (batch, maxLen+1, NumClasses).
// Scores are unnormalized.
//
// In training mode, the previous token at step i is read
// from column i of the teacher batch, so the teacher must
// have at least maxLen+1 columns (e.g. the output of
// anylabel.AttnCodec.Encode).
// Otherwise, the teacher is ignored and decoding is
// greedy, starting from token 0.
// There is no early exit in either mode.
func (d *Decoder) Decode(feats anydiff.Res, batch int, teacher *anylabel.Batch,
	training bool, maxLen int) anydiff.Res {
	if batch <= 0 {
		panic("batch size must be positive")
	} else if maxLen < 0 {
		panic("maximum length must be non-negative")
	}
	steps := maxLen + 1
	if training {
		checkTeacher(teacher, batch, steps)
	}
	return anydiff.Pool(feats, func(feats anydiff.Res) anydiff.Res {
		start := d.Step.Start(batch)
		if training {
			hidden := d.unrollTeacher(feats, start, teacher, batch, 0, steps)
			ordered := batchMajor(hidden, batch, steps)
			return d.Generator.Apply(ordered, batch*steps)
		}
		c := feats.Output().Creator()
		prev := OneHot(c, make([]int, batch), d.NumClasses())
		scores := d.unrollGreedy(feats, start, prev, batch, 0, steps)
		return batchMajor(scores, batch, steps)
	})
}

// Tokens finds the arg-max token at every timestep of
// every sequence in the output of Decode.
func (d *Decoder) Tokens(probs anydiff.Res, batch int) [][]int {
	numClasses := d.NumClasses()
	if probs.Output().Len()%(batch*numClasses) != 0 {
		panic(fmt.Sprintf("score length %d is not a multiple of %d",
			probs.Output().Len(), batch*numClasses))
	}
	steps := probs.Output().Len() / (batch * numClasses)
	res := make([][]int, batch)
	for i := range res {
		res[i] = make([]int, steps)
		for j := range res[i] {
			start := (i*steps + j) * numClasses
			res[i][j] = anyvec.MaxIndex(probs.Output().Slice(start, start+numClasses))
		}
	}
	return res
}

// Parameters returns the step parameters followed by the
// generator parameters.
func (d *Decoder) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(d.Step, d.Generator)
}

// SerializerType returns the unique ID used to serialize
// a Decoder with the serializer package.
func (d *Decoder) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyattn.Decoder"
}

// Serialize serializes the decoder.
// The step must implement serializer.Serializer.
func (d *Decoder) Serialize() ([]byte, error) {
	s, ok := d.Step.(serializer.Serializer)
	if !ok {
		return nil, fmt.Errorf("serialize Decoder: not a Serializer: %T", d.Step)
	}
	return serializer.SerializeAny(s, d.Generator)
}

// unrollTeacher produces the hidden vectors of the steps
// [step, steps), ordered by timestep.
func (d *Decoder) unrollTeacher(feats, state anydiff.Res, teacher *anylabel.Batch,
	batch, step, steps int) anydiff.Res {
	c := feats.Output().Creator()
	prev := OneHot(c, teacher.Column(step), d.NumClasses())
	res := d.Step.Step(state, feats, prev, batch, true)
	return anydiff.Pool(res.State, func(state anydiff.Res) anydiff.Res {
		hidden := d.Step.Hidden(state, batch)
		if step+1 == steps {
			return hidden
		}
		rest := d.unrollTeacher(feats, state, teacher, batch, step+1, steps)
		return anydiff.Concat(hidden, rest)
	})
}

// unrollGreedy produces the scores of the steps
// [step, steps), ordered by timestep.
//
// The next previous-token vectors mark the arg-max of each
// step's scores.
func (d *Decoder) unrollGreedy(feats, state, prev anydiff.Res,
	batch, step, steps int) anydiff.Res {
	res := d.Step.Step(state, feats, prev, batch, false)
	return anydiff.Pool(res.State, func(state anydiff.Res) anydiff.Res {
		scores := d.Generator.Apply(d.Step.Hidden(state, batch), batch)
		if step+1 == steps {
			return scores
		}
		next := MaxOneHot(scores.Output(), batch)
		return anydiff.Pool(scores, func(scores anydiff.Res) anydiff.Res {
			rest := d.unrollGreedy(feats, state, next, batch, step+1, steps)
			return anydiff.Concat(scores, rest)
		})
	})
}

func checkTeacher(teacher *anylabel.Batch, batch, steps int) {
	if teacher == nil {
		panic("training requires teacher tokens")
	} else if teacher.Width < steps {
		panic(fmt.Sprintf("teacher width %d is less than step count %d",
			teacher.Width, steps))
	} else if teacher.NumRows() != batch {
		panic(fmt.Sprintf("teacher has %d rows but batch size is %d",
			teacher.NumRows(), batch))
	}
}

// batchMajor reorders a packed (steps, batch, N) tensor
// into a (batch, steps, N) tensor.
func batchMajor(in anydiff.Res, batch, steps int) anydiff.Res {
	if batch == 1 || steps == 1 {
		return in
	}
	size := in.Output().Len() / (batch * steps)
	return anydiff.Pool(in, func(in anydiff.Res) anydiff.Res {
		var parts []anydiff.Res
		for b := 0; b < batch; b++ {
			for t := 0; t < steps; t++ {
				start := (t*batch + b) * size
				parts = append(parts, anydiff.Slice(in, start, start+size))
			}
		}
		return anydiff.Concat(parts...)
	})
}
