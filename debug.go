package anyocr

import (
	"fmt"
	"io"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	serializer.RegisterTypedDeserializer((&Debug{}).SerializerType(), DeserializeDebug)
}

// Debug is a pass-through layer which prints statistics
// about the vectors flowing through it.
//
// It is typically attached as the Trace of an attention
// step, where PrintSums shows whether every row of
// attention weights adds up to one.
type Debug struct {
	// Writer to which stats are printed.
	// If nil, os.Stdout is used.
	Writer io.Writer

	ID        string
	PrintRaw  bool
	PrintSums bool
	PrintMean bool
}

// DeserializeDebug deserializes a Debug layer.
// The Writer will be nil.
func DeserializeDebug(d []byte) (*Debug, error) {
	var res Debug
	err := serializer.DeserializeAny(d, &res.ID, &res.PrintRaw, &res.PrintSums,
		&res.PrintMean)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Debug", err)
	}
	return &res, nil
}

// Apply prints information about its input.
// The input is returned, untouched.
func (d *Debug) Apply(in anydiff.Res, n int) anydiff.Res {
	if d.PrintRaw {
		d.println("batch of", n, "values:", in.Output().Data())
	}
	if d.PrintSums {
		d.println("row sums:", anyvec.SumCols(in.Output(), n).Data())
	}
	if d.PrintMean {
		cols := in.Output().Len() / n
		mean := anyvec.SumRows(in.Output(), cols)
		mean.Scale(mean.Creator().MakeNumeric(1 / float64(n)))
		d.println("mean:", mean.Data())
	}
	return in
}

// SerializerType returns the unique ID used to serialize
// a Debug layer with the serializer package.
func (d *Debug) SerializerType() string {
	return "github.com/unixpickle/anyocr.Debug"
}

// Serialize serializes the layer.
func (d *Debug) Serialize() ([]byte, error) {
	return serializer.SerializeAny(d.ID, d.PrintRaw, d.PrintSums, d.PrintMean)
}

func (d *Debug) println(args ...interface{}) {
	newArgs := append([]interface{}{"Debug (" + d.ID + "):"}, args...)
	if d.Writer == nil {
		fmt.Println(newArgs...)
	} else {
		fmt.Fprintln(d.Writer, newArgs...)
	}
}
