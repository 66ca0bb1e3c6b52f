package anyocr

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// An Averager keeps a running mean of every component
// passed to Add, e.g. to average a cost over many batches.
//
// The zero value is an empty Averager.
type Averager struct {
	sum   float64
	count int
}

// Add adds every component of v to the average.
func (a *Averager) Add(v anyvec.Vector) {
	a.sum += numericFloat(anyvec.Sum(v))
	a.count += v.Len()
}

// AddScalar adds a single value to the average.
func (a *Averager) AddScalar(x float64) {
	a.sum += x
	a.count++
}

// Val returns the mean of the added values, or 0 if
// nothing has been added since the last Reset.
func (a *Averager) Val() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Count returns the number of values that were added.
func (a *Averager) Count() int {
	return a.count
}

// Reset clears the sum and the count.
func (a *Averager) Reset() {
	a.sum = 0
	a.count = 0
}

func numericFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", n))
	}
}
