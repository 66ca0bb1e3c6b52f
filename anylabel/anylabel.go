// Package anylabel converts between label strings and the
// token indices consumed and produced by recognizers.
//
// A CTCCodec reserves index 0 for the blank symbol.
// An AttnCodec reserves index 0 for the start token and
// index 1 for the end token.
// In both cases, characters take the remaining indices in
// the order they appear in the character set.
package anylabel

import (
	"fmt"
	"strings"
)

// Names of the reserved tokens, as produced by the
// decoders.
const (
	BlankToken = "[blank]"
	StartToken = "[GO]"
	EndToken   = "[s]"
)

// Indices of the reserved tokens.
const (
	BlankIndex = 0
	StartIndex = 0
	EndIndex   = 1
)

// A Codec encodes batches of labels as token indices and
// decodes batches of token indices back to labels.
type Codec interface {
	// NumClasses returns the vocabulary size, including
	// reserved tokens.
	NumClasses() int

	// Encode converts labels to a batch of indices.
	// The maxLen argument is the longest label length the
	// caller will decode for.
	Encode(labels []string, maxLen int) (*Batch, error)

	// Decode converts a batch of indices to labels.
	Decode(b *Batch) []string
}

// A Batch is a batch of token index sequences.
//
// If Width is 0, the batch is flat: the sequences are
// concatenated and Lengths gives each sequence's length.
// Otherwise, Indices is a row-major matrix with Width
// columns, and Lengths gives the number of meaningful
// entries in each row.
type Batch struct {
	Indices []int
	Lengths []int
	Width   int
}

// RowsBatch creates a padded batch from equally long
// rows.
// Each length is set to the full row width.
func RowsBatch(rows [][]int) *Batch {
	res := &Batch{}
	for i, row := range rows {
		if i == 0 {
			res.Width = len(row)
		} else if len(row) != res.Width {
			panic("rows must have the same length")
		}
		res.Indices = append(res.Indices, row...)
		res.Lengths = append(res.Lengths, len(row))
	}
	return res
}

// NumRows returns the number of sequences in the batch.
func (b *Batch) NumRows() int {
	return len(b.Lengths)
}

// Row returns the i-th sequence.
//
// For a padded batch, the whole row is returned, including
// padding.
func (b *Batch) Row(i int) []int {
	if b.Width == 0 {
		var start int
		for _, l := range b.Lengths[:i] {
			start += l
		}
		return b.Indices[start : start+b.Lengths[i]]
	}
	return b.Indices[i*b.Width : (i+1)*b.Width]
}

// Column returns the i-th index of every row in a padded
// batch.
func (b *Batch) Column(i int) []int {
	if b.Width == 0 {
		panic("cannot take columns of a flat batch")
	} else if i < 0 || i >= b.Width {
		panic(fmt.Sprintf("column %d out of range [0, %d)", i, b.Width))
	}
	res := make([]int, b.NumRows())
	for row := range res {
		res[row] = b.Indices[row*b.Width+i]
	}
	return res
}

// TrimAt creates a flat batch in which every sequence is
// cut right before the first occurrence of token.
// Sequences without the token are kept whole.
//
// Cutting a padded batch at EndIndex before decoding it
// never confuses characters with token names, unlike
// TrimEnd.
func (b *Batch) TrimAt(token int) *Batch {
	res := &Batch{Indices: []int{}, Lengths: make([]int, b.NumRows())}
	for i := range res.Lengths {
		for _, idx := range b.Row(i) {
			if idx == token {
				break
			}
			res.Indices = append(res.Indices, idx)
			res.Lengths[i]++
		}
	}
	return res
}

// TrimEnd removes the first end token and everything after
// it from a decoded label.
//
// The cut is made on the decoded text, so a character set
// which can spell EndToken should use Batch.TrimAt instead.
func TrimEnd(label string) string {
	if idx := strings.Index(label, EndToken); idx >= 0 {
		return label[:idx]
	}
	return label
}

// charset maps characters to indices and back.
type charset struct {
	chars   []rune
	indices map[rune]int
	offset  int
}

func newCharset(chars string, offset int) (*charset, error) {
	res := &charset{
		chars:   []rune(chars),
		indices: map[rune]int{},
		offset:  offset,
	}
	for i, ch := range res.chars {
		if _, ok := res.indices[ch]; ok {
			return nil, fmt.Errorf("duplicate character: %q", ch)
		}
		res.indices[ch] = i + offset
	}
	return res, nil
}

func (c *charset) Index(ch rune) (int, bool) {
	idx, ok := c.indices[ch]
	return idx, ok
}

func (c *charset) String() string {
	return string(c.chars)
}

func (c *charset) encodeLabel(label string, dst []int) ([]int, error) {
	for _, ch := range label {
		idx, ok := c.Index(ch)
		if !ok {
			return nil, fmt.Errorf("unknown character: %q", ch)
		}
		dst = append(dst, idx)
	}
	return dst, nil
}
