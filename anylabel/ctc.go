package anylabel

import (
	"fmt"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var c CTCCodec
	serializer.RegisterTypedDeserializer(c.SerializerType(), DeserializeCTCCodec)
}

// CTCCodec is a Codec for CTC-style outputs.
//
// Encoded batches are flat, with no padding and no end
// tokens.
type CTCCodec struct {
	chars *charset
}

// DeserializeCTCCodec deserializes a CTCCodec.
func DeserializeCTCCodec(d []byte) (*CTCCodec, error) {
	var chars string
	if err := serializer.DeserializeAny(d, &chars); err != nil {
		return nil, essentials.AddCtx("deserialize CTCCodec", err)
	}
	res, err := NewCTCCodec(chars)
	if err != nil {
		return nil, essentials.AddCtx("deserialize CTCCodec", err)
	}
	return res, nil
}

// NewCTCCodec creates a CTCCodec for a character set.
// Each character may only appear once.
func NewCTCCodec(chars string) (*CTCCodec, error) {
	cs, err := newCharset(chars, 1)
	if err != nil {
		return nil, essentials.AddCtx("new CTC codec", err)
	}
	return &CTCCodec{chars: cs}, nil
}

// NumClasses returns the number of characters plus one for
// the blank.
func (c *CTCCodec) NumClasses() int {
	return len(c.chars.chars) + 1
}

// Encode concatenates the indices of every label.
// The maxLen argument is ignored.
func (c *CTCCodec) Encode(labels []string, maxLen int) (*Batch, error) {
	res := &Batch{Indices: []int{}, Lengths: make([]int, len(labels))}
	for i, label := range labels {
		var err error
		oldLen := len(res.Indices)
		res.Indices, err = c.chars.encodeLabel(label, res.Indices)
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("encode label %d", i), err)
		}
		res.Lengths[i] = len(res.Indices) - oldLen
	}
	return res, nil
}

// Decode collapses each sequence of a flat batch.
//
// Blanks are dropped, and an index is only emitted if it
// differs from the index right before it.
// For example, with "ab" as the character set, the
// sequence [1 1 0 2 2 2 0 1] becomes "aba".
func (c *CTCCodec) Decode(b *Batch) []string {
	if b.Width != 0 {
		panic("CTC decoding requires a flat batch")
	}
	res := make([]string, b.NumRows())
	var start int
	for i, length := range b.Lengths {
		var label strings.Builder
		seq := b.Indices[start : start+length]
		for j, idx := range seq {
			if idx != BlankIndex && (j == 0 || seq[j-1] != idx) {
				label.WriteString(c.token(idx))
			}
		}
		res[i] = label.String()
		start += length
	}
	return res
}

// Chars maps indices to characters verbatim.
// Blanks map to the blank token's name.
func (c *CTCCodec) Chars(indices []int) string {
	var res strings.Builder
	for _, idx := range indices {
		res.WriteString(c.token(idx))
	}
	return res.String()
}

// SerializerType returns the unique ID used to serialize
// a CTCCodec with the serializer package.
func (c *CTCCodec) SerializerType() string {
	return "github.com/unixpickle/anyocr/anylabel.CTCCodec"
}

// Serialize serializes the character set.
func (c *CTCCodec) Serialize() ([]byte, error) {
	return serializer.SerializeAny(c.chars.String())
}

func (c *CTCCodec) token(idx int) string {
	if idx == BlankIndex {
		return BlankToken
	}
	if idx < 0 || idx >= c.NumClasses() {
		panic(fmt.Sprintf("index %d out of range [0, %d)", idx, c.NumClasses()))
	}
	return string(c.chars.chars[idx-1])
}
