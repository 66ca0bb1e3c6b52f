package anylabel

import (
	"fmt"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a AttnCodec
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAttnCodec)
}

// AttnCodec is a Codec for attention decoders.
//
// Encoded batches are padded.
// Every row starts with the start token, which is followed
// by the label's characters and the end token, with the
// rest of the row filled with the start token.
type AttnCodec struct {
	chars *charset
}

// DeserializeAttnCodec deserializes an AttnCodec.
func DeserializeAttnCodec(d []byte) (*AttnCodec, error) {
	var chars string
	if err := serializer.DeserializeAny(d, &chars); err != nil {
		return nil, essentials.AddCtx("deserialize AttnCodec", err)
	}
	res, err := NewAttnCodec(chars)
	if err != nil {
		return nil, essentials.AddCtx("deserialize AttnCodec", err)
	}
	return res, nil
}

// NewAttnCodec creates an AttnCodec for a character set.
// Each character may only appear once.
func NewAttnCodec(chars string) (*AttnCodec, error) {
	cs, err := newCharset(chars, 2)
	if err != nil {
		return nil, essentials.AddCtx("new attention codec", err)
	}
	return &AttnCodec{chars: cs}, nil
}

// NumClasses returns the number of characters plus two for
// the start and end tokens.
func (a *AttnCodec) NumClasses() int {
	return len(a.chars.chars) + 2
}

// Encode creates a batch with maxLen+2 columns.
//
// The length of each row is the label length plus one for
// the end token, so the end token is at the column given by
// the length.
// Every label in the batch is encoded.
// A label longer than maxLen is an error.
func (a *AttnCodec) Encode(labels []string, maxLen int) (*Batch, error) {
	if maxLen < 0 {
		return nil, fmt.Errorf("encode: negative maximum length %d", maxLen)
	}
	width := maxLen + 2
	res := &Batch{
		Indices: make([]int, len(labels)*width),
		Lengths: make([]int, len(labels)),
		Width:   width,
	}
	for i, label := range labels {
		seq, err := a.chars.encodeLabel(label, nil)
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("encode label %d", i), err)
		}
		if len(seq) > maxLen {
			return nil, fmt.Errorf("encode label %d: length %d exceeds maximum %d",
				i, len(seq), maxLen)
		}
		seq = append(seq, EndIndex)
		copy(res.Indices[i*width+1:], seq)
		res.Lengths[i] = len(seq)
	}
	return res, nil
}

// Decode maps every index of every row to its token,
// including the reserved tokens.
//
// Rows are decoded in full: lengths are ignored and
// nothing is removed after an end token.
// Use Batch.TrimAt or TrimEnd to cut labels at their first
// end token.
func (a *AttnCodec) Decode(b *Batch) []string {
	res := make([]string, b.NumRows())
	for i := range res {
		var label strings.Builder
		for _, idx := range b.Row(i) {
			label.WriteString(a.token(idx))
		}
		res[i] = label.String()
	}
	return res
}

// SerializerType returns the unique ID used to serialize
// an AttnCodec with the serializer package.
func (a *AttnCodec) SerializerType() string {
	return "github.com/unixpickle/anyocr/anylabel.AttnCodec"
}

// Serialize serializes the character set.
func (a *AttnCodec) Serialize() ([]byte, error) {
	return serializer.SerializeAny(a.chars.String())
}

func (a *AttnCodec) token(idx int) string {
	switch idx {
	case StartIndex:
		return StartToken
	case EndIndex:
		return EndToken
	}
	if idx < 0 || idx >= a.NumClasses() {
		panic(fmt.Sprintf("index %d out of range [0, %d)", idx, a.NumClasses()))
	}
	return string(a.chars.chars[idx-2])
}
