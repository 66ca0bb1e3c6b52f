package anyrnn

import (
	"reflect"
	"testing"

	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/serializer"
)

func TestLSTMSerialize(t *testing.T) {
	testSerialize(t, NewLSTM(anyvec32.CurrentCreator(), 3, 2, nil))
}

func TestGRUSerialize(t *testing.T) {
	testSerialize(t, NewGRU(anyvec32.CurrentCreator(), 4, 3, nil))
}

func testSerialize(t *testing.T, obj serializer.Serializer) {
	data, err := serializer.SerializeAny(obj)
	if err != nil {
		t.Fatal(err)
	}
	newObj := reflect.New(reflect.TypeOf(obj))
	if err := serializer.DeserializeAny(data, newObj.Interface()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(newObj.Elem().Interface(), obj) {
		t.Error("bad deserialized value")
	}
}
