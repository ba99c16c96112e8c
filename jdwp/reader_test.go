package jdwp

import (
	"errors"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	buf := []byte{
		0xAB,
		0x01, 0x02,
		0x01, 0x02, 0x03, 0x04,
		0xFF, 0xFF, 0xFF, 0xFB, // int32 -5
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
		0x02, // nonzero bool
	}
	r := NewReader(buf, UniformIDSizes(8))

	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8: %v %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x0102 {
		t.Fatalf("U16: %v %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0x01020304 {
		t.Fatalf("U32: %v %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -5 {
		t.Fatalf("I32: %v %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x1122334455667788 {
		t.Fatalf("U64: %#x %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool: %v %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected empty reader, %d bytes left", r.Remaining())
	}
	if r.Offset() != len(buf) {
		t.Fatalf("expected offset %d, got %d", len(buf), r.Offset())
	}
}

func TestReaderIDZeroExtendsEveryWidth(t *testing.T) {
	raw := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	for width := 1; width <= 8; width++ {
		sizes := UniformIDSizes(width)
		r := NewReader(raw[:width], sizes)
		v, err := r.ID(IDObject)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		var want uint64
		for _, x := range raw[:width] {
			want = want<<8 | uint64(x)
		}
		if v != want {
			t.Fatalf("width %d: got %#x, want %#x", width, v, want)
		}
		if r.Remaining() != 0 {
			t.Fatalf("width %d: %d bytes left", width, r.Remaining())
		}
	}
}

func TestReaderFailedReadDoesNotAdvance(t *testing.T) {
	sizes := UniformIDSizes(8)

	ops := []struct {
		name string
		buf  []byte
		read func(*Reader) error
	}{
		{"U32", []byte{0x01, 0x02}, func(r *Reader) error { _, err := r.U32(); return err }},
		{"U64", []byte{0x01}, func(r *Reader) error { _, err := r.U64(); return err }},
		{"ID", []byte{0x01, 0x02, 0x03}, func(r *Reader) error { _, err := r.ObjectID(); return err }},
		// Length prefix says 5, only 3 payload bytes follow.
		{"String", []byte{0x00, 0x00, 0x00, 0x05, 'a', 'b', 'c'}, func(r *Reader) error { _, err := r.String(); return err }},
		// Tag and class decode, method id is cut short.
		{"Location", []byte{0x01, 1, 2, 3, 4, 5, 6, 7, 8, 0xAA}, func(r *Reader) error { _, err := r.Location(); return err }},
		// Long tag with 2 payload bytes.
		{"TaggedValue", []byte{byte(TagLong), 0x01, 0x02}, func(r *Reader) error { _, err := r.TaggedValue(); return err }},
	}

	for _, op := range ops {
		r := NewReader(op.buf, sizes)
		err := op.read(r)
		var trunc *TruncatedError
		if !errors.As(err, &trunc) {
			t.Fatalf("%s: expected TruncatedError, got %v", op.name, err)
		}
		if r.Offset() != 0 {
			t.Fatalf("%s: cursor moved to %d on failure", op.name, r.Offset())
		}
	}
}

func TestReaderString(t *testing.T) {
	b := newBuilder(UniformIDSizes(8))
	b.str("Ljava/lang/String;")
	b.str("")
	b.u8(0x7F)

	r := NewReader(b.buf, UniformIDSizes(8))
	s, err := r.String()
	if err != nil || s != "Ljava/lang/String;" {
		t.Fatalf("String: %q %v", s, err)
	}
	s, err = r.String()
	if err != nil || s != "" {
		t.Fatalf("empty String: %q %v", s, err)
	}
	if r.Remaining() != 1 {
		t.Fatalf("expected 1 byte left, got %d", r.Remaining())
	}
}

func TestReaderStringCopiesOutOfBuffer(t *testing.T) {
	b := newBuilder(UniformIDSizes(8))
	b.str("mutable")
	buf := b.buf

	r := NewReader(buf, UniformIDSizes(8))
	s, err := r.String()
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	for i := range buf {
		buf[i] = 0
	}
	if s != "mutable" {
		t.Fatalf("decoded string aliases the input buffer: %q", s)
	}
}

func TestReaderLocation(t *testing.T) {
	sizes := IDSizes{Object: 8, Thread: 8, Frame: 8, Method: 4, Field: 8, ReferenceType: 2}
	want := Location{TypeTag: TypeTagInterface, Class: 0x0102, Method: 0x0A0B0C0D, Index: 0x55}

	b := newBuilder(sizes)
	b.loc(want)
	if len(b.buf) != 1+2+4+8 {
		t.Fatalf("unexpected encoded length %d", len(b.buf))
	}

	r := NewReader(b.buf, sizes)
	got, err := r.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReaderTaggedValues(t *testing.T) {
	sizes := UniformIDSizes(8)

	cases := []struct {
		name string
		want Value
	}{
		{"boolean true", Value{Tag: TagBoolean, Bool: true}},
		{"boolean false", Value{Tag: TagBoolean}},
		{"byte negative", Value{Tag: TagByte, Int: -1}},
		{"char max", Value{Tag: TagChar, Int: 0xFFFF}},
		{"short min", Value{Tag: TagShort, Int: -32768}},
		{"int", Value{Tag: TagInt, Int: -123456}},
		{"long", Value{Tag: TagLong, Int: -1}},
		{"float", Value{Tag: TagFloat, Float: 1.5}},
		{"double", Value{Tag: TagDouble, Float: -2.25}},
		{"void", Value{Tag: TagVoid}},
		{"string", Value{Tag: TagString, Str: "héllo"}},
		{"object", Value{Tag: TagObject, Object: 0xABCD}},
		{"null object", Value{Tag: TagObject}},
		{"array", Value{Tag: TagArray, Object: 0x11}},
		{"thread", Value{Tag: TagThread, Object: 0x22}},
		{"thread group", Value{Tag: TagThreadGroup, Object: 0x33}},
		{"class loader", Value{Tag: TagClassLoader, Object: 0x44}},
		{"class object", Value{Tag: TagClassObject, Object: 0x55}},
	}

	for _, tc := range cases {
		b := newBuilder(sizes)
		b.value(tc.want)
		r := NewReader(b.buf, sizes)
		got, err := r.TaggedValue()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %#v, want %#v", tc.name, got, tc.want)
		}
		if r.Remaining() != 0 {
			t.Fatalf("%s: %d bytes left", tc.name, r.Remaining())
		}
	}
}

func TestReaderUnknownTag(t *testing.T) {
	r := NewReader([]byte{0x00, 'Q', 0x00}, UniformIDSizes(8))
	if _, err := r.U8(); err != nil {
		t.Fatal(err)
	}

	_, err := r.TaggedValue()
	var unknown *UnknownTagError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTagError, got %v", err)
	}
	if unknown.Tag != 'Q' {
		t.Fatalf("expected tag 'Q', got %#x", unknown.Tag)
	}
	if unknown.Offset != 1 {
		t.Fatalf("expected offset 1, got %d", unknown.Offset)
	}
	if r.Offset() != 1 {
		t.Fatalf("cursor moved to %d on unknown tag", r.Offset())
	}
}

func TestTruncatedErrorCarriesOffsets(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03}, UniformIDSizes(8))
	if _, err := r.U16(); err != nil {
		t.Fatal(err)
	}

	_, err := r.U32()
	var trunc *TruncatedError
	if !errors.As(err, &trunc) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
	if trunc.Offset != 2 || trunc.Need != 4 || trunc.Have != 1 {
		t.Fatalf("unexpected error detail: %+v", trunc)
	}
}
