package jdwp

import (
	"encoding/binary"
	"math"
)

// Reader is a forward-only cursor over one packet payload. All reads are
// big-endian and bounds-checked. A failed read leaves the cursor where the
// operation began, so the offsets in decode errors always point at the
// start of the field that could not be read.
//
// A Reader is single-use and not safe for concurrent use; construct one per
// payload with NewReader.
type Reader struct {
	data  []byte
	off   int
	sizes IDSizes
}

// NewReader returns a Reader positioned at the start of data. The sizes are
// consulted on every identifier read and are not validated here;
// DecodeComposite validates them once per packet.
func NewReader(data []byte, sizes IDSizes) *Reader {
	return &Reader{data: data, sizes: sizes}
}

// Offset returns the cursor position in bytes from the start of the buffer.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// take returns the next n bytes and advances the cursor, or fails with a
// TruncatedError without moving.
func (r *Reader) take(n int) ([]byte, error) {
	if rem := len(r.data) - r.off; rem < n {
		return nil, &TruncatedError{Offset: r.off, Need: n, Have: rem}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a big-endian unsigned 16-bit integer.
func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian unsigned 32-bit integer.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U64 reads a big-endian unsigned 64-bit integer.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// I32 reads a big-endian signed 32-bit integer.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// I64 reads a big-endian signed 64-bit integer.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Bool reads one byte; any nonzero value is true.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

// ID reads an identifier of the width negotiated for category c,
// zero-extended to 64 bits.
func (r *Reader) ID(c IDCategory) (uint64, error) {
	n := r.sizes.Size(c)
	if n < 1 || n > 8 {
		return 0, &IDSizeError{Category: c, Size: n}
	}
	b, err := r.take(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

// ObjectID reads an object identifier.
func (r *Reader) ObjectID() (ObjectID, error) {
	v, err := r.ID(IDObject)
	return ObjectID(v), err
}

// ThreadID reads a thread identifier.
func (r *Reader) ThreadID() (ThreadID, error) {
	v, err := r.ID(IDThread)
	return ThreadID(v), err
}

// FrameID reads a frame identifier.
func (r *Reader) FrameID() (FrameID, error) {
	v, err := r.ID(IDFrame)
	return FrameID(v), err
}

// MethodID reads a method identifier.
func (r *Reader) MethodID() (MethodID, error) {
	v, err := r.ID(IDMethod)
	return MethodID(v), err
}

// FieldID reads a field identifier.
func (r *Reader) FieldID() (FieldID, error) {
	v, err := r.ID(IDField)
	return FieldID(v), err
}

// ReferenceTypeID reads a reference type identifier.
func (r *Reader) ReferenceTypeID() (ReferenceTypeID, error) {
	v, err := r.ID(IDReferenceType)
	return ReferenceTypeID(v), err
}

// String reads a 4-byte length prefix followed by that many bytes of UTF-8.
// The length is checked against the remaining buffer before any allocation,
// so a hostile prefix cannot force a large allocation.
func (r *Reader) String() (string, error) {
	start := r.off
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		r.off = start
		return "", err
	}
	return string(b), nil
}

// Location reads a code location as one unit: type tag, class identifier,
// method identifier and the fixed 8-byte code index.
func (r *Reader) Location() (Location, error) {
	start := r.off
	loc, err := r.location()
	if err != nil {
		r.off = start
		return Location{}, err
	}
	return loc, nil
}

func (r *Reader) location() (Location, error) {
	tag, err := r.U8()
	if err != nil {
		return Location{}, err
	}
	class, err := r.ReferenceTypeID()
	if err != nil {
		return Location{}, err
	}
	method, err := r.MethodID()
	if err != nil {
		return Location{}, err
	}
	index, err := r.U64()
	if err != nil {
		return Location{}, err
	}
	return Location{TypeTag: TypeTag(tag), Class: class, Method: method, Index: index}, nil
}

// TaggedValue reads a one-byte value tag followed by the payload the tag
// selects. Signed primitives sign-extend into Value.Int, char and boolean
// zero-extend, float and double arrive as IEEE-754 bits, object reference
// tags read a plain object identifier and string reads inline
// length-prefixed UTF-8. Void carries no payload.
func (r *Reader) TaggedValue() (Value, error) {
	start := r.off
	v, err := r.taggedValue()
	if err != nil {
		r.off = start
		return Value{}, err
	}
	return v, nil
}

func (r *Reader) taggedValue() (Value, error) {
	tagOff := r.off
	t, err := r.U8()
	if err != nil {
		return Value{}, err
	}
	tag := Tag(t)
	switch tag {
	case TagVoid:
		return Value{Tag: tag}, nil
	case TagBoolean:
		b, err := r.Bool()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Bool: b}, nil
	case TagByte:
		v, err := r.U8()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Int: int64(int8(v))}, nil
	case TagChar:
		v, err := r.U16()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Int: int64(v)}, nil
	case TagShort:
		v, err := r.U16()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Int: int64(int16(v))}, nil
	case TagInt:
		v, err := r.U32()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Int: int64(int32(v))}, nil
	case TagLong:
		v, err := r.I64()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Int: v}, nil
	case TagFloat:
		v, err := r.U32()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Float: float64(math.Float32frombits(v))}, nil
	case TagDouble:
		v, err := r.U64()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Float: math.Float64frombits(v)}, nil
	case TagString:
		s, err := r.String()
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Str: s}, nil
	default:
		if tag.IsObject() {
			id, err := r.ObjectID()
			if err != nil {
				return Value{}, err
			}
			return Value{Tag: tag, Object: id}, nil
		}
		return Value{}, &UnknownTagError{Offset: tagOff, Tag: t}
	}
}
