package jdwp

// IDCategory names one of the six identifier families whose wire width is
// negotiated per debug session.
type IDCategory int

const (
	IDObject IDCategory = iota
	IDThread
	IDFrame
	IDMethod
	IDField
	IDReferenceType
)

func (c IDCategory) String() string {
	switch c {
	case IDObject:
		return "object"
	case IDThread:
		return "thread"
	case IDFrame:
		return "frame"
	case IDMethod:
		return "method"
	case IDField:
		return "field"
	case IDReferenceType:
		return "reference type"
	default:
		return "unknown"
	}
}

// IDSizes records the byte width of each identifier category for one debug
// session, as reported by the VM in its IDSizes reply. Widths are almost
// always 8 on modern VMs and 4 on old 32-bit ones, but every category is
// negotiated independently. Code indexes within a method are always 8 bytes
// and are not configurable.
//
// The zero value is invalid. Fill every field or use UniformIDSizes.
type IDSizes struct {
	Object        int `json:"object" yaml:"object"`
	Thread        int `json:"thread" yaml:"thread"`
	Frame         int `json:"frame" yaml:"frame"`
	Method        int `json:"method" yaml:"method"`
	Field         int `json:"field" yaml:"field"`
	ReferenceType int `json:"reference_type" yaml:"reference_type"`
}

// UniformIDSizes returns an IDSizes with every category n bytes wide.
func UniformIDSizes(n int) IDSizes {
	return IDSizes{
		Object:        n,
		Thread:        n,
		Frame:         n,
		Method:        n,
		Field:         n,
		ReferenceType: n,
	}
}

// Size returns the width in bytes of identifiers in category c, or 0 for an
// unknown category.
func (s IDSizes) Size(c IDCategory) int {
	switch c {
	case IDObject:
		return s.Object
	case IDThread:
		return s.Thread
	case IDFrame:
		return s.Frame
	case IDMethod:
		return s.Method
	case IDField:
		return s.Field
	case IDReferenceType:
		return s.ReferenceType
	default:
		return 0
	}
}

// Validate reports whether every width is usable for decoding. Identifiers
// are zero-extended into 64 bits, so widths must fall in 1..8.
func (s IDSizes) Validate() error {
	for c := IDObject; c <= IDReferenceType; c++ {
		if n := s.Size(c); n < 1 || n > 8 {
			return &IDSizeError{Category: c, Size: n}
		}
	}
	return nil
}
