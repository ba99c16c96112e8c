package jdwp

import "fmt"

// TruncatedError reports a read past the end of the packet buffer.
type TruncatedError struct {
	Offset int // cursor position when the read began
	Need   int // bytes the read required
	Have   int // bytes that remained
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("jdwp: truncated packet: need %d bytes at offset %d, have %d", e.Need, e.Offset, e.Have)
}

// UnknownTagError reports a value tag byte outside the protocol's tag set.
type UnknownTagError struct {
	Offset int
	Tag    uint8
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("jdwp: unknown value tag 0x%02x at offset %d", e.Tag, e.Offset)
}

// UnsupportedEventKindError reports an event kind with no registered schema.
// Entries carry no length prefix, so an unknown kind ends the decode: there
// is no way to skip to the next entry.
type UnsupportedEventKindError struct {
	Kind EventKind
}

func (e *UnsupportedEventKindError) Error() string {
	return fmt.Sprintf("jdwp: unsupported event kind %d", uint8(e.Kind))
}

// InvalidSuspendPolicyError reports a suspend policy byte outside NONE,
// EVENT_THREAD and ALL.
type InvalidSuspendPolicyError struct {
	Policy uint8
}

func (e *InvalidSuspendPolicyError) Error() string {
	return fmt.Sprintf("jdwp: invalid suspend policy 0x%02x", e.Policy)
}

// IDSizeError reports an identifier width outside 1..8 bytes.
type IDSizeError struct {
	Category IDCategory
	Size     int
}

func (e *IDSizeError) Error() string {
	return fmt.Sprintf("jdwp: invalid %s id size %d (want 1..8)", e.Category, e.Size)
}

// EventError locates a decode failure within a Composite packet. Index is
// the zero-based position of the failing entry and Offset the byte offset of
// its kind byte. The underlying cause unwraps.
type EventError struct {
	Index  int
	Offset int
	Err    error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("jdwp: event %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }
