package jdwp

import (
	"fmt"
	"strconv"
)

// Identifier types, zero-extended from their negotiated wire width. The
// value 0 is the protocol's null reference.
type (
	ObjectID        uint64
	ThreadID        uint64
	FrameID         uint64
	MethodID        uint64
	FieldID         uint64
	ReferenceTypeID uint64
)

// Location pinpoints a code position: a reference type, a method within it
// and a code index within the method. The zero Location means "no location";
// the protocol uses it for uncaught exceptions and native frames.
type Location struct {
	TypeTag TypeTag         `json:"type_tag"`
	Class   ReferenceTypeID `json:"class"`
	Method  MethodID        `json:"method"`
	Index   uint64          `json:"index"`
}

// IsZero reports whether l is the null location.
func (l Location) IsZero() bool { return l == Location{} }

func (l Location) String() string {
	if l.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s:0x%x.0x%x+%d", l.TypeTag, uint64(l.Class), uint64(l.Method), l.Index)
}

// Value is one tagged value from the wire. Tag selects which payload field
// is meaningful; the others stay zero. Values are comparable, so decoded
// events can be checked with plain equality.
type Value struct {
	Tag    Tag      `json:"tag"`
	Bool   bool     `json:"bool,omitempty"`
	Int    int64    `json:"int,omitempty"`
	Float  float64  `json:"float,omitempty"`
	Object ObjectID `json:"object,omitempty"`
	Str    string   `json:"str,omitempty"`
}

// String renders the payload selected by Tag.
func (v Value) String() string {
	switch v.Tag {
	case TagVoid:
		return "void"
	case TagBoolean:
		return strconv.FormatBool(v.Bool)
	case TagByte, TagShort, TagInt, TagLong:
		return strconv.FormatInt(v.Int, 10)
	case TagChar:
		return strconv.QuoteRune(rune(v.Int))
	case TagFloat, TagDouble:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TagString:
		return strconv.Quote(v.Str)
	default:
		if v.Tag.IsObject() {
			if v.Object == 0 {
				return v.Tag.String() + "@null"
			}
			return fmt.Sprintf("%s@0x%x", v.Tag, uint64(v.Object))
		}
		return fmt.Sprintf("value(tag=0x%02x)", uint8(v.Tag))
	}
}

// Event is one decoded entry from a Composite packet. The implementations
// form a closed set: exactly the variant structs in this file. Dispatch on
// the concrete type with a type switch, or on Kind for coarse routing.
// Every variant is a comparable value struct whose fields appear in wire
// order, RequestID first.
type Event interface {
	// Kind returns the EventKind whose schema produced this variant.
	Kind() EventKind

	isEvent()
}

// VMStart signals VM initialization. It is emitted once, before any other
// event, with RequestID 0 unless a VM_START request was registered.
type VMStart struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
}

// SingleStep reports completion of one step action in a thread.
type SingleStep struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Location  Location `json:"location"`
}

// Breakpoint reports a thread hitting a set breakpoint.
type Breakpoint struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Location  Location `json:"location"`
}

// MethodEntry reports a thread entering a method body.
type MethodEntry struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Location  Location `json:"location"`
}

// MethodExit reports a thread leaving a method without a captured return
// value.
type MethodExit struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Location  Location `json:"location"`
}

// MethodExitWithReturnValue reports a method exit together with the value
// being returned. VMs only emit it when they advertise the canReturnValues
// capability.
type MethodExitWithReturnValue struct {
	RequestID   int32    `json:"request_id"`
	Thread      ThreadID `json:"thread"`
	Location    Location `json:"location"`
	ReturnValue Value    `json:"return_value"`
}

// MonitorContendedEnter reports a thread starting to contend for a monitor
// held by another thread.
type MonitorContendedEnter struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Object    ObjectID `json:"object"`
	Location  Location `json:"location"`
}

// MonitorContendedEntered reports a thread acquiring a monitor it had been
// contending for.
type MonitorContendedEntered struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Object    ObjectID `json:"object"`
	Location  Location `json:"location"`
}

// MonitorWait reports a thread about to wait on a monitor. Timeout is the
// wait timeout in milliseconds, 0 for an unbounded wait.
type MonitorWait struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Object    ObjectID `json:"object"`
	Location  Location `json:"location"`
	Timeout   int64    `json:"timeout"`
}

// MonitorWaited reports a thread finishing a monitor wait. TimedOut
// distinguishes expiry from notification.
type MonitorWaited struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
	Object    ObjectID `json:"object"`
	Location  Location `json:"location"`
	TimedOut  bool     `json:"timed_out"`
}

// Exception reports a thrown exception. CatchLocation is the zero Location
// when the exception is uncaught.
type Exception struct {
	RequestID     int32    `json:"request_id"`
	Thread        ThreadID `json:"thread"`
	Location      Location `json:"location"`
	Exception     ObjectID `json:"exception"`
	CatchLocation Location `json:"catch_location"`
}

// ThreadStart reports a thread beginning execution.
type ThreadStart struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
}

// ThreadDeath reports a thread ending execution.
type ThreadDeath struct {
	RequestID int32    `json:"request_id"`
	Thread    ThreadID `json:"thread"`
}

// ClassPrepare reports a reference type reaching the prepared state.
// Signature is the JVM type signature, such as "Lcom/example/Main;".
type ClassPrepare struct {
	RequestID  int32           `json:"request_id"`
	Thread     ThreadID        `json:"thread"`
	RefTypeTag TypeTag         `json:"ref_type_tag"`
	TypeID     ReferenceTypeID `json:"type_id"`
	Signature  string          `json:"signature"`
	Status     ClassStatus     `json:"status"`
}

// ClassUnload reports a class being unloaded. It carries no thread: unload
// happens during garbage collection, outside any traced thread.
type ClassUnload struct {
	RequestID int32  `json:"request_id"`
	Signature string `json:"signature"`
}

// FieldAccess reports a read of a watched field. Object is the null
// reference when the field is static.
type FieldAccess struct {
	RequestID  int32           `json:"request_id"`
	Thread     ThreadID        `json:"thread"`
	Location   Location        `json:"location"`
	RefTypeTag TypeTag         `json:"ref_type_tag"`
	TypeID     ReferenceTypeID `json:"type_id"`
	Field      FieldID         `json:"field"`
	Object     ObjectID        `json:"object"`
}

// FieldModification reports a write to a watched field, including the value
// about to be assigned.
type FieldModification struct {
	RequestID  int32           `json:"request_id"`
	Thread     ThreadID        `json:"thread"`
	Location   Location        `json:"location"`
	RefTypeTag TypeTag         `json:"ref_type_tag"`
	TypeID     ReferenceTypeID `json:"type_id"`
	Field      FieldID         `json:"field"`
	Object     ObjectID        `json:"object"`
	ValueToBe  Value           `json:"value_to_be"`
}

// VMDeath signals VM termination. It is the last event of a session and
// carries only the request identifier.
type VMDeath struct {
	RequestID int32 `json:"request_id"`
}

func (VMStart) Kind() EventKind                   { return EventVMStart }
func (SingleStep) Kind() EventKind                { return EventSingleStep }
func (Breakpoint) Kind() EventKind                { return EventBreakpoint }
func (MethodEntry) Kind() EventKind               { return EventMethodEntry }
func (MethodExit) Kind() EventKind                { return EventMethodExit }
func (MethodExitWithReturnValue) Kind() EventKind { return EventMethodExitWithReturnValue }
func (MonitorContendedEnter) Kind() EventKind     { return EventMonitorContendedEnter }
func (MonitorContendedEntered) Kind() EventKind   { return EventMonitorContendedEntered }
func (MonitorWait) Kind() EventKind               { return EventMonitorWait }
func (MonitorWaited) Kind() EventKind             { return EventMonitorWaited }
func (Exception) Kind() EventKind                 { return EventException }
func (ThreadStart) Kind() EventKind               { return EventThreadStart }
func (ThreadDeath) Kind() EventKind               { return EventThreadDeath }
func (ClassPrepare) Kind() EventKind              { return EventClassPrepare }
func (ClassUnload) Kind() EventKind               { return EventClassUnload }
func (FieldAccess) Kind() EventKind               { return EventFieldAccess }
func (FieldModification) Kind() EventKind         { return EventFieldModification }
func (VMDeath) Kind() EventKind                   { return EventVMDeath }

func (VMStart) isEvent()                   {}
func (SingleStep) isEvent()                {}
func (Breakpoint) isEvent()                {}
func (MethodEntry) isEvent()               {}
func (MethodExit) isEvent()                {}
func (MethodExitWithReturnValue) isEvent() {}
func (MonitorContendedEnter) isEvent()     {}
func (MonitorContendedEntered) isEvent()   {}
func (MonitorWait) isEvent()               {}
func (MonitorWaited) isEvent()             {}
func (Exception) isEvent()                 {}
func (ThreadStart) isEvent()               {}
func (ThreadDeath) isEvent()               {}
func (ClassPrepare) isEvent()              {}
func (ClassUnload) isEvent()               {}
func (FieldAccess) isEvent()               {}
func (FieldModification) isEvent()         {}
func (VMDeath) isEvent()                   {}
