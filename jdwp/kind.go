package jdwp

import (
	"fmt"
	"strings"
)

// EventKind selects the schema of one event entry inside a Composite packet.
// Values are the protocol's EventKind constants.
type EventKind uint8

const (
	EventSingleStep                EventKind = 1
	EventBreakpoint                EventKind = 2
	EventException                 EventKind = 4
	EventThreadStart               EventKind = 6
	EventThreadDeath               EventKind = 7
	EventClassPrepare              EventKind = 8
	EventClassUnload               EventKind = 9
	EventFieldAccess               EventKind = 20
	EventFieldModification         EventKind = 21
	EventMethodEntry               EventKind = 40
	EventMethodExit                EventKind = 41
	EventMethodExitWithReturnValue EventKind = 42
	EventMonitorContendedEnter     EventKind = 43
	EventMonitorContendedEntered   EventKind = 44
	EventMonitorWait               EventKind = 45
	EventMonitorWaited             EventKind = 46
	EventVMStart                   EventKind = 90
	EventVMDeath                   EventKind = 99
)

// String returns the protocol name of the kind, such as "BREAKPOINT".
func (k EventKind) String() string {
	if s, ok := schemas[k]; ok {
		return s.name
	}
	return fmt.Sprintf("EVENT_KIND(%d)", uint8(k))
}

// SuspendPolicy is the thread suspension the VM applied when it emitted a
// Composite packet. Every event in one packet shares the same policy.
type SuspendPolicy uint8

const (
	SuspendNone        SuspendPolicy = 0
	SuspendEventThread SuspendPolicy = 1
	SuspendAll         SuspendPolicy = 2
)

func (p SuspendPolicy) String() string {
	switch p {
	case SuspendNone:
		return "NONE"
	case SuspendEventThread:
		return "EVENT_THREAD"
	case SuspendAll:
		return "ALL"
	default:
		return fmt.Sprintf("SUSPEND_POLICY(%d)", uint8(p))
	}
}

// TypeTag classifies the reference type carried by class and field events.
type TypeTag uint8

const (
	TypeTagClass     TypeTag = 1
	TypeTagInterface TypeTag = 2
	TypeTagArray     TypeTag = 3
)

func (t TypeTag) String() string {
	switch t {
	case TypeTagClass:
		return "CLASS"
	case TypeTagInterface:
		return "INTERFACE"
	case TypeTagArray:
		return "ARRAY"
	default:
		return fmt.Sprintf("TYPE_TAG(%d)", uint8(t))
	}
}

// ClassStatus is the bit set describing how far initialization of a
// reference type has progressed when a ClassPrepare event fires.
type ClassStatus int32

const (
	StatusVerified    ClassStatus = 1
	StatusPrepared    ClassStatus = 2
	StatusInitialized ClassStatus = 4
	StatusError       ClassStatus = 8
)

// String renders the set, such as "VERIFIED|PREPARED".
func (s ClassStatus) String() string {
	if s == 0 {
		return "NONE"
	}
	var parts []string
	if s&StatusVerified != 0 {
		parts = append(parts, "VERIFIED")
	}
	if s&StatusPrepared != 0 {
		parts = append(parts, "PREPARED")
	}
	if s&StatusInitialized != 0 {
		parts = append(parts, "INITIALIZED")
	}
	if s&StatusError != 0 {
		parts = append(parts, "ERROR")
	}
	if rest := s &^ (StatusVerified | StatusPrepared | StatusInitialized | StatusError); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", int32(rest)))
	}
	return strings.Join(parts, "|")
}
