package jdwp

import (
	"encoding/json"
	"fmt"
)

func unmarshalAs[E Event](data []byte) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("jdwp: unmarshal %s event: %w", e.Kind(), err)
	}
	return e, nil
}

// UnmarshalEvent rebuilds the typed variant selected by kind from its JSON
// form. It is the inverse of marshaling a decoded Event and backs journal
// replay and the event store.
func UnmarshalEvent(kind EventKind, data []byte) (Event, error) {
	switch kind {
	case EventVMStart:
		return unmarshalAs[VMStart](data)
	case EventSingleStep:
		return unmarshalAs[SingleStep](data)
	case EventBreakpoint:
		return unmarshalAs[Breakpoint](data)
	case EventMethodEntry:
		return unmarshalAs[MethodEntry](data)
	case EventMethodExit:
		return unmarshalAs[MethodExit](data)
	case EventMethodExitWithReturnValue:
		return unmarshalAs[MethodExitWithReturnValue](data)
	case EventMonitorContendedEnter:
		return unmarshalAs[MonitorContendedEnter](data)
	case EventMonitorContendedEntered:
		return unmarshalAs[MonitorContendedEntered](data)
	case EventMonitorWait:
		return unmarshalAs[MonitorWait](data)
	case EventMonitorWaited:
		return unmarshalAs[MonitorWaited](data)
	case EventException:
		return unmarshalAs[Exception](data)
	case EventThreadStart:
		return unmarshalAs[ThreadStart](data)
	case EventThreadDeath:
		return unmarshalAs[ThreadDeath](data)
	case EventClassPrepare:
		return unmarshalAs[ClassPrepare](data)
	case EventClassUnload:
		return unmarshalAs[ClassUnload](data)
	case EventFieldAccess:
		return unmarshalAs[FieldAccess](data)
	case EventFieldModification:
		return unmarshalAs[FieldModification](data)
	case EventVMDeath:
		return unmarshalAs[VMDeath](data)
	default:
		return nil, &UnsupportedEventKindError{Kind: kind}
	}
}
