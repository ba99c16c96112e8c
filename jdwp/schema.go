package jdwp

import "slices"

// eventSchema binds an event kind to its protocol name and field decoder.
// Field order lives in compiled code rather than in a data table, so the
// compiler checks every decode against its variant's fields.
type eventSchema struct {
	name   string
	decode func(*Reader) (Event, error)
}

// schemas is the full set of event kinds this package can decode. The table
// is populated once and never mutated; lookups need no locking.
var schemas = map[EventKind]eventSchema{
	EventSingleStep:                {"SINGLE_STEP", decodeSingleStep},
	EventBreakpoint:                {"BREAKPOINT", decodeBreakpoint},
	EventException:                 {"EXCEPTION", decodeException},
	EventThreadStart:               {"THREAD_START", decodeThreadStart},
	EventThreadDeath:               {"THREAD_DEATH", decodeThreadDeath},
	EventClassPrepare:              {"CLASS_PREPARE", decodeClassPrepare},
	EventClassUnload:               {"CLASS_UNLOAD", decodeClassUnload},
	EventFieldAccess:               {"FIELD_ACCESS", decodeFieldAccess},
	EventFieldModification:         {"FIELD_MODIFICATION", decodeFieldModification},
	EventMethodEntry:               {"METHOD_ENTRY", decodeMethodEntry},
	EventMethodExit:                {"METHOD_EXIT", decodeMethodExit},
	EventMethodExitWithReturnValue: {"METHOD_EXIT_WITH_RETURN_VALUE", decodeMethodExitWithReturnValue},
	EventMonitorContendedEnter:     {"MONITOR_CONTENDED_ENTER", decodeMonitorContendedEnter},
	EventMonitorContendedEntered:   {"MONITOR_CONTENDED_ENTERED", decodeMonitorContendedEntered},
	EventMonitorWait:               {"MONITOR_WAIT", decodeMonitorWait},
	EventMonitorWaited:             {"MONITOR_WAITED", decodeMonitorWaited},
	EventVMStart:                   {"VM_START", decodeVMStart},
	EventVMDeath:                   {"VM_DEATH", decodeVMDeath},
}

// EventKindFromName returns the kind whose protocol name matches s, for
// example "BREAKPOINT". Matching is exact and case-sensitive.
func EventKindFromName(s string) (EventKind, bool) {
	for k, sch := range schemas {
		if sch.name == s {
			return k, true
		}
	}
	return 0, false
}

// EventKinds returns every kind this package can decode, in ascending kind
// order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func decodeVMStart(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	return VMStart{RequestID: req, Thread: thread}, nil
}

func decodeSingleStep(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return SingleStep{RequestID: req, Thread: thread, Location: loc}, nil
}

func decodeBreakpoint(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return Breakpoint{RequestID: req, Thread: thread, Location: loc}, nil
}

func decodeMethodEntry(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return MethodEntry{RequestID: req, Thread: thread, Location: loc}, nil
}

func decodeMethodExit(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return MethodExit{RequestID: req, Thread: thread, Location: loc}, nil
}

func decodeMethodExitWithReturnValue(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	val, err := r.TaggedValue()
	if err != nil {
		return nil, err
	}
	return MethodExitWithReturnValue{RequestID: req, Thread: thread, Location: loc, ReturnValue: val}, nil
}

func decodeMonitorContendedEnter(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return MonitorContendedEnter{RequestID: req, Thread: thread, Object: obj, Location: loc}, nil
}

func decodeMonitorContendedEntered(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	return MonitorContendedEntered{RequestID: req, Thread: thread, Object: obj, Location: loc}, nil
}

func decodeMonitorWait(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	timeout, err := r.I64()
	if err != nil {
		return nil, err
	}
	return MonitorWait{RequestID: req, Thread: thread, Object: obj, Location: loc, Timeout: timeout}, nil
}

func decodeMonitorWaited(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	timedOut, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return MonitorWaited{RequestID: req, Thread: thread, Object: obj, Location: loc, TimedOut: timedOut}, nil
}

func decodeException(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	exc, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	catch, err := r.Location()
	if err != nil {
		return nil, err
	}
	return Exception{RequestID: req, Thread: thread, Location: loc, Exception: exc, CatchLocation: catch}, nil
}

func decodeThreadStart(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	return ThreadStart{RequestID: req, Thread: thread}, nil
}

func decodeThreadDeath(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	return ThreadDeath{RequestID: req, Thread: thread}, nil
}

func decodeClassPrepare(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	refTag, err := r.U8()
	if err != nil {
		return nil, err
	}
	typeID, err := r.ReferenceTypeID()
	if err != nil {
		return nil, err
	}
	sig, err := r.String()
	if err != nil {
		return nil, err
	}
	status, err := r.I32()
	if err != nil {
		return nil, err
	}
	return ClassPrepare{
		RequestID:  req,
		Thread:     thread,
		RefTypeTag: TypeTag(refTag),
		TypeID:     typeID,
		Signature:  sig,
		Status:     ClassStatus(status),
	}, nil
}

func decodeClassUnload(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	sig, err := r.String()
	if err != nil {
		return nil, err
	}
	return ClassUnload{RequestID: req, Signature: sig}, nil
}

func decodeFieldAccess(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	refTag, err := r.U8()
	if err != nil {
		return nil, err
	}
	typeID, err := r.ReferenceTypeID()
	if err != nil {
		return nil, err
	}
	field, err := r.FieldID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	return FieldAccess{
		RequestID:  req,
		Thread:     thread,
		Location:   loc,
		RefTypeTag: TypeTag(refTag),
		TypeID:     typeID,
		Field:      field,
		Object:     obj,
	}, nil
}

func decodeFieldModification(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	thread, err := r.ThreadID()
	if err != nil {
		return nil, err
	}
	loc, err := r.Location()
	if err != nil {
		return nil, err
	}
	refTag, err := r.U8()
	if err != nil {
		return nil, err
	}
	typeID, err := r.ReferenceTypeID()
	if err != nil {
		return nil, err
	}
	field, err := r.FieldID()
	if err != nil {
		return nil, err
	}
	obj, err := r.ObjectID()
	if err != nil {
		return nil, err
	}
	val, err := r.TaggedValue()
	if err != nil {
		return nil, err
	}
	return FieldModification{
		RequestID:  req,
		Thread:     thread,
		Location:   loc,
		RefTypeTag: TypeTag(refTag),
		TypeID:     typeID,
		Field:      field,
		Object:     obj,
		ValueToBe:  val,
	}, nil
}

func decodeVMDeath(r *Reader) (Event, error) {
	req, err := r.I32()
	if err != nil {
		return nil, err
	}
	return VMDeath{RequestID: req}, nil
}
