package jdwp

import "fmt"

// ThreadOf returns the thread an event occurred in. ClassUnload and VMDeath
// carry no thread; for those ok is false.
func ThreadOf(e Event) (ThreadID, bool) {
	switch ev := e.(type) {
	case VMStart:
		return ev.Thread, true
	case SingleStep:
		return ev.Thread, true
	case Breakpoint:
		return ev.Thread, true
	case MethodEntry:
		return ev.Thread, true
	case MethodExit:
		return ev.Thread, true
	case MethodExitWithReturnValue:
		return ev.Thread, true
	case MonitorContendedEnter:
		return ev.Thread, true
	case MonitorContendedEntered:
		return ev.Thread, true
	case MonitorWait:
		return ev.Thread, true
	case MonitorWaited:
		return ev.Thread, true
	case Exception:
		return ev.Thread, true
	case ThreadStart:
		return ev.Thread, true
	case ThreadDeath:
		return ev.Thread, true
	case ClassPrepare:
		return ev.Thread, true
	case FieldAccess:
		return ev.Thread, true
	case FieldModification:
		return ev.Thread, true
	default:
		return 0, false
	}
}

// RequestIDOf returns the identifier of the event request that triggered e,
// or 0 for unsolicited VM events.
func RequestIDOf(e Event) int32 {
	switch ev := e.(type) {
	case VMStart:
		return ev.RequestID
	case SingleStep:
		return ev.RequestID
	case Breakpoint:
		return ev.RequestID
	case MethodEntry:
		return ev.RequestID
	case MethodExit:
		return ev.RequestID
	case MethodExitWithReturnValue:
		return ev.RequestID
	case MonitorContendedEnter:
		return ev.RequestID
	case MonitorContendedEntered:
		return ev.RequestID
	case MonitorWait:
		return ev.RequestID
	case MonitorWaited:
		return ev.RequestID
	case Exception:
		return ev.RequestID
	case ThreadStart:
		return ev.RequestID
	case ThreadDeath:
		return ev.RequestID
	case ClassPrepare:
		return ev.RequestID
	case ClassUnload:
		return ev.RequestID
	case FieldAccess:
		return ev.RequestID
	case FieldModification:
		return ev.RequestID
	case VMDeath:
		return ev.RequestID
	default:
		return 0
	}
}

// Describe returns a one-line human summary of an event. The timeline
// renderers and webhook text formats build on it.
func Describe(e Event) string {
	switch ev := e.(type) {
	case VMStart:
		return fmt.Sprintf("VM_START thread=0x%x", uint64(ev.Thread))
	case SingleStep:
		return fmt.Sprintf("SINGLE_STEP thread=0x%x at %s", uint64(ev.Thread), ev.Location)
	case Breakpoint:
		return fmt.Sprintf("BREAKPOINT thread=0x%x at %s", uint64(ev.Thread), ev.Location)
	case MethodEntry:
		return fmt.Sprintf("METHOD_ENTRY thread=0x%x at %s", uint64(ev.Thread), ev.Location)
	case MethodExit:
		return fmt.Sprintf("METHOD_EXIT thread=0x%x at %s", uint64(ev.Thread), ev.Location)
	case MethodExitWithReturnValue:
		return fmt.Sprintf("METHOD_EXIT_WITH_RETURN_VALUE thread=0x%x at %s returns %s",
			uint64(ev.Thread), ev.Location, ev.ReturnValue)
	case MonitorContendedEnter:
		return fmt.Sprintf("MONITOR_CONTENDED_ENTER thread=0x%x monitor=0x%x at %s",
			uint64(ev.Thread), uint64(ev.Object), ev.Location)
	case MonitorContendedEntered:
		return fmt.Sprintf("MONITOR_CONTENDED_ENTERED thread=0x%x monitor=0x%x at %s",
			uint64(ev.Thread), uint64(ev.Object), ev.Location)
	case MonitorWait:
		return fmt.Sprintf("MONITOR_WAIT thread=0x%x monitor=0x%x timeout=%dms at %s",
			uint64(ev.Thread), uint64(ev.Object), ev.Timeout, ev.Location)
	case MonitorWaited:
		return fmt.Sprintf("MONITOR_WAITED thread=0x%x monitor=0x%x timed_out=%t at %s",
			uint64(ev.Thread), uint64(ev.Object), ev.TimedOut, ev.Location)
	case Exception:
		if ev.CatchLocation.IsZero() {
			return fmt.Sprintf("EXCEPTION thread=0x%x exception=0x%x at %s uncaught",
				uint64(ev.Thread), uint64(ev.Exception), ev.Location)
		}
		return fmt.Sprintf("EXCEPTION thread=0x%x exception=0x%x at %s caught at %s",
			uint64(ev.Thread), uint64(ev.Exception), ev.Location, ev.CatchLocation)
	case ThreadStart:
		return fmt.Sprintf("THREAD_START thread=0x%x", uint64(ev.Thread))
	case ThreadDeath:
		return fmt.Sprintf("THREAD_DEATH thread=0x%x", uint64(ev.Thread))
	case ClassPrepare:
		return fmt.Sprintf("CLASS_PREPARE %s type=0x%x status=%s thread=0x%x",
			ev.Signature, uint64(ev.TypeID), ev.Status, uint64(ev.Thread))
	case ClassUnload:
		return fmt.Sprintf("CLASS_UNLOAD %s", ev.Signature)
	case FieldAccess:
		return fmt.Sprintf("FIELD_ACCESS field=0x%x of=0x%x thread=0x%x at %s",
			uint64(ev.Field), uint64(ev.Object), uint64(ev.Thread), ev.Location)
	case FieldModification:
		return fmt.Sprintf("FIELD_MODIFICATION field=0x%x of=0x%x value=%s thread=0x%x at %s",
			uint64(ev.Field), uint64(ev.Object), ev.ValueToBe, uint64(ev.Thread), ev.Location)
	case VMDeath:
		return "VM_DEATH"
	default:
		return e.Kind().String()
	}
}
