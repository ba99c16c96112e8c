package jdwp

// Composite is one decoded Composite event packet: the suspend policy the VM
// applied and the events it batched, in wire order.
type Composite struct {
	SuspendPolicy SuspendPolicy
	Events        []Event

	// Trailing counts bytes left in the buffer after the last entry. The
	// protocol allows none, but tolerant readers ignore them; the count is
	// kept for diagnostics.
	Trailing int
}

// minEventSize is the smallest entry the wire permits: a kind byte plus a
// VM_DEATH request identifier. It caps the initial event allocation so a
// hostile count field cannot force a huge slice before the first truncation
// error.
const minEventSize = 5

// DecodeComposite decodes the payload of one Event.Composite packet. The
// buffer must begin at the suspend policy byte, with the packet envelope
// already stripped. sizes supplies the identifier widths negotiated for the
// session and is validated first.
//
// Decoding is all or nothing. Event entries carry no length prefix, so a
// malformed entry leaves no way to locate the next one; any failure aborts
// the whole packet with an EventError naming the entry index and byte
// offset. Exactly the announced number of entries is decoded; bytes after
// the last entry are tolerated and reported in Trailing.
func DecodeComposite(data []byte, sizes IDSizes) (*Composite, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	r := NewReader(data, sizes)

	policy, err := r.U8()
	if err != nil {
		return nil, err
	}
	if SuspendPolicy(policy) > SuspendAll {
		return nil, &InvalidSuspendPolicyError{Policy: policy}
	}

	count, err := r.U32()
	if err != nil {
		return nil, err
	}

	alloc := int(count)
	if max := r.Remaining() / minEventSize; alloc > max {
		alloc = max
	}
	events := make([]Event, 0, alloc)

	for i := 0; i < int(count); i++ {
		entryOff := r.Offset()
		kind, err := r.U8()
		if err != nil {
			return nil, &EventError{Index: i, Offset: entryOff, Err: err}
		}
		sch, ok := schemas[EventKind(kind)]
		if !ok {
			return nil, &EventError{
				Index:  i,
				Offset: entryOff,
				Err:    &UnsupportedEventKindError{Kind: EventKind(kind)},
			}
		}
		ev, err := sch.decode(r)
		if err != nil {
			return nil, &EventError{Index: i, Offset: entryOff, Err: err}
		}
		events = append(events, ev)
	}

	return &Composite{
		SuspendPolicy: SuspendPolicy(policy),
		Events:        events,
		Trailing:      r.Remaining(),
	}, nil
}
