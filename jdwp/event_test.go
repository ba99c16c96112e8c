package jdwp

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestUnmarshalEventRoundTrip(t *testing.T) {
	for _, want := range testEvents() {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("%s: marshal: %v", want.Kind(), err)
		}
		got, err := UnmarshalEvent(want.Kind(), data)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v", want.Kind(), err)
		}
		if got != want {
			t.Fatalf("%s:\n got %#v\nwant %#v", want.Kind(), got, want)
		}
	}
}

func TestUnmarshalEventUnknownKind(t *testing.T) {
	_, err := UnmarshalEvent(EventKind(222), []byte(`{}`))
	var unknown *UnsupportedEventKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnsupportedEventKindError, got %v", err)
	}
}

func TestUnmarshalEventRejectsGarbage(t *testing.T) {
	_, err := UnmarshalEvent(EventBreakpoint, []byte(`{"thread":`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "BREAKPOINT") {
		t.Fatalf("error should name the kind: %v", err)
	}
}

func TestDescribeUncaughtException(t *testing.T) {
	ev := Exception{RequestID: 1, Thread: 0x10, Location: testLoc, Exception: 0xDEAD}
	got := Describe(ev)
	if !strings.Contains(got, "uncaught") {
		t.Fatalf("expected uncaught marker: %s", got)
	}
	if !strings.Contains(got, "0xdead") {
		t.Fatalf("expected exception id: %s", got)
	}
}

func TestDescribeCoversEveryKind(t *testing.T) {
	for _, ev := range testEvents() {
		got := Describe(ev)
		if got == "" {
			t.Fatalf("%s: empty description", ev.Kind())
		}
		if !strings.HasPrefix(got, ev.Kind().String()) {
			t.Fatalf("%s: description does not lead with the kind: %s", ev.Kind(), got)
		}
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{TypeTag: TypeTagClass, Class: 0x33, Method: 0x44, Index: 85}
	if got := loc.String(); got != "CLASS:0x33.0x44+85" {
		t.Fatalf("unexpected rendering: %s", got)
	}
	if got := (Location{}).String(); got != "<none>" {
		t.Fatalf("expected <none> for zero location, got %s", got)
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Value{Tag: TagVoid}, "void"},
		{Value{Tag: TagBoolean, Bool: true}, "true"},
		{Value{Tag: TagInt, Int: -42}, "-42"},
		{Value{Tag: TagChar, Int: 'x'}, "'x'"},
		{Value{Tag: TagString, Str: "hi"}, `"hi"`},
		{Value{Tag: TagObject, Object: 0xFF}, "object@0xff"},
		{Value{Tag: TagObject}, "object@null"},
		{Value{Tag: TagDouble, Float: 1.5}, "1.5"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("%#v: got %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestClassStatusString(t *testing.T) {
	cases := []struct {
		s    ClassStatus
		want string
	}{
		{0, "NONE"},
		{StatusVerified, "VERIFIED"},
		{StatusVerified | StatusPrepared, "VERIFIED|PREPARED"},
		{StatusVerified | StatusPrepared | StatusInitialized, "VERIFIED|PREPARED|INITIALIZED"},
		{StatusError, "ERROR"},
		{StatusVerified | 0x10, "VERIFIED|0x10"},
	}
	for _, tc := range cases {
		if got := tc.s.String(); got != tc.want {
			t.Fatalf("status %d: got %q, want %q", int32(tc.s), got, tc.want)
		}
	}
}

func TestSuspendPolicyString(t *testing.T) {
	if SuspendNone.String() != "NONE" || SuspendEventThread.String() != "EVENT_THREAD" || SuspendAll.String() != "ALL" {
		t.Fatal("unexpected suspend policy names")
	}
	if got := SuspendPolicy(9).String(); got != "SUSPEND_POLICY(9)" {
		t.Fatalf("unexpected fallback rendering: %s", got)
	}
}
