package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

func newTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	return j, path
}

var testLoc = jdwp.Location{TypeTag: jdwp.TypeTagClass, Class: 0x33, Method: 0x44, Index: 85}

func testPacketEvents() []jdwp.Event {
	return []jdwp.Event{
		jdwp.Breakpoint{RequestID: 1, Thread: 0x1122, Location: testLoc},
		jdwp.ThreadStart{RequestID: 2, Thread: 0x1123},
	}
}

func TestRecordThenVerify(t *testing.T) {
	j, path := newTestJournal(t)

	for pkt := uint64(1); pkt <= 3; pkt++ {
		if err := j.Record("s-one", pkt, jdwp.SuspendEventThread, testPacketEvents()); err != nil {
			t.Fatalf("record packet %d: %v", pkt, err)
		}
	}
	j.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid journal, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 6 {
		t.Fatalf("expected 6 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsDeletedEntry(t *testing.T) {
	j, path := newTestJournal(t)
	for pkt := uint64(1); pkt <= 2; pkt++ {
		if err := j.Record("s-one", pkt, jdwp.SuspendNone, testPacketEvents()); err != nil {
			t.Fatal(err)
		}
	}
	j.Close()

	// Delete line 2 (middle entry)
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	remaining := append([]string{lines[0]}, lines[2:]...)
	os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected journal with deleted entry to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
	if !strings.Contains(result.Error, "sequence break") {
		t.Fatalf("expected sequence break, got: %s", result.Error)
	}
}

func TestVerifyDetectsInsertedEntry(t *testing.T) {
	j, path := newTestJournal(t)
	if err := j.Record("s-one", 1, jdwp.SuspendNone, testPacketEvents()); err != nil {
		t.Fatal(err)
	}
	j.Close()

	// Duplicate line 1 between lines 1 and 2
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	inserted := []string{lines[0], lines[0], lines[1]}
	os.WriteFile(path, []byte(strings.Join(inserted, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected journal with inserted entry to be invalid")
	}
}

func TestVerifyDetectsUnknownKind(t *testing.T) {
	j, path := newTestJournal(t)
	if err := j.Record("s-one", 1, jdwp.SuspendNone, testPacketEvents()); err != nil {
		t.Fatal(err)
	}
	j.Close()

	data, _ := os.ReadFile(path)
	tampered := strings.Replace(string(data), `"BREAKPOINT"`, `"BACKDOOR"`, 1)
	os.WriteFile(path, []byte(tampered), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected unknown kind to fail verification")
	}
	if !strings.Contains(result.Error, "unknown event kind") {
		t.Fatalf("unexpected error: %s", result.Error)
	}
}

func TestVerifyDetectsCorruptPayload(t *testing.T) {
	j, path := newTestJournal(t)
	if err := j.Record("s-one", 1, jdwp.SuspendNone, testPacketEvents()); err != nil {
		t.Fatal(err)
	}
	j.Close()

	// Corrupt the first event payload: thread becomes a string.
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var entry Entry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	entry.Event = json.RawMessage(`{"request_id":1,"thread":"bogus"}`)
	corrupted, _ := json.Marshal(entry)
	lines[0] = string(corrupted)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected corrupt payload to fail verification")
	}
	if result.ErrorLine != 1 {
		t.Fatalf("expected error at line 1, got %d", result.ErrorLine)
	}
}

func TestEmptyJournalPassesVerification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	os.WriteFile(path, []byte{}, 0644)

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected empty journal to be valid, got: %s", result.Error)
	}
	if result.Lines != 0 {
		t.Fatalf("expected 0 lines, got %d", result.Lines)
	}
}

func TestOpenExistingJournalContinuesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.jsonl")

	j1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j1.Record("s-one", 1, jdwp.SuspendNone, testPacketEvents())
	j1.Close()

	j2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j2.Record("s-one", 2, jdwp.SuspendNone, testPacketEvents())
	j2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid journal after reopen, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 4 {
		t.Fatalf("expected 4 lines, got %d", result.Lines)
	}
}

func TestConcurrentRecordsSerialize(t *testing.T) {
	j, path := newTestJournal(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(pkt uint64) {
			defer wg.Done()
			j.Record("s-one", pkt, jdwp.SuspendNone, testPacketEvents()[:1])
		}(uint64(i + 1))
	}
	wg.Wait()
	j.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid journal after concurrent records, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 50 {
		t.Fatalf("expected 50 lines, got %d", result.Lines)
	}
}

func TestReplayFilters(t *testing.T) {
	j, path := newTestJournal(t)
	j.Record("s-one", 1, jdwp.SuspendAll, []jdwp.Event{
		jdwp.Breakpoint{RequestID: 1, Thread: 0x10, Location: testLoc},
		jdwp.Breakpoint{RequestID: 1, Thread: 0x20, Location: testLoc},
	})
	j.Record("s-two", 1, jdwp.SuspendNone, []jdwp.Event{
		jdwp.ClassUnload{RequestID: 3, Signature: "Lx;"},
	})
	j.Close()

	all, err := Replay(path, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if all.Summary.Total != 3 {
		t.Fatalf("expected 3 entries unfiltered, got %d", all.Summary.Total)
	}
	if all.Summary.Threads != 2 {
		t.Fatalf("expected 2 distinct threads, got %d", all.Summary.Threads)
	}
	if all.Summary.Suspended != 2 {
		t.Fatalf("expected 2 suspended entries, got %d", all.Summary.Suspended)
	}

	bySession, _ := Replay(path, Filter{Session: "s-two"})
	if len(bySession.Entries) != 1 || bySession.Entries[0].Kind != "CLASS_UNLOAD" {
		t.Fatalf("session filter failed: %+v", bySession.Entries)
	}

	byKind, _ := Replay(path, Filter{Kind: jdwp.EventBreakpoint})
	if len(byKind.Entries) != 2 {
		t.Fatalf("kind filter: expected 2 entries, got %d", len(byKind.Entries))
	}

	byThread, _ := Replay(path, Filter{Thread: 0x20})
	if len(byThread.Entries) != 1 {
		t.Fatalf("thread filter: expected 1 entry, got %d", len(byThread.Entries))
	}

	future, _ := Replay(path, Filter{From: time.Now().Add(time.Hour)})
	if len(future.Entries) != 0 {
		t.Fatalf("time filter: expected 0 entries, got %d", len(future.Entries))
	}
}

func TestFormatTimeline(t *testing.T) {
	j, path := newTestJournal(t)
	j.Record("s-one", 1, jdwp.SuspendAll, []jdwp.Event{
		jdwp.Breakpoint{RequestID: 1, Thread: 0x1122, Location: testLoc},
	})
	j.Close()

	result, err := Replay(path, Filter{Session: "s-one"})
	if err != nil {
		t.Fatal(err)
	}
	out := FormatTimeline(result)
	if !strings.Contains(out, "Session: s-one") {
		t.Fatalf("missing session header:\n%s", out)
	}
	if !strings.Contains(out, "BREAKPOINT thread=0x1122") {
		t.Fatalf("missing event description:\n%s", out)
	}
	if !strings.Contains(out, "[suspend-all]") {
		t.Fatalf("missing suspend-all tag:\n%s", out)
	}
	if !strings.Contains(out, "Summary: 1 events") {
		t.Fatalf("missing summary:\n%s", out)
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{Session: "s-none"})
	if !strings.Contains(out, "No entries found") {
		t.Fatalf("unexpected empty rendering: %s", out)
	}
}
