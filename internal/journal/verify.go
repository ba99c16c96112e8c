package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jdwptap/jdwptap/jdwp"
)

// VerifyResult holds the outcome of a journal integrity check.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a JSONL event journal and validates its integrity: every line
// must parse, sequence numbers must increase by exactly one, the suspend
// policy and kind names must be known, and every event payload must
// rehydrate into its typed variant. The first sequence number is accepted
// as-is so journals pruned at the head still verify.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	lineNum := 0
	var prevSeq uint64

	for scanner.Scan() {
		lineNum++

		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("parse error: %v", err),
				ErrorLine: lineNum,
			}
		}

		if lineNum > 1 && entry.Seq != prevSeq+1 {
			return VerifyResult{
				Error:     fmt.Sprintf("sequence break: expected %d, got %d", prevSeq+1, entry.Seq),
				ErrorLine: lineNum,
			}
		}
		prevSeq = entry.Seq

		switch entry.Suspend {
		case jdwp.SuspendNone.String(), jdwp.SuspendEventThread.String(), jdwp.SuspendAll.String():
		default:
			return VerifyResult{
				Error:     fmt.Sprintf("unknown suspend policy %q", entry.Suspend),
				ErrorLine: lineNum,
			}
		}

		kind, ok := jdwp.EventKindFromName(entry.Kind)
		if !ok {
			return VerifyResult{
				Error:     fmt.Sprintf("unknown event kind %q", entry.Kind),
				ErrorLine: lineNum,
			}
		}
		if _, err := jdwp.UnmarshalEvent(kind, entry.Event); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("event payload: %v", err),
				ErrorLine: lineNum,
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: lineNum}
}
