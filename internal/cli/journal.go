package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/journal"
)

var tailLines int

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalVerifyCmd)
	journalCmd.AddCommand(journalTailCmd)
	journalTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Event journal operations",
	Long:  "Commands for verifying and inspecting the JSONL event journal.",
}

var journalVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify sequence integrity of an event journal",
	Long: "Walks the JSONL journal and validates that every line parses and the\n" +
		"sequence numbers increase without gaps. Exits 0 if valid, 1 if not.",
	Args: cobra.ExactArgs(1),
	RunE: runJournalVerify,
}

var journalTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Show recent journal entries",
	Long:  "Reads the last N entries from the JSONL journal and pretty-prints them.",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTail,
}

func runJournalVerify(cmd *cobra.Command, args []string) error {
	result := journal.Verify(args[0])
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runJournalTail(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	// Read all lines, keep last N
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	start := len(lines) - tailLines
	if start < 0 {
		start = 0
	}

	for _, line := range lines[start:] {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fmt.Println(line)
			continue
		}
		out, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(out))
	}

	return nil
}
