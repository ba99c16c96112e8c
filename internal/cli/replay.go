package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/config"
	"github.com/jdwptap/jdwptap/internal/journal"
	"github.com/jdwptap/jdwptap/jdwp"
)

var (
	replayJournal string
	replayKind    string
	replayThread  uint64
	replayFrom    string
	replayTo      string
	replayFormat  string
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayJournal, "journal", "j", "", "Path to event journal (default: from config)")
	replayCmd.Flags().StringVar(&replayKind, "kind", "", "Event kind filter (e.g. BREAKPOINT)")
	replayCmd.Flags().Uint64Var(&replayThread, "thread", 0, "Thread id filter")
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "Start time filter (RFC3339)")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "End time filter (RFC3339)")
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Output format (text|json)")
}

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Replay a session from the event journal",
	Long: "Reads the journal, filters by session and optional kind, thread, and\n" +
		"time range, and renders the event timeline with a summary.",
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	journalPath := replayJournal
	if journalPath == "" {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		journalPath = cfg.Journal
	}

	filter := journal.Filter{Session: args[0], Thread: replayThread}

	if replayKind != "" {
		kind, ok := jdwp.EventKindFromName(replayKind)
		if !ok {
			return fmt.Errorf("unknown event kind %q", replayKind)
		}
		filter.Kind = kind
	}
	if replayFrom != "" {
		from, err := time.Parse(time.RFC3339, replayFrom)
		if err != nil {
			return fmt.Errorf("invalid --from time %q: %w", replayFrom, err)
		}
		filter.From = from
	}
	if replayTo != "" {
		to, err := time.Parse(time.RFC3339, replayTo)
		if err != nil {
			return fmt.Errorf("invalid --to time %q: %w", replayTo, err)
		}
		filter.To = to
	}

	result, err := journal.Replay(journalPath, filter)
	if err != nil {
		return err
	}

	switch replayFormat {
	case "json":
		out, err := journal.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(journal.FormatTimeline(result))
	}

	return nil
}
