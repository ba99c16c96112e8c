package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/config"
	"github.com/jdwptap/jdwptap/internal/store"
	"github.com/jdwptap/jdwptap/jdwp"
)

var (
	queryStore     string
	querySession   string
	queryKind      string
	queryThread    uint64
	queryRequestID int32
	queryLimit     int
	queryFormat    string
	queryCounts    bool
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryStore, "store", "", "Path to the SQLite store (default: from config)")
	queryCmd.Flags().StringVar(&querySession, "session", "", "Session id filter")
	queryCmd.Flags().StringVar(&queryKind, "kind", "", "Event kind filter (e.g. BREAKPOINT)")
	queryCmd.Flags().Uint64Var(&queryThread, "thread", 0, "Thread id filter")
	queryCmd.Flags().Int32Var(&queryRequestID, "request-id", 0, "Event request id filter")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum rows to return (0 = no limit)")
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "text", "Output format (text|json)")
	queryCmd.Flags().BoolVar(&queryCounts, "counts", false, "Print per-kind counts instead of rows")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the event store",
	Long: "Runs filtered queries against the SQLite event store the watch daemon\n" +
		"maintains. Rows come back in recording order.",
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	storePath := queryStore
	if storePath == "" {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		storePath = cfg.Store
	}
	if storePath == "" {
		return fmt.Errorf("no store configured: pass --store or set store in the config")
	}

	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if queryCounts {
		return printCounts(st)
	}

	if queryKind != "" {
		if _, ok := jdwp.EventKindFromName(queryKind); !ok {
			return fmt.Errorf("unknown event kind %q", queryKind)
		}
	}

	records, err := st.Query(store.Filter{
		Session:   querySession,
		Kind:      queryKind,
		Thread:    queryThread,
		RequestID: queryRequestID,
		Limit:     queryLimit,
	})
	if err != nil {
		return err
	}

	switch queryFormat {
	case "json":
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		fmt.Println(string(out))
	default:
		for _, rec := range records {
			fmt.Printf("%s  %s  #%d.%d  %s\n",
				rec.Timestamp, rec.Session, rec.Packet, rec.Index, describeRecord(rec))
		}
		fmt.Printf("%d rows\n", len(records))
	}

	return nil
}

// describeRecord rehydrates the typed event for its one-line rendering,
// falling back to the stored kind when the payload does not parse.
func describeRecord(rec store.Record) string {
	ev, err := rec.Event()
	if err != nil {
		return rec.Kind
	}
	return jdwp.Describe(ev)
}

func printCounts(st *store.Store) error {
	counts, err := st.Count(querySession)
	if err != nil {
		return err
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	if queryFormat == "json" {
		out, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal counts: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	total := 0
	for _, k := range kinds {
		fmt.Printf("%-32s %d\n", k, counts[k])
		total += counts[k]
	}
	fmt.Printf("%-32s %d\n", "total", total)
	return nil
}
