package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/config"
	"github.com/jdwptap/jdwptap/internal/spool"
	"github.com/jdwptap/jdwptap/internal/systemd"
)

var (
	watchConfig      string
	watchPoll        bool
	watchPrintUnit   bool
	watchPrintConfig bool
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchConfig, "config", "c", "", "Path to config YAML (default: ~/.jdwptap/config.yaml)")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll the spool instead of using inotify")
	watchCmd.Flags().BoolVar(&watchPrintUnit, "print-systemd-unit", false, "Print the systemd unit and exit")
	watchCmd.Flags().BoolVar(&watchPrintConfig, "print-config", false, "Print the default config YAML and exit")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the capture spool daemon",
	Long: "Watches the spool directory for capture files, decodes every Composite\n" +
		"packet, journals the events, and files each capture to processed/ or\n" +
		"failed/. Records to the SQLite store and posts webhook notifications\n" +
		"when configured.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPrintUnit {
		fmt.Print(systemd.WatchTemplate())
		return nil
	}
	if watchPrintConfig {
		fmt.Print(config.DefaultYAML())
		return nil
	}

	cfg, err := config.Load(watchConfig)
	if err != nil {
		return err
	}

	d, err := spool.New(spool.Config{
		Dirs:        cfg.Dirs,
		JournalPath: cfg.Journal,
		StorePath:   cfg.Store,
		Sinks:       cfg.Sinks,
		PollMode:    watchPoll || cfg.Poll,
	})
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down spool daemon...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "jdwptap watching %s\n", cfg.Dirs.Spool)
	fmt.Fprintf(os.Stderr, "Journal: %s\n", cfg.Journal)
	if cfg.Store != "" {
		fmt.Fprintf(os.Stderr, "Store:   %s\n", cfg.Store)
	}
	if len(cfg.Sinks) > 0 {
		fmt.Fprintf(os.Stderr, "Sinks:   %d configured\n", len(cfg.Sinks))
	}
	fmt.Fprintln(os.Stderr)

	return d.Run(ctx)
}
