package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/relay"
	"github.com/jdwptap/jdwptap/internal/systemd"
	"github.com/jdwptap/jdwptap/jdwp"
)

var (
	relayListen     string
	relayTarget     string
	relayCaptureDir string
	relayVM         string
	relayIDSize     int
	relayPrintUnit  bool
)

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVar(&relayListen, "listen", "127.0.0.1:5006", "Address to accept debugger connections on")
	relayCmd.Flags().StringVar(&relayTarget, "target", "", "JVM debug address to forward to (required)")
	relayCmd.Flags().StringVar(&relayCaptureDir, "capture-dir", "", "Directory capture files are written to (required)")
	relayCmd.Flags().StringVar(&relayVM, "vm", "", "VM label recorded in capture headers")
	relayCmd.Flags().IntVar(&relayIDSize, "id-size", 8, "Fallback identifier width when no IDSizes reply is seen")
	relayCmd.Flags().BoolVar(&relayPrintUnit, "print-systemd-unit", false, "Print the systemd unit and exit")
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay a debug session and capture its event packets",
	Long: "Sits between a debugger and a JVM, forwards traffic unmodified in both\n" +
		"directions, and tees Composite event packets into a capture file per\n" +
		"session. Point the debugger at --listen instead of the JVM.",
	RunE: runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	if relayPrintUnit {
		fmt.Print(systemd.RelayTemplate())
		return nil
	}

	srv, err := relay.New(relay.Config{
		Listen:     relayListen,
		Target:     relayTarget,
		CaptureDir: relayCaptureDir,
		VM:         relayVM,
		Sizes:      jdwp.UniformIDSizes(relayIDSize),
	})
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down relay...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "jdwptap relaying %s -> %s\n", relayListen, relayTarget)
	fmt.Fprintf(os.Stderr, "Captures: %s\n", relayCaptureDir)
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
