package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdwptap/jdwptap/internal/capture"
	"github.com/jdwptap/jdwptap/internal/config"
	"github.com/jdwptap/jdwptap/jdwp"
)

var (
	decodeRaw    bool
	decodeIDSize int
	decodeConfig string
	decodeFormat string
	decodeKind   string
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeRaw, "raw", false, "Treat the file as one raw Composite payload instead of a capture")
	decodeCmd.Flags().IntVar(&decodeIDSize, "id-size", 0, "Identifier width in bytes for --raw (default: from config)")
	decodeCmd.Flags().StringVarP(&decodeConfig, "config", "c", "", "Path to config YAML (for --raw widths)")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "text", "Output format (text|json)")
	decodeCmd.Flags().StringVar(&decodeKind, "kind", "", "Only print events of this kind (e.g. BREAKPOINT)")
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a capture file and print its events",
	Long: "Decodes every Composite packet in a capture file using the identifier\n" +
		"widths recorded in its header, and prints the events as a timeline or\n" +
		"JSON. With --raw the file holds a single Composite payload (envelope\n" +
		"already stripped) and the widths come from --id-size or the config.",
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

// decodedEvent is one event of a packet, with the typed payload alongside
// the fields every kind shares.
type decodedEvent struct {
	Index     int        `json:"index"`
	Kind      string     `json:"kind"`
	RequestID int32      `json:"request_id"`
	Thread    uint64     `json:"thread,omitempty"`
	Summary   string     `json:"summary"`
	Event     jdwp.Event `json:"event"`
}

type decodedPacket struct {
	Seq      uint64         `json:"seq"`
	Time     string         `json:"time,omitempty"`
	Suspend  string         `json:"suspend"`
	Trailing int            `json:"trailing,omitempty"`
	Events   []decodedEvent `json:"events"`
}

type decodeResult struct {
	Session string          `json:"session,omitempty"`
	VM      string          `json:"vm,omitempty"`
	Sizes   jdwp.IDSizes    `json:"sizes"`
	Packets []decodedPacket `json:"packets"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	var kindFilter jdwp.EventKind
	if decodeKind != "" {
		kind, ok := jdwp.EventKindFromName(decodeKind)
		if !ok {
			return fmt.Errorf("unknown event kind %q", decodeKind)
		}
		kindFilter = kind
	}

	var (
		result *decodeResult
		err    error
	)
	if decodeRaw {
		result, err = decodeRawFile(args[0], kindFilter)
	} else {
		result, err = decodeCaptureFile(args[0], kindFilter)
	}
	if err != nil {
		return err
	}

	switch decodeFormat {
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(out))
	default:
		fmt.Print(formatDecodeText(result))
	}
	return nil
}

func decodeCaptureFile(path string, kindFilter jdwp.EventKind) (*decodeResult, error) {
	r, err := capture.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	hdr := r.Header()
	result := &decodeResult{Session: hdr.Session, VM: hdr.VM, Sizes: hdr.Sizes}

	for {
		pkt, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet: %w", err)
		}
		comp, err := jdwp.DecodeComposite(pkt.Data, hdr.Sizes)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", pkt.Seq, err)
		}
		result.Packets = append(result.Packets, newDecodedPacket(pkt.Seq, pkt.Time, comp, kindFilter))
	}
	return result, nil
}

func decodeRawFile(path string, kindFilter jdwp.EventKind) (*decodeResult, error) {
	sizes, err := rawSizes()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	comp, err := jdwp.DecodeComposite(data, sizes)
	if err != nil {
		return nil, err
	}
	return &decodeResult{
		Sizes:   sizes,
		Packets: []decodedPacket{newDecodedPacket(1, "", comp, kindFilter)},
	}, nil
}

// rawSizes resolves the identifier widths for --raw: an explicit --id-size
// wins, otherwise the config's id_sizes apply.
func rawSizes() (jdwp.IDSizes, error) {
	if decodeIDSize != 0 {
		sizes := jdwp.UniformIDSizes(decodeIDSize)
		if err := sizes.Validate(); err != nil {
			return jdwp.IDSizes{}, err
		}
		return sizes, nil
	}
	cfg, err := config.Load(decodeConfig)
	if err != nil {
		return jdwp.IDSizes{}, err
	}
	return cfg.Sizes, nil
}

func newDecodedPacket(seq uint64, ts string, comp *jdwp.Composite, kindFilter jdwp.EventKind) decodedPacket {
	pkt := decodedPacket{
		Seq:      seq,
		Time:     ts,
		Suspend:  comp.SuspendPolicy.String(),
		Trailing: comp.Trailing,
	}
	for i, ev := range comp.Events {
		if kindFilter != 0 && ev.Kind() != kindFilter {
			continue
		}
		de := decodedEvent{
			Index:     i,
			Kind:      ev.Kind().String(),
			RequestID: jdwp.RequestIDOf(ev),
			Summary:   jdwp.Describe(ev),
			Event:     ev,
		}
		if thread, ok := jdwp.ThreadOf(ev); ok {
			de.Thread = uint64(thread)
		}
		pkt.Events = append(pkt.Events, de)
	}
	return pkt
}

func formatDecodeText(result *decodeResult) string {
	var b strings.Builder

	if result.Session != "" {
		b.WriteString("Capture: " + result.Session)
		if result.VM != "" {
			b.WriteString(" | vm " + result.VM)
		}
		b.WriteString("\n")
	}

	if len(result.Packets) == 0 {
		b.WriteString("No packets.\n")
		return b.String()
	}

	events := 0
	for _, pkt := range result.Packets {
		line := fmt.Sprintf("#%d  %s", pkt.Seq, pkt.Suspend)
		if pkt.Time != "" {
			line += "  " + pkt.Time
		}
		if pkt.Trailing > 0 {
			line += fmt.Sprintf("  (%d trailing bytes)", pkt.Trailing)
		}
		b.WriteString(line + "\n")
		for _, ev := range pkt.Events {
			b.WriteString(fmt.Sprintf("  [%d] %s\n", ev.Index, ev.Summary))
			events++
		}
	}

	b.WriteString(fmt.Sprintf("%d packets, %d events\n", len(result.Packets), events))
	return b.String()
}
