package relay

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jdwptap/jdwptap/internal/capture"
	"github.com/jdwptap/jdwptap/jdwp"
)

// fakeVM accepts one connection, answers the handshake, then hands the
// conn to fn. Runs in the background; errors just end the session.
func fakeVM(t *testing.T, fn func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, len(handshake))
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		if string(buf) != handshake {
			return
		}
		if _, err := conn.Write([]byte(handshake)); err != nil {
			return
		}
		if fn != nil {
			fn(conn)
		}
	}()
	return ln.Addr().String()
}

// startRelay runs the relay in the background and waits for it to bind.
func startRelay(t *testing.T, cfg Config) (string, string) {
	t.Helper()
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:0"
	}
	if cfg.CaptureDir == "" {
		cfg.CaptureDir = t.TempDir()
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Error("relay did not stop")
		}
	})

	for i := 0; i < 100; i++ {
		if addr := s.Addr(); !strings.HasSuffix(addr, ":0") {
			return addr, cfg.CaptureDir
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("relay did not bind")
	return "", ""
}

// dialAndShake connects to the relay and completes the handshake.
func dialAndShake(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Write([]byte(handshake)); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, len(handshake))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("handshake reply: %v", err)
	}
	conn.SetReadDeadline(time.Time{})
	if string(buf) != handshake {
		t.Fatalf("handshake reply mangled: %q", buf)
	}
	return conn
}

func commandPacket(id uint32, set, cmd byte, data []byte) []byte {
	buf := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(headerSize+len(data)))
	binary.BigEndian.PutUint32(buf[4:8], id)
	buf[9] = set
	buf[10] = cmd
	copy(buf[headerSize:], data)
	return buf
}

func replyPacket(id uint32, errCode uint16, data []byte) []byte {
	buf := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(headerSize+len(data)))
	binary.BigEndian.PutUint32(buf[4:8], id)
	buf[8] = flagReply
	buf[9] = byte(errCode >> 8)
	buf[10] = byte(errCode)
	copy(buf[headerSize:], data)
	return buf
}

// idsizesReplyData builds the 20-byte IDSizes answer with every width n.
func idsizesReplyData(n uint32) []byte {
	data := make([]byte, 20)
	for i := 0; i < 5; i++ {
		binary.BigEndian.PutUint32(data[i*4:], n)
	}
	return data
}

// vmDeathComposite is a minimal one-event composite payload.
func vmDeathComposite() []byte {
	return []byte{0x00, 0x00, 0x00, 0x00, 0x01, 99, 0x00, 0x00, 0x00, 0x05}
}

func readPacket(t *testing.T, conn net.Conn) (packetHeader, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(conn, hb); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	hdr, err := parseHeader(hb)
	if err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	payload := make([]byte, hdr.Length-headerSize)
	if _, err := io.ReadFull(conn, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return hdr, payload
}

func waitForCapture(t *testing.T, dir string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".capture") {
					return filepath.Join(dir, e.Name())
				}
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no capture file appeared")
	return ""
}

func TestRelayCapturesComposites(t *testing.T) {
	vmAddr := fakeVM(t, func(conn net.Conn) {
		// Answer the forwarded IDSizes command, then push one event.
		hb := make([]byte, headerSize)
		if _, err := io.ReadFull(conn, hb); err != nil {
			return
		}
		id := binary.BigEndian.Uint32(hb[4:8])
		conn.Write(replyPacket(id, 0, idsizesReplyData(8)))
		conn.Write(commandPacket(900, cmdSetEvent, cmdComposite, vmDeathComposite()))
	})

	addr, dir := startRelay(t, Config{Target: vmAddr})
	conn := dialAndShake(t, addr)

	if _, err := conn.Write(commandPacket(1, cmdSetVirtualMachine, cmdIDSizes, nil)); err != nil {
		t.Fatal(err)
	}

	reply, replyData := readPacket(t, conn)
	if !reply.IsReply() || reply.ID != 1 {
		t.Fatalf("expected IDSizes reply for id 1, got %+v", reply)
	}
	if len(replyData) != 20 {
		t.Fatalf("expected 20-byte reply data, got %d", len(replyData))
	}

	event, eventData := readPacket(t, conn)
	if event.IsReply() || event.Set != cmdSetEvent || event.Command != cmdComposite {
		t.Fatalf("expected forwarded composite, got %+v", event)
	}
	if !bytes.Equal(eventData, vmDeathComposite()) {
		t.Errorf("composite payload mangled: %x", eventData)
	}

	conn.Close()
	path := waitForCapture(t, dir)

	r, err := capture.Open(path)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer r.Close()

	if got := r.Header().Sizes; got != jdwp.UniformIDSizes(8) {
		t.Errorf("header sizes = %+v, want uniform 8", got)
	}
	pkt, err := r.Next()
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if !bytes.Equal(pkt.Data, vmDeathComposite()) {
		t.Errorf("captured payload mangled: %x", pkt.Data)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected one captured packet, next err = %v", err)
	}
}

func TestRelayFallsBackToConfiguredSizes(t *testing.T) {
	// The VM emits an event and hangs up without ever being asked for
	// IDSizes; the capture must carry the configured fallback widths.
	vmAddr := fakeVM(t, func(conn net.Conn) {
		conn.Write(commandPacket(900, cmdSetEvent, cmdComposite, vmDeathComposite()))
	})

	addr, dir := startRelay(t, Config{Target: vmAddr, Sizes: jdwp.UniformIDSizes(4)})
	conn := dialAndShake(t, addr)

	event, _ := readPacket(t, conn)
	if event.Set != cmdSetEvent {
		t.Fatalf("expected composite, got %+v", event)
	}

	path := waitForCapture(t, dir)
	r, err := capture.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := r.Header().Sizes; got != jdwp.UniformIDSizes(4) {
		t.Errorf("header sizes = %+v, want uniform 4", got)
	}
}

func TestRelayLeavesNoFileForQuietSessions(t *testing.T) {
	vmAddr := fakeVM(t, nil)

	addr, dir := startRelay(t, Config{Target: vmAddr})
	conn := dialAndShake(t, addr)
	conn.Close()

	time.Sleep(200 * time.Millisecond)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no capture for an event-free session, got %d files", len(entries))
	}
}

func TestRelayRejectsBadClientHandshake(t *testing.T) {
	vmAddr := fakeVM(t, nil)
	addr, dir := startRelay(t, Config{Target: vmAddr})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n")); err != nil {
		t.Fatal(err)
	}

	// The relay must hang up without relaying anything.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("expected the relay to close a non-JDWP connection")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no capture files, got %d", len(entries))
	}
}

func TestRelayGoesBlindOnUnparsableStream(t *testing.T) {
	got := make(chan []byte, 1)
	vmAddr := fakeVM(t, func(conn net.Conn) {
		buf := make([]byte, 16)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		got <- buf
	})

	addr, _ := startRelay(t, Config{Target: vmAddr})
	conn := dialAndShake(t, addr)

	// Eleven zero bytes parse as an impossible zero length, pushing the
	// relay into blind-copy mode; the tail must still arrive.
	junk := append(make([]byte, headerSize), []byte("EXTRA")...)
	if _, err := conn.Write(junk); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-got:
		if !bytes.Equal(data, junk) {
			t.Errorf("target received %x, want %x", data, junk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("target never received the junk bytes")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
	if _, err := New(Config{Listen: ":0", Target: "x:1"}); err == nil {
		t.Error("expected error for missing capture dir")
	}
	if _, err := New(Config{Listen: ":0", Target: "x:1", CaptureDir: "/tmp/c", Sizes: jdwp.UniformIDSizes(9)}); err == nil {
		t.Error("expected error for 9-byte widths")
	}
}

func TestParseHeader(t *testing.T) {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], 42)
	binary.BigEndian.PutUint32(buf[4:8], 7)
	buf[8] = flagReply
	buf[9] = 0x01
	buf[10] = 0x02

	hdr, err := parseHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Length != 42 || hdr.ID != 7 {
		t.Errorf("parsed %+v", hdr)
	}
	if !hdr.IsReply() {
		t.Error("reply flag lost")
	}
	if hdr.ErrorCode() != 0x0102 {
		t.Errorf("error code = %#x, want 0x0102", hdr.ErrorCode())
	}

	binary.BigEndian.PutUint32(buf[0:4], headerSize-1)
	if _, err := parseHeader(buf); err == nil {
		t.Error("expected error for length below envelope size")
	}

	if _, err := parseHeader(buf[:5]); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestParseIDSizesReply(t *testing.T) {
	data := make([]byte, 20)
	binary.BigEndian.PutUint32(data[0:4], 2)   // field
	binary.BigEndian.PutUint32(data[4:8], 4)   // method
	binary.BigEndian.PutUint32(data[8:12], 8)  // object
	binary.BigEndian.PutUint32(data[12:16], 8) // reference type
	binary.BigEndian.PutUint32(data[16:20], 4) // frame

	sizes, err := parseIDSizesReply(data)
	if err != nil {
		t.Fatal(err)
	}
	want := jdwp.IDSizes{Field: 2, Method: 4, Object: 8, Thread: 8, ReferenceType: 8, Frame: 4}
	if sizes != want {
		t.Errorf("sizes = %+v, want %+v", sizes, want)
	}

	if _, err := parseIDSizesReply(data[:19]); err == nil {
		t.Error("expected error for short reply")
	}

	binary.BigEndian.PutUint32(data[8:12], 16)
	if _, err := parseIDSizesReply(data); err == nil {
		t.Error("expected error for out-of-range width")
	}
}
