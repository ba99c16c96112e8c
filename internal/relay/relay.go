// Package relay is a passive TCP tee between a debugger and a JVM. It
// forwards every byte unmodified in both directions and copies the
// payloads of VM-to-debugger Composite event packets into a capture
// file. It never injects, reorders, or drops traffic and issues no
// commands of its own; if a stream stops parsing, the relay degrades to
// a blind copy rather than disturb the session.
package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

// handshake is the 14-byte magic both sides exchange before any packet.
const handshake = "JDWP-Handshake"

const (
	dialTimeout      = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Config holds relay configuration.
type Config struct {
	Listen     string
	Target     string
	CaptureDir string
	VM         string       // optional label stored in capture headers
	Sizes      jdwp.IDSizes // fallback widths for sessions that never answer IDSizes
}

// Server accepts debugger connections and tees them to the target VM.
type Server struct {
	cfg Config

	mu sync.Mutex
	ln net.Listener
}

// New creates a relay with validated configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Listen == "" || cfg.Target == "" || cfg.CaptureDir == "" {
		return nil, fmt.Errorf("listen, target, and capture directory are required")
	}
	if cfg.Sizes == (jdwp.IDSizes{}) {
		cfg.Sizes = jdwp.UniformIDSizes(8)
	}
	if err := cfg.Sizes.Validate(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg}, nil
}

// Addr returns the bound listen address once Run is serving, the
// configured one before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.cfg.Listen
	}
	return s.ln.Addr().String()
}

// Run listens for debugger connections. Blocks until ctx is cancelled;
// active sessions are torn down on the way out.
func (s *Server) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.CaptureDir, 0750); err != nil {
		return fmt.Errorf("create capture directory: %w", err)
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle runs one debugger session against the target VM.
func (s *Server) handle(ctx context.Context, client net.Conn) {
	defer client.Close()

	target, err := net.DialTimeout("tcp", s.cfg.Target, dialTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay: dial %s: %v\n", s.cfg.Target, err)
		return
	}
	defer target.Close()

	if err := relayHandshake(client, target); err != nil {
		fmt.Fprintf(os.Stderr, "relay: handshake: %v\n", err)
		return
	}

	t := newTee(s.cfg.CaptureDir, s.cfg.VM, s.cfg.Sizes)

	// Tear the session down when the relay itself is stopping.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
			target.Close()
		case <-done:
		}
	}()

	// Each direction closes both conns when it finishes, so the other
	// pump unblocks instead of lingering on a half-open session.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer client.Close()
		defer target.Close()
		pump(client, target, t.noteCommand)
	}()
	go func() {
		defer wg.Done()
		defer client.Close()
		defer target.Close()
		pump(target, client, t.noteReply)
	}()
	wg.Wait()
	close(done)

	if err := t.close(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %s: %v\n", t.session, err)
	}
}

// relayHandshake forwards the 14-byte exchange in both directions and
// verifies each side sent exactly the JDWP magic.
func relayHandshake(client, target net.Conn) error {
	deadline := time.Now().Add(handshakeTimeout)
	client.SetDeadline(deadline)
	target.SetDeadline(deadline)
	defer client.SetDeadline(time.Time{})
	defer target.SetDeadline(time.Time{})

	var buf [len(handshake)]byte
	if _, err := io.ReadFull(client, buf[:]); err != nil {
		return fmt.Errorf("read debugger hello: %w", err)
	}
	if string(buf[:]) != handshake {
		return fmt.Errorf("debugger sent %q, not a JDWP handshake", buf[:])
	}
	if _, err := target.Write(buf[:]); err != nil {
		return fmt.Errorf("forward hello: %w", err)
	}
	if _, err := io.ReadFull(target, buf[:]); err != nil {
		return fmt.Errorf("read VM reply: %w", err)
	}
	if string(buf[:]) != handshake {
		return fmt.Errorf("VM sent %q, not a JDWP handshake", buf[:])
	}
	if _, err := client.Write(buf[:]); err != nil {
		return fmt.Errorf("forward reply: %w", err)
	}
	return nil
}

// pump copies framed packets from src to dst, handing each one to
// inspect after it has been forwarded. If framing breaks it degrades to
// a blind copy so observation can never take the session down.
func pump(src, dst net.Conn, inspect func(packetHeader, []byte)) {
	var hdrBuf [headerSize]byte
	for {
		n, err := io.ReadFull(src, hdrBuf[:])
		if err != nil {
			if n > 0 {
				dst.Write(hdrBuf[:n])
			}
			return
		}
		hdr, err := parseHeader(hdrBuf[:])
		if err != nil || hdr.Length > maxPacketSize {
			if _, err := dst.Write(hdrBuf[:]); err != nil {
				return
			}
			io.Copy(dst, src)
			return
		}
		payload := make([]byte, hdr.Length-headerSize)
		n, err = io.ReadFull(src, payload)
		if err != nil {
			// Forward what arrived so the peer sees the same truncated
			// stream we did.
			dst.Write(hdrBuf[:])
			dst.Write(payload[:n])
			return
		}
		if _, err := dst.Write(hdrBuf[:]); err != nil {
			return
		}
		if _, err := dst.Write(payload); err != nil {
			return
		}
		inspect(hdr, payload)
	}
}
