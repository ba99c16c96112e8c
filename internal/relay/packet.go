package relay

import (
	"encoding/binary"
	"fmt"

	"github.com/jdwptap/jdwptap/jdwp"
)

// headerSize is the fixed JDWP packet envelope size: length u32, id u32,
// flags u8, then command set u8 + command u8 (or a u16 error code on
// replies).
const headerSize = 11

// flagReply marks reply packets.
const flagReply = 0x80

// maxPacketSize bounds the packets the relay will frame. Anything larger
// flips the session to a blind copy; the capture container caps lines
// well above the base64 expansion of this.
const maxPacketSize = 8 << 20

const (
	cmdSetVirtualMachine = 1
	cmdIDSizes           = 7

	cmdSetEvent  = 64
	cmdComposite = 100
)

// packetHeader is one parsed JDWP envelope. On replies, Set and Command
// hold the two error-code bytes instead.
type packetHeader struct {
	Length  uint32
	ID      uint32
	Flags   byte
	Set     byte
	Command byte
}

// IsReply reports whether the packet answers a command.
func (h packetHeader) IsReply() bool { return h.Flags&flagReply != 0 }

// ErrorCode returns the reply error code. Zero means success.
func (h packetHeader) ErrorCode() uint16 {
	return uint16(h.Set)<<8 | uint16(h.Command)
}

// parseHeader decodes an 11-byte envelope.
func parseHeader(buf []byte) (packetHeader, error) {
	if len(buf) < headerSize {
		return packetHeader{}, fmt.Errorf("relay: short envelope: %d bytes", len(buf))
	}
	h := packetHeader{
		Length:  binary.BigEndian.Uint32(buf[0:4]),
		ID:      binary.BigEndian.Uint32(buf[4:8]),
		Flags:   buf[8],
		Set:     buf[9],
		Command: buf[10],
	}
	if h.Length < headerSize {
		return packetHeader{}, fmt.Errorf("relay: packet length %d below envelope size", h.Length)
	}
	return h, nil
}

// parseIDSizesReply decodes the VirtualMachine.IDSizes reply data: five
// big-endian u32 widths in protocol order (field, method, object,
// reference type, frame). Thread IDs share the object width.
func parseIDSizesReply(data []byte) (jdwp.IDSizes, error) {
	if len(data) < 20 {
		return jdwp.IDSizes{}, fmt.Errorf("relay: IDSizes reply is %d bytes, need 20", len(data))
	}
	sizes := jdwp.IDSizes{
		Field:         int(binary.BigEndian.Uint32(data[0:4])),
		Method:        int(binary.BigEndian.Uint32(data[4:8])),
		Object:        int(binary.BigEndian.Uint32(data[8:12])),
		ReferenceType: int(binary.BigEndian.Uint32(data[12:16])),
		Frame:         int(binary.BigEndian.Uint32(data[16:20])),
	}
	sizes.Thread = sizes.Object
	if err := sizes.Validate(); err != nil {
		return jdwp.IDSizes{}, err
	}
	return sizes, nil
}
