// Package nlmsg implements outbound netlink messages: the header, addressing
// metadata, and the payload buffer.
package nlmsg

import (
	"errors"
	"math"

	"github.com/database64128/nl-go/slicehelper"
)

// DefaultSize is the size hint used by [AllocSimple]. It matches the page size
// the kernel uses for netlink socket buffers.
const DefaultSize = 4096

// ErrMessageTooLarge is returned when a message is too long to be encoded
// in the 32-bit header length field.
var ErrMessageTooLarge = errors.New("netlink message length exceeds 32 bits")

// Message is an outbound netlink message.
//
// Fields that are filled in by completion start at their sentinel values:
// Protocol at [ProtocolUnset], Header.PortID at 0.
type Message struct {
	// Protocol is the netlink protocol the message is sent on.
	Protocol Protocol

	// Flags are message-level flags. They are not part of the header.
	Flags int

	// Src is the source address. The zero value lets the kernel fill it in.
	Src Addr

	// Dst is the destination address. The zero value addresses the kernel.
	Dst Addr

	// Header is the netlink message header, excluding the length field.
	Header Header

	payload []byte
}

// Alloc allocates a new message with the given header type and flags.
//
// size is a hint for the total encoded size, header included.
// The payload grows beyond it as needed.
func Alloc(typ MsgType, flags Flags, size int) *Message {
	size = max(size, HeaderLen)
	return &Message{
		Protocol: ProtocolUnset,
		Header: Header{
			Type:  typ,
			Flags: flags,
		},
		payload: make([]byte, 0, size-HeaderLen),
	}
}

// AllocSimple is like [Alloc] with a size hint of [DefaultSize].
func AllocSimple(typ MsgType, flags Flags) *Message {
	return Alloc(typ, flags, DefaultSize)
}

// Payload returns the message payload.
func (m *Message) Payload() []byte {
	return m.payload
}

// Len returns the encoded length of the message, header included.
func (m *Message) Len() int {
	return HeaderLen + len(m.payload)
}

// Reserve extends the payload by n zeroed bytes and returns them.
//
// If pad is positive, the extension is rounded up to a multiple of pad,
// and the padding bytes are zeroed as well. Use [Align] for netlink alignment.
func (m *Message) Reserve(n, pad int) []byte {
	tlen := n
	if pad > 0 {
		tlen = (n + pad - 1) / pad * pad
	}
	var tail []byte
	m.payload, tail = slicehelper.Extend(m.payload, tlen)
	clear(tail)
	return tail[:n]
}

// Append copies data to the end of the payload, padded as in [Message.Reserve].
func (m *Message) Append(data []byte, pad int) {
	_ = copy(m.Reserve(len(data), pad), data)
}

// AppendBinary implements [encoding.BinaryAppender.AppendBinary].
//
// The header is encoded with the message length in front, followed by the payload.
func (m *Message) AppendBinary(b []byte) ([]byte, error) {
	length := m.Len()
	if uint64(length) > math.MaxUint32 {
		return b, ErrMessageTooLarge
	}
	var hdr []byte
	b, hdr = slicehelper.Extend(b, HeaderLen)
	m.Header.Put(hdr, uint32(length))
	return append(b, m.payload...), nil
}

// MarshalBinary implements [encoding.BinaryMarshaler.MarshalBinary].
func (m *Message) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.Len()))
}
