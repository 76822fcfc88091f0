package nlmsg

import (
	"encoding/binary"
	"errors"
	"strconv"
)

// HeaderLen is the encoded size of a netlink message header (struct nlmsghdr).
const HeaderLen = 16

// Align is the alignment of netlink messages and their payloads.
const Align = 4

// AlignLen rounds n up to a multiple of [Align].
func AlignLen(n int) int {
	return (n + Align - 1) &^ (Align - 1)
}

// MsgType is the type field of a netlink message header.
type MsgType uint16

// Source: include/uapi/linux/netlink.h
const (
	MsgTypeNoop    MsgType = 0x1
	MsgTypeError   MsgType = 0x2
	MsgTypeDone    MsgType = 0x3
	MsgTypeOverrun MsgType = 0x4

	// MsgTypeMinType is the first message type available to protocols.
	MsgTypeMinType MsgType = 0x10
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeNoop:
		return "NOOP"
	case MsgTypeError:
		return "ERROR"
	case MsgTypeDone:
		return "DONE"
	case MsgTypeOverrun:
		return "OVERRUN"
	default:
		return strconv.FormatUint(uint64(t), 10)
	}
}

// Flags is the flags field of a netlink message header.
type Flags uint16

// Source: include/uapi/linux/netlink.h
const (
	FlagRequest      Flags = 0x1
	FlagMulti        Flags = 0x2
	FlagAck          Flags = 0x4
	FlagEcho         Flags = 0x8
	FlagDumpIntr     Flags = 0x10
	FlagDumpFiltered Flags = 0x20

	// Modifiers to GET requests.
	FlagRoot   Flags = 0x100
	FlagMatch  Flags = 0x200
	FlagAtomic Flags = 0x400
	FlagDump   Flags = FlagRoot | FlagMatch

	// Modifiers to NEW requests.
	FlagReplace Flags = 0x100
	FlagExcl    Flags = 0x200
	FlagCreate  Flags = 0x400
	FlagAppend  Flags = 0x800
)

var flagNames = [...]struct {
	mask Flags
	name string
}{
	{FlagRequest, "REQUEST"},
	{FlagMulti, "MULTI"},
	{FlagAck, "ACK"},
	{FlagEcho, "ECHO"},
	{FlagDumpIntr, "DUMP_INTR"},
	{FlagDumpFiltered, "DUMP_FILTERED"},
}

// appendText appends the named bits joined by commas. The request modifier
// bits have different meanings depending on the message type, so they are
// appended as a single hexadecimal value.
//
// Flags has no text marshaler, so it is encoded as a number in JSON.
func (f Flags) appendText(b []byte) []byte {
	bLen := len(b)
	var named Flags
	for _, flag := range flagNames {
		if f&flag.mask != 0 {
			b = append(b, flag.name...)
			b = append(b, ',')
			named |= flag.mask
		}
	}
	if rest := f &^ named; rest != 0 {
		b = append(b, "0x"...)
		b = strconv.AppendUint(b, uint64(rest), 16)
		b = append(b, ',')
	}
	if len(b) > bLen {
		b = b[:len(b)-1]
	}
	return b
}

func (f Flags) String() string {
	return string(f.appendText(nil))
}

// Header is a netlink message header without its length field.
// The length is implied by the message the header belongs to.
type Header struct {
	Type   MsgType
	Flags  Flags
	Seq    uint32
	PortID uint32
}

// ErrHeaderTooShort is returned when a buffer cannot hold a netlink message header.
var ErrHeaderTooShort = errors.New("buffer too short for netlink message header")

// Put writes the header with the given total message length into b in the
// kernel's native byte order.
//
// b must be at least [HeaderLen] bytes long.
func (h *Header) Put(b []byte, length uint32) {
	_ = b[HeaderLen-1]
	binary.NativeEndian.PutUint32(b, length)
	binary.NativeEndian.PutUint16(b[4:], uint16(h.Type))
	binary.NativeEndian.PutUint16(b[6:], uint16(h.Flags))
	binary.NativeEndian.PutUint32(b[8:], h.Seq)
	binary.NativeEndian.PutUint32(b[12:], h.PortID)
}

// ParseHeader parses the netlink message header at the start of b.
// It returns the header and the total message length stored in it.
func ParseHeader(b []byte) (h Header, length uint32, err error) {
	if len(b) < HeaderLen {
		return Header{}, 0, ErrHeaderTooShort
	}
	length = binary.NativeEndian.Uint32(b)
	h = Header{
		Type:   MsgType(binary.NativeEndian.Uint16(b[4:])),
		Flags:  Flags(binary.NativeEndian.Uint16(b[6:])),
		Seq:    binary.NativeEndian.Uint32(b[8:]),
		PortID: binary.NativeEndian.Uint32(b[12:]),
	}
	return h, length, nil
}
