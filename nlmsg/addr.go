package nlmsg

import "strconv"

// FamilyNetlink is the address family of netlink sockets (AF_NETLINK).
const FamilyNetlink = 16

// Addr is a netlink socket address, laid out like struct sockaddr_nl.
//
// The zero value is a valid address. As a destination it addresses the kernel.
type Addr struct {
	Family uint16
	PortID uint32
	Groups uint32
}

// AppendText implements [encoding.TextAppender.AppendText].
//
// The address is rendered as "family/portid/groups", with groups in hexadecimal.
func (a Addr) AppendText(b []byte) ([]byte, error) {
	b = strconv.AppendUint(b, uint64(a.Family), 10)
	b = append(b, '/')
	b = strconv.AppendUint(b, uint64(a.PortID), 10)
	b = append(b, "/0x"...)
	b = strconv.AppendUint(b, uint64(a.Groups), 16)
	return b, nil
}

// MarshalText implements [encoding.TextMarshaler.MarshalText].
func (a Addr) MarshalText() ([]byte, error) {
	return a.AppendText(make([]byte, 0, len("65535/4294967295/0xffffffff")))
}

// String returns the text representation of the address.
func (a Addr) String() string {
	b, _ := a.MarshalText()
	return string(b)
}
