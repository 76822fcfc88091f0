package nlmsg

import (
	"fmt"
	"strconv"
)

// Protocol identifies the netlink sub-protocol (the socket protocol argument)
// that a socket is bound to and a message belongs to.
type Protocol int

// ProtocolUnset is the sentinel value of [Message.Protocol] meaning the
// caller has not chosen a protocol. It is distinct from every kernel protocol.
const ProtocolUnset Protocol = -1

// Source: include/uapi/linux/netlink.h
const (
	ProtocolRoute         Protocol = 0
	ProtocolUnused        Protocol = 1
	ProtocolUsersock      Protocol = 2
	ProtocolFirewall      Protocol = 3
	ProtocolSockDiag      Protocol = 4
	ProtocolNflog         Protocol = 5
	ProtocolXfrm          Protocol = 6
	ProtocolSELinux       Protocol = 7
	ProtocolISCSI         Protocol = 8
	ProtocolAudit         Protocol = 9
	ProtocolFibLookup     Protocol = 10
	ProtocolConnector     Protocol = 11
	ProtocolNetfilter     Protocol = 12
	ProtocolIP6Fw         Protocol = 13
	ProtocolDNRtmsg       Protocol = 14
	ProtocolKobjectUevent Protocol = 15
	ProtocolGeneric       Protocol = 16
	ProtocolSCSITransport Protocol = 18
	ProtocolEcryptfs      Protocol = 19
	ProtocolRDMA          Protocol = 20
	ProtocolCrypto        Protocol = 21
	ProtocolSMC           Protocol = 22
)

var protocolNames = [...]string{
	ProtocolRoute:         "route",
	ProtocolUnused:        "unused",
	ProtocolUsersock:      "usersock",
	ProtocolFirewall:      "firewall",
	ProtocolSockDiag:      "sock_diag",
	ProtocolNflog:         "nflog",
	ProtocolXfrm:          "xfrm",
	ProtocolSELinux:       "selinux",
	ProtocolISCSI:         "iscsi",
	ProtocolAudit:         "audit",
	ProtocolFibLookup:     "fib_lookup",
	ProtocolConnector:     "connector",
	ProtocolNetfilter:     "netfilter",
	ProtocolIP6Fw:         "ip6_fw",
	ProtocolDNRtmsg:       "dnrtmsg",
	ProtocolKobjectUevent: "kobject_uevent",
	ProtocolGeneric:       "generic",
	ProtocolSCSITransport: "scsitransport",
	ProtocolEcryptfs:      "ecryptfs",
	ProtocolRDMA:          "rdma",
	ProtocolCrypto:        "crypto",
	ProtocolSMC:           "smc",
}

// AppendText implements [encoding.TextAppender.AppendText].
//
// Known protocols are rendered by name, [ProtocolUnset] as "unset",
// and everything else as a decimal number.
func (p Protocol) AppendText(b []byte) ([]byte, error) {
	if p == ProtocolUnset {
		return append(b, "unset"...), nil
	}
	if p >= 0 && int(p) < len(protocolNames) && protocolNames[p] != "" {
		return append(b, protocolNames[p]...), nil
	}
	return strconv.AppendInt(b, int64(p), 10), nil
}

// MarshalText implements [encoding.TextMarshaler.MarshalText].
func (p Protocol) MarshalText() ([]byte, error) {
	return p.AppendText(nil)
}

// UnmarshalText implements [encoding.TextUnmarshaler.UnmarshalText].
//
// It accepts the names produced by [Protocol.MarshalText] and decimal numbers.
func (p *Protocol) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "unset" {
		*p = ProtocolUnset
		return nil
	}
	for i, name := range protocolNames {
		if name != "" && name == s {
			*p = Protocol(i)
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < int64(ProtocolUnset) {
		return fmt.Errorf("invalid netlink protocol: %q", s)
	}
	*p = Protocol(n)
	return nil
}

// String returns the text representation of the protocol.
func (p Protocol) String() string {
	b, _ := p.AppendText(nil)
	return string(b)
}
