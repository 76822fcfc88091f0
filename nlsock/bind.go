package nlsock

import (
	"errors"
	"syscall"

	"github.com/database64128/nl-go/nlmsg"
	"golang.org/x/net/bpf"
)

var (
	// ErrAlreadyConnected is returned when connecting a socket that is already connected.
	ErrAlreadyConnected = errors.New("netlink socket is already connected")

	// ErrAddressFamily is returned when the kernel binds a socket to a non-netlink address.
	ErrAddressFamily = errors.New("bound address is not a netlink address")
)

// Conn is a kernel socket bound by a [Binder].
type Conn interface {
	// LocalAddr returns the address the kernel bound the socket to.
	LocalAddr() nlmsg.Addr

	// Close closes the socket.
	Close() error
}

// Binder creates kernel sockets for the given protocol and binds them to local.
type Binder interface {
	Bind(local nlmsg.Addr, protocol nlmsg.Protocol) (Conn, error)
}

// SocketOptions are options applied to kernel sockets before binding.
type SocketOptions struct {
	// SendBufferSize sets SO_SNDBUF if positive.
	SendBufferSize int `json:"sendBufferSize"`

	// ReceiveBufferSize sets SO_RCVBUF if positive.
	ReceiveBufferSize int `json:"receiveBufferSize"`

	// ExtendedAck enables extended ACK reporting (NETLINK_EXT_ACK).
	ExtendedAck bool `json:"extendedAck"`

	// Filter is a classic BPF program attached to the socket with SO_ATTACH_FILTER.
	Filter []bpf.Instruction `json:"-"`
}

// KernelBinder binds netlink sockets in the kernel.
//
// It is only implemented on Linux. On other platforms Bind returns an error
// that matches [errors.ErrUnsupported].
type KernelBinder struct {
	Options SocketOptions
}

// BindError is returned when a netlink socket cannot be connected.
type BindError struct {
	Protocol nlmsg.Protocol
	Err      error
}

func (e *BindError) Error() string {
	return "failed to connect netlink socket to protocol " + e.Protocol.String() + ": " + e.Err.Error()
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Errno returns the system error code that caused the failure, or 0 if the
// failure did not come from a system call.
func (e *BindError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}
