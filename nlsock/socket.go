// Package nlsock implements netlink sockets on the client side: local port
// assignment, protocol binding, and completion of outbound messages.
package nlsock

import (
	"errors"
	"log/slog"
	"syscall"
	"time"

	"github.com/database64128/nl-go/nlmsg"
	"github.com/database64128/nl-go/tslog"
)

// Config is the configuration for creating a [*Socket].
type Config struct {
	// Allocator assigns local port IDs.
	// If nil, [DefaultPortAllocator] is used.
	Allocator *PortAllocator

	// Binder binds the socket in [Socket.Connect].
	// If nil, a [KernelBinder] with default options is used.
	Binder Binder
}

// New allocates a new unconnected socket.
//
// The local port ID is assigned immediately. If the allocator is exhausted,
// the port ID stays 0 and assignment is retried by [Socket.Connect].
func (c Config) New(logger *tslog.Logger) *Socket {
	allocator := c.Allocator
	if allocator == nil {
		allocator = DefaultPortAllocator()
	}

	binder := c.Binder
	if binder == nil {
		binder = KernelBinder{}
	}

	seq := uint32(time.Now().Unix())

	s := Socket{
		logger:    logger,
		allocator: allocator,
		binder:    binder,
		local:     nlmsg.Addr{Family: nlmsg.FamilyNetlink},
		seqNext:   seq,
		seqExpect: seq,
	}

	port, err := allocator.Acquire()
	if err != nil {
		logger.Warn("Failed to assign local port", tslog.Err(err))
	} else {
		s.local.PortID = port
		s.autoPort = port
	}

	logger.Debug("Allocated socket", tslog.NetlinkAddr("local", s.local))
	return &s
}

// New allocates a new unconnected socket with the default configuration.
func New(logger *tslog.Logger) *Socket {
	return Config{}.New(logger)
}

// Socket is a netlink socket.
//
// A Socket is not safe for concurrent use.
type Socket struct {
	logger    *tslog.Logger
	allocator *PortAllocator
	binder    Binder
	conn      Conn

	local nlmsg.Addr
	peer  nlmsg.Addr
	proto nlmsg.Protocol

	seqNext   uint32
	seqExpect uint32

	// autoPort is the port ID acquired from the allocator, or 0.
	autoPort uint32
}

// Local returns the local address.
func (s *Socket) Local() nlmsg.Addr {
	return s.local
}

// Peer returns the peer address. It is zero until the socket is connected.
func (s *Socket) Peer() nlmsg.Addr {
	return s.peer
}

// Protocol returns the protocol the socket is connected to.
// It is [nlmsg.ProtocolRoute] (0) before the socket is connected.
func (s *Socket) Protocol() nlmsg.Protocol {
	return s.proto
}

// LocalPort returns the local port ID.
func (s *Socket) LocalPort() uint32 {
	return s.local.PortID
}

// SetLocalPort sets the local port ID, returning any automatically assigned
// port to the allocator.
//
// A port of 0 requests automatic assignment when the socket is connected.
func (s *Socket) SetLocalPort(port uint32) {
	s.releaseAutoPort()
	s.local.PortID = port
}

func (s *Socket) releaseAutoPort() {
	if s.autoPort != 0 {
		s.allocator.Release(s.autoPort)
		s.autoPort = 0
	}
}

// Conn returns the bound kernel socket, or nil if the socket is not connected.
func (s *Socket) Conn() Conn {
	return s.conn
}

// NextSeq returns the next sequence number and advances the counter.
func (s *Socket) NextSeq() uint32 {
	seq := s.seqNext
	s.seqNext++
	return seq
}

// SeqExpect returns the sequence number expected in the next reply.
func (s *Socket) SeqExpect() uint32 {
	return s.seqExpect
}

// Connect creates a kernel socket for protocol and binds it to the local address.
//
// On failure, a [*BindError] is returned and the socket is left as it was.
func (s *Socket) Connect(protocol nlmsg.Protocol) error {
	if s.conn != nil {
		return &BindError{Protocol: protocol, Err: ErrAlreadyConnected}
	}

	prevLocal, prevAutoPort := s.local, s.autoPort

	var local nlmsg.Addr
	conn, err := s.bind(protocol)
	if err == nil {
		if local = conn.LocalAddr(); local.Family != nlmsg.FamilyNetlink {
			_ = conn.Close()
			err = ErrAddressFamily
		}
	}
	if err != nil {
		// Ports that failed with EADDRINUSE stay reserved.
		if s.autoPort != prevAutoPort {
			s.releaseAutoPort()
		}
		s.local, s.autoPort = prevLocal, prevAutoPort
		return &BindError{Protocol: protocol, Err: err}
	}

	s.conn = conn
	s.proto = protocol
	s.local = local
	s.peer = nlmsg.Addr{Family: nlmsg.FamilyNetlink}

	s.logger.Info("Connected socket",
		slog.Any("protocol", protocol),
		tslog.NetlinkAddr("local", s.local),
	)
	return nil
}

// bind binds a kernel socket, assigning a local port first if needed.
// An automatically assigned port rejected with EADDRINUSE is replaced
// with the next free one.
func (s *Socket) bind(protocol nlmsg.Protocol) (Conn, error) {
	if s.local.PortID == 0 {
		if err := s.assignPort(); err != nil {
			return nil, err
		}
	}

	for {
		conn, err := s.binder.Bind(s.local, protocol)
		if err == nil {
			return conn, nil
		}
		if s.autoPort == 0 || !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}

		// Someone outside the allocator took the port. Keep it marked as used.
		s.logger.Debug("Local port in use, reassigning",
			tslog.Uint("port", s.local.PortID),
		)
		s.autoPort = 0
		s.local.PortID = 0
		if err = s.assignPort(); err != nil {
			return nil, err
		}
	}
}

func (s *Socket) assignPort() error {
	port, err := s.allocator.Acquire()
	if err != nil {
		return err
	}
	s.local.PortID = port
	s.autoPort = port
	return nil
}

// Close returns the automatically assigned port to the allocator
// and closes the kernel socket if connected.
//
// The socket may be connected again afterwards. A port that was assigned
// automatically is then assigned anew.
func (s *Socket) Close() error {
	if s.autoPort != 0 {
		s.releaseAutoPort()
		s.local.PortID = 0
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.proto = 0
	s.peer = nlmsg.Addr{}
	return err
}

// Complete fills in the fields of msg that the kernel requires.
// See [Complete].
func (s *Socket) Complete(msg *nlmsg.Message) {
	Complete(s, msg)
}
