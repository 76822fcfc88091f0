package nlsock

import (
	"log/slog"
	"testing"

	"github.com/database64128/nl-go/nlmsg"
	"github.com/database64128/nl-go/tslogtest"
)

const testIdentity = 10083

type fakeConn struct {
	local  nlmsg.Addr
	closed bool
}

func (c *fakeConn) LocalAddr() nlmsg.Addr {
	return c.local
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// fakeBinder records bind calls and fails them with errs, in order,
// before succeeding.
type fakeBinder struct {
	errs      []error
	calls     []nlmsg.Addr
	protocols []nlmsg.Protocol
	conns     []*fakeConn

	// family and portID, if non-zero, replace the bound address fields.
	family uint16
	portID uint32
}

func (b *fakeBinder) Bind(local nlmsg.Addr, protocol nlmsg.Protocol) (Conn, error) {
	b.calls = append(b.calls, local)
	b.protocols = append(b.protocols, protocol)

	if len(b.errs) > 0 {
		err := b.errs[0]
		b.errs = b.errs[1:]
		return nil, err
	}

	if b.family != 0 {
		local.Family = b.family
	}
	if b.portID != 0 {
		local.PortID = b.portID
	}
	c := &fakeConn{local: local}
	b.conns = append(b.conns, c)
	return c, nil
}

func newTestAllocator() *PortAllocator {
	return NewPortAllocator(func() uint32 { return testIdentity })
}

func newTestSocket(t *testing.T, allocator *PortAllocator, binder Binder) *Socket {
	t.Helper()
	logger := tslogtest.Config{Level: slog.LevelDebug}.NewTestLogger(t)
	s := Config{
		Allocator: allocator,
		Binder:    binder,
	}.New(logger)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
