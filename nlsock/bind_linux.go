package nlsock

import (
	"fmt"
	"os"

	"github.com/database64128/nl-go/nlmsg"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

type setFunc = func(fd int) error

type setFuncSlice []setFunc

func (fns setFuncSlice) apply(fd int) error {
	for _, fn := range fns {
		if err := fn(fd); err != nil {
			return err
		}
	}
	return nil
}

func (fns setFuncSlice) appendSetSendBufferSize(size int) setFuncSlice {
	if size > 0 {
		return append(fns, func(fd int) error {
			if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, size); err != nil {
				return fmt.Errorf("failed to set socket option SO_SNDBUF: %w", err)
			}
			return nil
		})
	}
	return fns
}

func (fns setFuncSlice) appendSetRecvBufferSize(size int) setFuncSlice {
	if size > 0 {
		return append(fns, func(fd int) error {
			if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, size); err != nil {
				return fmt.Errorf("failed to set socket option SO_RCVBUF: %w", err)
			}
			return nil
		})
	}
	return fns
}

func (fns setFuncSlice) appendSetExtendedAck(extAck bool) setFuncSlice {
	if extAck {
		return append(fns, func(fd int) error {
			if err := unix.SetsockoptInt(fd, unix.SOL_NETLINK, unix.NETLINK_EXT_ACK, 1); err != nil {
				return fmt.Errorf("failed to set socket option NETLINK_EXT_ACK: %w", err)
			}
			return nil
		})
	}
	return fns
}

func (fns setFuncSlice) appendAttachFilter(filter []unix.SockFilter) setFuncSlice {
	if len(filter) > 0 {
		return append(fns, func(fd int) error {
			prog := unix.SockFprog{
				Len:    uint16(len(filter)),
				Filter: &filter[0],
			}
			if err := unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog); err != nil {
				return fmt.Errorf("failed to set socket option SO_ATTACH_FILTER: %w", err)
			}
			return nil
		})
	}
	return fns
}

func (o SocketOptions) buildSetFns() (setFuncSlice, error) {
	filter, err := assembleFilter(o.Filter)
	if err != nil {
		return nil, err
	}
	return setFuncSlice{}.
		appendSetSendBufferSize(o.SendBufferSize).
		appendSetRecvBufferSize(o.ReceiveBufferSize).
		appendSetExtendedAck(o.ExtendedAck).
		appendAttachFilter(filter), nil
}

// assembleFilter assembles a classic BPF program into the kernel's sock_filter layout.
func assembleFilter(program []bpf.Instruction) ([]unix.SockFilter, error) {
	if len(program) == 0 {
		return nil, nil
	}
	raw, err := bpf.Assemble(program)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble socket filter: %w", err)
	}
	filter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		filter[i] = unix.SockFilter{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		}
	}
	return filter, nil
}

// KernelConn is a netlink socket bound by [KernelBinder].
type KernelConn struct {
	f     *os.File
	local nlmsg.Addr
}

// LocalAddr implements [Conn.LocalAddr].
func (c *KernelConn) LocalAddr() nlmsg.Addr {
	return c.local
}

// File returns the underlying socket file.
func (c *KernelConn) File() *os.File {
	return c.f
}

// Close implements [Conn.Close].
func (c *KernelConn) Close() error {
	return c.f.Close()
}

// Bind implements [Binder.Bind].
func (b KernelBinder) Bind(local nlmsg.Addr, protocol nlmsg.Protocol) (Conn, error) {
	fns, err := b.Options.buildSetFns()
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(protocol))
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	bound, err := bindFd(fd, local, fns)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &KernelConn{
		f:     os.NewFile(uintptr(fd), "netlink"),
		local: bound,
	}, nil
}

func bindFd(fd int, local nlmsg.Addr, fns setFuncSlice) (nlmsg.Addr, error) {
	if err := fns.apply(fd); err != nil {
		return nlmsg.Addr{}, err
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Pid:    local.PortID,
		Groups: local.Groups,
	}); err != nil {
		return nlmsg.Addr{}, os.NewSyscallError("bind", err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nlmsg.Addr{}, os.NewSyscallError("getsockname", err)
	}

	nsa, ok := sa.(*unix.SockaddrNetlink)
	if !ok {
		return nlmsg.Addr{}, ErrAddressFamily
	}

	return nlmsg.Addr{
		Family: nsa.Family,
		PortID: nsa.Pid,
		Groups: nsa.Groups,
	}, nil
}
