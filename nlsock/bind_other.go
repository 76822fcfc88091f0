//go:build !linux

package nlsock

import (
	"errors"
	"fmt"

	"github.com/database64128/nl-go/nlmsg"
)

// Bind implements [Binder.Bind].
func (KernelBinder) Bind(_ nlmsg.Addr, _ nlmsg.Protocol) (Conn, error) {
	return nil, fmt.Errorf("netlink sockets: %w", errors.ErrUnsupported)
}
