package nlsock

import (
	"errors"
	"math/bits"
	"os"
	"sync"
)

const (
	// portIdentityMask keeps the low 22 bits of the process identity.
	portIdentityMask = 0x3FFFFF

	// portSlotShift places the slot number above the process identity.
	portSlotShift = 22

	// portSlotWords is the number of 32-bit words in the slot bitmap.
	// 1024 slots fill the 10 bits left above the process identity.
	portSlotWords = 32
)

// ErrPortsExhausted is returned when all local ports of a [PortAllocator] are in use.
var ErrPortsExhausted = errors.New("local netlink port space exhausted")

// PortAllocator hands out local netlink port IDs that are unique within the process.
//
// A port ID is the process identity in the low 22 bits, and a slot number
// in the high 10 bits. The first port handed out is the bare process identity,
// which is what the kernel itself would assign to the first socket of the process.
//
// PortAllocator is safe for concurrent use.
type PortAllocator struct {
	identity func() uint32

	mu   sync.Mutex
	used [portSlotWords]uint32
}

// NewPortAllocator returns a new allocator that derives port IDs from identity.
func NewPortAllocator(identity func() uint32) *PortAllocator {
	return &PortAllocator{identity: identity}
}

// ProcessIdentity returns the process ID.
func ProcessIdentity() uint32 {
	return uint32(os.Getpid())
}

var defaultPortAllocator = NewPortAllocator(ProcessIdentity)

// DefaultPortAllocator returns the process-wide allocator based on [ProcessIdentity].
func DefaultPortAllocator() *PortAllocator {
	return defaultPortAllocator
}

// Acquire marks the lowest free slot as used and returns its port ID.
func (a *PortAllocator) Acquire() (uint32, error) {
	base := a.identity() & portIdentityMask

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, word := range a.used {
		if word == ^uint32(0) {
			continue
		}
		j := bits.TrailingZeros32(^word)
		a.used[i] |= 1 << j
		n := uint32(i*32 + j)
		return base + n<<portSlotShift, nil
	}
	return 0, ErrPortsExhausted
}

// Release returns the slot of port to the free pool.
//
// port must have been returned by [PortAllocator.Acquire].
func (a *PortAllocator) Release(port uint32) {
	n := port >> portSlotShift

	a.mu.Lock()
	a.used[n/32] &^= 1 << (n % 32)
	a.mu.Unlock()
}

// InUse returns the number of slots currently in use.
func (a *PortAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var count int
	for _, word := range a.used {
		count += bits.OnesCount32(word)
	}
	return count
}
