package testutil

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Well-known identities used across tests.
var (
	Creator = common.HexToAddress("0x1000000000000000000000000000000000000001")
	Alice   = common.HexToAddress("0xa00000000000000000000000000000000000000a")
	Bob     = common.HexToAddress("0xb00000000000000000000000000000000000000b")
	Carol   = common.HexToAddress("0xc00000000000000000000000000000000000000c")
	Mint    = common.HexToAddress("0xd000000000000000000000000000000000000e60")
)

// FakeClock is a settable ledger clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock fixed at the given unix second.
func NewFakeClock(unix int64) *FakeClock {
	return &FakeClock{now: time.Unix(unix, 0)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// SetUnix moves the clock to the given unix second.
func (c *FakeClock) SetUnix(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = time.Unix(unix, 0)
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
