package breakpoint

import "sync/atomic"

// nonZeroCounter is an atomic count of entries with non-zero flags,
// giving IsEmpty an O(1) lock-free fast path.
type nonZeroCounter struct {
	n int64
}

func (c *nonZeroCounter) inc()         { atomic.AddInt64(&c.n, 1) }
func (c *nonZeroCounter) dec()         { atomic.AddInt64(&c.n, -1) }
func (c *nonZeroCounter) isZero() bool { return atomic.LoadInt64(&c.n) == 0 }
