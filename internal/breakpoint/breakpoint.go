// Package breakpoint implements a sparse address -> flags
// index for the four GDB hit classes (hardware breakpoint, memory
// breakpoint, watch-on-read, watch-on-write), optimized for the "no
// breakpoints installed" fast path that the CPU hot loop takes on every
// instruction and every memory access.
package breakpoint

import "sync"

// Flag bits, one per hit class.
const (
	BreakHW = 1 << iota
	BreakMem
	WatchRead
	WatchWrite
)

// DB is a breakpoint/watchpoint database. The zero value is ready to use.
// Mutation happens under db.mu; the hot read path (Get, IsEmpty) never
// blocks on a writer holding the lock for longer than a map lookup, and
// IsEmpty in particular never touches the lock at all: it reads an
// atomic count of non-zero entries maintained alongside the map.
type DB struct {
	mu      sync.RWMutex
	entries map[uint64]uint32
	nonzero nonZeroCounter
}

// Set installs flags at addr, or removes the entry entirely when flags is
// 0: an all-zero flag value is equivalent to absence for every purpose,
// including IsEmpty.
func (db *DB) Set(addr uint64, flags uint32) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.entries == nil {
		db.entries = make(map[uint64]uint32)
	}
	_, existed := db.entries[addr]
	if flags == 0 {
		if existed {
			delete(db.entries, addr)
			db.nonzero.dec()
		}
		return
	}
	if !existed {
		db.nonzero.inc()
	}
	db.entries[addr] = flags
}

// Get returns the flags installed at addr, or 0 if none.
func (db *DB) Get(addr uint64) uint32 {
	if db.nonzero.isZero() {
		return 0
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.entries[addr]
}

// IsEmpty reports whether no address currently has non-zero flags. It is
// lock-free: the CPU hot path calls this before every instruction and
// every memory access, so it must not contend with the rare
// install/remove path.
func (db *DB) IsEmpty() bool {
	return db.nonzero.isZero()
}
