package sql

import "sync/atomic"

// ProcessMemory is the process-wide memory reporter the default
// MemoryManager consults; integrators may replace it with a reporter backed
// by runtime.MemStats or a cgroup limit.
var ProcessMemory MemoryReporter = staticMemoryReporter(0)

// MemoryReporter reports current process memory usage in bytes.
type MemoryReporter interface {
	UsedBytes() uint64
}

type staticMemoryReporter uint64

func (s staticMemoryReporter) UsedBytes() uint64 { return uint64(s) }

// MemoryManager tracks a configurable budget (§4.4) consulted by the spill
// subsystem: once reservations would exceed the budget, ExternalSort/
// SpillableHashAgg spill to disk instead of growing their in-memory buffer
// further.
type MemoryManager struct {
	reporter MemoryReporter
	budget   int64
	reserved int64
}

// NewMemoryManager returns a manager reporting against the given reporter,
// with no budget configured (SetBudget to enable spill-triggering).
func NewMemoryManager(reporter MemoryReporter) *MemoryManager {
	return &MemoryManager{reporter: reporter}
}

// SetBudget sets the byte budget an operator's reservation request is
// checked against.
func (m *MemoryManager) SetBudget(bytes int64) { atomic.StoreInt64(&m.budget, bytes) }

// Budget returns the configured byte budget, or 0 if unset (unbounded).
func (m *MemoryManager) Budget() int64 { return atomic.LoadInt64(&m.budget) }

// Reserve attempts to reserve n bytes against the budget, returning false if
// doing so would exceed it. A zero budget means unbounded and always
// succeeds.
func (m *MemoryManager) Reserve(n int64) bool {
	budget := m.Budget()
	if budget <= 0 {
		atomic.AddInt64(&m.reserved, n)
		return true
	}
	for {
		cur := atomic.LoadInt64(&m.reserved)
		if cur+n > budget {
			return false
		}
		if atomic.CompareAndSwapInt64(&m.reserved, cur, cur+n) {
			return true
		}
	}
}

// Release returns n bytes to the budget.
func (m *MemoryManager) Release(n int64) {
	atomic.AddInt64(&m.reserved, -n)
}
