package sql

import (
	"fmt"
	"sync"
	"time"
)

// LockKey identifies one lockable record for the record lock manager (§6):
// a composite of database, table, index name (empty for the primary row
// lock), and key tuple rendered as its canonical string form.
type LockKey struct {
	Database string
	Table    string
	Index    string
	Key      string
}

func (k LockKey) String() string {
	return fmt.Sprintf("%s.%s[%s]=%s", k.Database, k.Table, k.Index, k.Key)
}

// RecordLockManager is the consumed row-lock contract of §6. Shared/
// exclusive conflict follows standard S/X semantics; locks are held until
// transaction commit/rollback (§5).
type RecordLockManager interface {
	WouldConflict(key LockKey, tx uint64, mode LockMode) bool
	// AcquireLock blocks according to policy (LockWait waits up to the
	// configured timeout, LockNoWait fails immediately on conflict,
	// LockSkipLocked never blocks and instead reports ok=false so the
	// caller can skip the row).
	AcquireLock(ctx *Context, key LockKey, tx uint64, mode LockMode, policy LockWaitPolicy, timeout time.Duration) (ok bool, err error)
	ReleaseAll(tx uint64)
}

type heldLock struct {
	tx   uint64
	mode LockMode
}

// recordLockManager is the default, in-process RecordLockManager
// implementation: a map of LockKey to the set of transactions currently
// holding it, guarded by a mutex and a condition variable for waiters.
// Shared across sessions, as §5 requires.
type recordLockManager struct {
	mu    sync.Mutex
	cond  *sync.Cond
	locks map[LockKey][]heldLock
}

// NewRecordLockManager returns a process-wide lock manager.
func NewRecordLockManager() RecordLockManager {
	m := &recordLockManager{locks: make(map[LockKey][]heldLock)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func conflicts(a, b LockMode) bool {
	return a == LockUpdate || b == LockUpdate
}

func (m *recordLockManager) WouldConflict(key LockKey, tx uint64, mode LockMode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflictsLocked(key, tx, mode)
}

func (m *recordLockManager) conflictsLocked(key LockKey, tx uint64, mode LockMode) bool {
	for _, h := range m.locks[key] {
		if h.tx == tx {
			continue
		}
		if conflicts(h.mode, mode) {
			return true
		}
	}
	return false
}

func (m *recordLockManager) AcquireLock(ctx *Context, key LockKey, tx uint64, mode LockMode, policy LockWaitPolicy, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.conflictsLocked(key, tx, mode) {
		m.grantLocked(key, tx, mode)
		return true, nil
	}

	switch policy {
	case LockNoWait:
		return false, ErrLockNotObtained.New(key.String())
	case LockSkipLocked:
		return false, nil
	default:
		deadline := time.Now().Add(timeout)
		for m.conflictsLocked(key, tx, mode) {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false, ErrLockTimeout.New(key.String())
			}
			waitCh := make(chan struct{})
			go func() {
				time.Sleep(remaining)
				m.cond.Broadcast()
				close(waitCh)
			}()
			m.cond.Wait()
			select {
			case <-waitCh:
			default:
			}
		}
		m.grantLocked(key, tx, mode)
		return true, nil
	}
}

func (m *recordLockManager) grantLocked(key LockKey, tx uint64, mode LockMode) {
	for i, h := range m.locks[key] {
		if h.tx == tx {
			if mode == LockUpdate {
				m.locks[key][i].mode = LockUpdate
			}
			return
		}
	}
	m.locks[key] = append(m.locks[key], heldLock{tx: tx, mode: mode})
}

func (m *recordLockManager) ReleaseAll(tx uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, holders := range m.locks {
		out := holders[:0]
		for _, h := range holders {
			if h.tx != tx {
				out = append(out, h)
			}
		}
		if len(out) == 0 {
			delete(m.locks, key)
		} else {
			m.locks[key] = out
		}
	}
	m.cond.Broadcast()
}
