// Package sync provides the kernel's spinlock, used to guard the PMM
// bitmap, VMM page tables and heap free lists from a future interrupt
// handler or second core without changing any of their external
// contracts. On the single-core, interrupts-only-preempt model this
// kernel currently runs under, nothing contends a Spinlock yet — the type
// exists so that contract is ready the day either changes.
package sync

import "sync/atomic"

// Spinlock is a lock where a caller trying to acquire it busy-waits until
// it becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired. Re-acquiring a lock
// already held by the same caller deadlocks.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state)
}

// TryToAcquire attempts to acquire the lock without blocking, reporting
// whether it succeeded.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock. Calling Release on a free lock has no
// effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// archAcquireSpinlock busy-waits, executing PAUSE between attempts, until
// it can swap state from 0 to 1.
func archAcquireSpinlock(state *uint32)
