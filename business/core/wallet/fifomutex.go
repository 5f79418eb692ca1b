package wallet

import "sync"

// fifoMutex is an exclusive lock with first-in-first-out wake order, so
// concurrent operations on the same account handle are served in arrival
// order rather than at the scheduler's whim.
type fifoMutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

// Lock blocks until the lock is held. Waiters are woken in arrival order.
func (m *fifoMutex) Lock() {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return
	}

	wait := make(chan struct{})
	m.waiters = append(m.waiters, wait)
	m.mu.Unlock()

	// Ownership is handed over by Unlock; no re-check is needed.
	<-wait
}

// Unlock releases the lock, handing ownership directly to the oldest
// waiter if any.
func (m *fifoMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.waiters) > 0 {
		wait := m.waiters[0]
		m.waiters = m.waiters[1:]
		close(wait)
		return
	}

	m.locked = false
}
