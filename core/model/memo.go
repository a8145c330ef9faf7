package model

import "sync"

// Memo caches the outcome of a computation, value and error alike. The first call
// to Get runs compute; every later call returns the stored outcome without running
// it again. Memo is safe for concurrent use and must not be copied after first use.
type Memo[T any] struct {
	mu   sync.Mutex
	done bool
	val  T
	err  error
}

// Get returns the cached outcome, computing it on first use.
func (m *Memo[T]) Get(compute func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done {
		m.val, m.err = compute()
		m.done = true
	}
	return m.val, m.err
}

// Done reports whether the outcome has been computed.
func (m *Memo[T]) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Reset discards the cached outcome.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.val, m.err, m.done = zero, nil, false
}
