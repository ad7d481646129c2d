package audit

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and demo mode.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	failWith error
}

// NewMemory creates an empty in-memory audit log.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes every subsequent Append return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Append implements Store.
func (m *Memory) Append(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.entries = append(m.entries, *entry)
	return nil
}

// Entries returns a snapshot of everything appended so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
