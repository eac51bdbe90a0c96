package storage

import (
	"context"
	"sync"

	"github.com/ray-remotestate/tableside/models"
)

// MemoryCollection is a process-local Backend. It backs collections that have
// no file of their own, such as the menu when the remote store is down.
type MemoryCollection[T models.Record] struct {
	mu    sync.Mutex
	items []T
}

func NewMemoryCollection[T models.Record](seed []T) *MemoryCollection[T] {
	return &MemoryCollection[T]{items: append([]T(nil), seed...)}
}

func (m *MemoryCollection[T]) Load(_ context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T{}, m.items...), nil
}

func (m *MemoryCollection[T]) Save(_ context.Context, items []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]T{}, items...)
	return nil
}

func (m *MemoryCollection[T]) Add(_ context.Context, item T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].RecordID() == item.RecordID() {
			m.items[i] = item
			return item, nil
		}
	}
	m.items = append(m.items, item)
	return item, nil
}

func (m *MemoryCollection[T]) Update(_ context.Context, id string, patch models.Patch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].RecordID() != id {
			continue
		}
		updated, err := ApplyPatch(m.items[i], patch)
		if err != nil {
			return false, err
		}
		m.items[i] = updated
		return true, nil
	}
	return false, nil
}

func (m *MemoryCollection[T]) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].RecordID() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
