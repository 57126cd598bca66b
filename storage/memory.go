package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemorySubstrate 进程内后端，适合开发与测试。
type MemorySubstrate struct {
	mu     sync.RWMutex
	items  map[string]string
	quota  int
	closed bool
}

// NewMemorySubstrate 创建内存后端。quota > 0 时限制所有值的总字节数。
func NewMemorySubstrate(quota int) *MemorySubstrate {
	return &MemorySubstrate{items: make(map[string]string), quota: quota}
}

func (m *MemorySubstrate) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemorySubstrate) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.quota > 0 {
		used := len(value)
		for k, v := range m.items {
			if k != key {
				used += len(v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, used, m.quota)
		}
	}
	m.items[key] = value
	return nil
}

func (m *MemorySubstrate) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

func (m *MemorySubstrate) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemorySubstrate) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
