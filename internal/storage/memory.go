package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKV keeps every profile in process memory.
type MemoryKV struct {
	mu       sync.RWMutex
	quota    int64
	profiles map[string]map[string][]byte
}

// NewMemoryKV creates an empty store. A quota <= 0 disables the limit.
func NewMemoryKV(quota int64) *MemoryKV {
	return &MemoryKV{
		quota:    quota,
		profiles: make(map[string]map[string][]byte),
	}
}

func (m *MemoryKV) Get(_ context.Context, profileID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.profiles[profileID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryKV) Set(_ context.Context, profileID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.profiles[profileID]
	if m.quota > 0 {
		used := entrySize(key, value)
		for k, v := range entries {
			if k != key {
				used += entrySize(k, v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("profile %s needs %d of %d bytes: %w", profileID, used, m.quota, ErrQuotaExceeded)
		}
	}

	if entries == nil {
		entries = make(map[string][]byte)
		m.profiles[profileID] = entries
	}
	entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, profileID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles[profileID], key)
	return nil
}

func (m *MemoryKV) Clear(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, profileID)
	return nil
}

func (m *MemoryKV) Ping(context.Context) error { return nil }

func (m *MemoryKV) Close() error { return nil }
