// Package mirror persists per-session state (the cart and the signed-in
// account) so that it survives a process restart. The mirror is a cache:
// the gateway stays authoritative and a failed mirror write only loses
// reload survival.
package mirror

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is a JSON key/value mirror.
type Store interface {
	// Load decodes the value at key into v and reports whether it existed.
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// CartKey is where a session's cart is mirrored.
func CartKey(sessionID string) string {
	return "session:" + sessionID + ":cart"
}

// UserKey is where a session's signed-in account is mirrored.
func UserKey(sessionID string) string {
	return "session:" + sessionID + ":user"
}

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func (m *Memory) Save(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
