// Package storage holds the key-value backends the ledger persists into.
package storage

import (
	"context"
	"sort"
	"sync"
)

// Keys used by the ledger. Each holds one JSON document.
const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyFixedBills   = "fixed_bills"
	KeySettlements  = "settlements"
	KeyCurrentUser  = "current_user"
	KeyTheme        = "theme"
)

// KV is a synchronous key-value store. Get must return the most recent Put
// for the key made by the same process.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// MemoryKV is a map-backed KV for tests and ephemeral runs.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the stored keys in lexical order.
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
