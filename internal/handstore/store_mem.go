package handstore

import (
	"context"
	"sync"
	"time"

	"AutoHoldem/internal/game/table"
)

type memStore struct {
	mu     sync.Mutex
	states map[string]Record
	events map[string][]table.Event
}

// NewMemoryStore 内存版，供测试与单机开发使用
func NewMemoryStore() Store {
	return &memStore{
		states: make(map[string]Record),
		events: make(map[string][]table.Event),
	}
}

func (m *memStore) Load(ctx context.Context, tableID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.states[tableID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.State = rec.State.Clone()
	return rec, nil
}

func (m *memStore) CompareAndSwap(ctx context.Context, tableID string, fromVersion int64, state *table.HandState, events []table.Event) (Record, error) {
	if state == nil {
		return Record{}, errNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if rec, ok := m.states[tableID]; ok {
		current = rec.Version
	}
	if current != fromVersion {
		return Record{}, ErrVersionConflict
	}

	rec := Record{
		TableID:   tableID,
		Version:   fromVersion + 1,
		State:     state.Clone(),
		UpdatedAt: time.Now(),
	}
	m.states[tableID] = rec
	m.events[tableID] = append(m.events[tableID], events...)

	rec.State = rec.State.Clone()
	return rec, nil
}

func (m *memStore) Events(ctx context.Context, tableID string) ([]table.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]table.Event(nil), m.events[tableID]...), nil
}
