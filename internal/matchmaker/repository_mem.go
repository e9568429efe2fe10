package matchmaker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

type memRepo struct {
	mu         sync.Mutex
	pools      map[string]map[string]struct{} // key -> set(address)
	players    map[string]string              // address -> key
	rooms      map[string]*Room
	playerRoom map[string]string // address -> roomID
}

// NewMemoryRepo 单进程部署和测试用
func NewMemoryRepo() Repo {
	return &memRepo{
		pools:      make(map[string]map[string]struct{}),
		players:    make(map[string]string),
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
	}
}

func memKey(pool string, tableSize int) string {
	return fmt.Sprintf("mm:pool:%s:%d", pool, tableSize)
}

func (m *memRepo) Enqueue(ctx context.Context, pool string, tableSize int, address string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(pool, tableSize)
	if _, ok := m.pools[key]; !ok {
		m.pools[key] = make(map[string]struct{})
	}
	m.pools[key][address] = struct{}{}
	m.players[address] = key
	// 内存版忽略 TTL
	return nil
}

func (m *memRepo) PopNRandom(ctx context.Context, pool string, tableSize int, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(pool, tableSize)
	s, ok := m.pools[key]
	if !ok || len(s) < n {
		return []string{}, nil
	}

	addrs := make([]string, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	rand.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })
	chosen := addrs[:n]

	// 与 Redis SPOP 对齐：只移除被选中的人，集合空了才删除
	for _, a := range chosen {
		delete(s, a)
		delete(m.players, a)
	}
	if len(s) == 0 {
		delete(m.pools, key)
	}
	return chosen, nil
}

func (m *memRepo) Remove(ctx context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.players[address]
	if !ok {
		return nil
	}
	if s, ok := m.pools[key]; ok {
		delete(s, address)
		if len(s) == 0 {
			delete(m.pools, key)
		}
	}
	delete(m.players, address)
	return nil
}

func (m *memRepo) Count(ctx context.Context, pool string, tableSize int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.pools[memKey(pool, tableSize)])), nil
}

func (m *memRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	for _, addr := range room.Players {
		m.playerRoom[addr] = room.ID
	}
	return nil
}

func (m *memRepo) GetPlayerRoom(ctx context.Context, address string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerRoom[address], nil
}

func (m *memRepo) ClearPlayerRoom(ctx context.Context, addresses ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range addresses {
		delete(m.playerRoom, a)
	}
	return nil
}
