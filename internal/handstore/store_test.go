package handstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"AutoHoldem/internal/game/autoplay"
	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
)

func sampleHand(t *testing.T) (*table.HandState, []table.Event) {
	t.Helper()
	s, events, err := engine.NewHand(table.HandSetup{
		TableID: "t-1", HandID: "h-1", ButtonSeatNo: 1, SmallBlind: 1, BigBlind: 2, Seed: 5,
		Seats: []table.SeatStack{
			{UserID: "0xA", SeatNo: 1, Stack: 100},
			{UserID: "0xB", SeatNo: 2, Stack: 100},
		},
	})
	require.NoError(t, err)
	return s, events
}

func newRedisStore(t *testing.T) Store {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, 0)
}

func newSQLiteStore(t *testing.T) Store {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "hands.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewSQLStore(db, DialectSQLite)
}

// 三种实现跑同一套行为
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisStore(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func TestStoreCreateAndLoad(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		_, err := store.Load(ctx, "t-1")
		assert.ErrorIs(t, err, ErrNotFound)

		s, events := sampleHand(t)
		rec, err := store.CompareAndSwap(ctx, "t-1", 0, s, events)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.Version)

		loaded, err := store.Load(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.Version)
		assert.Equal(t, s.HandID, loaded.State.HandID)
		assert.Equal(t, s.Stacks, loaded.State.Stacks)
		// 私有字段必须随状态一起保存，下一次请求才能继续发牌
		assert.Equal(t, s.HoleCards, loaded.State.HoleCards)
		assert.Equal(t, s.Deck, loaded.State.Deck)
	})
}

func TestStoreCompareAndSwapConflict(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		s, events := sampleHand(t)
		_, err := store.CompareAndSwap(ctx, "t-1", 0, s, events)
		require.NoError(t, err)

		// 重复创建
		_, err = store.CompareAndSwap(ctx, "t-1", 0, s, nil)
		assert.ErrorIs(t, err, ErrVersionConflict)

		next, more, err := engine.Step(s, table.Action{Type: table.ActionCall, UserID: "0xA", RequestID: "r1"})
		require.NoError(t, err)
		rec, err := store.CompareAndSwap(ctx, "t-1", 1, next, more)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rec.Version)

		// 过期版本
		_, err = store.CompareAndSwap(ctx, "t-1", 1, next, more)
		assert.ErrorIs(t, err, ErrVersionConflict)

		// 不存在的桌子不能从非 0 版本写入
		_, err = store.CompareAndSwap(ctx, "t-2", 3, next, nil)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestStoreEventsInOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		s, events := sampleHand(t)
		_, err := store.CompareAndSwap(ctx, "t-1", 0, s, events)
		require.NoError(t, err)
		next, more, err := engine.Step(s, table.Action{Type: table.ActionFold, UserID: "0xA", RequestID: "r1"})
		require.NoError(t, err)
		_, err = store.CompareAndSwap(ctx, "t-1", 1, next, more)
		require.NoError(t, err)

		got, err := store.Events(ctx, "t-1")
		require.NoError(t, err)
		want := append(append([]table.Event{}, events...), more...)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Kind, got[i].Kind)
			assert.Equal(t, want[i].HandID, got[i].HandID)
		}
		assert.Equal(t, table.EventHandCompleted, got[len(got)-1].Kind)
	})
}

func TestTableGatewayClassifiesErrors(t *testing.T) {
	store := NewMemoryStore()
	gw := NewTableGateway(store, "t-1")
	s, events := sampleHand(t)

	p, err := gw.Persist(context.Background(), 0, s, events)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, s.HandID, p.State.HandID)

	_, err = gw.Persist(context.Background(), 0, s, events)
	assert.ErrorIs(t, err, autoplay.ErrConflict)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestTableGatewayUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	gw := NewTableGateway(NewRedisStore(rdb, 0), "t-1")
	mr.Close()

	s, events := sampleHand(t)
	_, err := gw.Persist(context.Background(), 0, s, events)
	assert.ErrorIs(t, err, autoplay.ErrUnavailable)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRebindPostgres(t *testing.T) {
	s := &sqlStore{dialect: DialectPostgres}
	assert.Equal(t, "UPDATE x SET a = $1 WHERE b = $2", s.rebind("UPDATE x SET a = ? WHERE b = ?"))
	lite := &sqlStore{dialect: DialectSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}
