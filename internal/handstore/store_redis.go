package handstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"AutoHoldem/internal/game/table"
)

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore ttl 为 0 表示不过期
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

// key 约定：
//
//	string: hs:state:{tableID}   -> JSON envelope {version, state, updatedAt}
//	list  : hs:events:{tableID}  -> JSON event，按写入顺序 RPUSH
func stateKey(tableID string) string {
	return fmt.Sprintf("hs:state:%s", tableID)
}
func eventsKey(tableID string) string {
	return fmt.Sprintf("hs:events:%s", tableID)
}

type envelope struct {
	Version   int64           `json:"version"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (r *redisStore) Load(ctx context.Context, tableID string) (Record, error) {
	raw, err := r.rdb.Get(ctx, stateKey(tableID)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, unavailable(err)
	}
	return decodeEnvelope(tableID, raw)
}

func decodeEnvelope(tableID string, raw []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Record{}, fmt.Errorf("decode envelope for %s: %w", tableID, err)
	}
	state, err := decodeState(env.State)
	if err != nil {
		return Record{}, err
	}
	return Record{TableID: tableID, Version: env.Version, State: state, UpdatedAt: env.UpdatedAt}, nil
}

func (r *redisStore) CompareAndSwap(ctx context.Context, tableID string, fromVersion int64, state *table.HandState, events []table.Event) (Record, error) {
	stateRaw, err := encodeState(state)
	if err != nil {
		return Record{}, err
	}
	evs := make([]any, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return Record{}, fmt.Errorf("encode event %s: %w", e.Kind, err)
		}
		evs = append(evs, b)
	}

	key := stateKey(tableID)
	rec := Record{TableID: tableID, Version: fromVersion + 1, State: state.Clone(), UpdatedAt: time.Now()}
	data, err := json.Marshal(envelope{Version: rec.Version, State: stateRaw, UpdatedAt: rec.UpdatedAt})
	if err != nil {
		return Record{}, err
	}

	// WATCH 状态键：读版本 → MULTI 写入；期间被别人改过则 EXEC 失败
	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			if fromVersion != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return err
		default:
			var cur envelope
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode envelope for %s: %w", tableID, err)
			}
			if cur.Version != fromVersion {
				return ErrVersionConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, r.ttl)
			if len(evs) > 0 {
				p.RPush(ctx, eventsKey(tableID), evs...)
				if r.ttl > 0 {
					p.Expire(ctx, eventsKey(tableID), r.ttl)
				}
			}
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return Record{}, ErrVersionConflict
	}
	if err != nil {
		return Record{}, unavailable(err)
	}
	return rec, nil
}

func (r *redisStore) Events(ctx context.Context, tableID string) ([]table.Event, error) {
	raws, err := r.rdb.LRange(ctx, eventsKey(tableID), 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]table.Event, 0, len(raws))
	for _, raw := range raws {
		var e table.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
