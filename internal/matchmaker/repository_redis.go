package matchmaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	set: mm:pool:{pool}:{tableSize}   -> Set(address,...)
//	kv : mm:player:{address}          -> "pool:tableSize"，取消时定位池
//	kv : mm:room:{roomID}             -> Room JSON
//	kv : mm:playerRoom:{address}      -> roomID，防止重复匹配
func poolKey(pool string, tableSize int) string {
	return fmt.Sprintf("mm:pool:%s:%d", pool, tableSize)
}
func playerKey(addr string) string {
	return "mm:player:" + addr
}
func roomKey(id string) string {
	return "mm:room:" + id
}
func playerRoomKey(addr string) string {
	return "mm:playerRoom:" + addr
}

// KEYS[1] = playerKey, KEYS[2] = poolKey, ARGV[1] = address
var removeScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if redis.call("SCARD", KEYS[2]) == 0 then
    redis.call("DEL", KEYS[2])
end
return 1
`)

func (r *redisRepo) Enqueue(ctx context.Context, pool string, tableSize int, address string, ttlSeconds int) error {
	p := r.rdb.Pipeline()
	p.SAdd(ctx, poolKey(pool, tableSize), address)
	p.Set(ctx, playerKey(address), fmt.Sprintf("%s:%d", pool, tableSize), time.Duration(ttlSeconds)*time.Second)
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) PopNRandom(ctx context.Context, pool string, tableSize int, n int) ([]string, error) {
	// SPOP COUNT 原子地随机弹出 n 个，集合空了 redis 自动删 key
	res, err := r.rdb.SPopN(ctx, poolKey(pool, tableSize), int64(n)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) > 0 {
		p := r.rdb.Pipeline()
		for _, addr := range res {
			p.Del(ctx, playerKey(addr))
		}
		_, _ = p.Exec(ctx)
	}
	return res, nil
}

func (r *redisRepo) Remove(ctx context.Context, address string) error {
	kv, err := r.rdb.Get(ctx, playerKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	// "pool:tableSize"，pool 本身可能带冒号，按最后一个冒号拆
	i := strings.LastIndex(kv, ":")
	size, convErr := strconv.Atoi(kv[i+1:])
	if i < 0 || convErr != nil {
		return r.rdb.Del(ctx, playerKey(address)).Err()
	}
	keys := []string{playerKey(address), poolKey(kv[:i], size)}
	return removeScript.Run(ctx, r.rdb, keys, address).Err()
}

func (r *redisRepo) Count(ctx context.Context, pool string, tableSize int) (int64, error) {
	return r.rdb.SCard(ctx, poolKey(pool, tableSize)).Result()
}

func (r *redisRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	p := r.rdb.Pipeline()
	p.Set(ctx, roomKey(room.ID), data, ttl)
	for _, addr := range room.Players {
		p.Set(ctx, playerRoomKey(addr), room.ID, ttl)
	}
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) GetPlayerRoom(ctx context.Context, address string) (string, error) {
	val, err := r.rdb.Get(ctx, playerRoomKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (r *redisRepo) ClearPlayerRoom(ctx context.Context, addresses ...string) error {
	if len(addresses) == 0 {
		return nil
	}
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = playerRoomKey(a)
	}
	return r.rdb.Del(ctx, keys...).Err()
}
