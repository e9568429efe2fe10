package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore 登录用的一次性随机数，Consume 成功后同一个 nonce 不能再用
type NonceStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, nonce string) (bool, error)
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type memNonceStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	nonces map[string]time.Time // nonce -> 过期时间
	now    func() time.Time
}

func NewMemoryNonceStore(ttl time.Duration) NonceStore {
	return &memNonceStore{ttl: ttl, nonces: make(map[string]time.Time), now: time.Now}
}

func (s *memNonceStore) Issue(ctx context.Context) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for n, exp := range s.nonces {
		if now.After(exp) {
			delete(s.nonces, n)
		}
	}
	s.nonces[nonce] = now.Add(s.ttl)
	return nonce, nil
}

func (s *memNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.nonces[nonce]
	delete(s.nonces, nonce)
	return ok && !s.now().After(exp), nil
}

type redisNonceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisNonceStore 多实例部署时共享 nonce
func NewRedisNonceStore(rdb *redis.Client, ttl time.Duration) NonceStore {
	return &redisNonceStore{rdb: rdb, ttl: ttl}
}

func nonceKey(n string) string { return "auth:nonce:" + n }

func (s *redisNonceStore) Issue(ctx context.Context) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, nonceKey(nonce), 1, s.ttl).Err(); err != nil {
		return "", err
	}
	return nonce, nil
}

// Consume DEL 返回 1 说明这次请求拿到了它，并发重放只有一个能成功
func (s *redisNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	n, err := s.rdb.Del(ctx, nonceKey(nonce)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
