// Package handstore 保存每张桌子当前这一手的完整状态，并用版本号做 compare-and-swap。
package handstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"AutoHoldem/internal/game/table"
)

var (
	ErrNotFound        = errors.New("hand state not found")
	ErrVersionConflict = errors.New("hand state version conflict")
	ErrUnavailable     = errors.New("hand store unavailable")

	errNilState = errors.New("nil hand state")
)

// Record 一张桌子的当前手牌状态与版本
type Record struct {
	TableID   string           `json:"tableId"`
	Version   int64            `json:"version"`
	State     *table.HandState `json:"state"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Store 状态存储的抽象
type Store interface {
	// Load 读取桌子的当前状态，不存在时返回 ErrNotFound
	Load(ctx context.Context, tableID string) (Record, error)
	// CompareAndSwap 只有存储中的版本等于 fromVersion 时才写入，新版本为 fromVersion+1。
	// fromVersion 为 0 表示首次创建。events 与状态在同一次写入里追加。
	CompareAndSwap(ctx context.Context, tableID string, fromVersion int64, state *table.HandState, events []table.Event) (Record, error)
	// Events 按写入顺序返回桌子上的事件
	Events(ctx context.Context, tableID string) ([]table.Event, error)
}

func encodeState(s *table.HandState) ([]byte, error) {
	if s == nil {
		return nil, errNilState
	}
	return json.Marshal(s)
}

func decodeState(raw []byte) (*table.HandState, error) {
	s := &table.HandState{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode hand state: %w", err)
	}
	return s, nil
}

// unavailable 把底层错误归类为存储不可用，已经分类过的错误原样返回
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
