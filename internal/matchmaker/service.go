package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"AutoHoldem/internal/game/bot"
	"AutoHoldem/internal/game/table"
	"AutoHoldem/internal/utils"
	"AutoHoldem/internal/websocket"
)

var (
	ErrInvalidTableSize = errors.New("invalid tableSize")
	ErrAlreadyInRoom    = errors.New("already in room")
)

type Service struct {
	repo        Repo
	playerTTL   int // seconds, 用于防止遗留队列
	hub         HubBroadcaster
	seating     Seating
	OnRoomReady func(*Room) // 成桌时调用的回调函数
}

type HubBroadcaster interface {
	BroadcastToPlayers(addrs []string, msg websocket.OutgoingMessage)
}

func NewService(repo Repo, playerTTL int, hub HubBroadcaster, seating Seating) *Service {
	return &Service{repo: repo, playerTTL: playerTTL, hub: hub, seating: seating}
}

// Join 入队并尝试立即成桌（随机）。若可成桌，返回房间；否则返回排队中。
func (s *Service) Join(ctx context.Context, req JoinRequest) (*Room, bool, error) {
	if req.TableSize < 2 || req.TableSize > table.MaxSeats {
		return nil, false, ErrInvalidTableSize
	}

	// 防止重复匹配：检测玩家是否已经在房间中
	roomID, err := s.repo.GetPlayerRoom(ctx, req.Address)
	if err != nil {
		return nil, false, err
	}
	if roomID != "" {
		return nil, false, fmt.Errorf("player %s %w %s", req.Address, ErrAlreadyInRoom, roomID)
	}

	if err := s.repo.Enqueue(ctx, req.Pool, req.TableSize, req.Address, s.playerTTL); err != nil {
		return nil, false, err
	}
	need := s.seating.humansNeeded(req.TableSize)
	cnt, err := s.repo.Count(ctx, req.Pool, req.TableSize)
	if err != nil {
		return nil, false, err
	}
	if int(cnt) < need {
		return nil, true, nil // queued
	}
	addrs, err := s.repo.PopNRandom(ctx, req.Pool, req.TableSize, need)
	if err != nil {
		return nil, false, err
	}
	if len(addrs) < need {
		// 并发竞争导致人数不足：弹出的人放回池子，回退为排队状态
		for _, a := range addrs {
			if err := s.repo.Enqueue(ctx, req.Pool, req.TableSize, a, s.playerTTL); err != nil {
				return nil, false, err
			}
		}
		return nil, true, nil
	}

	room := s.seatRoom(uuid.NewString(), req.Pool, req.TableSize, addrs)
	if err := s.repo.SaveRoom(ctx, room, s.playerTTL); err != nil {
		utils.Log.Warn("save room failed", "room", room.ID, "err", err)
	}

	s.hub.BroadcastToPlayers(room.Players, websocket.OutgoingMessage{
		Event: websocket.EventRoomReady,
		Data: map[string]any{
			"roomId":    room.ID,
			"pool":      room.Pool,
			"tableSize": room.TableSize,
			"players":   room.Players,
			"seats":     room.Seats,
		},
	})
	utils.Log.Info("room ready", "room", room.ID, "humans", len(room.Players), "bots", len(room.Bots()))

	if s.OnRoomReady != nil {
		go s.OnRoomReady(room)
	}
	return room, false, nil
}

// seatRoom 真人按弹出顺序坐 1..n 号，机器人补到 bot.TargetCount，始终留一个空位给新真人
func (s *Service) seatRoom(id, pool string, size int, humans []string) *Room {
	room := &Room{
		ID:        id,
		Pool:      pool,
		TableSize: size,
		Players:   humans,
		CreatedAt: time.Now(),
	}
	taken := make(map[int]bool, size)
	for i, addr := range humans {
		room.Seats = append(room.Seats, RoomSeat{UserID: addr, SeatNo: i + 1})
		taken[i+1] = true
	}
	if !s.seating.BotsEnabled {
		return room
	}
	n := bot.TargetCount(size, len(humans), s.seating.MaxBots)
	for _, no := range bot.FreeSeats(size, taken)[:n] {
		room.Seats = append(room.Seats, RoomSeat{UserID: bot.UserID(id, no), SeatNo: no, Bot: true})
	}
	return room
}

func (s *Service) Cancel(ctx context.Context, address string) error {
	return s.repo.Remove(ctx, address)
}

// Release 玩家离桌后可以重新排队
func (s *Service) Release(ctx context.Context, addresses ...string) error {
	return s.repo.ClearPlayerRoom(ctx, addresses...)
}
