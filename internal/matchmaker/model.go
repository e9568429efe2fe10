package matchmaker

import (
	"time"

	"AutoHoldem/internal/game/bot"
)

// JoinRequest 前端提交的匹配请求
type JoinRequest struct {
	Address   string `json:"address"`
	Pool      string `json:"pool" binding:"required"`      // 例如 "cash-1-2"
	TableSize int    `json:"tableSize" binding:"required"` // 2..22
}

// JoinResponse 返回是否已成桌；若已成桌则给出房间信息
type JoinResponse struct {
	Queued    bool       `json:"queued"`
	RoomID    string     `json:"roomId,omitempty"`
	Players   []string   `json:"players,omitempty"`
	Seats     []RoomSeat `json:"seats,omitempty"`
	Pool      string     `json:"pool"`
	TableSize int        `json:"tableSize"`
}

// CancelRequest 取消匹配
type CancelRequest struct {
	Address string `json:"address"`
}

// RoomSeat 成桌后的座位分配
type RoomSeat struct {
	UserID string `json:"userId"`
	SeatNo int    `json:"seatNo"`
	Bot    bool   `json:"bot,omitempty"`
}

// Room 组桌结果；Players 只包含真人
type Room struct {
	ID        string     `json:"id"`
	Pool      string     `json:"pool"`
	TableSize int        `json:"tableSize"`
	Players   []string   `json:"players"`
	Seats     []RoomSeat `json:"seats"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Bots 房间里的机器人 ID
func (r *Room) Bots() []string {
	var out []string
	for _, s := range r.Seats {
		if s.Bot {
			out = append(out, s.UserID)
		}
	}
	return out
}

// Seating 成桌策略：真人够 MinHumans 就开桌，其余座位由机器人补到 bot.TargetCount
type Seating struct {
	MinHumans   int
	BotsEnabled bool
	MaxBots     int
}

// humansNeeded 开桌需要的真人数：至少 MinHumans，且加上机器人后够两个人
func (s Seating) humansNeeded(tableSize int) int {
	if !s.BotsEnabled || s.MaxBots <= 0 {
		return tableSize
	}
	for n := max(s.MinHumans, 1); n < tableSize; n++ {
		if n+bot.TargetCount(tableSize, n, s.MaxBots) >= 2 {
			return n
		}
	}
	return tableSize
}
