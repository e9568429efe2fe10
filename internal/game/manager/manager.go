// Package manager 把纯函数引擎接到存储、机器人和 websocket 上。
// 每个请求都是 加载 → 计算 → CAS 写回 → 机器人跑一段 → 推送，进程内不持有手牌状态。
package manager

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"AutoHoldem/config"
	"AutoHoldem/internal/game/autoplay"
	"AutoHoldem/internal/game/bot"
	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
	"AutoHoldem/internal/handstore"
	"AutoHoldem/internal/matchmaker"
	"AutoHoldem/internal/utils"
	"AutoHoldem/internal/websocket"
)

var (
	ErrTableExists     = errors.New("table already exists")
	ErrHandInProgress  = errors.New("hand still in progress")
	ErrNotSeated       = errors.New("user is not seated at this table")
	ErrTableClosed     = errors.New("not enough players to deal another hand")
	ErrUnknownTable    = errors.New("unknown table for player")
	errMissingIdentity = errors.New("missing user id")
)

// SeatReleaser 玩家离开桌子后通知匹配服务（matchmaker.Service 实现）
type SeatReleaser interface {
	Release(ctx context.Context, addresses ...string) error
}

// Outcome 一次请求结束后的结果，State 只给出公开视图
type Outcome struct {
	TableID    string          `json:"tableId"`
	Version    int64           `json:"version"`
	State      table.HandView  `json:"state"`
	Events     []table.Event   `json:"events"`
	Autoplay   autoplay.Reason `json:"autoplay,omitempty"`
	BotActions int             `json:"botActions"`
	Duplicate  bool            `json:"duplicate,omitempty"`
}

// GameManager 管理所有对局
type GameManager struct {
	mu           sync.RWMutex
	playerToRoom map[string]string // player address → tableID
	tableSize    map[string]int    // tableID → 座位数

	cfg   config.Config
	store handstore.Store
	hub   websocket.HubInterface
	sink  autoplay.Sink

	Releaser SeatReleaser
	newSeed  func() int64
	newID    func() string
}

func NewGameManager(cfg config.Config, store handstore.Store, hub websocket.HubInterface, sink autoplay.Sink) *GameManager {
	return &GameManager{
		playerToRoom: make(map[string]string),
		tableSize:    make(map[string]int),
		cfg:          cfg,
		store:        store,
		hub:          hub,
		sink:         sink,
		newSeed:      rand.Int63,
		newID:        uuid.NewString,
	}
}

// StartRoom 按成桌结果落座并发第一手牌
func (m *GameManager) StartRoom(ctx context.Context, r *matchmaker.Room) (Outcome, error) {
	if _, err := m.store.Load(ctx, r.ID); err == nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrTableExists, r.ID)
	} else if !errors.Is(err, handstore.ErrNotFound) {
		return Outcome{}, err
	}

	seats := make([]table.SeatStack, 0, len(r.Seats))
	var buyIns []table.SeatStack
	for _, rs := range r.Seats {
		ss := table.SeatStack{UserID: rs.UserID, SeatNo: rs.SeatNo, Stack: m.cfg.Table.StartingStack}
		if rs.Bot {
			ss.Stack = m.cfg.BotBuyIn()
			buyIns = append(buyIns, ss)
		}
		seats = append(seats, ss)
	}
	if len(seats) == 0 {
		return Outcome{}, fmt.Errorf("%w: room %s has no seats", ErrTableClosed, r.ID)
	}
	button := seats[0].SeatNo
	for _, s := range seats {
		button = min(button, s.SeatNo)
	}

	m.mu.Lock()
	m.tableSize[r.ID] = r.TableSize
	for _, p := range r.Players {
		m.playerToRoom[p] = r.ID
	}
	m.mu.Unlock()

	return m.deal(ctx, r.ID, 0, seats, button, buyIns)
}

// NextHand 上一手结束后：按钮左移，剔除输光/离桌/坐出的座位，按真人数重新补机器人
func (m *GameManager) NextHand(ctx context.Context, tableID string) (Outcome, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return Outcome{}, err
	}
	prev := rec.State
	if prev.Phase != table.PhaseHandDone {
		return Outcome{}, fmt.Errorf("%w: phase %s", ErrHandInProgress, prev.Phase)
	}

	var seats []table.SeatStack
	var released []string
	humans := 0
	taken := map[int]bool{}
	for _, seat := range prev.Seats {
		uid := seat.UserID
		gone := prev.LeftTableByUserID[uid] || prev.SitOutByUserID[uid] || prev.PendingAutoSitOutByUserID[uid]
		if gone || prev.Stacks[uid] <= 0 {
			if !bot.IsBot(uid) {
				released = append(released, uid)
			}
			continue
		}
		if !bot.IsBot(uid) {
			humans++
		}
		seats = append(seats, table.SeatStack{UserID: uid, SeatNo: seat.SeatNo, Stack: prev.Stacks[uid]})
		taken[seat.SeatNo] = true
	}

	size := m.sizeOf(tableID, prev)
	target := 0
	if m.cfg.Bots.Enabled {
		target = bot.TargetCount(size, humans, m.cfg.Bots.MaxPerTable)
	}
	seats, buyIns := m.rebalanceBots(tableID, seats, taken, size, target)

	m.release(ctx, tableID, released...)
	if humans == 0 || len(seats) < 2 {
		m.release(ctx, tableID, humanIDs(seats)...)
		return Outcome{}, fmt.Errorf("%w: table %s", ErrTableClosed, tableID)
	}

	ordered := make([]table.Seat, len(seats))
	for i, s := range seats {
		ordered[i] = table.Seat{UserID: s.UserID, SeatNo: s.SeatNo}
	}
	table.SortSeats(ordered)
	return m.deal(ctx, tableID, rec.Version, seats, nextButton(ordered, prev.ButtonSeatNo), buyIns)
}

// rebalanceBots 机器人多了从大座位号开始请走，少了按空位补上并记一笔带入
func (m *GameManager) rebalanceBots(tableID string, seats []table.SeatStack, taken map[int]bool, size, target int) ([]table.SeatStack, []table.SeatStack) {
	bots := 0
	for _, s := range seats {
		if bot.IsBot(s.UserID) {
			bots++
		}
	}
	for i := len(seats) - 1; i >= 0 && bots > target; i-- {
		if bot.IsBot(seats[i].UserID) {
			delete(taken, seats[i].SeatNo)
			seats = append(seats[:i], seats[i+1:]...)
			bots--
		}
	}

	var buyIns []table.SeatStack
	for _, no := range bot.FreeSeats(size, taken) {
		if bots >= target {
			break
		}
		ss := table.SeatStack{UserID: bot.UserID(tableID, no), SeatNo: no, Stack: m.cfg.BotBuyIn()}
		seats = append(seats, ss)
		buyIns = append(buyIns, ss)
		taken[no] = true
		bots++
	}
	return seats, buyIns
}

func (m *GameManager) deal(ctx context.Context, tableID string, fromVersion int64, seats []table.SeatStack, button int, buyIns []table.SeatStack) (Outcome, error) {
	handID := m.newID()
	s, events, err := engine.NewHand(table.HandSetup{
		TableID:      tableID,
		HandID:       handID,
		Seats:        seats,
		ButtonSeatNo: button,
		SmallBlind:   m.cfg.Table.SmallBlind,
		BigBlind:     m.cfg.Table.BigBlind,
		Seed:         m.newSeed(),
	})
	if err != nil {
		return Outcome{}, err
	}

	// 带入记录在开局事件之前，账本服务据此从 bankroll 账户划账
	all := make([]table.Event, 0, len(buyIns)+len(events))
	for _, b := range buyIns {
		all = append(all, table.Event{
			Kind:   table.EventBotBuyIn,
			HandID: handID,
			Data: map[string]any{
				"userId":  b.UserID,
				"seatNo":  b.SeatNo,
				"amount":  b.Stack,
				"account": m.cfg.Bots.BankrollAccountKey,
				"profile": m.cfg.Bots.DefaultProfile,
			},
		})
	}
	all = append(all, events...)

	rec, err := m.store.CompareAndSwap(ctx, tableID, fromVersion, s, all)
	if err != nil {
		return Outcome{}, err
	}
	utils.Log.Info("hand dealt", "table", tableID, "hand", handID, "seats", len(seats), "version", rec.Version)
	return m.afterPersist(ctx, tableID, "deal:"+handID, rec, all), nil
}

// SubmitAction 真人动作：加载 → 归约 → CAS → 机器人接着打 → 推送。
// 重放的 requestId 不报错，直接返回当前状态。
func (m *GameManager) SubmitAction(ctx context.Context, tableID string, a table.Action) (Outcome, error) {
	if a.UserID == "" {
		return Outcome{}, errMissingIdentity
	}
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return Outcome{}, err
	}
	if a.RequestID == "" {
		a.RequestID = m.newID()
	}

	next, events, err := engine.Step(rec.State, a)
	if errors.Is(err, engine.ErrDuplicateRequest) {
		return Outcome{TableID: tableID, Version: rec.Version, State: rec.State.PublicView(), Duplicate: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	persisted, err := m.store.CompareAndSwap(ctx, tableID, rec.Version, next, events)
	if err != nil {
		return Outcome{}, err
	}
	return m.afterPersist(ctx, tableID, a.RequestID, persisted, events), nil
}

// RunAutoplay 轮询入口：只让机器人从当前版本继续打
func (m *GameManager) RunAutoplay(ctx context.Context, tableID, requestID string) (Outcome, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return Outcome{}, err
	}
	if requestID == "" {
		requestID = m.newID()
	}
	return m.afterPersist(ctx, tableID, requestID, rec, nil), nil
}

// SitOut 标记下一手自动坐出；本手照常进行，但真人不再计入“是否只剩机器人”
func (m *GameManager) SitOut(ctx context.Context, tableID, userID string) (Outcome, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return Outcome{}, err
	}
	if _, ok := rec.State.SeatOf(userID); !ok {
		return Outcome{}, ErrNotSeated
	}
	if rec.State.PendingAutoSitOutByUserID[userID] {
		return m.outcome(tableID, rec, nil, autoplay.Result{}), nil
	}
	next := rec.State.Clone()
	if next.PendingAutoSitOutByUserID == nil {
		next.PendingAutoSitOutByUserID = map[string]bool{}
	}
	next.PendingAutoSitOutByUserID[userID] = true

	persisted, err := m.store.CompareAndSwap(ctx, tableID, rec.Version, next, nil)
	if err != nil {
		return Outcome{}, err
	}
	return m.afterPersist(ctx, tableID, "sitout:"+userID, persisted, nil), nil
}

// afterPersist 机器人从刚写入的版本继续，然后推送最终状态
func (m *GameManager) afterPersist(ctx context.Context, tableID, requestID string, rec handstore.Record, events []table.Event) Outcome {
	runner := autoplay.NewRunner(autoplay.Config{
		MaxBotActions:   m.cfg.Bots.MaxActionsPerInvocation,
		BotsOnlyHardCap: m.cfg.Bots.BotsOnlyHardCap,
		AdvanceCap:      m.cfg.Autoplay.AdvanceCap,
	}, handstore.NewTableGateway(m.store, tableID), m.sink)

	res := runner.Run(ctx, autoplay.Input{
		TableID:   tableID,
		RequestID: requestID,
		Version:   rec.Version,
		State:     rec.State,
	})
	rec.Version, rec.State = res.Version, res.State
	all := append(append([]table.Event{}, events...), res.Events...)

	m.notify(tableID, rec, all, res)
	return m.outcome(tableID, rec, all, res)
}

func (m *GameManager) outcome(tableID string, rec handstore.Record, events []table.Event, res autoplay.Result) Outcome {
	if events == nil {
		events = []table.Event{}
	}
	return Outcome{
		TableID:    tableID,
		Version:    rec.Version,
		State:      rec.State.PublicView(),
		Events:     events,
		Autoplay:   res.Reason,
		BotActions: res.Actions,
	}
}

// notify 公开视图广播给整桌真人，底牌只发给本人
func (m *GameManager) notify(tableID string, rec handstore.Record, events []table.Event, res autoplay.Result) {
	if m.hub == nil || rec.State == nil {
		return
	}
	humans := humanIDs(seatStacks(rec.State))
	m.hub.BroadcastToPlayers(humans, websocket.OutgoingMessage{
		Event: websocket.EventHandState,
		Data:  map[string]any{"tableId": tableID, "version": rec.Version, "state": rec.State.PublicView()},
	})
	for _, uid := range humans {
		m.hub.SendToPlayer(uid, websocket.OutgoingMessage{
			Event: websocket.EventHandPrivate,
			Data:  map[string]any{"tableId": tableID, "version": rec.Version, "state": rec.State.PrivateView(uid)},
		})
	}
	if len(events) > 0 {
		m.hub.BroadcastToPlayers(humans, websocket.OutgoingMessage{
			Event: websocket.EventHandEvents,
			Data:  map[string]any{"tableId": tableID, "events": events},
		})
	}
	if res.Reason.Abnormal() {
		m.hub.BroadcastToPlayers(humans, websocket.OutgoingMessage{
			Event: websocket.EventAutoplayStopped,
			Data:  map[string]any{"tableId": tableID, "reason": res.Reason, "actions": res.Actions},
		})
	}
}

// State 公开视图
func (m *GameManager) State(ctx context.Context, tableID string) (table.HandView, int64, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return table.HandView{}, 0, err
	}
	return rec.State.PublicView(), rec.Version, nil
}

// PlayerView 带自己底牌的视图，只对桌上的人开放
func (m *GameManager) PlayerView(ctx context.Context, tableID, userID string) (table.PlayerView, int64, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return table.PlayerView{}, 0, err
	}
	if _, ok := rec.State.SeatOf(userID); !ok {
		return table.PlayerView{}, 0, ErrNotSeated
	}
	return rec.State.PrivateView(userID), rec.Version, nil
}

// LegalActions 当前玩家可执行的动作，不是他的回合时为空
func (m *GameManager) LegalActions(ctx context.Context, tableID, userID string) ([]table.LegalAction, error) {
	rec, err := m.store.Load(ctx, tableID)
	if err != nil {
		return nil, err
	}
	legal := engine.LegalActions(rec.State.PublicView(), userID)
	if legal == nil {
		legal = []table.LegalAction{}
	}
	return legal, nil
}

func (m *GameManager) Events(ctx context.Context, tableID string) ([]table.Event, error) {
	return m.store.Events(ctx, tableID)
}

// TableOf 玩家当前所在的桌子
func (m *GameManager) TableOf(userID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.playerToRoom[userID]
	return id, ok
}

func (m *GameManager) sizeOf(tableID string, s *table.HandState) int {
	m.mu.RLock()
	size := m.tableSize[tableID]
	m.mu.RUnlock()
	if size == 0 {
		size = m.cfg.Table.MaxPlayers
	}
	for _, seat := range s.Seats {
		size = max(size, seat.SeatNo)
	}
	return size
}

func (m *GameManager) release(ctx context.Context, tableID string, users ...string) {
	if len(users) == 0 {
		return
	}
	m.mu.Lock()
	for _, u := range users {
		if m.playerToRoom[u] == tableID {
			delete(m.playerToRoom, u)
		}
	}
	m.mu.Unlock()
	if m.Releaser != nil {
		if err := m.Releaser.Release(ctx, users...); err != nil {
			utils.Log.Warn("release seats failed", "table", tableID, "err", err)
		}
	}
}

// nextButton 上一手按钮左手边的第一个座位
func nextButton(seats []table.Seat, prev int) int {
	for _, s := range seats {
		if s.SeatNo > prev {
			return s.SeatNo
		}
	}
	return seats[0].SeatNo
}

func seatStacks(s *table.HandState) []table.SeatStack {
	out := make([]table.SeatStack, 0, len(s.Seats))
	for _, seat := range s.Seats {
		out = append(out, table.SeatStack{UserID: seat.UserID, SeatNo: seat.SeatNo, Stack: s.Stacks[seat.UserID]})
	}
	return out
}

func humanIDs(seats []table.SeatStack) []string {
	var out []string
	for _, s := range seats {
		if !bot.IsBot(s.UserID) {
			out = append(out, s.UserID)
		}
	}
	return out
}
