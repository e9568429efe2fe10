// Package autoplay 在一次请求内把轮到机器人的动作一个个执行完：
// 取合法动作 → 策略决策 → 归约 → 推进 → 摊牌 → CAS 持久化，失败立即停下。
package autoplay

import (
	"context"
	"errors"
	"fmt"

	"AutoHoldem/internal/game/bot"
	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
)

// Reason 循环停止的原因。
// 手牌一到 HAND_DONE 就记为 completed，即使这一步恰好用完了动作上限。
type Reason string

const (
	ReasonNonActionPhase     Reason = "non_action_phase"
	ReasonTurnNotBot         Reason = "turn_not_bot"
	ReasonNoLegalAction      Reason = "no_legal_action"
	ReasonApplyActionFailed  Reason = "apply_action_failed"
	ReasonUpdateFailed       Reason = "update_failed"
	ReasonGatewayUnavailable Reason = "gateway_unavailable"
	ReasonHardCapReached     Reason = "hard_cap_reached"
	ReasonActionCapReached   Reason = "action_cap_reached"
	ReasonCompleted          Reason = "completed"
	ReasonInternalError      Reason = "internal_error"
)

// Abnormal 是否属于需要排查的停止（结构性停止只是正常的让出）
func (r Reason) Abnormal() bool {
	switch r {
	case ReasonApplyActionFailed, ReasonUpdateFailed, ReasonGatewayUnavailable,
		ReasonNoLegalAction, ReasonInternalError:
		return true
	}
	return false
}

// Gateway 返回的错误类别。实现方用 %w 包装具体原因。
var (
	ErrConflict    = errors.New("version conflict")
	ErrUnavailable = errors.New("store unavailable")
)

// Persisted 持久化成功后的新基线
type Persisted struct {
	Version int64
	State   *table.HandState
}

// Gateway 以 fromVersion 做 compare-and-swap 的持久化接口
type Gateway interface {
	Persist(ctx context.Context, fromVersion int64, state *table.HandState, events []table.Event) (Persisted, error)
}

// Sink 诊断日志，调用必须不阻塞、不 panic
type Sink interface {
	Log(kind string, payload map[string]any)
}

// Config 一次调用的上限
type Config struct {
	MaxBotActions   int
	BotsOnlyHardCap int
	AdvanceCap      int
}

// Input 当前持久化的基线
type Input struct {
	TableID   string
	RequestID string
	Version   int64
	State     *table.HandState
}

// Result 无论因何停止，State/Version 总是最后一次成功持久化的结果
type Result struct {
	Reason       Reason
	Actions      int
	EffectiveMax int
	Version      int64
	State        *table.HandState
	Events       []table.Event
	Err          error
}

type Runner struct {
	cfg     Config
	gateway Gateway
	sink    Sink
}

func NewRunner(cfg Config, gateway Gateway, sink Sink) *Runner {
	if cfg.AdvanceCap <= 0 {
		cfg.AdvanceCap = engine.DefaultAdvanceCap
	}
	return &Runner{cfg: cfg, gateway: gateway, sink: sink}
}

// RequestID 机器人动作的幂等键
func RequestID(origin string, seq int) string {
	return fmt.Sprintf("bot:%s:%d", origin, seq)
}

// ActiveHumanCount 仍在参与本手的真人数量（不含弃牌、离桌、坐出、待自动坐出）
func ActiveHumanCount(s *table.HandState) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, seat := range s.Seats {
		id := seat.UserID
		if bot.IsBot(id) {
			continue
		}
		if !s.Eligible(id) || s.PendingAutoSitOutByUserID[id] {
			continue
		}
		n++
	}
	return n
}

// EffectiveMax 只剩机器人时放宽到硬上限，让这一手在一次调用内打完
func (r *Runner) EffectiveMax(s *table.HandState) (int, bool) {
	if ActiveHumanCount(s) == 0 {
		return max(r.cfg.MaxBotActions, r.cfg.BotsOnlyHardCap), true
	}
	return r.cfg.MaxBotActions, false
}

// Run 顺序执行机器人动作直到停止条件出现。不会 panic，也不在循环内重试。
func (r *Runner) Run(ctx context.Context, in Input) (res Result) {
	res = Result{Version: in.Version, State: in.State}

	defer func() {
		if p := recover(); p != nil {
			res.Reason = ReasonInternalError
			res.Err = fmt.Errorf("autoplay panic: %v", p)
			r.stop(in, &res, "", nil)
		}
	}()

	effective, botsOnly := r.EffectiveMax(in.State)
	res.EffectiveMax = effective
	cur := in.State

	for res.Actions < effective {
		if cur == nil || !cur.Phase.AcceptsActions() {
			res.Reason = ReasonNonActionPhase
			r.stop(in, &res, "", nil)
			return res
		}
		turn := cur.TurnUserID
		if turn == "" || !bot.IsBot(turn) {
			res.Reason = ReasonTurnNotBot
			r.stop(in, &res, turn, nil)
			return res
		}

		// 每一步都基于最新的持久化状态重新计算
		choice, ok := bot.ChooseTrivial(engine.LegalActions(cur.PublicView(), turn))
		if !ok {
			res.Reason = ReasonNoLegalAction
			r.stop(in, &res, turn, nil)
			return res
		}
		action := choice.Action(turn, RequestID(in.RequestID, res.Actions))

		next, events, err := engine.ApplyAction(cur, action)
		if err != nil {
			res.Reason = ReasonApplyActionFailed
			res.Err = err
			r.stop(in, &res, turn, &action)
			return res
		}
		next, advanced := engine.RunAdvanceLoop(next, r.cfg.AdvanceCap, engine.AdvanceIfNeeded)
		events = append(events, advanced...)
		if engine.NeedsShowdown(next) {
			done, more, err := engine.MaterializeShowdown(next, next.Seats)
			if err != nil {
				res.Reason = ReasonInternalError
				res.Err = err
				r.stop(in, &res, turn, &action)
				return res
			}
			next = done
			events = append(events, more...)
		}

		persisted, err := r.gateway.Persist(ctx, res.Version, next, events)
		if err != nil {
			res.Reason = ReasonUpdateFailed
			if errors.Is(err, ErrUnavailable) {
				res.Reason = ReasonGatewayUnavailable
			}
			res.Err = err
			r.stop(in, &res, turn, &action)
			return res
		}

		res.Actions++
		res.Version = persisted.Version
		res.State = persisted.State
		if res.State == nil {
			res.State = next
		}
		res.Events = append(res.Events, events...)
		cur = res.State

		if cur.Phase == table.PhaseHandDone {
			res.Reason = ReasonCompleted
			r.stop(in, &res, "", nil)
			return res
		}
	}

	res.Reason = ReasonActionCapReached
	if botsOnly {
		res.Reason = ReasonHardCapReached
	}
	r.stop(in, &res, "", nil)
	return res
}

func (r *Runner) stop(in Input, res *Result, turn string, action *table.Action) {
	if r.sink == nil {
		return
	}
	payload := map[string]any{
		"tableId":       in.TableID,
		"requestId":     in.RequestID,
		"reason":        string(res.Reason),
		"actions":       res.Actions,
		"effectiveMax":  res.EffectiveMax,
		"version":       res.Version,
		"policyVersion": bot.PolicyVersion,
	}
	if res.State != nil {
		payload["handId"] = res.State.HandID
		payload["phase"] = string(res.State.Phase)
	}
	if turn != "" {
		payload["turnUserId"] = turn
	}
	if action != nil {
		payload["actionType"] = string(action.Type)
		payload["actionAmount"] = action.Amount
	}
	if res.Err != nil {
		payload["error"] = res.Err.Error()
	}

	kind := "bot_autoplay_stopped"
	if res.Reason.Abnormal() {
		kind = "bot_autoplay_failed"
	}
	func() {
		defer func() { _ = recover() }()
		r.sink.Log(kind, payload)
	}()
}
