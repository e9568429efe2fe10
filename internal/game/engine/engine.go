// Package engine 一手无限注德州的纯函数规则：合法动作、动作归约、街推进与摊牌结算。
// 所有函数都不修改入参、不做 I/O；持久化与广播由调用方负责。
package engine

import "AutoHoldem/internal/game/table"

// Settle 动作之后的收尾：有限次推进街道，需要时结算摊牌
func Settle(s *table.HandState, limit int) (*table.HandState, []table.Event, error) {
	next, events := RunAdvanceLoop(s, limit, AdvanceIfNeeded)
	if NeedsShowdown(next) {
		done, more, err := MaterializeShowdown(next, next.Seats)
		if err != nil {
			return nil, nil, err
		}
		next = done
		events = append(events, more...)
	}
	return next, events, nil
}

// Step 人类玩家的一次完整决策：ApplyAction → 推进 → 摊牌
func Step(s *table.HandState, a table.Action) (*table.HandState, []table.Event, error) {
	next, events, err := ApplyAction(s, a)
	if err != nil {
		return nil, nil, err
	}
	settled, more, err := Settle(next, DefaultAdvanceCap)
	if err != nil {
		return nil, nil, err
	}
	return settled, append(events, more...), nil
}
