package engine

import (
	"AutoHoldem/internal/game/dealer"
	"AutoHoldem/internal/game/table"
)

// DefaultAdvanceCap 一次推进最多连续走几条街（PREFLOP 全下后一直发到 SHOWDOWN 正好 4 步）
const DefaultAdvanceCap = 4

// AdvanceFunc 单步推进函数签名，RunAdvanceLoop 通过它驱动
type AdvanceFunc func(*table.HandState) (*table.HandState, []table.Event)

// AdvanceIfNeeded 本轮下注结束时进入下一条街并发公共牌。
// 下注未结束、不在下注街、或只剩 ≤1 个可争夺底池的玩家时原样返回且没有事件；
// 最后一种情况交给 MaterializeShowdown 收尾。
func AdvanceIfNeeded(s *table.HandState) (*table.HandState, []table.Event) {
	if s == nil || !s.Phase.AcceptsActions() {
		return s, nil
	}
	if len(s.EligibleUsers()) <= 1 || !roundSettled(s) {
		return s, nil
	}

	nextPhase, ok := s.Phase.Next()
	if !ok {
		return s, nil
	}

	next := s.Clone()
	var dealt []table.Card
	if want := table.CommunityCount(nextPhase) - len(next.Community); want > 0 {
		d := dealer.Resume(next.Deck)
		cards, err := d.DealCommunity(want)
		if err != nil {
			return s, nil
		}
		next.Community = append(next.Community, cards...)
		next.Deck = d.Remaining()
		dealt = cards
	}

	from := next.Phase
	next.Phase = nextPhase
	resetRound(next)
	if nextPhase.AcceptsActions() {
		next.TurnUserID = nextToAct(next, next.ButtonSeatNo)
	} else {
		next.TurnUserID = ""
	}

	return next, []table.Event{{
		Kind:   table.EventStreetAdvanced,
		HandID: next.HandID,
		Data: map[string]any{
			"from":      string(from),
			"to":        string(nextPhase),
			"dealt":     dealt,
			"community": append([]table.Card(nil), next.Community...),
		},
	}}
}

// RunAdvanceLoop 反复调用 advance，直到没有事件、阶段不变、到达 HAND_DONE 或达到 limit。
// limit 保证即使 advance 永远报告进展也一定终止。
func RunAdvanceLoop(s *table.HandState, limit int, advance AdvanceFunc) (*table.HandState, []table.Event) {
	cur := s
	var events []table.Event
	for i := 0; i < limit; i++ {
		if cur == nil || cur.Phase == table.PhaseHandDone {
			break
		}
		next, ev := advance(cur)
		if len(ev) == 0 {
			break
		}
		events = append(events, ev...)
		changed := next.Phase != cur.Phase
		cur = next
		if !changed {
			break
		}
	}
	return cur, events
}

// AdvanceLoop 使用默认 cap 的推进循环
func AdvanceLoop(s *table.HandState) (*table.HandState, []table.Event) {
	return RunAdvanceLoop(s, DefaultAdvanceCap, AdvanceIfNeeded)
}

func resetRound(s *table.HandState) {
	for _, seat := range s.Seats {
		s.BetThisRoundByUserID[seat.UserID] = 0
		s.ActedThisRoundByUserID[seat.UserID] = false
		s.ToCallByUserID[seat.UserID] = 0
	}
	s.CurrentBet = 0
	s.LastRaiseSize = 0
}
