package engine

import "AutoHoldem/internal/game/table"

// pay 从 stack 转入本轮下注与本手投入，不足时按全下处理；返回实际支付
func pay(s *table.HandState, userID string, amount int64) int64 {
	if amount > s.Stacks[userID] {
		amount = s.Stacks[userID]
	}
	if amount <= 0 {
		return 0
	}
	s.Stacks[userID] -= amount
	s.BetThisRoundByUserID[userID] += amount
	s.ContributionsByUserID[userID] += amount
	if s.Stacks[userID] == 0 {
		s.AllInByUserID[userID] = true
	}
	return amount
}

// recomputeToCall 所有玩家的 toCall 一起刷新，不能行动的玩家为 0
func recomputeToCall(s *table.HandState) {
	for _, seat := range s.Seats {
		id := seat.UserID
		owe := s.CurrentBet - s.BetThisRoundByUserID[id]
		if owe < 0 || !s.Actionable(id) {
			owe = 0
		}
		s.ToCallByUserID[id] = owe
	}
}

// needsAction 玩家本轮是否还需要表态：欠筹码，或者还没行动且桌上还有别人可以对抗
func needsAction(s *table.HandState, userID string, actionable int) bool {
	if !s.Actionable(userID) {
		return false
	}
	if s.ToCallByUserID[userID] > 0 {
		return true
	}
	return !s.ActedThisRoundByUserID[userID] && actionable >= 2
}

// roundSettled 本轮下注是否已经结束
func roundSettled(s *table.HandState) bool {
	actionable := len(s.ActionableUsers())
	for _, seat := range s.Seats {
		if needsAction(s, seat.UserID, actionable) {
			return false
		}
	}
	return true
}

// nextToAct 从 fromSeatNo 之后按座位顺序找下一个需要表态的玩家。
// fromSeatNo 自己排在最后一个被检查。找不到返回空串。
func nextToAct(s *table.HandState, fromSeatNo int) string {
	if len(s.EligibleUsers()) <= 1 {
		return ""
	}
	actionable := len(s.ActionableUsers())
	for _, seat := range seatsAfter(s.Seats, fromSeatNo) {
		if needsAction(s, seat.UserID, actionable) {
			return seat.UserID
		}
	}
	return ""
}

// seatsAfter 以 seatNo 之后的第一个座位开始，环形返回全部座位
func seatsAfter(seats []table.Seat, seatNo int) []table.Seat {
	start := 0
	for i, seat := range seats {
		if seat.SeatNo > seatNo {
			start = i
			break
		}
	}
	out := make([]table.Seat, 0, len(seats))
	out = append(out, seats[start:]...)
	out = append(out, seats[:start]...)
	return out
}
