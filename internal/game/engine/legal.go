package engine

import "AutoHoldem/internal/game/table"

// LegalActions 计算 userID 当前可执行的动作，必须是公开状态的纯函数投影。
// 不轮到该玩家（或该玩家无法行动）时返回空列表，调用方按 no-op 处理。
// 顺序固定为 CHECK, CALL, FOLD, BET, RAISE。
func LegalActions(v table.HandView, userID string) []table.LegalAction {
	if !v.Phase.AcceptsActions() || v.TurnUserID == "" || v.TurnUserID != userID {
		return nil
	}
	if !v.Actionable(userID) {
		return nil
	}

	stack := v.Stacks[userID]
	bet := v.BetThisRoundByUserID[userID]
	toCall := v.ToCallByUserID[userID]

	out := make([]table.LegalAction, 0, 4)
	if toCall == 0 {
		out = append(out, table.LegalAction{Type: table.ActionCheck})
	} else {
		out = append(out, table.LegalAction{Type: table.ActionCall})
	}
	out = append(out, table.LegalAction{Type: table.ActionFold})

	// 没有还能跟注的对手时，加注没有意义
	if !hasLiveOpponent(v, userID) {
		return out
	}

	switch {
	case v.CurrentBet == 0 && stack > 0:
		lo := minBet(v.BigBlind)
		if lo > stack {
			lo = stack
		}
		out = append(out, table.LegalAction{Type: table.ActionBet, Min: lo, Max: stack})

	case v.CurrentBet > 0 && stack > toCall && !v.ActedThisRoundByUserID[userID]:
		maxTo := bet + stack
		minTo := v.CurrentBet + MinRaiseIncrement(v)
		if minTo > maxTo {
			// 不足最小加注额，只能全下
			minTo = maxTo
		}
		out = append(out, table.LegalAction{Type: table.ActionRaise, Min: minTo, Max: maxTo})
	}
	return out
}

// MinRaiseIncrement 最小加注增量：上一次加注的幅度，不低于大盲
func MinRaiseIncrement(v table.HandView) int64 {
	inc := v.LastRaiseSize
	if bb := minBet(v.BigBlind); inc < bb {
		inc = bb
	}
	return inc
}

// Find 在合法动作列表里查找某种类型
func Find(legal []table.LegalAction, t table.ActionType) (table.LegalAction, bool) {
	for _, la := range legal {
		if la.Type == t {
			return la, true
		}
	}
	return table.LegalAction{}, false
}

func minBet(bigBlind int64) int64 {
	if bigBlind < 1 {
		return 1
	}
	return bigBlind
}

func hasLiveOpponent(v table.HandView, userID string) bool {
	for _, seat := range v.Seats {
		if seat.UserID != userID && v.Actionable(seat.UserID) {
			return true
		}
	}
	return false
}
