// Package bot 机器人座位：决策策略、身份派生与目标数量。
package bot

import "AutoHoldem/internal/game/table"

// PolicyVersion 写进诊断日志，方便回溯是哪一版策略做出的决定
const PolicyVersion = "trivial-v1"

// Choice 策略选中的动作；Amount 只对 BET/RAISE 有意义
type Choice struct {
	Type   table.ActionType
	Amount int64
}

var priority = []table.ActionType{
	table.ActionCheck,
	table.ActionCall,
	table.ActionFold,
	table.ActionBet,
	table.ActionRaise,
}

// ChooseTrivial 固定优先级：CHECK → CALL → FOLD → BET(最小) → RAISE(最小)。
// 合法动作为空时返回 false，调用方应停止自动行动。
func ChooseTrivial(legal []table.LegalAction) (Choice, bool) {
	for _, t := range priority {
		for _, la := range legal {
			if la.Type != t {
				continue
			}
			ch := Choice{Type: t}
			if t.HasAmount() {
				ch.Amount = la.Min
			}
			return ch, true
		}
	}
	return Choice{}, false
}

// Action 把选择包装成可以交给 engine 的动作
func (c Choice) Action(userID, requestID string) table.Action {
	return table.Action{Type: c.Type, Amount: c.Amount, UserID: userID, RequestID: requestID}
}
