package engine

import "AutoHoldem/internal/game/table"

// ApplyAction 校验并应用一个动作，返回新状态与事件。
// 纯函数：不修改入参，不做 I/O；动作不在合法列表里时返回 *ValidationError。
func ApplyAction(s *table.HandState, a table.Action) (*table.HandState, []table.Event, error) {
	if s == nil {
		return nil, nil, invalid(ErrInvalidSetup, "nil hand state")
	}
	if !s.Phase.AcceptsActions() {
		return nil, nil, invalid(ErrNotActionPhase, "phase %s", s.Phase)
	}
	if _, ok := s.Stacks[a.UserID]; !ok {
		return nil, nil, invalid(ErrUnknownUser, "user %q is not seated", a.UserID)
	}
	if s.RequestApplied(a.RequestID) {
		return nil, nil, invalid(ErrDuplicateRequest, "request %q already applied", a.RequestID)
	}
	if s.TurnUserID != a.UserID {
		return nil, nil, invalid(ErrNotYourTurn, "turn is %q", s.TurnUserID)
	}

	view := s.PublicView()
	la, ok := Find(LegalActions(view, a.UserID), a.Type)
	if !ok {
		return nil, nil, invalid(ErrIllegalAction, "%s not legal for %s", a.Type, a.UserID)
	}
	if a.Type.HasAmount() && (a.Amount < la.Min || a.Amount > la.Max) {
		return nil, nil, invalid(ErrInvalidAmount, "%s %d outside [%d, %d]", a.Type, a.Amount, la.Min, la.Max)
	}

	next := s.Clone()
	uid := a.UserID
	var paid, amount int64

	switch a.Type {
	case table.ActionCheck:
		// no-op
	case table.ActionCall:
		paid = pay(next, uid, next.ToCallByUserID[uid])
		amount = next.BetThisRoundByUserID[uid]
	case table.ActionFold:
		next.FoldedByUserID[uid] = true
	case table.ActionBet, table.ActionRaise:
		inc := MinRaiseIncrement(view)
		raiseSize := a.Amount - next.CurrentBet
		paid = pay(next, uid, a.Amount-next.BetThisRoundByUserID[uid])
		amount = a.Amount
		if raiseSize >= inc {
			next.LastRaiseSize = raiseSize
		}
		// 本街第一注总是重新开放下注；不足最小加注的全下加注不重新开放
		if a.Type == table.ActionBet || raiseSize >= inc {
			for id := range next.ActedThisRoundByUserID {
				next.ActedThisRoundByUserID[id] = false
			}
		}
		next.CurrentBet = a.Amount
	}

	next.ActedThisRoundByUserID[uid] = true
	recomputeToCall(next)
	if a.RequestID != "" {
		next.AppliedRequestIDs = append(next.AppliedRequestIDs, a.RequestID)
	}

	seatNo, _ := next.SeatOf(uid)
	events := []table.Event{{
		Kind:   table.EventActionApplied,
		HandID: next.HandID,
		Data: map[string]any{
			"userId":    uid,
			"seatNo":    seatNo,
			"type":      string(a.Type),
			"amount":    amount,
			"paid":      paid,
			"requestId": a.RequestID,
		},
	}}
	if next.AllInByUserID[uid] && !s.AllInByUserID[uid] {
		events = append(events, table.Event{
			Kind:   table.EventPlayerAllIn,
			HandID: next.HandID,
			Data:   map[string]any{"userId": uid, "seatNo": seatNo},
		})
	}

	next.TurnUserID = nextToAct(next, seatNo)
	return next, events, nil
}
