package engine

import (
	"fmt"
	"sort"

	"AutoHoldem/internal/game/table"
)

// NeedsShowdown 只剩 ≤1 个可争夺底池的玩家，或已经到了 SHOWDOWN，且本手尚未结算
func NeedsShowdown(s *table.HandState) bool {
	if s == nil || s.ShowdownDone() || s.Phase == table.PhaseHandDone {
		return false
	}
	return s.Phase == table.PhaseShowdown || len(s.EligibleUsers()) <= 1
}

type sidePot struct {
	amount       int64
	eligible     []string
	contributors map[string]int64
}

// MaterializeShowdown 计算并派发底池，阶段进入 HAND_DONE。
// 对同一个 HandID 幂等：已经结算过的状态原样返回，不会重复派奖。
// seats 决定零头筹码的分配顺序（按钮之后第一个赢家优先）。
func MaterializeShowdown(s *table.HandState, seats []table.Seat) (*table.HandState, []table.Event, error) {
	if s == nil {
		return nil, nil, invalid(ErrInvalidSetup, "nil hand state")
	}
	if s.ShowdownDone() {
		return s, nil, nil
	}
	if !NeedsShowdown(s) {
		return s, nil, ErrShowdownNotReady
	}

	next := s.Clone()
	if len(seats) == 0 {
		seats = next.Seats
	}
	ordered := append([]table.Seat(nil), seats...)
	table.SortSeats(ordered)
	order := make([]string, 0, len(ordered))
	for _, seat := range seatsAfter(ordered, next.ButtonSeatNo) {
		order = append(order, seat.UserID)
	}

	contenders := next.EligibleUsers()
	contested := len(contenders) >= 2
	scores := make(map[string]int16, len(contenders))
	var names map[string]string
	if contested {
		names = make(map[string]string, len(contenders))
		for _, id := range contenders {
			score, name, err := rankHand(next.HoleCards[id], next.Community)
			if err != nil {
				return nil, nil, fmt.Errorf("rank hand for %s: %w", id, err)
			}
			scores[id] = score
			names[id] = name
		}
	}

	sd := &table.Showdown{
		HandID:      next.HandID,
		Payouts:     make(map[string]int64),
		HandNames:   names,
		Uncontested: !contested,
	}
	var events []table.Event

	for i, pot := range buildPots(next, order) {
		res := table.PotResult{
			Amount:   pot.amount,
			Eligible: pot.eligible,
			Shares:   make(map[string]int64),
		}
		if len(pot.eligible) == 0 {
			// 没人能争这个池（全部弃牌或离桌），按各自投入退回
			for id, amt := range pot.contributors {
				res.Shares[id] += amt
				next.Stacks[id] += amt
				sd.Payouts[id] += amt
			}
			sd.Pots = append(sd.Pots, res)
			events = append(events, table.Event{
				Kind:   table.EventPotRefunded,
				HandID: next.HandID,
				Data:   map[string]any{"pot": i, "amount": pot.amount, "shares": res.Shares},
			})
			continue
		}

		res.Winners = bestOf(pot.eligible, scores)
		share := pot.amount / int64(len(res.Winners))
		remainder := pot.amount % int64(len(res.Winners))
		for j, w := range res.Winners {
			amt := share
			if j == 0 {
				amt += remainder
			}
			res.Shares[w] += amt
			next.Stacks[w] += amt
			sd.Payouts[w] += amt
		}
		sd.Pots = append(sd.Pots, res)
		events = append(events, table.Event{
			Kind:   table.EventPotAwarded,
			HandID: next.HandID,
			Data: map[string]any{
				"pot":     i,
				"amount":  pot.amount,
				"winners": res.Winners,
				"shares":  res.Shares,
			},
		})
	}

	for _, seat := range next.Seats {
		next.ContributionsByUserID[seat.UserID] = 0
	}
	resetRound(next)
	next.Phase = table.PhaseHandDone
	next.TurnUserID = ""
	next.Showdown = sd

	events = append(events, table.Event{
		Kind:   table.EventHandCompleted,
		HandID: next.HandID,
		Data: map[string]any{
			"payouts":     sd.Payouts,
			"uncontested": sd.Uncontested,
			"handNames":   names,
		},
	})
	return next, events, nil
}

// buildPots 按投入层级切出主池与边池；order 决定 eligible 的排列顺序
func buildPots(s *table.HandState, order []string) []sidePot {
	levels := make([]int64, 0, len(order))
	seen := make(map[int64]bool)
	for _, id := range order {
		c := s.ContributionsByUserID[id]
		if c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []sidePot
	var prev int64
	for _, level := range levels {
		pot := sidePot{contributors: make(map[string]int64)}
		for _, id := range order {
			c := s.ContributionsByUserID[id]
			if c <= prev {
				continue
			}
			part := c - prev
			if part > level-prev {
				part = level - prev
			}
			pot.amount += part
			pot.contributors[id] += part
			if c >= level && s.Eligible(id) {
				pot.eligible = append(pot.eligible, id)
			}
		}
		prev = level

		// 参与者相同的相邻池合并
		if n := len(pots); n > 0 && sameMembers(pots[n-1].eligible, pot.eligible) {
			pots[n-1].amount += pot.amount
			for id, amt := range pot.contributors {
				pots[n-1].contributors[id] += amt
			}
			continue
		}
		pots = append(pots, pot)
	}
	return pots
}

// bestOf 最高分的玩家（平分时保留 order 顺序）；无需比牌时直接返回
func bestOf(eligible []string, scores map[string]int16) []string {
	if len(eligible) == 1 {
		return []string{eligible[0]}
	}
	var best int16
	var winners []string
	for _, id := range eligible {
		sc := scores[id]
		switch {
		case len(winners) == 0 || sc > best:
			best = sc
			winners = []string{id}
		case sc == best:
			winners = append(winners, id)
		}
	}
	return winners
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
