package engine

import (
	"fmt"

	"AutoHoldem/internal/game/dealer"
	"AutoHoldem/internal/game/table"
)

// NewHand 洗牌、发底牌、收盲注，返回 PREFLOP 状态。
// 同一个 Seed 总是发出同样的牌。所有人都被盲注打成全下时会直接推进到结算。
func NewHand(setup table.HandSetup) (*table.HandState, []table.Event, error) {
	if err := validateSetup(setup); err != nil {
		return nil, nil, err
	}

	s := &table.HandState{
		TableID:                   setup.TableID,
		HandID:                    setup.HandID,
		Phase:                     table.PhasePreflop,
		Community:                 []table.Card{},
		ButtonSeatNo:              setup.ButtonSeatNo,
		SmallBlind:                setup.SmallBlind,
		BigBlind:                  setup.BigBlind,
		Seed:                      setup.Seed,
		Stacks:                    make(map[string]int64, len(setup.Seats)),
		ToCallByUserID:            make(map[string]int64, len(setup.Seats)),
		BetThisRoundByUserID:      make(map[string]int64, len(setup.Seats)),
		ActedThisRoundByUserID:    make(map[string]bool, len(setup.Seats)),
		AllInByUserID:             make(map[string]bool, len(setup.Seats)),
		ContributionsByUserID:     make(map[string]int64, len(setup.Seats)),
		FoldedByUserID:            make(map[string]bool, len(setup.Seats)),
		LeftTableByUserID:         make(map[string]bool, len(setup.Seats)),
		SitOutByUserID:            make(map[string]bool, len(setup.Seats)),
		PendingAutoSitOutByUserID: make(map[string]bool, len(setup.Seats)),
	}
	for _, ss := range setup.Seats {
		s.Seats = append(s.Seats, table.Seat{UserID: ss.UserID, SeatNo: ss.SeatNo})
		s.Stacks[ss.UserID] = ss.Stack
		s.ToCallByUserID[ss.UserID] = 0
		s.BetThisRoundByUserID[ss.UserID] = 0
		s.ContributionsByUserID[ss.UserID] = 0
		s.ActedThisRoundByUserID[ss.UserID] = false
		s.AllInByUserID[ss.UserID] = false
		s.FoldedByUserID[ss.UserID] = false
		s.LeftTableByUserID[ss.UserID] = false
		s.SitOutByUserID[ss.UserID] = false
		s.PendingAutoSitOutByUserID[ss.UserID] = false
	}
	table.SortSeats(s.Seats)

	// 从按钮左手边开始发牌
	order := seatsAfter(s.Seats, s.ButtonSeatNo)
	players := make([]string, 0, len(order))
	for _, seat := range order {
		players = append(players, seat.UserID)
	}
	d := dealer.NewDealer(setup.Seed)
	d.NewDeck()
	hole, err := d.DealHoleCards(players)
	if err != nil {
		return nil, nil, fmt.Errorf("deal hole cards: %w", err)
	}
	s.HoleCards = hole
	s.Deck = d.Remaining()

	events := []table.Event{{
		Kind:   table.EventHandStarted,
		HandID: s.HandID,
		Data: map[string]any{
			"tableId":      s.TableID,
			"buttonSeatNo": s.ButtonSeatNo,
			"seats":        append([]table.Seat(nil), s.Seats...),
			"smallBlind":   s.SmallBlind,
			"bigBlind":     s.BigBlind,
		},
	}}

	lastBlindSeat := s.ButtonSeatNo
	if s.BigBlind > 0 {
		sb, bb := blindSeats(s.Seats, s.ButtonSeatNo)
		events = append(events, postBlind(s, sb, s.SmallBlind, "small")...)
		events = append(events, postBlind(s, bb, s.BigBlind, "big")...)
		s.CurrentBet = s.BigBlind
		s.LastRaiseSize = s.BigBlind
		lastBlindSeat = bb.SeatNo
	}
	recomputeToCall(s)
	s.TurnUserID = nextToAct(s, lastBlindSeat)

	if s.TurnUserID == "" {
		settled, more, err := Settle(s, DefaultAdvanceCap)
		if err != nil {
			return nil, nil, err
		}
		return settled, append(events, more...), nil
	}
	return s, events, nil
}

// blindSeats 单挑时按钮位是小盲，其余情况按钮左手两个座位
func blindSeats(seats []table.Seat, button int) (sb, bb table.Seat) {
	order := seatsAfter(seats, button)
	if len(seats) == 2 {
		return order[1], order[0]
	}
	return order[0], order[1]
}

func postBlind(s *table.HandState, seat table.Seat, amount int64, kind string) []table.Event {
	if amount <= 0 {
		return nil
	}
	paid := pay(s, seat.UserID, amount)
	events := []table.Event{{
		Kind:   table.EventBlindPosted,
		HandID: s.HandID,
		Data: map[string]any{
			"userId": seat.UserID,
			"seatNo": seat.SeatNo,
			"blind":  kind,
			"amount": paid,
		},
	}}
	if s.AllInByUserID[seat.UserID] {
		events = append(events, table.Event{
			Kind:   table.EventPlayerAllIn,
			HandID: s.HandID,
			Data:   map[string]any{"userId": seat.UserID, "seatNo": seat.SeatNo},
		})
	}
	return events
}

func validateSetup(setup table.HandSetup) error {
	if setup.HandID == "" {
		return invalid(ErrInvalidSetup, "hand id is required")
	}
	if n := len(setup.Seats); n < 2 || n > table.MaxSeats {
		return invalid(ErrInvalidSetup, "need 2..%d seats, got %d", table.MaxSeats, n)
	}
	if setup.SmallBlind < 0 || setup.BigBlind < 0 || setup.SmallBlind > setup.BigBlind {
		return invalid(ErrInvalidSetup, "bad blinds %d/%d", setup.SmallBlind, setup.BigBlind)
	}
	users := make(map[string]bool, len(setup.Seats))
	seatNos := make(map[int]bool, len(setup.Seats))
	for _, ss := range setup.Seats {
		if ss.UserID == "" {
			return invalid(ErrInvalidSetup, "seat %d has no user", ss.SeatNo)
		}
		if users[ss.UserID] {
			return invalid(ErrInvalidSetup, "user %q seated twice", ss.UserID)
		}
		if seatNos[ss.SeatNo] {
			return invalid(ErrInvalidSetup, "seat %d taken twice", ss.SeatNo)
		}
		if ss.Stack <= 0 {
			return invalid(ErrInvalidSetup, "user %q has no chips", ss.UserID)
		}
		users[ss.UserID] = true
		seatNos[ss.SeatNo] = true
	}
	return nil
}
