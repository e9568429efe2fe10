package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoHoldem/internal/game/table"
)

func newTestHand(t *testing.T, button int, sb, bb int64, seats ...table.SeatStack) *table.HandState {
	t.Helper()
	s, _, err := NewHand(table.HandSetup{
		TableID:      "t-1",
		HandID:       "h-1",
		Seats:        seats,
		ButtonSeatNo: button,
		SmallBlind:   sb,
		BigBlind:     bb,
		Seed:         42,
	})
	require.NoError(t, err)
	return s
}

func act(t *testing.T, s *table.HandState, typ table.ActionType, uid string, amount int64, req string) *table.HandState {
	t.Helper()
	next, _, err := Step(s, table.Action{Type: typ, UserID: uid, Amount: amount, RequestID: req})
	require.NoError(t, err, "%s %s", uid, typ)
	return next
}

func publicKeys(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// 🧪 三人桌：BET → FOLD → CALL 之后进入翻牌
func TestThreeSeatsBetFoldCallReachesFlop(t *testing.T) {
	s := newTestHand(t, 3, 0, 0,
		table.SeatStack{UserID: "a", SeatNo: 1, Stack: 100},
		table.SeatStack{UserID: "b", SeatNo: 2, Stack: 100},
		table.SeatStack{UserID: "c", SeatNo: 3, Stack: 100},
	)
	require.Equal(t, "a", s.TurnUserID)
	total := s.ChipTotal()

	s = act(t, s, table.ActionBet, "a", 10, "r1")
	assert.Equal(t, "b", s.TurnUserID)
	s = act(t, s, table.ActionFold, "b", 0, "r2")
	assert.Equal(t, "c", s.TurnUserID)
	s = act(t, s, table.ActionCall, "c", 0, "r3")

	assert.Equal(t, table.PhaseFlop, s.Phase)
	assert.Len(t, s.Community, 3)
	assert.Equal(t, total, s.ChipTotal())
	assert.Equal(t, int64(20), s.Pot())

	for _, uid := range []string{"a", "c"} {
		assert.Len(t, s.PrivateView(uid).HoleCards, 2, uid)
	}
	pub := publicKeys(t, s.PublicView())
	for _, key := range []string{"holeCards", "deck", "seed"} {
		assert.NotContains(t, pub, key)
	}
}

// 🧪 单挑：翻前、翻牌都 CHECK/CHECK 后进入转牌
func TestHeadsUpCheckDownToTurn(t *testing.T) {
	s := newTestHand(t, 1, 0, 0,
		table.SeatStack{UserID: "a", SeatNo: 1, Stack: 100},
		table.SeatStack{UserID: "b", SeatNo: 2, Stack: 100},
	)
	require.Equal(t, "b", s.TurnUserID)

	s = act(t, s, table.ActionCheck, "b", 0, "r1")
	s = act(t, s, table.ActionCheck, "a", 0, "r2")
	require.Equal(t, table.PhaseFlop, s.Phase)
	require.Len(t, s.Community, 3)

	s = act(t, s, table.ActionCheck, "b", 0, "r3")
	s = act(t, s, table.ActionCheck, "a", 0, "r4")
	assert.Equal(t, table.PhaseTurn, s.Phase)
	assert.Len(t, s.Community, 4)
	assert.Equal(t, "b", s.TurnUserID)
}

func TestNewHandPostsBlinds(t *testing.T) {
	s, events, err := NewHand(table.HandSetup{
		TableID: "t-1", HandID: "h-1", ButtonSeatNo: 1, SmallBlind: 5, BigBlind: 10, Seed: 7,
		Seats: []table.SeatStack{
			{UserID: "c", SeatNo: 3, Stack: 100},
			{UserID: "a", SeatNo: 1, Stack: 100},
			{UserID: "b", SeatNo: 2, Stack: 100},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []table.Seat{{UserID: "a", SeatNo: 1}, {UserID: "b", SeatNo: 2}, {UserID: "c", SeatNo: 3}}, s.Seats)
	assert.Equal(t, int64(95), s.Stacks["b"])
	assert.Equal(t, int64(90), s.Stacks["c"])
	assert.Equal(t, int64(10), s.CurrentBet)
	assert.Equal(t, "a", s.TurnUserID)
	assert.Equal(t, int64(10), s.ToCallByUserID["a"])
	assert.Equal(t, int64(5), s.ToCallByUserID["b"])
	assert.Len(t, s.Deck, 52-6)

	kinds := []string{}
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{table.EventHandStarted, table.EventBlindPosted, table.EventBlindPosted}, kinds)
}

func TestNewHandHeadsUpButtonIsSmallBlind(t *testing.T) {
	s := newTestHand(t, 2, 5, 10,
		table.SeatStack{UserID: "a", SeatNo: 1, Stack: 100},
		table.SeatStack{UserID: "b", SeatNo: 2, Stack: 100},
	)
	assert.Equal(t, int64(95), s.Stacks["b"])
	assert.Equal(t, int64(90), s.Stacks["a"])
	assert.Equal(t, "b", s.TurnUserID)
}

func TestNewHandSameSeedSameCards(t *testing.T) {
	seats := []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 100}, {UserID: "b", SeatNo: 2, Stack: 100}}
	s1 := newTestHand(t, 1, 0, 0, seats...)
	s2 := newTestHand(t, 1, 0, 0, seats...)
	assert.Equal(t, s1.HoleCards, s2.HoleCards)
	assert.Equal(t, s1.Deck, s2.Deck)
}

func TestNewHandRejectsBadSetup(t *testing.T) {
	cases := map[string]table.HandSetup{
		"one seat": {HandID: "h", Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}}},
		"dup user": {HandID: "h", Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}, {UserID: "a", SeatNo: 2, Stack: 10}}},
		"dup seat": {HandID: "h", Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}, {UserID: "b", SeatNo: 1, Stack: 10}}},
		"no chips": {HandID: "h", Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}, {UserID: "b", SeatNo: 2}}},
		"no hand":  {Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}, {UserID: "b", SeatNo: 2, Stack: 10}}},
		"blinds":   {HandID: "h", SmallBlind: 10, BigBlind: 5, Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 10}, {UserID: "b", SeatNo: 2, Stack: 10}}},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewHand(setup)
			assert.ErrorIs(t, err, ErrInvalidSetup)
		})
	}
}

func TestNewHandAllInBlindsRunOut(t *testing.T) {
	s, _, err := NewHand(table.HandSetup{
		TableID: "t-1", HandID: "h-1", ButtonSeatNo: 1, SmallBlind: 5, BigBlind: 10, Seed: 3,
		Seats: []table.SeatStack{{UserID: "a", SeatNo: 1, Stack: 5}, {UserID: "b", SeatNo: 2, Stack: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, table.PhaseHandDone, s.Phase)
	assert.Len(t, s.Community, 5)
	assert.Equal(t, int64(15), s.Stacks["a"]+s.Stacks["b"])
	assert.True(t, s.ShowdownDone())
}
