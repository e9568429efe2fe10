package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoHoldem/internal/game/table"
)

func blindsHand(t *testing.T, stacks ...int64) *table.HandState {
	t.Helper()
	ids := []string{"a", "b", "c", "d"}
	seats := make([]table.SeatStack, 0, len(stacks))
	for i, st := range stacks {
		seats = append(seats, table.SeatStack{UserID: ids[i], SeatNo: i + 1, Stack: st})
	}
	// 按钮在 1 号位：b 小盲，c 大盲，a 先行动
	return newTestHand(t, 1, 5, 10, seats...)
}

func types(legal []table.LegalAction) []table.ActionType {
	out := make([]table.ActionType, 0, len(legal))
	for _, la := range legal {
		out = append(out, la.Type)
	}
	return out
}

func TestLegalActionsNotYourTurn(t *testing.T) {
	s := blindsHand(t, 100, 100, 100)
	assert.Empty(t, LegalActions(s.PublicView(), "b"))
	assert.Empty(t, LegalActions(s.PublicView(), "nobody"))
}

func TestLegalActionsFacingBigBlind(t *testing.T) {
	s := blindsHand(t, 100, 100, 100)
	legal := LegalActions(s.PublicView(), "a")
	assert.Equal(t, []table.ActionType{table.ActionCall, table.ActionFold, table.ActionRaise}, types(legal))

	raise, ok := Find(legal, table.ActionRaise)
	require.True(t, ok)
	assert.Equal(t, int64(20), raise.Min)
	assert.Equal(t, int64(100), raise.Max)
}

func TestLegalActionsOpenRound(t *testing.T) {
	s := newTestHand(t, 1, 0, 0,
		table.SeatStack{UserID: "a", SeatNo: 1, Stack: 100},
		table.SeatStack{UserID: "b", SeatNo: 2, Stack: 100},
	)
	legal := LegalActions(s.PublicView(), "b")
	assert.Equal(t, []table.ActionType{table.ActionCheck, table.ActionFold, table.ActionBet}, types(legal))
	bet, _ := Find(legal, table.ActionBet)
	assert.Equal(t, int64(1), bet.Min)
	assert.Equal(t, int64(100), bet.Max)
}

func TestLegalActionsShortStackCanOnlyCall(t *testing.T) {
	s := blindsHand(t, 8, 100, 100)
	legal := LegalActions(s.PublicView(), "a")
	assert.Equal(t, []table.ActionType{table.ActionCall, table.ActionFold}, types(legal))
}

func TestLegalActionsRaiseCappedAtAllIn(t *testing.T) {
	s := blindsHand(t, 15, 100, 100)
	raise, ok := Find(LegalActions(s.PublicView(), "a"), table.ActionRaise)
	require.True(t, ok)
	assert.Equal(t, int64(15), raise.Min)
	assert.Equal(t, int64(15), raise.Max)
}

func TestLegalActionsMinRaiseFollowsLastRaise(t *testing.T) {
	s := blindsHand(t, 100, 100, 100)
	s = act(t, s, table.ActionRaise, "a", 30, "r1")
	assert.Equal(t, int64(20), s.LastRaiseSize)

	raise, ok := Find(LegalActions(s.PublicView(), "b"), table.ActionRaise)
	require.True(t, ok)
	assert.Equal(t, int64(50), raise.Min)
	assert.Equal(t, int64(100), raise.Max)
}

func TestLegalActionsNoBetWithoutLiveOpponent(t *testing.T) {
	s := blindsHand(t, 100, 100, 100)
	s = act(t, s, table.ActionRaise, "a", 100, "r1")
	s = act(t, s, table.ActionFold, "b", 0, "r2")
	legal := LegalActions(s.PublicView(), "c")
	assert.Equal(t, []table.ActionType{table.ActionCall, table.ActionFold}, types(legal))
}
