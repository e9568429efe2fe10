package autoplay

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoHoldem/internal/game/bot"
	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
)

const human = "0xhuman"

// fakeGateway 内存里的 CAS，可以在第 failAt 次调用时注入错误
type fakeGateway struct {
	version int64
	calls   int
	failAt  int
	failErr error
	events  []table.Event
}

func (g *fakeGateway) Persist(_ context.Context, from int64, state *table.HandState, events []table.Event) (Persisted, error) {
	g.calls++
	if g.failErr != nil && g.calls >= g.failAt {
		return Persisted{}, g.failErr
	}
	if from != g.version {
		return Persisted{}, fmt.Errorf("%w: have %d, got %d", ErrConflict, g.version, from)
	}
	g.version++
	g.events = append(g.events, events...)
	return Persisted{Version: g.version, State: state.Clone()}, nil
}

type recordSink struct {
	kinds    []string
	payloads []map[string]any
}

func (s *recordSink) Log(kind string, payload map[string]any) {
	s.kinds = append(s.kinds, kind)
	s.payloads = append(s.payloads, payload)
}

type panicSink struct{}

func (panicSink) Log(string, map[string]any) { panic("sink exploded") }

func newHand(t *testing.T, button int, users ...string) *table.HandState {
	t.Helper()
	seats := make([]table.SeatStack, 0, len(users))
	for i, u := range users {
		seats = append(seats, table.SeatStack{UserID: u, SeatNo: i + 1, Stack: 100})
	}
	s, _, err := engine.NewHand(table.HandSetup{
		TableID: "t-1", HandID: "h-1", Seats: seats, ButtonSeatNo: button, Seed: 11,
	})
	require.NoError(t, err)
	return s
}

func bots(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, bot.UserID("t-1", i))
	}
	return out
}

func TestRunBotsOnlyHandCompletes(t *testing.T) {
	s := newHand(t, 1, bots(3)...)
	gw := &fakeGateway{version: 1}
	sink := &recordSink{}
	r := NewRunner(Config{MaxBotActions: 2, BotsOnlyHardCap: 100}, gw, sink)

	res := r.Run(context.Background(), Input{TableID: "t-1", RequestID: "req-1", Version: 1, State: s})

	assert.Equal(t, ReasonCompleted, res.Reason)
	assert.Equal(t, 100, res.EffectiveMax)
	assert.Equal(t, 12, res.Actions)
	assert.Equal(t, int64(13), res.Version)
	assert.Equal(t, table.PhaseHandDone, res.State.Phase)
	assert.True(t, res.State.ShowdownDone())
	assert.Equal(t, int64(300), res.State.ChipTotal())
	assert.Contains(t, res.State.AppliedRequestIDs, RequestID("req-1", 0))
	assert.Contains(t, res.State.AppliedRequestIDs, RequestID("req-1", 11))
	assert.Equal(t, []string{"bot_autoplay_stopped"}, sink.kinds)
	assert.Equal(t, bot.PolicyVersion, sink.payloads[0]["policyVersion"])
	assert.Len(t, gw.events, len(res.Events))
}

func TestRunMixedTableStopsAtActionCap(t *testing.T) {
	users := append([]string{human}, bots(2)...)
	s := newHand(t, 1, users...)
	gw := &fakeGateway{version: 5}
	r := NewRunner(Config{MaxBotActions: 1, BotsOnlyHardCap: 100}, gw, &recordSink{})

	res := r.Run(context.Background(), Input{TableID: "t-1", RequestID: "req-2", Version: 5, State: s})

	assert.Equal(t, ReasonActionCapReached, res.Reason)
	assert.Equal(t, 1, res.EffectiveMax)
	assert.Equal(t, 1, res.Actions)
	assert.Equal(t, int64(6), res.Version)
	assert.LessOrEqual(t, res.Actions, res.EffectiveMax)
}

func TestRunStopsWhenHumanToAct(t *testing.T) {
	users := append([]string{human}, bots(2)...)
	s := newHand(t, 3, users...)
	gw := &fakeGateway{version: 1}
	r := NewRunner(Config{MaxBotActions: 5, BotsOnlyHardCap: 100}, gw, nil)

	res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
	assert.Equal(t, ReasonTurnNotBot, res.Reason)
	assert.Zero(t, res.Actions)
	assert.Zero(t, gw.calls)
	assert.Same(t, s, res.State)
}

func TestRunBotsContinueUntilHuman(t *testing.T) {
	users := append([]string{human}, bots(2)...)
	s := newHand(t, 1, users...)
	r := NewRunner(Config{MaxBotActions: 10, BotsOnlyHardCap: 100}, &fakeGateway{version: 1}, nil)

	res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
	assert.Equal(t, ReasonTurnNotBot, res.Reason)
	assert.Equal(t, 2, res.Actions)
	assert.Equal(t, human, res.State.TurnUserID)
}

func TestRunBotsOnlyHardCap(t *testing.T) {
	s := newHand(t, 1, bots(3)...)
	r := NewRunner(Config{MaxBotActions: 1, BotsOnlyHardCap: 2}, &fakeGateway{version: 1}, nil)

	res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
	assert.Equal(t, ReasonHardCapReached, res.Reason)
	assert.Equal(t, 2, res.EffectiveMax)
	assert.Equal(t, 2, res.Actions)
}

func TestRunFoldedHumanCountsAsBotsOnly(t *testing.T) {
	users := append([]string{human}, bots(2)...)
	s := newHand(t, 3, users...)
	s, _, err := engine.Step(s, table.Action{Type: table.ActionFold, UserID: human, RequestID: "h1"})
	require.NoError(t, err)
	assert.Zero(t, ActiveHumanCount(s))

	r := NewRunner(Config{MaxBotActions: 1, BotsOnlyHardCap: 50}, &fakeGateway{version: 1}, nil)
	res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
	assert.Equal(t, 50, res.EffectiveMax)
	assert.Equal(t, ReasonCompleted, res.Reason)
}

func TestRunGatewayConflict(t *testing.T) {
	s := newHand(t, 1, bots(2)...)
	gw := &fakeGateway{version: 7, failAt: 1, failErr: fmt.Errorf("%w: stale", ErrConflict)}
	sink := &recordSink{}
	r := NewRunner(Config{MaxBotActions: 5, BotsOnlyHardCap: 5}, gw, sink)

	res := r.Run(context.Background(), Input{TableID: "t-1", RequestID: "req", Version: 7, State: s})
	assert.Equal(t, ReasonUpdateFailed, res.Reason)
	assert.ErrorIs(t, res.Err, ErrConflict)
	assert.Zero(t, res.Actions)
	assert.Equal(t, int64(7), res.Version)
	assert.Same(t, s, res.State)
	assert.Equal(t, 1, gw.calls)
	require.Equal(t, []string{"bot_autoplay_failed"}, sink.kinds)
	assert.Equal(t, "CHECK", sink.payloads[0]["actionType"])
	assert.Equal(t, "h-1", sink.payloads[0]["handId"])
}

func TestRunGatewayUnavailableAfterProgress(t *testing.T) {
	s := newHand(t, 1, bots(2)...)
	gw := &fakeGateway{version: 1, failAt: 2, failErr: fmt.Errorf("%w: connection refused", ErrUnavailable)}
	r := NewRunner(Config{MaxBotActions: 5, BotsOnlyHardCap: 5}, gw, nil)

	res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
	assert.Equal(t, ReasonGatewayUnavailable, res.Reason)
	assert.Equal(t, 1, res.Actions)
	assert.Equal(t, int64(2), res.Version)
}

func TestRunNonActionPhase(t *testing.T) {
	s := newHand(t, 1, bots(2)...)
	s.Phase = table.PhaseHandDone
	res := NewRunner(Config{MaxBotActions: 5}, &fakeGateway{}, nil).Run(context.Background(), Input{State: s})
	assert.Equal(t, ReasonNonActionPhase, res.Reason)
}

func TestRunApplyActionFailed(t *testing.T) {
	s := newHand(t, 1, bots(2)...)
	s.AppliedRequestIDs = []string{RequestID("req", 0)}
	sink := &recordSink{}
	res := NewRunner(Config{MaxBotActions: 5}, &fakeGateway{version: 1}, sink).
		Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})

	assert.Equal(t, ReasonApplyActionFailed, res.Reason)
	assert.ErrorIs(t, res.Err, engine.ErrDuplicateRequest)
	assert.Equal(t, []string{"bot_autoplay_failed"}, sink.kinds)
}

func TestRunSurvivesPanickingSink(t *testing.T) {
	s := newHand(t, 1, bots(2)...)
	r := NewRunner(Config{MaxBotActions: 1, BotsOnlyHardCap: 1}, &fakeGateway{version: 1}, panicSink{})
	assert.NotPanics(t, func() {
		res := r.Run(context.Background(), Input{RequestID: "req", Version: 1, State: s})
		assert.Equal(t, ReasonHardCapReached, res.Reason)
	})
}

func TestRunNilStateNeverPanics(t *testing.T) {
	r := NewRunner(Config{MaxBotActions: 1}, &fakeGateway{}, nil)
	assert.NotPanics(t, func() {
		res := r.Run(context.Background(), Input{})
		assert.Equal(t, ReasonNonActionPhase, res.Reason)
	})
}
