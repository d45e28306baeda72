package ws

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game_theory_arena/internal/game"
)

func TestHub_QueueThenMatch(t *testing.T) {
	h, m := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")

	send(t, h, a, TypeJoinQueue, "prisoners_dilemma")
	require.Equal(t, []string{TypeQueueJoined}, a.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Waiting.WithLabelValues("prisoners_dilemma")))

	send(t, h, b, TypeJoinQueue, "prisoners_dilemma")
	require.Equal(t, TypeMatchFound, a.last().Type)
	require.Equal(t, []string{TypeMatchFound}, b.types())

	fa := a.last().Payload.(MatchFoundPayload)
	assert.Equal(t, game.ModePrisonersDilemma, fa.GameMode)
	assert.Equal(t, 1, fa.Round)
	assert.Equal(t, 5, fa.TotalRounds)
	assert.Equal(t, "Bob", fa.OpponentName)
	assert.Empty(t, fa.Role)

	assert.Equal(t, "Alice", b.last().Payload.(MatchFoundPayload).OpponentName)

	s := h.snapshot()
	assert.Equal(t, 1, s.Rooms)
	assert.Equal(t, 0, s.Waiting)
	assert.Equal(t, 2, s.BoundConnections)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Waiting.WithLabelValues("prisoners_dilemma")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRooms))
}

func TestHub_UnknownModeDefaultsToPD(t *testing.T) {
	h, _ := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	send(t, h, a, TypeJoinQueue, "chess")
	assert.Equal(t, game.ModePrisonersDilemma, a.last().Payload.(QueueJoinedPayload).GameMode)

	b := newPeer("c2", "u2", "Bob")
	send(t, h, b, TypeJoinQueue, nil)
	assert.Equal(t, TypeMatchFound, b.last().Type)
}

func TestHub_SameUserNeverPaired(t *testing.T) {
	h, _ := newTestHub(t, nil)
	tab1 := newPeer("c1", "u1", "Alice")
	tab2 := newPeer("c2", "u1", "Alice")

	send(t, h, tab1, TypeJoinQueue, "ultimatum")
	send(t, h, tab2, TypeJoinQueue, "ultimatum")

	assert.Equal(t, []string{TypeQueueJoined}, tab2.types())
	s := h.snapshot()
	assert.Equal(t, 0, s.Rooms)
	assert.Equal(t, 1, s.Waiting)
}

func TestHub_PairingClearsOtherSlots(t *testing.T) {
	h, _ := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")

	send(t, h, a, TypeJoinQueue, "ultimatum")
	send(t, h, a, TypeJoinQueue, "prisoners_dilemma")
	send(t, h, b, TypeJoinQueue, "prisoners_dilemma")

	_, waiting := h.queue.Waiting(game.ModeUltimatum)
	assert.False(t, waiting, "seated player must not stay queued elsewhere")
}

func TestHub_PrisonersDilemmaAllCooperate(t *testing.T) {
	sink := &fakeSink{}
	h, m := newTestHub(t, sink)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")
	pair(t, h, a, b, game.ModePrisonersDilemma)

	for round := 1; round <= 5; round++ {
		send(t, h, a, TypeMakeChoice, "cooperate")
		require.Equal(t, TypeChoiceReceived, a.last().Type)
		assert.Empty(t, b.ofType(TypeChoiceReceived), "ack is private")

		send(t, h, b, TypeMakeChoice, "cooperate")
		rr := a.ofType(TypeRoundResult)
		require.Len(t, rr, round)
		got := rr[round-1].Payload.(RoundResultPayload)
		assert.Equal(t, round, got.Round)
		assert.Equal(t, 3, got.MyPayoff)
		assert.Equal(t, 3*round, got.MyScore)
		assert.Equal(t, 3*round, got.OpponentScore)
	}

	for _, p := range []*fakePeer{a, b} {
		require.Equal(t, TypeMatchResult, p.last().Type)
		res := p.last().Payload.(MatchResultPayload)
		assert.Equal(t, OutcomeDraw, res.Outcome)
		assert.Equal(t, map[game.PlayerID]int{"u1": 15, "u2": 15}, res.FinalScores)
		assert.Len(t, res.History.([]game.PDRound), 5)
	}

	require.Eventually(t, func() bool { return len(sink.recorded()) == 1 }, time.Second, 10*time.Millisecond)
	rec := sink.recorded()[0]
	assert.Equal(t, "prisoners_dilemma", rec.GameMode)
	assert.Equal(t, "u1", rec.Player1ID)
	assert.Equal(t, "u2", rec.Player2ID)
	assert.Equal(t, 15, rec.Player1Score)
	assert.Nil(t, rec.WinnerID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesFinished.WithLabelValues("prisoners_dilemma", "draw")))

	// finished match: further choices are rejected, room stays for a rematch
	send(t, h, a, TypeMakeChoice, "defect")
	assert.Equal(t, TypeError, a.last().Type)
	assert.Equal(t, 1, h.snapshot().Rooms)
}

func TestHub_PrisonersDilemmaDefectorWins(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newTestHub(t, sink)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")
	pair(t, h, a, b, game.ModePrisonersDilemma)

	for i := 0; i < 5; i++ {
		send(t, h, b, TypeMakeChoice, "cooperate")
		send(t, h, a, TypeMakeChoice, "defect")
	}

	ra := a.last().Payload.(MatchResultPayload)
	rb := b.last().Payload.(MatchResultPayload)
	assert.Equal(t, OutcomeWin, ra.Outcome)
	assert.Equal(t, OutcomeLoss, rb.Outcome)
	assert.Equal(t, 25, ra.FinalScores["u1"])
	assert.Equal(t, 0, ra.FinalScores["u2"])

	last := b.ofType(TypeRoundResult)[4].Payload.(RoundResultPayload)
	assert.Equal(t, game.Cooperate, last.MyChoice)
	assert.Equal(t, game.Defect, last.OpponentChoice)
	assert.Equal(t, 0, last.MyPayoff)
	assert.Equal(t, 5, last.OpponentPayoff)

	require.Eventually(t, func() bool { return len(sink.recorded()) == 1 }, time.Second, 10*time.Millisecond)
	require.NotNil(t, sink.recorded()[0].WinnerID)
	assert.Equal(t, "u1", *sink.recorded()[0].WinnerID)
}

func TestHub_DuplicateChoiceRejected(t *testing.T) {
	h, m := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")
	pair(t, h, a, b, game.ModePrisonersDilemma)

	send(t, h, a, TypeMakeChoice, "cooperate")
	send(t, h, a, TypeMakeChoice, "defect")
	require.Equal(t, TypeError, a.last().Type)
	assert.Equal(t, game.ErrAlreadySubmitted.Error(), a.last().Payload.(ErrorPayload).Message)
	assert.Empty(t, b.msgs)

	send(t, h, a, TypeMakeChoice, 42)
	assert.Equal(t, TypeError, a.last().Type)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidActions.WithLabelValues(TypeMakeChoice)))

	// the pending cooperate still counts
	send(t, h, b, TypeMakeChoice, "defect")
	rr := a.ofType(TypeRoundResult)
	require.Len(t, rr, 1)
	assert.Equal(t, game.Cooperate, rr[0].Payload.(RoundResultPayload).MyChoice)
}

func TestHub_UltimatumScenario(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newTestHub(t, sink)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")

	send(t, h, a, TypeJoinQueue, "ultimatum")
	send(t, h, b, TypeJoinQueue, "ultimatum")
	assert.Equal(t, game.RoleProposer, a.last().Payload.(MatchFoundPayload).Role)
	assert.Equal(t, game.RoleResponder, b.last().Payload.(MatchFoundPayload).Role)
	assert.Equal(t, 2, a.last().Payload.(MatchFoundPayload).TotalRounds)
	a.reset()
	b.reset()

	// round 1: Alice keeps 7, Bob rejects
	send(t, h, a, TypeProposeSplit, 7)
	assert.Equal(t, []string{TypeProposalSubmitted}, a.types())
	require.Equal(t, []string{TypeProposalReceived}, b.types())
	assert.Equal(t, ProposalReceivedPayload{Round: 1, ProposerSplit: 7, ResponderSplit: 3}, b.last().Payload)

	send(t, h, b, TypeRespondToProposal, false)
	r1 := a.ofType(TypeUltimatumRoundResult)[0].Payload.(UltimatumRoundResultPayload)
	assert.Equal(t, game.RoleProposer, r1.Role)
	assert.False(t, r1.Accepted)
	assert.Equal(t, 0, r1.MyPoints)
	assert.Equal(t, 0, r1.OpponentPoints)

	next := b.last().Payload.(UltimatumNextRoundPayload)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, game.RoleProposer, next.Role)
	assert.Equal(t, game.RoleResponder, a.last().Payload.(UltimatumNextRoundPayload).Role)

	// round 2: Bob keeps 4, Alice accepts
	send(t, h, b, TypeProposeSplit, 4)
	send(t, h, a, TypeRespondToProposal, true)

	r2 := a.ofType(TypeUltimatumRoundResult)[1].Payload.(UltimatumRoundResultPayload)
	assert.Equal(t, game.RoleResponder, r2.Role)
	assert.Equal(t, 6, r2.MyPoints)
	assert.Equal(t, 4, r2.OpponentPoints)
	assert.Equal(t, 6, r2.MyScore)
	assert.Equal(t, 4, r2.OpponentScore)

	assert.Empty(t, a.ofType(TypeUltimatumNextRound)[1:], "no next-round after the last round")
	assert.Equal(t, OutcomeWin, a.last().Payload.(MatchResultPayload).Outcome)
	assert.Equal(t, OutcomeLoss, b.last().Payload.(MatchResultPayload).Outcome)
	assert.Len(t, a.last().Payload.(MatchResultPayload).History.([]game.UltimatumRound), 2)

	require.Eventually(t, func() bool { return len(sink.recorded()) == 1 }, time.Second, 10*time.Millisecond)
	rec := sink.recorded()[0]
	assert.Equal(t, "ultimatum", rec.GameMode)
	assert.Equal(t, 6, rec.Player1Score)
	assert.Equal(t, 4, rec.Player2Score)
	assert.Equal(t, "u1", *rec.WinnerID)
}

func TestHub_UltimatumInvalidActions(t *testing.T) {
	h, _ := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")
	pair(t, h, a, b, game.ModeUltimatum)

	send(t, h, b, TypeProposeSplit, 5)
	assert.Equal(t, game.ErrNotYourTurn.Error(), b.last().Payload.(ErrorPayload).Message)

	send(t, h, a, TypeProposeSplit, 11)
	assert.Equal(t, game.ErrInvalidSplit.Error(), a.last().Payload.(ErrorPayload).Message)

	send(t, h, a, TypeProposeSplit, 4.5)
	assert.Equal(t, game.ErrInvalidSplit.Error(), a.last().Payload.(ErrorPayload).Message)

	send(t, h, a, TypeProposeSplit, "5")
	assert.Equal(t, TypeError, a.last().Type)

	send(t, h, b, TypeRespondToProposal, true)
	assert.Equal(t, game.ErrNoProposal.Error(), b.last().Payload.(ErrorPayload).Message)

	send(t, h, a, TypeMakeChoice, "cooperate")
	assert.Equal(t, errWrongMode.Error(), a.last().Payload.(ErrorPayload).Message)

	send(t, h, a, TypeProposeSplit, 5)
	send(t, h, b, TypeRespondToProposal, "yes")
	assert.Equal(t, errBadResponse.Error(), b.last().Payload.(ErrorPayload).Message)

	// rejections are private, Bob only ever saw the one valid proposal
	assert.Len(t, b.ofType(TypeProposalReceived), 1)
	assert.Len(t, a.ofType(TypeProposalSubmitted), 1)
	assert.NotNil(t, h.rooms[h.byConn["c1"]].engine.(*game.Ultimatum).Pending())
}

// Malformed payloads are refused without touching engine state.
func TestHub_UltimatumMalformedPayloads(t *testing.T) {
	h, _ := newTestHub(t, nil)
	a := newPeer("c1", "u1", "Alice")
	b := newPeer("c2", "u2", "Bob")
	pair(t, h, a, b, game.ModeUltimatum)
	ug := h.rooms[h.byConn["c1"]].engine.(*game.Ultimatum)

	for _, split := range []any{5.5, "5", 11, 1e300, nil} {
		send(t, h, a, TypeProposeSplit, split)
		require.Equal(t, TypeError, a.last().Type, "%v", split)
		assert.Nil(t, ug.Pending(), "%v", split)
	}
	assert.Empty(t, b.ofType(TypeProposalReceived))

	send(t, h, a, TypeProposeSplit, 6)
	require.NotNil(t, ug.Pending())

	for _, resp := range []any{nil, "yes", 1} {
		send(t, h, b, TypeRespondToProposal, resp)
		require.Equal(t, TypeError, b.last().Type, "%v", resp)
		assert.NotNil(t, ug.Pending(), "%v", resp)
		assert.Equal(t, 1, ug.Round())
	}
	assert.Equal(t, map[game.PlayerID]int{"u1": 0, "u2": 0}, ug.Scores())
}
