package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestUltimatum_FullMatch(t *testing.T) {
	g := NewUltimatum(alice, bob)
	assert.Equal(t, RoleProposer, g.RoleOf(alice))
	assert.Equal(t, RoleResponder, g.RoleOf(bob))

	p, err := g.SubmitProposal(alice, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.ProposerSplit)
	assert.Equal(t, 3, p.ResponderSplit)

	r, err := g.SubmitResponse(bob, true)
	require.NoError(t, err)
	assert.True(t, r.Accepted)
	assert.Equal(t, 7, r.ProposerPoints)
	assert.Equal(t, 3, r.ResponderPoints)
	assert.False(t, g.IsFinished())

	// roles swap for round 2
	assert.Equal(t, 2, g.Round())
	assert.Equal(t, bob, g.Proposer())
	assert.Equal(t, alice, g.Responder())

	_, err = g.SubmitProposal(bob, 9)
	require.NoError(t, err)
	r, err = g.SubmitResponse(alice, false)
	require.NoError(t, err)
	assert.False(t, r.Accepted)
	assert.Equal(t, 0, r.ProposerPoints)
	assert.Equal(t, 0, r.ResponderPoints)

	assert.True(t, g.IsFinished())
	assert.Equal(t, map[PlayerID]int{alice: 7, bob: 3}, g.Scores())
	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, alice, winner)
	assert.Len(t, g.Rounds(), 2)
}

func TestUltimatum_ProposalRejections(t *testing.T) {
	g := NewUltimatum(alice, bob)

	_, err := g.SubmitProposal(bob, 5)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.SubmitProposal(alice, 11)
	assert.ErrorIs(t, err, ErrInvalidSplit)
	_, err = g.SubmitProposal(alice, -1)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = g.SubmitProposal("mallory", 5)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	_, err = g.SubmitProposal(alice, 5)
	require.NoError(t, err)
	_, err = g.SubmitProposal(alice, 6)
	assert.ErrorIs(t, err, ErrProposalPending)
	assert.Equal(t, 5, g.Pending().ProposerSplit)
}

func TestUltimatum_ResponseRejections(t *testing.T) {
	g := NewUltimatum(alice, bob)

	_, err := g.SubmitResponse(bob, true)
	assert.ErrorIs(t, err, ErrNoProposal)

	_, err = g.SubmitProposal(alice, 4)
	require.NoError(t, err)

	_, err = g.SubmitResponse(alice, true)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.NotNil(t, g.Pending())
}

func TestUltimatum_FinishedRejectsEverything(t *testing.T) {
	g := NewUltimatum(alice, bob)
	for _, proposer := range []PlayerID{alice, bob} {
		_, err := g.SubmitProposal(proposer, 5)
		require.NoError(t, err)
		responder := bob
		if proposer == bob {
			responder = alice
		}
		_, err = g.SubmitResponse(responder, true)
		require.NoError(t, err)
	}
	require.True(t, g.IsFinished())

	_, err := g.SubmitProposal(alice, 5)
	assert.ErrorIs(t, err, ErrFinished)
	_, err = g.SubmitResponse(alice, true)
	assert.ErrorIs(t, err, ErrFinished)

	_, ok := g.Winner()
	assert.False(t, ok, "5+5 each is a draw")
}

func TestUltimatum_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := NewUltimatum(alice, bob)

		for !g.IsFinished() {
			split := rapid.IntRange(0, Pie).Draw(rt, "split")
			accept := rapid.Bool().Draw(rt, "accept")
			proposer, responder := g.Proposer(), g.Responder()
			before := g.Scores()

			p, err := g.SubmitProposal(proposer, split)
			require.NoError(rt, err)
			assert.Equal(rt, Pie, p.ProposerSplit+p.ResponderSplit)

			r, err := g.SubmitResponse(responder, accept)
			require.NoError(rt, err)

			after := g.Scores()
			if accept {
				assert.Equal(rt, before[proposer]+split, after[proposer])
				assert.Equal(rt, before[responder]+Pie-split, after[responder])
			} else {
				assert.Equal(rt, before, after)
			}
			assert.Equal(rt, r.Scores, after)
		}

		assert.Len(rt, g.Rounds(), UltimatumRounds)
		sum := g.Scores()[alice] + g.Scores()[bob]
		assert.LessOrEqual(rt, sum, Pie*UltimatumRounds)
	})
}
