package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/game"
	"game_theory_arena/internal/metrics"
)

type fakePeer struct {
	conn string
	user game.PlayerID
	name string
	dead bool
	msgs []Message
}

func newPeer(conn, user, name string) *fakePeer {
	return &fakePeer{conn: conn, user: game.PlayerID(user), name: name}
}

func (p *fakePeer) ConnID() string        { return p.conn }
func (p *fakePeer) UserID() game.PlayerID { return p.user }
func (p *fakePeer) Name() string          { return p.name }

func (p *fakePeer) Deliver(msg Message) bool {
	if p.dead {
		return false
	}
	p.msgs = append(p.msgs, msg)
	return true
}

func (p *fakePeer) types() []string {
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Type)
	}
	return out
}

func (p *fakePeer) last() Message {
	if len(p.msgs) == 0 {
		return Message{}
	}
	return p.msgs[len(p.msgs)-1]
}

func (p *fakePeer) ofType(t string) []Message {
	var out []Message
	for _, m := range p.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (p *fakePeer) reset() { p.msgs = nil }

type fakeSink struct {
	mu      sync.Mutex
	matches []domain.Match
	err     error
}

func (s *fakeSink) RecordMatch(_ context.Context, m domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, m)
	return s.err
}

func (s *fakeSink) recorded() []domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Match, len(s.matches))
	copy(out, s.matches)
	return out
}

var errSinkDown = errors.New("sink down")

func newTestHub(t *testing.T, sink ResultSink) (*Hub, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(nil)
	return NewHub(game.NewFactory(game.DefaultPDRounds), sink, m, nil), m
}

// send runs one inbound event on the calling goroutine.
func send(t *testing.T, h *Hub, p Peer, msgType string, payload any) {
	t.Helper()
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		env.Payload = raw
	}
	h.handle(event{kind: eventInbound, peer: p, env: env})
}

func disconnect(h *Hub, p Peer) {
	h.handle(event{kind: eventDisconnect, peer: p})
}

// pair queues a then b for mode and clears their inboxes.
func pair(t *testing.T, h *Hub, a, b *fakePeer, mode game.Mode) {
	t.Helper()
	send(t, h, a, TypeJoinQueue, string(mode))
	send(t, h, b, TypeJoinQueue, string(mode))
	require.Equal(t, TypeMatchFound, a.last().Type)
	require.Equal(t, TypeMatchFound, b.last().Type)
	a.reset()
	b.reset()
}
