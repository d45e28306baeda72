package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/game"
	"game_theory_arena/internal/metrics"
)

var (
	errAlreadyInMatch = errors.New("already in a match")
	errUnknownType    = errors.New("unknown message type")
)

// ResultSink receives every finished match. Calls happen off the hub loop.
type ResultSink interface {
	RecordMatch(ctx context.Context, m domain.Match) error
}

type eventKind int

const (
	eventInbound eventKind = iota
	eventDisconnect
	eventStats
)

type event struct {
	kind  eventKind
	peer  Peer
	env   Envelope
	reply chan HubStats
}

type HubStats struct {
	Rooms            int `json:"rooms"`
	Waiting          int `json:"waiting"`
	BoundConnections int `json:"bound_connections"`
}

// Hub owns the matchmaking queue and the room registry. Every mutation
// happens on the goroutine running Run, one event at a time.
type Hub struct {
	queue  *Queue
	rooms  map[string]*Room
	byConn map[string]string

	factory *game.Factory
	sink    ResultSink
	metrics *metrics.Metrics
	log     *zap.Logger

	events chan event
	done   chan struct{}
}

func NewHub(factory *game.Factory, sink ResultSink, m *metrics.Metrics, log *zap.Logger) *Hub {
	if factory == nil {
		factory = game.NewFactory(game.DefaultPDRounds)
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		queue:   NewQueue(),
		rooms:   make(map[string]*Room),
		byConn:  make(map[string]string),
		factory: factory,
		sink:    sink,
		metrics: m,
		log:     log.Named("hub"),
		events:  make(chan event, 256),
		done:    make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub stopped", zap.Int("rooms", len(h.rooms)))
			return
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

func (h *Hub) post(ev event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Inbound queues a client message for the hub loop.
func (h *Hub) Inbound(p Peer, env Envelope) {
	h.post(event{kind: eventInbound, peer: p, env: env})
}

// Disconnected must be called exactly once per peer when its connection closes.
func (h *Hub) Disconnected(p Peer) {
	h.post(event{kind: eventDisconnect, peer: p})
}

func (h *Hub) Stats(ctx context.Context) (HubStats, error) {
	reply := make(chan HubStats, 1)
	if !h.post(event{kind: eventStats, reply: reply}) {
		return HubStats{}, errors.New("hub stopped")
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return HubStats{}, ctx.Err()
	}
}

func (h *Hub) handle(ev event) {
	switch ev.kind {
	case eventInbound:
		h.route(ev.peer, ev.env)
	case eventDisconnect:
		h.leave(ev.peer)
	case eventStats:
		ev.reply <- h.snapshot()
	}
}

func (h *Hub) snapshot() HubStats {
	return HubStats{
		Rooms:            len(h.rooms),
		Waiting:          h.queue.Len(),
		BoundConnections: len(h.byConn),
	}
}

func (h *Hub) route(p Peer, env Envelope) {
	switch env.Type {
	case TypeJoinQueue:
		var mode string
		// a missing or non-string payload means the default mode
		_ = json.Unmarshal(env.Payload, &mode)
		h.join(p, game.ParseMode(mode))
	case TypeMakeChoice, TypeProposeSplit, TypeRespondToProposal, TypeRematch:
		h.dispatch(p, env)
	default:
		h.metrics.InvalidActions.WithLabelValues("unknown").Inc()
		p.Deliver(errorMessage(errUnknownType.Error()))
	}
}

func (h *Hub) join(p Peer, mode game.Mode) {
	if room, ok := h.roomOf(p); ok {
		if room.InProgress() {
			p.Deliver(errorMessage(errAlreadyInMatch.Error()))
			return
		}
		// leaving a finished room for the queue gives up the rematch
		h.retire(room, p)
	}

	waiter, paired := h.queue.EnqueueOrPair(mode, p)
	if !paired {
		h.syncWaiting()
		p.Deliver(Message{Type: TypeQueueJoined, Payload: QueueJoinedPayload{GameMode: mode}})
		h.log.Debug("queued", zap.String("user", string(p.UserID())), zap.String("mode", string(mode)))
		return
	}

	// neither side may linger in another mode's slot once seated
	h.queue.Remove(waiter.ConnID())
	h.queue.Remove(p.ConnID())
	h.syncWaiting()

	engine, err := h.factory.CreateGame(mode, [2]game.PlayerID{waiter.UserID(), p.UserID()})
	if err != nil {
		h.log.Error("create game", zap.String("mode", string(mode)), zap.Error(err))
		waiter.Deliver(errorMessage("could not start match"))
		p.Deliver(errorMessage("could not start match"))
		return
	}

	room := newRoom(uuid.NewString(), engine, waiter, p, h)
	h.rooms[room.ID] = room
	h.byConn[waiter.ConnID()] = room.ID
	h.byConn[p.ConnID()] = room.ID
	h.metrics.ActiveRooms.Set(float64(len(h.rooms)))

	room.start()
}

func (h *Hub) dispatch(p Peer, env Envelope) {
	room, ok := h.roomOf(p)
	if !ok {
		h.log.Debug("stale routing ignored",
			zap.String("conn", p.ConnID()),
			zap.String("type", env.Type),
		)
		return
	}

	switch env.Type {
	case TypeMakeChoice:
		room.makeChoice(p, env.Payload)
	case TypeProposeSplit:
		room.proposeSplit(p, env.Payload)
	case TypeRespondToProposal:
		room.respond(p, env.Payload)
	case TypeRematch:
		room.requestRematch(p)
	}
}

func (h *Hub) leave(p Peer) {
	if modes := h.queue.Remove(p.ConnID()); len(modes) > 0 {
		h.syncWaiting()
	}
	if room, ok := h.roomOf(p); ok {
		if room.InProgress() {
			h.metrics.RoomsAbandoned.Inc()
		}
		h.retire(room, p)
	}
}

// retire removes room and its connection bindings, the other seat is told once.
func (h *Hub) retire(room *Room, leaver Peer) {
	delete(h.rooms, room.ID)
	for _, peer := range room.Peers() {
		delete(h.byConn, peer.ConnID())
	}
	h.metrics.ActiveRooms.Set(float64(len(h.rooms)))
	room.abandon(leaver)
}

func (h *Hub) roomOf(p Peer) (*Room, bool) {
	id, ok := h.byConn[p.ConnID()]
	if !ok {
		return nil, false
	}
	room, ok := h.rooms[id]
	if !ok {
		delete(h.byConn, p.ConnID())
		return nil, false
	}
	return room, true
}

func (h *Hub) syncWaiting() {
	for _, mode := range []game.Mode{game.ModePrisonersDilemma, game.ModeUltimatum} {
		n := 0.0
		if _, ok := h.queue.Waiting(mode); ok {
			n = 1
		}
		h.metrics.Waiting.WithLabelValues(string(mode)).Set(n)
	}
}
