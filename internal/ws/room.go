package ws

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/game"
)

const recordTimeout = 5 * time.Second

var (
	errMatchOver       = errors.New("match is over")
	errWrongMode       = errors.New("action not available in this game mode")
	errMatchInProgress = errors.New("match still in progress")
	errBadResponse     = errors.New("response must be true or false")
)

// Room binds one engine to two peers. All methods run on the hub loop.
type Room struct {
	ID   string
	Mode game.Mode

	// nil once the match finished, until a rematch installs a new one
	engine  game.Engine
	players [2]game.PlayerID
	seats   map[game.PlayerID]Peer
	rematch map[game.PlayerID]struct{}

	hub *Hub
	log *zap.Logger
}

func newRoom(id string, engine game.Engine, p1, p2 Peer, hub *Hub) *Room {
	return &Room{
		ID:      id,
		Mode:    engine.Mode(),
		engine:  engine,
		players: [2]game.PlayerID{p1.UserID(), p2.UserID()},
		seats: map[game.PlayerID]Peer{
			p1.UserID(): p1,
			p2.UserID(): p2,
		},
		rematch: make(map[game.PlayerID]struct{}, 2),
		hub:     hub,
		log:     hub.log.With(zap.String("room", id), zap.String("mode", string(engine.Mode()))),
	}
}

func (r *Room) InProgress() bool {
	return r.engine != nil
}

func (r *Room) Peers() []Peer {
	return []Peer{r.seats[r.players[0]], r.seats[r.players[1]]}
}

func (r *Room) opponent(id game.PlayerID) game.PlayerID {
	if id == r.players[0] {
		return r.players[1]
	}
	return r.players[0]
}

// sends match-found to both seats, round 1 of the current engine
func (r *Room) start() {
	ra, hasRoles := r.engine.(game.RoleAssigner)
	for _, id := range r.players {
		payload := MatchFoundPayload{
			GameMode:     r.Mode,
			Round:        r.engine.Round(),
			TotalRounds:  r.engine.TotalRounds(),
			OpponentName: r.seats[r.opponent(id)].Name(),
		}
		if hasRoles {
			payload.Role = ra.RoleOf(id)
		}
		r.seats[id].Deliver(Message{Type: TypeMatchFound, Payload: payload})
	}
	r.hub.metrics.MatchesStarted.WithLabelValues(string(r.Mode)).Inc()
	r.log.Info("match started",
		zap.String("player1", string(r.players[0])),
		zap.String("player2", string(r.players[1])),
	)
}

func (r *Room) reject(p Peer, msgType string, err error) {
	r.hub.metrics.InvalidActions.WithLabelValues(msgType).Inc()
	r.log.Debug("action rejected",
		zap.String("type", msgType),
		zap.String("user", string(p.UserID())),
		zap.Error(err),
	)
	p.Deliver(errorMessage(err.Error()))
}

func (r *Room) makeChoice(p Peer, raw json.RawMessage) {
	if r.engine == nil {
		r.reject(p, TypeMakeChoice, errMatchOver)
		return
	}
	pd, ok := r.engine.(*game.PrisonersDilemma)
	if !ok {
		r.reject(p, TypeMakeChoice, errWrongMode)
		return
	}

	var choice string
	if err := json.Unmarshal(raw, &choice); err != nil {
		r.reject(p, TypeMakeChoice, game.ErrInvalidChoice)
		return
	}

	res, err := pd.SubmitChoice(p.UserID(), game.Choice(choice))
	if err != nil {
		r.reject(p, TypeMakeChoice, err)
		return
	}
	if res == nil {
		p.Deliver(Message{Type: TypeChoiceReceived})
		return
	}

	for _, id := range r.players {
		opp := r.opponent(id)
		r.seats[id].Deliver(Message{Type: TypeRoundResult, Payload: RoundResultPayload{
			Round:          res.Round,
			MyChoice:       res.Choices[id],
			OpponentChoice: res.Choices[opp],
			MyPayoff:       res.Payoffs[id],
			OpponentPayoff: res.Payoffs[opp],
			MyScore:        res.Scores[id],
			OpponentScore:  res.Scores[opp],
		}})
	}

	if pd.IsFinished() {
		r.finish()
	}
}

// splitFromPayload returns -1 for anything that is not a whole JSON number,
// which the engine rejects after its turn checks.
func splitFromPayload(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return -1
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}

func (r *Room) proposeSplit(p Peer, raw json.RawMessage) {
	if r.engine == nil {
		r.reject(p, TypeProposeSplit, errMatchOver)
		return
	}
	ug, ok := r.engine.(*game.Ultimatum)
	if !ok {
		r.reject(p, TypeProposeSplit, errWrongMode)
		return
	}

	proposal, err := ug.SubmitProposal(p.UserID(), splitFromPayload(raw))
	if err != nil {
		r.reject(p, TypeProposeSplit, err)
		return
	}

	p.Deliver(Message{Type: TypeProposalSubmitted})
	r.seats[proposal.ResponderID].Deliver(Message{Type: TypeProposalReceived, Payload: ProposalReceivedPayload{
		Round:          proposal.Round,
		ProposerSplit:  proposal.ProposerSplit,
		ResponderSplit: proposal.ResponderSplit,
	}})
}

func (r *Room) respond(p Peer, raw json.RawMessage) {
	if r.engine == nil {
		r.reject(p, TypeRespondToProposal, errMatchOver)
		return
	}
	ug, ok := r.engine.(*game.Ultimatum)
	if !ok {
		r.reject(p, TypeRespondToProposal, errWrongMode)
		return
	}

	var accepted bool
	if err := json.Unmarshal(raw, &accepted); err != nil {
		r.reject(p, TypeRespondToProposal, errBadResponse)
		return
	}

	res, err := ug.SubmitResponse(p.UserID(), accepted)
	if err != nil {
		r.reject(p, TypeRespondToProposal, err)
		return
	}

	for _, id := range r.players {
		payload := UltimatumRoundResultPayload{
			Round:          res.Round,
			Role:           game.RoleResponder,
			ProposerSplit:  res.ProposerSplit,
			ResponderSplit: res.ResponderSplit,
			Accepted:       res.Accepted,
			MyPoints:       res.ResponderPoints,
			OpponentPoints: res.ProposerPoints,
			MyScore:        res.Scores[id],
			OpponentScore:  res.Scores[r.opponent(id)],
		}
		if id == res.ProposerID {
			payload.Role = game.RoleProposer
			payload.MyPoints, payload.OpponentPoints = res.ProposerPoints, res.ResponderPoints
		}
		r.seats[id].Deliver(Message{Type: TypeUltimatumRoundResult, Payload: payload})
	}

	if ug.IsFinished() {
		r.finish()
		return
	}

	for _, id := range r.players {
		r.seats[id].Deliver(Message{Type: TypeUltimatumNextRound, Payload: UltimatumNextRoundPayload{
			Round: ug.Round(),
			Role:  ug.RoleOf(id),
		}})
	}
}

// finish hands the result to the sink, broadcasts match-result and drops the engine.
func (r *Room) finish() {
	winner, decisive := r.engine.Winner()
	scores := r.engine.Scores()
	history := r.engine.History()

	m := domain.Match{
		ID:           uuid.NewString(),
		GameMode:     string(r.Mode),
		Player1ID:    string(r.players[0]),
		Player2ID:    string(r.players[1]),
		Player1Score: scores[r.players[0]],
		Player2Score: scores[r.players[1]],
		Rounds:       r.engine.TotalRounds(),
		CreatedAt:    time.Now().UTC(),
	}
	if decisive {
		w := string(winner)
		m.WinnerID = &w
	}
	r.record(m)

	for _, id := range r.players {
		outcome := OutcomeDraw
		if decisive {
			outcome = OutcomeLoss
			if id == winner {
				outcome = OutcomeWin
			}
		}
		r.seats[id].Deliver(Message{Type: TypeMatchResult, Payload: MatchResultPayload{
			Outcome:     outcome,
			FinalScores: scores,
			History:     history,
		}})
	}

	label := "decisive"
	if !decisive {
		label = "draw"
	}
	r.hub.metrics.MatchesFinished.WithLabelValues(string(r.Mode), label).Inc()
	r.log.Info("match finished",
		zap.String("match", m.ID),
		zap.Int("score1", m.Player1Score),
		zap.Int("score2", m.Player2Score),
		zap.Bool("draw", !decisive),
	)

	r.engine = nil
	r.rematch = make(map[game.PlayerID]struct{}, 2)
}

// record runs the sink off the hub loop. Failures are logged and counted, never retried.
func (r *Room) record(m domain.Match) {
	sink := r.hub.sink
	if sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := sink.RecordMatch(ctx, m); err != nil {
			r.hub.metrics.PersistFailures.Inc()
			r.log.Error("failed to record match", zap.String("match", m.ID), zap.Error(err))
		}
	}()
}

func (r *Room) requestRematch(p Peer) {
	if r.engine != nil {
		r.reject(p, TypeRematch, errMatchInProgress)
		return
	}

	id := p.UserID()
	if _, dup := r.rematch[id]; dup {
		return
	}
	r.rematch[id] = struct{}{}
	r.seats[r.opponent(id)].Deliver(Message{Type: TypeRematchRequested})

	if len(r.rematch) < len(r.players) {
		return
	}

	engine, err := r.hub.factory.CreateGame(r.Mode, r.players)
	if err != nil {
		r.log.Error("rematch: create game", zap.Error(err))
		return
	}
	r.engine = engine
	r.rematch = make(map[game.PlayerID]struct{}, 2)
	r.hub.metrics.Rematches.Inc()
	r.start()
}

// abandon notifies everyone except leaver that the room is gone.
func (r *Room) abandon(leaver Peer) {
	for _, p := range r.Peers() {
		if p.ConnID() == leaver.ConnID() {
			continue
		}
		p.Deliver(Message{Type: TypeOpponentDisconnected})
	}
	r.engine = nil
	r.log.Info("room abandoned", zap.String("leaver", string(leaver.UserID())))
}
