package game

const (
	// Pie is the number of points split between proposer and responder each round.
	Pie             = 10
	UltimatumRounds = 2
)

type Proposal struct {
	Round          int      `json:"round"`
	ProposerID     PlayerID `json:"proposerId"`
	ResponderID    PlayerID `json:"responderId"`
	ProposerSplit  int      `json:"proposerSplit"`
	ResponderSplit int      `json:"responderSplit"`
}

type UltimatumRound struct {
	Round           int              `json:"round"`
	ProposerID      PlayerID         `json:"proposerId"`
	ResponderID     PlayerID         `json:"responderId"`
	ProposerSplit   int              `json:"proposerSplit"`
	ResponderSplit  int              `json:"responderSplit"`
	Accepted        bool             `json:"accepted"`
	ProposerPoints  int              `json:"proposerPoints"`
	ResponderPoints int              `json:"responderPoints"`
	Scores          map[PlayerID]int `json:"scores"`
}

// Ultimatum runs two rounds; player1 proposes first, then the roles swap.
//
// States: awaiting-proposal (pending == nil), awaiting-response (pending != nil),
// finished.
type Ultimatum struct {
	players   [2]PlayerID
	round     int
	proposer  PlayerID
	responder PlayerID
	pending   *Proposal
	scores    map[PlayerID]int
	history   []UltimatumRound
	finished  bool
}

func NewUltimatum(p1, p2 PlayerID) *Ultimatum {
	return &Ultimatum{
		players:   [2]PlayerID{p1, p2},
		round:     1,
		proposer:  p1,
		responder: p2,
		scores:    map[PlayerID]int{p1: 0, p2: 0},
	}
}

func (g *Ultimatum) Mode() Mode           { return ModeUltimatum }
func (g *Ultimatum) Players() [2]PlayerID { return g.players }
func (g *Ultimatum) Round() int           { return g.round }
func (g *Ultimatum) TotalRounds() int     { return UltimatumRounds }
func (g *Ultimatum) IsFinished() bool     { return g.finished }
func (g *Ultimatum) Proposer() PlayerID   { return g.proposer }
func (g *Ultimatum) Responder() PlayerID  { return g.responder }

func (g *Ultimatum) Scores() map[PlayerID]int {
	return copyScores(g.scores)
}

// Winner compares total points over both rounds, not per-round outcomes.
func (g *Ultimatum) Winner() (PlayerID, bool) {
	return leader(g.players, g.scores)
}

func (g *Ultimatum) History() any {
	return g.Rounds()
}

func (g *Ultimatum) Rounds() []UltimatumRound {
	out := make([]UltimatumRound, len(g.history))
	copy(out, g.history)
	return out
}

// Pending returns a copy of the proposal awaiting a response, or nil.
func (g *Ultimatum) Pending() *Proposal {
	if g.pending == nil {
		return nil
	}
	p := *g.pending
	return &p
}

func (g *Ultimatum) RoleOf(id PlayerID) Role {
	if id == g.proposer {
		return RoleProposer
	}
	return RoleResponder
}

// SubmitProposal stores the current proposer's split (the points they keep).
func (g *Ultimatum) SubmitProposal(id PlayerID, proposerSplit int) (*Proposal, error) {
	if g.finished {
		return nil, ErrFinished
	}
	if id != g.players[0] && id != g.players[1] {
		return nil, ErrUnknownPlayer
	}
	if id != g.proposer {
		return nil, ErrNotYourTurn
	}
	if g.pending != nil {
		return nil, ErrProposalPending
	}
	if proposerSplit < 0 || proposerSplit > Pie {
		return nil, ErrInvalidSplit
	}

	g.pending = &Proposal{
		Round:          g.round,
		ProposerID:     g.proposer,
		ResponderID:    g.responder,
		ProposerSplit:  proposerSplit,
		ResponderSplit: Pie - proposerSplit,
	}
	return g.Pending(), nil
}

// SubmitResponse resolves the pending proposal. Rejection pays nothing to either side.
func (g *Ultimatum) SubmitResponse(id PlayerID, accepted bool) (*UltimatumRound, error) {
	if g.finished {
		return nil, ErrFinished
	}
	if id != g.players[0] && id != g.players[1] {
		return nil, ErrUnknownPlayer
	}
	if id != g.responder {
		return nil, ErrNotYourTurn
	}
	if g.pending == nil {
		return nil, ErrNoProposal
	}

	p := g.pending
	var proposerPoints, responderPoints int
	if accepted {
		proposerPoints = p.ProposerSplit
		responderPoints = p.ResponderSplit
	}
	g.scores[g.proposer] += proposerPoints
	g.scores[g.responder] += responderPoints

	res := UltimatumRound{
		Round:           g.round,
		ProposerID:      g.proposer,
		ResponderID:     g.responder,
		ProposerSplit:   p.ProposerSplit,
		ResponderSplit:  p.ResponderSplit,
		Accepted:        accepted,
		ProposerPoints:  proposerPoints,
		ResponderPoints: responderPoints,
		Scores:          copyScores(g.scores),
	}
	g.history = append(g.history, res)
	g.pending = nil

	if g.round >= UltimatumRounds {
		g.finished = true
	} else {
		g.round++
		g.proposer, g.responder = g.responder, g.proposer
	}
	return &res, nil
}
