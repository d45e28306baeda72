package game

type Choice string

const (
	Cooperate Choice = "cooperate"
	Defect    Choice = "defect"
)

func (c Choice) Valid() bool {
	return c == Cooperate || c == Defect
}

// Payoff returns the points for a and b given their choices.
//
//	            cooperate   defect
//	cooperate     3 / 3     0 / 5
//	defect        5 / 0     1 / 1
func Payoff(a, b Choice) (int, int) {
	switch {
	case a == Cooperate && b == Cooperate:
		return 3, 3
	case a == Cooperate && b == Defect:
		return 0, 5
	case a == Defect && b == Cooperate:
		return 5, 0
	default:
		return 1, 1
	}
}

// PDRound is one resolved round. Never mutated after it is appended.
type PDRound struct {
	Round   int                 `json:"round"`
	Choices map[PlayerID]Choice `json:"choices"`
	Payoffs map[PlayerID]int    `json:"payoffs"`
	Scores  map[PlayerID]int    `json:"scores"`
}

type PrisonersDilemma struct {
	players     [2]PlayerID
	totalRounds int
	round       int
	scores      map[PlayerID]int
	pending     map[PlayerID]Choice
	history     []PDRound
	finished    bool
}

func NewPrisonersDilemma(p1, p2 PlayerID, totalRounds int) *PrisonersDilemma {
	if totalRounds <= 0 {
		totalRounds = DefaultPDRounds
	}
	return &PrisonersDilemma{
		players:     [2]PlayerID{p1, p2},
		totalRounds: totalRounds,
		round:       1,
		scores:      map[PlayerID]int{p1: 0, p2: 0},
		pending:     make(map[PlayerID]Choice, 2),
	}
}

func (g *PrisonersDilemma) Mode() Mode           { return ModePrisonersDilemma }
func (g *PrisonersDilemma) Players() [2]PlayerID { return g.players }
func (g *PrisonersDilemma) Round() int           { return g.round }
func (g *PrisonersDilemma) TotalRounds() int     { return g.totalRounds }
func (g *PrisonersDilemma) IsFinished() bool     { return g.finished }

func (g *PrisonersDilemma) Scores() map[PlayerID]int {
	return copyScores(g.scores)
}

func (g *PrisonersDilemma) Winner() (PlayerID, bool) {
	return leader(g.players, g.scores)
}

func (g *PrisonersDilemma) History() any {
	return g.Rounds()
}

// Rounds is the typed form of History.
func (g *PrisonersDilemma) Rounds() []PDRound {
	out := make([]PDRound, len(g.history))
	copy(out, g.history)
	return out
}

// HasPending reports whether id already locked in a choice this round.
func (g *PrisonersDilemma) HasPending(id PlayerID) bool {
	_, ok := g.pending[id]
	return ok
}

// SubmitChoice records a choice for the current round.
// A nil round with a nil error means the opponent has not chosen yet.
// Rejected submissions leave the state untouched.
func (g *PrisonersDilemma) SubmitChoice(id PlayerID, choice Choice) (*PDRound, error) {
	if g.finished {
		return nil, ErrFinished
	}
	if id != g.players[0] && id != g.players[1] {
		return nil, ErrUnknownPlayer
	}
	if !choice.Valid() {
		return nil, ErrInvalidChoice
	}
	if g.HasPending(id) {
		return nil, ErrAlreadySubmitted
	}

	g.pending[id] = choice
	if len(g.pending) < 2 {
		return nil, nil
	}

	res := g.resolve()
	return &res, nil
}

func (g *PrisonersDilemma) resolve() PDRound {
	p1, p2 := g.players[0], g.players[1]
	c1, c2 := g.pending[p1], g.pending[p2]
	pay1, pay2 := Payoff(c1, c2)

	g.scores[p1] += pay1
	g.scores[p2] += pay2

	res := PDRound{
		Round:   g.round,
		Choices: map[PlayerID]Choice{p1: c1, p2: c2},
		Payoffs: map[PlayerID]int{p1: pay1, p2: pay2},
		Scores:  copyScores(g.scores),
	}
	g.history = append(g.history, res)

	g.pending = make(map[PlayerID]Choice, 2)
	g.round++
	if g.round > g.totalRounds {
		g.finished = true
	}
	return res
}
