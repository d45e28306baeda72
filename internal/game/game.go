package game

import (
	"errors"
	"fmt"
)

type Mode string

const (
	ModePrisonersDilemma Mode = "prisoners_dilemma"
	ModeUltimatum        Mode = "ultimatum"
)

// ParseMode maps a client supplied mode onto a known one.
// unknown values fall back to prisoners dilemma instead of failing
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeUltimatum:
		return ModeUltimatum
	default:
		return ModePrisonersDilemma
	}
}

// PlayerID is the stable user identity (users.id).
type PlayerID string

type Role string

const (
	RoleProposer  Role = "proposer"
	RoleResponder Role = "responder"
)

var (
	ErrFinished         = errors.New("game is finished")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrInvalidChoice    = errors.New("choice must be cooperate or defect")
	ErrAlreadySubmitted = errors.New("choice already submitted this round")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrProposalPending  = errors.New("proposal already pending")
	ErrNoProposal       = errors.New("no proposal to respond to")
	ErrInvalidSplit     = errors.New("split must be an integer between 0 and 10")
)

// Engine is the contract shared by every game variant. Engines are pure
// state machines: no I/O, no locking, the caller serializes access.
type Engine interface {
	Mode() Mode
	Players() [2]PlayerID

	Round() int
	TotalRounds() int

	Scores() map[PlayerID]int
	IsFinished() bool
	// Winner returns the leading player, ok is false on an exact tie.
	Winner() (PlayerID, bool)
	// History returns the resolved rounds in order, typed per variant.
	History() any
}

// RoleAssigner is implemented by variants where players hold asymmetric roles.
type RoleAssigner interface {
	RoleOf(id PlayerID) Role
}

const DefaultPDRounds = 5

type Factory struct {
	PDRounds int
}

func NewFactory(pdRounds int) *Factory {
	if pdRounds <= 0 {
		pdRounds = DefaultPDRounds
	}
	return &Factory{PDRounds: pdRounds}
}

// CreateGame builds a fresh engine for mode. players[0] is player1 (the waiter),
// players[1] is player2 (the arriver).
func (f *Factory) CreateGame(mode Mode, players [2]PlayerID) (Engine, error) {
	if players[0] == "" || players[1] == "" {
		return nil, fmt.Errorf("create %s: %w", mode, ErrUnknownPlayer)
	}
	if players[0] == players[1] {
		return nil, fmt.Errorf("create %s: player %q cannot play against itself", mode, players[0])
	}

	switch mode {
	case ModePrisonersDilemma:
		return NewPrisonersDilemma(players[0], players[1], f.PDRounds), nil
	case ModeUltimatum:
		return NewUltimatum(players[0], players[1]), nil
	default:
		return nil, fmt.Errorf("unknown game mode %q", mode)
	}
}

func copyScores(scores map[PlayerID]int) map[PlayerID]int {
	out := make(map[PlayerID]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

// ties are reported as ok=false, player1 is not favoured
func leader(players [2]PlayerID, scores map[PlayerID]int) (PlayerID, bool) {
	s1, s2 := scores[players[0]], scores[players[1]]
	switch {
	case s1 > s2:
		return players[0], true
	case s2 > s1:
		return players[1], true
	default:
		return "", false
	}
}
