package ws

import (
	"encoding/json"

	"game_theory_arena/internal/game"
)

// inbound
const (
	TypeJoinQueue         = "join-queue"
	TypeMakeChoice        = "make-choice"
	TypeProposeSplit      = "propose-split"
	TypeRespondToProposal = "respond-to-proposal"
	TypeRematch           = "rematch"
)

// outbound
const (
	TypeQueueJoined          = "queue-joined"
	TypeMatchFound           = "match-found"
	TypeChoiceReceived       = "choice-received"
	TypeRoundResult          = "round-result"
	TypeProposalSubmitted    = "proposal-submitted"
	TypeProposalReceived     = "proposal-received"
	TypeUltimatumRoundResult = "ultimatum-round-result"
	TypeUltimatumNextRound   = "ultimatum-next-round"
	TypeMatchResult          = "match-result"
	TypeRematchRequested     = "rematch-requested"
	TypeOpponentDisconnected = "opponent-disconnected"
	TypeError                = "error-msg"
)

// Envelope is what clients send: {"type": "...", "payload": ...}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type QueueJoinedPayload struct {
	GameMode game.Mode `json:"gameMode"`
}

type MatchFoundPayload struct {
	GameMode     game.Mode `json:"gameMode"`
	Round        int       `json:"round"`
	TotalRounds  int       `json:"totalRounds"`
	OpponentName string    `json:"opponentName"`
	Role         game.Role `json:"role,omitempty"`
}

type RoundResultPayload struct {
	Round          int         `json:"round"`
	MyChoice       game.Choice `json:"myChoice"`
	OpponentChoice game.Choice `json:"opponentChoice"`
	MyPayoff       int         `json:"myPayoff"`
	OpponentPayoff int         `json:"opponentPayoff"`
	MyScore        int         `json:"myScore"`
	OpponentScore  int         `json:"opponentScore"`
}

type ProposalReceivedPayload struct {
	Round          int `json:"round"`
	ProposerSplit  int `json:"proposerSplit"`
	ResponderSplit int `json:"responderSplit"`
}

// Role is the recipient's role in the round that just resolved.
type UltimatumRoundResultPayload struct {
	Round          int       `json:"round"`
	Role           game.Role `json:"role"`
	ProposerSplit  int       `json:"proposerSplit"`
	ResponderSplit int       `json:"responderSplit"`
	Accepted       bool      `json:"accepted"`
	MyPoints       int       `json:"myPoints"`
	OpponentPoints int       `json:"opponentPoints"`
	MyScore        int       `json:"myScore"`
	OpponentScore  int       `json:"opponentScore"`
}

type UltimatumNextRoundPayload struct {
	Round int       `json:"round"`
	Role  game.Role `json:"role"`
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

type MatchResultPayload struct {
	Outcome     Outcome               `json:"outcome"`
	FinalScores map[game.PlayerID]int `json:"finalScores"`
	History     any                   `json:"history"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func errorMessage(text string) Message {
	return Message{Type: TypeError, Payload: ErrorPayload{Message: text}}
}
