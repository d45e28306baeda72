package domain

import "time"

// Match is the persisted outcome of one finished session.
// WinnerID is nil for a draw.
type Match struct {
	ID           string    `db:"id" json:"id"`
	GameMode     string    `db:"game_mode" json:"game_mode"`
	Player1ID    string    `db:"player1_id" json:"player1_id"`
	Player2ID    string    `db:"player2_id" json:"player2_id"`
	Player1Score int       `db:"player1_score" json:"player1_score"`
	Player2Score int       `db:"player2_score" json:"player2_score"`
	WinnerID     *string   `db:"winner_id" json:"winner_id,omitempty"`
	Rounds       int       `db:"rounds" json:"rounds"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (m Match) IsDraw() bool {
	return m.WinnerID == nil
}
