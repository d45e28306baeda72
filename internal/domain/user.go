package domain

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// aggregated over finished matches
type PlayerStats struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Draws       int `json:"draws"`
	TotalScore  int `json:"total_score"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	PlayerStats
}

type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// Friend is one side of a friendship as seen by the owner of the list.
// Incoming is true for a pending request the owner has not accepted yet.
type Friend struct {
	UserID    string       `json:"user_id"`
	Username  string       `json:"username"`
	Status    FriendStatus `json:"status"`
	Incoming  bool         `json:"incoming"`
	CreatedAt time.Time    `json:"created_at"`
}
