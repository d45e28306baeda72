package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"game_theory_arena/internal/domain"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO matches (id, game_mode, player1_id, player2_id, player1_score, player2_score, winner_id, rounds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, m.ID, m.GameMode, m.Player1ID, m.Player2ID, m.Player1Score, m.Player2Score, m.WinnerID, m.Rounds).
		Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// per-user aggregates; score is taken from whichever seat the user held
const statsSelect = `
	COUNT(m.id)::int AS games_played,
	COUNT(m.id) FILTER (WHERE m.winner_id = u.id)::int AS wins,
	COUNT(m.id) FILTER (WHERE m.winner_id IS NOT NULL AND m.winner_id <> u.id)::int AS losses,
	COUNT(m.id) FILTER (WHERE m.winner_id IS NULL)::int AS draws,
	COALESCE(SUM(CASE WHEN m.player1_id = u.id THEN m.player1_score ELSE m.player2_score END), 0)::int AS total_score
`

// GetPlayerStats returns zeroes for a user with no finished matches.
func (r *MatchRepository) GetPlayerStats(ctx context.Context, userID string) (domain.PlayerStats, error) {
	var s domain.PlayerStats
	err := r.db.QueryRow(ctx, `
		SELECT `+statsSelect+`
		FROM users u
		LEFT JOIN matches m ON m.player1_id = u.id OR m.player2_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`, userID).Scan(&s.GamesPlayed, &s.Wins, &s.Losses, &s.Draws, &s.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerStats{}, ErrNotFound
	}
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return s, nil
}

// GetGlobalLeaderboard ranks every player with at least one match.
func (r *MatchRepository) GetGlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.username, `+statsSelect+`
		FROM users u
		JOIN matches m ON m.player1_id = u.id OR m.player2_id = u.id
		GROUP BY u.id, u.username
		ORDER BY wins DESC, total_score DESC, u.username ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username,
			&e.GamesPlayed, &e.Wins, &e.Losses, &e.Draws, &e.TotalScore); err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, rows.Err()
}
