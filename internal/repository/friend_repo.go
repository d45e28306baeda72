package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"game_theory_arena/internal/domain"
)

// FriendRepository stores friendships as directed rows. An accepted
// friendship has a row in each direction; a pending request has only
// requester -> target.
type FriendRepository struct {
	db *pgxpool.Pool
}

func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// Exists reports whether any row links a and b, in either direction.
func (r *FriendRepository) Exists(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friends
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)
	`, a, b).Scan(&exists)
	return exists, err
}

func (r *FriendRepository) Request(ctx context.Context, fromID, toID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO friends (user_id, friend_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`, fromID, toID)
	return err
}

// Accept flips the pending requester -> accepter row and adds the reverse
// row. Returns ErrNotFound when there is no pending request.
func (r *FriendRepository) Accept(ctx context.Context, requesterID, accepterID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE friends SET status = 'accepted'
		WHERE user_id = $1 AND friend_id = $2 AND status = 'pending'
	`, requesterID, accepterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO friends (user_id, friend_id, status)
		VALUES ($1, $2, 'accepted')
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status = 'accepted'
	`, accepterID, requesterID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// List returns accepted friends, outgoing pending requests and incoming
// pending requests for userID.
func (r *FriendRepository) List(ctx context.Context, userID string) ([]domain.Friend, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.username, f.status, FALSE AS incoming, f.created_at
		FROM friends f JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		UNION ALL
		SELECT u.id, u.username, f.status, TRUE AS incoming, f.created_at
		FROM friends f JOIN users u ON u.id = f.user_id
		WHERE f.friend_id = $1 AND f.status = 'pending'
		ORDER BY 2
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFriends(rows)
}

func scanFriends(rows pgx.Rows) ([]domain.Friend, error) {
	var out []domain.Friend
	for rows.Next() {
		var f domain.Friend
		var status string
		if err := rows.Scan(&f.UserID, &f.Username, &status, &f.Incoming, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Status = domain.FriendStatus(status)
		out = append(out, f)
	}
	return out, rows.Err()
}
