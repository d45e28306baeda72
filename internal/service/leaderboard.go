package service

import (
	"context"
	"fmt"
	"sort"

	"game_theory_arena/internal/domain"
)

const GlobalLeaderboardSize = 50

type StatsStore interface {
	GetPlayerStats(ctx context.Context, userID string) (domain.PlayerStats, error)
	GetGlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

type FriendStore interface {
	AcceptedFriends(ctx context.Context, userID string) ([]domain.Friend, error)
}

type LeaderboardService struct {
	stats   StatsStore
	friends FriendStore
	users   UserLookup
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

func NewLeaderboardService(stats StatsStore, friends FriendStore, users UserLookup) *LeaderboardService {
	return &LeaderboardService{stats: stats, friends: friends, users: users}
}

// Friends ranks the user and their accepted friends by wins, then total score.
func (s *LeaderboardService) Friends(ctx context.Context, userID string) ([]domain.LeaderboardEntry, error) {
	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	friends, err := s.friends.AcceptedFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}

	people := make([]domain.LeaderboardEntry, 0, len(friends)+1)
	people = append(people, domain.LeaderboardEntry{UserID: me.ID, Username: me.Username})
	for _, f := range friends {
		people = append(people, domain.LeaderboardEntry{UserID: f.UserID, Username: f.Username})
	}

	for i := range people {
		st, err := s.stats.GetPlayerStats(ctx, people[i].UserID)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", people[i].UserID, err)
		}
		people[i].PlayerStats = st
	}

	SortLeaderboard(people)
	return people, nil
}

func (s *LeaderboardService) Global(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.stats.GetGlobalLeaderboard(ctx, GlobalLeaderboardSize)
}

// SortLeaderboard orders by wins, then total score, then username, and assigns ranks from 1.
func SortLeaderboard(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.Username < b.Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
