package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/repository"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrSelfFriend    = errors.New("you can't add yourself")
	ErrRequestExists = errors.New("friend request already exists")
	ErrNoRequest     = errors.New("no pending friend request")
)

type FriendRepo interface {
	Exists(ctx context.Context, a, b string) (bool, error)
	Request(ctx context.Context, fromID, toID string) error
	Accept(ctx context.Context, requesterID, accepterID string) error
	List(ctx context.Context, userID string) ([]domain.Friend, error)
}

type UsernameLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type FriendService struct {
	friends FriendRepo
	users   UsernameLookup
}

func NewFriendService(friends FriendRepo, users UsernameLookup) *FriendService {
	return &FriendService{friends: friends, users: users}
}

// Add sends a pending request from userID to the user called username.
func (s *FriendService) Add(ctx context.Context, userID, username string) (*domain.User, error) {
	target, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup %q: %w", username, err)
	}
	if target.ID == userID {
		return nil, ErrSelfFriend
	}

	exists, err := s.friends.Exists(ctx, userID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if exists {
		return nil, ErrRequestExists
	}

	if err := s.friends.Request(ctx, userID, target.ID); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return target, nil
}

// Accept confirms the pending request requesterID sent to userID.
func (s *FriendService) Accept(ctx context.Context, userID, requesterID string) error {
	if err := s.friends.Accept(ctx, requesterID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoRequest
		}
		return fmt.Errorf("accept request: %w", err)
	}
	return nil
}

func (s *FriendService) List(ctx context.Context, userID string) ([]domain.Friend, error) {
	return s.friends.List(ctx, userID)
}

// AcceptedFriends filters List down to confirmed friendships.
func (s *FriendService) AcceptedFriends(ctx context.Context, userID string) ([]domain.Friend, error) {
	all, err := s.friends.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, f := range all {
		if f.Status == domain.FriendAccepted {
			out = append(out, f)
		}
	}
	return out, nil
}
