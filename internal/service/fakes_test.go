package service

import (
	"context"
	"sync"

	"game_theory_arena/internal/domain"
	"game_theory_arena/internal/repository"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	byName map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, byName: map[string]*domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return repository.ErrUsernameTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byName[u.Username] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) add(id, name string) {
	_ = m.Create(context.Background(), &domain.User{ID: id, Username: name})
}
