package service

import (
	"context"
	"errors"
	"fmt"

	"game_theory_arena/internal/domain"
)

// ResultSink records finished matches. Best effort: callers log failures and move on.
type ResultSink interface {
	RecordMatch(ctx context.Context, m domain.Match) error
}

type MatchStore interface {
	Create(ctx context.Context, m *domain.Match) error
}

// StoreSink persists matches through a MatchStore.
type StoreSink struct {
	store MatchStore
}

func NewStoreSink(store MatchStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) RecordMatch(ctx context.Context, m domain.Match) error {
	if err := s.store.Create(ctx, &m); err != nil {
		return fmt.Errorf("store match %s: %w", m.ID, err)
	}
	return nil
}

// MultiSink fans a match out to every sink and joins their errors.
// One failing sink does not stop the others.
type MultiSink []ResultSink

func (ms MultiSink) RecordMatch(ctx context.Context, m domain.Match) error {
	var errs []error
	for _, s := range ms {
		if s == nil {
			continue
		}
		if err := s.RecordMatch(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
