package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"game_theory_arena/internal/domain"
)

const MatchesChannel = "arena:matches"

// RedisPublisher announces finished matches on a pub/sub channel so other
// instances and dashboards can follow results live.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: MatchesChannel}
}

func (p *RedisPublisher) RecordMatch(ctx context.Context, m domain.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish match %s: %w", m.ID, err)
	}
	return nil
}
