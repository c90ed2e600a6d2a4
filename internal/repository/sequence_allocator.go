package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/ticketnum"
)

// sequence keys expire well after the day they cover ends
const sequenceKeyTTL = 48 * time.Hour

// SequenceAllocator hands out daily ticket sequence numbers atomically.
type SequenceAllocator interface {
	NextTicketNumber(ctx context.Context, today time.Time) (string, error)
}

type redisSequenceAllocator struct {
	client *redis.Client
}

// NewRedisSequenceAllocator allocates per-day sequences with INCR, making
// concurrent issuance safe without scanning existing identifiers. Callers
// fall back to the snapshot-based generator when Redis is unreachable.
func NewRedisSequenceAllocator(client *redis.Client) SequenceAllocator {
	return &redisSequenceAllocator{client: client}
}

func (a *redisSequenceAllocator) NextTicketNumber(ctx context.Context, today time.Time) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("redis client not configured")
	}

	key := "helpdesk:ticket-seq:" + today.Format("20060102")
	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("allocate ticket sequence: %w", err)
	}
	if seq == 1 {
		a.client.Expire(ctx, key, sequenceKeyTTL)
	}

	return ticketnum.FromSequence(today, int(seq)), nil
}
