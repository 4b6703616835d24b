package state

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	domain "github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Hash fields of the monitoring key.
const (
	fieldArmed     = "armed"
	fieldTimestamp = "timestamp"
	fieldHostname  = "hostname"
	fieldUsername  = "username"
)

// RedisRepository persists the monitoring flag in one redis hash.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository stores the flag under key.
func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{
		client: client,
		key:    key,
	}
}

// Load reads the hash; a missing key yields ErrNotFound.
func (r *RedisRepository) Load(ctx context.Context) (*domain.State, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read monitoring hash: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrNotFound
	}

	state, err := fromRecord(record{
		Armed:     values[fieldArmed] == "1",
		Timestamp: values[fieldTimestamp],
		Hostname:  values[fieldHostname],
		Username:  values[fieldUsername],
	})
	if err != nil {
		return nil, fmt.Errorf("decode monitoring timestamp: %w", err)
	}

	return state, nil
}

// Save replaces every field of the hash in one transaction.
func (r *RedisRepository) Save(ctx context.Context, state *domain.State) error {
	stored := toRecord(state)

	armed := "0"
	if stored.Armed {
		armed = "1"
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key,
			fieldArmed, armed,
			fieldTimestamp, stored.Timestamp,
			fieldHostname, stored.Hostname,
			fieldUsername, stored.Username,
		)

		return nil
	})
	if err != nil {
		return fmt.Errorf("write monitoring hash: %w", err)
	}

	return nil
}
