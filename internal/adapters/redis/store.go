package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthlabs/hearth/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.StateStore using Redis. One JSON value per user
// under a prefixed key, plus a ZSET index of active conversations.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for conversation records. Zero means no
// expiration: an abandoned flow stays until the user resumes or an
// operator clears it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for conversation records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "hearth:thread:",
		ttl:    0,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record to Redis.
func (s *Store) Save(ctx context.Context, userID string, record *domain.StateRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}

	pipe := s.client.Pipeline()

	pipe.Set(ctx, s.key(userID), data, s.ttl)

	// Index score is the expiry instant; no-expiry records sit far in the
	// future so lazy pruning never touches them.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: userID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, userID string) (*domain.StateRecord, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var record domain.StateRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state record: %w", err)
	}

	return &record, nil
}

// Delete removes the user's conversation record.
func (s *Store) Delete(ctx context.Context, userID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), userID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns users with an active conversation, pruning expired index
// entries lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired records: %w", err)
	}

	users, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return users, nil
}

// Client exposes the underlying redis client so sibling adapters (locker,
// task marks) can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
