// Package redis provides the production session store and distributed
// locker on top of a Redis backend.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/ndanaka/chatflow/pkg/session"
)

const defaultPrefix = "chatflow:session:"

// Store implements session.Store using Redis. Sessions are stored as JSON
// under a prefixed key and tracked in a ZSET index scored by expiry, so
// operational tooling can list live sessions without scanning.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL sets the expiration applied on every save.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save implements session.Store. The state key and the index entry are
// written in one pipeline.
func (s *Store) Save(ctx context.Context, sessionID string, state *session.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}

	// Index score is the expiry unix time; sessions without TTL get a
	// far-future score so ZRANGEBYSCORE sweeps never pick them up.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return nil
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context, sessionID string) (*session.State, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var state session.State
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the ids of sessions the index still considers live, pruning
// entries whose score has passed.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := time.Now().Unix()

	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "0", fmt.Sprintf("%d", now)).Err(); err != nil {
		return nil, fmt.Errorf("pruning session index: %w", err)
	}
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return ids, nil
}

// Ping checks backend connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}
