package session

import (
	"context"
	"time"
)

// Store persists session state between stateless requests.
type Store interface {
	// Save persists the state for a session id. Stores may apply a TTL.
	Save(ctx context.Context, sessionID string, state *State) error

	// Load retrieves the state for a session id.
	// Returns ErrNotFound when the session does not exist or has expired.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Delete removes the state for a session id.
	Delete(ctx context.Context, sessionID string) error
}

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// Locker coordinates session access across replicas. Lock blocks until the
// lock is acquired or the context is canceled; the returned UnlockFunc must
// be called to release it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
