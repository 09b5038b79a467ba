package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ndanaka/chatflow/pkg/ports"
)

// Result is a stored conversation result with its answers and logs.
type Result struct {
	ID          string
	TypebotID   string
	HasStarted  bool
	IsCompleted bool
	CreatedAt   time.Time
	Answers     []ports.Answer
	Logs        []ports.Log
}

// ResultStore keeps results, answers and logs in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

// NewResultStore returns an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]*Result)}
}

// CreateResult implements ports.ResultStore.
func (s *ResultStore) CreateResult(_ context.Context, typebotID string) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.results[id] = &Result{
		ID:        id,
		TypebotID: typebotID,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()
	return id, nil
}

// UpsertAnswer implements ports.ResultStore. The latest answer for a
// (result, block) pair wins.
func (s *ResultStore) UpsertAnswer(_ context.Context, answer ports.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[answer.ResultID]
	if !ok {
		return fmt.Errorf("result %s: not found", answer.ResultID)
	}
	for i, existing := range result.Answers {
		if existing.BlockID == answer.BlockID {
			result.Answers[i] = answer
			return nil
		}
	}
	result.Answers = append(result.Answers, answer)
	return nil
}

// UpdateResult implements ports.ResultStore.
func (s *ResultStore) UpdateResult(_ context.Context, resultID string, patch ports.ResultPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[resultID]
	if !ok {
		return fmt.Errorf("result %s: not found", resultID)
	}
	if patch.HasStarted != nil {
		result.HasStarted = *patch.HasStarted
	}
	if patch.IsCompleted != nil {
		result.IsCompleted = *patch.IsCompleted
	}
	return nil
}

// AppendLog implements ports.ResultStore.
func (s *ResultStore) AppendLog(_ context.Context, resultID string, log ports.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[resultID]
	if !ok {
		return fmt.Errorf("result %s: not found", resultID)
	}
	result.Logs = append(result.Logs, log)
	return nil
}

// Result returns a copy of a stored result.
func (s *ResultStore) Result(resultID string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[resultID]
	if !ok {
		return Result{}, false
	}
	out := *result
	out.Answers = append([]ports.Answer(nil), result.Answers...)
	out.Logs = append([]ports.Log(nil), result.Logs...)
	return out, true
}
