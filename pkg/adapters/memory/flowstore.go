// Package memory provides in-process adapters for every persistence port.
// They back the CLI chat mode and the test suites; production deployments
// use the redis adapters instead.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ndanaka/chatflow/pkg/flow"
)

// FlowStore keeps published snapshots in a map, addressable by id or by
// public id.
type FlowStore struct {
	mu    sync.RWMutex
	flows map[string]flow.Typebot
}

// NewFlowStore returns an empty store.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[string]flow.Typebot)}
}

// Register publishes a snapshot. It overwrites any previous snapshot with
// the same id.
func (s *FlowStore) Register(typebot flow.Typebot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[typebot.ID] = typebot
}

// PublicTypebot implements ports.FlowStore.
func (s *FlowStore) PublicTypebot(_ context.Context, typebotID string) (*flow.Typebot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	typebot, ok := s.flows[typebotID]
	if !ok {
		return nil, fmt.Errorf("typebot %s: not found", typebotID)
	}
	return &typebot, nil
}

// All returns every registered snapshot, in no particular order.
func (s *FlowStore) All() []flow.Typebot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]flow.Typebot, 0, len(s.flows))
	for _, t := range s.flows {
		out = append(out, t)
	}
	return out
}

// WhatsAppFlows returns the snapshots enabled for the WhatsApp channel.
func (s *FlowStore) WhatsAppFlows(_ context.Context) ([]flow.Typebot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []flow.Typebot
	for _, t := range s.flows {
		if t.Settings.WhatsApp != nil && t.Settings.WhatsApp.IsEnabled {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
