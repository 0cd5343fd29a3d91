package audit

import (
	"context"
	"sync"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
)

// InMemoryStore keeps audit events in memory for dev and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].OrgID == orgID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
