package eventstore

import (
	"context"
	"sync"

	"github.com/joripage/matchbook/pkg/oms/model"
)

type InMemoryEventStore struct {
	mu       sync.RWMutex
	seen     map[string]struct{}           // event ids already recorded
	events   map[string][]*model.Execution // OrderID -> executions
	trades   map[string][]model.Trade      // OrderID -> trades on either side
	statuses map[string]model.OrderStatus  // OrderID -> latest status
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		seen:     make(map[string]struct{}),
		events:   make(map[string][]*model.Execution),
		trades:   make(map[string][]model.Trade),
		statuses: make(map[string]model.OrderStatus),
	}
}

// Record stores exec. Recording an event id a second time is a no-op.
func (s *InMemoryEventStore) Record(_ context.Context, exec *model.Execution) error {
	if exec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[exec.EventID]; ok {
		return nil
	}
	s.seen[exec.EventID] = struct{}{}

	touched := map[string]struct{}{}
	track := func(orderID string) {
		if _, ok := touched[orderID]; ok {
			return
		}
		touched[orderID] = struct{}{}
		s.events[orderID] = append(s.events[orderID], exec)
	}

	if exec.Order != nil {
		track(exec.Order.ID)
		s.statuses[exec.Order.ID] = exec.Order.Status
	}
	for _, u := range exec.Updates {
		track(u.OrderID)
		s.statuses[u.OrderID] = u.Status
	}
	for _, t := range exec.Trades {
		s.trades[t.MakerOrderID] = append(s.trades[t.MakerOrderID], t)
		s.trades[t.TakerOrderID] = append(s.trades[t.TakerOrderID], t)
	}
	return nil
}

func (s *InMemoryEventStore) Events(orderID string) []*model.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*model.Execution(nil), s.events[orderID]...)
}

func (s *InMemoryEventStore) Trades(orderID string) []model.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Trade(nil), s.trades[orderID]...)
}

func (s *InMemoryEventStore) LatestStatus(orderID string) (model.OrderStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[orderID]
	return status, ok
}

// DeleteChainByOrderID drops everything kept for orderID. Executions shared
// with counterparties stay reachable through their own ids.
func (s *InMemoryEventStore) DeleteChainByOrderID(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, orderID)
	delete(s.trades, orderID)
	delete(s.statuses, orderID)
}
