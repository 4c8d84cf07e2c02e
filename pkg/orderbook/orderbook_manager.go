package orderbook

import (
	"sort"
	"sync"
)

type OrderBookManagerConfig struct {
	// CheckInvariants re-verifies the book after every operation and panics
	// on a crossed book or a non-positive resting quantity.
	CheckInvariants bool
}

// OrderBookManager owns one book per pair. Each book has its own lock, held
// for the whole of a submission or cancellation, so operations on different
// pairs run in parallel and operations on one pair are serialized.
//
// Fairness: between concurrent submitters on the same pair, orders match in
// the order they acquire the book's lock, not the order they were sent.
type OrderBookManager struct {
	books     sync.Map // Pair -> *orderBook
	callbacks []func(*ProcessingResult)
	cfg       *OrderBookManagerConfig
}

func NewOrderBookManager(cfg *OrderBookManagerConfig) *OrderBookManager {
	if cfg == nil {
		cfg = &OrderBookManagerConfig{CheckInvariants: true}
	}
	return &OrderBookManager{
		books: sync.Map{},
		cfg:   cfg,
	}
}

// ProcessOrder matches a normalized order against its pair's book. An order
// that fails the basic shape checks is rejected without touching the book.
func (s *OrderBookManager) ProcessOrder(order *Order) *ProcessingResult {
	if err := order.validate(); err != nil {
		return Rejected(order, err)
	}
	book := s.getOrCreateBook(order.Pair)
	res := book.processOrder(order)
	s.notify(res)
	return res
}

func (s *OrderBookManager) CancelOrder(pair Pair, orderID string) *ProcessingResult {
	if err := pair.Validate(); err != nil {
		return Rejected(&Order{ID: orderID, Pair: pair}, err)
	}
	book := s.getOrCreateBook(pair)
	res := book.cancelOrder(orderID)
	s.notify(res)
	return res
}

// Depth returns up to levels aggregated levels per side, levels <= 0 for all.
func (s *OrderBookManager) Depth(pair Pair, levels int) Depth {
	val, ok := s.books.Load(pair)
	if !ok {
		return Depth{Pair: pair}
	}
	return val.(*orderBook).snapshot(levels)
}

func (s *OrderBookManager) RestingOrders(pair Pair) int {
	val, ok := s.books.Load(pair)
	if !ok {
		return 0
	}
	book := val.(*orderBook)
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.restingCount()
}

// Pairs lists the pairs that have a book, sorted by name.
func (s *OrderBookManager) Pairs() []Pair {
	var pairs []Pair
	s.books.Range(func(k, _ any) bool {
		pairs = append(pairs, k.(Pair))
		return true
	})
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	return pairs
}

// RegisterResultCallback adds fn to the callbacks run after every operation,
// once the book lock has been released. Register before processing starts.
func (s *OrderBookManager) RegisterResultCallback(fn func(*ProcessingResult)) {
	s.callbacks = append(s.callbacks, fn)
}

func (s *OrderBookManager) notify(res *ProcessingResult) {
	for _, cb := range s.callbacks {
		cb(res)
	}
}

func (s *OrderBookManager) getOrCreateBook(pair Pair) *orderBook {
	if val, ok := s.books.Load(pair); ok {
		return val.(*orderBook)
	}

	book := newOrderBook(pair)
	book.cfg.CheckInvariants = s.cfg.CheckInvariants

	actual, _ := s.books.LoadOrStore(pair, book)
	return actual.(*orderBook)
}
