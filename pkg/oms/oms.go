package oms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/joripage/matchbook/pkg/logging"
	"github.com/joripage/matchbook/pkg/metrics"
	"github.com/joripage/matchbook/pkg/normalizer"
	"github.com/joripage/matchbook/pkg/oms/model"
	riskrule "github.com/joripage/matchbook/pkg/oms/risk_rule"
	"github.com/joripage/matchbook/pkg/orderbook"
)

const defaultDepthLevels = 10

type Config struct {
	DepthLevels int `yaml:"depth_levels"`
}

type OMS struct {
	cfg        Config
	books      *orderbook.OrderBookManager
	normalizer *normalizer.Normalizer
	recorder   Recorder
	depthSink  DepthSink
	gateways   []OrderGateway
	rules      []riskrule.RiskRule
	logger     *logging.Logger

	// pair -> *sync.Mutex held from book operation to record
	ordering sync.Map

	now func() time.Time
}

type Option func(*OMS)

func WithLogger(l *logging.Logger) Option {
	return func(s *OMS) { s.logger = l }
}

func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(s *OMS) { s.normalizer = n }
}

func WithDepthSink(sink DepthSink) Option {
	return func(s *OMS) { s.depthSink = sink }
}

func WithRiskRules(rules ...riskrule.RiskRule) Option {
	return func(s *OMS) { s.rules = append(s.rules, rules...) }
}

func WithGateway(g OrderGateway) Option {
	return func(s *OMS) { s.gateways = append(s.gateways, g) }
}

func NewOMS(cfg Config, books *orderbook.OrderBookManager, recorder Recorder, opts ...Option) *OMS {
	if cfg.DepthLevels <= 0 {
		cfg.DepthLevels = defaultDepthLevels
	}
	if recorder == nil {
		recorder = Recorders{}
	}

	s := &OMS{
		cfg:        cfg,
		books:      books,
		normalizer: normalizer.New(normalizer.Config{}),
		recorder:   recorder,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddGateway registers a gateway after construction, for gateways that need
// the service itself to be built.
func (s *OMS) AddGateway(g OrderGateway) {
	s.gateways = append(s.gateways, g)
}

func (s *OMS) Start(ctx context.Context) error {
	for _, g := range s.gateways {
		if err := g.Start(ctx); err != nil {
			return fmt.Errorf("start gateway: %w", err)
		}
	}
	return nil
}

func (s *OMS) Stop() {
	for i := len(s.gateways) - 1; i >= 0; i-- {
		s.gateways[i].Stop()
	}
}

// SubmitOrder normalizes req, runs it through its book and records the
// outcome. A validation or risk failure returns the rejected trace together
// with the error. A recording failure returns the applied trace together
// with an error wrapping ErrRecordFailed.
func (s *OMS) SubmitOrder(ctx context.Context, owner string, req *normalizer.OrderRequest) (*orderbook.ProcessingResult, error) {
	if req == nil {
		return orderbook.Rejected(nil, errNilRequest), errNilRequest
	}

	order, err := s.normalizer.Normalize(owner, req)
	if err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(validationReason(err)).Inc()
		s.logger.Debug(ctx, "order rejected", zap.String("owner", owner), zap.Error(err))
		return orderbook.Rejected(nil, err), err
	}
	for _, rule := range s.rules {
		if err := rule.Check(order); err != nil {
			metrics.ValidationFailuresTotal.WithLabelValues("risk").Inc()
			s.logger.Debug(ctx, "order failed risk check", zap.String("order_id", order.ID), zap.Error(err))
			return orderbook.Rejected(order, err), err
		}
	}

	pair := order.Pair.String()
	mu := s.pairLock(order.Pair)
	mu.Lock()
	start := time.Now()
	res := s.books.ProcessOrder(order)
	metrics.ProcessDuration.WithLabelValues(pair).Observe(time.Since(start).Seconds())

	terminal, _ := res.Terminal()
	metrics.OrdersProcessedTotal.WithLabelValues(pair, string(order.Type), outcome(terminal)).Inc()
	if n := len(res.Trades()); n > 0 {
		metrics.TradesTotal.WithLabelValues(pair).Add(float64(n))
	}

	s.logger.Debug(ctx, "order processed",
		zap.String("order_id", order.ID),
		zap.String("pair", pair),
		zap.String("side", string(order.Side)),
		zap.String("type", string(order.Type)),
		zap.String("outcome", outcome(terminal)),
		zap.Int("trades", len(res.Trades())),
	)

	err = s.record(ctx, model.NewSubmitExecution(order, res, s.now()))
	mu.Unlock()
	if err != nil {
		return res, err
	}
	s.publishDepth(ctx, order.Pair)
	return res, nil
}

// CancelOrder removes a resting order. An unknown id is not an error; the
// trace carries the order_not_found failure.
func (s *OMS) CancelOrder(ctx context.Context, pair orderbook.Pair, orderID string) (*orderbook.ProcessingResult, error) {
	mu := s.pairLock(pair)
	mu.Lock()
	defer mu.Unlock()

	res := s.books.CancelOrder(pair, orderID)

	terminal, _ := res.Terminal()
	metrics.CancelsTotal.WithLabelValues(pair.String(), outcome(terminal)).Inc()
	s.logger.Debug(ctx, "order cancel",
		zap.String("order_id", orderID),
		zap.String("pair", pair.String()),
		zap.String("outcome", outcome(terminal)),
	)

	exec := model.NewCancelExecution(res, s.now())
	if exec == nil {
		return res, nil
	}
	if err := s.record(ctx, exec); err != nil {
		return res, err
	}
	s.publishDepth(ctx, pair)
	return res, nil
}

func (s *OMS) Depth(pair orderbook.Pair) orderbook.Depth {
	return s.books.Depth(pair, s.cfg.DepthLevels)
}

// pairLock serializes operations on one pair through recording, so a maker's
// execution is always recorded before any execution that fills it.
func (s *OMS) pairLock(pair orderbook.Pair) *sync.Mutex {
	mu, _ := s.ordering.LoadOrStore(pair, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *OMS) record(ctx context.Context, exec *model.Execution) error {
	if exec == nil {
		return nil
	}
	if err := s.recorder.Record(ctx, exec); err != nil {
		metrics.RecordFailuresTotal.WithLabelValues(string(exec.Kind)).Inc()
		s.logger.Error(ctx, "record execution",
			zap.String("event_id", exec.EventID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s: %w", ErrRecordFailed, exec.EventID, err)
	}
	return nil
}

func (s *OMS) publishDepth(ctx context.Context, pair orderbook.Pair) {
	metrics.RestingOrders.WithLabelValues(pair.String()).Set(float64(s.books.RestingOrders(pair)))
	if s.depthSink == nil {
		return
	}
	if err := s.depthSink.Publish(ctx, s.Depth(pair)); err != nil {
		s.logger.Warn(ctx, "publish depth", zap.String("pair", pair.String()), zap.Error(err))
	}
}

func outcome(e orderbook.Entry) string {
	if e.Kind == orderbook.EntryFailed {
		return string(e.Reason)
	}
	return string(e.Kind)
}

func validationReason(err error) string {
	var (
		assetErr *normalizer.InvalidAssetError
		sideErr  *normalizer.InvalidSideError
		numErr   *normalizer.NumericConversionError
	)
	switch {
	case errors.As(err, &assetErr):
		return "asset"
	case errors.As(err, &sideErr):
		return "side"
	case errors.As(err, &numErr):
		return numErr.Field
	case errors.Is(err, normalizer.ErrMissingOwner):
		return "owner"
	}
	return "other"
}
