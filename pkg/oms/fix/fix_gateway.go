package fixgateway

import (
	"context"
	"sync"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"github.com/joripage/matchbook/pkg/logging"
	"github.com/joripage/matchbook/pkg/oms"
	"github.com/joripage/matchbook/pkg/orderbook"
)

type FixGateway struct {
	cfg     *FixGatewayConfig
	app     *Application
	service oms.OrderService
	logger  *logging.Logger

	// orderID -> *orderRoute for orders resting in a book
	routes sync.Map

	send func(m quickfix.Messagable, sessionID quickfix.SessionID) error
}

type FixGatewayConfig struct {
	ConfigFilepath   string `yaml:"config_filepath"`
	EnableShardQueue bool   `yaml:"enable_shard_queue"`
	NumShards        int    `yaml:"num_shards"`
	QueueSize        int    `yaml:"queue_size"`
}

func NewFixGateway(cfg *FixGatewayConfig, service oms.OrderService, logger *logging.Logger) *FixGateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FixGateway{
		cfg:     cfg,
		service: service,
		logger:  logger,
		send:    quickfix.SendToTarget,
	}
}

func (s *FixGateway) Start(ctx context.Context) error {
	app, err := startApp(s.cfg, s)
	if err != nil {
		s.logger.Error(ctx, "start fix acceptor", zap.Error(err))
		return err
	}
	s.app = app
	return nil
}

func (s *FixGateway) Stop() {
	if s.app != nil {
		stopApp(s.app)
	}
}

// AddOrder submits a NewOrderSingle on behalf of the session's counterparty
// and sends the resulting execution reports.
func (s *FixGateway) AddOrder(ctx context.Context, m *NewOrderSingle) {
	ctx = logging.WithRequestID(ctx, m.ClOrdID)
	taker := newRoute(m)

	req, err := toOrderRequest(m)
	if err != nil {
		s.dispatch(ctx, []outbound{{m.SessionID, rejectReport("", taker, err.Error())}})
		return
	}

	res, err := s.service.SubmitOrder(ctx, m.SessionID.TargetCompID, req)
	if err != nil {
		s.logger.Warn(ctx, "submit order",
			zap.String("cl_ord_id", m.ClOrdID),
			zap.String("symbol", m.Symbol),
			zap.Error(err),
		)
	}

	reports := buildReports(res.OrderID, taker, res, s.lookupRoute)
	s.trackRoutes(res, taker)
	s.dispatch(ctx, reports)
}

func (s *FixGateway) lookupRoute(orderID string) (*orderRoute, bool) {
	v, ok := s.routes.Load(orderID)
	if !ok {
		return nil, false
	}
	return v.(*orderRoute), true
}

// trackRoutes keeps the taker's route while it rests and forgets makers
// that were fully filled.
func (s *FixGateway) trackRoutes(res *orderbook.ProcessingResult, taker *orderRoute) {
	for _, e := range res.Entries {
		if e.Kind == orderbook.EntryTrade && e.MakerLeavesQty.IsZero() {
			s.routes.Delete(e.Trade.MakerOrderID)
		}
	}
	terminal, ok := res.Terminal()
	if !ok {
		return
	}
	if terminal.Kind == orderbook.EntryAccepted || terminal.Rested {
		s.routes.Store(res.OrderID, taker)
	}
}

func (s *FixGateway) dispatch(ctx context.Context, reports []outbound) {
	for _, o := range reports {
		if err := s.send(o.report, o.sessionID); err != nil {
			s.logger.Error(ctx, "send execution report",
				zap.String("session", o.sessionID.String()),
				zap.Error(err),
			)
		}
	}
}
