package fixgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
	"go.uber.org/zap"

	"github.com/joripage/matchbook/pkg/orderbook"
)

// Application implements the quickfix.Application interface
type Application struct {
	*quickfix.MessageRouter
	cfg        AppConfig
	quitEvent  chan bool
	dispatcher chan *inboundMsg
	shardQueue *shardqueue.Shardqueue

	gateway *FixGateway
}

type AppConfig struct {
	enableShardQueue bool
	numShards        int
	queueSize        int
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

const (
	defaultNumShards = 16
	defaultQueueSize = 100_000
)

func newApplication(cfg AppConfig, gateway *FixGateway) *Application {
	if cfg.numShards <= 0 {
		cfg.numShards = defaultNumShards
	}
	if cfg.queueSize <= 0 {
		cfg.queueSize = defaultQueueSize
	}

	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		cfg:           cfg,
		quitEvent:     make(chan bool, 1),
		gateway:       gateway,
	}

	// OrderCancelRequest has no route; the router answers it with an
	// unsupported message type reject.
	app.AddRoute(newordersingle.Route(app.onNewOrderSingle))

	if app.cfg.enableShardQueue {
		app.shardQueue = shardqueue.NewShardQueue(app.cfg.numShards, app.cfg.queueSize)
		app.shardQueue.Start(func(msg interface{}) error {
			if v, ok := msg.(*inboundMsg); ok {
				app.route(v)
			}
			return nil
		})
	} else {
		app.dispatcher = make(chan *inboundMsg, app.cfg.queueSize)
		go app.runDispatcher()
	}

	return app
}

func startApp(cfg *FixGatewayConfig, gateway *FixGateway) (*Application, error) {
	f, err := os.Open(cfg.ConfigFilepath)
	if err != nil {
		return nil, fmt.Errorf("error opening %v, %v", cfg.ConfigFilepath, err)
	}
	defer f.Close() // nolint

	stringData, readErr := io.ReadAll(f)
	if readErr != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", readErr)
	}

	appSettings, err := quickfix.ParseSettings(bytes.NewReader(stringData))
	if err != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", err)
	}

	app := newApplication(AppConfig{
		enableShardQueue: cfg.EnableShardQueue,
		numShards:        cfg.NumShards,
		queueSize:        cfg.QueueSize,
	}, gateway)

	logFactory, err := file.NewLogFactory(appSettings)
	if err != nil {
		return nil, fmt.Errorf("unable to create log factory: %s", err)
	}
	acceptor, err := quickfix.NewAcceptor(app, quickfix.NewMemoryStoreFactory(), appSettings, logFactory)
	if err != nil {
		return nil, fmt.Errorf("unable to create acceptor: %s", err)
	}

	err = acceptor.Start()
	if err != nil {
		return nil, fmt.Errorf("unable to start FIX acceptor: %s", err)
	}

	go func() {
		<-app.quitEvent
		acceptor.Stop()
	}()

	return app, nil
}

func stopApp(a *Application) {
	select {
	case a.quitEvent <- true:
	default:
	}
}

// OnCreate implemented as part of Application interface
func (a Application) OnCreate(sessionID quickfix.SessionID) {}

// OnLogon implemented as part of Application interface
func (a Application) OnLogon(sessionID quickfix.SessionID) {
	a.gateway.logger.Info(context.Background(), "fix logon", zap.String("session", sessionID.String()))
}

// OnLogout implemented as part of Application interface
func (a Application) OnLogout(sessionID quickfix.SessionID) {
	a.gateway.logger.Info(context.Background(), "fix logout", zap.String("session", sessionID.String()))
}

// ToAdmin implemented as part of Application interface
func (a Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

// ToApp implemented as part of Application interface
func (a Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromAdmin implemented as part of Application interface
func (a Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp hands application messages to the dispatcher. Messages of one
// symbol are always handled in arrival order by a single goroutine.
func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) (reject quickfix.MessageRejectError) {
	in := &inboundMsg{msg, sessionID}
	if a.cfg.enableShardQueue {
		a.shardQueue.Shard(getRoutingKey(msg, sessionID), in)
		return nil
	}
	a.dispatcher <- in
	return nil
}

func getRoutingKey(msg *quickfix.Message, sessionID quickfix.SessionID) string {
	if symbol, err := msg.Body.GetString(tag.Symbol); err == nil && symbol != "" {
		return symbolKey(symbol)
	}

	if msgType, err := msg.Header.GetString(tag.MsgType); err == nil {
		return "MSGTYPE:" + msgType
	}

	return sessionID.String()
}

// symbolKey folds spellings of one pair onto the key of its book.
func symbolKey(symbol string) string {
	if pair, err := orderbook.ParsePair(symbol); err == nil {
		return pair.String()
	}
	return symbol
}

func (a *Application) runDispatcher() {
	for msg := range a.dispatcher {
		a.route(msg)
	}
}

func (a *Application) route(in *inboundMsg) {
	if reject := a.Route(in.msg, in.sessionID); reject != nil {
		a.gateway.logger.Warn(context.Background(), "route fix message",
			zap.String("session", in.sessionID.String()),
			zap.Error(reject),
		)
		if err := quickfix.SendToTarget(rejectMessage(in.msg, reject), in.sessionID); err != nil {
			a.gateway.logger.Error(context.Background(), "send reject", zap.Error(err))
		}
	}
}

func (a *Application) onNewOrderSingle(msg newordersingle.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	ordType, _ := msg.GetOrdType()
	price, _ := msg.GetPrice()
	orderQty, _ := msg.GetOrderQty()
	account, _ := msg.GetAccount()
	transactTime, _ := msg.GetTransactTime()

	a.gateway.AddOrder(context.Background(), &NewOrderSingle{
		SessionID:    sessionID,
		Account:      account,
		ClOrdID:      clOrdID,
		Symbol:       symbol,
		OrdType:      ordType,
		Price:        price,
		Side:         side,
		TransactTime: transactTime,
		OrderQty:     orderQty,
	})
	return nil
}
