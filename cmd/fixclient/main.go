package main

import (
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/shopspring/decimal"
)

type InitiatorApp struct {
	*quickfix.MessageRouter
}

func newInitiatorApp() *InitiatorApp {
	app := &InitiatorApp{MessageRouter: quickfix.NewMessageRouter()}
	app.AddRoute(executionreport.Route(app.onExecutionReport))
	return app
}

func (a *InitiatorApp) OnCreate(sessionID quickfix.SessionID) {}

func (a *InitiatorApp) OnLogon(sessionID quickfix.SessionID) {
	log.Println("Logon success", sessionID)
	sendMatchingLimits(sessionID)
	sendMarketSweep(sessionID)
}

func (a *InitiatorApp) OnLogout(sessionID quickfix.SessionID) {}

func (a *InitiatorApp) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *InitiatorApp) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (a *InitiatorApp) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *InitiatorApp) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return a.Route(msg, sessionID)
}

func (a *InitiatorApp) onExecutionReport(msg executionreport.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	execType, _ := msg.GetExecType()
	ordStatus, _ := msg.GetOrdStatus()
	cumQty, _ := msg.GetCumQty()
	leavesQty, _ := msg.GetLeavesQty()
	text, _ := msg.GetText()
	log.Printf("report clOrdID=%s execType=%s status=%s cum=%s leaves=%s %s",
		clOrdID, execType, ordStatus, cumQty, leavesQty, text)
	return nil
}

func newOrder(sessionID quickfix.SessionID, side enum.Side, ordType enum.OrdType, price, qty decimal.Decimal) fix44nos.NewOrderSingle {
	order := fix44nos.New(
		field.NewClOrdID(randSeq(17)),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(ordType))
	order.SetSymbol("BTC/USD")
	order.SetOrderQty(qty, 8)
	if ordType == enum.OrdType_LIMIT {
		order.SetPrice(price, 8)
	}
	order.SetSenderCompID(sessionID.SenderCompID)
	order.SetTargetCompID(sessionID.TargetCompID)
	return order
}

// === Message sender ===
func sendMatchingLimits(sessionID quickfix.SessionID) {
	orders := []fix44nos.NewOrderSingle{
		newOrder(sessionID, enum.Side_SELL, enum.OrdType_LIMIT, decimal.NewFromInt(101), decimal.NewFromInt(2)),
		newOrder(sessionID, enum.Side_SELL, enum.OrdType_LIMIT, decimal.NewFromInt(100), decimal.NewFromInt(1)),
		newOrder(sessionID, enum.Side_BUY, enum.OrdType_LIMIT, decimal.NewFromInt(101), decimal.NewFromInt(2)),
	}
	for _, o := range orders {
		if err := quickfix.Send(o); err != nil {
			log.Println("send", err)
		}
	}
}

func sendMarketSweep(sessionID quickfix.SessionID) {
	if err := quickfix.Send(newOrder(sessionID, enum.Side_BUY, enum.OrdType_MARKET, decimal.Zero, decimal.NewFromInt(5))); err != nil {
		log.Println("send", err)
	}
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: fixclient <initiator.cfg>")
	}
	cfgPath := os.Args[1]
	log.Println("cfgPath:", cfgPath)
	app := newInitiatorApp()

	cfg, err := os.Open(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cfg.Close() // nolint

	settings, err := quickfix.ParseSettings(cfg)
	if err != nil {
		log.Fatal(err)
	}

	storeFactory := quickfix.NewMemoryStoreFactory()
	logFactory, _ := file.NewLogFactory(settings)
	initiator, err := quickfix.NewInitiator(app, storeFactory, settings, logFactory)
	if err != nil {
		log.Fatal(err)
	}
	err = initiator.Start()
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Initiator started...")
	select {}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
