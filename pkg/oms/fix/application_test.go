package fixgateway

import (
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/stretchr/testify/assert"
)

func TestRoutingKeyFoldsSymbolSpelling(t *testing.T) {
	session := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "OMS", TargetCompID: "CLIENT"}

	keyOf := func(symbol string) string {
		msg := quickfix.NewMessage()
		msg.Header.SetString(tag.MsgType, "D")
		msg.Body.SetString(tag.Symbol, symbol)
		return getRoutingKey(msg, session)
	}

	assert.Equal(t, "BTC/USD", keyOf("BTC/USD"))
	assert.Equal(t, "BTC/USD", keyOf("btc/usd"))
	assert.Equal(t, "BTC/USD", keyOf("Btc/Usd"))
	assert.Equal(t, "DOGE/USD", keyOf("DOGE/USD"), "unknown symbols keep their raw key")
}

func TestRoutingKeyWithoutSymbol(t *testing.T) {
	session := quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "OMS", TargetCompID: "CLIENT"}
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, "F")

	assert.Equal(t, "MSGTYPE:F", getRoutingKey(msg, session))
}
