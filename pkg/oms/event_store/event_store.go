package eventstore

import (
	"context"

	"github.com/joripage/matchbook/pkg/oms/model"
)

type EventStore interface {
	Record(ctx context.Context, exec *model.Execution) error

	// Events returns, oldest first, every execution that touched orderID
	// either as the submitted order or as a filled or cancelled maker.
	Events(orderID string) []*model.Execution
	Trades(orderID string) []model.Trade
	LatestStatus(orderID string) (model.OrderStatus, bool)
	DeleteChainByOrderID(orderID string)
}
