package repo

import (
	"context"

	"github.com/joripage/matchbook/pkg/oms/model"
	"github.com/joripage/matchbook/pkg/orderbook"
)

type IOrder interface {
	// Create inserts the order unless a row with its id already exists.
	Create(ctx context.Context, record *model.Order) error
	ApplyUpdate(ctx context.Context, update model.OrderUpdate) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListLive(ctx context.Context, pair orderbook.Pair) ([]*model.Order, error)
}

type ITrade interface {
	BulkCreate(ctx context.Context, records []model.Trade) error
	ListByOrderID(ctx context.Context, orderID string) ([]*model.Trade, error)
}
