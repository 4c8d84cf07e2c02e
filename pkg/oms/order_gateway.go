package oms

import (
	"context"

	"github.com/joripage/matchbook/pkg/normalizer"
	"github.com/joripage/matchbook/pkg/orderbook"
)

// OrderGateway is an inbound surface (FIX acceptor, HTTP, ...) started and
// stopped with the service.
type OrderGateway interface {
	Start(ctx context.Context) error
	Stop()
}

// OrderService is what gateways submit through.
type OrderService interface {
	SubmitOrder(ctx context.Context, owner string, req *normalizer.OrderRequest) (*orderbook.ProcessingResult, error)
	CancelOrder(ctx context.Context, pair orderbook.Pair, orderID string) (*orderbook.ProcessingResult, error)
}

// DepthSink receives the depth of a book after an operation changed it.
type DepthSink interface {
	Publish(ctx context.Context, depth orderbook.Depth) error
}
