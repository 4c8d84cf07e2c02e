package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joripage/matchbook/pkg/oms/model"
	"github.com/joripage/matchbook/pkg/orderbook"
)

type OrderSQLRepo struct {
	db *gorm.DB
}

func NewOrderSQLRepo(db *gorm.DB) *OrderSQLRepo {
	return &OrderSQLRepo{
		db: db,
	}
}

func (s *OrderSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (r *OrderSQLRepo) Create(ctx context.Context, record *model.Order) error {
	return r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
}

var liveStatuses = []model.OrderStatus{model.OrderStatusOpened, model.OrderStatusPartiallyFilled}

// ApplyUpdate sets leaves and status from an absolute update. It only moves
// a live order forward: an update whose leaves exceed the stored leaves is
// older than what is applied, and a final order is left alone, so replays
// are no-ops. A missing order row is an error so the caller retries.
func (r *OrderSQLRepo) ApplyUpdate(ctx context.Context, update model.OrderUpdate) error {
	tx := r.dbWithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status IN ? AND leaves_quantity >= ?", update.OrderID, liveStatuses, update.LeavesQuantity).
		Updates(updateColumns(update))
	if tx.Error != nil {
		return fmt.Errorf("update order %s: %w", update.OrderID, tx.Error)
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.dbWithContext(ctx).Model(&model.Order{}).Where("id = ?", update.OrderID).Count(&n).Error; err != nil {
		return fmt.Errorf("update order %s: %w", update.OrderID, err)
	}
	if n == 0 {
		return fmt.Errorf("update order %s: %w", update.OrderID, ErrNotFound)
	}
	return nil
}

// updateColumns derives cum_quantity from the stored quantity for fills. A
// cancellation keeps what already traded.
func updateColumns(update model.OrderUpdate) map[string]interface{} {
	cols := map[string]interface{}{
		"leaves_quantity": update.LeavesQuantity,
		"status":          update.Status,
	}
	if update.Status != model.OrderStatusCancelled {
		cols["cum_quantity"] = gorm.Expr("quantity - ?", update.LeavesQuantity)
	}
	return cols
}

func (r *OrderSQLRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.dbWithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListLive returns the orders of pair still resting, oldest first.
func (r *OrderSQLRepo) ListLive(ctx context.Context, pair orderbook.Pair) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.dbWithContext(ctx).
		Where("order_asset = ? AND price_asset = ? AND status IN ?",
			pair.Base.String(), pair.Quote.String(),
			liveStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}
