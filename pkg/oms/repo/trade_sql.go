package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joripage/matchbook/pkg/oms/model"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (s *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (r *TradeSQLRepo) BulkCreate(ctx context.Context, records []model.Trade) error {
	if len(records) == 0 {
		return nil
	}
	return r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

func (r *TradeSQLRepo) ListByOrderID(ctx context.Context, orderID string) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.dbWithContext(ctx).
		Where("maker_order_id = ? OR taker_order_id = ?", orderID, orderID).
		Order("executed_at ASC").
		Find(&trades).Error
	return trades, err
}
