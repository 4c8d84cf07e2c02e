package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/joripage/matchbook/pkg/oms/model"
)

var ErrNotFound = errors.New("record not found")

type IRepo interface {
	Order() IOrder
	Trade() ITrade

	// RecordExecution writes the order row, the updates and the trades of
	// one execution in a single transaction.
	RecordExecution(ctx context.Context, exec *model.Execution) error
}

type Repo struct {
	omsDB *gorm.DB
}

func NewRepo(omsDB *gorm.DB) IRepo {
	return &Repo{
		omsDB: omsDB,
	}
}

func (r *Repo) Order() IOrder {
	return NewOrderSQLRepo(r.omsDB)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.omsDB)
}

func (r *Repo) RecordExecution(ctx context.Context, exec *model.Execution) error {
	return r.omsDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := NewOrderSQLRepo(tx)
		if exec.Order != nil {
			if err := orders.Create(ctx, exec.Order); err != nil {
				return fmt.Errorf("create order %s: %w", exec.Order.ID, err)
			}
		}
		for _, u := range exec.Updates {
			if err := orders.ApplyUpdate(ctx, u); err != nil {
				return err
			}
		}
		if err := NewTradeSQLRepo(tx).BulkCreate(ctx, exec.Trades); err != nil {
			return fmt.Errorf("create trades for %s: %w", exec.OrderID, err)
		}
		return nil
	})
}
