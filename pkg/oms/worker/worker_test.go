package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/oms/model"
)

type fakeStore struct {
	events []string
	err    error
}

func (s *fakeStore) RecordExecution(_ context.Context, exec *model.Execution) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, exec.EventID)
	return nil
}

func message(t *testing.T, eventID string) kafkawrapper.Message {
	t.Helper()
	b, err := json.Marshal(&model.Execution{EventID: eventID, Kind: model.ExecutionSubmit})
	require.NoError(t, err)
	return kafkawrapper.Message{Value: b}
}

func TestHandleKafkaBatchSkipsPoison(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(store, nil)

	err := w.HandleKafkaBatch(context.Background(), []kafkawrapper.Message{
		message(t, "a-opened"),
		{Value: []byte("{not json")},
		message(t, "b-filled"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-opened", "b-filled"}, store.events)
}

func TestHandleKafkaBatchFailsOnStoreError(t *testing.T) {
	boom := errors.New("db down")
	w := NewWorker(&fakeStore{err: boom}, nil)

	err := w.HandleKafkaBatch(context.Background(), []kafkawrapper.Message{message(t, "a-opened")})
	assert.ErrorIs(t, err, boom)
}

// orderStore keeps order rows the way the SQL repo does: creates are
// idempotent, updates go through Order.Apply and need the row to exist.
type orderStore struct {
	orders map[string]*model.Order
	failOn map[string]int // event id -> remaining failures
}

func (s *orderStore) RecordExecution(_ context.Context, exec *model.Execution) error {
	if s.failOn[exec.EventID] > 0 {
		s.failOn[exec.EventID]--
		return errors.New("connection reset")
	}
	if exec.Order != nil {
		if _, ok := s.orders[exec.Order.ID]; !ok {
			row := *exec.Order
			s.orders[row.ID] = &row
		}
	}
	for _, u := range exec.Updates {
		o, ok := s.orders[u.OrderID]
		if !ok {
			return fmt.Errorf("update order %s: not found", u.OrderID)
		}
		o.Apply(u)
	}
	return nil
}

func execMessage(t *testing.T, exec *model.Execution) kafkawrapper.Message {
	t.Helper()
	b, err := json.Marshal(exec)
	require.NoError(t, err)
	return kafkawrapper.Message{Value: b}
}

func fill(eventID, makerID string, leaves int64) *model.Execution {
	status := model.OrderStatusPartiallyFilled
	if leaves == 0 {
		status = model.OrderStatusFilled
	}
	return &model.Execution{
		EventID: eventID,
		Kind:    model.ExecutionSubmit,
		Updates: []model.OrderUpdate{{
			OrderID:        makerID,
			FillQuantity:   decimal.NewFromInt(1),
			LeavesQuantity: decimal.NewFromInt(leaves),
			Status:         status,
		}},
	}
}

func TestRetriedBatchDoesNotDoubleCountFills(t *testing.T) {
	store := &orderStore{
		orders: map[string]*model.Order{},
		failOn: map[string]int{"t2-filled": 1},
	}
	w := NewWorker(store, nil)

	maker := &model.Execution{
		EventID: "m-opened",
		Kind:    model.ExecutionSubmit,
		Order: &model.Order{
			ID:             "m",
			Quantity:       decimal.NewFromInt(3),
			CumQuantity:    decimal.Zero,
			LeavesQuantity: decimal.NewFromInt(3),
			Status:         model.OrderStatusOpened,
		},
	}
	batch := []kafkawrapper.Message{
		execMessage(t, maker),
		execMessage(t, fill("t1-filled", "m", 2)),
		execMessage(t, fill("t2-filled", "m", 1)),
	}

	// the consumer group redelivers the whole batch until it succeeds
	attempts := 0
	for {
		attempts++
		if err := w.HandleKafkaBatch(context.Background(), batch); err == nil {
			break
		}
		require.Less(t, attempts, 5)
	}

	assert.Equal(t, 2, attempts)
	m := store.orders["m"]
	assert.True(t, m.CumQuantity.Equal(decimal.NewFromInt(2)), "cum %s", m.CumQuantity)
	assert.True(t, m.LeavesQuantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, model.OrderStatusPartiallyFilled, m.Status)
}

func TestUpdateBeforeCreateFailsBatch(t *testing.T) {
	store := &orderStore{orders: map[string]*model.Order{}}
	w := NewWorker(store, nil)

	err := w.HandleKafkaBatch(context.Background(), []kafkawrapper.Message{execMessage(t, fill("t1-filled", "m", 2))})
	assert.Error(t, err)
}
