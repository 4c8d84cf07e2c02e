package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/logging"
	"github.com/joripage/matchbook/pkg/metrics"
	"github.com/joripage/matchbook/pkg/oms/model"
)

const defaultFetchBatch = 10

type ExecutionStore interface {
	RecordExecution(ctx context.Context, exec *model.Execution) error
}

// Worker moves executions published by the service into the database.
type Worker struct {
	store  ExecutionStore
	logger *logging.Logger
}

func NewWorker(store ExecutionStore, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		store:  store,
		logger: logger,
	}
}

// errPoison marks a payload that will never decode; it is acked and dropped.
var errPoison = errors.New("undecodable execution")

func (w *Worker) apply(ctx context.Context, source string, data []byte) error {
	var exec model.Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		metrics.WorkerEventsTotal.WithLabelValues(source, "poison").Inc()
		return fmt.Errorf("%w: %w", errPoison, err)
	}
	if err := w.store.RecordExecution(ctx, &exec); err != nil {
		metrics.WorkerEventsTotal.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("record %s: %w", exec.EventID, err)
	}
	metrics.WorkerEventsTotal.WithLabelValues(source, "ok").Inc()
	return nil
}

// HandleKafkaBatch records a batch in order. Poison messages are skipped;
// any other failure fails the batch so the consumer group retries it.
func (w *Worker) HandleKafkaBatch(ctx context.Context, msgs []kafkawrapper.Message) error {
	for _, m := range msgs {
		err := w.apply(ctx, "kafka", m.Value)
		if errors.Is(err, errPoison) {
			w.logger.Warn(ctx, "skip kafka message", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) StartKafkaConsumer(ctx context.Context, cg *kafkawrapper.ConsumerGroup) error {
	err := cg.Run(ctx, w.HandleKafkaBatch)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// StartNATSConsumer pulls from a durable JetStream consumer until ctx ends.
// A message whose execution cannot be recorded is nacked for redelivery.
func (w *Worker) StartNATSConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string, batch int) error {
	if batch <= 0 {
		batch = defaultFetchBatch
	}
	sub, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		if ctx.Err() != nil {
			return nil
		}
		msgs, err := sub.Fetch(batch, nats.MaxWait(time.Second))
		if errors.Is(err, nats.ErrTimeout) {
			continue
		}
		if err != nil {
			w.logger.Warn(ctx, "nats fetch", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			err := w.apply(ctx, "nats", msg.Data)
			switch {
			case errors.Is(err, errPoison):
				w.logger.Warn(ctx, "drop nats message", zap.String("subject", msg.Subject), zap.Error(err))
				_ = msg.Ack()
			case err != nil:
				w.logger.Error(ctx, "record nats message", zap.Error(err))
				_ = msg.Nak()
			default:
				_ = msg.Ack()
			}
		}
	}
}
