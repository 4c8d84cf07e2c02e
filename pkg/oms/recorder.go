package oms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/oms/model"
	"github.com/joripage/matchbook/pkg/oms/repo"
)

// Recorder persists or publishes an execution. It is always called after
// the book lock has been released.
type Recorder interface {
	Record(ctx context.Context, exec *model.Execution) error
}

type RecorderFunc func(ctx context.Context, exec *model.Execution) error

func (f RecorderFunc) Record(ctx context.Context, exec *model.Execution) error {
	return f(ctx, exec)
}

// Recorders fans an execution out to every recorder and joins their errors.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, exec *model.Execution) error {
	var errs []error
	for _, r := range rs {
		if err := r.Record(ctx, exec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type repoRecorder struct {
	repo repo.IRepo
}

// NewRepoRecorder writes executions straight to the database.
func NewRepoRecorder(r repo.IRepo) Recorder {
	return &repoRecorder{repo: r}
}

func (r *repoRecorder) Record(ctx context.Context, exec *model.Execution) error {
	if err := r.repo.RecordExecution(ctx, exec); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	return nil
}

type kafkaRecorder struct {
	producer *kafkawrapper.Producer
	topic    string
}

// NewKafkaRecorder publishes executions keyed by pair, so one book's events
// share a partition in book order. A taker's execution carries its makers'
// updates, which must not overtake the makers' own executions.
func NewKafkaRecorder(producer *kafkawrapper.Producer, topic string) Recorder {
	return &kafkaRecorder{producer: producer, topic: topic}
}

func (r *kafkaRecorder) Record(ctx context.Context, exec *model.Execution) error {
	headers := map[string]string{
		"event_id": exec.EventID,
		"kind":     string(exec.Kind),
	}
	if err := r.producer.PublishJSON(ctx, r.topic, exec.Pair, exec, headers); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	return nil
}

type natsRecorder struct {
	js      nats.JetStreamContext
	subject string
}

// NewNATSRecorder publishes executions to a JetStream subject. The event id
// is used as the message id so the stream drops duplicates.
func NewNATSRecorder(js nats.JetStreamContext, subject string) Recorder {
	return &natsRecorder{js: js, subject: subject}
}

func (r *natsRecorder) Record(ctx context.Context, exec *model.Execution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	if _, err := r.js.Publish(r.subject, data, nats.MsgId(exec.EventID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	return nil
}
