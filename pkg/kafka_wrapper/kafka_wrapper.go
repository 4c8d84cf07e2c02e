// Package kafkawrapper publishes JSON events to Kafka and consumes a topic in
// batches through a consumer group.
//
// Batches are handed to the handler in fetch order, one at a time, so events
// sharing a key (and therefore a partition) are seen in the order written.
package kafkawrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers             []string `yaml:"brokers"`
	Topic               string   `yaml:"topic"`
	GroupID             string   `yaml:"group_id"`
	DLQTopic            string   `yaml:"dlq_topic"`
	BatchSize           int      `yaml:"batch_size"`
	BatchTimeoutMs      int      `yaml:"batch_timeout_ms"`
	MaxRetries          int      `yaml:"max_retries"`
	RequireAllAcks      bool     `yaml:"require_all_acks"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
}

type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
	Headers   map[string]string
}

type ProducerConfig struct {
	Brokers      []string
	Balancer     kafka.Balancer
	BatchSize    int
	BatchBytes   int64
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks kafka.RequiredAcks
	Async        bool
}

func ProducerConfigFrom(cfg *KafkaConfig) ProducerConfig {
	acks := kafka.RequireOne
	if cfg.RequireAllAcks {
		acks = kafka.RequireAll
	}
	return ProducerConfig{
		Brokers:      cfg.Brokers,
		BatchTimeout: time.Duration(cfg.BatchTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		RequiredAcks: acks,
	}
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes == 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               cfg.Balancer,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             cfg.BatchBytes,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           cfg.RequiredAcks,
		Async:                  cfg.Async,
	}
	return &Producer{w: wr}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	if p == nil || p.w == nil {
		return errProducerNotInitialized
	}
	var kh []kafka.Header
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: kh,
		Time:    time.Now(),
	})
}

func (p *Producer) PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	return p.Publish(ctx, topic, []byte(key), b, headers)
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MaxRetries   int
	BackoffMin   time.Duration
	BackoffMax   time.Duration
	DLQTopic     string
	BatchSize    int           // max messages per batch
	BatchTimeout time.Duration // max time spent filling one batch
}

func ConsumerConfigFrom(cfg *KafkaConfig) ConsumerConfig {
	return ConsumerConfig{
		Brokers:      cfg.Brokers,
		GroupID:      cfg.GroupID,
		Topic:        cfg.Topic,
		MaxRetries:   cfg.MaxRetries,
		DLQTopic:     cfg.DLQTopic,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: time.Duration(cfg.BatchTimeoutMs) * time.Millisecond,
	}
}

// reader is the part of *kafka.Reader the consumer needs.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerGroup struct {
	r          reader
	cfg        ConsumerConfig
	prodForDLQ *Producer
}

var (
	errProducerNotInitialized = errors.New("producer not initialized")
	errConsumerNotInitialized = errors.New("consumer not initialized")
)

func withConsumerDefaults(cfg ConsumerConfig) ConsumerConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffMin == 0 {
		cfg.BackoffMin = 100 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}
	return cfg
}

func NewConsumerGroup(cfg ConsumerConfig) *ConsumerGroup {
	cfg = withConsumerDefaults(cfg)

	rd := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	var prod *Producer
	if cfg.DLQTopic != "" {
		prod = NewProducer(ProducerConfig{Brokers: cfg.Brokers, RequiredAcks: kafka.RequireOne})
	}

	return &ConsumerGroup{r: rd, cfg: cfg, prodForDLQ: prod}
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil {
		return nil
	}
	if cg.prodForDLQ != nil {
		_ = cg.prodForDLQ.Close()
	}
	if cg.r != nil {
		return cg.r.Close()
	}
	return nil
}

// Run fetches batches until ctx ends. A batch the handler keeps failing on
// after MaxRetries goes to the DLQ topic when one is configured; either way
// it is committed so the group moves on.
func (cg *ConsumerGroup) Run(ctx context.Context, handler func(context.Context, []Message) error) error {
	if cg == nil || cg.r == nil {
		return errConsumerNotInitialized
	}
	for {
		batch, err := cg.nextBatch(ctx)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}
		if err := cg.handle(ctx, batch, handler); err != nil {
			return err
		}
	}
}

// nextBatch fills a batch until it is full or BatchTimeout passes.
func (cg *ConsumerGroup) nextBatch(ctx context.Context) ([]kafka.Message, error) {
	batchCtx, cancel := context.WithTimeout(ctx, cg.cfg.BatchTimeout)
	defer cancel()

	var buf []kafka.Message
	for len(buf) < cg.cfg.BatchSize {
		m, err := cg.r.FetchMessage(batchCtx)
		if err == nil {
			buf = append(buf, m)
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			break
		}
		zap.S().Warnw("kafka fetch failed", "topic", cg.cfg.Topic, "error", err)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		break
	}
	return buf, nil
}

func (cg *ConsumerGroup) handle(ctx context.Context, ms []kafka.Message, handler func(context.Context, []Message) error) error {
	wrapped := make([]Message, len(ms))
	for i, m := range ms {
		wrapped[i] = wrapMessage(m)
	}

	for attempt := 1; ; attempt++ {
		err := handler(ctx, wrapped)
		if err == nil {
			break
		}
		if attempt > cg.cfg.MaxRetries {
			zap.S().Errorw("kafka batch failed, giving up", "topic", cg.cfg.Topic, "size", len(ms), "error", err)
			cg.deadLetter(ctx, ms)
			break
		}
		select {
		case <-time.After(backoffDuration(cg.cfg.BackoffMin, cg.cfg.BackoffMax, attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return cg.r.CommitMessages(ctx, ms...)
}

func (cg *ConsumerGroup) deadLetter(ctx context.Context, ms []kafka.Message) {
	if cg.cfg.DLQTopic == "" || cg.prodForDLQ == nil {
		return
	}
	for _, m := range ms {
		if err := cg.prodForDLQ.Publish(ctx, cg.cfg.DLQTopic, m.Key, m.Value, headersToMap(m.Headers)); err != nil {
			zap.S().Errorw("publish to dlq failed", "topic", cg.cfg.DLQTopic, "offset", m.Offset, "error", err)
		}
	}
}

func wrapMessage(m kafka.Message) Message {
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
		Headers:   headersToMap(m.Headers),
	}
}

func headersToMap(hs []kafka.Header) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Key] = string(h.Value)
	}
	return out
}

// backoffDuration is exponential with full jitter, capped at max.
func backoffDuration(min, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	pow := math.Pow(2, float64(attempt-1))
	d := time.Duration(float64(min) * pow)
	if d > max || d <= 0 {
		d = max
	}
	if d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// HashKey returns a stable 8-byte key for s.
func HashKey(s string) []byte {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return b
}
