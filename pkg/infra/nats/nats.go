package nats_wrapper

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsConfig struct {
	URL              string `yaml:"url"`
	Stream           string `yaml:"stream"`
	Subject          string `yaml:"subject"`
	Durable          string `yaml:"durable"`
	MaxPending       int    `yaml:"max_pending"`
	FetchBatch       int    `yaml:"fetch_batch"`
	ReconnectSeconds int    `yaml:"reconnect_seconds"`
}

// Connect dials NATS and makes sure the stream carrying cfg.Subject exists.
func Connect(cfg *NatsConfig) (*nats.Conn, nats.JetStreamContext, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	wait := 2 * time.Second
	if cfg.ReconnectSeconds > 0 {
		wait = time.Duration(cfg.ReconnectSeconds) * time.Second
	}

	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(wait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.S().Warnw("nats disconnected", "error", err)
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	maxPending := cfg.MaxPending
	if maxPending <= 0 {
		maxPending = 4096
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(maxPending))
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream context: %w", err)
	}

	if err := ensureStream(js, cfg); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}

func ensureStream(js nats.JetStreamContext, cfg *NatsConfig) error {
	if cfg.Stream == "" {
		return nil
	}
	_, err := js.StreamInfo(cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", cfg.Stream, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", cfg.Stream, err)
	}
	return nil
}
