package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/joripage/matchbook/config"
	nats_wrapper "github.com/joripage/matchbook/pkg/infra/nats"
	postgres_wrapper "github.com/joripage/matchbook/pkg/infra/postgres"
	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/logging"
	"github.com/joripage/matchbook/pkg/metrics"
	"github.com/joripage/matchbook/pkg/oms/repo"
	"github.com/joripage/matchbook/pkg/oms/worker"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName+"-worker"))
	defer logger.Sync() // nolint
	zap.ReplaceGlobals(logger.Zap())
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OmsDB == nil {
		logger.Fatal(ctx, "worker needs oms_db")
	}
	db, err := postgres_wrapper.InitPostgresWithBackoff(ctx, cfg.OmsDB)
	if err != nil {
		logger.Fatal(ctx, "init db", zap.Error(err))
	}

	w := worker.NewWorker(repo.NewRepo(db), logger)

	switch cfg.EventBus {
	case config.EventBusKafka:
		cg := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfigFrom(cfg.Kafka))
		defer cg.Close() // nolint
		err = w.StartKafkaConsumer(ctx, cg)

	case config.EventBusNats:
		nc, js, cerr := nats_wrapper.Connect(cfg.Nats)
		if cerr != nil {
			logger.Fatal(ctx, "connect nats", zap.Error(cerr))
		}
		defer nc.Close()
		err = w.StartNATSConsumer(ctx, js, cfg.Nats.Subject, cfg.Nats.Durable, cfg.Nats.FetchBatch)

	default:
		logger.Fatal(ctx, "worker needs event_bus kafka or nats", zap.String("event_bus", string(cfg.EventBus)))
	}

	if err != nil {
		logger.Error(ctx, "worker stopped", zap.Error(err))
	}
}
