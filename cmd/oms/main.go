package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joripage/matchbook/config"
	"github.com/joripage/matchbook/pkg/infra"
	nats_wrapper "github.com/joripage/matchbook/pkg/infra/nats"
	redis_wrapper "github.com/joripage/matchbook/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/logging"
	"github.com/joripage/matchbook/pkg/metrics"
	"github.com/joripage/matchbook/pkg/normalizer"
	"github.com/joripage/matchbook/pkg/oms"
	eventstore "github.com/joripage/matchbook/pkg/oms/event_store"
	fixgateway "github.com/joripage/matchbook/pkg/oms/fix"
	"github.com/joripage/matchbook/pkg/oms/marketdata"
	"github.com/joripage/matchbook/pkg/oms/repo"
	"github.com/joripage/matchbook/pkg/orderbook"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName))
	defer logger.Sync() // nolint
	zap.ReplaceGlobals(logger.Zap())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	metrics.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
			logger.Error(ctx, "metrics server", zap.Error(err))
		}
	}()
	if cfg.Metrics.PprofAddr != "" {
		go func() {
			_ = http.ListenAndServe(cfg.Metrics.PprofAddr, nil)
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	recorder, closeRecorder := buildRecorder(ctx, cfg, logger)
	defer closeRecorder()

	books := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{
		CheckInvariants: cfg.InvariantChecks(),
	})

	opts := []oms.Option{
		oms.WithLogger(logger),
		oms.WithNormalizer(normalizer.New(cfg.NormalizerConfig())),
		oms.WithRiskRules(cfg.Risk.Rules()...),
	}
	if cfg.Redis != nil {
		rdb, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal(ctx, "init redis", zap.Error(err))
		}
		defer rdb.Close() // nolint
		ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
		opts = append(opts, oms.WithDepthSink(marketdata.NewDepthCache(rdb, cfg.Redis.KeyPrefix, ttl)))
	}

	service := oms.NewOMS(oms.Config{DepthLevels: cfg.Engine.DepthLevels}, books, recorder, opts...)
	if cfg.Fix != nil {
		service.AddGateway(fixgateway.NewFixGateway(cfg.Fix, service, logger))
	}
	if err := service.Start(ctx); err != nil {
		logger.Fatal(ctx, "start oms", zap.Error(err))
	}
	logger.Info(ctx, "oms started", zap.String("event_bus", string(cfg.EventBus)))

	<-sigs
	logger.Info(ctx, "shutting down")

	service.Stop()
	cancel()
}

func buildRecorder(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) (oms.Recorder, func()) {
	switch cfg.EventBus {
	case config.EventBusKafka:
		producer := kafkawrapper.NewProducer(kafkawrapper.ProducerConfigFrom(cfg.Kafka))
		return oms.NewKafkaRecorder(producer, cfg.Kafka.Topic), func() { _ = producer.Close() }

	case config.EventBusNats:
		nc, js, err := nats_wrapper.Connect(cfg.Nats)
		if err != nil {
			logger.Fatal(ctx, "connect nats", zap.Error(err))
		}
		return oms.NewNATSRecorder(js, cfg.Nats.Subject), func() { _ = nc.Drain() }

	case config.EventBusDB:
		db, err := infra.GetMigrateTool().ConnectAndMigrate(ctx, cfg.OmsDB)
		if err != nil {
			logger.Fatal(ctx, "init db", zap.Error(err))
		}
		return oms.NewRepoRecorder(repo.NewRepo(db)), func() {}
	}

	return eventstore.NewInMemoryEventStore(), func() {}
}
