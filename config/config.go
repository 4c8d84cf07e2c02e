package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	nats_wrapper "github.com/joripage/matchbook/pkg/infra/nats"
	postgres_wrapper "github.com/joripage/matchbook/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matchbook/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matchbook/pkg/kafka_wrapper"
	"github.com/joripage/matchbook/pkg/normalizer"
	fixgateway "github.com/joripage/matchbook/pkg/oms/fix"
	riskrule "github.com/joripage/matchbook/pkg/oms/risk_rule"
)

type EventBus string

const (
	EventBusKafka  EventBus = "kafka"
	EventBusNats   EventBus = "nats"
	EventBusDB     EventBus = "db"
	EventBusMemory EventBus = "memory"
)

var errUnknownEventBus = errors.New("unknown event bus")

type EngineConfig struct {
	MaxScale        int32 `yaml:"max_scale"`
	DepthLevels     int   `yaml:"depth_levels"`
	CheckInvariants *bool `yaml:"check_invariants"`
}

type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	PprofAddr  string `yaml:"pprof_addr"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	EventBus    EventBus                         `yaml:"event_bus"`
	Engine      EngineConfig                     `yaml:"engine"`
	OmsDB       *postgres_wrapper.PostgresConfig `yaml:"oms_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Kafka       *kafkawrapper.KafkaConfig        `yaml:"kafka"`
	Nats        *nats_wrapper.NatsConfig         `yaml:"nats"`
	Fix         *fixgateway.FixGatewayConfig     `yaml:"fix"`
	Risk        *riskrule.Config                 `yaml:"risk"`
	Metrics     MetricsConfig                    `yaml:"metrics"`
}

func (c *AppConfig) NormalizerConfig() normalizer.Config {
	return normalizer.Config{MaxScale: c.Engine.MaxScale}
}

func (c *AppConfig) InvariantChecks() bool {
	return c.Engine.CheckInvariants == nil || *c.Engine.CheckInvariants
}

func (c *AppConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "matchbook"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.EventBus == "" {
		c.EventBus = EventBusMemory
	}
	if c.Engine.MaxScale <= 0 {
		c.Engine.MaxScale = normalizer.DefaultMaxScale
	}
	if c.Engine.DepthLevels <= 0 {
		c.Engine.DepthLevels = 10
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
}

// Validate checks that the sections the chosen event bus needs are present.
func (c *AppConfig) Validate() error {
	switch c.EventBus {
	case EventBusMemory:
	case EventBusDB:
		if c.OmsDB == nil {
			return fmt.Errorf("event bus %s needs oms_db", c.EventBus)
		}
	case EventBusKafka:
		if c.Kafka == nil || len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("event bus %s needs kafka brokers and topic", c.EventBus)
		}
	case EventBusNats:
		if c.Nats == nil || c.Nats.Subject == "" {
			return fmt.Errorf("event bus %s needs nats subject", c.EventBus)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownEventBus, c.EventBus)
	}
	return nil
}

// Load load config from file and environment variables. A .env file next to
// the binary, when present, is loaded first so the yaml can reference it.
func Load(filePath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Warnw("load .env", "error", err)
	}

	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.readFromFile", "filePath", filePath)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}

	cfg, err := Parse(configBytes)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

// Parse expands environment references in raw, decodes it and applies
// defaults.
func Parse(raw []byte) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
