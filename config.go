package outship

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/outship-io/outship/internal/constant"
	"gopkg.in/yaml.v3"
)

// Config is the file-based configuration of the CLI, worker and trigger.
type Config struct {
	Table  TableConfig  `yaml:"table"`
	Engine EngineConfig `yaml:"engine"`
	Worker WorkerConfig `yaml:"worker"`
	HTTP   HTTPConfig   `yaml:"http"`
}

type TableConfig struct {
	Name             string `yaml:"name"`
	IndexName        string `yaml:"index_name"`
	EndpointURL      string `yaml:"endpoint_url"`
	RetryMaxAttempts int    `yaml:"retry_max_attempts"`
}

type EngineConfig struct {
	MaxShipmentWeight Decimal        `yaml:"max_shipment_weight"`
	TimezoneKeys      map[string]int `yaml:"timezone_keys"`
	// LegacyShippable reproduces the old behavior of marking every newly
	// selected line shippable.
	LegacyShippable bool `yaml:"legacy_shippable"`
	SyncConcurrency int  `yaml:"sync_concurrency"`
}

type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	PollingInterval   time.Duration `yaml:"polling_interval"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		Table: TableConfig{
			Name:             constant.DefaultTableName,
			IndexName:        constant.DefaultIndexName,
			RetryMaxAttempts: constant.DefaultRetryMaxAttempts,
		},
		Engine: EngineConfig{
			MaxShipmentWeight: MustParseDecimal(constant.DefaultMaxShipmentWeight),
			TimezoneKeys:      DefaultTimezoneTable(),
			SyncConcurrency:   constant.DefaultSyncConcurrency,
		},
		Worker: WorkerConfig{
			Concurrency:       constant.DefaultWorkerConcurrency,
			PollingInterval:   constant.DefaultPollingInterval,
			VisibilityTimeout: constant.DefaultVisibilityTimeout,
		},
		HTTP: HTTPConfig{
			Addr: constant.DefaultHTTPAddr,
		},
	}
}

// ParseConfig decodes YAML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Table.Name == "":
		return fmt.Errorf("config: table.name is required")
	case c.Table.IndexName == "":
		return fmt.Errorf("config: table.index_name is required")
	case c.Table.RetryMaxAttempts < 0:
		return fmt.Errorf("config: table.retry_max_attempts must not be negative")
	case c.Engine.MaxShipmentWeight.IsNegative():
		return fmt.Errorf("config: engine.max_shipment_weight must not be negative")
	case c.Engine.SyncConcurrency < 1:
		return fmt.Errorf("config: engine.sync_concurrency must be at least 1")
	case c.Worker.Concurrency < 1:
		return fmt.Errorf("config: worker.concurrency must be at least 1")
	case c.Worker.PollingInterval <= 0:
		return fmt.Errorf("config: worker.polling_interval must be positive")
	case c.Worker.VisibilityTimeout <= 0:
		return fmt.Errorf("config: worker.visibility_timeout must be positive")
	}
	return nil
}

// EngineOptions converts the engine section into engine option functions.
func (c Config) EngineOptions() []func(*EngineOptions) {
	return []func(*EngineOptions){
		WithMaxShipmentWeight(c.Engine.MaxShipmentWeight),
		WithTimezoneTable(TimezoneTable(c.Engine.TimezoneKeys)),
		WithLegacyShippable(c.Engine.LegacyShippable),
		WithSyncConcurrency(c.Engine.SyncConcurrency),
	}
}

func (c Config) WorkerOptions() []func(*WorkerOptions) {
	return []func(*WorkerOptions){
		WithConcurrency(c.Worker.Concurrency),
		WithPollingInterval(c.Worker.PollingInterval),
		WithVisibilityTimeout(c.Worker.VisibilityTimeout),
	}
}

func (c Config) ClientOptions() []func(*ClientOptions) {
	return []func(*ClientOptions){
		WithTableName(c.Table.Name),
		WithIndexName(c.Table.IndexName),
		WithAWSBaseEndpoint(c.Table.EndpointURL),
		WithAWSRetryMaxAttempts(c.Table.RetryMaxAttempts),
	}
}
