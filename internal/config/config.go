// Package config loads the indexer's root settings from config.yaml,
// mirroring original_source/src/config/config.rs's Settings: database
// connection details plus per-component tuning, with the same
// defaulting behavior for optional fields.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ClickHouseSettings configures the dual-rate batch ingestor's
// ClickHouse connection and per-rate thresholds.
type ClickHouseSettings struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	HistoricalBatchSize      int `mapstructure:"historical_batch_size"`
	HistoricalMaxWaitSeconds int `mapstructure:"historical_max_wait_secs"`
	LiveBatchSize            int `mapstructure:"live_batch_size"`
	LiveMaxWaitMilliseconds  int `mapstructure:"live_max_wait_ms"`
}

// PostgresSettings configures the relational store connection.
type PostgresSettings struct {
	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	PoolSize int32  `mapstructure:"pool_size"`
}

// IndexerSettings configures the per-chain worker fleet.
type IndexerSettings struct {
	HypersyncBearerToken       string `mapstructure:"hypersync_bearer_token"`
	TipPollIntervalMilliseconds int64 `mapstructure:"tip_poll_interval_milliseconds"`
}

// RedpandaSettings configures the optional tip-broker publisher.
type RedpandaSettings struct {
	Enabled     bool   `mapstructure:"enabled"`
	Brokers     string `mapstructure:"brokers"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// ObservabilitySettings configures structured logging output.
type ObservabilitySettings struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsSettings configures the Prometheus exposition endpoint.
type MetricsSettings struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// CronSettings configures the interval of each periodic background
// job. Defaults mirror the original scheduler's CronSettings::default:
// stats and price changes every 15 minutes, materialized views every 5
// minutes, pool and token snapshots every hour.
type CronSettings struct {
	UpdateStatsIntervalSeconds    int `mapstructure:"update_stats_interval_secs"`
	RefreshMVIntervalSeconds      int `mapstructure:"refresh_mv_interval_secs"`
	PoolSnapshotIntervalSeconds   int `mapstructure:"pool_snapshot_interval_secs"`
	TokenSnapshotIntervalSeconds int `mapstructure:"token_snapshot_interval_secs"`
}

// Settings is the root application configuration, loaded from
// config.yaml at startup.
type Settings struct {
	ClickHouse    ClickHouseSettings    `mapstructure:"clickhouse"`
	Postgres      PostgresSettings      `mapstructure:"postgres"`
	Indexer       IndexerSettings       `mapstructure:"indexer"`
	Redpanda      RedpandaSettings      `mapstructure:"redpanda"`
	Observability ObservabilitySettings `mapstructure:"observability"`
	Metrics       MetricsSettings       `mapstructure:"metrics"`
	Cron          CronSettings          `mapstructure:"cron"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clickhouse.historical_batch_size", 5_000_000)
	v.SetDefault("clickhouse.historical_max_wait_secs", 10)
	v.SetDefault("clickhouse.live_batch_size", 1_000)
	v.SetDefault("clickhouse.live_max_wait_ms", 100)

	v.SetDefault("postgres.pool_size", 16)

	v.SetDefault("indexer.tip_poll_interval_milliseconds", 200)

	v.SetDefault("redpanda.enabled", false)
	v.SetDefault("redpanda.brokers", "localhost:9092")
	v.SetDefault("redpanda.topic_prefix", "dexindexer")

	v.SetDefault("observability.level", "info")
	v.SetDefault("observability.max_size_mb", 100)
	v.SetDefault("observability.max_backups", 5)
	v.SetDefault("observability.max_age_days", 28)

	v.SetDefault("metrics.listen_addr", ":9090")

	v.SetDefault("cron.update_stats_interval_secs", 900)
	v.SetDefault("cron.refresh_mv_interval_secs", 300)
	v.SetDefault("cron.pool_snapshot_interval_secs", 3600)
	v.SetDefault("cron.token_snapshot_interval_secs", 3600)
}

// Load reads config.yaml from the current working directory. A
// missing file, malformed YAML, or a required field left empty is
// fatal: the caller is expected to log and exit rather than run with
// partial configuration.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config.yaml: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("parse config.yaml: %w", err)
	}

	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid config.yaml: %w", err)
	}

	return &settings, nil
}

func (s *Settings) validate() error {
	if s.ClickHouse.URL == "" {
		return fmt.Errorf("clickhouse.url is required")
	}
	if s.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}
	if s.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if s.Postgres.Database == "" {
		return fmt.Errorf("postgres.database is required")
	}
	if s.Indexer.HypersyncBearerToken == "" {
		return fmt.Errorf("indexer.hypersync_bearer_token is required")
	}
	return nil
}
