package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Queue      QueueConfig
	Stream     StreamConfig
	Simulator  SimulatorConfig
	Monitoring MonitoringConfig
	Devices    []string `mapstructure:"devices"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type QueueConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Queue        string        `mapstructure:"queue"`
	Prefetch     int           `mapstructure:"prefetch"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

type StreamConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MonitoringConfig struct {
	LogLevel           string `mapstructure:"log_level"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	LokiEndpoint       string `mapstructure:"loki_endpoint"`
}

type SimulatorConfig struct {
	LatMin   float64       `mapstructure:"lat_min"`
	LatMax   float64       `mapstructure:"lat_max"`
	LonMin   float64       `mapstructure:"lon_min"`
	LonMax   float64       `mapstructure:"lon_max"`
	Step     float64       `mapstructure:"step"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load initializes configuration from environment variables and config file.
// An empty path falls back to ./config/config.yaml if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.timescaledb.host", "127.0.0.1")
	v.SetDefault("database.timescaledb.port", 5432)
	v.SetDefault("database.timescaledb.dbname", "timeseries_location")
	v.SetDefault("database.timescaledb.sslmode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.queue", "location_data_queue")
	v.SetDefault("queue.prefetch", 1)
	v.SetDefault("queue.retry_backoff", "1s")
	v.SetDefault("queue.store_timeout", "5s")

	// Stream defaults
	v.SetDefault("stream.write_timeout", "5s")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.prometheus_endpoint", "http://localhost:9090")
	v.SetDefault("monitoring.loki_endpoint", "http://localhost:3100")

	// Simulator defaults: a narrow bounding box around central Ankara
	v.SetDefault("simulator.lat_min", 39.85)
	v.SetDefault("simulator.lat_max", 39.98)
	v.SetDefault("simulator.lon_min", 32.75)
	v.SetDefault("simulator.lon_max", 32.95)
	v.SetDefault("simulator.step", 0.001)
	v.SetDefault("simulator.interval", "5s")

	v.SetDefault("devices", []string{"dev001", "dev002", "dev003", "dev004", "dev005"})
}

func validateConfig(config *Config) error {
	if config.Database.TimescaleDB.Host == "" {
		return fmt.Errorf("timescaledb host is required")
	}
	if config.Queue.Host == "" {
		return fmt.Errorf("queue host is required")
	}
	if config.Queue.Queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if config.Simulator.LatMin > config.Simulator.LatMax {
		return fmt.Errorf("simulator lat_min must not exceed lat_max")
	}
	if config.Simulator.LonMin > config.Simulator.LonMax {
		return fmt.Errorf("simulator lon_min must not exceed lon_max")
	}
	return nil
}

// DSN renders the PostgreSQL connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr renders the host:port address for Redis.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URL renders the AMQP connection URL.
func (c QueueConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}
