package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Kafka       KafkaConfig      `mapstructure:"kafka"`
	AutoML      AutoMLConfig     `mapstructure:"automl"`
	Monitoring  MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// KafkaConfig holds the optional event publisher configuration. Events are
// disabled when no brokers are configured.
type KafkaConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Brokers []string     `mapstructure:"brokers"`
	Topics  TopicsConfig `mapstructure:"topics"`
}

// TopicsConfig names the topics events are published to.
type TopicsConfig struct {
	ModelUpdates string `mapstructure:"model_updates"`
	Predictions  string `mapstructure:"predictions"`
}

// AutoMLConfig holds the external trainer configuration. The trainer is an
// optional dependency; when the binary is absent every training endpoint
// reports service-unavailable.
type AutoMLConfig struct {
	Binary        string        `mapstructure:"binary"`
	ArtifactDir   string        `mapstructure:"artifact_dir"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	MaxIterations int           `mapstructure:"max_iterations"`
}

// MonitoringConfig holds metrics configuration.
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// Load reads configuration from the given file (optional) and the
// environment. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/procurement-analytics")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.enable_cors", true)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "procurement_analytics")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "1h")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{})
	viper.SetDefault("kafka.topics.model_updates", "ml.model.updates")
	viper.SetDefault("kafka.topics.predictions", "ml.predictions")

	viper.SetDefault("automl.binary", "automl")
	viper.SetDefault("automl.artifact_dir", "./artifacts")
	viper.SetDefault("automl.run_timeout", "1h")
	viper.SetDefault("automl.max_iterations", 3)

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
