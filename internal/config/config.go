package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/medpanel/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Gen     GenConfig     `yaml:"gen" mapstructure:"gen"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GenConfig holds default generation parameters. Seed 0 means "freshly
// seeded per run"; any other value makes generation reproducible.
type GenConfig struct {
	Regions   int    `yaml:"regions" mapstructure:"regions"`
	Days      int    `yaml:"days" mapstructure:"days"`
	StartDate string `yaml:"start_date" mapstructure:"start_date"`
	Seed      int64  `yaml:"seed" mapstructure:"seed"`
	Workers   int    `yaml:"workers" mapstructure:"workers"`
}

// Start parses the configured start date.
func (g GenConfig) Start() (time.Time, error) {
	t, err := time.Parse(model.DateFormat, g.StartDate)
	if err != nil {
		return time.Time{}, eris.Wrapf(model.ErrInvalidArgument, "config: start_date %q is not YYYY-MM-DD", g.StartDate)
	}
	return t, nil
}

// ClusterConfig holds clustering defaults.
type ClusterConfig struct {
	Seed     int64 `yaml:"seed" mapstructure:"seed"`
	DefaultK int   `yaml:"default_k" mapstructure:"default_k"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MEDPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "medpanel.db")
	v.SetDefault("gen.regions", 50)
	v.SetDefault("gen.days", 365)
	v.SetDefault("gen.start_date", "2023-01-01")
	v.SetDefault("gen.seed", 0)
	v.SetDefault("gen.workers", 4)
	v.SetDefault("cluster.seed", 42)
	v.SetDefault("cluster.default_k", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// WriteDefault writes a config file with the default settings to path.
// Fails if the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	cfg, err := Load()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write file")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
