package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Remediate RemediateConfig `yaml:"remediate" mapstructure:"remediate"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the charity directory GraphQL client.
type APIConfig struct {
	// Environment selects the directory deployment: production, staging
	// or dev. Endpoint, when set, overrides the environment's URL.
	Environment string `yaml:"environment" mapstructure:"environment"`
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	Token       string `yaml:"token" mapstructure:"token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateRPS     int    `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StoreConfig configures the audit-run database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RemediateConfig configures remediation run behavior.
type RemediateConfig struct {
	Limit      int    `yaml:"limit" mapstructure:"limit"`
	ModifiedBy string `yaml:"modified_by" mapstructure:"modified_by"`
	RulesPath  string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CHARITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.environment", "staging")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_rps", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "charity-cli.db")
	v.SetDefault("remediate.limit", 50)
	v.SetDefault("remediate.modified_by", "AI_Copilot_Assistant")
	v.SetDefault("server.port", 8080)
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

// Validate checks the configuration needed for the given command mode.
// Errors are collected so the operator sees every missing setting at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkAPI := func() {
		if c.API.Token == "" {
			problems = append(problems, "api.token is required")
		}
		switch c.API.Environment {
		case "production", "staging", "dev":
		default:
			if c.API.Endpoint == "" {
				problems = append(problems, "api.environment must be production, staging or dev")
			}
		}
		if c.API.RateRPS < 1 || c.API.RateRPS > 50 {
			problems = append(problems, "api.rate_rps must be between 1 and 50")
		}
	}
	checkStore := func() {
		switch c.Store.Driver {
		case "", "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for postgres")
			}
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	}

	switch mode {
	case "remediate", "audit":
		checkAPI()
		checkStore()
		if c.Remediate.Limit < 1 {
			problems = append(problems, "remediate.limit must be >= 1")
		}
	case "serve":
		checkAPI()
		checkStore()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "runs":
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
