package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once at
// process start and passed by reference into every component; components
// never read the environment themselves.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	ProspectsTable string `yaml:"prospects_table" mapstructure:"prospects_table"`
	RunsTable      string `yaml:"runs_table" mapstructure:"runs_table"`
}

// SerperConfig holds Serper search API settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DiscoveryConfig configures the keyword discovery phase.
type DiscoveryConfig struct {
	KeywordsPath    string `yaml:"keywords_path" mapstructure:"keywords_path"`
	ResultsPerQuery int    `yaml:"results_per_query" mapstructure:"results_per_query"`
}

// CrawlConfig configures the fetch phase.
type CrawlConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Limit       int     `yaml:"limit" mapstructure:"limit"`
	FetchRate   float64 `yaml:"fetch_rate" mapstructure:"fetch_rate"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// OutreachConfig configures the outreach queue build.
type OutreachConfig struct {
	SendLimit int `yaml:"send_limit" mapstructure:"send_limit"`
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
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.prospects_table", "prospects")
	v.SetDefault("store.runs_table", "runs")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("discovery.keywords_path", "config/keywords.yml")
	v.SetDefault("discovery.results_per_query", 10)
	v.SetDefault("crawl.timeout_secs", 15)
	v.SetDefault("crawl.limit", 0)
	v.SetDefault("crawl.fetch_rate", 1.0)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (compatible; ProspectorBot/1.0)")
	v.SetDefault("outreach.send_limit", 0)
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
