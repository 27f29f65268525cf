package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/crestline-group/recon-cli/internal/source"
)

// Config holds the full application configuration.
type Config struct {
	Sources []source.Spec `yaml:"sources" mapstructure:"sources"`
	// SourcesFile points to a standalone source manifest; entries there
	// are appended to the inline Sources list.
	SourcesFile string         `yaml:"sources_file" mapstructure:"sources_file"`
	Run         RunConfig      `yaml:"run" mapstructure:"run"`
	Output      OutputConfig   `yaml:"output" mapstructure:"output"`
	Fetch       FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Profiler    ProfilerConfig `yaml:"profiler" mapstructure:"profiler"`
	Store       StoreConfig    `yaml:"store" mapstructure:"store"`
	Server      ServerConfig   `yaml:"server" mapstructure:"server"`
	Log         LogConfig      `yaml:"log" mapstructure:"log"`
}

// RunConfig tunes the reconciliation engine.
type RunConfig struct {
	Strict          bool   `yaml:"strict" mapstructure:"strict"`
	HashingEnabled  bool   `yaml:"hashing_enabled" mapstructure:"hashing_enabled"`
	DigestSalt      string `yaml:"digest_salt" mapstructure:"digest_salt"`
	LoadTimeoutSecs int    `yaml:"load_timeout_secs" mapstructure:"load_timeout_secs"`
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// OutputConfig configures where artifacts land.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Workbook bool   `yaml:"workbook" mapstructure:"workbook"`
	Profile  bool   `yaml:"profile" mapstructure:"profile"`
}

// FetchConfig configures remote source retrieval.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	FTPUser     string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string  `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// ProfilerConfig configures the external dataset profiling engine.
type ProfilerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the run-record backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the run inspection server.
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
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("run.strict", false)
	v.SetDefault("run.hashing_enabled", true)
	v.SetDefault("run.load_timeout_secs", 300)
	v.SetDefault("run.concurrency", 4)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.workbook", true)
	v.SetDefault("output.profile", false)
	v.SetDefault("fetch.user_agent", "recon-cli")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("profiler.enabled", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "recon.db")
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

	if cfg.SourcesFile != "" {
		manifest, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sources = append(cfg.Sources, manifest...)
	}

	return &cfg, nil
}

// Validate checks the fields required for the given mode. Shared bounds are
// checked for every mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Run.Concurrency < 1 || c.Run.Concurrency > 32 {
		problems = append(problems, "run.concurrency must be between 1 and 32")
	}
	if c.Run.LoadTimeoutSecs < 0 {
		problems = append(problems, "run.load_timeout_secs must be >= 0")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "", "none":
	default:
		problems = append(problems, "store.driver must be sqlite, postgres or none")
	}

	switch mode {
	case "reconcile":
		if len(c.Sources) == 0 {
			problems = append(problems, "at least one source is required")
		}
		for _, spec := range c.Sources {
			if err := spec.Check(); err != nil {
				problems = append(problems, err.Error())
			}
		}
		if c.Output.Profile && !c.Profiler.Enabled {
			problems = append(problems, "output.profile requires profiler.enabled")
		}
		if c.Profiler.Enabled && c.Profiler.BaseURL == "" {
			problems = append(problems, "profiler.base_url is required when profiler.enabled")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			problems = append(problems, "a store driver is required to serve runs")
		}
	case "runs":
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			problems = append(problems, "a store driver is required to inspect runs")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// sourceManifest is the shape of a standalone sources.yaml file.
type sourceManifest struct {
	Sources []source.Spec `yaml:"sources"`
}

// LoadSources reads a source manifest file.
func LoadSources(path string) ([]source.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read sources manifest %s", path)
	}

	var m sourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "config: parse sources manifest %s", path)
	}
	return m.Sources, nil
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
