package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Ninja    NinjaConfig    `mapstructure:"ninja"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

type ServerConfig struct {
	HTTPAddr    string   `mapstructure:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type NinjaConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateEvery time.Duration `mapstructure:"rate_every"`
	RateBurst int           `mapstructure:"rate_burst"`
}

type SnapshotConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Game          string        `mapstructure:"game"`
	Leagues       []string      `mapstructure:"leagues"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	MaxAge        time.Duration `mapstructure:"max_age"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.path", "./deck_tracker.db")
	v.SetDefault("ninja.base_url", "https://poe.ninja/api/data")
	v.SetDefault("ninja.timeout", "15s")
	v.SetDefault("ninja.rate_every", "2s")
	v.SetDefault("ninja.rate_burst", 1)
	v.SetDefault("snapshot.enabled", true)
	v.SetDefault("snapshot.game", "poe")
	v.SetDefault("snapshot.leagues", []string{})
	v.SetDefault("snapshot.check_interval", "15m")
	v.SetDefault("snapshot.max_age", "6h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
