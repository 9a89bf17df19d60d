package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network     string
	APIKey      string
	Rows        int
	Concurrency int
	RetryDelay  time.Duration
	PGDSN       string
	Out         string
	BaseToken   string
	QuoteToken  string
	Interval    time.Duration
	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
// A .env file in the working directory is applied first so the API key
// never has to be exported manually.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RECONCILER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "alephzero")
	v.SetDefault("rows", 10)
	v.SetDefault("concurrency", 8)
	v.SetDefault("retry-delay", time.Second)
	v.SetDefault("base-token", "AZERO")
	v.SetDefault("quote-token", "USDT")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Network:     v.GetString("network"),
		APIKey:      v.GetString("api-key"),
		Rows:        v.GetInt("rows"),
		Concurrency: v.GetInt("concurrency"),
		RetryDelay:  v.GetDuration("retry-delay"),
		PGDSN:       v.GetString("pg-dsn"),
		Out:         v.GetString("out"),
		BaseToken:   v.GetString("base-token"),
		QuoteToken:  v.GetString("quote-token"),
		Interval:    v.GetDuration("interval"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
