package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "OBJGEN"

type Config struct {
	API    APIConfig
	Poll   PollConfig
	Logger LoggerConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

type PollConfig struct {
	LongPollMS   int
	PollInterval time.Duration
}

// LongPoll is how long the server may hold each status query open.
func (p PollConfig) LongPoll() time.Duration {
	return time.Duration(p.LongPollMS) * time.Millisecond
}

type LoggerConfig struct {
	Level  string
	Format string
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"base-url":        "api.base_url",
	"request-timeout": "api.request_timeout",
	"long-poll-ms":    "poll.long_poll_ms",
	"poll-interval":   "poll.poll_interval",
	"log-level":       "logger.level",
	"log-format":      "logger.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://40001.cch137.com/obj-dsgn")
	v.SetDefault("api.request_timeout", "60s")
	v.SetDefault("api.user_agent", "object-designer-client")
	v.SetDefault("poll.long_poll_ms", 10000)
	v.SetDefault("poll.poll_interval", "500ms")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}

// Load reads configuration from OBJGEN_* environment variables, letting any
// flag in flags that was set explicitly take precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Env
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("api.base_url"), "/"),
			RequestTimeout: v.GetDuration("api.request_timeout"),
			UserAgent:      v.GetString("api.user_agent"),
		},
		Poll: PollConfig{
			LongPollMS:   v.GetInt("poll.long_poll_ms"),
			PollInterval: v.GetDuration("poll.poll_interval"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got: %q", c.API.BaseURL)
	}
	if c.Poll.LongPollMS <= 0 {
		return fmt.Errorf("long_poll_ms must be positive, got %d", c.Poll.LongPollMS)
	}
	if c.Poll.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.Poll.PollInterval)
	}
	if c.API.RequestTimeout <= c.Poll.LongPoll() {
		return fmt.Errorf("request_timeout (%s) must exceed the long-poll duration (%s)",
			c.API.RequestTimeout, c.Poll.LongPoll())
	}
	return nil
}
