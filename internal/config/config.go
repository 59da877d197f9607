package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openalpha/launchpad/api"
	"github.com/openalpha/launchpad/api/middleware"
	"github.com/openalpha/launchpad/api/websocket"
)

// EnvPrefix is prepended to every environment override, e.g. LAUNCHPAD_PORT
const EnvPrefix = "LAUNCHPAD"

// Config holds the launchpad-api settings loaded from flags, env, or config file.
type Config struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	BlockInterval time.Duration

	Backend     string
	DataDir     string
	Authority   string
	HistorySize int

	LogLevel string

	DisableRateLimit    bool
	IPRequestsPerSecond float64
	IPBurst             int
	WritesPerSecond     float64
	WriteBurst          int
	MaxWSConnPerIP      int
}

// RegisterFlags adds every setting to flags with its default
func RegisterFlags(flags *pflag.FlagSet) {
	d := defaults()
	flags.String("host", d.Host, "listen host")
	flags.Int("port", d.Port, "listen port")
	flags.Duration("read-timeout", d.ReadTimeout, "HTTP read timeout")
	flags.Duration("write-timeout", d.WriteTimeout, "HTTP write timeout")
	flags.Duration("block-interval", d.BlockInterval, "interval between commits; each commit advances the tick")
	flags.String("backend", d.Backend, "state backend (memdb or goleveldb)")
	flags.String("data-dir", d.DataDir, "directory of the goleveldb backend")
	flags.String("authority", d.Authority, "protocol fee authority address")
	flags.Int("history-size", d.HistorySize, "swaps kept per pool for the history endpoint")
	flags.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	flags.Bool("disable-rate-limit", d.DisableRateLimit, "disable request rate limiting")
	flags.Float64("ip-rps", d.IPRequestsPerSecond, "requests per second per IP")
	flags.Int("ip-burst", d.IPBurst, "request burst per IP")
	flags.Float64("write-rps", d.WritesPerSecond, "writes per second per trader")
	flags.Int("write-burst", d.WriteBurst, "write burst per trader")
	flags.Int("ws-max-conn-per-ip", d.MaxWSConnPerIP, "websocket connections per IP")
}

func defaults() Config {
	server := api.DefaultConfig()
	service := api.DefaultServiceConfig()
	return Config{
		Host:                server.Host,
		Port:                server.Port,
		ReadTimeout:         server.ReadTimeout,
		WriteTimeout:        server.WriteTimeout,
		BlockInterval:       server.BlockInterval,
		Backend:             service.Backend,
		DataDir:             "./data",
		HistorySize:         service.HistorySize,
		LogLevel:            "info",
		IPRequestsPerSecond: server.RateLimit.IPRequestsPerSecond,
		IPBurst:             server.RateLimit.IPBurst,
		WritesPerSecond:     server.RateLimit.WritesPerSecond,
		WriteBurst:          server.RateLimit.WriteBurst,
		MaxWSConnPerIP:      server.WebSocket.MaxConnPerIP,
	}
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := defaults()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("read-timeout", d.ReadTimeout)
	v.SetDefault("write-timeout", d.WriteTimeout)
	v.SetDefault("block-interval", d.BlockInterval)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("data-dir", d.DataDir)
	v.SetDefault("history-size", d.HistorySize)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("ip-rps", d.IPRequestsPerSecond)
	v.SetDefault("ip-burst", d.IPBurst)
	v.SetDefault("write-rps", d.WritesPerSecond)
	v.SetDefault("write-burst", d.WriteBurst)
	v.SetDefault("ws-max-conn-per-ip", d.MaxWSConnPerIP)

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
	}

	cfg := Config{
		Host:                v.GetString("host"),
		Port:                v.GetInt("port"),
		ReadTimeout:         v.GetDuration("read-timeout"),
		WriteTimeout:        v.GetDuration("write-timeout"),
		BlockInterval:       v.GetDuration("block-interval"),
		Backend:             v.GetString("backend"),
		DataDir:             v.GetString("data-dir"),
		Authority:           v.GetString("authority"),
		HistorySize:         v.GetInt("history-size"),
		LogLevel:            v.GetString("log-level"),
		DisableRateLimit:    v.GetBool("disable-rate-limit"),
		IPRequestsPerSecond: v.GetFloat64("ip-rps"),
		IPBurst:             v.GetInt("ip-burst"),
		WritesPerSecond:     v.GetFloat64("write-rps"),
		WriteBurst:          v.GetInt("write-burst"),
		MaxWSConnPerIP:      v.GetInt("ws-max-conn-per-ip"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BlockInterval <= 0 {
		return errors.New("block-interval must be positive")
	}
	switch c.Backend {
	case api.BackendMemory:
	case api.BackendLevelDB:
		if c.DataDir == "" {
			return errors.New("data-dir is required for the goleveldb backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Service returns the state service settings
func (c Config) Service() api.ServiceConfig {
	return api.ServiceConfig{
		Backend:     c.Backend,
		DataDir:     c.DataDir,
		Authority:   c.Authority,
		HistorySize: c.HistorySize,
	}
}

// Server returns the HTTP server settings
func (c Config) Server() *api.Config {
	cfg := api.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.ReadTimeout = c.ReadTimeout
	cfg.WriteTimeout = c.WriteTimeout
	cfg.BlockInterval = c.BlockInterval
	cfg.DisableRateLimit = c.DisableRateLimit

	rl := middleware.DefaultRateLimitConfig()
	rl.IPRequestsPerSecond = c.IPRequestsPerSecond
	rl.IPBurst = c.IPBurst
	rl.WritesPerSecond = c.WritesPerSecond
	rl.WriteBurst = c.WriteBurst
	cfg.RateLimit = rl

	ws := websocket.DefaultServerConfig()
	ws.MaxConnPerIP = c.MaxWSConnPerIP
	cfg.WebSocket = ws
	return cfg
}
